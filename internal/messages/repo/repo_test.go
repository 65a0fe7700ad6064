package messagesrepo

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/kgellert/hodatay-groups/internal/messages"
	"github.com/kgellert/hodatay-groups/internal/storage/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	groupA = "0190a6c2-7d1e-7b3a-9c4f-00000000000a"
	groupB = "0190a6c2-7d1e-7b3a-9c4f-00000000000b"
)

func newRepo(t *testing.T) *Repo {
	t.Helper()

	db, err := sqlite.New(context.Background(), filepath.Join(t.TempDir(), "messages.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return New(db)
}

func msg(id, groupID, content string, at time.Time, file *string) messages.Message {
	return messages.Message{ID: id, GroupID: groupID, User: "alice", Content: content, File: file, CreatedAt: at}
}

func TestRepo_ListMessages_FiltersAndOrders(t *testing.T) {
	ctx := context.Background()
	r := newRepo(t)

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	key := "uploads/0190a6c2-7d1e-7b3a-9c4f-1a2b3c4d5e6f.png"

	require.NoError(t, r.InsertMessage(ctx, msg("m3", groupA, "third", base.Add(2*time.Second), nil)))
	require.NoError(t, r.InsertMessage(ctx, msg("m1", groupA, "first", base, &key)))
	require.NoError(t, r.InsertMessage(ctx, msg("b1", groupB, "other", base, nil)))
	require.NoError(t, r.InsertMessage(ctx, msg("m2", groupA, "second", base.Add(time.Second), nil)))

	got, err := r.ListMessages(ctx, groupA)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, []string{"m1", "m2", "m3"}, []string{got[0].ID, got[1].ID, got[2].ID})
	for _, m := range got {
		assert.Equal(t, groupA, m.GroupID)
	}
	require.NotNil(t, got[0].File)
	assert.Equal(t, key, *got[0].File)
	assert.Nil(t, got[1].File)
	assert.Equal(t, base, got[0].CreatedAt)
}

func TestRepo_ListMessages_UnknownGroup(t *testing.T) {
	r := newRepo(t)

	got, err := r.ListMessages(context.Background(), "no-such-group")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestRepo_ListMessages_Idempotent(t *testing.T) {
	ctx := context.Background()
	r := newRepo(t)

	require.NoError(t, r.InsertMessage(ctx, msg("m1", groupA, "hi", time.Now().UTC(), nil)))

	first, err := r.ListMessages(ctx, groupA)
	require.NoError(t, err)
	second, err := r.ListMessages(ctx, groupA)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestRepo_FileReferenced(t *testing.T) {
	ctx := context.Background()
	r := newRepo(t)

	key := "uploads/referenced.png"
	require.NoError(t, r.InsertMessage(ctx, msg("m1", groupA, "", time.Now().UTC(), &key)))

	tests := []struct {
		name string
		key  string
		want bool
	}{
		{name: "referenced", key: key, want: true},
		{name: "orphan", key: "uploads/orphan.png", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.FileReferenced(ctx, tt.key)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
