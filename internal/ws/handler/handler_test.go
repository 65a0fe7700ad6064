package ws

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/kgellert/hodatay-groups/internal/groups"
	groupsrepo "github.com/kgellert/hodatay-groups/internal/groups/repo"
	groupsservice "github.com/kgellert/hodatay-groups/internal/groups/service"
	"github.com/kgellert/hodatay-groups/internal/messages"
	messagesrepo "github.com/kgellert/hodatay-groups/internal/messages/repo"
	messagesservice "github.com/kgellert/hodatay-groups/internal/messages/service"
	"github.com/kgellert/hodatay-groups/internal/storage/sqlite"
	"github.com/kgellert/hodatay-groups/internal/ws"
	"github.com/kgellert/hodatay-groups/internal/ws/hub"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const groupID = "0190a6c2-7d1e-7b3a-9c4f-00000000000a"

type nopResolver struct{}

func (nopResolver) URL(context.Context, string) (string, error) { return "", nil }

type liveEnv struct {
	url      string
	groups   groups.Service
	messages messages.Service
}

func newLiveEnv(t *testing.T) liveEnv {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	db, err := sqlite.New(ctx, filepath.Join(t.TempDir(), "live.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	h := hub.NewHub()
	go h.Run(ctx)

	gs := groupsservice.New(groupsrepo.New(db), h, log)
	ms := messagesservice.New(messagesrepo.New(db), nopResolver{}, h, log, messagesservice.Options{})

	srv := httptest.NewServer(WSHandler(h, Queries{Groups: gs, Messages: ms}, log))
	t.Cleanup(srv.Close)

	return liveEnv{
		url:      "ws" + strings.TrimPrefix(srv.URL, "http"),
		groups:   gs,
		messages: ms,
	}
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	hello := readFrame(t, conn)
	require.Equal(t, ws.FrameHello, hello.Type)

	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) ws.ServerFrame {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var frame ws.ServerFrame
	require.NoError(t, conn.ReadJSON(&frame))
	return frame
}

func subscribe(t *testing.T, conn *websocket.Conn, id, query string, args ws.QueryArgs) {
	t.Helper()

	require.NoError(t, conn.WriteJSON(ws.ClientFrame{Type: ws.FrameSubscribe, ID: id, Query: query, Args: args}))
}

func TestWS_MessagesListIsLive(t *testing.T) {
	ctx := context.Background()
	e := newLiveEnv(t)
	conn := dial(t, e.url)

	subscribe(t, conn, "s1", ws.QueryMessagesList, ws.QueryArgs{GroupID: groupID})

	first := readFrame(t, conn)
	require.Equal(t, ws.FrameResult, first.Type)
	assert.Equal(t, "s1", first.ID)
	assert.JSONEq(t, `[]`, string(first.Data))

	_, err := e.messages.SendMessage(ctx, messages.SendParams{GroupID: groupID, User: "alice", Content: "hi"})
	require.NoError(t, err)

	next := readFrame(t, conn)
	require.Equal(t, ws.FrameResult, next.Type)
	assert.Equal(t, "s1", next.ID)

	var msgs []messages.Message
	require.NoError(t, json.Unmarshal(next.Data, &msgs))
	require.Len(t, msgs, 1)
	assert.Equal(t, "alice", msgs[0].User)
	assert.Equal(t, "hi", msgs[0].Content)
}

func TestWS_OtherGroupsDoNotNotify(t *testing.T) {
	ctx := context.Background()
	e := newLiveEnv(t)
	conn := dial(t, e.url)

	subscribe(t, conn, "s1", ws.QueryMessagesList, ws.QueryArgs{GroupID: groupID})
	require.Equal(t, ws.FrameResult, readFrame(t, conn).Type)

	_, err := e.messages.SendMessage(ctx, messages.SendParams{GroupID: "another-group", User: "bob", Content: "x"})
	require.NoError(t, err)
	_, err = e.messages.SendMessage(ctx, messages.SendParams{GroupID: groupID, User: "alice", Content: "y"})
	require.NoError(t, err)

	next := readFrame(t, conn)
	var msgs []messages.Message
	require.NoError(t, json.Unmarshal(next.Data, &msgs))
	require.Len(t, msgs, 1)
	assert.Equal(t, "y", msgs[0].Content)
}

func TestWS_GroupQueries(t *testing.T) {
	ctx := context.Background()
	e := newLiveEnv(t)
	conn := dial(t, e.url)

	subscribe(t, conn, "missing", ws.QueryGroupsGet, ws.QueryArgs{ID: groupID})
	missing := readFrame(t, conn)
	require.Equal(t, ws.FrameResult, missing.Type)
	assert.Equal(t, "missing", missing.ID)
	assert.JSONEq(t, `null`, string(missing.Data))

	subscribe(t, conn, "all", ws.QueryGroupsList, ws.QueryArgs{})
	all := readFrame(t, conn)
	require.Equal(t, "all", all.ID)
	assert.JSONEq(t, `[]`, string(all.Data))

	// Both subscriptions share the groups topic, so one create reruns both.
	_, err := e.groups.CreateGroup(ctx, groups.CreateGroupParams{Name: "Team A"})
	require.NoError(t, err)

	got := map[string]json.RawMessage{}
	for range 2 {
		f := readFrame(t, conn)
		require.Equal(t, ws.FrameResult, f.Type)
		got[f.ID] = f.Data
	}

	var list []groups.Group
	require.NoError(t, json.Unmarshal(got["all"], &list))
	require.Len(t, list, 1)
	assert.Equal(t, "Team A", list[0].Name)
	assert.JSONEq(t, `null`, string(got["missing"]))
}

func TestWS_BadFrames(t *testing.T) {
	e := newLiveEnv(t)
	conn := dial(t, e.url)

	tests := []struct {
		name  string
		frame ws.ClientFrame
		id    string
	}{
		{name: "unknown query", frame: ws.ClientFrame{Type: ws.FrameSubscribe, ID: "s1", Query: "users.list"}, id: "s1"},
		{name: "messages without group", frame: ws.ClientFrame{Type: ws.FrameSubscribe, ID: "s2", Query: ws.QueryMessagesList}, id: "s2"},
		{name: "unknown type", frame: ws.ClientFrame{Type: "poke", ID: "s3"}, id: "s3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, conn.WriteJSON(tt.frame))

			f := readFrame(t, conn)
			require.Equal(t, ws.FrameError, f.Type)
			assert.Equal(t, tt.id, f.ID)
			require.NotNil(t, f.Error)
			assert.Equal(t, "invalid_request", f.Error.Code)
		})
	}

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{")))
	f := readFrame(t, conn)
	assert.Equal(t, ws.FrameError, f.Type)
}

func TestWS_Unsubscribe(t *testing.T) {
	ctx := context.Background()
	e := newLiveEnv(t)
	conn := dial(t, e.url)

	subscribe(t, conn, "gone", ws.QueryMessagesList, ws.QueryArgs{GroupID: groupID})
	require.Equal(t, "gone", readFrame(t, conn).ID)

	require.NoError(t, conn.WriteJSON(ws.ClientFrame{Type: ws.FrameUnsubscribe, ID: "gone"}))

	subscribe(t, conn, "groups", ws.QueryGroupsList, ws.QueryArgs{})
	require.Equal(t, "groups", readFrame(t, conn).ID)

	_, err := e.messages.SendMessage(ctx, messages.SendParams{GroupID: groupID, User: "alice", Content: "hi"})
	require.NoError(t, err)
	_, err = e.groups.CreateGroup(ctx, groups.CreateGroupParams{Name: "after"})
	require.NoError(t, err)

	// Frames are delivered in order, so the groups result proves no
	// messages result was queued ahead of it.
	f := readFrame(t, conn)
	assert.Equal(t, "groups", f.ID)
}
