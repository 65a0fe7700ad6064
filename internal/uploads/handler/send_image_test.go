package handler

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/kgellert/hodatay-groups/internal/messages"
	messagesrepo "github.com/kgellert/hodatay-groups/internal/messages/repo"
	messagesservice "github.com/kgellert/hodatay-groups/internal/messages/service"
	"github.com/kgellert/hodatay-groups/internal/storage/sqlite"
	"github.com/kgellert/hodatay-groups/internal/uploads/localstore"
	uploadsservice "github.com/kgellert/hodatay-groups/internal/uploads/service"
	"github.com/kgellert/hodatay-groups/internal/ws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	groupID = "0190a6c2-7d1e-7b3a-9c4f-00000000000a"
	baseURL = "http://groups.test"
)

var pngBody = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00\x1f\x15\xc4\x89")

type env struct {
	router   http.Handler
	messages messages.Service
	repo     *messagesrepo.Repo
	blobDir  string
}

type failingSender struct{}

func (failingSender) SendMessage(context.Context, messages.SendParams) (messages.Message, error) {
	return messages.Message{}, errors.New("insert failed")
}

func newEnv(t *testing.T, maxSize int64, sender uploadsservice.MessageSender) env {
	t.Helper()

	db, err := sqlite.New(context.Background(), filepath.Join(t.TempDir(), "groups.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	blobDir := t.TempDir()
	store, err := localstore.New(blobDir, baseURL)
	require.NoError(t, err)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := messagesrepo.New(db)
	ms := messagesservice.New(repo, store, ws.Nop, log, messagesservice.Options{})
	if sender == nil {
		sender = ms
	}
	us := uploadsservice.New(store, sender, log, uploadsservice.Options{})
	h := New(us, store, maxSize, log)

	r := chi.NewRouter()
	r.Post("/sendImage", h.SendImage())
	r.Get(localstore.FilesPath+"*", h.GetFile())

	return env{router: r, messages: ms, repo: repo, blobDir: blobDir}
}

func sendImage(t *testing.T, h http.Handler, q url.Values, contentType string, body []byte) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/sendImage?"+q.Encode(), bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func validQuery() url.Values {
	q := url.Values{}
	q.Set("user", "alice")
	q.Set("group_id", groupID)
	q.Set("content", "look")
	return q
}

func TestSendImage_RoundTrip(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, 1<<20, nil)

	rec := sendImage(t, e.router, validQuery(), "image/png", pngBody)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())

	msgs, err := e.messages.ListMessages(ctx, groupID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "alice", msgs[0].User)
	assert.Equal(t, "look", msgs[0].Content)
	require.NotNil(t, msgs[0].File)

	fileURL := *msgs[0].File
	require.True(t, strings.HasPrefix(fileURL, baseURL+localstore.FilesPath), fileURL)

	req := httptest.NewRequest(http.MethodGet, strings.TrimPrefix(fileURL, baseURL), nil)
	rec = httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, pngBody, rec.Body.Bytes())
}

func TestSendImage_SniffsMissingContentType(t *testing.T) {
	e := newEnv(t, 1<<20, nil)

	rec := sendImage(t, e.router, validQuery(), "", pngBody)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestSendImage_EmptyParamsAccepted(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, 1<<20, nil)

	q := validQuery()
	q.Set("user", "")
	q.Set("content", "")

	rec := sendImage(t, e.router, q, "image/png", pngBody)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	msgs, err := e.messages.ListMessages(ctx, groupID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Empty(t, msgs[0].User)
	assert.Empty(t, msgs[0].Content)
}

func TestSendImage_Rejected(t *testing.T) {
	without := func(name string) url.Values {
		q := validQuery()
		q.Del(name)
		return q
	}

	tests := []struct {
		name        string
		query       url.Values
		contentType string
		body        []byte
		maxSize     int64
		wantStatus  int
		wantCode    string
	}{
		{name: "missing user", query: without("user"), contentType: "image/png", body: pngBody, wantStatus: http.StatusBadRequest, wantCode: "invalid_request"},
		{name: "missing group", query: without("group_id"), contentType: "image/png", body: pngBody, wantStatus: http.StatusBadRequest, wantCode: "invalid_request"},
		{name: "missing content", query: without("content"), contentType: "image/png", body: pngBody, wantStatus: http.StatusBadRequest, wantCode: "invalid_request"},
		{name: "empty body", query: validQuery(), contentType: "image/png", body: nil, wantStatus: http.StatusBadRequest, wantCode: "empty_body"},
		{name: "not an image", query: validQuery(), contentType: "text/plain", body: []byte("hello"), wantStatus: http.StatusUnsupportedMediaType, wantCode: "invalid_content_type"},
		{name: "too large", query: validQuery(), contentType: "image/png", body: pngBody, maxSize: 8, wantStatus: http.StatusRequestEntityTooLarge, wantCode: "payload_too_large"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			maxSize := tt.maxSize
			if maxSize == 0 {
				maxSize = 1 << 20
			}
			e := newEnv(t, maxSize, nil)

			rec := sendImage(t, e.router, tt.query, tt.contentType, tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), `"`+tt.wantCode+`"`)

			msgs, err := e.messages.ListMessages(context.Background(), groupID)
			require.NoError(t, err)
			assert.Empty(t, msgs)
			assert.Empty(t, storedBlobs(t, e.blobDir))
		})
	}
}

func TestSendImage_InsertFailureLeavesOrphan(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, 1<<20, failingSender{})

	rec := sendImage(t, e.router, validQuery(), "image/png", pngBody)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	blobs := storedBlobs(t, e.blobDir)
	require.Len(t, blobs, 1)

	referenced, err := e.repo.FileReferenced(ctx, "uploads/"+blobs[0])
	require.NoError(t, err)
	assert.False(t, referenced)
}

func TestGetFile_Errors(t *testing.T) {
	e := newEnv(t, 1<<20, nil)

	tests := []struct {
		name       string
		path       string
		wantStatus int
	}{
		{name: "unknown key", path: "/files/uploads/0190a6c2-7d1e-7b3a-9c4f-1a2b3c4d5e6f.png", wantStatus: http.StatusNotFound},
		{name: "outside uploads", path: "/files/secrets.txt", wantStatus: http.StatusBadRequest},
		{name: "uploads directory", path: "/files/uploads/", wantStatus: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			e.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func storedBlobs(t *testing.T, dir string) []string {
	t.Helper()

	entries, err := os.ReadDir(filepath.Join(dir, "uploads"))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	require.NoError(t, err)

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}
