//go:generate go run go.uber.org/mock/mockgen -source=domain.go -destination=../mocks/mock_blob_store.go -package=mocks
package uploadsdomain

import (
	"context"
	"io"

	response "github.com/kgellert/hodatay-groups/internal/lib/api/response"
)

// BlobStore owns attachment bytes. Keys are opaque to callers.
type BlobStore interface {
	Put(ctx context.Context, r io.Reader, size int64, contentType string) (key string, err error)
	// URL returns an empty string when the blob does not exist.
	URL(ctx context.Context, key string) (string, error)
	Open(ctx context.Context, key string) (body io.ReadCloser, contentType string, err error)
	Delete(ctx context.Context, key string) error
}

// SendImageRequest holds the query parameters of POST /sendImage. All three
// must be present; user and content may be empty.
type SendImageRequest struct {
	User    *string `validate:"required"`
	GroupID *string `validate:"required,uuid"`
	Content *string `validate:"required"`
}

type SendImageParams struct {
	User        string
	GroupID     string
	Content     string
	ContentType string
	Size        int64
}

type SendImageResponse struct {
	response.Response
}
