package httpapi

import (
	"errors"
	"net/http"

	"github.com/kgellert/hodatay-groups/internal/groups"
	response "github.com/kgellert/hodatay-groups/internal/lib/api/response"
	"github.com/kgellert/hodatay-groups/internal/uploads"
)

var (
	ErrInvalidRequest = errors.New("invalid request")
)

func MapError(err error) (status int, code, msg string) {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return http.StatusBadRequest, "invalid_request", err.Error()

	case errors.Is(err, groups.ErrGroupNotFound):
		return http.StatusNotFound, "group_not_found", err.Error()

	case errors.Is(err, uploads.ErrEmptyBody):
		return http.StatusBadRequest, "empty_body", err.Error()

	case errors.Is(err, uploads.ErrInvalidContentType):
		return http.StatusUnsupportedMediaType, "invalid_content_type", err.Error()

	case errors.Is(err, uploads.ErrPayloadTooLarge):
		return http.StatusRequestEntityTooLarge, "payload_too_large", err.Error()

	case errors.Is(err, uploads.ErrInvalidKey):
		return http.StatusBadRequest, "invalid_key", err.Error()

	case errors.Is(err, uploads.ErrBlobNotFound):
		return http.StatusNotFound, "file_not_found", err.Error()
	}

	return http.StatusInternalServerError, "internal_error", "internal server error"
}

func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status, code, msg := MapError(err)
	response.WriteError(w, r, status, code, msg)
}
