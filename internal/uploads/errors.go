package uploads

import (
	"errors"
)

var (
	ErrInvalidKey         = errors.New("invalid file key")
	ErrInvalidContentType = errors.New("invalid content type")
	ErrEmptyBody          = errors.New("request body is empty")
	ErrPayloadTooLarge    = errors.New("payload too large")
	ErrBlobNotFound       = errors.New("file not found")
)
