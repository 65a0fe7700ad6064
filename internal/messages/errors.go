package messages

import (
	"errors"
)

var (
	ErrEmptyMessage = errors.New("content or attachment is required")
)
