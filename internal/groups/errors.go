package groups

import (
	"errors"
)

var (
	ErrGroupNotFound  = errors.New("group not found")
	ErrGroupNotUnique = errors.New("group id is not unique")
)
