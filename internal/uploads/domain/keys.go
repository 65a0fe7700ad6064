package uploadsdomain

import (
	"strings"

	"github.com/google/uuid"
	"github.com/kgellert/hodatay-groups/internal/uploads"
)

const keyPrefix = "uploads/"

func GenerateKey(contentType string) (string, error) {
	ext, ok := ExtForContentType(contentType)
	if !ok {
		return "", uploads.ErrInvalidContentType
	}

	u, err := uuid.NewV7()
	if err != nil {
		return "", err
	}

	return keyPrefix + u.String() + ext, nil
}

func ValidateKey(key string) error {
	if key == "" {
		return uploads.ErrInvalidKey
	}
	if !strings.HasPrefix(key, keyPrefix) || len(key) == len(keyPrefix) {
		return uploads.ErrInvalidKey
	}
	if strings.Contains(key, "..") || strings.Contains(key[len(keyPrefix):], "/") {
		return uploads.ErrInvalidKey
	}
	return nil
}
