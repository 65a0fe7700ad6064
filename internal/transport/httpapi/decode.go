package httpapi

import (
	"fmt"
	"io"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// DecodeJSON decodes body into dst and validates its struct tags.
func DecodeJSON(body io.Reader, dst any) error {
	if err := render.DecodeJSON(body, dst); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	return Validate(dst)
}

func Validate(v any) error {
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	return nil
}
