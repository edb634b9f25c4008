package request

import (
	"encoding/json"
	"fmt"
	"net/http"
	"unicode"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

const maxBodyBytes = 64 << 10

func init() {
	validate.RegisterValidation("nocontrol", func(fl validator.FieldLevel) bool {
		for _, r := range fl.Field().String() {
			if unicode.IsControl(r) && r != '\n' {
				return false
			}
		}
		return true
	})
}

func Decode(r *http.Request, v any) error {
	if err := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes)).Decode(v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("validation error: %w", err)
	}
	return nil
}

func RequireID(s string) (string, error) {
	if s == "" {
		return "", fmt.Errorf("missing required ID")
	}
	return s, nil
}
