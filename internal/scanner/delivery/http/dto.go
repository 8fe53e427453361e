package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
)

// LoginRequest is the body of POST /auth/login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// CreateOperatorRequest is the body of POST /api/users
type CreateOperatorRequest struct {
	Email    string `json:"email" validate:"required,email"`
	FullName string `json:"full_name" validate:"required,max=120"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"omitempty,oneof=admin operator"`
}

// UpdateFormRequest is the body of PATCH /api/scanner/form. Absent fields
// are left untouched. QuantityText is the raw input of the quantity box and
// wins over Quantity when both are sent.
type UpdateFormRequest struct {
	Barcode      *string  `json:"barcode" validate:"omitempty,max=128"`
	Quantity     *float64 `json:"quantity"`
	QuantityText *string  `json:"quantity_text" validate:"omitempty,max=32"`
	Note         *string  `json:"note"`
}

// decodeAndValidate reads a JSON body into dst and runs the struct validation.
// The returned map lists field -> failed tag for validation errors.
func decodeAndValidate(r *http.Request, v *validator.Validate, dst interface{}) (map[string]string, error) {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return nil, err
	}
	if err := v.Struct(dst); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			fields := make(map[string]string, len(validationErrors))
			for _, ve := range validationErrors {
				fields[ve.Field()] = ve.Tag()
			}
			return fields, err
		}
		return nil, err
	}
	return nil, nil
}
