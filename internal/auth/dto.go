package auth

import (
	"strings"

	"github.com/frahmantamala/staffdesk/internal"
)

// LoginDTO is the request shape for POST /auth/login.
type LoginDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (d LoginDTO) Validate() error {
	if strings.TrimSpace(d.Email) == "" {
		return internal.NewValidationError("email is required", internal.ErrCodeMissingFields)
	}
	if d.Password == "" {
		return internal.NewValidationError("password is required", internal.ErrCodeMissingFields)
	}
	return nil
}

// RegisterDTO carries the sign-up form. ConfirmPassword never leaves the
// client; the mismatch check resolves locally before any request.
type RegisterDTO struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"-"`
}

func (d RegisterDTO) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return internal.NewValidationError("name is required", internal.ErrCodeMissingFields)
	}
	if strings.TrimSpace(d.Email) == "" {
		return internal.NewValidationError("email is required", internal.ErrCodeMissingFields)
	}
	if d.Password == "" {
		return internal.NewValidationError("password is required", internal.ErrCodeMissingFields)
	}
	if d.Password != d.ConfirmPassword {
		return internal.NewValidationError("passwords do not match", internal.ErrCodePasswordMismatch)
	}
	return nil
}
