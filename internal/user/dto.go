package user

import (
	"strings"

	"github.com/frahmantamala/staffdesk/internal"
)

// CreateUserDTO is the submit shape of the add-user form. The password goes
// out once on create and is never echoed back.
type CreateUserDTO struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (d CreateUserDTO) Validate() error {
	if strings.TrimSpace(d.Name) == "" || strings.TrimSpace(d.Email) == "" || d.Password == "" || d.Role == "" {
		return internal.NewValidationError("all fields are required", internal.ErrCodeMissingFields)
	}
	return nil
}

// UpdateUserDTO carries a partial update; empty fields are left alone by
// the server.
type UpdateUserDTO struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}
