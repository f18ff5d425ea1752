package employee

import (
	"strings"

	"github.com/frahmantamala/staffdesk/internal"
)

// EmployeeDTO is the submit shape of the employee form, for both create and
// update.
type EmployeeDTO struct {
	FirstName  string  `json:"first_name"`
	LastName   string  `json:"last_name"`
	Email      string  `json:"email"`
	Phone      string  `json:"phone"`
	Department string  `json:"department"`
	Position   string  `json:"position"`
	HireDate   string  `json:"hire_date"`
	Salary     float64 `json:"salary"`
	Address    string  `json:"address"`
}

func (d EmployeeDTO) Validate() error {
	if strings.TrimSpace(d.FirstName) == "" {
		return internal.NewValidationError("first name is required", internal.ErrCodeMissingFields)
	}
	if strings.TrimSpace(d.Email) == "" {
		return internal.NewValidationError("email is required", internal.ErrCodeMissingFields)
	}
	if d.Salary < 0 {
		return internal.NewValidationError("salary cannot be negative", internal.ErrCodeInvalidSalary)
	}
	return nil
}
