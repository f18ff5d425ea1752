package employee

import (
	"context"
	"net/url"
	"strconv"
)

// API is the slice of the gateway client this package needs.
type API interface {
	Get(ctx context.Context, endpoint string, out interface{}) error
	Post(ctx context.Context, endpoint string, body, out interface{}) error
	Put(ctx context.Context, endpoint string, body, out interface{}) error
	Delete(ctx context.Context, endpoint string) error
}

// Employee as the backend returns it. Timestamps stay strings; the client
// only displays them.
type Employee struct {
	ID         int64   `json:"id"`
	FirstName  string  `json:"first_name"`
	LastName   string  `json:"last_name"`
	Email      string  `json:"email"`
	Phone      string  `json:"phone,omitempty"`
	Department string  `json:"department,omitempty"`
	Position   string  `json:"position,omitempty"`
	HireDate   string  `json:"hire_date,omitempty"`
	Salary     float64 `json:"salary"`
	Address    string  `json:"address,omitempty"`
	IsActive   bool    `json:"is_active,omitempty"`
	CreatedAt  string  `json:"created_at,omitempty"`
	UpdatedAt  string  `json:"updated_at,omitempty"`
}

func (e *Employee) FullName() string {
	if e.LastName == "" {
		return e.FirstName
	}
	return e.FirstName + " " + e.LastName
}

// DeletedEmployee is a soft-deleted record from the archive listing. It is
// excluded from the active listing but retained and restorable.
type DeletedEmployee struct {
	Employee
	DeletedByName string `json:"deleted_by_name"`
	DeletedAt     string `json:"deleted_at"`
}

type Stats struct {
	Total         int            `json:"total"`
	Active        int            `json:"active"`
	AverageSalary float64        `json:"average_salary"`
	ByDepartment  map[string]int `json:"by_department"`
}

// ListFilters mirror the query parameters of GET /employees.
type ListFilters struct {
	Search     string
	Department string
	IsActive   *bool
	SortBy     string
	Order      string
}

func (f ListFilters) encode() string {
	params := url.Values{}
	if f.Search != "" {
		params.Set("search", f.Search)
	}
	if f.Department != "" {
		params.Set("department", f.Department)
	}
	if f.IsActive != nil {
		params.Set("isActive", strconv.FormatBool(*f.IsActive))
	}
	if f.SortBy != "" {
		params.Set("sortBy", f.SortBy)
	}
	if f.Order != "" {
		params.Set("order", f.Order)
	}
	if len(params) == 0 {
		return ""
	}
	return "?" + params.Encode()
}
