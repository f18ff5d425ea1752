package user

import "context"

// API is the slice of the gateway client this package needs.
type API interface {
	Get(ctx context.Context, endpoint string, out interface{}) error
	Post(ctx context.Context, endpoint string, body, out interface{}) error
	Put(ctx context.Context, endpoint string, body, out interface{}) error
	Delete(ctx context.Context, endpoint string) error
}

// User is an account as the backend returns it. The password hash never
// comes back over the wire.
type User struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	CreatedAt string `json:"created_at,omitempty"`
}
