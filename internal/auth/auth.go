package auth

import (
	"context"

	"github.com/frahmantamala/staffdesk/internal"
	"github.com/frahmantamala/staffdesk/internal/session"
)

// API is the slice of the gateway client this package needs.
type API interface {
	Get(ctx context.Context, endpoint string, out interface{}) error
	Post(ctx context.Context, endpoint string, body, out interface{}) error
}

// authResponse is the wire shape of successful login/registration.
type authResponse struct {
	User  *session.CurrentUser `json:"user"`
	Token string               `json:"token"`
}

// validate rejects a 2xx body missing its token or user before anything
// touches the session store. A truncated success must fail like any other
// server error, not take the process down.
func (r *authResponse) validate() error {
	if r.Token == "" || r.User == nil {
		return internal.NewServerError("malformed response from server", 0)
	}
	return nil
}

type verifyResponse struct {
	User *session.CurrentUser `json:"user"`
}

type NoticeKind string

const (
	NoticeSuccess NoticeKind = "success"
	NoticeWarning NoticeKind = "warning"
	NoticeError   NoticeKind = "error"
)

// CredentialSurface is the boundary to whatever renders the sign-in form.
// The throttle policy drives it: inputs go dark for the cooldown after a
// lockout and come back with a notice once it elapses.
type CredentialSurface interface {
	DisableCredentials()
	EnableCredentials()
	Notify(kind NoticeKind, message string)
}

// Observed server thresholds, modeled client-side for messaging only; the
// server stays authoritative.
const (
	WarningThreshold = 3
	LockThreshold    = 5
)
