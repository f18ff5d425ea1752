package session

// CurrentUser is the authenticated identity persisted alongside the token.
// The password never round-trips back to the client, so there is nothing
// secret in here beyond the fact of who is signed in.
type CurrentUser struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

const (
	RoleAdmin = "admin"
	RoleStaff = "staff"
)

func (u *CurrentUser) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// Store holds the client session: an opaque bearer token and the current
// user. Token and user are created together on login/registration and
// destroyed together on logout or token invalidation; Clear removes both
// atomically as observed by any subsequent read.
type Store interface {
	SetToken(token string) error
	Token() string
	SetCurrentUser(user *CurrentUser) error
	CurrentUser() *CurrentUser
	// SetSession writes token and user as one unit.
	SetSession(token string, user *CurrentUser) error
	Clear() error
}
