package logs

import "context"

// API is the slice of the gateway client this package needs.
type API interface {
	Get(ctx context.Context, endpoint string, out interface{}) error
}

// PasswordLog is one append-only password-change entry, newest first as the
// server returns them.
type PasswordLog struct {
	ID            int64  `json:"id"`
	UserID        int64  `json:"user_id"`
	Action        string `json:"action"`
	ChangedByName string `json:"changed_by_name,omitempty"`
	Module        string `json:"module,omitempty"`
	Timestamp     string `json:"timestamp"`
}

// LoginLog is the server's login-attempt record for one account.
type LoginLog struct {
	ID              int64  `json:"id"`
	UserID          int64  `json:"user_id"`
	Email           string `json:"email"`
	AttemptCount    int    `json:"attempt_count"`
	LastAttemptTime string `json:"last_attempt_time"`
	IsLocked        bool   `json:"is_locked"`
	IPAddress       string `json:"ip_address,omitempty"`
}

// Status projects the attempt count into the badge the log table shows.
func (l *LoginLog) Status() string {
	switch {
	case l.IsLocked:
		return "LOCKED"
	case l.AttemptCount >= 3:
		return "WARNING"
	case l.AttemptCount == 0:
		return "OK"
	default:
		return "FAILED"
	}
}
