package auth

import (
	"context"
	"log/slog"
	"time"

	"github.com/frahmantamala/staffdesk/internal"
	"github.com/frahmantamala/staffdesk/internal/core/events"
	"github.com/frahmantamala/staffdesk/internal/session"
)

// Service owns the session lifecycle: login, registration, verification and
// logout. It is the only writer to the session store.
type Service struct {
	api      API
	sessions session.Store
	guard    *LockoutGuard
	bus      *events.EventBus
	logger   *slog.Logger
}

func NewService(api API, sessions session.Store, guard *LockoutGuard, bus *events.EventBus, logger *slog.Logger) *Service {
	return &Service{
		api:      api,
		sessions: sessions,
		guard:    guard,
		bus:      bus,
		logger:   logger,
	}
}

// Login authenticates the credentials. While a lockout cooldown is pending
// the attempt is rejected locally without a request; the server would
// reject it too, but the client must not rely on that.
func (s *Service) Login(ctx context.Context, dto LoginDTO) (*session.CurrentUser, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	if locked, remaining := s.guard.Locked(); locked {
		s.logger.Warn("login rejected locally, cooldown pending",
			"email", dto.Email,
			"remaining_seconds", remaining.Seconds())
		return nil, s.guard.Reject(remaining)
	}

	var resp authResponse
	if err := s.api.Post(ctx, "/auth/login", dto, &resp); err != nil {
		s.handleLoginFailure(ctx, dto.Email, err)
		return nil, err
	}

	if err := resp.validate(); err != nil {
		s.logger.Error("login response missing token or user", "email", dto.Email)
		return nil, err
	}

	if err := s.sessions.SetSession(resp.Token, resp.User); err != nil {
		return nil, internal.NewServerError("failed to persist session", 0).WithCause(err)
	}
	s.guard.Success()

	s.logger.Info("login successful", "user_id", resp.User.ID, "email", resp.User.Email)
	if err := s.bus.PublishSync(ctx, events.NewSessionStartedEvent(resp.User.ID, resp.User.Email)); err != nil {
		s.logger.Error("failed to publish session event", "error", err)
	}

	return resp.User, nil
}

func (s *Service) handleLoginFailure(ctx context.Context, email string, err error) {
	appErr, ok := internal.IsAppError(err)
	if !ok {
		return
	}
	throttle, ok := appErr.Throttle()
	if !ok {
		return
	}

	switch {
	case throttle.Locked:
		cooldown := time.Duration(throttle.RemainingCooldown) * time.Second
		s.guard.Lock(email, cooldown)
		if err := s.bus.PublishSync(ctx, events.NewAccountLockedEvent(email, throttle.RemainingCooldown)); err != nil {
			s.logger.Error("failed to publish lock event", "error", err)
		}
	case throttle.Warning:
		// input stays enabled; the caller surfaces the remaining count
		s.logger.Warn("login failure in warning state",
			"email", email,
			"attempts_remaining", derefOrZero(throttle.AttemptsRemaining))
	default:
		s.logger.Info("login failure",
			"email", email,
			"attempts_remaining", derefOrZero(throttle.AttemptsRemaining))
	}
}

// Register creates an account and signs it in. Password/confirm mismatch is
// caught in Validate before anything touches the network.
func (s *Service) Register(ctx context.Context, dto RegisterDTO) (*session.CurrentUser, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	var resp authResponse
	if err := s.api.Post(ctx, "/auth/register", dto, &resp); err != nil {
		return nil, err
	}

	if err := resp.validate(); err != nil {
		s.logger.Error("registration response missing token or user", "email", dto.Email)
		return nil, err
	}

	if err := s.sessions.SetSession(resp.Token, resp.User); err != nil {
		return nil, internal.NewServerError("failed to persist session", 0).WithCause(err)
	}

	s.logger.Info("registration successful", "user_id", resp.User.ID, "email", resp.User.Email)
	if err := s.bus.PublishSync(ctx, events.NewSessionStartedEvent(resp.User.ID, resp.User.Email)); err != nil {
		s.logger.Error("failed to publish session event", "error", err)
	}

	return resp.User, nil
}

// Verify asks the server whether the persisted token is still good. A
// rejection destroys the local session; the token is gone either way.
func (s *Service) Verify(ctx context.Context) (*session.CurrentUser, error) {
	var resp verifyResponse
	if err := s.api.Get(ctx, "/auth/verify", &resp); err != nil {
		if appErr, ok := internal.IsAppError(err); ok && appErr.Type == internal.ErrorTypeAuth {
			s.logger.Info("persisted token rejected, clearing session")
			if clearErr := s.clearSession(ctx); clearErr != nil {
				return nil, clearErr
			}
		}
		return nil, err
	}
	if resp.User == nil {
		s.logger.Error("verify response missing user")
		return nil, internal.NewServerError("malformed response from server", 0)
	}
	return resp.User, nil
}

// RestoreSession resumes a persisted session at startup. A token whose exp
// claim is already past is discarded without a round-trip.
func (s *Service) RestoreSession(ctx context.Context) (*session.CurrentUser, bool) {
	token := s.sessions.Token()
	if token == "" {
		return nil, false
	}

	if tokenExpired(token) {
		s.logger.Info("persisted token expired, clearing session")
		if err := s.clearSession(ctx); err != nil {
			s.logger.Error("failed to clear expired session", "error", err)
		}
		return nil, false
	}

	user, err := s.Verify(ctx)
	if err != nil {
		return nil, false
	}
	return user, true
}

// Logout destroys the session. Token and user clear atomically, and the
// session-cleared event tears down any pending lockout timer.
func (s *Service) Logout(ctx context.Context) error {
	user := s.sessions.CurrentUser()
	if err := s.clearSession(ctx); err != nil {
		return err
	}
	if user != nil {
		s.logger.Info("logged out", "user_id", user.ID)
	}
	return nil
}

func (s *Service) clearSession(ctx context.Context) error {
	if err := s.sessions.Clear(); err != nil {
		return internal.NewServerError("failed to clear session", 0).WithCause(err)
	}
	if err := s.bus.PublishSync(ctx, events.NewSessionClearedEvent()); err != nil {
		s.logger.Error("failed to publish session cleared event", "error", err)
	}
	return nil
}

// RequestPasswordReset acknowledges a reset request. The backend has no
// reset endpoint; the acknowledgement is purely local, matching the
// original client behavior.
func (s *Service) RequestPasswordReset(email string) string {
	s.logger.Info("password reset requested", "email", email)
	return "Password reset link sent to " + email
}

func derefOrZero(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}
