package logs

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/staffdesk/internal"
	"github.com/frahmantamala/staffdesk/internal/session"
)

// Service reads the audit trails. Both listings are admin-only; the check
// runs locally before any request, duplicating the server's own gate.
type Service struct {
	api      API
	sessions session.Store
	logger   *slog.Logger
}

func NewService(api API, sessions session.Store, logger *slog.Logger) *Service {
	return &Service{
		api:      api,
		sessions: sessions,
		logger:   logger,
	}
}

func (s *Service) requireAdmin() error {
	if !s.sessions.CurrentUser().IsAdmin() {
		return internal.ErrAdminOnly
	}
	return nil
}

func (s *Service) PasswordLogs(ctx context.Context) ([]*PasswordLog, error) {
	if err := s.requireAdmin(); err != nil {
		return nil, err
	}

	var entries []*PasswordLog
	if err := s.api.Get(ctx, "/password-logs", &entries); err != nil {
		s.logger.Error("failed to load password logs", "error", err)
		return nil, err
	}
	return entries, nil
}

func (s *Service) LoginLogs(ctx context.Context) ([]*LoginLog, error) {
	if err := s.requireAdmin(); err != nil {
		return nil, err
	}

	var entries []*LoginLog
	if err := s.api.Get(ctx, "/login-logs", &entries); err != nil {
		s.logger.Error("failed to load login logs", "error", err)
		return nil, err
	}
	return entries, nil
}
