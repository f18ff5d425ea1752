package user

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/staffdesk/internal"
	"github.com/frahmantamala/staffdesk/internal/session"
)

// Service orchestrates user administration. Listings are admin-gated, and
// deleting the signed-in account is refused locally before any request.
// Both checks are duplicated server-side, but the client does not wait to
// find out.
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

func (s *Service) List(ctx context.Context) ([]*User, error) {
	if err := s.requireAdmin(); err != nil {
		return nil, err
	}

	var users []*User
	if err := s.api.Get(ctx, "/users", &users); err != nil {
		s.logger.Error("failed to list users", "error", err)
		return nil, err
	}
	return users, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*User, error) {
	var u User
	if err := s.api.Get(ctx, fmt.Sprintf("/users/%d", id), &u); err != nil {
		s.logger.Error("failed to get user", "error", err, "user_id", id)
		return nil, err
	}
	return &u, nil
}

func (s *Service) Create(ctx context.Context, dto CreateUserDTO) (*User, error) {
	if err := s.requireAdmin(); err != nil {
		return nil, err
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	var u User
	if err := s.api.Post(ctx, "/users", dto, &u); err != nil {
		s.logger.Error("failed to create user", "error", err, "email", dto.Email)
		return nil, err
	}

	s.logger.Info("user created", "user_id", u.ID, "email", u.Email, "role", u.Role)
	return &u, nil
}

func (s *Service) Update(ctx context.Context, id int64, dto UpdateUserDTO) (*User, error) {
	if err := s.requireAdmin(); err != nil {
		return nil, err
	}

	var u User
	if err := s.api.Put(ctx, fmt.Sprintf("/users/%d", id), dto, &u); err != nil {
		s.logger.Error("failed to update user", "error", err, "user_id", id)
		return nil, err
	}

	s.logger.Info("user updated", "user_id", id)
	return &u, nil
}

// Delete removes an account. When id is the current session's user the
// rejection is immediate and synchronous; no request is sent.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if current := s.sessions.CurrentUser(); current != nil && current.ID == id {
		s.logger.Warn("self-delete refused", "user_id", id)
		return internal.ErrSelfDelete
	}
	if err := s.requireAdmin(); err != nil {
		return err
	}

	if err := s.api.Delete(ctx, fmt.Sprintf("/users/%d", id)); err != nil {
		s.logger.Error("failed to delete user", "error", err, "user_id", id)
		return err
	}

	s.logger.Info("user deleted", "user_id", id)
	return nil
}
