package employee

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/frahmantamala/staffdesk/internal"
)

// Service orchestrates employee CRUD against the gateway. Mutations hold a
// per-record slot so the same record can never have two in flight from this
// client instance; duplicate concurrent reads collapse into one request.
type Service struct {
	api    API
	logger *slog.Logger

	reads    singleflight.Group
	inflight sync.Map
}

func NewService(api API, logger *slog.Logger) *Service {
	return &Service{
		api:    api,
		logger: logger,
	}
}

func (s *Service) beginMutation(key string) error {
	if _, loaded := s.inflight.LoadOrStore(key, struct{}{}); loaded {
		s.logger.Warn("mutation rejected, another is in flight", "key", key)
		return internal.NewValidationError("another operation is already running for this record", internal.ErrCodeBusy)
	}
	return nil
}

func (s *Service) endMutation(key string) {
	s.inflight.Delete(key)
}

// List returns active employees only; soft-deleted records never appear
// here.
func (s *Service) List(ctx context.Context, filters ListFilters) ([]*Employee, error) {
	endpoint := "/employees" + filters.encode()

	result, err, _ := s.reads.Do(endpoint, func() (interface{}, error) {
		var employees []*Employee
		if err := s.api.Get(ctx, endpoint, &employees); err != nil {
			return nil, err
		}
		return employees, nil
	})
	if err != nil {
		s.logger.Error("failed to list employees", "error", err)
		return nil, err
	}
	return result.([]*Employee), nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Employee, error) {
	var emp Employee
	if err := s.api.Get(ctx, fmt.Sprintf("/employees/%d", id), &emp); err != nil {
		s.logger.Error("failed to get employee", "error", err, "employee_id", id)
		return nil, err
	}
	return &emp, nil
}

func (s *Service) Create(ctx context.Context, dto EmployeeDTO) (*Employee, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	if err := s.beginMutation("employee:create:" + dto.Email); err != nil {
		return nil, err
	}
	defer s.endMutation("employee:create:" + dto.Email)

	var emp Employee
	if err := s.api.Post(ctx, "/employees", dto, &emp); err != nil {
		s.logger.Error("failed to create employee", "error", err, "email", dto.Email)
		return nil, err
	}

	s.logger.Info("employee created", "employee_id", emp.ID, "email", emp.Email)
	return &emp, nil
}

func (s *Service) Update(ctx context.Context, id int64, dto EmployeeDTO) (*Employee, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	key := fmt.Sprintf("employee:%d", id)
	if err := s.beginMutation(key); err != nil {
		return nil, err
	}
	defer s.endMutation(key)

	var emp Employee
	if err := s.api.Put(ctx, fmt.Sprintf("/employees/%d", id), dto, &emp); err != nil {
		s.logger.Error("failed to update employee", "error", err, "employee_id", id)
		return nil, err
	}

	s.logger.Info("employee updated", "employee_id", id)
	return &emp, nil
}

// Delete soft-deletes: the server moves the record into the archive, from
// where Restore can bring it back.
func (s *Service) Delete(ctx context.Context, id int64) error {
	key := fmt.Sprintf("employee:%d", id)
	if err := s.beginMutation(key); err != nil {
		return err
	}
	defer s.endMutation(key)

	if err := s.api.Delete(ctx, fmt.Sprintf("/employees/%d", id)); err != nil {
		s.logger.Error("failed to delete employee", "error", err, "employee_id", id)
		return err
	}

	s.logger.Info("employee soft-deleted", "employee_id", id)
	return nil
}

func (s *Service) Restore(ctx context.Context, id int64) error {
	key := fmt.Sprintf("employee:%d", id)
	if err := s.beginMutation(key); err != nil {
		return err
	}
	defer s.endMutation(key)

	if err := s.api.Post(ctx, fmt.Sprintf("/deleted-employees/%d/restore", id), nil, nil); err != nil {
		s.logger.Error("failed to restore employee", "error", err, "employee_id", id)
		return err
	}

	s.logger.Info("employee restored", "employee_id", id)
	return nil
}

func (s *Service) ListDeleted(ctx context.Context) ([]*DeletedEmployee, error) {
	var employees []*DeletedEmployee
	if err := s.api.Get(ctx, "/deleted-employees", &employees); err != nil {
		s.logger.Error("failed to list deleted employees", "error", err)
		return nil, err
	}
	return employees, nil
}

func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	result, err, _ := s.reads.Do("/employees/stats", func() (interface{}, error) {
		var stats Stats
		if err := s.api.Get(ctx, "/employees/stats", &stats); err != nil {
			return nil, err
		}
		return &stats, nil
	})
	if err != nil {
		s.logger.Error("failed to get employee stats", "error", err)
		return nil, err
	}
	return result.(*Stats), nil
}

func (s *Service) Departments(ctx context.Context) ([]string, error) {
	result, err, _ := s.reads.Do("/employees/departments", func() (interface{}, error) {
		var departments []string
		if err := s.api.Get(ctx, "/employees/departments", &departments); err != nil {
			return nil, err
		}
		return departments, nil
	})
	if err != nil {
		s.logger.Error("failed to get departments", "error", err)
		return nil, err
	}
	return result.([]string), nil
}
