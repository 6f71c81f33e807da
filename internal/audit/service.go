package audit

import (
	"context"
	"errors"
	"time"

	"cms-portal/pkg/logger"

	"github.com/google/uuid"
)

// Repository is the persistence contract for audit events.
// It is append-only: there is no Update or Delete.
type Repository interface {
	Append(ctx context.Context, e Event) error
	Recent(ctx context.Context, n int) ([]Event, error)
	// ListEvents returns events created in [from, to), oldest first.
	ListEvents(ctx context.Context, from, to time.Time) ([]Event, error)
}

// Service records session events. A nil *Service records nothing, so callers
// never need to check whether auditing is enabled.
type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

var ErrInvalidEvent = errors.New("audit: invalid event")

func (s *Service) Append(ctx context.Context, e Event) error {
	if s == nil {
		return nil
	}
	if s.repo == nil {
		return errors.New("audit: repository not configured")
	}
	if e.Type == "" {
		return ErrInvalidEvent
	}

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.clock().UTC()
	}
	return s.repo.Append(ctx, e)
}

// Record appends e and only logs a failure.
func (s *Service) Record(ctx context.Context, e Event) {
	if err := s.Append(ctx, e); err != nil {
		logger.From(ctx).Warn("audit append failed", "type", e.Type, "err", err)
	}
}

func (s *Service) Recent(ctx context.Context, n int) ([]Event, error) {
	if s == nil || s.repo == nil {
		return nil, nil
	}
	return s.repo.Recent(ctx, n)
}

func (s *Service) LogLogin(ctx context.Context, username, userID, role, ip string) {
	s.Record(ctx, Event{Type: EventLogin, Username: username, UserID: userID, Role: role, IPAddress: ip})
}

func (s *Service) LogRegister(ctx context.Context, username, userID, role, ip string) {
	s.Record(ctx, Event{Type: EventRegister, Username: username, UserID: userID, Role: role, IPAddress: ip})
}

func (s *Service) LogLoginFailed(ctx context.Context, username, ip, reason string) {
	s.Record(ctx, Event{Type: EventLoginFailed, Username: username, IPAddress: ip, Message: reason})
}

func (s *Service) LogLogout(ctx context.Context, ip string) {
	s.Record(ctx, Event{Type: EventLogout, IPAddress: ip})
}

func (s *Service) LogRefreshFailed(ctx context.Context, ip, path string) {
	s.Record(ctx, Event{Type: EventRefreshFailed, IPAddress: ip, Path: path, Message: "session expired"})
}

// LogAccessRedirect records a gate decision that sent the browser elsewhere.
func (s *Service) LogAccessRedirect(ctx context.Context, ip, path, location string) {
	s.Record(ctx, Event{Type: EventAccessRedirect, IPAddress: ip, Path: path, Message: location})
}
