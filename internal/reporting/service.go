package reporting

import (
	"context"
	"errors"
	"time"

	"cms-portal/internal/audit"
	"cms-portal/internal/cms"
)

var ErrInvalidRequest = errors.New("reporting: invalid request")

// Repository abstracts data access for reporting.
// Implementations read the append-only audit trail.
type Repository interface {
	ListEvents(ctx context.Context, from, to time.Time) ([]audit.Event, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service { return &Service{repo: repo} }

func (s *Service) ActivitySummary(ctx context.Context, req ActivityRequest) (ActivitySummary, error) {
	if !req.Range.valid() {
		return ActivitySummary{}, ErrInvalidRequest
	}
	if s == nil || s.repo == nil {
		return ActivitySummary{}, errors.New("reporting: repository not configured")
	}

	rows, err := s.repo.ListEvents(ctx, req.Range.From, req.Range.To)
	if err != nil {
		return ActivitySummary{}, err
	}

	out := ActivitySummary{Range: req.Range, Username: req.Username}
	users := map[string]struct{}{}
	for _, e := range rows {
		if req.Username != "" && e.Username != req.Username {
			continue
		}
		switch e.Type {
		case audit.EventLogin:
			out.Logins++
			if e.Username != "" {
				users[e.Username] = struct{}{}
			}
		case audit.EventLoginFailed:
			if e.Message == audit.ReasonThrottled {
				out.ThrottledLogins++
			} else {
				out.FailedLogins++
			}
		case audit.EventRegister:
			out.Registrations++
		case audit.EventLogout:
			out.Logouts++
		case audit.EventRefreshFailed:
			out.RefreshFailures++
		case audit.EventAccessRedirect:
			out.AccessRedirects++
		}
	}
	out.DistinctUsers = len(users)
	if attempts := out.Logins + out.FailedLogins; attempts > 0 {
		out.FailureRate = float64(out.FailedLogins) / float64(attempts)
	}
	return out, nil
}

// SummarizeContent aggregates one or more pages of articles.
func SummarizeContent(articles []cms.Article) ContentSummary {
	out := ContentSummary{ByCategory: map[string]int{}, ByAuthor: map[string]int{}}
	for _, a := range articles {
		out.Articles++
		cat := a.CategoryID
		if a.Category != nil && a.Category.Name != "" {
			cat = a.Category.Name
		}
		out.ByCategory[cat]++
		author := a.UserID
		if a.User != nil && a.User.Username != "" {
			author = a.User.Username
		}
		out.ByAuthor[author]++
		if a.CreatedAt.After(out.Newest) {
			out.Newest = a.CreatedAt
		}
	}
	return out
}
