package reporting

import (
	"context"
	"errors"
	"testing"
	"time"

	"cms-portal/internal/audit"
	"cms-portal/internal/cms"
)

func TestReporting_ActivitySummaryCounts(t *testing.T) {
	repo := audit.NewMemoryRepo()
	ctx := context.Background()
	now := time.Unix(1700000000, 0).UTC()
	events := []audit.Event{
		{Type: audit.EventLogin, Username: "alice"},
		{Type: audit.EventLogin, Username: "alice"},
		{Type: audit.EventLogin, Username: "bob"},
		{Type: audit.EventLoginFailed, Username: "alice", Message: audit.ReasonRejected},
		{Type: audit.EventLoginFailed, Username: "mallory", Message: audit.ReasonThrottled},
		{Type: audit.EventRegister, Username: "carol"},
		{Type: audit.EventRefreshFailed},
		{Type: audit.EventAccessRedirect},
	}
	for i, e := range events {
		e.ID = string(rune('a' + i))
		e.CreatedAt = now
		_ = repo.Append(ctx, e)
	}
	// Outside the range.
	_ = repo.Append(ctx, audit.Event{ID: "old", Type: audit.EventLogin, Username: "dave", CreatedAt: now.Add(-48 * time.Hour)})

	svc := NewService(repo)
	out, err := svc.ActivitySummary(ctx, ActivityRequest{Range: TimeRange{From: now.Add(-time.Hour), To: now.Add(time.Hour)}})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if out.Logins != 3 || out.FailedLogins != 1 || out.ThrottledLogins != 1 {
		t.Fatalf("unexpected sign-in counts: %+v", out)
	}
	if out.Registrations != 1 || out.RefreshFailures != 1 || out.AccessRedirects != 1 {
		t.Fatalf("unexpected session counts: %+v", out)
	}
	if out.DistinctUsers != 2 {
		t.Fatalf("expected 2 distinct users, got %d", out.DistinctUsers)
	}
	if out.FailureRate != 0.25 {
		t.Fatalf("expected failure rate 0.25, got %v", out.FailureRate)
	}
}

func TestReporting_ActivitySummaryForOneUser(t *testing.T) {
	repo := audit.NewMemoryRepo()
	ctx := context.Background()
	now := time.Unix(1700000000, 0).UTC()
	_ = repo.Append(ctx, audit.Event{ID: "1", Type: audit.EventLogin, Username: "alice", CreatedAt: now})
	_ = repo.Append(ctx, audit.Event{ID: "2", Type: audit.EventLogin, Username: "bob", CreatedAt: now})

	out, err := NewService(repo).ActivitySummary(ctx, ActivityRequest{
		Range:    TimeRange{From: now.Add(-time.Hour), To: now.Add(time.Hour)},
		Username: "bob",
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if out.Logins != 1 || out.DistinctUsers != 1 {
		t.Fatalf("unexpected summary: %+v", out)
	}
}

func TestReporting_RejectsEmptyRange(t *testing.T) {
	now := time.Now()
	_, err := NewService(audit.NewMemoryRepo()).ActivitySummary(context.Background(), ActivityRequest{
		Range: TimeRange{From: now, To: now},
	})
	if !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
}

func TestReporting_SummarizeContent(t *testing.T) {
	out := SummarizeContent(cms.SampleArticles())
	if out.Articles != 3 {
		t.Fatalf("expected 3 articles, got %d", out.Articles)
	}
	total := 0
	for _, n := range out.ByAuthor {
		total += n
	}
	if total != 3 || len(out.ByCategory) != 3 {
		t.Fatalf("unexpected breakdown: %+v", out)
	}
	if out.Newest.IsZero() {
		t.Fatalf("expected newest timestamp")
	}
}
