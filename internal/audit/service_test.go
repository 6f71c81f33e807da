package audit

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestService_AppendRequiresType(t *testing.T) {
	svc := NewService(NewMemoryRepo())

	if err := svc.Append(context.Background(), Event{Username: "alice"}); !errors.Is(err, ErrInvalidEvent) {
		t.Fatalf("expected ErrInvalidEvent, got %v", err)
	}
}

func TestService_FillsIDAndTimestamp(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)
	fixed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.clock = func() time.Time { return fixed }

	svc.LogLogin(context.Background(), "alice", "u-1", "User", "1.2.3.4")

	evs := repo.Events()
	if len(evs) != 1 {
		t.Fatalf("expected 1 event, got %d", len(evs))
	}
	if evs[0].ID == "" || !evs[0].CreatedAt.Equal(fixed) {
		t.Fatalf("expected id and timestamp, got %+v", evs[0])
	}
	if evs[0].Type != EventLogin || evs[0].IPAddress != "1.2.3.4" {
		t.Fatalf("unexpected event %+v", evs[0])
	}
}

func TestService_NilIsNoop(t *testing.T) {
	var svc *Service
	svc.LogLogout(context.Background(), "1.2.3.4")
	if evs, err := svc.Recent(context.Background(), 10); err != nil || evs != nil {
		t.Fatalf("expected nothing, got %v %v", evs, err)
	}
}

func TestMemoryRepo_RecentNewestFirstAndBounded(t *testing.T) {
	repo := NewMemoryRepo()
	repo.limit = 3
	svc := NewService(repo)
	ctx := context.Background()

	for _, p := range []string{"/a", "/b", "/c", "/d"} {
		svc.LogAccessRedirect(ctx, "ip", p, "/login")
	}

	evs, err := svc.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(evs) != 3 {
		t.Fatalf("expected 3 retained events, got %d", len(evs))
	}
	if evs[0].Path != "/d" || evs[2].Path != "/b" {
		t.Fatalf("unexpected order: %s..%s", evs[0].Path, evs[2].Path)
	}

	two, _ := svc.Recent(ctx, 2)
	if len(two) != 2 || two[0].Path != "/d" {
		t.Fatalf("unexpected page: %+v", two)
	}
}

func TestMemoryRepo_ListEventsHalfOpenRange(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		_ = repo.Append(ctx, Event{ID: string(rune('a' + i)), Type: EventLogin, CreatedAt: base.Add(time.Duration(i) * time.Hour)})
	}

	evs, err := repo.ListEvents(ctx, base.Add(time.Hour), base.Add(3*time.Hour))
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(evs) != 2 || evs[0].ID != "b" || evs[1].ID != "c" {
		t.Fatalf("expected events b and c, got %+v", evs)
	}
}
