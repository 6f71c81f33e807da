package devapi

import (
	"errors"
	"testing"
	"time"

	"cms-portal/internal/cms"

	"golang.org/x/crypto/bcrypt"
)

func seededStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore(bcrypt.MinCost)
	if err := s.Seed(); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return s
}

func TestStore_AuthenticateSeededUsers(t *testing.T) {
	s := seededStore(t)

	u, err := s.Authenticate("bob", SeedPassword)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if u.Role != cms.RoleAdmin {
		t.Fatalf("expected bob to be Admin, got %s", u.Role)
	}
	if _, err := s.Authenticate("bob", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := s.Authenticate("nobody", SeedPassword); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestStore_CreateUser(t *testing.T) {
	s := seededStore(t)

	u, err := s.CreateUser("carol", "secret1", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if u.Role != cms.RoleUser || u.ID == "" {
		t.Fatalf("unexpected user %+v", u)
	}
	if _, err := s.CreateUser("carol", "secret1", cms.RoleUser); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if _, err := s.CreateUser("dave", "123", cms.RoleUser); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected short password to be rejected, got %v", err)
	}
	if _, err := s.CreateUser("erin", "secret1", "Owner"); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected unknown role to be rejected, got %v", err)
	}
}

func TestStore_ListArticlesFiltersAndSorts(t *testing.T) {
	s := seededStore(t)

	all := s.ListArticles(ArticleFilter{})
	if all.TotalData != 3 {
		t.Fatalf("expected 3 articles, got %d", all.TotalData)
	}
	if all.Data[0].ID != "a-3" {
		t.Fatalf("expected newest first, got %s", all.Data[0].ID)
	}
	if all.Data[0].Category == nil || all.Data[0].User == nil {
		t.Fatalf("expected category and author to be expanded")
	}

	mine := s.ListArticles(ArticleFilter{UserID: "u-1"})
	if mine.TotalData != 2 {
		t.Fatalf("expected 2 articles for u-1, got %d", mine.TotalData)
	}

	byTitle := s.ListArticles(ArticleFilter{SortBy: "title"})
	if byTitle.Data[0].ID != "a-1" {
		t.Fatalf("expected title ascending, got %s first", byTitle.Data[0].ID)
	}

	day := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	inDay := s.ListArticles(ArticleFilter{CreatedAtStart: day, CreatedAtEnd: day})
	if inDay.TotalData != 3 {
		t.Fatalf("expected end date to be inclusive, got %d", inDay.TotalData)
	}
	none := s.ListArticles(ArticleFilter{CreatedAtStart: day.AddDate(0, 0, 1)})
	if none.TotalData != 0 {
		t.Fatalf("expected no articles after start, got %d", none.TotalData)
	}

	paged := s.ListArticles(ArticleFilter{Page: 2, Limit: 2})
	if len(paged.Data) != 1 || paged.TotalPages != 2 {
		t.Fatalf("unexpected page %+v", paged)
	}
}

func TestStore_ArticleOwnership(t *testing.T) {
	s := seededStore(t)
	alice, _ := s.Authenticate("alice", SeedPassword)
	bob, _ := s.Authenticate("bob", SeedPassword)
	in := cms.ArticleInput{Title: "Edited", Content: "x", CategoryID: "c-tech"}

	// a-2 belongs to bob.
	if _, err := s.UpdateArticle("a-2", alice, in); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	// Admins may edit anything.
	if _, err := s.UpdateArticle("a-1", bob, in); err != nil {
		t.Fatalf("admin update: %v", err)
	}
	if err := s.DeleteArticle("a-1", alice); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
	if _, err := s.Article("a-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if _, err := s.CreateArticle(alice.ID, cms.ArticleInput{Title: "x", CategoryID: "missing"}); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected unknown category to be rejected, got %v", err)
	}
}

func TestStore_Categories(t *testing.T) {
	s := seededStore(t)

	if _, err := s.CreateCategory("u-2", "technology"); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected case-insensitive conflict, got %v", err)
	}
	c, err := s.CreateCategory("u-2", "Travel")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if got := s.ListCategories(CategoryFilter{Search: "trav"}); got.TotalData != 1 {
		t.Fatalf("expected search hit, got %d", got.TotalData)
	}
	if err := s.DeleteCategory("c-tech"); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected in-use category to be kept, got %v", err)
	}
	if err := s.DeleteCategory(c.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
}
