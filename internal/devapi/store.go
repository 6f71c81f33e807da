package devapi

import (
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"cms-portal/internal/cms"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrConflict           = errors.New("already exists")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// SeedPassword is the password of every seeded account.
const SeedPassword = "password123"

type account struct {
	user cms.User
	hash []byte
}

// Store is the in-memory state of the dev upstream. It keeps just enough of
// the CMS rules (ownership, roles, filters) to behave like the real API.
type Store struct {
	mu         sync.RWMutex
	cost       int
	clock      func() time.Time
	accounts   map[string]*account // by username
	usersByID  map[string]cms.User
	categories map[string]cms.Category
	articles   map[string]cms.Article
}

// NewStore returns an empty store. cost is the bcrypt cost; 0 means bcrypt.DefaultCost.
func NewStore(cost int) *Store {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &Store{
		cost:       cost,
		clock:      time.Now,
		accounts:   map[string]*account{},
		usersByID:  map[string]cms.User{},
		categories: map[string]cms.Category{},
		articles:   map[string]cms.Article{},
	}
}

// Seed loads the sample users, categories and articles. Seeded users share SeedPassword.
func (s *Store) Seed() error {
	hash, err := bcrypt.GenerateFromPassword([]byte(SeedPassword), s.cost)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range cms.SampleUsers() {
		s.accounts[u.Username] = &account{user: u, hash: hash}
		s.usersByID[u.ID] = u
	}
	for _, c := range cms.SampleCategories() {
		s.categories[c.ID] = c
	}
	for _, a := range cms.SampleArticles() {
		a.Category, a.User = nil, nil
		s.articles[a.ID] = a
	}
	return nil
}

/* ===================== USERS ===================== */

func (s *Store) CreateUser(username, password string, role cms.Role) (cms.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || len(password) < 6 {
		return cms.User{}, ErrInvalidArgument
	}
	if role == "" {
		role = cms.RoleUser
	}
	if role != cms.RoleUser && role != cms.RoleAdmin {
		return cms.User{}, ErrInvalidArgument
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return cms.User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[username]; ok {
		return cms.User{}, ErrConflict
	}
	u := cms.User{ID: uuid.NewString(), Username: username, Role: role}
	s.accounts[username] = &account{user: u, hash: hash}
	s.usersByID[u.ID] = u
	return u, nil
}

func (s *Store) Authenticate(username, password string) (cms.User, error) {
	s.mu.RLock()
	acc, ok := s.accounts[strings.TrimSpace(username)]
	s.mu.RUnlock()
	if !ok {
		return cms.User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(acc.hash, []byte(password)); err != nil {
		return cms.User{}, ErrInvalidCredentials
	}
	return acc.user, nil
}

func (s *Store) User(id string) (cms.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.usersByID[id]
	if !ok {
		return cms.User{}, ErrNotFound
	}
	return u, nil
}

/* ===================== CATEGORIES ===================== */

type CategoryFilter struct {
	Search string
	Page   int
	Limit  int
}

func (s *Store) ListCategories(f CategoryFilter) cms.Paginated[cms.Category] {
	s.mu.RLock()
	out := make([]cms.Category, 0, len(s.categories))
	for _, c := range s.categories {
		if f.Search != "" && !containsFold(c.Name, f.Search) {
			continue
		}
		out = append(out, c)
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b cms.Category) int { return strings.Compare(a.Name, b.Name) })
	limit := f.Limit
	if limit <= 0 {
		limit = 10
	}
	return cms.Paginate(out, f.Page, limit)
}

func (s *Store) CreateCategory(userID, name string) (cms.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return cms.Category{}, ErrInvalidArgument
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.categories {
		if strings.EqualFold(c.Name, name) {
			return cms.Category{}, ErrConflict
		}
	}
	now := s.clock().UTC()
	c := cms.Category{ID: uuid.NewString(), Name: name, UserID: userID, CreatedAt: now, UpdatedAt: now}
	s.categories[c.ID] = c
	return c, nil
}

func (s *Store) UpdateCategory(id, name string) (cms.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return cms.Category{}, ErrInvalidArgument
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[id]
	if !ok {
		return cms.Category{}, ErrNotFound
	}
	c.Name = name
	c.UpdatedAt = s.clock().UTC()
	s.categories[id] = c
	return c, nil
}

// DeleteCategory refuses while articles still reference the category.
func (s *Store) DeleteCategory(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[id]; !ok {
		return ErrNotFound
	}
	for _, a := range s.articles {
		if a.CategoryID == id {
			return ErrConflict
		}
	}
	delete(s.categories, id)
	return nil
}

/* ===================== ARTICLES ===================== */

type ArticleFilter struct {
	ArticleID      string
	UserID         string
	Title          string
	Category       string
	CreatedAtStart time.Time // inclusive day
	CreatedAtEnd   time.Time // inclusive day
	SortBy         string
	SortOrder      string
	Page           int
	Limit          int
}

func (s *Store) ListArticles(f ArticleFilter) cms.Paginated[cms.Article] {
	s.mu.RLock()
	out := make([]cms.Article, 0, len(s.articles))
	for _, a := range s.articles {
		if !f.match(a) {
			continue
		}
		out = append(out, s.expand(a))
	}
	s.mu.RUnlock()

	slices.SortFunc(out, f.compare)
	return cms.Paginate(out, f.Page, f.Limit)
}

func (f ArticleFilter) match(a cms.Article) bool {
	switch {
	case f.ArticleID != "" && a.ID != f.ArticleID:
		return false
	case f.UserID != "" && a.UserID != f.UserID:
		return false
	case f.Category != "" && a.CategoryID != f.Category:
		return false
	case f.Title != "" && !containsFold(a.Title, f.Title):
		return false
	case !f.CreatedAtStart.IsZero() && a.CreatedAt.Before(f.CreatedAtStart):
		return false
	case !f.CreatedAtEnd.IsZero() && !a.CreatedAt.Before(f.CreatedAtEnd.AddDate(0, 0, 1)):
		return false
	}
	return true
}

// compare orders by SortBy (createdAt, updatedAt, title), newest first by default.
func (f ArticleFilter) compare(a, b cms.Article) int {
	var n int
	switch f.SortBy {
	case "title":
		n = strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
	case "updatedAt":
		n = a.UpdatedAt.Compare(b.UpdatedAt)
	default:
		n = a.CreatedAt.Compare(b.CreatedAt)
	}
	if n == 0 {
		n = strings.Compare(a.ID, b.ID)
	}
	order := f.SortOrder
	if order == "" && f.SortBy == "title" {
		order = "asc"
	}
	if order != "asc" {
		n = -n
	}
	return n
}

func (s *Store) Article(id string) (cms.Article, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.articles[id]
	if !ok {
		return cms.Article{}, ErrNotFound
	}
	return s.expand(a), nil
}

func (s *Store) CreateArticle(userID string, in cms.ArticleInput) (cms.Article, error) {
	if err := validateArticle(in); err != nil {
		return cms.Article{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[in.CategoryID]; !ok {
		return cms.Article{}, ErrInvalidArgument
	}
	now := s.clock().UTC()
	a := cms.Article{
		ID:         uuid.NewString(),
		Title:      strings.TrimSpace(in.Title),
		Content:    in.Content,
		UserID:     userID,
		CategoryID: in.CategoryID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	s.articles[a.ID] = a
	return s.expand(a), nil
}

// UpdateArticle lets the author or an admin edit.
func (s *Store) UpdateArticle(id string, actor cms.User, in cms.ArticleInput) (cms.Article, error) {
	if err := validateArticle(in); err != nil {
		return cms.Article{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.articles[id]
	if !ok {
		return cms.Article{}, ErrNotFound
	}
	if !canEdit(actor, a) {
		return cms.Article{}, ErrForbidden
	}
	if _, ok := s.categories[in.CategoryID]; !ok {
		return cms.Article{}, ErrInvalidArgument
	}
	a.Title = strings.TrimSpace(in.Title)
	a.Content = in.Content
	a.CategoryID = in.CategoryID
	a.UpdatedAt = s.clock().UTC()
	s.articles[id] = a
	return s.expand(a), nil
}

func (s *Store) DeleteArticle(id string, actor cms.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.articles[id]
	if !ok {
		return ErrNotFound
	}
	if !canEdit(actor, a) {
		return ErrForbidden
	}
	delete(s.articles, id)
	return nil
}

// expand attaches category and author. Caller holds s.mu.
func (s *Store) expand(a cms.Article) cms.Article {
	if c, ok := s.categories[a.CategoryID]; ok {
		a.Category = &c
	}
	if u, ok := s.usersByID[a.UserID]; ok {
		a.User = &u
	}
	return a
}

func canEdit(actor cms.User, a cms.Article) bool {
	return actor.Role == cms.RoleAdmin || actor.ID == a.UserID
}

func validateArticle(in cms.ArticleInput) error {
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.CategoryID) == "" {
		return ErrInvalidArgument
	}
	return nil
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(strings.TrimSpace(sub)))
}
