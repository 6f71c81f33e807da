package cms

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// Doer is the slice of apiclient.Client the services need.
type Doer interface {
	Do(ctx context.Context, method, path string, query url.Values, in, out any) error
}

var ErrInvalidArgument = errors.New("cms: invalid argument")

const (
	// DefaultPageLimit matches the page size the article grid uses.
	DefaultPageLimit = 9
	// MaxPageLimit caps a client-supplied page size.
	MaxPageLimit = 100
)

// Client groups the typed CMS services over one Doer.
type Client struct {
	Articles   *ArticlesService
	Categories *CategoriesService
	Auth       *AuthService
	Users      *UsersService
}

func NewClient(d Doer) *Client {
	return &Client{
		Articles:   &ArticlesService{d: d},
		Categories: &CategoriesService{d: d},
		Auth:       &AuthService{d: d},
		Users:      &UsersService{d: d},
	}
}

/* ===================== ARTICLES ===================== */

type ArticlesService struct{ d Doer }

type ListArticlesParams struct {
	ArticleID      string
	UserID         string
	Title          string
	Category       string
	CreatedAtStart string // YYYY-MM-DD
	CreatedAtEnd   string // YYYY-MM-DD
	SortBy         string
	SortOrder      string // asc | desc
	Page           int
	Limit          int
}

func (p ListArticlesParams) withDefaults() ListArticlesParams {
	if p.Page <= 0 {
		p.Page = 1
	}
	if p.Limit <= 0 {
		p.Limit = DefaultPageLimit
	}
	return p
}

// Values encodes the non-empty filters as query parameters.
func (p ListArticlesParams) Values() url.Values {
	p = p.withDefaults()
	q := url.Values{}
	q.Set("page", strconv.Itoa(p.Page))
	q.Set("limit", strconv.Itoa(p.Limit))
	setIf(q, "articleId", p.ArticleID)
	setIf(q, "userId", p.UserID)
	setIf(q, "title", p.Title)
	setIf(q, "category", p.Category)
	setIf(q, "createdAtStart", p.CreatedAtStart)
	setIf(q, "createdAtEnd", p.CreatedAtEnd)
	setIf(q, "sortBy", p.SortBy)
	setIf(q, "sortOrder", p.SortOrder)
	return q
}

// ArticleParamsFrom reads list filters from a query string. Unknown or
// malformed values are ignored.
func ArticleParamsFrom(q url.Values) ListArticlesParams {
	p := ListArticlesParams{
		ArticleID:      q.Get("articleId"),
		UserID:         q.Get("userId"),
		Title:          q.Get("title"),
		Category:       q.Get("category"),
		CreatedAtStart: q.Get("createdAtStart"),
		CreatedAtEnd:   q.Get("createdAtEnd"),
		SortBy:         q.Get("sortBy"),
		Page:           atoiOr(q.Get("page"), 1),
		Limit:          min(atoiOr(q.Get("limit"), DefaultPageLimit), MaxPageLimit),
	}
	if o := strings.ToLower(q.Get("sortOrder")); o == "asc" || o == "desc" {
		p.SortOrder = o
	}
	return p
}

func (s *ArticlesService) List(ctx context.Context, p ListArticlesParams) (Paginated[Article], error) {
	var out Paginated[Article]
	err := s.d.Do(ctx, http.MethodGet, "/articles", p.Values(), nil, &out)
	return out, err
}

func (s *ArticlesService) Get(ctx context.Context, id string) (Article, error) {
	var out Article
	if strings.TrimSpace(id) == "" {
		return out, ErrInvalidArgument
	}
	err := s.d.Do(ctx, http.MethodGet, "/articles/"+url.PathEscape(id), nil, nil, &out)
	return out, err
}

func (s *ArticlesService) Create(ctx context.Context, in ArticleInput) (Article, error) {
	var out Article
	if err := in.validate(); err != nil {
		return out, err
	}
	err := s.d.Do(ctx, http.MethodPost, "/articles", nil, in, &out)
	return out, err
}

func (s *ArticlesService) Update(ctx context.Context, id string, in ArticleInput) (Article, error) {
	var out Article
	if strings.TrimSpace(id) == "" {
		return out, ErrInvalidArgument
	}
	if err := in.validate(); err != nil {
		return out, err
	}
	err := s.d.Do(ctx, http.MethodPut, "/articles/"+url.PathEscape(id), nil, in, &out)
	return out, err
}

func (s *ArticlesService) Delete(ctx context.Context, id string) (DeleteResult, error) {
	var out DeleteResult
	if strings.TrimSpace(id) == "" {
		return out, ErrInvalidArgument
	}
	err := s.d.Do(ctx, http.MethodDelete, "/articles/"+url.PathEscape(id), nil, nil, &out)
	return out, err
}

func (in ArticleInput) validate() error {
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.CategoryID) == "" {
		return errors.Join(ErrInvalidArgument, errors.New("title and categoryId are required"))
	}
	return nil
}

/* ===================== CATEGORIES ===================== */

type CategoriesService struct{ d Doer }

type ListCategoriesParams struct {
	Page   int
	Limit  int
	Search string
}

func (p ListCategoriesParams) Values() url.Values {
	q := url.Values{}
	if p.Page > 0 {
		q.Set("page", strconv.Itoa(p.Page))
	}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	setIf(q, "search", p.Search)
	return q
}

func (s *CategoriesService) List(ctx context.Context, p ListCategoriesParams) (Paginated[Category], error) {
	var out Paginated[Category]
	err := s.d.Do(ctx, http.MethodGet, "/categories", p.Values(), nil, &out)
	return out, err
}

func (s *CategoriesService) Create(ctx context.Context, in CategoryInput) (Category, error) {
	var out Category
	if strings.TrimSpace(in.Name) == "" {
		return out, ErrInvalidArgument
	}
	err := s.d.Do(ctx, http.MethodPost, "/categories", nil, in, &out)
	return out, err
}

func (s *CategoriesService) Update(ctx context.Context, id string, in CategoryInput) (Category, error) {
	var out Category
	if strings.TrimSpace(id) == "" || strings.TrimSpace(in.Name) == "" {
		return out, ErrInvalidArgument
	}
	err := s.d.Do(ctx, http.MethodPut, "/categories/"+url.PathEscape(id), nil, in, &out)
	return out, err
}

func (s *CategoriesService) Delete(ctx context.Context, id string) (DeleteResult, error) {
	var out DeleteResult
	if strings.TrimSpace(id) == "" {
		return out, ErrInvalidArgument
	}
	err := s.d.Do(ctx, http.MethodDelete, "/categories/"+url.PathEscape(id), nil, nil, &out)
	return out, err
}

/* ===================== AUTH ===================== */

type AuthService struct{ d Doer }

func (s *AuthService) Login(ctx context.Context, username, password string) (LoginResponse, error) {
	var out LoginResponse
	if strings.TrimSpace(username) == "" || password == "" {
		return out, ErrInvalidArgument
	}
	body := map[string]string{"username": username, "password": password}
	if err := s.d.Do(ctx, http.MethodPost, "/auth/login", nil, body, &out); err != nil {
		return out, err
	}
	if out.Token == "" {
		return out, errors.New("cms: login response has no token")
	}
	return out, nil
}

// Register self-registers; role defaults to User.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (RegisterResponse, error) {
	var out RegisterResponse
	if in.Role == "" {
		in.Role = RoleUser
	}
	if err := in.validate(); err != nil {
		return out, err
	}
	err := s.d.Do(ctx, http.MethodPost, "/auth/register", nil, in, &out)
	return out, err
}

func (s *AuthService) Profile(ctx context.Context) (User, error) {
	var out User
	err := s.d.Do(ctx, http.MethodGet, "/auth/profile", nil, nil, &out)
	return out, err
}

func (in RegisterInput) validate() error {
	if strings.TrimSpace(in.Username) == "" || in.Password == "" {
		return errors.Join(ErrInvalidArgument, errors.New("username and password are required"))
	}
	if in.Role != RoleUser && in.Role != RoleAdmin {
		return errors.Join(ErrInvalidArgument, errors.New("role must be User or Admin"))
	}
	return nil
}

/* ===================== USERS ===================== */

// UsersService is the admin view of accounts. The upstream only supports
// registration; there is no list, get, update or delete.
type UsersService struct{ d Doer }

func (s *UsersService) Register(ctx context.Context, in RegisterInput) (RegisterResponse, error) {
	var out RegisterResponse
	if err := in.validate(); err != nil {
		return out, err
	}
	err := s.d.Do(ctx, http.MethodPost, "/auth/register", nil, in, &out)
	return out, err
}

func setIf(q url.Values, k, v string) {
	if v = strings.TrimSpace(v); v != "" {
		q.Set(k, v)
	}
}

func atoiOr(s string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return def
	}
	return n
}
