package cms

import (
	"context"
	"errors"
	"strings"
	"time"

	"cms-portal/internal/apiclient"
	"cms-portal/pkg/logger"
)

var sampleTime = time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC)

// SampleCategories is the bundled catalogue shown when the upstream is down.
func SampleCategories() []Category {
	return []Category{
		{ID: "c-tech", Name: "Technology", UserID: "u-1", CreatedAt: sampleTime, UpdatedAt: sampleTime},
		{ID: "c-life", Name: "Lifestyle", UserID: "u-1", CreatedAt: sampleTime, UpdatedAt: sampleTime},
		{ID: "c-news", Name: "News", UserID: "u-2", CreatedAt: sampleTime, UpdatedAt: sampleTime},
	}
}

// SampleUsers are the authors of the sample articles.
func SampleUsers() []User {
	return []User{
		{ID: "u-1", Username: "alice", Role: RoleUser},
		{ID: "u-2", Username: "bob", Role: RoleAdmin},
	}
}

// SampleArticles is the bundled article set shown when the upstream is down.
func SampleArticles() []Article {
	cats := SampleCategories()
	users := SampleUsers()
	return []Article{
		{
			ID: "a-1", Title: "Getting started with server-side routing",
			Content: "This article walks through the basics of routing requests on the server...",
			UserID:  "u-1", CategoryID: "c-tech", CreatedAt: sampleTime, UpdatedAt: sampleTime,
			Category: &cats[0], User: &users[0],
		},
		{
			ID: "a-2", Title: "Healthy routines for busy developers",
			Content: "Balancing work and wellness requires intentional routines...",
			UserID:  "u-2", CategoryID: "c-life", CreatedAt: sampleTime.Add(time.Hour), UpdatedAt: sampleTime.Add(time.Hour),
			Category: &cats[1], User: &users[1],
		},
		{
			ID: "a-3", Title: "Today in tech: frameworks and tools",
			Content: "An overview of the latest changes in web tooling...",
			UserID:  "u-1", CategoryID: "c-news", CreatedAt: sampleTime.Add(2 * time.Hour), UpdatedAt: sampleTime.Add(2 * time.Hour),
			Category: &cats[2], User: &users[0],
		},
	}
}

// Paginate slices items into one page of the upstream's list envelope.
// page and limit below 1 are treated as 1 and DefaultPageLimit. Any page and
// limit are accepted; a page past the end is empty.
func Paginate[T any](items []T, page, limit int) Paginated[T] {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageLimit
	}
	total := len(items)
	pages := 0
	if total > 0 {
		pages = (total-1)/limit + 1
	}
	start := total
	if page-1 < pages {
		start = (page - 1) * limit
	}
	end := total
	if limit < total-start {
		end = start + limit
	}

	data := make([]T, end-start)
	copy(data, items[start:end])
	return Paginated[T]{
		Data:        data,
		Total:       total,
		Page:        page,
		Limit:       limit,
		TotalData:   total,
		CurrentPage: page,
		TotalPages:  pages,
	}
}

// Degraded reports whether err means the upstream could not answer at all,
// as opposed to answering with a decision (401, 404, validation).
func Degraded(err error) bool {
	switch apiclient.KindOf(err) {
	case apiclient.KindTransientServer, apiclient.KindNetwork:
		return true
	}
	return false
}

// WithFallback runs fn and substitutes fallback() when the upstream is
// degraded. The bool reports whether the fallback was used. Other errors are
// returned as they are.
func WithFallback[T any](ctx context.Context, fn func(context.Context) (T, error), fallback func() T) (T, bool, error) {
	v, err := fn(ctx)
	if err == nil {
		return v, false, nil
	}
	if !Degraded(err) || errors.Is(err, context.Canceled) {
		return v, false, err
	}
	logger.From(ctx).Warn("upstream degraded, serving sample data", "err", err)
	return fallback(), true, nil
}

// FallbackArticles filters and paginates the sample articles the way the
// upstream would for p.
func FallbackArticles(p ListArticlesParams) Paginated[Article] {
	p = p.withDefaults()
	var out []Article
	for _, a := range SampleArticles() {
		if p.ArticleID != "" && a.ID != p.ArticleID {
			continue
		}
		if p.UserID != "" && a.UserID != p.UserID {
			continue
		}
		if p.Category != "" && a.CategoryID != p.Category {
			continue
		}
		if p.Title != "" && !strings.Contains(strings.ToLower(a.Title), strings.ToLower(p.Title)) {
			continue
		}
		out = append(out, a)
	}
	return Paginate(out, p.Page, p.Limit)
}

// FallbackArticle returns the sample article with id, if any.
func FallbackArticle(id string) (Article, bool) {
	for _, a := range SampleArticles() {
		if a.ID == id {
			return a, true
		}
	}
	return Article{}, false
}

// FallbackCategories filters and paginates the sample categories.
func FallbackCategories(p ListCategoriesParams) Paginated[Category] {
	var out []Category
	for _, c := range SampleCategories() {
		if p.Search != "" && !strings.Contains(strings.ToLower(c.Name), strings.ToLower(p.Search)) {
			continue
		}
		out = append(out, c)
	}
	limit := p.Limit
	if limit <= 0 {
		limit = 10
	}
	return Paginate(out, p.Page, limit)
}
