package access

import (
	"fmt"
	"path"
	"strings"
)

// Visibility is the classification result for a request path.
type Visibility string

const (
	Public  Visibility = "public"
	Private Visibility = "private"
)

// MatchKind selects how a rule pattern is compared with a path.
type MatchKind string

const (
	// MatchExact requires the path to have exactly the pattern's segments.
	MatchExact MatchKind = "exact"
	// MatchPrefix matches the pattern's segments and anything below them.
	MatchPrefix MatchKind = "prefix"
)

// Rule is one row of the route table.
//
// Pattern segments starting with ':' match any single non-empty segment, so
// "/articles/:id" covers detail pages without covering "/articles/a/b".
// Flag, when set, restricts the rule to requests carrying that query flag.
type Rule struct {
	Pattern    string     `yaml:"pattern"`
	Match      MatchKind  `yaml:"match"`
	Visibility Visibility `yaml:"visibility"`
	Flag       string     `yaml:"flag,omitempty"`
}

func (r Rule) String() string {
	s := string(r.Match) + " " + r.Pattern
	if r.Flag != "" {
		s += "?" + r.Flag
	}
	return s
}

// DefaultRules is the portal's built-in route table.
func DefaultRules() []Rule {
	return []Rule{
		{Pattern: "/", Match: MatchExact, Visibility: Public},
		{Pattern: "/healthz", Match: MatchExact, Visibility: Public},
		{Pattern: "/metrics", Match: MatchExact, Visibility: Public},
		{Pattern: "/login", Match: MatchExact, Visibility: Public},
		{Pattern: "/register", Match: MatchExact, Visibility: Public},
		{Pattern: "/api", Match: MatchPrefix, Visibility: Public},
		{Pattern: "/public", Match: MatchPrefix, Visibility: Public},

		{Pattern: "/articles", Match: MatchExact, Visibility: Public},
		{Pattern: "/articles", Match: MatchExact, Visibility: Private, Flag: "mine"},
		{Pattern: "/articles/:id", Match: MatchExact, Visibility: Public},
		{Pattern: "/articles/create", Match: MatchExact, Visibility: Private},
		{Pattern: "/articles/:id/edit", Match: MatchExact, Visibility: Private},

		{Pattern: "/dashboard", Match: MatchPrefix, Visibility: Private},
		{Pattern: "/admin", Match: MatchPrefix, Visibility: Private},
	}
}

type compiledRule struct {
	Rule
	segments []string
}

// rank orders competing matches; higher wins. Fields are compared in order.
type rank struct {
	depth    int // pattern segments consumed
	literals int // literal (non-param) segments
	exact    int // exact beats prefix at equal depth
	flagged  int // a matching flag rule beats its unflagged twin
}

func (a rank) compare(b rank) int {
	for _, d := range [...]int{a.depth - b.depth, a.literals - b.literals, a.exact - b.exact, a.flagged - b.flagged} {
		if d != 0 {
			return d
		}
	}
	return 0
}

func compileRule(r Rule) (compiledRule, error) {
	if !strings.HasPrefix(r.Pattern, "/") {
		return compiledRule{}, fmt.Errorf("access: pattern %q must start with /", r.Pattern)
	}
	switch r.Match {
	case MatchExact, MatchPrefix:
	case "":
		r.Match = MatchPrefix
	default:
		return compiledRule{}, fmt.Errorf("access: pattern %q has unknown match kind %q", r.Pattern, r.Match)
	}
	switch r.Visibility {
	case Public, Private:
	default:
		return compiledRule{}, fmt.Errorf("access: pattern %q has unknown visibility %q", r.Pattern, r.Visibility)
	}
	segs := splitPath(r.Pattern)
	for _, s := range segs {
		if s == ":" {
			return compiledRule{}, fmt.Errorf("access: pattern %q has an unnamed parameter", r.Pattern)
		}
	}
	return compiledRule{Rule: r, segments: segs}, nil
}

// match reports whether the rule covers the path segments and, if so, its rank.
func (r compiledRule) match(segs []string, flags map[string]bool) (rank, bool) {
	if r.Flag != "" && !flags[r.Flag] {
		return rank{}, false
	}
	if len(segs) < len(r.segments) {
		return rank{}, false
	}
	if r.Match == MatchExact && len(segs) != len(r.segments) {
		return rank{}, false
	}
	rk := rank{depth: len(r.segments)}
	for i, p := range r.segments {
		if strings.HasPrefix(p, ":") {
			continue
		}
		if p != segs[i] {
			return rank{}, false
		}
		rk.literals++
	}
	if r.Match == MatchExact {
		rk.exact = 1
	}
	if r.Flag != "" {
		rk.flagged = 1
	}
	return rk, true
}

// normalizePath cleans a request path so "/articles/", "/articles/." and
// "//articles" all classify the same way.
func normalizePath(p string) string {
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}

func splitPath(p string) []string {
	p = strings.Trim(normalizePath(p), "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}
