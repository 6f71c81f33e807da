package access

import (
	"net/url"
	"strings"
)

// Action is what the portal should do with an inbound request.
type Action string

const (
	Allow           Action = "allow"
	RedirectToLogin Action = "redirect_to_login"
	RedirectToApp   Action = "redirect_to_app"
)

// Decision is the classifier output. Location is set for redirects.
// Rule names the winning table row; it is empty when default-deny applied.
type Decision struct {
	Action     Action
	Visibility Visibility
	Location   string
	Rule       string
}

// Options tunes the redirect targets. Zero values take the defaults.
type Options struct {
	// LoginPath receives unauthenticated visitors of private pages. Default "/login".
	LoginPath string
	// ReturnParam carries the originally requested path+query. Default "next".
	ReturnParam string
	// AppPath is where signed-in visitors of auth-entry pages are sent. Default "/articles".
	// The role is not known at this layer, so this is static.
	AppPath string
	// AuthEntryPaths are the login/registration pages. Default "/login", "/register".
	AuthEntryPaths []string
}

func (o Options) withDefaults() Options {
	out := o
	if out.LoginPath == "" {
		out.LoginPath = "/login"
	}
	if out.ReturnParam == "" {
		out.ReturnParam = "next"
	}
	if out.AppPath == "" {
		out.AppPath = "/articles"
	}
	if len(out.AuthEntryPaths) == 0 {
		out.AuthEntryPaths = []string{"/login", "/register"}
	}
	return out
}

// Classifier decides Allow / RedirectToLogin / RedirectToApp per request.
// It is immutable after construction and safe for concurrent use.
type Classifier struct {
	rules     []compiledRule
	flagNames map[string]struct{}
	authEntry map[string]struct{}
	opts      Options
}

func NewClassifier(rules []Rule, opts Options) (*Classifier, error) {
	c := &Classifier{
		flagNames: make(map[string]struct{}),
		authEntry: make(map[string]struct{}),
		opts:      opts.withDefaults(),
	}
	for _, r := range rules {
		cr, err := compileRule(r)
		if err != nil {
			return nil, err
		}
		c.rules = append(c.rules, cr)
		if cr.Flag != "" {
			c.flagNames[cr.Flag] = struct{}{}
		}
	}
	for _, p := range c.opts.AuthEntryPaths {
		c.authEntry[normalizePath(p)] = struct{}{}
	}
	return c, nil
}

// Classify applies, in order: auth-entry redirect for signed-in visitors,
// path classification with default-deny, and the login redirect for private
// paths without a credential. It never fails; a malformed query string is
// treated as carrying no flags.
func (c *Classifier) Classify(path, rawQuery string, hasCredential bool) Decision {
	clean := normalizePath(path)

	if hasCredential {
		if _, ok := c.authEntry[clean]; ok {
			return Decision{Action: RedirectToApp, Visibility: Public, Location: c.opts.AppPath}
		}
	}

	vis, rule := c.classify(clean, rawQuery)
	if vis == Private && !hasCredential {
		return Decision{
			Action:     RedirectToLogin,
			Visibility: vis,
			Location:   c.LoginURL(returnPath(path, rawQuery)),
			Rule:       rule,
		}
	}
	return Decision{Action: Allow, Visibility: vis, Rule: rule}
}

// Visibility classifies a path without considering credentials.
func (c *Classifier) Visibility(path, rawQuery string) Visibility {
	vis, _ := c.classify(normalizePath(path), rawQuery)
	return vis
}

// LoginURL builds the login redirect for the given return path.
func (c *Classifier) LoginURL(next string) string {
	if next == "" {
		return c.opts.LoginPath
	}
	q := url.Values{}
	q.Set(c.opts.ReturnParam, next)
	return c.opts.LoginPath + "?" + q.Encode()
}

func (c *Classifier) classify(clean, rawQuery string) (Visibility, string) {
	segs := splitPath(clean)
	flags := c.flags(rawQuery)

	var (
		best     rank
		bestVis  Visibility
		bestRule string
		found    bool
	)
	for _, r := range c.rules {
		rk, ok := r.match(segs, flags)
		if !ok {
			continue
		}
		switch cmp := rk.compare(best); {
		case !found || cmp > 0:
			best, bestVis, bestRule, found = rk, r.Visibility, r.String(), true
		case cmp == 0 && r.Visibility != bestVis:
			// Equally specific rules disagree: deny.
			bestVis, bestRule = Private, r.String()
		}
	}
	if !found {
		return Private, ""
	}
	return bestVis, bestRule
}

// flags extracts the query flags any rule cares about. A flag counts as set
// when present with a value other than "", "0" or "false".
func (c *Classifier) flags(rawQuery string) map[string]bool {
	if len(c.flagNames) == 0 {
		return nil
	}
	q, ok := strictQuery(rawQuery)
	if !ok {
		return nil
	}
	out := make(map[string]bool, len(c.flagNames))
	for name := range c.flagNames {
		out[name] = FlagSet(q.Get(name))
	}
	return out
}

// QueryFlag reports whether name is set in rawQuery as the classifier sees
// it. A malformed query sets no flags, so handlers must use this rather than
// a lenient parse to agree with the gate.
func QueryFlag(rawQuery, name string) bool {
	q, ok := strictQuery(rawQuery)
	return ok && FlagSet(q.Get(name))
}

func strictQuery(rawQuery string) (url.Values, bool) {
	if rawQuery == "" {
		return nil, false
	}
	q, err := url.ParseQuery(rawQuery)
	return q, err == nil
}

// FlagSet reports whether a query flag value turns the flag on.
func FlagSet(v string) bool {
	v = strings.TrimSpace(v)
	return v != "" && v != "0" && !strings.EqualFold(v, "false")
}

func returnPath(path, rawQuery string) string {
	if path == "" {
		path = "/"
	}
	if rawQuery == "" {
		return path
	}
	return path + "?" + rawQuery
}
