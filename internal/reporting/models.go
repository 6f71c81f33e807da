package reporting

import "time"

// Common filtering inputs.

type TimeRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

func (r TimeRange) valid() bool {
	return !r.From.IsZero() && !r.To.IsZero() && r.To.After(r.From)
}

// ActivityRequest asks for sign-in activity over a range.
// Username, when set, narrows the report to one account.
type ActivityRequest struct {
	Range    TimeRange `json:"range"`
	Username string    `json:"username,omitempty"`
}

type ActivitySummary struct {
	Range    TimeRange `json:"range"`
	Username string    `json:"username,omitempty"`

	Logins          int `json:"logins"`
	FailedLogins    int `json:"failed_logins"`
	ThrottledLogins int `json:"throttled_logins"`
	Registrations   int `json:"registrations"`
	Logouts         int `json:"logouts"`
	RefreshFailures int `json:"refresh_failures"`
	AccessRedirects int `json:"access_redirects"`

	DistinctUsers int `json:"distinct_users"`
	// FailureRate is failed / (failed + successful) sign-ins, 0 when there were none.
	FailureRate float64 `json:"failure_rate"`
}

// ContentSummary describes the article catalogue as seen by the caller.
type ContentSummary struct {
	Articles   int            `json:"articles"`
	ByCategory map[string]int `json:"by_category"`
	ByAuthor   map[string]int `json:"by_author"`
	// Newest is the latest creation time, zero for an empty catalogue.
	Newest time.Time `json:"newest,omitempty"`
}
