package audit

import "time"

// Event is an immutable, append-only record of something that happened to a
// portal session.
//
// Invariants:
// - Events are never updated or deleted.
// - Recording is best-effort; sign-in and navigation never block on it.
//
// Storage (Postgres): table portal_audit_events, created by PostgresRepo.Migrate.
type Event struct {
	ID   string    `json:"id" db:"id"`
	Type EventType `json:"type" db:"type"`

	// Actor fields are filled when the user is known.
	Username string `json:"username,omitempty" db:"username"`
	UserID   string `json:"user_id,omitempty" db:"user_id"`
	Role     string `json:"role,omitempty" db:"role"`

	IPAddress string `json:"ip_address,omitempty" db:"ip_address"`
	// Path is the portal path that triggered the event.
	Path    string `json:"path,omitempty" db:"path"`
	Message string `json:"message,omitempty" db:"message"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type EventType string

const (
	EventLogin          EventType = "login"
	EventLoginFailed    EventType = "login_failed"
	EventRegister       EventType = "register"
	EventLogout         EventType = "logout"
	EventRefreshFailed  EventType = "refresh_failed"
	EventAccessRedirect EventType = "access_redirect"
)

// Reasons carried in the Message of login_failed events.
const (
	ReasonRejected  = "rejected"
	ReasonThrottled = "throttled"
)
