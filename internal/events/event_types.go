package events

import (
	"time"

	"github.com/spec-kit/portal-core/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventSessionAuthenticated EventType = "session_authenticated"
	EventSessionCleared       EventType = "session_cleared"
	EventProjectSwitched      EventType = "project_switched"
	EventStaleResultDiscarded EventType = "stale_result_discarded"
)

// Event represents a session lifecycle event emitted by the store.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// SessionAuthenticatedPayload payload.
type SessionAuthenticatedPayload struct {
	IdentityID string      `json:"identity_id"`
	Email      string      `json:"email"`
	Role       domain.Role `json:"role"`
}

// SessionClearedPayload payload.
type SessionClearedPayload struct {
	Reason string `json:"reason"`
}

// ProjectSwitchedPayload payload. CollapseSelector tells the presentation
// layer to close any open project-selection UI.
type ProjectSwitchedPayload struct {
	ProjectID        string `json:"project_id"`
	ProjectName      string `json:"project_name"`
	CollapseSelector bool   `json:"collapse_selector"`
}

// StaleResultDiscardedPayload payload.
type StaleResultDiscardedPayload struct {
	Operation string `json:"operation"`
	Seq       uint64 `json:"seq"`
	Latest    uint64 `json:"latest"`
}
