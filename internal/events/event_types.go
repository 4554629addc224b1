package events

import (
	"time"

	"github.com/fixit/helpdesk-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventIncidentCreated       EventType = "incident_created"
	EventIncidentUpdated       EventType = "incident_updated"
	EventIncidentStatusChanged EventType = "incident_status_changed"
	EventIncidentAssigned      EventType = "incident_assigned"
	EventIncidentCommentAdded  EventType = "incident_comment_added"
	EventIncidentDeleted       EventType = "incident_deleted"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	UserID string      `json:"user_id"`
	Role   domain.Role `json:"role"`
}

// ActorOf snapshots the acting user.
func ActorOf(u *domain.User) Actor {
	if u == nil {
		return Actor{}
	}
	return Actor{UserID: u.ID, Role: u.EffectiveRole()}
}

// Event represents a domain event emitted by services.
type Event struct {
	ID         string      `json:"id"`
	Type       EventType   `json:"type"`
	IncidentID string      `json:"incident_id"`
	Actor      Actor       `json:"actor"`
	Timestamp  time.Time   `json:"timestamp"`
	Payload    interface{} `json:"payload"`
}

// IncidentCreatedPayload payload.
type IncidentCreatedPayload struct {
	Department string                  `json:"department"`
	Priority   domain.IncidentPriority `json:"priority"`
	Title      string                  `json:"title"`
}

// IncidentUpdatedPayload lists the fields a patch touched.
type IncidentUpdatedPayload struct {
	Fields []string `json:"fields"`
}

// IncidentStatusChangedPayload payload.
type IncidentStatusChangedPayload struct {
	OldStatus domain.IncidentStatus `json:"old_status"`
	NewStatus domain.IncidentStatus `json:"new_status"`
}

// IncidentAssignedPayload payload.
type IncidentAssignedPayload struct {
	AssigneeID   string `json:"assignee_id"`
	AssigneeName string `json:"assignee_name"`
	SelfAssigned bool   `json:"self_assigned"`
}

// IncidentCommentAddedPayload payload.
type IncidentCommentAddedPayload struct {
	AuthorID    string `json:"author_id"`
	BodyPreview string `json:"body_preview"`
}
