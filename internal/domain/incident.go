package domain

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// IncidentStatus enumerates lifecycle states for incidents.
type IncidentStatus string

const (
	IncidentStatusOpen       IncidentStatus = "open"
	IncidentStatusInProgress IncidentStatus = "in_progress"
	IncidentStatusResolved   IncidentStatus = "resolved"
	IncidentStatusClosed     IncidentStatus = "closed"
)

// IncidentStatuses lists every status in lifecycle order.
var IncidentStatuses = []IncidentStatus{
	IncidentStatusOpen,
	IncidentStatusInProgress,
	IncidentStatusResolved,
	IncidentStatusClosed,
}

// Valid reports whether s is a known status.
func (s IncidentStatus) Valid() bool {
	for _, candidate := range IncidentStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IncidentPriority enumerates urgency levels.
type IncidentPriority string

const (
	IncidentPriorityLow      IncidentPriority = "low"
	IncidentPriorityMedium   IncidentPriority = "medium"
	IncidentPriorityHigh     IncidentPriority = "high"
	IncidentPriorityCritical IncidentPriority = "critical"
)

// Valid reports whether p is a known priority.
func (p IncidentPriority) Valid() bool {
	switch p {
	case IncidentPriorityLow, IncidentPriorityMedium, IncidentPriorityHigh, IncidentPriorityCritical:
		return true
	}
	return false
}

// CreatorSnapshot is a copy of the reporter's display fields taken when the
// incident was created. Later changes to the user are not reflected.
type CreatorSnapshot struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Department string `json:"department,omitempty"`
}

// AssigneeSnapshot is a copy of the technician's display fields taken at
// assignment time.
type AssigneeSnapshot struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Initials string `json:"initials"`
}

// CommentAuthor is a copy of the commenter's id and name.
type CommentAuthor struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Comment is owned by its incident and has no identity of its own.
type Comment struct {
	Text      string        `json:"text"`
	CreatedBy CommentAuthor `json:"createdBy"`
	CreatedAt time.Time     `json:"createdAt"`
}

// Incident is a reported ticket.
type Incident struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Status      IncidentStatus    `json:"status"`
	Priority    IncidentPriority  `json:"priority"`
	Department  string            `json:"department"`
	CreatedBy   CreatorSnapshot   `json:"createdBy"`
	Assignee    *AssigneeSnapshot `json:"assignee,omitempty"`
	Comments    []Comment         `json:"comments,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

// IsAssignedTo reports whether userID is the current assignee.
func (i *Incident) IsAssignedTo(userID string) bool {
	return i.Assignee != nil && i.Assignee.ID == userID
}

// Clone returns a copy that shares no mutable state with i.
func (i *Incident) Clone() Incident {
	out := *i
	if i.Assignee != nil {
		assignee := *i.Assignee
		out.Assignee = &assignee
	}
	if i.Comments != nil {
		out.Comments = append([]Comment(nil), i.Comments...)
	}
	return out
}

// SnapshotCreator copies the reporter fields of u.
func SnapshotCreator(u User) CreatorSnapshot {
	return CreatorSnapshot{ID: u.ID, Name: u.Name, Email: u.Email, Department: u.Department}
}

// SnapshotAssignee copies the assignee fields of u.
func SnapshotAssignee(u User) AssigneeSnapshot {
	return AssigneeSnapshot{ID: u.ID, Name: u.Name, Email: u.Email, Initials: Initials(u.Name)}
}

// SnapshotCommentAuthor copies the commenter fields of u.
func SnapshotCommentAuthor(u User) CommentAuthor {
	return CommentAuthor{ID: u.ID, Name: u.Name}
}

// Initials returns the upper-cased first letters of the first two
// space-separated parts of name.
func Initials(name string) string {
	parts := strings.Split(name, " ")
	if len(parts) > 2 {
		parts = parts[:2]
	}
	var b strings.Builder
	for _, part := range parts {
		r, size := utf8.DecodeRuneInString(part)
		if size == 0 {
			continue
		}
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}
