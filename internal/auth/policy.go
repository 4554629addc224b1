package auth

import "github.com/fixit/helpdesk-service/internal/domain"

// CanChangeStatus reports whether actor may move incident to another status.
func CanChangeStatus(actor *domain.User, incident *domain.Incident) bool {
	if actor == nil || incident == nil {
		return false
	}
	return actor.IsAdmin() || incident.IsAssignedTo(actor.ID)
}

// CanComment reports whether actor may add a comment.
func CanComment(actor *domain.User, incident *domain.Incident) bool {
	return CanChangeStatus(actor, incident)
}

// CanDelete reports whether actor may remove the incident.
func CanDelete(actor *domain.User, incident *domain.Incident) bool {
	if actor == nil || incident == nil {
		return false
	}
	return actor.IsAdmin() || incident.CreatedBy.ID == actor.ID
}

// CanAssign reports whether actor may hand the incident to a technician.
func CanAssign(actor *domain.User) bool {
	return actor != nil && actor.IsAdmin()
}

// CanSelfAssign reports whether actor may take an unassigned incident.
func CanSelfAssign(actor *domain.User, incident *domain.Incident) bool {
	if actor == nil || incident == nil || incident.Assignee != nil {
		return false
	}
	return actor.IsTechnician() || actor.IsAdmin()
}

// CanViewReports reports whether actor may read aggregate reports.
func CanViewReports(actor *domain.User) bool {
	return actor != nil && (actor.IsAdmin() || actor.IsTechnician())
}

// CanListUsers reports whether actor may list every registered user.
func CanListUsers(actor *domain.User) bool {
	return actor != nil && actor.IsAdmin()
}
