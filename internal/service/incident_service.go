package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fixit/helpdesk-service/internal/auth"
	"github.com/fixit/helpdesk-service/internal/domain"
	"github.com/fixit/helpdesk-service/internal/events"
	"github.com/fixit/helpdesk-service/internal/repository"
	apperrors "github.com/fixit/helpdesk-service/pkg/util/errorutil"
)

const maxIDAttempts = 20

// IncidentService coordinates incident workflows. Every operation takes
// the acting user explicitly; nothing is read from ambient session state.
type IncidentService struct {
	incidents  repository.IncidentRepository
	users      repository.UserRepository
	dispatcher events.Dispatcher
	now        func() time.Time
	newID      func() string
	logger     *zap.Logger
}

// IncidentDependencies bundles repositories for the incident service.
type IncidentDependencies struct {
	IncidentRepo repository.IncidentRepository
	UserRepo     repository.UserRepository
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
	// Now defaults to time.Now.
	Now func() time.Time
	// NewID defaults to INC- followed by six random digits.
	NewID func() string
}

// IncidentCreateInput describes incident creation payload.
type IncidentCreateInput struct {
	Title       string
	Description string
	Department  string
	Priority    domain.IncidentPriority
}

// IncidentPatch lists the fields an update may change. Nil fields are
// left untouched. An empty AssigneeID clears the assignee.
type IncidentPatch struct {
	Title       *string
	Description *string
	Status      *domain.IncidentStatus
	Priority    *domain.IncidentPriority
	Department  *string
	AssigneeID  *string
}

// IncidentFilter narrows Search results. Zero values match everything.
type IncidentFilter struct {
	Query      string
	Status     domain.IncidentStatus
	Priority   domain.IncidentPriority
	Department string
}

// CommentInput is the body of a new comment.
type CommentInput struct {
	Text string
}

// NewIncidentService constructs the service.
func NewIncidentService(deps IncidentDependencies) *IncidentService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	newID := deps.NewID
	if newID == nil {
		newID = generateIncidentID
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IncidentService{
		incidents:  deps.IncidentRepo,
		users:      deps.UserRepo,
		dispatcher: deps.Dispatcher,
		now:        now,
		newID:      newID,
		logger:     logger,
	}
}

// Create opens a new incident reported by actor.
func (s *IncidentService) Create(ctx context.Context, input IncidentCreateInput, actor *domain.User) (*domain.Incident, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	input.Title = strings.TrimSpace(input.Title)
	input.Description = strings.TrimSpace(input.Description)
	input.Department = strings.TrimSpace(input.Department)
	details := map[string]any{}
	if input.Title == "" {
		details["title"] = "required"
	}
	if input.Description == "" {
		details["description"] = "required"
	}
	if input.Priority == "" {
		input.Priority = domain.IncidentPriorityMedium
	}
	if !input.Priority.Valid() {
		details["priority"] = "must be one of low, medium, high, critical"
	}
	if input.Department == "" {
		input.Department = actor.Department
	}
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("invalid incident", details)
	}

	now := s.now().UTC()
	incident := domain.Incident{
		Title:       input.Title,
		Description: input.Description,
		Status:      domain.IncidentStatusOpen,
		Priority:    input.Priority,
		Department:  input.Department,
		CreatedBy:   domain.SnapshotCreator(*actor),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	var err error
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		incident.ID = s.newID()
		err = s.incidents.Create(ctx, incident)
		if !errors.Is(err, repository.ErrDuplicate) {
			break
		}
		s.logger.Debug("incident id collision", zap.String("incident_id", incident.ID))
	}
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewConflict("could not allocate a free incident id", nil)
		}
		return nil, storeError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:       events.EventIncidentCreated,
		IncidentID: incident.ID,
		Actor:      events.ActorOf(actor),
		Payload: events.IncidentCreatedPayload{
			Department: incident.Department,
			Priority:   incident.Priority,
			Title:      incident.Title,
		},
	})
	return &incident, nil
}

// Get returns a single incident.
func (s *IncidentService) Get(ctx context.Context, id string) (*domain.Incident, error) {
	incident, err := s.incidents.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, incidentNotFound(id)
		}
		return nil, storeError(err)
	}
	return incident, nil
}

// List returns every incident in stored order.
func (s *IncidentService) List(ctx context.Context) ([]domain.Incident, error) {
	incidents, err := s.incidents.List(ctx)
	if err != nil {
		return nil, storeError(err)
	}
	return incidents, nil
}

// Search filters incidents and orders them newest first.
func (s *IncidentService) Search(ctx context.Context, filter IncidentFilter) ([]domain.Incident, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, apperrors.NewValidationError("invalid status filter", map[string]any{"status": filter.Status})
	}
	if filter.Priority != "" && !filter.Priority.Valid() {
		return nil, apperrors.NewValidationError("invalid priority filter", map[string]any{"priority": filter.Priority})
	}

	incidents, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	query := strings.ToLower(strings.TrimSpace(filter.Query))
	department := strings.TrimSpace(filter.Department)

	matched := make([]domain.Incident, 0, len(incidents))
	for _, incident := range incidents {
		if query != "" && !matchesQuery(incident, query) {
			continue
		}
		if filter.Status != "" && incident.Status != filter.Status {
			continue
		}
		if filter.Priority != "" && incident.Priority != filter.Priority {
			continue
		}
		if department != "" && !strings.EqualFold(incident.Department, department) {
			continue
		}
		matched = append(matched, incident)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return matched, nil
}

func matchesQuery(incident domain.Incident, query string) bool {
	for _, field := range []string{incident.ID, incident.Title, incident.Department, incident.CreatedBy.Name} {
		if strings.Contains(strings.ToLower(field), query) {
			return true
		}
	}
	return false
}

// Update merges patch into the incident. A status change by anyone other
// than an admin or the current assignee is refused and nothing is stored.
func (s *IncidentService) Update(ctx context.Context, id string, patch IncidentPatch, actor *domain.User) (*domain.Incident, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := validatePatch(patch); err != nil {
		return nil, err
	}

	var assignee *domain.AssigneeSnapshot
	if patch.AssigneeID != nil && *patch.AssigneeID != "" {
		technician, err := s.lookupTechnician(ctx, *patch.AssigneeID)
		if err != nil {
			return nil, err
		}
		snapshot := domain.SnapshotAssignee(*technician)
		assignee = &snapshot
	}

	var (
		oldStatus     domain.IncidentStatus
		statusChanged bool
		fields        []string
	)
	updated, err := s.incidents.Update(ctx, id, func(incident *domain.Incident) error {
		if patch.Status != nil && *patch.Status != incident.Status && !auth.CanChangeStatus(actor, incident) {
			return apperrors.NewForbidden("only an admin or the assigned technician can change the status")
		}
		if patch.AssigneeID != nil && !sameAssignee(incident.Assignee, assignee) && !auth.CanAssign(actor) {
			return apperrors.NewForbidden("only an admin can reassign incidents")
		}

		oldStatus = incident.Status
		fields = applyPatch(incident, patch, assignee)
		statusChanged = incident.Status != oldStatus
		incident.UpdatedAt = s.touch(incident)
		return nil
	})
	if err != nil {
		return nil, s.mutationError(id, err)
	}

	s.publishEvent(ctx, events.Event{
		Type:       events.EventIncidentUpdated,
		IncidentID: updated.ID,
		Actor:      events.ActorOf(actor),
		Payload:    events.IncidentUpdatedPayload{Fields: fields},
	})
	if statusChanged {
		s.publishEvent(ctx, events.Event{
			Type:       events.EventIncidentStatusChanged,
			IncidentID: updated.ID,
			Actor:      events.ActorOf(actor),
			Payload:    events.IncidentStatusChangedPayload{OldStatus: oldStatus, NewStatus: updated.Status},
		})
	}
	return updated, nil
}

func validatePatch(patch IncidentPatch) error {
	details := map[string]any{}
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		details["title"] = "must not be empty"
	}
	if patch.Description != nil && strings.TrimSpace(*patch.Description) == "" {
		details["description"] = "must not be empty"
	}
	if patch.Status != nil && !patch.Status.Valid() {
		details["status"] = "must be one of open, in_progress, resolved, closed"
	}
	if patch.Priority != nil && !patch.Priority.Valid() {
		details["priority"] = "must be one of low, medium, high, critical"
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("invalid incident update", details)
	}
	return nil
}

func applyPatch(incident *domain.Incident, patch IncidentPatch, assignee *domain.AssigneeSnapshot) []string {
	var fields []string
	if patch.Title != nil {
		incident.Title = strings.TrimSpace(*patch.Title)
		fields = append(fields, "title")
	}
	if patch.Description != nil {
		incident.Description = strings.TrimSpace(*patch.Description)
		fields = append(fields, "description")
	}
	if patch.Status != nil {
		incident.Status = *patch.Status
		fields = append(fields, "status")
	}
	if patch.Priority != nil {
		incident.Priority = *patch.Priority
		fields = append(fields, "priority")
	}
	if patch.Department != nil {
		incident.Department = strings.TrimSpace(*patch.Department)
		fields = append(fields, "department")
	}
	if patch.AssigneeID != nil {
		incident.Assignee = assignee
		fields = append(fields, "assignee")
	}
	return fields
}

func sameAssignee(current, next *domain.AssigneeSnapshot) bool {
	if current == nil || next == nil {
		return current == nil && next == nil
	}
	return current.ID == next.ID
}

// Delete removes an incident. Only its creator or an admin may do so.
func (s *IncidentService) Delete(ctx context.Context, id string, actor *domain.User) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	err := s.incidents.Delete(ctx, id, func(incident *domain.Incident) error {
		if !auth.CanDelete(actor, incident) {
			return apperrors.NewForbidden("only the creator or an admin can delete this incident")
		}
		return nil
	})
	if err != nil {
		return s.mutationError(id, err)
	}
	s.publishEvent(ctx, events.Event{
		Type:       events.EventIncidentDeleted,
		IncidentID: id,
		Actor:      events.ActorOf(actor),
	})
	return nil
}

// AddComment appends a comment written by actor, who must be an admin or
// the assigned technician.
func (s *IncidentService) AddComment(ctx context.Context, id string, input CommentInput, actor *domain.User) (*domain.Incident, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	text := strings.TrimSpace(input.Text)
	if text == "" {
		return nil, apperrors.NewValidationError("comment text is required", map[string]any{"text": "required"})
	}

	updated, err := s.incidents.Update(ctx, id, func(incident *domain.Incident) error {
		if !auth.CanComment(actor, incident) {
			return apperrors.NewForbidden("only an admin or the assigned technician can comment")
		}
		now := s.touch(incident)
		incident.Comments = append(incident.Comments, domain.Comment{
			Text:      text,
			CreatedBy: domain.SnapshotCommentAuthor(*actor),
			CreatedAt: now,
		})
		incident.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, s.mutationError(id, err)
	}

	s.publishEvent(ctx, events.Event{
		Type:       events.EventIncidentCommentAdded,
		IncidentID: updated.ID,
		Actor:      events.ActorOf(actor),
		Payload: events.IncidentCommentAddedPayload{
			AuthorID:    actor.ID,
			BodyPreview: stringPreview(text, 80),
		},
	})
	return updated, nil
}

// AssignTechnician hands the incident to a technician. Admin only.
func (s *IncidentService) AssignTechnician(ctx context.Context, id, technicianID string, actor *domain.User) (*domain.Incident, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if !auth.CanAssign(actor) {
		return nil, apperrors.NewForbidden("only an admin can assign technicians")
	}
	technician, err := s.lookupTechnician(ctx, strings.TrimSpace(technicianID))
	if err != nil {
		return nil, err
	}
	snapshot := domain.SnapshotAssignee(*technician)

	updated, err := s.incidents.Update(ctx, id, func(incident *domain.Incident) error {
		incident.Assignee = &snapshot
		incident.UpdatedAt = s.touch(incident)
		return nil
	})
	if err != nil {
		return nil, s.mutationError(id, err)
	}
	s.publishAssignment(ctx, updated, actor, false)
	return updated, nil
}

// SelfAssign lets a technician take an incident nobody is working on.
func (s *IncidentService) SelfAssign(ctx context.Context, id string, actor *domain.User) (*domain.Incident, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if !actor.IsTechnician() && !actor.IsAdmin() {
		return nil, apperrors.NewForbidden("only technicians can take incidents")
	}
	snapshot := domain.SnapshotAssignee(*actor)

	updated, err := s.incidents.Update(ctx, id, func(incident *domain.Incident) error {
		if incident.Assignee != nil {
			return apperrors.NewConflict("incident is already assigned", map[string]any{"assignee_id": incident.Assignee.ID})
		}
		if !auth.CanSelfAssign(actor, incident) {
			return apperrors.NewForbidden("only technicians can take incidents")
		}
		incident.Assignee = &snapshot
		incident.UpdatedAt = s.touch(incident)
		return nil
	})
	if err != nil {
		return nil, s.mutationError(id, err)
	}
	s.publishAssignment(ctx, updated, actor, true)
	return updated, nil
}

func (s *IncidentService) lookupTechnician(ctx context.Context, id string) (*domain.User, error) {
	record, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("technician", map[string]any{"technician_id": id})
		}
		return nil, storeError(err)
	}
	if !record.IsTechnician() {
		return nil, apperrors.NewValidationError("user is not a technician", map[string]any{"technician_id": id})
	}
	user := record.User
	return &user, nil
}

// touch returns the timestamp for a mutation, never earlier than the
// incident's previous update.
func (s *IncidentService) touch(incident *domain.Incident) time.Time {
	now := s.now().UTC()
	if now.Before(incident.UpdatedAt) {
		return incident.UpdatedAt
	}
	return now
}

func (s *IncidentService) mutationError(id string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return incidentNotFound(id)
	}
	var domainErr *apperrors.DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return storeError(err)
}

func (s *IncidentService) publishAssignment(ctx context.Context, incident *domain.Incident, actor *domain.User, self bool) {
	s.publishEvent(ctx, events.Event{
		Type:       events.EventIncidentAssigned,
		IncidentID: incident.ID,
		Actor:      events.ActorOf(actor),
		Payload: events.IncidentAssignedPayload{
			AssigneeID:   incident.Assignee.ID,
			AssigneeName: incident.Assignee.Name,
			SelfAssigned: self,
		},
	})
}

func (s *IncidentService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now().UTC()
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handler failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}

func generateIncidentID() string {
	return fmt.Sprintf("INC-%06d", 100000+rand.Intn(900000))
}

func stringPreview(body string, max int) string {
	runes := []rune(body)
	if len(runes) <= max {
		return body
	}
	return string(runes[:max]) + "..."
}
