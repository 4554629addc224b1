package repository

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/fixit/helpdesk-service/internal/domain"
	"github.com/fixit/helpdesk-service/internal/persistence"
)

// IncidentsKey is the storage key of the incident list.
const IncidentsKey = "fixit_incidents"

// IncidentRepository encapsulates incident persistence. Every write
// rewrites the whole list.
type IncidentRepository interface {
	List(ctx context.Context) ([]domain.Incident, error)
	GetByID(ctx context.Context, id string) (*domain.Incident, error)
	// Create appends incident unless its id is already in use.
	Create(ctx context.Context, incident domain.Incident) error
	// Update loads the incident, applies mutate to a copy and persists the
	// copy. An error from mutate aborts without writing.
	Update(ctx context.Context, id string, mutate func(*domain.Incident) error) (*domain.Incident, error)
	// Delete removes the incident if check accepts it.
	Delete(ctx context.Context, id string, check func(*domain.Incident) error) error
}

type incidentRepository struct {
	mu        sync.Mutex
	incidents *persistence.Collection[domain.Incident]
}

// NewIncidentRepository returns a repository backed by the incident list blob.
func NewIncidentRepository(store persistence.BlobStore, logger *zap.Logger) IncidentRepository {
	return &incidentRepository{incidents: persistence.NewCollection[domain.Incident](store, IncidentsKey, logger)}
}

func (r *incidentRepository) List(ctx context.Context) ([]domain.Incident, error) {
	incidents, _, err := r.incidents.Load(ctx)
	return incidents, err
}

func (r *incidentRepository) GetByID(ctx context.Context, id string) (*domain.Incident, error) {
	incidents, _, err := r.incidents.Load(ctx)
	if err != nil {
		return nil, err
	}
	if i := indexByID(incidents, id); i >= 0 {
		return &incidents[i], nil
	}
	return nil, ErrNotFound
}

func (r *incidentRepository) Create(ctx context.Context, incident domain.Incident) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	incidents, version, err := r.incidents.Load(ctx)
	if err != nil {
		return err
	}
	if indexByID(incidents, incident.ID) >= 0 {
		return ErrDuplicate
	}
	_, err = r.incidents.Save(ctx, append(incidents, incident), version)
	return err
}

func (r *incidentRepository) Update(ctx context.Context, id string, mutate func(*domain.Incident) error) (*domain.Incident, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	incidents, version, err := r.incidents.Load(ctx)
	if err != nil {
		return nil, err
	}
	i := indexByID(incidents, id)
	if i < 0 {
		return nil, ErrNotFound
	}
	updated := incidents[i].Clone()
	if err := mutate(&updated); err != nil {
		return nil, err
	}
	incidents[i] = updated
	if _, err := r.incidents.Save(ctx, incidents, version); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (r *incidentRepository) Delete(ctx context.Context, id string, check func(*domain.Incident) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	incidents, version, err := r.incidents.Load(ctx)
	if err != nil {
		return err
	}
	i := indexByID(incidents, id)
	if i < 0 {
		return ErrNotFound
	}
	if check != nil {
		if err := check(&incidents[i]); err != nil {
			return err
		}
	}
	remaining := make([]domain.Incident, 0, len(incidents)-1)
	remaining = append(remaining, incidents[:i]...)
	remaining = append(remaining, incidents[i+1:]...)
	_, err = r.incidents.Save(ctx, remaining, version)
	return err
}

func indexByID(incidents []domain.Incident, id string) int {
	for i := range incidents {
		if incidents[i].ID == id {
			return i
		}
	}
	return -1
}
