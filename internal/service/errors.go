package service

import (
	"errors"

	"github.com/fixit/helpdesk-service/internal/domain"
	"github.com/fixit/helpdesk-service/internal/persistence"
	"github.com/fixit/helpdesk-service/internal/repository"
	apperrors "github.com/fixit/helpdesk-service/pkg/util/errorutil"
)

// storeError maps repository and storage failures onto domain errors.
func storeError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, persistence.ErrVersionConflict):
		return apperrors.NewConflict("data was changed by another writer, reload and retry", nil)
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NewNotFound("resource", nil)
	default:
		return apperrors.MapError(err)
	}
}

func incidentNotFound(id string) error {
	return apperrors.NewNotFound("incident", map[string]any{"incident_id": id})
}

func requireActor(actor *domain.User) error {
	if actor == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	return nil
}
