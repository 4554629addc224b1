package repository

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/fixit/helpdesk-service/internal/domain"
	"github.com/fixit/helpdesk-service/internal/persistence"
)

// SessionKeyPrefix prefixes the storage key of each login session.
const SessionKeyPrefix = "fixit_current_user:"

// SessionRepository stores the password-less user behind each session id.
type SessionRepository interface {
	// Get returns nil without error when the session does not exist or
	// expired before now. Expired sessions are removed.
	Get(ctx context.Context, sessionID string, now time.Time) (*domain.User, error)
	Put(ctx context.Context, sessionID string, user domain.User, expiresAt time.Time) error
	Delete(ctx context.Context, sessionID string) error
}

// sessionRecord is the user object with its expiry alongside.
type sessionRecord struct {
	domain.User
	ExpiresAt time.Time `json:"expiresAt"`
}

type sessionRepository struct {
	store  persistence.BlobStore
	logger *zap.Logger
}

// NewSessionRepository builds repository.
func NewSessionRepository(store persistence.BlobStore, logger *zap.Logger) SessionRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &sessionRepository{store: store, logger: logger}
}

func (r *sessionRepository) document(sessionID string) *persistence.Document[sessionRecord] {
	return persistence.NewDocument[sessionRecord](r.store, SessionKeyPrefix+sessionID, r.logger)
}

func (r *sessionRepository) Get(ctx context.Context, sessionID string, now time.Time) (*domain.User, error) {
	if sessionID == "" {
		return nil, nil
	}
	doc := r.document(sessionID)
	record, _, err := doc.Load(ctx)
	if err != nil || record == nil {
		return nil, err
	}
	// A zero expiry never lapses.
	if !record.ExpiresAt.IsZero() && !now.Before(record.ExpiresAt) {
		if err := doc.Delete(ctx); err != nil {
			r.logger.Warn("failed to remove expired session", zap.String("key", SessionKeyPrefix+sessionID), zap.Error(err))
		}
		return nil, nil
	}
	user := record.User
	return &user, nil
}

func (r *sessionRepository) Put(ctx context.Context, sessionID string, user domain.User, expiresAt time.Time) error {
	doc := r.document(sessionID)
	_, version, err := doc.Load(ctx)
	if err != nil {
		return err
	}
	_, err = doc.Save(ctx, sessionRecord{User: user, ExpiresAt: expiresAt}, version)
	return err
}

func (r *sessionRepository) Delete(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return r.document(sessionID).Delete(ctx)
}
