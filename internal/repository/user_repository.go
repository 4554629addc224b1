package repository

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/fixit/helpdesk-service/internal/domain"
	"github.com/fixit/helpdesk-service/internal/persistence"
)

// UsersKey is the storage key of the user list.
const UsersKey = "fixit_users"

// UserRepository defines persistence access for registered users.
type UserRepository interface {
	List(ctx context.Context) ([]domain.UserRecord, error)
	GetByID(ctx context.Context, id string) (*domain.UserRecord, error)
	GetByEmail(ctx context.Context, email string) (*domain.UserRecord, error)
	// Create appends user unless its email is already registered.
	Create(ctx context.Context, user domain.UserRecord) error
	// CreateMissing appends every user whose email is not yet registered
	// with a single write and reports how many were added.
	CreateMissing(ctx context.Context, users []domain.UserRecord) (int, error)
}

type userRepository struct {
	mu    sync.Mutex
	users *persistence.Collection[domain.UserRecord]
}

// NewUserRepository returns a repository backed by the user list blob.
func NewUserRepository(store persistence.BlobStore, logger *zap.Logger) UserRepository {
	return &userRepository{users: persistence.NewCollection[domain.UserRecord](store, UsersKey, logger)}
}

func (r *userRepository) List(ctx context.Context) ([]domain.UserRecord, error) {
	users, _, err := r.users.Load(ctx)
	return users, err
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.UserRecord, error) {
	users, _, err := r.users.Load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].ID == id {
			return &users[i], nil
		}
	}
	return nil, ErrNotFound
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.UserRecord, error) {
	users, _, err := r.users.Load(ctx)
	if err != nil {
		return nil, err
	}
	if i := indexByEmail(users, email); i >= 0 {
		return &users[i], nil
	}
	return nil, ErrNotFound
}

func (r *userRepository) Create(ctx context.Context, user domain.UserRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	users, version, err := r.users.Load(ctx)
	if err != nil {
		return err
	}
	if indexByEmail(users, user.Email) >= 0 {
		return ErrDuplicate
	}
	_, err = r.users.Save(ctx, append(users, user), version)
	return err
}

func (r *userRepository) CreateMissing(ctx context.Context, candidates []domain.UserRecord) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	users, version, err := r.users.Load(ctx)
	if err != nil {
		return 0, err
	}
	added := 0
	for _, candidate := range candidates {
		if indexByEmail(users, candidate.Email) >= 0 {
			continue
		}
		users = append(users, candidate)
		added++
	}
	if added == 0 {
		return 0, nil
	}
	if _, err := r.users.Save(ctx, users, version); err != nil {
		return 0, err
	}
	return added, nil
}

func indexByEmail(users []domain.UserRecord, email string) int {
	for i := range users {
		if users[i].Email == email {
			return i
		}
	}
	return -1
}
