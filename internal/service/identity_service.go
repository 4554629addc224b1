package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fixit/helpdesk-service/internal/auth"
	"github.com/fixit/helpdesk-service/internal/config"
	"github.com/fixit/helpdesk-service/internal/domain"
	"github.com/fixit/helpdesk-service/internal/repository"
	apperrors "github.com/fixit/helpdesk-service/pkg/util/errorutil"
)

// IdentityService coordinates registration, login and sessions.
type IdentityService struct {
	users      repository.UserRepository
	sessions   repository.SessionRepository
	tokenMgr   *auth.TokenManager
	bcryptCost int
	now        func() time.Time
	logger     *zap.Logger
}

// IdentityDependencies encapsulates repo requirements for the identity service.
type IdentityDependencies struct {
	UserRepo    repository.UserRepository
	SessionRepo repository.SessionRepository
	Logger      *zap.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

// RegisterInput describes a self-service account.
type RegisterInput struct {
	Name       string
	Email      string
	Password   string
	Telephone  string
	Department string
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	Session   domain.Session
	Token     string
	ExpiresAt time.Time
}

// NewIdentityService builds the service.
func NewIdentityService(cfg config.Config, deps IdentityDependencies) *IdentityService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IdentityService{
		users:      deps.UserRepo,
		sessions:   deps.SessionRepo,
		tokenMgr:   auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		bcryptCost: cfg.Auth.BcryptCost,
		now:        now,
		logger:     logger,
	}
}

// Register creates a new end-user account and returns it without password.
func (s *IdentityService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.TrimSpace(input.Email)
	details := map[string]any{}
	if input.Name == "" {
		details["name"] = "required"
	}
	if input.Email == "" {
		details["email"] = "required"
	}
	if input.Password == "" {
		details["password"] = "required"
	}
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("invalid registration", details)
	}

	if _, err := s.users.GetByEmail(ctx, input.Email); err == nil {
		return nil, apperrors.NewDuplicateEmail(input.Email)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, storeError(err)
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	record := domain.UserRecord{
		User: domain.User{
			ID:         uuid.NewString(),
			Name:       input.Name,
			Email:      input.Email,
			Telephone:  strings.TrimSpace(input.Telephone),
			Department: strings.TrimSpace(input.Department),
			CreatedAt:  s.now().UTC(),
			Role:       domain.RoleUser,
		},
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, record); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewDuplicateEmail(input.Email)
		}
		return nil, storeError(err)
	}
	s.logger.Info("user registered", zap.String("user_id", record.ID))
	user := record.User
	return &user, nil
}

// Login verifies credentials, opens a session and signs a token for it.
func (s *IdentityService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	record, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewInvalidCredentials()
		}
		return nil, storeError(err)
	}
	if err := auth.ComparePassword(record.PasswordHash, password); err != nil {
		return nil, apperrors.NewInvalidCredentials()
	}

	sessionID := uuid.NewString()
	token, exp, err := s.tokenMgr.GenerateToken(record.ID, sessionID)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	// The stored session lapses together with the token.
	if err := s.sessions.Put(ctx, sessionID, record.User, s.now().Add(s.tokenMgr.TTL())); err != nil {
		return nil, storeError(err)
	}
	return &LoginResult{
		Session:   domain.Session{ID: sessionID, User: record.User},
		Token:     token,
		ExpiresAt: exp,
	}, nil
}

// CurrentUser returns the user behind a session, or nil when none is open.
func (s *IdentityService) CurrentUser(ctx context.Context, sessionID string) (*domain.User, error) {
	user, err := s.sessions.Get(ctx, sessionID, s.now())
	if err != nil {
		return nil, storeError(err)
	}
	return user, nil
}

// AuthenticateToken parses a bearer token and resolves the session it
// points at.
func (s *IdentityService) AuthenticateToken(ctx context.Context, token string) (*domain.Session, error) {
	claims, err := s.tokenMgr.ParseToken(token)
	if err != nil {
		return nil, apperrors.NewUnauthorized("invalid token")
	}
	user, err := s.CurrentUser(ctx, claims.SessionID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.NewUnauthorized("session expired")
	}
	return &domain.Session{ID: claims.SessionID, User: *user}, nil
}

// Logout ends the session. Ending an unknown session is not an error.
func (s *IdentityService) Logout(ctx context.Context, sessionID string) error {
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return storeError(err)
	}
	return nil
}

// ListUsers returns every registered user without passwords.
func (s *IdentityService) ListUsers(ctx context.Context) ([]domain.User, error) {
	records, err := s.users.List(ctx)
	if err != nil {
		return nil, storeError(err)
	}
	users := make([]domain.User, 0, len(records))
	for _, record := range records {
		users = append(users, record.User)
	}
	return users, nil
}

// ListTechnicians returns the users holding the technician role.
func (s *IdentityService) ListTechnicians(ctx context.Context) ([]domain.User, error) {
	users, err := s.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	technicians := make([]domain.User, 0, len(users))
	for _, user := range users {
		if user.IsTechnician() {
			technicians = append(technicians, user)
		}
	}
	return technicians, nil
}

type defaultAccount struct {
	idPrefix   string
	name       string
	email      string
	password   string
	department string
	role       domain.Role
}

var defaultAccounts = []defaultAccount{
	{"admin-", "Administrador", "admin@fixit.com", "admin", "ti", domain.RoleAdmin},
	{"tech-", "Guilherme", "guilherme@fixit.com", "guilherme", "suporte", domain.RoleTechnician},
	{"tech-", "Caio", "caio@fixit.com", "caio", "suporte", domain.RoleTechnician},
	{"tech-", "Gustavo", "gustavo@fixit.com", "gustavo", "suporte", domain.RoleTechnician},
	{"tech-", "Mariana", "mariana@fixit.com", "mariana", "suporte", domain.RoleTechnician},
}

// SeedDefaults makes sure the built-in admin and technicians exist and
// reports how many accounts were added.
func (s *IdentityService) SeedDefaults(ctx context.Context) (int, error) {
	existing, err := s.users.List(ctx)
	if err != nil {
		return 0, storeError(err)
	}
	registered := make(map[string]struct{}, len(existing))
	for _, user := range existing {
		registered[user.Email] = struct{}{}
	}

	now := s.now().UTC()
	var missing []domain.UserRecord
	for _, account := range defaultAccounts {
		if _, ok := registered[account.email]; ok {
			continue
		}
		hash, err := auth.HashPassword(account.password, s.bcryptCost)
		if err != nil {
			return 0, apperrors.NewInternalError(err)
		}
		missing = append(missing, domain.UserRecord{
			User: domain.User{
				ID:         account.idPrefix + uuid.NewString(),
				Name:       account.name,
				Email:      account.email,
				Department: account.department,
				CreatedAt:  now,
				Role:       account.role,
			},
			PasswordHash: hash,
		})
	}
	if len(missing) == 0 {
		return 0, nil
	}

	added, err := s.users.CreateMissing(ctx, missing)
	if err != nil {
		return 0, storeError(err)
	}
	if added > 0 {
		s.logger.Info("default accounts seeded", zap.Int("added", added))
	}
	return added, nil
}
