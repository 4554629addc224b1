package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/fixit/helpdesk-service/internal/domain"
	apperrors "github.com/fixit/helpdesk-service/pkg/util/errorutil"
)

// stubSessions resolves tokens issued by tm against an in-memory session table.
type stubSessions struct {
	tm    *TokenManager
	users map[string]*domain.User
}

func (s stubSessions) AuthenticateToken(_ context.Context, token string) (*domain.Session, error) {
	claims, err := s.tm.ParseToken(token)
	if err != nil {
		return nil, apperrors.NewUnauthorized("invalid token")
	}
	user, ok := s.users[claims.SessionID]
	if !ok {
		return nil, apperrors.NewUnauthorized("session expired")
	}
	return &domain.Session{ID: claims.SessionID, User: *user}, nil
}

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", 5)

	token, expiresAt, err := tm.GenerateToken("u-1", "s-1")
	require.NoError(t, err)
	require.WithinDuration(t, time.Now().Add(5*time.Minute), expiresAt, 5*time.Second)

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	require.Equal(t, "s-1", claims.SessionID)
	require.Equal(t, "u-1", claims.Subject)
}

func TestTokenRejectsForeignSecretAndExpiry(t *testing.T) {
	token, _, err := NewTokenManager("one", 5).GenerateToken("u-1", "s-1")
	require.NoError(t, err)
	_, err = NewTokenManager("two", 5).ParseToken(token)
	require.Error(t, err)

	expired := NewTokenManager("one", 5)
	expired.now = func() time.Time { return time.Now().Add(-time.Hour) }
	token, _, err = expired.GenerateToken("u-1", "s-1")
	require.NoError(t, err)
	_, err = expired.ParseToken(token)
	require.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hashed, err := HashPassword("admin", bcrypt.MinCost)
	require.NoError(t, err)
	require.NotEqual(t, "admin", hashed)
	require.NoError(t, ComparePassword(hashed, "admin"))
	require.Error(t, ComparePassword(hashed, "Admin"))
}

func TestPolicies(t *testing.T) {
	admin := &domain.User{ID: "a", Role: domain.RoleAdmin}
	tech := &domain.User{ID: "t", Role: domain.RoleTechnician}
	other := &domain.User{ID: "t2", Role: domain.RoleTechnician}
	creator := &domain.User{ID: "c"}

	unassigned := &domain.Incident{CreatedBy: domain.CreatorSnapshot{ID: "c"}}
	assigned := &domain.Incident{
		CreatedBy: domain.CreatorSnapshot{ID: "c"},
		Assignee:  &domain.AssigneeSnapshot{ID: "t"},
	}

	require.True(t, CanChangeStatus(admin, unassigned))
	require.True(t, CanChangeStatus(tech, assigned))
	require.False(t, CanChangeStatus(other, assigned))
	require.False(t, CanChangeStatus(creator, assigned))
	require.False(t, CanChangeStatus(nil, assigned))

	require.True(t, CanComment(tech, assigned))
	require.False(t, CanComment(creator, unassigned))

	require.True(t, CanDelete(creator, assigned))
	require.True(t, CanDelete(admin, assigned))
	require.False(t, CanDelete(tech, assigned))

	require.True(t, CanAssign(admin))
	require.False(t, CanAssign(tech))

	require.True(t, CanSelfAssign(tech, unassigned))
	require.False(t, CanSelfAssign(other, assigned))
	require.False(t, CanSelfAssign(creator, unassigned))

	require.True(t, CanViewReports(tech))
	require.False(t, CanViewReports(creator))
	require.True(t, CanListUsers(admin))
	require.False(t, CanListUsers(tech))
}

func newTestApp(sessions TokenAuthenticator, guards ...fiber.Handler) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			de := apperrors.ToDomainError(err)
			return c.Status(de.HTTPStatus).SendString(de.Code)
		},
	})
	handlers := append([]fiber.Handler{NewAuthMiddleware(sessions).Handle}, guards...)
	handlers = append(handlers, func(c *fiber.Ctx) error {
		return c.SendString(ActorFromContext(c).ID)
	})
	app.Get("/me", handlers...)
	return app
}

func TestAuthMiddleware(t *testing.T) {
	tm := NewTokenManager("secret", 5)
	sessions := stubSessions{tm: tm, users: map[string]*domain.User{"s-1": {ID: "u-1", Role: domain.RoleUser}}}
	app := newTestApp(sessions)

	live, _, err := tm.GenerateToken("u-1", "s-1")
	require.NoError(t, err)
	ended, _, err := tm.GenerateToken("u-1", "s-gone")
	require.NoError(t, err)

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "Bearer nope", http.StatusUnauthorized},
		{"ended session", "Bearer " + ended, http.StatusUnauthorized},
		{"live session", "Bearer " + live, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			require.Equal(t, tc.status, resp.StatusCode)
		})
	}
}

func TestRequireRole(t *testing.T) {
	tm := NewTokenManager("secret", 5)
	sessions := stubSessions{tm: tm, users: map[string]*domain.User{
		"s-user":  {ID: "u-1"},
		"s-admin": {ID: "a-1", Role: domain.RoleAdmin},
	}}
	app := newTestApp(sessions, RequireRole(domain.RoleAdmin))

	for sid, want := range map[string]int{"s-user": http.StatusForbidden, "s-admin": http.StatusOK} {
		token, _, err := tm.GenerateToken("x", sid)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := app.Test(req)
		require.NoError(t, err)
		require.Equal(t, want, resp.StatusCode, sid)
	}
}
