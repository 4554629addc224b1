package auth

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/fixit/helpdesk-service/internal/domain"
	apperrors "github.com/fixit/helpdesk-service/pkg/util/errorutil"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller.
type Principal struct {
	SessionID string
	User      *domain.User
}

// TokenAuthenticator resolves a bearer token to the session it was issued
// for. Tokens of ended sessions are rejected.
type TokenAuthenticator interface {
	AuthenticateToken(ctx context.Context, token string) (*domain.Session, error)
}

// AuthMiddleware validates bearer tokens and loads principals.
type AuthMiddleware struct {
	authenticator TokenAuthenticator
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(authenticator TokenAuthenticator) *AuthMiddleware {
	return &AuthMiddleware{authenticator: authenticator}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	session, err := m.authenticator.AuthenticateToken(c.UserContext(), strings.TrimSpace(parts[1]))
	if err != nil {
		return apperrors.MapError(err)
	}
	if session == nil {
		return apperrors.NewUnauthorized("session expired")
	}

	user := session.User
	c.Locals(principalKey, &Principal{SessionID: session.ID, User: &user})
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}

// ActorFromContext returns the authenticated user or nil.
func ActorFromContext(c *fiber.Ctx) *domain.User {
	principal, ok := PrincipalFromContext(c)
	if !ok {
		return nil
	}
	return principal.User
}
