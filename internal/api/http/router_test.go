package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/fixit/helpdesk-service/internal/api/http/handlers"
	"github.com/fixit/helpdesk-service/internal/auth"
	"github.com/fixit/helpdesk-service/internal/config"
	"github.com/fixit/helpdesk-service/internal/observability"
	"github.com/fixit/helpdesk-service/internal/persistence"
	"github.com/fixit/helpdesk-service/internal/repository"
	"github.com/fixit/helpdesk-service/internal/service"
)

type apiHarness struct {
	t       *testing.T
	app     *fiber.App
	metrics *observability.Metrics
}

func newAPIHarness(t *testing.T) *apiHarness {
	t.Helper()
	cfg := config.Config{Auth: config.AuthConfig{JWTSecret: "test", AccessTokenTTLMinutes: 10, BcryptCost: bcrypt.MinCost}}
	store := persistence.NewMemory()
	users := repository.NewUserRepository(store, nil)
	incidents := repository.NewIncidentRepository(store, nil)
	sessions := repository.NewSessionRepository(store, nil)

	identity := service.NewIdentityService(cfg, service.IdentityDependencies{UserRepo: users, SessionRepo: sessions})
	_, err := identity.SeedDefaults(context.Background())
	require.NoError(t, err)

	metrics := observability.NewMetrics()
	app := fiber.New()
	RegisterMiddlewares(app, zap.NewNop(), metrics, 0)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("fixit", "test", "memory", store),
		Users:          handlers.NewUsersHandler(identity),
		Incidents:      handlers.NewIncidentsHandler(service.NewIncidentService(service.IncidentDependencies{IncidentRepo: incidents, UserRepo: users})),
		Reports:        handlers.NewReportsHandler(service.NewReportService(service.ReportDependencies{IncidentRepo: incidents})),
		AuthMiddleware: auth.NewAuthMiddleware(identity),
	})
	return &apiHarness{t: t, app: app, metrics: metrics}
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func (h *apiHarness) do(method, path, token string, body any) (int, envelope) {
	h.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(h.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := h.app.Test(req, -1)
	require.NoError(h.t, err)
	defer resp.Body.Close()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(h.t, err)
	if len(raw) > 0 {
		require.NoError(h.t, json.Unmarshal(raw, &env), string(raw))
	}
	return resp.StatusCode, env
}

func (h *apiHarness) login(email, password string) string {
	h.t.Helper()
	status, env := h.do(http.MethodPost, "/auth/login", "", map[string]string{"email": email, "password": password})
	require.Equal(h.t, http.StatusOK, status)
	var data struct {
		Auth struct {
			Token string `json:"token"`
		} `json:"auth"`
	}
	require.NoError(h.t, json.Unmarshal(env.Data, &data))
	return data.Auth.Token
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

func TestHealthEndpoints(t *testing.T) {
	h := newAPIHarness(t)
	status, _ := h.do(http.MethodGet, "/health/live", "", nil)
	require.Equal(t, http.StatusOK, status)
	status, _ = h.do(http.MethodGet, "/health/ready", "", nil)
	require.Equal(t, http.StatusOK, status)
}

func TestAuthFlow(t *testing.T) {
	h := newAPIHarness(t)
	register := map[string]string{"name": "Ana Souza", "email": "ana@corp.com", "password": "pw", "department": "rh"}

	status, env := h.do(http.MethodPost, "/auth/register", "", register)
	require.Equal(t, http.StatusCreated, status)
	require.NotContains(t, string(env.Data), "password")

	status, env = h.do(http.MethodPost, "/auth/register", "", register)
	require.Equal(t, http.StatusConflict, status)
	require.Equal(t, "DUPLICATE_EMAIL", env.Error.Code)

	status, env = h.do(http.MethodPost, "/auth/login", "", map[string]string{"email": "ana@corp.com", "password": "nope"})
	require.Equal(t, http.StatusUnauthorized, status)
	require.Equal(t, "INVALID_CREDENTIALS", env.Error.Code)

	token := h.login("ana@corp.com", "pw")
	status, env = h.do(http.MethodGet, "/auth/me", token, nil)
	require.Equal(t, http.StatusOK, status)
	me := decode[map[string]any](t, env.Data)
	require.Equal(t, "user", me["role"])

	status, _ = h.do(http.MethodPost, "/auth/logout", token, nil)
	require.Equal(t, http.StatusNoContent, status)
	status, env = h.do(http.MethodGet, "/auth/me", token, nil)
	require.Equal(t, http.StatusUnauthorized, status)
	require.Equal(t, "UNAUTHORIZED", env.Error.Code)
}

func TestUserDirectoryRoles(t *testing.T) {
	h := newAPIHarness(t)
	admin := h.login("admin@fixit.com", "admin")
	tech := h.login("caio@fixit.com", "caio")

	status, env := h.do(http.MethodGet, "/users", admin, nil)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, decode[[]map[string]any](t, env.Data), 5)

	status, env = h.do(http.MethodGet, "/users", tech, nil)
	require.Equal(t, http.StatusForbidden, status)
	require.Equal(t, "FORBIDDEN", env.Error.Code)

	status, env = h.do(http.MethodGet, "/users/technicians", tech, nil)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, decode[[]map[string]any](t, env.Data), 4)
}

func TestIncidentLifecycle(t *testing.T) {
	h := newAPIHarness(t)
	status, _ := h.do(http.MethodPost, "/auth/register", "", map[string]string{"name": "Ana", "email": "ana@corp.com", "password": "pw", "department": "rh"})
	require.Equal(t, http.StatusCreated, status)
	user := h.login("ana@corp.com", "pw")
	admin := h.login("admin@fixit.com", "admin")
	tech := h.login("mariana@fixit.com", "mariana")

	status, env := h.do(http.MethodPost, "/incidents", "", map[string]string{"title": "x", "description": "y"})
	require.Equal(t, http.StatusUnauthorized, status)

	status, env = h.do(http.MethodPost, "/incidents", user, map[string]string{"title": "", "description": "y"})
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, "VALIDATION_FAILED", env.Error.Code)

	status, env = h.do(http.MethodPost, "/incidents", user, map[string]string{"title": "Printer", "description": "jammed", "priority": "high"})
	require.Equal(t, http.StatusCreated, status)
	created := decode[map[string]any](t, env.Data)
	id := created["id"].(string)
	require.Equal(t, "open", created["status"])
	require.Equal(t, "rh", created["department"])

	status, env = h.do(http.MethodPatch, "/incidents/"+id, user, map[string]string{"status": "closed"})
	require.Equal(t, http.StatusForbidden, status)

	status, _ = h.do(http.MethodPost, "/incidents/"+id+"/self-assign", tech, nil)
	require.Equal(t, http.StatusOK, status)

	status, env = h.do(http.MethodPatch, "/incidents/"+id, tech, map[string]string{"status": "in_progress"})
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "in_progress", decode[map[string]any](t, env.Data)["status"])

	status, env = h.do(http.MethodPost, "/incidents/"+id+"/comments", tech, map[string]string{"text": "on it"})
	require.Equal(t, http.StatusCreated, status)
	require.Len(t, decode[map[string]any](t, env.Data)["comments"], 1)

	status, env = h.do(http.MethodGet, "/incidents?q=printer&status=in_progress", user, nil)
	require.Equal(t, http.StatusOK, status)
	list := decode[struct {
		Total int `json:"total"`
	}](t, env.Data)
	require.Equal(t, 1, list.Total)

	status, env = h.do(http.MethodGet, "/incidents?status=bogus", user, nil)
	require.Equal(t, http.StatusBadRequest, status)

	status, env = h.do(http.MethodGet, "/reports/summary?range=week", user, nil)
	require.Equal(t, http.StatusForbidden, status)
	status, env = h.do(http.MethodGet, "/reports/summary?range=week", admin, nil)
	require.Equal(t, http.StatusOK, status)
	require.EqualValues(t, 1, decode[map[string]any](t, env.Data)["total"])
	status, env = h.do(http.MethodGet, "/reports/summary?range=decade", admin, nil)
	require.Equal(t, http.StatusBadRequest, status)
	status, _ = h.do(http.MethodGet, "/reports/dashboard", tech, nil)
	require.Equal(t, http.StatusOK, status)

	status, _ = h.do(http.MethodDelete, "/incidents/"+id, tech, nil)
	require.Equal(t, http.StatusForbidden, status)
	status, _ = h.do(http.MethodDelete, "/incidents/"+id, user, nil)
	require.Equal(t, http.StatusNoContent, status)
	status, env = h.do(http.MethodGet, "/incidents/"+id, user, nil)
	require.Equal(t, http.StatusNotFound, status)
	require.Equal(t, "NOT_FOUND", env.Error.Code)

	require.NotEmpty(t, h.metrics.Snapshot().Errors)
}

func TestAdminAssignsTechnician(t *testing.T) {
	h := newAPIHarness(t)
	admin := h.login("admin@fixit.com", "admin")
	tech := h.login("gustavo@fixit.com", "gustavo")

	status, env := h.do(http.MethodGet, "/users/technicians", admin, nil)
	require.Equal(t, http.StatusOK, status)
	var gustavoID string
	for _, u := range decode[[]map[string]any](t, env.Data) {
		if u["email"] == "gustavo@fixit.com" {
			gustavoID = u["id"].(string)
		}
	}
	require.NotEmpty(t, gustavoID)

	status, env = h.do(http.MethodPost, "/incidents", admin, map[string]string{"title": "VPN", "description": "down"})
	require.Equal(t, http.StatusCreated, status)
	id := decode[map[string]any](t, env.Data)["id"].(string)

	status, _ = h.do(http.MethodPost, "/incidents/"+id+"/assign", tech, map[string]string{"technicianId": gustavoID})
	require.Equal(t, http.StatusForbidden, status)

	status, env = h.do(http.MethodPost, "/incidents/"+id+"/assign", admin, map[string]string{"technicianId": gustavoID})
	require.Equal(t, http.StatusOK, status)
	assignee := decode[map[string]any](t, env.Data)["assignee"].(map[string]any)
	require.Equal(t, "G", assignee["initials"])
}

func TestUnknownRouteUsesEnvelope(t *testing.T) {
	h := newAPIHarness(t)
	status, env := h.do(http.MethodGet, "/nowhere", "", nil)
	require.Equal(t, http.StatusNotFound, status)
	require.Equal(t, "NOT_FOUND", env.Error.Code)
}

func TestErrorMetricsKeyedByRoutePattern(t *testing.T) {
	h := newAPIHarness(t)
	user := h.login("caio@fixit.com", "caio")

	for _, id := range []string{"INC-123456", "INC-654321"} {
		status, _ := h.do(http.MethodGet, "/incidents/"+id, "", nil)
		require.Equal(t, http.StatusUnauthorized, status)
		status, _ = h.do(http.MethodGet, "/incidents/"+id, user, nil)
		require.Equal(t, http.StatusNotFound, status)
	}
	for _, path := range []string{"/nowhere", "/elsewhere"} {
		status, _ := h.do(http.MethodGet, path, "", nil)
		require.Equal(t, http.StatusNotFound, status)
	}

	errs := h.metrics.Snapshot().Errors
	unauthorized := int64(0)
	for key, count := range errs {
		require.NotContains(t, key, "INC-")
		require.NotContains(t, key, "nowhere")
		require.NotContains(t, key, "elsewhere")
		if strings.HasSuffix(key, "|GET|UNAUTHORIZED") {
			unauthorized += count
		}
	}
	require.EqualValues(t, 2, unauthorized)
	require.EqualValues(t, 2, errs["/incidents/:id|GET|NOT_FOUND"])
}
