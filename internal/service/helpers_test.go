package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/fixit/helpdesk-service/internal/config"
	"github.com/fixit/helpdesk-service/internal/domain"
	"github.com/fixit/helpdesk-service/internal/events"
	"github.com/fixit/helpdesk-service/internal/persistence"
	"github.com/fixit/helpdesk-service/internal/repository"
)

// testClock advances by one second on every reading.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2024, 5, 20, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type recordedEvents struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recordedEvents) record(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recordedEvents) types() []events.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.EventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

type testEnv struct {
	store     *persistence.Memory
	users     repository.UserRepository
	incidents repository.IncidentRepository
	clock     *testClock
	identity  *IdentityService
	incident  *IncidentService
	reports   *ReportService
	published *recordedEvents
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := persistence.NewMemory()
	clock := newTestClock()
	users := repository.NewUserRepository(store, nil)
	incidents := repository.NewIncidentRepository(store, nil)
	sessions := repository.NewSessionRepository(store, nil)

	dispatcher := events.NewInMemoryDispatcher()
	published := &recordedEvents{}
	for _, et := range []events.EventType{
		events.EventIncidentCreated,
		events.EventIncidentUpdated,
		events.EventIncidentStatusChanged,
		events.EventIncidentAssigned,
		events.EventIncidentCommentAdded,
		events.EventIncidentDeleted,
	} {
		dispatcher.Subscribe(et, published.record)
	}

	cfg := config.Config{Auth: config.AuthConfig{JWTSecret: "test-secret", AccessTokenTTLMinutes: 60, BcryptCost: bcrypt.MinCost}}
	seq := 100000
	return &testEnv{
		store:     store,
		users:     users,
		incidents: incidents,
		clock:     clock,
		published: published,
		identity: NewIdentityService(cfg, IdentityDependencies{
			UserRepo:    users,
			SessionRepo: sessions,
			Now:         clock.Now,
		}),
		incident: NewIncidentService(IncidentDependencies{
			IncidentRepo: incidents,
			UserRepo:     users,
			Dispatcher:   dispatcher,
			Now:          clock.Now,
			NewID: func() string {
				seq++
				return fmt.Sprintf("INC-%06d", seq)
			},
		}),
		reports: NewReportService(ReportDependencies{IncidentRepo: incidents, Now: clock.Now}),
	}
}

// addUser stores a user directly, skipping password hashing.
func (e *testEnv) addUser(t *testing.T, id, name string, role domain.Role, department string) *domain.User {
	t.Helper()
	user := domain.User{
		ID:         id,
		Name:       name,
		Email:      id + "@fixit.com",
		Department: department,
		Role:       role,
		CreatedAt:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, e.users.Create(context.Background(), domain.UserRecord{User: user, PasswordHash: "x"}))
	return &user
}

func (e *testEnv) createIncident(t *testing.T, actor *domain.User, title string) *domain.Incident {
	t.Helper()
	incident, err := e.incident.Create(context.Background(), IncidentCreateInput{
		Title:       title,
		Description: "details for " + title,
	}, actor)
	require.NoError(t, err)
	return incident
}

func ptr[T any](v T) *T {
	return &v
}
