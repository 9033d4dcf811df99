package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairtrack/fairtrack-api/internal/domain"
	"github.com/fairtrack/fairtrack-api/internal/mocks"
	"github.com/fairtrack/fairtrack-api/internal/realtime"
	"github.com/fairtrack/fairtrack-api/internal/store"
)

// eventConn collects hub deliveries.
type eventConn struct {
	mu     sync.Mutex
	events []realtime.Event
}

func (c *eventConn) SendVolatile(ev realtime.Event) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
	return true
}

func (c *eventConn) SendGuaranteed(ev realtime.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
	return nil
}

func (c *eventConn) Close() error { return nil }

func (c *eventConn) names() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []string
	for _, ev := range c.events {
		out = append(out, ev.Name)
	}
	return out
}

type visitEnv struct {
	svc          *VisitService
	participants *mocks.MockParticipantStore
	visits       *mocks.MockVisitStore
	staff        *mocks.MockStaffStore
	hub          *realtime.Hub
}

func newVisitEnv(t *testing.T) *visitEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	participants := mocks.NewMockParticipantStore()
	visits := mocks.NewMockVisitStore()
	staff := mocks.NewMockStaffStore()
	hub := realtime.NewHub(staff, logger)

	return &visitEnv{
		svc:          NewVisitService(participants, visits, hub, logger),
		participants: participants,
		visits:       visits,
		staff:        staff,
		hub:          hub,
	}
}

func TestRecordVisit(t *testing.T) {
	t.Parallel()

	env := newVisitEnv(t)

	participant := domain.Participant{ID: uuid.New(), Name: "Jane Doe"}
	env.participants.Add(participant)

	companyID := uuid.New()
	recruiter := domain.Identity{UUID: uuid.New(), Role: domain.RoleStaff, CompanyID: companyID, Verified: true}
	colleague := uuid.New()
	env.staff.SetStaff(companyID, []uuid.UUID{recruiter.UUID, colleague})

	participantConn := &eventConn{}
	colleagueConn := &eventConn{}
	env.hub.Register(participant.ID.String(), participantConn)
	env.hub.Register(colleague.String(), colleagueConn)

	visit, err := env.svc.RecordVisit(context.Background(), participant.ID, recruiter, "great chat")
	require.NoError(t, err)

	assert.Equal(t, participant.ID, visit.ParticipantID)
	assert.Equal(t, companyID, visit.CompanyID)
	assert.Equal(t, recruiter.UUID, visit.RecordedBy)
	assert.Equal(t, "great chat", visit.Note)

	stored := env.visits.All()
	require.Len(t, stored, 1)
	assert.Equal(t, visit.ID, stored[0].ID)

	// The participant gets the visit event; company staff get the
	// reload notification.
	assert.Equal(t, []string{realtime.EventVisit}, participantConn.names())
	assert.Equal(t, []string{realtime.EventReloadParticipant}, colleagueConn.names())
}

func TestRecordVisitWithoutCompany(t *testing.T) {
	t.Parallel()

	env := newVisitEnv(t)
	env.participants.Add(domain.Participant{ID: uuid.New(), Name: "Jane Doe"})

	noCompany := domain.Identity{UUID: uuid.New(), Role: domain.RoleStaff}
	_, err := env.svc.RecordVisit(context.Background(), uuid.New(), noCompany, "")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.Empty(t, env.visits.All())
}

func TestRecordVisitUnknownParticipant(t *testing.T) {
	t.Parallel()

	env := newVisitEnv(t)
	recruiter := domain.Identity{UUID: uuid.New(), Role: domain.RoleStaff, CompanyID: uuid.New(), Verified: true}

	_, err := env.svc.RecordVisit(context.Background(), uuid.New(), recruiter, "")
	assert.ErrorIs(t, err, store.ErrParticipantNotFound)
	assert.Empty(t, env.visits.All())
}

func TestRecordVisitPersistFailure(t *testing.T) {
	t.Parallel()

	env := newVisitEnv(t)
	participant := domain.Participant{ID: uuid.New(), Name: "Jane Doe"}
	env.participants.Add(participant)

	env.visits.CreateFn = func(ctx context.Context, visit *domain.Visit) error {
		return errors.New("disk full")
	}

	conn := &eventConn{}
	env.hub.Register(participant.ID.String(), conn)

	recruiter := domain.Identity{UUID: uuid.New(), Role: domain.RoleStaff, CompanyID: uuid.New(), Verified: true}
	_, err := env.svc.RecordVisit(context.Background(), participant.ID, recruiter, "")
	require.ErrorContains(t, err, "disk full")

	assert.Empty(t, conn.names(), "no notification before the visit is persisted")
}

func TestRecordVisitCohortFailureDoesNotRollBack(t *testing.T) {
	t.Parallel()

	env := newVisitEnv(t)
	participant := domain.Participant{ID: uuid.New(), Name: "Jane Doe"}
	env.participants.Add(participant)

	env.staff.VerifiedStaffIDsFn = func(ctx context.Context, companyID uuid.UUID) ([]uuid.UUID, error) {
		return nil, errors.New("identity store down")
	}

	recruiter := domain.Identity{UUID: uuid.New(), Role: domain.RoleStaff, CompanyID: uuid.New(), Verified: true}
	visit, err := env.svc.RecordVisit(context.Background(), participant.ID, recruiter, "")
	require.NoError(t, err, "fan-out trouble must not fail the recorded visit")
	assert.NotNil(t, visit)
	assert.Len(t, env.visits.All(), 1)
}
