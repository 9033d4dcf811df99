package realtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/fairtrack/fairtrack-api/internal/store"
)

// Hub is the fan-out registry: identity -> live connections. It is an
// explicit service object constructed once at process start and passed
// by reference into the orchestrator and route layer; never a global.
//
// One identity may hold several simultaneous connections (multiple
// browser tabs); every guaranteed event goes to all of them. The
// registry is mutated only by Register/Unregister.
type Hub struct {
	mu    sync.RWMutex
	conns map[string][]Conn

	staff  store.StaffStore
	logger *slog.Logger
}

// NewHub creates the fan-out registry. staff resolves cohort membership
// at emission time.
func NewHub(staff store.StaffStore, logger *slog.Logger) *Hub {
	return &Hub{
		conns:  make(map[string][]Conn),
		staff:  staff,
		logger: logger.With("component", "realtime_hub"),
	}
}

// Register adds a live connection under an identity.
func (h *Hub) Register(identity string, c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[identity] = append(h.conns[identity], c)
	h.logger.Debug("connection registered",
		"identity", identity,
		"connections", len(h.conns[identity]))
}

// Unregister removes a connection; the identity's entry disappears once
// its last connection is gone.
func (h *Hub) Unregister(identity string, c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	list := h.conns[identity]
	for i, existing := range list {
		if existing == c {
			list = append(list[:i], list[i+1:]...)
			break
		}
	}
	if len(list) == 0 {
		delete(h.conns, identity)
	} else {
		h.conns[identity] = list
	}
	h.logger.Debug("connection unregistered", "identity", identity, "connections", len(list))
}

// UnicastVolatile delivers an event best-effort to every live
// connection of one identity. Backed-up connections drop it; this is a
// progress bar, not a correctness signal.
func (h *Hub) UnicastVolatile(identity string, ev Event) {
	for _, c := range h.snapshot(identity) {
		if !c.SendVolatile(ev) {
			h.logger.Debug("volatile event dropped", "identity", identity, "event", ev.Name)
		}
	}
}

// UnicastGuaranteed delivers an event to every connection live for the
// identity at emission time. Connections that join later never see it.
func (h *Hub) UnicastGuaranteed(identity string, ev Event) {
	for _, c := range h.snapshot(identity) {
		if err := c.SendGuaranteed(ev); err != nil {
			h.logger.Warn("guaranteed event delivery failed",
				"identity", identity,
				"event", ev.Name,
				"error", err)
		}
	}
}

// MulticastCompany delivers an event to every verified staff member of
// a company who is connected right now. Membership is resolved through
// the identity store at emission time.
func (h *Hub) MulticastCompany(ctx context.Context, companyID uuid.UUID, ev Event) error {
	members, err := h.staff.VerifiedStaffIDs(ctx, companyID)
	if err != nil {
		return fmt.Errorf("failed to resolve company cohort %s: %w", companyID, err)
	}

	for _, id := range members {
		h.UnicastGuaranteed(id.String(), ev)
	}
	return nil
}

// ConnectionCount reports how many live connections an identity holds.
func (h *Hub) ConnectionCount(identity string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[identity])
}

// CloseAll tears down every registered connection, for shutdown.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for identity, list := range h.conns {
		for _, c := range list {
			_ = c.Close()
		}
		delete(h.conns, identity)
	}
}

// snapshot copies an identity's connection list so sends happen outside
// the lock.
func (h *Hub) snapshot(identity string) []Conn {
	h.mu.RLock()
	defer h.mu.RUnlock()
	list := h.conns[identity]
	out := make([]Conn, len(list))
	copy(out, list)
	return out
}
