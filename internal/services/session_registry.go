package services

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hunterianlab/modules-platform/internal/models"
	"github.com/hunterianlab/modules-platform/internal/staging"
	"github.com/hunterianlab/modules-platform/libs/monitoring"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// SessionRegistry keeps the open edit sessions in memory and expires idle ones
type SessionRegistry struct {
	mu       sync.Mutex
	sessions map[string]*staging.Session
	ttl      time.Duration
	now      func() time.Time
	logger   *zap.Logger
}

// NewSessionRegistry creates an empty registry. A ttl of zero disables expiry.
func NewSessionRegistry(ttl time.Duration, logger *zap.Logger) *SessionRegistry {
	return &SessionRegistry{
		sessions: make(map[string]*staging.Session),
		ttl:      ttl,
		now:      time.Now,
		logger:   logger,
	}
}

// Open creates a new session for the admin on the module
func (r *SessionRegistry) Open(moduleID int, adminID string) *staging.Session {
	session := staging.NewSession(uuid.New().String(), moduleID, adminID)

	r.mu.Lock()
	r.sessions[session.ID()] = session
	r.mu.Unlock()

	monitoring.ActiveSessions.Inc()
	return session
}

// Get returns the session with the given id if it belongs to adminID.
// Sessions of other admins are reported as not found.
func (r *SessionRegistry) Get(id, adminID string) (*staging.Session, error) {
	r.mu.Lock()
	session, ok := r.sessions[id]
	r.mu.Unlock()

	if !ok || session.AdminID() != adminID {
		return nil, fmt.Errorf("session %s: %w", id, models.ErrNotFound)
	}
	return session, nil
}

// Close removes the session, discarding any staged unit
func (r *SessionRegistry) Close(id, adminID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[id]
	if !ok || session.AdminID() != adminID {
		return fmt.Errorf("session %s: %w", id, models.ErrNotFound)
	}
	delete(r.sessions, id)
	monitoring.ActiveSessions.Dec()
	return nil
}

// Len returns the number of open sessions
func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep drops sessions unused for longer than the ttl and returns how many were dropped.
// Last-use times are read without holding the registry lock.
func (r *SessionRegistry) Sweep() int {
	if r.ttl <= 0 {
		return 0
	}
	deadline := r.now().Add(-r.ttl)

	r.mu.Lock()
	candidates := make([]*staging.Session, 0, len(r.sessions))
	for _, session := range r.sessions {
		candidates = append(candidates, session)
	}
	r.mu.Unlock()

	stale := make([]*staging.Session, 0)
	for _, session := range candidates {
		if session.LastUsed().Before(deadline) {
			stale = append(stale, session)
		}
	}
	if len(stale) == 0 {
		return 0
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	expired := 0
	for _, session := range stale {
		// Closed or replaced since the snapshot
		if r.sessions[session.ID()] != session {
			continue
		}
		delete(r.sessions, session.ID())
		expired++
		r.logger.Info("edit session expired",
			zap.String("session_id", session.ID()),
			zap.Int("module_id", session.ModuleID()),
			zap.String("admin_id", session.AdminID()),
		)
	}
	monitoring.ActiveSessions.Sub(float64(expired))
	return expired
}

// StartSweeper schedules Sweep on the cron schedule and starts the scheduler.
// The caller stops the returned scheduler on shutdown.
func (r *SessionRegistry) StartSweeper(schedule string) (*cron.Cron, error) {
	c := cron.New()
	if _, err := c.AddFunc(schedule, func() {
		if n := r.Sweep(); n > 0 {
			r.logger.Debug("session sweep finished", zap.Int("expired", n))
		}
	}); err != nil {
		return nil, fmt.Errorf("invalid session sweep schedule %q: %w", schedule, err)
	}
	c.Start()
	return c, nil
}
