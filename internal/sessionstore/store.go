// Package sessionstore implements the Session & Audit Store (SPEC_FULL.md
// §4.8): a bounded, in-memory map of models.Session keyed by ID plus an
// append-only, bounded audit log. Grounded on the teacher's
// internal/sessions/memory.go clone-on-read/write MemoryStore pattern,
// scaled down from its persistent branch/compaction/hierarchy subsystem to
// the spec's simpler bounded, restart-local model (no Non-goal violated:
// cross-restart persistence is explicitly out of scope).
package sessionstore

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vswrite/agent-core/pkg/models"
)

// MaxSessions is the bound on concurrently tracked sessions (§5 resource
// budgets). On overflow, the oldest non-Active session is evicted.
const MaxSessions = 100

// MaxAuditEntries bounds the audit log; oldest entries are drained on
// overflow.
const MaxAuditEntries = 1000

// Store holds sessions and the audit log behind a split lock (§5: "Session
// store: split lock over sessions map and audit log; each bounded-cleanup
// step runs under the writer").
type Store struct {
	sessMu   sync.RWMutex
	sessions map[string]*models.Session
	order    []string // insertion order, for oldest-eviction scans

	auditMu sync.Mutex
	audit   []models.AuditEntry
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		sessions: make(map[string]*models.Session),
	}
}

// Create registers a new session, assigning an ID and CreatedAt/LastActiveAt
// if unset, then evicts the oldest non-Active session if the store is at
// capacity.
func (s *Store) Create(session models.Session) models.Session {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	now := time.Now()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	session.LastActiveAt = now
	if session.Status == "" {
		session.Status = models.SessionActive
	}

	s.sessMu.Lock()
	defer s.sessMu.Unlock()
	if len(s.sessions) >= MaxSessions {
		s.evictOldestLocked()
	}
	clone := session
	s.sessions[clone.ID] = &clone
	s.order = append(s.order, clone.ID)
	return clone
}

// evictOldestLocked removes the oldest non-Active session by CreatedAt.
// Must be called with sessMu held. If every session is Active (terminal
// states are the only ones eligible for eviction), no entry is removed and
// the store is allowed to exceed MaxSessions until one finishes — dropping
// an in-flight run's bookkeeping would corrupt an active loop.
func (s *Store) evictOldestLocked() {
	var oldestID string
	var oldestAt time.Time
	for id, sess := range s.sessions {
		if sess.Status == models.SessionActive {
			continue
		}
		if oldestID == "" || sess.CreatedAt.Before(oldestAt) {
			oldestID = id
			oldestAt = sess.CreatedAt
		}
	}
	if oldestID == "" {
		return
	}
	delete(s.sessions, oldestID)
	for i, id := range s.order {
		if id == oldestID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// Get returns a copy of the session, or false if not found.
func (s *Store) Get(id string) (models.Session, bool) {
	s.sessMu.RLock()
	defer s.sessMu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return models.Session{}, false
	}
	return *sess, true
}

// Update replaces a session's stored state in place, stamping
// LastActiveAt. Returns false if the session no longer exists (e.g. it was
// evicted between Get and Update).
func (s *Store) Update(session models.Session) bool {
	s.sessMu.Lock()
	defer s.sessMu.Unlock()
	existing, ok := s.sessions[session.ID]
	if !ok {
		return false
	}
	session.CreatedAt = existing.CreatedAt
	session.LastActiveAt = time.Now()
	*existing = session
	return true
}

// List returns a copy of every tracked session, most-recently-created last.
func (s *Store) List() []models.Session {
	s.sessMu.RLock()
	defer s.sessMu.RUnlock()
	out := make([]models.Session, 0, len(s.order))
	for _, id := range s.order {
		if sess, ok := s.sessions[id]; ok {
			out = append(out, *sess)
		}
	}
	return out
}

// Count returns the number of tracked sessions.
func (s *Store) Count() int {
	s.sessMu.RLock()
	defer s.sessMu.RUnlock()
	return len(s.sessions)
}
