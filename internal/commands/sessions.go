package commands

import "github.com/vswrite/agent-core/pkg/models"

// GetSession returns a copy of one tracked session.
func (s *Surface) GetSession(id string) (models.Session, bool) {
	return s.sessions.Get(id)
}

// ListSessions returns every tracked session, most-recently-created last.
func (s *Surface) ListSessions() []models.Session {
	return s.sessions.List()
}

// GetAuditLog returns the audit entries for sessionID, oldest first,
// capped at limit (clamped to MaxAuditQueryLimit; 0 or negative requests
// the cap).
func (s *Surface) GetAuditLog(sessionID string, limit int) []models.AuditEntry {
	if limit <= 0 || limit > MaxAuditQueryLimit {
		limit = MaxAuditQueryLimit
	}
	return s.sessions.AuditLogForSession(sessionID, limit)
}
