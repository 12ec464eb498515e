package sessionstore

import (
	"hash/fnv"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/vswrite/agent-core/internal/observability"
	"github.com/vswrite/agent-core/pkg/models"
)

const resultSummaryMaxChars = 200

var auditRedactors = compileRedactors(observability.DefaultRedactPatterns)

func compileRedactors(patterns []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		if re, err := regexp.Compile(p); err == nil {
			out = append(out, re)
		}
	}
	return out
}

// redactResultSummary applies the shared redaction pattern table (reused
// from internal/observability/logging.go's DefaultRedactPatterns, since
// both this and structured logging are "don't leak secrets into a log-like
// surface" concerns) and truncates to resultSummaryMaxChars.
func redactResultSummary(s string) string {
	for _, re := range auditRedactors {
		s = re.ReplaceAllString(s, "[REDACTED]")
	}
	if len(s) > resultSummaryMaxChars {
		return s[:resultSummaryMaxChars] + "..."
	}
	return s
}

// hashArguments computes a non-cryptographic 64-bit digest of argument JSON
// text. It is a privacy hint for audit correlation only — never a security
// boundary — so FNV-1a is sufficient and cheap.
func hashArguments(argsJSON string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(argsJSON))
	return h.Sum64()
}

// RecordToolCall appends a redacted audit entry for one dispatched tool
// call, evicting the oldest entry first if the log is at capacity.
func (s *Store) RecordToolCall(sessionID, toolName, argsJSON, resultContent string, success bool, duration time.Duration) models.AuditEntry {
	entry := models.AuditEntry{
		ID:            uuid.NewString(),
		SessionID:     sessionID,
		Timestamp:     time.Now(),
		EventType:     "tool_call",
		ToolName:      toolName,
		ArgumentHash:  hashArguments(argsJSON),
		ResultSummary: redactResultSummary(resultContent),
		Success:       success,
		Duration:      duration,
	}
	s.appendAudit(entry)
	return entry
}

// RecordEvent appends an audit entry for a non-tool-call event (run start,
// approval decision, run termination).
func (s *Store) RecordEvent(sessionID, eventType, summary string, success bool) models.AuditEntry {
	entry := models.AuditEntry{
		ID:            uuid.NewString(),
		SessionID:     sessionID,
		Timestamp:     time.Now(),
		EventType:     eventType,
		ResultSummary: redactResultSummary(summary),
		Success:       success,
	}
	s.appendAudit(entry)
	return entry
}

func (s *Store) appendAudit(entry models.AuditEntry) {
	s.auditMu.Lock()
	defer s.auditMu.Unlock()
	if len(s.audit) >= MaxAuditEntries {
		drop := len(s.audit) - MaxAuditEntries + 1
		s.audit = s.audit[drop:]
	}
	s.audit = append(s.audit, entry)
}

// AuditLog returns a copy of the full audit log, oldest first.
func (s *Store) AuditLog() []models.AuditEntry {
	s.auditMu.Lock()
	defer s.auditMu.Unlock()
	out := make([]models.AuditEntry, len(s.audit))
	copy(out, s.audit)
	return out
}

// AuditLogForSession returns a copy of the audit entries for one session,
// oldest first, capped at limit entries (0 means unlimited, used internally
// by the Command Surface's 500-entry query cap).
func (s *Store) AuditLogForSession(sessionID string, limit int) []models.AuditEntry {
	s.auditMu.Lock()
	defer s.auditMu.Unlock()
	var out []models.AuditEntry
	for _, e := range s.audit {
		if e.SessionID == sessionID {
			out = append(out, e)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}
