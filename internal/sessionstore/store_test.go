package sessionstore

import (
	"testing"
	"time"

	"github.com/vswrite/agent-core/pkg/models"
)

func TestCreateAssignsIDAndTimestamps(t *testing.T) {
	s := New()
	sess := s.Create(models.Session{Workspace: "/tmp/ws", Provider: models.ProviderOpenAI})
	if sess.ID == "" {
		t.Fatal("expected an assigned ID")
	}
	if sess.CreatedAt.IsZero() || sess.LastActiveAt.IsZero() {
		t.Fatal("expected timestamps to be stamped")
	}
	if sess.Status != models.SessionActive {
		t.Fatalf("expected default status Active, got %v", sess.Status)
	}
}

func TestGetReturnsCopyNotAliasedToInternalState(t *testing.T) {
	s := New()
	sess := s.Create(models.Session{})
	got, ok := s.Get(sess.ID)
	if !ok {
		t.Fatal("expected session to be found")
	}
	got.Status = models.SessionFailed
	again, _ := s.Get(sess.ID)
	if again.Status == models.SessionFailed {
		t.Fatal("mutating the returned copy must not affect stored state")
	}
}

func TestUpdateUnknownSessionReturnsFalse(t *testing.T) {
	s := New()
	if s.Update(models.Session{ID: "missing"}) {
		t.Fatal("expected Update on unknown session to fail")
	}
}

func TestEvictsOldestNonActiveSessionOnOverflow(t *testing.T) {
	s := New()
	base := time.Now().Add(-time.Hour)
	var firstID string
	for i := 0; i < MaxSessions; i++ {
		sess := s.Create(models.Session{Status: models.SessionCompleted})
		sess.CreatedAt = base.Add(time.Duration(i) * time.Second)
		s.Update(sess)
		if i == 0 {
			firstID = sess.ID
		}
	}
	if s.Count() != MaxSessions {
		t.Fatalf("expected %d sessions, got %d", MaxSessions, s.Count())
	}

	s.Create(models.Session{Status: models.SessionCompleted})
	if s.Count() != MaxSessions {
		t.Fatalf("expected eviction to keep count at %d, got %d", MaxSessions, s.Count())
	}
	if _, ok := s.Get(firstID); ok {
		t.Fatal("expected the oldest session to be evicted")
	}
}

func TestActiveSessionsAreNeverEvicted(t *testing.T) {
	s := New()
	active := s.Create(models.Session{Status: models.SessionActive})
	for i := 0; i < MaxSessions; i++ {
		s.Create(models.Session{Status: models.SessionActive})
	}
	if _, ok := s.Get(active.ID); !ok {
		t.Fatal("active sessions must never be evicted, even over capacity")
	}
}

func TestRecordToolCallRedactsAndHashes(t *testing.T) {
	s := New()
	entry := s.RecordToolCall("sess-1", "run_shell", `{"command":"export API_KEY=abcdefghijklmnop1234"}`, "api_key: abcdefghijklmnop1234 leaked", false, 10*time.Millisecond)
	if entry.ArgumentHash == 0 {
		t.Fatal("expected a non-zero argument hash")
	}
	if entry.ResultSummary == "" {
		t.Fatal("expected a result summary")
	}
	for _, forbidden := range []string{"abcdefghijklmnop1234"} {
		if contains(entry.ResultSummary, forbidden) {
			t.Fatalf("expected secret to be redacted from result summary, got %q", entry.ResultSummary)
		}
	}
}

func TestAuditLogBoundedAtMaxEntries(t *testing.T) {
	s := New()
	for i := 0; i < MaxAuditEntries+10; i++ {
		s.RecordEvent("sess-1", "tool_call", "ok", true)
	}
	log := s.AuditLog()
	if len(log) != MaxAuditEntries {
		t.Fatalf("expected audit log capped at %d, got %d", MaxAuditEntries, len(log))
	}
}

func TestAuditLogForSessionFiltersAndCaps(t *testing.T) {
	s := New()
	for i := 0; i < 5; i++ {
		s.RecordEvent("sess-a", "run_start", "ok", true)
	}
	s.RecordEvent("sess-b", "run_start", "ok", true)

	got := s.AuditLogForSession("sess-a", 3)
	if len(got) != 3 {
		t.Fatalf("expected capped result of 3, got %d", len(got))
	}
	for _, e := range got {
		if e.SessionID != "sess-a" {
			t.Fatalf("unexpected session in filtered result: %+v", e)
		}
	}
}

func contains(s, substr string) bool {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
