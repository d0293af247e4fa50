package auth

import (
	"testing"
	"time"
)

func TestSignupFlowAccumulatesFields(t *testing.T) {
	s := NewSignupStore()
	id := s.Begin()

	if !s.SetFields(id, map[string]string{"email": "a@b.c"}) {
		t.Fatal("SetFields failed for live flow")
	}
	if !s.SetFields(id, map[string]string{"nickname": "sam", "email": "new@b.c"}) {
		t.Fatal("second SetFields failed")
	}

	fields, ok := s.Fields(id)
	if !ok {
		t.Fatal("Fields failed for live flow")
	}
	if fields["email"] != "new@b.c" {
		t.Errorf("later step should overwrite: %s", fields["email"])
	}
	if fields["nickname"] != "sam" {
		t.Errorf("nickname lost: %s", fields["nickname"])
	}
}

func TestSignupCompleteDiscardsFlow(t *testing.T) {
	s := NewSignupStore()
	id := s.Begin()
	s.SetFields(id, map[string]string{"email": "a@b.c"})

	fields, ok := s.Complete(id)
	if !ok || fields["email"] != "a@b.c" {
		t.Fatalf("Complete = (%v, %v)", fields, ok)
	}

	if _, ok := s.Fields(id); ok {
		t.Error("flow should be gone after Complete")
	}
	if _, ok := s.Complete(id); ok {
		t.Error("second Complete should fail")
	}
}

func TestSignupUnknownFlow(t *testing.T) {
	s := NewSignupStore()
	if s.SetFields("nope", map[string]string{"a": "b"}) {
		t.Error("unknown flow should be rejected")
	}
	if _, ok := s.Fields("nope"); ok {
		t.Error("unknown flow should have no fields")
	}
}

func TestSignupExpiredFlow(t *testing.T) {
	s := NewSignupStore()
	id := s.Begin()

	// Backdate the flow past its TTL.
	s.mu.Lock()
	s.flows[id].CreatedAt = time.Now().Add(-signupTTL - time.Minute)
	s.mu.Unlock()

	if s.SetFields(id, map[string]string{"a": "b"}) {
		t.Error("expired flow should reject fields")
	}
	if _, ok := s.Complete(id); ok {
		t.Error("expired flow should not complete")
	}
}

func TestSignupCleanup(t *testing.T) {
	s := NewSignupStore()
	live := s.Begin()
	stale := s.Begin()

	s.mu.Lock()
	s.flows[stale].CreatedAt = time.Now().Add(-signupTTL - time.Minute)
	s.mu.Unlock()

	s.Cleanup()

	if _, ok := s.Fields(live); !ok {
		t.Error("live flow removed by Cleanup")
	}
	s.mu.RLock()
	_, staleExists := s.flows[stale]
	s.mu.RUnlock()
	if staleExists {
		t.Error("stale flow survived Cleanup")
	}
}
