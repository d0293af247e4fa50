package auth

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// signupTTL bounds how long an unfinished signup flow is kept.
const signupTTL = 30 * time.Minute

// SignupFlow accumulates field values across the multi-step signup screens.
// It exists only for the duration of the flow and is discarded on completion
// or expiry; nothing here survives a portal restart.
type SignupFlow struct {
	ID        string
	Fields    map[string]string
	CreatedAt time.Time
}

// SignupStore holds in-progress signup flows keyed by flow ID.
type SignupStore struct {
	mu    sync.RWMutex
	flows map[string]*SignupFlow
}

// NewSignupStore creates an empty SignupStore.
func NewSignupStore() *SignupStore {
	return &SignupStore{flows: make(map[string]*SignupFlow)}
}

// Begin starts a new flow and returns its ID.
func (s *SignupStore) Begin() string {
	id := uuid.New().String()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flows[id] = &SignupFlow{
		ID:        id,
		Fields:    make(map[string]string),
		CreatedAt: time.Now(),
	}
	return id
}

// SetFields merges step values into the flow. Returns false if the flow is
// unknown or expired.
func (s *SignupStore) SetFields(id string, fields map[string]string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	flow, ok := s.flows[id]
	if !ok || time.Now().After(flow.CreatedAt.Add(signupTTL)) {
		delete(s.flows, id)
		return false
	}
	for k, v := range fields {
		flow.Fields[k] = v
	}
	return true
}

// Fields returns a copy of the accumulated fields for a flow.
func (s *SignupStore) Fields(id string) (map[string]string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	flow, ok := s.flows[id]
	if !ok || time.Now().After(flow.CreatedAt.Add(signupTTL)) {
		return nil, false
	}
	out := make(map[string]string, len(flow.Fields))
	for k, v := range flow.Fields {
		out[k] = v
	}
	return out, true
}

// Complete removes the flow, returning its final field set.
func (s *SignupStore) Complete(id string) (map[string]string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	flow, ok := s.flows[id]
	if !ok || time.Now().After(flow.CreatedAt.Add(signupTTL)) {
		delete(s.flows, id)
		return nil, false
	}
	delete(s.flows, id)
	return flow.Fields, true
}

// Cleanup removes expired flows.
func (s *SignupStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, flow := range s.flows {
		if now.After(flow.CreatedAt.Add(signupTTL)) {
			delete(s.flows, id)
		}
	}
}
