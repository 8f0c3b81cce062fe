package worker

import (
	"sync"
	"time"

	"github.com/tansive/tansive-inventory/internal/common/uuid"
	"github.com/tansive/tansive-inventory/internal/inventorysrv/ingest"
)

type State string

const (
	StateQueued     State = "QUEUED"
	StateProcessing State = "PROCESSING"
	StateCompleted  State = "COMPLETED"
	StateFailed     State = "FAILED"
)

// TokenStatus is the processing state of one upload.
type TokenStatus struct {
	Token       uuid.UUID      `json:"token"`
	ProjectUUID uuid.UUID      `json:"projectUuid"`
	State       State          `json:"state"`
	Error       string         `json:"error,omitempty"`
	Result      *ingest.Result `json:"result,omitempty"`
	Submitted   time.Time      `json:"submitted"`
	Finished    time.Time      `json:"finished,omitempty"`
}

// Processing reports whether the upload is still waiting or running.
func (s TokenStatus) Processing() bool {
	return s.State == StateQueued || s.State == StateProcessing
}

// tokenStore keeps upload states; finished entries expire after ttl.
type tokenStore struct {
	mu     sync.RWMutex
	ttl    time.Duration
	now    func() time.Time
	tokens map[uuid.UUID]*TokenStatus
}

func newTokenStore(ttl time.Duration, now func() time.Time) *tokenStore {
	return &tokenStore{ttl: ttl, now: now, tokens: make(map[uuid.UUID]*TokenStatus)}
}

func (s *tokenStore) add(token, project uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked()
	s.tokens[token] = &TokenStatus{
		Token:       token,
		ProjectUUID: project,
		State:       StateQueued,
		Submitted:   s.now().UTC(),
	}
}

func (s *tokenStore) remove(token uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, token)
}

func (s *tokenStore) update(token uuid.UUID, fn func(*TokenStatus)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.tokens[token]; ok {
		fn(st)
	}
}

func (s *tokenStore) get(token uuid.UUID) (TokenStatus, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.tokens[token]
	if !ok {
		return TokenStatus{}, false
	}
	return *st, true
}

func (s *tokenStore) pruneLocked() {
	if s.ttl <= 0 {
		return
	}
	cutoff := s.now().Add(-s.ttl)
	for token, st := range s.tokens {
		if !st.Processing() && st.Finished.Before(cutoff) {
			delete(s.tokens, token)
		}
	}
}
