// Package convstore caches the last conversation built for each call.
//
// Retell resends the full transcript with every event, so the cache has no
// correctness dependency - it exists for debugging and for the event log.
// It is passed by explicit reference, never held as process-wide state.
package convstore

import (
	"sync"

	"github.com/lukasbauer/retell-relay/internal/llm"
)

type Store struct {
	mu     sync.RWMutex
	byCall map[string][]llm.Message
}

func New() *Store {
	return &Store{byCall: make(map[string][]llm.Message)}
}

// Put replaces the cached conversation for a call. The slice is copied so
// later mutation by the caller cannot leak into the cache.
func (s *Store) Put(callID string, messages []llm.Message) {
	if callID == "" {
		return
	}
	cp := make([]llm.Message, len(messages))
	copy(cp, messages)

	s.mu.Lock()
	s.byCall[callID] = cp
	s.mu.Unlock()
}

// Get returns the cached conversation for a call, or nil if none exists.
func (s *Store) Get(callID string) []llm.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	messages, ok := s.byCall[callID]
	if !ok {
		return nil
	}
	cp := make([]llm.Message, len(messages))
	copy(cp, messages)
	return cp
}

// Delete drops the cached conversation when a call's connection closes.
func (s *Store) Delete(callID string) {
	s.mu.Lock()
	delete(s.byCall, callID)
	s.mu.Unlock()
}

// Len reports how many calls currently have a cached conversation.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byCall)
}
