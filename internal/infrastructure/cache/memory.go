// Package cache provides a small in-memory store with expiration for
// impact-analysis results, so repeated analysis of the same edit does not
// re-bill the LLM capability.
package cache

import (
	"sync"
	"time"

	"github.com/scriptreel/editor/internal/domain/entities"
)

// AnalysisStore is an in-memory impact-analysis cache with expiration
type AnalysisStore struct {
	mu       sync.RWMutex
	items    map[string]*analysisItem
	ttl      time.Duration
	stop     chan struct{}
	stopOnce sync.Once
}

type analysisItem struct {
	value      *entities.ImpactAnalysis
	expireTime time.Time
}

// NewAnalysisStore creates a new analysis cache. Entries expire after ttl.
func NewAnalysisStore(ttl time.Duration) *AnalysisStore {
	store := &AnalysisStore{
		items: make(map[string]*analysisItem),
		ttl:   ttl,
		stop:  make(chan struct{}),
	}

	// Cleanup goroutine removes expired entries
	go store.cleanupExpired()

	return store
}

// Set stores an analysis result under the given key
func (s *AnalysisStore) Set(key string, value *entities.ImpactAnalysis) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items[key] = &analysisItem{
		value:      value,
		expireTime: time.Now().Add(s.ttl),
	}
}

// Get retrieves an analysis result by key (nil, false when missing or expired)
func (s *AnalysisStore) Get(key string) (*entities.ImpactAnalysis, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, exists := s.items[key]
	if !exists {
		return nil, false
	}
	if time.Now().After(item.expireTime) {
		return nil, false
	}
	return item.value, true
}

// Delete removes a key
func (s *AnalysisStore) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.items, key)
}

// Stop terminates the cleanup goroutine
func (s *AnalysisStore) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
	})
}

// cleanupExpired periodically removes expired entries
func (s *AnalysisStore) cleanupExpired() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.mu.Lock()
			now := time.Now()
			for key, item := range s.items {
				if now.After(item.expireTime) {
					delete(s.items, key)
				}
			}
			s.mu.Unlock()
		}
	}
}
