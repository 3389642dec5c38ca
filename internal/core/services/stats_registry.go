package services

import (
	"sync"

	"dcprobe/internal/core/domain"
)

// StatsRegistry is the only structure mutated concurrently by engine callback
// goroutines and read by HTTP requests; every access takes the one lock.
// Entries are created lazily on first observation and kept in that order.
type StatsRegistry struct {
	mu    sync.Mutex
	stats []*domain.ChannelStats
}

func NewStatsRegistry() *StatsRegistry {
	return &StatsRegistry{}
}

// findOrCreateLocked is idempotent by name. Linear scan: channel cardinality
// is bounded by the scenario table plus whatever the browser opens.
func (r *StatsRegistry) findOrCreateLocked(name string) *domain.ChannelStats {
	for _, s := range r.stats {
		if s.Name == name {
			return s
		}
	}
	s := &domain.ChannelStats{Name: name}
	r.stats = append(r.stats, s)
	return s
}

// RecordOpened marks a channel as opened, creating its entry if needed.
// Opened never flips back to false while the session is live.
func (r *StatsRegistry) RecordOpened(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.findOrCreateLocked(name).Opened = true
}

// RecordReceived counts one inbound message and its payload bytes.
func (r *StatsRegistry) RecordReceived(name string, payloadBytes int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.findOrCreateLocked(name)
	s.MessagesReceived++
	s.BytesReceived += payloadBytes
}

// RecordSent counts one successfully transmitted message.
func (r *StatsRegistry) RecordSent(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.findOrCreateLocked(name).MessagesSent++
}

// Snapshot returns value copies in first-observed order. Never nil, so the
// JSON encoding is always an array.
func (r *StatsRegistry) Snapshot() []domain.ChannelStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.ChannelStats, 0, len(r.stats))
	for _, s := range r.stats {
		out = append(out, *s)
	}
	return out
}

// Clear drops all entries. Called only on session reset.
func (r *StatsRegistry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats = nil
}
