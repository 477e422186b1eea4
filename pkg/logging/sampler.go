package logging

import (
	"log/slog"
	"sync"
)

// ErrorSampler reduces log noise by sampling repeated errors.
// It logs the first occurrence of a key, then every Nth occurrence.
type ErrorSampler struct {
	mu       sync.RWMutex
	counts   map[string]int
	interval int
	logger   *slog.Logger
}

// NewErrorSampler creates a sampler that logs every interval-th occurrence.
// A nil logger means slog.Default() at the time of logging.
func NewErrorSampler(interval int, logger *slog.Logger) *ErrorSampler {
	if interval < 1 {
		interval = 10
	}
	return &ErrorSampler{
		counts:   make(map[string]int),
		interval: interval,
		logger:   logger,
	}
}

// ShouldLog records one occurrence of key and reports whether it should be logged.
func (s *ErrorSampler) ShouldLog(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.counts[key]++
	count := s.counts[key]
	return count == 1 || count%s.interval == 0
}

// Error logs msg at error level when the sampler lets key through.
// The running occurrence count is attached as "occurrences".
func (s *ErrorSampler) Error(key, msg string, args ...any) {
	if !s.ShouldLog(key) {
		return
	}
	logger := s.logger
	if logger == nil {
		logger = slog.Default()
	}
	args = append(args, "occurrences", s.GetCount(key))
	logger.Error(msg, args...)
}

// GetCount returns the number of occurrences recorded for key.
func (s *ErrorSampler) GetCount(key string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.counts[key]
}

// Reset clears the count for key, typically after the condition recovered.
func (s *ErrorSampler) Reset(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.counts, key)
}

// ResetAll clears all counts.
func (s *ErrorSampler) ResetAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts = make(map[string]int)
}
