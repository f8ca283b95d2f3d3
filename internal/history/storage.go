// Package history stores summaries of completed evaluation runs.
package history

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/spanscore/spanscore/internal/config"
	"github.com/spanscore/spanscore/internal/evaluation"
	"github.com/spanscore/spanscore/internal/pkg/errors"
)

// RunRecord captures the outcome of one evaluation run.
type RunRecord struct {
	ID                 string             `json:"id"`
	StartedAt          time.Time          `json:"started_at"`
	IgnoreLabel        bool               `json:"ignore_label"`
	PartialMatchWeight float64            `json:"partial_match_weight"`
	Summary            evaluation.Summary `json:"summary"`
}

// Storage persists run records.
type Storage interface {
	// SaveRun stores a completed run record.
	SaveRun(ctx context.Context, rec RunRecord) error

	// ListRuns returns records started at or after since, oldest first.
	ListRuns(ctx context.Context, since time.Time) ([]RunRecord, error)

	// Close releases storage resources.
	Close() error
}

// New creates a Storage backend based on the configuration.
func New(cfg config.HistoryConfig) (Storage, error) {
	switch strings.ToLower(cfg.Type) {
	case "memory", "":
		return NewMemoryStorage(), nil
	case "redis":
		return NewRedisStorage(cfg.RedisURL)
	default:
		return nil, errors.New(errors.CodeValidation, fmt.Sprintf("unknown history type: %s", cfg.Type))
	}
}

// MemoryStorage keeps run records in memory. Suitable for single-process use
// and tests.
type MemoryStorage struct {
	mu   sync.RWMutex
	runs []RunRecord
}

// NewMemoryStorage creates an in-memory run store.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

// SaveRun stores a completed run record.
func (m *MemoryStorage) SaveRun(ctx context.Context, rec RunRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.runs = append(m.runs, rec)
	return nil
}

// ListRuns returns records started at or after since, oldest first.
func (m *MemoryStorage) ListRuns(ctx context.Context, since time.Time) ([]RunRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]RunRecord, 0, len(m.runs))
	for _, rec := range m.runs {
		if !rec.StartedAt.Before(since) {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartedAt.Before(out[j].StartedAt)
	})

	return out, nil
}

// Close is a no-op for the memory store.
func (m *MemoryStorage) Close() error {
	return nil
}
