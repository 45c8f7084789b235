package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultCapacity bounds the in-process pattern collection. Oldest
// observations are evicted first.
const DefaultCapacity = 50

// Embedder generates an embedding vector for a text. It is required only
// when a persistent Store is attached.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// QueryMemory is the process-wide learned cache of search query patterns.
// It tolerates interleaved reads and appends from concurrent research runs;
// no ordering guarantee is made across runs.
type QueryMemory struct {
	mu       sync.Mutex
	entries  []Pattern
	capacity int

	store    Store
	embedder Embedder
	logger   *zap.Logger
	now      func() time.Time
}

// NewQueryMemory creates an empty memory with the default capacity.
// store and embedder are optional; when both are set, recorded patterns
// are written through and recall also consults the store.
func NewQueryMemory(store Store, embedder Embedder, logger *zap.Logger) *QueryMemory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueryMemory{
		capacity: DefaultCapacity,
		store:    store,
		embedder: embedder,
		logger:   logger,
		now:      time.Now,
	}
}

// Record appends one observation and evicts the oldest entries beyond
// capacity. Write-through to the persistent store is best-effort: failures
// are logged and ignored.
func (m *QueryMemory) Record(ctx context.Context, p Pattern) {
	if p.ObservedAt.IsZero() {
		p.ObservedAt = m.now()
	}

	m.mu.Lock()
	m.entries = append(m.entries, p)
	if len(m.entries) > m.capacity {
		sort.SliceStable(m.entries, func(i, j int) bool {
			return m.entries[i].ObservedAt.After(m.entries[j].ObservedAt)
		})
		m.entries = m.entries[:m.capacity]
	}
	m.mu.Unlock()

	if m.store == nil || m.embedder == nil {
		return
	}
	vector, err := m.embedder.Embed(ctx, p.Context)
	if err != nil {
		m.logger.Warn("failed to embed pattern context", zap.Error(err))
		return
	}
	if err := m.store.SavePattern(ctx, p, vector); err != nil {
		m.logger.Warn("failed to persist query pattern", zap.Error(err))
	}
}

// LearnedQueries returns up to max distinct previously-successful queries
// for the given category, newest observations first. When the in-process
// entries do not fill the budget and a store is attached, similar persisted
// patterns are consulted as well. contextText describes the project being
// planned and is only used for the similarity lookup.
func (m *QueryMemory) LearnedQueries(ctx context.Context, category, contextText string, max int) []string {
	if max <= 0 {
		return nil
	}

	seen := make(map[string]struct{})
	var queries []string
	add := func(q string) {
		if q == "" {
			return
		}
		if _, ok := seen[q]; ok {
			return
		}
		seen[q] = struct{}{}
		queries = append(queries, q)
	}

	m.mu.Lock()
	local := make([]Pattern, 0, len(m.entries))
	for _, e := range m.entries {
		if e.Category == category {
			local = append(local, e)
		}
	}
	m.mu.Unlock()

	sort.SliceStable(local, func(i, j int) bool {
		return local[i].ObservedAt.After(local[j].ObservedAt)
	})
	for _, e := range local {
		for _, q := range e.SuccessfulQueries {
			add(q)
		}
		if len(queries) >= max {
			return queries[:max]
		}
	}

	if m.store == nil || m.embedder == nil {
		return queries
	}

	vector, err := m.embedder.Embed(ctx, contextText)
	if err != nil {
		m.logger.Warn("failed to embed planning context", zap.Error(err))
		return queries
	}
	persisted, err := m.store.SearchSimilarPatterns(ctx, vector, 5)
	if err != nil {
		m.logger.Warn("failed to search persisted patterns", zap.Error(err))
		return queries
	}
	for _, e := range persisted {
		if e.Category != category {
			continue
		}
		for _, q := range e.SuccessfulQueries {
			add(q)
		}
		if len(queries) >= max {
			return queries[:max]
		}
	}
	return queries
}

// Len reports the number of in-process entries.
func (m *QueryMemory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
