// Package testutils provides deterministic in-memory implementations of
// the pipeline's store ports for tests that exercise orchestration
// without a database.
package testutils

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/showscore/marquee/internal/domain"
	"github.com/showscore/marquee/internal/ports"
)

// MemStore is an in-memory implementation of ShardStore, SourceStore,
// AggregateStore, and RunStore. Documents round-trip through JSON just
// like the SQLite store, so serialization bugs surface in unit tests.
// Safe for concurrent use.
type MemStore struct {
	mu        sync.Mutex
	shards    map[string][]byte
	snapshots map[string]map[domain.SourceType][]byte
	aggregate []byte
	lockOwner string
	runs      []domain.RunReport

	// FailPutShard, when set, makes every PutShard call fail with the
	// given error. Used to exercise per-production failure isolation.
	FailPutShard error
}

var (
	_ ports.ShardStore     = (*MemStore)(nil)
	_ ports.SourceStore    = (*MemStore)(nil)
	_ ports.AggregateStore = (*MemStore)(nil)
	_ ports.RunStore       = (*MemStore)(nil)
)

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		shards:    make(map[string][]byte),
		snapshots: make(map[string]map[domain.SourceType][]byte),
	}
}

// GetShard loads a shard, or domain.ErrShardNotFound.
func (m *MemStore) GetShard(_ context.Context, productionID string) (*domain.ReviewShard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, ok := m.shards[productionID]
	if !ok {
		return nil, domain.ErrShardNotFound
	}
	var shard domain.ReviewShard
	if err := json.Unmarshal(doc, &shard); err != nil {
		return nil, err
	}
	return &shard, nil
}

// PutShard replaces a shard document, sorting reviews first like the
// real store does.
func (m *MemStore) PutShard(_ context.Context, shard *domain.ReviewShard) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailPutShard != nil {
		return m.FailPutShard
	}

	shard.SortReviews()
	doc, err := json.Marshal(shard)
	if err != nil {
		return err
	}
	m.shards[shard.Production.ID] = doc
	return nil
}

// ListProductionIDs returns every stored production id, sorted.
func (m *MemStore) ListProductionIDs(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]string, 0, len(m.shards))
	for id := range m.shards {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// PutSnapshot replaces the snapshot for its (source, production) pair.
func (m *MemStore) PutSnapshot(_ context.Context, src *domain.ReviewSource) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, err := json.Marshal(src)
	if err != nil {
		return err
	}
	byType, ok := m.snapshots[src.ProductionID]
	if !ok {
		byType = make(map[domain.SourceType][]byte)
		m.snapshots[src.ProductionID] = byType
	}
	byType[src.SourceType] = doc
	return nil
}

// ListSnapshots returns a production's snapshots ordered by source type.
func (m *MemStore) ListSnapshots(_ context.Context, productionID string) ([]domain.ReviewSource, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	byType := m.snapshots[productionID]
	types := make([]domain.SourceType, 0, len(byType))
	for sourceType := range byType {
		types = append(types, sourceType)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	snapshots := make([]domain.ReviewSource, 0, len(types))
	for _, sourceType := range types {
		var snapshot domain.ReviewSource
		if err := json.Unmarshal(byType[sourceType], &snapshot); err != nil {
			return nil, err
		}
		snapshots = append(snapshots, snapshot)
	}
	return snapshots, nil
}

// ReplaceAggregate swaps the aggregate document.
func (m *MemStore) ReplaceAggregate(_ context.Context, doc []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.aggregate = append([]byte(nil), doc...)
	return nil
}

// GetAggregate returns the current aggregate document, or nil.
func (m *MemStore) GetAggregate(_ context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.aggregate == nil {
		return nil, nil
	}
	return append([]byte(nil), m.aggregate...), nil
}

// AcquireRebuildLock takes the advisory lock, failing with
// domain.ErrRebuildConflict when held.
func (m *MemStore) AcquireRebuildLock(_ context.Context, owner string) (func() error, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.lockOwner != "" {
		return nil, domain.ErrRebuildConflict
	}
	m.lockOwner = owner

	release := func() error {
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.lockOwner == owner {
			m.lockOwner = ""
		}
		return nil
	}
	return release, nil
}

// SaveRun appends a run report.
func (m *MemStore) SaveRun(_ context.Context, report *domain.RunReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, *report)
	return nil
}

// ListRuns returns saved reports, newest first.
func (m *MemStore) ListRuns(_ context.Context, limit int) ([]domain.RunReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	reports := make([]domain.RunReport, len(m.runs))
	copy(reports, m.runs)
	sort.Slice(reports, func(i, j int) bool { return reports[i].StartedAt.After(reports[j].StartedAt) })
	if limit > 0 && len(reports) > limit {
		reports = reports[:limit]
	}
	return reports, nil
}

// Runs returns every saved run report in insertion order.
func (m *MemStore) Runs() []domain.RunReport {
	m.mu.Lock()
	defer m.mu.Unlock()
	reports := make([]domain.RunReport, len(m.runs))
	copy(reports, m.runs)
	return reports
}
