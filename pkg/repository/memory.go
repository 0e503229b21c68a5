package repository

import (
	"context"
	"math"
	"slices"
	"sync"
	"time"

	"github.com/fitforge-ai/fitforge/pkg/model"
	"github.com/m-mizutani/goerr/v2"
)

// memoryRepo is an in-process Repository used by tests and as a
// throwaway backend when no persistence is configured.
type memoryRepo struct {
	mu      sync.RWMutex
	records map[model.MemoryID]*model.MemoryRecord
}

// NewMemory creates an in-process repository
func NewMemory() Repository {
	return &memoryRepo{
		records: make(map[model.MemoryID]*model.MemoryRecord),
	}
}

func (r *memoryRepo) PutMemory(ctx context.Context, rec *model.MemoryRecord) error {
	if rec.ID == "" {
		rec.ID = model.NewMemoryID()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *rec
	r.records[rec.ID] = &clone
	return nil
}

func (r *memoryRepo) GetMemory(ctx context.Context, id model.MemoryID) (*model.MemoryRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[id]
	if !ok {
		return nil, goerr.New("memory not found", goerr.V("memory_id", id))
	}
	clone := *rec
	return &clone, nil
}

func (r *memoryRepo) QueryMemories(ctx context.Context, userID string, q *MemoryQuery) ([]*model.MemoryRecord, error) {
	q.Normalize()

	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*model.MemoryRecord
	for _, rec := range r.records {
		if rec.UserID != userID {
			continue
		}
		if len(q.AgentTypes) > 0 && !slices.Contains(q.AgentTypes, rec.Metadata.AgentType) {
			continue
		}
		if q.MemoryType != "" && rec.Metadata.MemoryType != q.MemoryType {
			continue
		}
		if len(q.Tags) > 0 && !hasAnyTag(rec.Metadata.Tags, q.Tags) {
			continue
		}
		clone := *rec
		matched = append(matched, &clone)
	}

	switch q.SortBy {
	case model.SortByRelevance:
		if len(q.Embedding) > 0 {
			matched = rankByDistance(matched, q.Embedding, q.Threshold)
			break
		}
		fallthrough
	case model.SortByRecency:
		slices.SortFunc(matched, func(a, b *model.MemoryRecord) int {
			return b.CreatedAt.Compare(a.CreatedAt)
		})
	case model.SortByImportance:
		slices.SortFunc(matched, func(a, b *model.MemoryRecord) int {
			return b.Metadata.Importance - a.Metadata.Importance
		})
	default:
		slices.SortFunc(matched, func(a, b *model.MemoryRecord) int {
			return b.CreatedAt.Compare(a.CreatedAt)
		})
	}

	if len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}

	return matched, nil
}

func (r *memoryRepo) Close() error {
	return nil
}

func hasAnyTag(tags, wanted []string) bool {
	for _, w := range wanted {
		if slices.Contains(tags, w) {
			return true
		}
	}
	return false
}

// rankByDistance orders records by cosine distance to the query vector,
// dropping records beyond the threshold or without an embedding.
func rankByDistance(records []*model.MemoryRecord, query []float32, threshold float64) []*model.MemoryRecord {
	type scored struct {
		rec  *model.MemoryRecord
		dist float64
	}

	var ranked []scored
	for _, rec := range records {
		if len(rec.Embedding) == 0 {
			continue
		}
		dist := cosineDistance(query, rec.Embedding)
		if dist > threshold {
			continue
		}
		ranked = append(ranked, scored{rec: rec, dist: dist})
	}

	slices.SortFunc(ranked, func(a, b scored) int {
		switch {
		case a.dist < b.dist:
			return -1
		case a.dist > b.dist:
			return 1
		}
		return 0
	})

	result := make([]*model.MemoryRecord, 0, len(ranked))
	for _, s := range ranked {
		result = append(result, s.rec)
	}
	return result
}

func cosineDistance(a, b []float32) float64 {
	if len(a) != len(b) {
		return math.MaxFloat64
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return math.MaxFloat64
	}

	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}
