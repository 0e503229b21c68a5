package repository

import (
	"context"

	"github.com/fitforge-ai/fitforge/pkg/model"
)

const (
	// DefaultLimit is the number of memories returned when a query does
	// not specify one
	DefaultLimit = 5
	// DefaultThreshold is the cosine distance ceiling for relevance
	// queries
	DefaultThreshold = 0.7
)

// MemoryQuery selects which memories to retrieve for a user
type MemoryQuery struct {
	AgentTypes []model.AgentType
	MemoryType model.MemoryType
	Tags       []string

	// Query is the free-text query the caller is interested in.
	// Embedding is its vector form, set by the gateway when an embedder
	// is available; required for SortByRelevance.
	Query     string
	Embedding []float32

	Limit     int
	Threshold float64
	SortBy    model.SortOrder
}

// Normalize fills query defaults in place
func (q *MemoryQuery) Normalize() {
	if q.Limit <= 0 {
		q.Limit = DefaultLimit
	}
	if q.Threshold <= 0 {
		q.Threshold = DefaultThreshold
	}
	if q.SortBy == "" {
		q.SortBy = model.SortByRecency
	}
}

// Repository defines the interface for memory persistence. All
// implementations key memories by user so concurrent calls for
// different users cannot observe each other's data.
type Repository interface {
	// PutMemory saves a memory record, assigning ID and CreatedAt when unset
	PutMemory(ctx context.Context, rec *model.MemoryRecord) error

	// GetMemory retrieves a memory by ID
	GetMemory(ctx context.Context, id model.MemoryID) (*model.MemoryRecord, error)

	// QueryMemories retrieves memories for a user matching the query,
	// ranked per q.SortBy and capped at q.Limit
	QueryMemories(ctx context.Context, userID string, q *MemoryQuery) ([]*model.MemoryRecord, error)

	// Close releases backing store resources
	Close() error
}
