package agent

import (
	"context"

	"github.com/fitforge-ai/fitforge/pkg/adapter"
	"github.com/fitforge-ai/fitforge/pkg/model"
	"github.com/fitforge-ai/fitforge/pkg/repository"
	"github.com/fitforge-ai/fitforge/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

const embeddingDimension = 768

// Memory is the best-effort memory gateway every agent persists
// context through. Store returns nil and Retrieve returns an empty
// slice when the backing store fails; neither ever returns an error,
// so callers cannot mistake a degraded memory for a fatal condition.
type Memory struct {
	repo      repository.Repository
	gemini    adapter.Gemini
	agentType model.AgentType
}

// MemoryOption configures the gateway
type MemoryOption func(*Memory)

// WithEmbedder enables relevance-sorted retrieval by embedding stored
// content and queries through the Gemini adapter.
func WithEmbedder(gemini adapter.Gemini) MemoryOption {
	return func(m *Memory) {
		m.gemini = gemini
	}
}

// NewMemory creates a gateway scoped to one agent type. The repository
// is required; a missing one is a construction-time failure.
func NewMemory(repo repository.Repository, agentType model.AgentType, opts ...MemoryOption) (*Memory, error) {
	if repo == nil {
		return nil, goerr.New("missing configuration: repository is required",
			goerr.T(model.ErrTagConfiguration))
	}

	m := &Memory{
		repo:      repo,
		agentType: agentType,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Store persists content for a user. Returns the stored record, or nil
// when the store is unavailable; callers treat nil as "memory
// degraded, continue".
func (m *Memory) Store(ctx context.Context, userID, content string, meta model.MemoryMetadata) *model.MemoryRecord {
	logger := logging.From(ctx)

	if userID == "" || content == "" {
		return nil
	}

	if meta.AgentType == "" {
		meta.AgentType = m.agentType
	}
	if meta.Importance < 1 {
		meta.Importance = 3
	}
	if meta.Importance > 5 {
		meta.Importance = 5
	}

	rec := &model.MemoryRecord{
		ID:       model.NewMemoryID(),
		UserID:   userID,
		Content:  content,
		Metadata: meta,
	}

	if m.gemini != nil {
		embedding, err := m.gemini.Embedding(ctx, content, embeddingDimension)
		if err != nil {
			logger.Warn("failed to embed memory content, storing without embedding",
				"agent_type", m.agentType, "error", err)
		} else {
			rec.Embedding = embedding
		}
	}

	if err := m.repo.PutMemory(ctx, rec); err != nil {
		logger.Warn("failed to store memory",
			"agent_type", m.agentType, "user_id", userID, "error", err)
		return nil
	}

	return rec
}

// Retrieve fetches memories for a user. Failures are logged and an
// empty slice returned; they never propagate.
func (m *Memory) Retrieve(ctx context.Context, userID string, q *repository.MemoryQuery) []*model.MemoryRecord {
	logger := logging.From(ctx)

	if userID == "" {
		return nil
	}
	if q == nil {
		q = &repository.MemoryQuery{}
	}
	if len(q.AgentTypes) == 0 {
		q.AgentTypes = []model.AgentType{m.agentType}
	}

	if q.SortBy == model.SortByRelevance && q.Query != "" && len(q.Embedding) == 0 {
		if m.gemini == nil {
			// No embedder configured, repository falls back to recency
			logger.Warn("relevance sort requested without embedder", "agent_type", m.agentType)
		} else {
			embedding, err := m.gemini.Embedding(ctx, q.Query, embeddingDimension)
			if err != nil {
				logger.Warn("failed to embed memory query, falling back to recency",
					"agent_type", m.agentType, "error", err)
			} else {
				q.Embedding = embedding
			}
		}
	}

	records, err := m.repo.QueryMemories(ctx, userID, q)
	if err != nil {
		logger.Warn("failed to retrieve memories",
			"agent_type", m.agentType, "user_id", userID, "error", err)
		return nil
	}

	return records
}

// Latest returns the most recent memory matching the tags, or nil
func (m *Memory) Latest(ctx context.Context, userID string, tags ...string) *model.MemoryRecord {
	records := m.Retrieve(ctx, userID, &repository.MemoryQuery{
		Tags:   tags,
		Limit:  1,
		SortBy: model.SortByRecency,
	})
	if len(records) == 0 {
		return nil
	}
	return records[0]
}
