package agent_test

import (
	"context"
	"slices"
	"time"

	"github.com/fitforge-ai/fitforge/pkg/model"
	"github.com/fitforge-ai/fitforge/pkg/repository"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/genai"
)

// Mock Repository
type mockRepository struct {
	records map[model.MemoryID]*model.MemoryRecord
	order   []model.MemoryID

	putErr   error
	queryErr error
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		records: make(map[model.MemoryID]*model.MemoryRecord),
	}
}

func (m *mockRepository) PutMemory(ctx context.Context, rec *model.MemoryRecord) error {
	if m.putErr != nil {
		return m.putErr
	}
	if rec.ID == "" {
		rec.ID = model.NewMemoryID()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	m.records[rec.ID] = rec
	m.order = append(m.order, rec.ID)
	return nil
}

func (m *mockRepository) GetMemory(ctx context.Context, id model.MemoryID) (*model.MemoryRecord, error) {
	rec, ok := m.records[id]
	if !ok {
		return nil, goerr.New("memory not found", goerr.V("memory_id", id))
	}
	return rec, nil
}

func (m *mockRepository) QueryMemories(ctx context.Context, userID string, q *repository.MemoryQuery) ([]*model.MemoryRecord, error) {
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	q.Normalize()

	var matched []*model.MemoryRecord
	for i := len(m.order) - 1; i >= 0; i-- {
		rec := m.records[m.order[i]]
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
		matched = append(matched, rec)
		if len(matched) >= q.Limit {
			break
		}
	}
	return matched, nil
}

func (m *mockRepository) Close() error {
	return nil
}

func hasAnyTag(have, want []string) bool {
	for _, tag := range want {
		if slices.Contains(have, tag) {
			return true
		}
	}
	return false
}

// Mock Gemini
type mockGemini struct {
	generateFunc  func(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	embeddingFunc func(ctx context.Context, text string, dimension int32) ([]float32, error)

	embedCalls int
}

func (m *mockGemini) GenerateContent(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	if m.generateFunc != nil {
		return m.generateFunc(ctx, contents, config)
	}
	return &genai.GenerateContentResponse{}, nil
}

func (m *mockGemini) Embedding(ctx context.Context, text string, dimension int32) ([]float32, error) {
	m.embedCalls++
	if m.embeddingFunc != nil {
		return m.embeddingFunc(ctx, text, dimension)
	}
	vec := make([]float32, dimension)
	for i := range vec {
		vec[i] = 0.1
	}
	return vec, nil
}
