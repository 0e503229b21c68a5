package research_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/fitforge-ai/fitforge/pkg/adapter"
	"github.com/fitforge-ai/fitforge/pkg/agent"
	"github.com/fitforge-ai/fitforge/pkg/agent/research"
	"github.com/fitforge-ai/fitforge/pkg/model"
	"github.com/fitforge-ai/fitforge/pkg/repository"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
)

// Mock Search
type mockSearch struct {
	resp  *adapter.SearchResponse
	err   error
	calls int
}

func (m *mockSearch) Search(ctx context.Context, prompt string) (*adapter.SearchResponse, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.resp, nil
}

// Mock Repository
type mockRepository struct {
	records []*model.MemoryRecord
	putErr  error
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
	m.records = append(m.records, rec)
	return nil
}

func (m *mockRepository) GetMemory(ctx context.Context, id model.MemoryID) (*model.MemoryRecord, error) {
	for _, rec := range m.records {
		if rec.ID == id {
			return rec, nil
		}
	}
	return nil, goerr.New("memory not found")
}

func (m *mockRepository) QueryMemories(ctx context.Context, userID string, q *repository.MemoryQuery) ([]*model.MemoryRecord, error) {
	q.Normalize()
	var matched []*model.MemoryRecord
	for i := len(m.records) - 1; i >= 0; i-- {
		rec := m.records[i]
		if rec.UserID != userID {
			continue
		}
		if len(q.Tags) > 0 && !slices.Contains(rec.Metadata.Tags, q.Tags[0]) {
			continue
		}
		matched = append(matched, rec)
		if len(matched) >= q.Limit {
			break
		}
	}
	return matched, nil
}

func (m *mockRepository) Close() error { return nil }

// Mock Storage
type mockStorage struct {
	objects map[string]*bytes.Buffer
	putErr  error
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

func (m *mockStorage) Put(ctx context.Context, key string) (io.WriteCloser, error) {
	if m.putErr != nil {
		return nil, m.putErr
	}
	if m.objects == nil {
		m.objects = make(map[string]*bytes.Buffer)
	}
	buf := &bytes.Buffer{}
	m.objects[key] = buf
	return nopWriteCloser{buf}, nil
}

func (m *mockStorage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	buf, ok := m.objects[key]
	if !ok {
		return nil, goerr.New("object not found")
	}
	return io.NopCloser(bytes.NewReader(buf.Bytes())), nil
}

func newTestAgent(t *testing.T, search adapter.Search, repo repository.Repository, opts ...research.Option) *research.Agent {
	t.Helper()
	memory, err := agent.NewMemory(repo, model.AgentTypeResearch)
	gt.NoError(t, err)

	opts = append(opts, research.WithRetryPolicy(agent.RetryPolicy{
		MaxAttempts:   3,
		InitialDelay:  time.Millisecond,
		BackoffFactor: 1.0,
	}))
	agt, err := research.New(search, memory, opts...)
	gt.NoError(t, err)
	return agt
}

func TestResearchRequiresSearch(t *testing.T) {
	memory, err := agent.NewMemory(&mockRepository{}, model.AgentTypeResearch)
	gt.NoError(t, err)

	_, err = research.New(nil, memory)
	gt.Error(t, err)
	gt.True(t, goerr.HasTag(err, model.ErrTagConfiguration))
}

func TestResearchHappyPath(t *testing.T) {
	search := &mockSearch{resp: &adapter.SearchResponse{Content: validExerciseJSON}}
	repo := &mockRepository{}
	agt := newTestAgent(t, search, repo)

	result := agt.SafeProcess(context.Background(), &model.AgentRequest{
		Query:        "leg exercises",
		UserID:       "user-1",
		ExerciseType: model.ExerciseTypeStrength,
	})

	gt.True(t, result.Success)
	gt.NotNil(t, result.Data)
	gt.Equal(t, len(result.Data.Exercises), 2)
	gt.Equal(t, result.Data.Stats.TotalExercises, 2)
	gt.Equal(t, result.Data.Stats.FilteredOut, 0)

	// The Goblet Squat cites nsca.com and stays reliable; the Push-Up
	// has no citations and gets flagged
	gt.True(t, result.Data.Exercises[0].Reliable)
	gt.False(t, result.Data.Exercises[1].Reliable)
	gt.Equal(t, result.Data.Stats.UnreliableCount, 1)

	// Run result persisted as a research memory
	gt.Equal(t, len(repo.records), 1)
	gt.Equal(t, repo.records[0].UserID, "user-1")
	gt.True(t, slices.Contains(repo.records[0].Metadata.Tags, "exercises"))
	gt.True(t, slices.Contains(repo.records[0].Metadata.Tags, "strength"))
}

func TestResearchSearchFailureClassified(t *testing.T) {
	search := &mockSearch{err: errors.New("network timeout")}
	agt := newTestAgent(t, search, &mockRepository{})

	result := agt.SafeProcess(context.Background(), &model.AgentRequest{Query: "squats"})

	gt.False(t, result.Success)
	gt.Nil(t, result.Data)
	gt.NotNil(t, result.Error)
	gt.Equal(t, result.Error.Code, model.ErrCodeExternalService)

	// All retry attempts consumed before giving up
	gt.Equal(t, search.calls, 3)
}

func TestResearchParseFailureClassified(t *testing.T) {
	search := &mockSearch{resp: &adapter.SearchResponse{Content: "no json here"}}
	agt := newTestAgent(t, search, &mockRepository{})

	result := agt.SafeProcess(context.Background(), &model.AgentRequest{Query: "squats"})

	gt.False(t, result.Success)
	gt.Equal(t, result.Error.Code, model.ErrCodeProcessing)
}

func TestResearchEmptyResultClassified(t *testing.T) {
	search := &mockSearch{resp: &adapter.SearchResponse{Content: "[]"}}
	agt := newTestAgent(t, search, &mockRepository{})

	result := agt.SafeProcess(context.Background(), &model.AgentRequest{Query: "squats"})

	gt.False(t, result.Success)
	gt.Equal(t, result.Error.Code, model.ErrCodeValidation)
}

func TestResearchMemoryFailureIsWarning(t *testing.T) {
	search := &mockSearch{resp: &adapter.SearchResponse{Content: validExerciseJSON}}
	repo := &mockRepository{putErr: goerr.New("firestore unavailable")}
	agt := newTestAgent(t, search, repo)

	result := agt.SafeProcess(context.Background(), &model.AgentRequest{
		Query:  "squats",
		UserID: "user-1",
	})

	gt.True(t, result.Success)
	gt.True(t, slices.Contains(result.Warnings, "failed to persist research memory"))
}

func TestResearchInjuryFilterApplied(t *testing.T) {
	content := `[{
	  "name": "Box Jump",
	  "description": "An explosive high-impact jump onto a box",
	  "citations": ["https://www.nsca.com/plyometrics"]
	}]`
	search := &mockSearch{resp: &adapter.SearchResponse{Content: content}}
	agt := newTestAgent(t, search, &mockRepository{})

	result := agt.SafeProcess(context.Background(), &model.AgentRequest{
		Query: "explosive leg work",
		Profile: &model.UserProfile{
			Injuries: []model.Injury{{Type: "knee"}},
		},
	})

	gt.True(t, result.Success)
	gt.Equal(t, len(result.Data.Exercises), 1)
	gt.False(t, result.Data.Exercises[0].Reliable)
	gt.True(t, strings.Contains(result.Data.Exercises[0].Warning, "knee"))
	gt.Equal(t, result.Data.Stats.UnreliableCount, 1)
}

func TestResearchSchemaViolationsCounted(t *testing.T) {
	content := `[
	  {"name": "Lunge", "description": "A single-leg pattern", "citations": ["https://www.acsm.org/lunge"]},
	  {"description": "nameless"}
	]`
	search := &mockSearch{resp: &adapter.SearchResponse{Content: content}}
	agt := newTestAgent(t, search, &mockRepository{})

	result := agt.SafeProcess(context.Background(), &model.AgentRequest{Query: "legs"})

	gt.True(t, result.Success)
	gt.Equal(t, len(result.Data.Exercises), 1)
	gt.Equal(t, result.Data.Stats.TotalExercises, 1)
	gt.Equal(t, result.Data.Stats.FilteredOut, 1)
	gt.Equal(t, len(result.Warnings), 1)
}

func TestResearchCacheShortCircuit(t *testing.T) {
	cached := []model.ExerciseCandidate{
		{Name: "Squat", Description: "cached", Reliable: true},
	}
	content, err := json.Marshal(cached)
	gt.NoError(t, err)

	repo := &mockRepository{}
	gt.NoError(t, repo.PutMemory(context.Background(), &model.MemoryRecord{
		UserID:  "user-1",
		Content: string(content),
		Metadata: model.MemoryMetadata{
			AgentType:  model.AgentTypeResearch,
			MemoryType: model.MemoryTypeResearch,
			Tags:       []string{"exercises"},
		},
	}))

	search := &mockSearch{resp: &adapter.SearchResponse{Content: validExerciseJSON}}
	agt := newTestAgent(t, search, repo)

	result := agt.SafeProcess(context.Background(), &model.AgentRequest{
		UserID:   "user-1",
		UseCache: true,
	})

	gt.True(t, result.Success)
	gt.Equal(t, len(result.Data.Exercises), 1)
	gt.Equal(t, result.Data.Exercises[0].Name, "Squat")
	gt.Equal(t, search.calls, 0)
}

func TestResearchCorruptCacheFallsBack(t *testing.T) {
	repo := &mockRepository{}
	gt.NoError(t, repo.PutMemory(context.Background(), &model.MemoryRecord{
		UserID:  "user-1",
		Content: "corrupt {",
		Metadata: model.MemoryMetadata{
			AgentType:  model.AgentTypeResearch,
			MemoryType: model.MemoryTypeResearch,
			Tags:       []string{"exercises"},
		},
	}))

	search := &mockSearch{resp: &adapter.SearchResponse{Content: validExerciseJSON}}
	agt := newTestAgent(t, search, repo)

	result := agt.SafeProcess(context.Background(), &model.AgentRequest{
		UserID:   "user-1",
		UseCache: true,
	})

	gt.True(t, result.Success)
	gt.Equal(t, search.calls, 1)
	gt.True(t, slices.Contains(result.Warnings,
		"cached research result was unreadable, ran a fresh search"))
}

func TestResearchArchivesRawResponse(t *testing.T) {
	search := &mockSearch{resp: &adapter.SearchResponse{
		Content: validExerciseJSON,
		Sources: []string{"https://www.nsca.com/squat-guide"},
	}}
	storage := &mockStorage{}
	agt := newTestAgent(t, search, &mockRepository{}, research.WithStorage(storage))

	result := agt.SafeProcess(context.Background(), &model.AgentRequest{
		Query:  "squats",
		UserID: "user-1",
	})

	gt.True(t, result.Success)
	gt.Equal(t, len(storage.objects), 1)
	for key := range storage.objects {
		gt.True(t, strings.HasPrefix(key, "research/user-1/"))

		// Read back through the same interface the archive command uses
		r, err := storage.Get(context.Background(), key)
		gt.NoError(t, err)
		raw, err := io.ReadAll(r)
		gt.NoError(t, err)
		gt.NoError(t, r.Close())

		var payload map[string]any
		gt.NoError(t, json.Unmarshal(raw, &payload))
		gt.Equal(t, payload["query"], any("squats"))
	}
}

func TestResearchArchiveFailureIsWarning(t *testing.T) {
	search := &mockSearch{resp: &adapter.SearchResponse{Content: validExerciseJSON}}
	storage := &mockStorage{putErr: goerr.New("bucket gone")}
	agt := newTestAgent(t, search, &mockRepository{}, research.WithStorage(storage))

	result := agt.SafeProcess(context.Background(), &model.AgentRequest{Query: "squats"})

	gt.True(t, result.Success)
	gt.Equal(t, len(result.Warnings), 2) // archive failure + push-up citation warning
}
