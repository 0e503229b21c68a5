package agent_test

import (
	"context"
	"testing"

	"github.com/fitforge-ai/fitforge/pkg/agent"
	"github.com/fitforge-ai/fitforge/pkg/model"
	"github.com/fitforge-ai/fitforge/pkg/repository"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
)

func TestMemoryRequiresRepository(t *testing.T) {
	_, err := agent.NewMemory(nil, model.AgentTypeResearch)
	gt.Error(t, err)
	gt.True(t, goerr.HasTag(err, model.ErrTagConfiguration))
}

func TestMemoryStoreAndRetrieve(t *testing.T) {
	ctx := context.Background()
	repo := newMockRepository()
	memory, err := agent.NewMemory(repo, model.AgentTypeResearch)
	gt.NoError(t, err)

	rec := memory.Store(ctx, "user-1", `[{"name":"Squat"}]`, model.MemoryMetadata{
		MemoryType: model.MemoryTypeResearch,
		Tags:       []string{"exercises", "strength"},
	})
	gt.NotNil(t, rec)
	gt.Equal(t, rec.Metadata.AgentType, model.AgentTypeResearch)
	gt.Equal(t, rec.Metadata.Importance, 3)

	records := memory.Retrieve(ctx, "user-1", &repository.MemoryQuery{
		Tags: []string{"exercises"},
	})
	gt.Equal(t, len(records), 1)
	gt.Equal(t, records[0].Content, `[{"name":"Squat"}]`)

	// Another user's memories are invisible
	gt.Equal(t, len(memory.Retrieve(ctx, "user-2", nil)), 0)
}

func TestMemoryStoreFailureReturnsNil(t *testing.T) {
	repo := newMockRepository()
	repo.putErr = goerr.New("firestore unavailable")
	memory, err := agent.NewMemory(repo, model.AgentTypeResearch)
	gt.NoError(t, err)

	rec := memory.Store(context.Background(), "user-1", "content", model.MemoryMetadata{})
	gt.Nil(t, rec)
}

func TestMemoryRetrieveFailureReturnsEmpty(t *testing.T) {
	repo := newMockRepository()
	repo.queryErr = goerr.New("firestore unavailable")
	memory, err := agent.NewMemory(repo, model.AgentTypeResearch)
	gt.NoError(t, err)

	records := memory.Retrieve(context.Background(), "user-1", nil)
	gt.Equal(t, len(records), 0)
}

func TestMemoryStoreSkipsBlankInput(t *testing.T) {
	repo := newMockRepository()
	memory, err := agent.NewMemory(repo, model.AgentTypeResearch)
	gt.NoError(t, err)

	gt.Nil(t, memory.Store(context.Background(), "", "content", model.MemoryMetadata{}))
	gt.Nil(t, memory.Store(context.Background(), "user-1", "", model.MemoryMetadata{}))
	gt.Equal(t, len(repo.records), 0)
}

func TestMemoryImportanceClamped(t *testing.T) {
	ctx := context.Background()
	repo := newMockRepository()
	memory, err := agent.NewMemory(repo, model.AgentTypeResearch)
	gt.NoError(t, err)

	low := memory.Store(ctx, "user-1", "a", model.MemoryMetadata{Importance: -2})
	gt.Equal(t, low.Metadata.Importance, 3)

	high := memory.Store(ctx, "user-1", "b", model.MemoryMetadata{Importance: 9})
	gt.Equal(t, high.Metadata.Importance, 5)
}

func TestMemoryEmbedsContentWhenConfigured(t *testing.T) {
	ctx := context.Background()
	repo := newMockRepository()
	gemini := &mockGemini{}
	memory, err := agent.NewMemory(repo, model.AgentTypeResearch, agent.WithEmbedder(gemini))
	gt.NoError(t, err)

	rec := memory.Store(ctx, "user-1", "squat research", model.MemoryMetadata{})
	gt.NotNil(t, rec)
	gt.Equal(t, len(rec.Embedding), 768)
	gt.Equal(t, gemini.embedCalls, 1)
}

func TestMemoryEmbeddingFailureStillStores(t *testing.T) {
	ctx := context.Background()
	repo := newMockRepository()
	gemini := &mockGemini{
		embeddingFunc: func(ctx context.Context, text string, dimension int32) ([]float32, error) {
			return nil, goerr.New("embedding quota exceeded")
		},
	}
	memory, err := agent.NewMemory(repo, model.AgentTypeResearch, agent.WithEmbedder(gemini))
	gt.NoError(t, err)

	rec := memory.Store(ctx, "user-1", "squat research", model.MemoryMetadata{})
	gt.NotNil(t, rec)
	gt.Equal(t, len(rec.Embedding), 0)
}

func TestMemoryRetrieveDefaultsToOwnAgentType(t *testing.T) {
	ctx := context.Background()
	repo := newMockRepository()

	research, err := agent.NewMemory(repo, model.AgentTypeResearch)
	gt.NoError(t, err)
	generation, err := agent.NewMemory(repo, model.AgentTypeGeneration)
	gt.NoError(t, err)

	gt.NotNil(t, research.Store(ctx, "user-1", "research note", model.MemoryMetadata{}))
	gt.NotNil(t, generation.Store(ctx, "user-1", "plan note", model.MemoryMetadata{}))

	records := research.Retrieve(ctx, "user-1", nil)
	gt.Equal(t, len(records), 1)
	gt.Equal(t, records[0].Content, "research note")
}

func TestMemoryLatest(t *testing.T) {
	ctx := context.Background()
	repo := newMockRepository()
	memory, err := agent.NewMemory(repo, model.AgentTypeResearch)
	gt.NoError(t, err)

	gt.NotNil(t, memory.Store(ctx, "user-1", "old", model.MemoryMetadata{Tags: []string{"exercises"}}))
	gt.NotNil(t, memory.Store(ctx, "user-1", "new", model.MemoryMetadata{Tags: []string{"exercises"}}))

	latest := memory.Latest(ctx, "user-1", "exercises")
	gt.NotNil(t, latest)
	gt.Equal(t, latest.Content, "new")

	gt.Nil(t, memory.Latest(ctx, "user-1", "no-such-tag"))
}
