// Package research implements the research agent: it turns an
// unreliable, schema-violating search backend into validated exercise
// candidates that are safe to build a workout from.
package research

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fitforge-ai/fitforge/pkg/adapter"
	"github.com/fitforge-ai/fitforge/pkg/agent"
	"github.com/fitforge-ai/fitforge/pkg/model"
	"github.com/fitforge-ai/fitforge/pkg/repository"
	"github.com/fitforge-ai/fitforge/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

const (
	agentName      = "research"
	memoryTagExact = "exercises"
	memoryLimit    = 5
)

// Agent is the research pipeline. Per-call state lives on the call
// stack; the struct itself holds only immutable collaborators, so
// concurrent invocations are independent.
type Agent struct {
	*agent.Base

	search  adapter.Search
	storage adapter.Storage
	safety  *SafetyFilter
	scorer  *ReliabilityScorer

	retryOverride *agent.RetryPolicy
}

// Option configures the research agent
type Option func(*Agent)

// WithStorage enables archiving of raw search responses. Archive
// failures are warnings, never fatal.
func WithStorage(storage adapter.Storage) Option {
	return func(a *Agent) {
		a.storage = storage
	}
}

// WithSafetyFilter replaces the built-in contraindication filter
func WithSafetyFilter(filter *SafetyFilter) Option {
	return func(a *Agent) {
		a.safety = filter
	}
}

// WithReliabilityScorer replaces the built-in citation scorer
func WithReliabilityScorer(scorer *ReliabilityScorer) Option {
	return func(a *Agent) {
		a.scorer = scorer
	}
}

// WithRetryPolicy overrides the retry policy for the search call
func WithRetryPolicy(p agent.RetryPolicy) Option {
	return func(a *Agent) {
		a.retryOverride = &p
	}
}

// New creates the research agent. The search service and memory
// gateway are required; their absence is a configuration error.
func New(search adapter.Search, memory *agent.Memory, opts ...Option) (*Agent, error) {
	if search == nil {
		return nil, goerr.New("missing configuration: search service is required",
			goerr.T(model.ErrTagConfiguration))
	}

	a := &Agent{
		search: search,
		safety: NewSafetyFilter(nil),
		scorer: NewReliabilityScorer(),
	}
	for _, opt := range opts {
		opt(a)
	}

	var baseOpts []agent.BaseOption
	if a.retryOverride != nil {
		baseOpts = append(baseOpts, agent.WithRetryPolicy(*a.retryOverride))
	}

	base, err := agent.NewBase(agentName, memory, baseOpts...)
	if err != nil {
		return nil, err
	}
	a.Base = base

	return a, nil
}

// SafeProcess runs the pipeline and never returns an error or panics;
// failures come back inside the result envelope.
func (a *Agent) SafeProcess(ctx context.Context, req *model.AgentRequest) *model.AgentResult {
	return a.Base.SafeProcess(ctx, req, a.process)
}

func (a *Agent) process(ctx context.Context, req *model.AgentRequest) (*agent.Output, error) {
	logger := logging.From(ctx)
	stats := model.ProcessingStats{StartTime: time.Now()}
	var warnings []string

	// Prior research for this user; failures degrade to an empty slice
	var memories []*model.MemoryRecord
	if req.UserID != "" {
		memories = a.RetrieveMemories(ctx, req.UserID, &repository.MemoryQuery{
			Tags:   []string{memoryTagExact},
			Limit:  memoryLimit,
			SortBy: model.SortByRecency,
		})
	}

	if req.UseCache && len(memories) > 0 {
		if out, ok := fromCache(memories[0], stats.StartTime); ok {
			logger.Info("returning cached research result", "memory_id", memories[0].ID)
			return out, nil
		}
		warnings = append(warnings, "cached research result was unreadable, ran a fresh search")
	}

	prompt, err := BuildPrompt(req)
	if err != nil {
		return nil, err
	}

	resp, err := agent.Retry(ctx, a.RetryPolicy(), func(ctx context.Context) (*adapter.SearchResponse, error) {
		return a.search.Search(ctx, prompt)
	})
	if err != nil {
		return nil, goerr.Wrap(err, "search service request failed",
			goerr.T(model.ErrTagExternalService),
			goerr.V("exercise_type", req.ExerciseType))
	}

	if warning := a.archive(ctx, req, resp); warning != "" {
		warnings = append(warnings, warning)
	}

	candidates, violations, err := Parse(resp.Content)
	if err != nil {
		return nil, err
	}
	warnings = append(warnings, violations...)
	stats.TotalExercises = len(candidates)
	stats.FilteredOut = len(violations)

	candidates = Clean(candidates)
	candidates = a.safety.Apply(req.Profile, candidates)

	candidates, scoreWarnings := a.scorer.Score(candidates)
	warnings = append(warnings, scoreWarnings...)

	for _, c := range candidates {
		if !c.Reliable {
			stats.UnreliableCount++
		}
	}

	if req.UserID != "" {
		if warning := a.persist(ctx, req, candidates); warning != "" {
			warnings = append(warnings, warning)
		}
	}

	stats.EndTime = time.Now()
	stats.DurationMS = stats.EndTime.Sub(stats.StartTime).Milliseconds()

	return &agent.Output{
		Data: &model.AgentData{
			Exercises:    candidates,
			Techniques:   []string{},
			Progressions: []string{},
			Stats:        stats,
		},
		Warnings: warnings,
	}, nil
}

// fromCache rebuilds a result from the most recent stored memory
func fromCache(memory *model.MemoryRecord, start time.Time) (*agent.Output, bool) {
	var exercises []model.ExerciseCandidate
	if err := json.Unmarshal([]byte(memory.Content), &exercises); err != nil || len(exercises) == 0 {
		return nil, false
	}

	stats := model.ProcessingStats{
		StartTime:      start,
		EndTime:        time.Now(),
		TotalExercises: len(exercises),
	}
	stats.DurationMS = stats.EndTime.Sub(stats.StartTime).Milliseconds()
	for _, c := range exercises {
		if !c.Reliable {
			stats.UnreliableCount++
		}
	}

	return &agent.Output{
		Data: &model.AgentData{
			Exercises:    exercises,
			Techniques:   []string{},
			Progressions: []string{},
			Stats:        stats,
		},
	}, true
}

// archive saves the raw response for audit. Best effort: a missing
// storage collaborator is fine, a failing one yields a warning.
func (a *Agent) archive(ctx context.Context, req *model.AgentRequest, resp *adapter.SearchResponse) string {
	if a.storage == nil {
		return ""
	}

	key := fmt.Sprintf("research/%s/%d.json", req.UserID, time.Now().UnixNano())
	payload, err := json.Marshal(map[string]any{
		"query":   req.Query,
		"content": resp.Content,
		"sources": resp.Sources,
	})
	if err != nil {
		return fmt.Sprintf("failed to encode raw response archive: %v", err)
	}

	w, err := a.storage.Put(ctx, key)
	if err != nil {
		return fmt.Sprintf("failed to open raw response archive: %v", err)
	}
	if _, err := w.Write(payload); err != nil {
		_ = w.Close()
		return fmt.Sprintf("failed to write raw response archive: %v", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Sprintf("failed to finish raw response archive: %v", err)
	}

	return ""
}

// persist stores the final candidate list as a research memory
func (a *Agent) persist(ctx context.Context, req *model.AgentRequest, candidates []model.ExerciseCandidate) string {
	content, err := json.Marshal(candidates)
	if err != nil {
		return fmt.Sprintf("failed to encode research memory: %v", err)
	}

	var fitnessLevel model.FitnessLevel
	if req.Profile != nil {
		fitnessLevel = req.Profile.FitnessLevel
	}

	rec := a.StoreMemory(ctx, req.UserID, string(content), model.MemoryMetadata{
		MemoryType:  model.MemoryTypeResearch,
		ContentType: "application/json",
		Tags:        []string{memoryTagExact, string(req.ExerciseType)},
		Importance:  3,
		Extra: map[string]any{
			"goal":          req.Goal(),
			"fitness_level": string(fitnessLevel),
			"query":         req.Query,
		},
	})
	if rec == nil {
		return "failed to persist research memory"
	}

	return ""
}
