// Package agent provides the shared base every concrete agent is built
// on: error classification into a closed taxonomy, retry with
// exponential backoff, the best-effort memory gateway, and the
// SafeProcess envelope that guarantees callers a uniform result.
package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/fitforge-ai/fitforge/pkg/model"
	"github.com/fitforge-ai/fitforge/pkg/repository"
	"github.com/fitforge-ai/fitforge/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// Output is what a concrete agent's process step produces on success
type Output struct {
	Data     *model.AgentData
	Warnings []string
}

// ProcessFunc is the agent-specific processing step wrapped by
// SafeProcess
type ProcessFunc func(ctx context.Context, req *model.AgentRequest) (*Output, error)

// Agent is the surface consumed by the surrounding application
type Agent interface {
	Name() string
	SafeProcess(ctx context.Context, req *model.AgentRequest) *model.AgentResult
}

// Base composes the classifier, retry executor and memory gateway.
// Concrete agents embed it and route their process step through
// SafeProcess. Base holds only immutable configuration, so concurrent
// invocations never interfere.
type Base struct {
	name   string
	retry  RetryPolicy
	memory *Memory
}

// BaseOption configures a Base
type BaseOption func(*Base)

// WithRetryPolicy overrides the default retry policy
func WithRetryPolicy(p RetryPolicy) BaseOption {
	return func(b *Base) {
		b.retry = p
	}
}

// NewBase creates the shared agent core. Missing collaborators fail
// fast with a configuration error.
func NewBase(name string, memory *Memory, opts ...BaseOption) (*Base, error) {
	if name == "" {
		return nil, goerr.New("missing configuration: agent name is required",
			goerr.T(model.ErrTagConfiguration))
	}
	if memory == nil {
		return nil, goerr.New("missing configuration: memory gateway is required",
			goerr.T(model.ErrTagConfiguration))
	}

	b := &Base{
		name:   name,
		retry:  DefaultRetryPolicy(),
		memory: memory,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// Name returns the agent name used as the logging prefix
func (b *Base) Name() string {
	return b.name
}

// Memory returns the agent's memory gateway
func (b *Base) Memory() *Memory {
	return b.memory
}

// RetryPolicy returns the agent's configured retry policy
func (b *Base) RetryPolicy() RetryPolicy {
	return b.retry
}

// SafeProcess runs fn and converts any failure, including a panic,
// into a failed result envelope. It never returns an error and never
// panics; exactly one of Data and Error is populated on the result.
func (b *Base) SafeProcess(ctx context.Context, req *model.AgentRequest, fn ProcessFunc) (result *model.AgentResult) {
	logger := logging.From(ctx).With("agent", b.name)
	ctx = logging.With(ctx, logger)

	defer func() {
		if r := recover(); r != nil {
			err := goerr.New(fmt.Sprintf("panic during processing: %v", r),
				goerr.T(model.ErrTagProcessing))
			logger.Error("agent panicked", "panic", r)
			result = model.Fail(Classify(err))
		}
	}()

	start := time.Now()
	logger.Info("agent processing started")

	if req == nil {
		err := goerr.New("request is required", goerr.T(model.ErrTagValidation))
		logger.Error("agent processing failed", "error", err)
		return model.Fail(Classify(err))
	}

	out, err := fn(ctx, req)
	if err != nil {
		agentErr := Classify(err)
		logger.Error("agent processing failed",
			"code", agentErr.Code, "error", err, "duration", time.Since(start))
		return model.Fail(agentErr)
	}

	logger.Info("agent processing finished",
		"duration", time.Since(start), "warnings", len(out.Warnings))

	return model.Succeed(out.Data, out.Warnings)
}

// StoreMemory persists content through the gateway with this agent's
// type. Nil return means memory is degraded; processing continues.
func (b *Base) StoreMemory(ctx context.Context, userID, content string, meta model.MemoryMetadata) *model.MemoryRecord {
	return b.memory.Store(ctx, userID, content, meta)
}

// RetrieveMemories fetches memories scoped to this agent's type
func (b *Base) RetrieveMemories(ctx context.Context, userID string, q *repository.MemoryQuery) []*model.MemoryRecord {
	return b.memory.Retrieve(ctx, userID, q)
}

// LatestMemory returns the most recent memory matching tags, or nil
func (b *Base) LatestMemory(ctx context.Context, userID string, tags ...string) *model.MemoryRecord {
	return b.memory.Latest(ctx, userID, tags...)
}
