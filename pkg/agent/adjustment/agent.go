// Package adjustment implements the plan adjustment agent: it revises
// the user's most recent workout plan based on their feedback.
package adjustment

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"strings"
	"text/template"
	"time"

	"github.com/fitforge-ai/fitforge/pkg/adapter"
	"github.com/fitforge-ai/fitforge/pkg/agent"
	"github.com/fitforge-ai/fitforge/pkg/agent/generation"
	"github.com/fitforge-ai/fitforge/pkg/model"
	"github.com/fitforge-ai/fitforge/pkg/repository"
	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/genai"
)

const agentName = "adjustment"

//go:embed prompt/adjust.md
var adjustPromptRaw string

var adjustPromptTmpl = template.Must(
	template.New("adjust").
		Funcs(template.FuncMap{"join": strings.Join}).
		Parse(adjustPromptRaw))

// Agent revises stored workout plans through the shared agent base
type Agent struct {
	*agent.Base

	gemini adapter.Gemini
}

// New creates the adjustment agent
func New(gemini adapter.Gemini, memory *agent.Memory) (*Agent, error) {
	if gemini == nil {
		return nil, goerr.New("missing configuration: gemini adapter is required",
			goerr.T(model.ErrTagConfiguration))
	}

	base, err := agent.NewBase(agentName, memory)
	if err != nil {
		return nil, err
	}

	return &Agent{
		Base:   base,
		gemini: gemini,
	}, nil
}

// SafeProcess runs plan adjustment inside the uniform result envelope
func (a *Agent) SafeProcess(ctx context.Context, req *model.AgentRequest) *model.AgentResult {
	return a.Base.SafeProcess(ctx, req, a.process)
}

type adjustData struct {
	PlanJSON string
	Feedback string
	Injuries []string
}

func (a *Agent) process(ctx context.Context, req *model.AgentRequest) (*agent.Output, error) {
	stats := model.ProcessingStats{StartTime: time.Now()}
	var warnings []string

	if req.UserID == "" {
		return nil, goerr.New("user ID is required to adjust a plan",
			goerr.T(model.ErrTagValidation))
	}
	if strings.TrimSpace(req.Feedback) == "" {
		return nil, goerr.New("feedback is required to adjust a plan",
			goerr.T(model.ErrTagValidation))
	}

	// Plan memories are written by the generation agent
	memories := a.Memory().Retrieve(ctx, req.UserID, &repository.MemoryQuery{
		AgentTypes: []model.AgentType{model.AgentTypeGeneration, model.AgentTypeAdjustment},
		Tags:       []string{"plan"},
		Limit:      1,
		SortBy:     model.SortByRecency,
	})
	if len(memories) == 0 {
		return nil, goerr.New("no workout plan found to adjust",
			goerr.T(model.ErrTagValidation), goerr.V("user_id", req.UserID))
	}

	current, err := generation.DecodePlan(memories[0].Content)
	if err != nil {
		return nil, goerr.Wrap(err, "stored plan is unreadable",
			goerr.T(model.ErrTagProcessing), goerr.V("memory_id", memories[0].ID))
	}

	prompt, err := buildPrompt(req, current)
	if err != nil {
		return nil, err
	}

	revised, err := agent.Retry(ctx, a.RetryPolicy(), func(ctx context.Context) (*model.WorkoutPlan, error) {
		return a.revise(ctx, prompt)
	})
	if err != nil {
		return nil, err
	}

	revised.ID = uuid.New().String()
	if revised.Goal == "" {
		revised.Goal = current.Goal
	}

	if warning := a.persist(ctx, req, revised, current.ID); warning != "" {
		warnings = append(warnings, warning)
	}

	stats.EndTime = time.Now()
	stats.DurationMS = stats.EndTime.Sub(stats.StartTime).Milliseconds()

	return &agent.Output{
		Data: &model.AgentData{
			Exercises:    []model.ExerciseCandidate{},
			Techniques:   []string{},
			Progressions: []string{},
			Plan:         revised,
			Stats:        stats,
		},
		Warnings: warnings,
	}, nil
}

func buildPrompt(req *model.AgentRequest, current *model.WorkoutPlan) (string, error) {
	planJSON, err := json.MarshalIndent(current, "", "  ")
	if err != nil {
		return "", goerr.Wrap(err, "failed to encode current plan",
			goerr.T(model.ErrTagProcessing))
	}

	data := adjustData{
		PlanJSON: string(planJSON),
		Feedback: req.Feedback,
	}
	if req.Profile != nil {
		for _, injury := range req.Profile.Injuries {
			if injury.Type != "" {
				data.Injuries = append(data.Injuries, injury.Type)
			}
		}
	}

	var buf bytes.Buffer
	if err := adjustPromptTmpl.Execute(&buf, data); err != nil {
		return "", goerr.Wrap(err, "failed to build adjustment prompt",
			goerr.T(model.ErrTagProcessing))
	}
	return buf.String(), nil
}

func (a *Agent) revise(ctx context.Context, prompt string) (*model.WorkoutPlan, error) {
	responseSchema, err := adapter.ConvertJSONSchema(generation.PlanSchema())
	if err != nil {
		return nil, goerr.Wrap(err, "failed to convert plan schema",
			goerr.T(model.ErrTagProcessing))
	}

	thinkingBudget := int32(0)
	config := &genai.GenerateContentConfig{
		ThinkingConfig: &genai.ThinkingConfig{
			IncludeThoughts: false,
			ThinkingBudget:  &thinkingBudget,
		},
		ResponseMIMEType: "application/json",
		ResponseSchema:   responseSchema,
	}

	contents := []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}

	resp, err := a.gemini.GenerateContent(ctx, contents, config)
	if err != nil {
		return nil, goerr.Wrap(err, "plan adjustment request failed",
			goerr.T(model.ErrTagExternalService))
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, goerr.New("empty response from adjustment backend",
			goerr.T(model.ErrTagExternalService))
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.Text != "" {
			text.WriteString(part.Text)
		}
	}

	return generation.DecodePlan(text.String())
}

func (a *Agent) persist(ctx context.Context, req *model.AgentRequest, plan *model.WorkoutPlan, previousPlanID string) string {
	content, err := json.Marshal(plan)
	if err != nil {
		return "failed to encode adjusted plan memory"
	}

	rec := a.StoreMemory(ctx, req.UserID, string(content), model.MemoryMetadata{
		MemoryType:    model.MemoryTypePlan,
		ContentType:   "application/json",
		Tags:          []string{"plan", "adjusted"},
		Importance:    4,
		RelatedPlanID: previousPlanID,
		Extra: map[string]any{
			"feedback": req.Feedback,
			"title":    plan.Title,
		},
	})
	if rec == nil {
		return "failed to persist adjusted plan memory"
	}
	return ""
}
