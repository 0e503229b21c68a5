// Package generation implements the workout generation agent: it
// turns a user profile and prior research memories into a structured
// weekly workout plan.
package generation

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
	"github.com/fitforge-ai/fitforge/pkg/model"
	"github.com/fitforge-ai/fitforge/pkg/repository"
	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/genai"
)

const agentName = "generation"

//go:embed prompt/generate.md
var generatePromptRaw string

var generatePromptTmpl = template.Must(
	template.New("generate").
		Funcs(template.FuncMap{"join": strings.Join}).
		Parse(generatePromptRaw))

// Agent generates workout plans through the shared agent base
type Agent struct {
	*agent.Base

	gemini adapter.Gemini
}

// New creates the generation agent
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

// SafeProcess runs plan generation inside the uniform result envelope
func (a *Agent) SafeProcess(ctx context.Context, req *model.AgentRequest) *model.AgentResult {
	return a.Base.SafeProcess(ctx, req, a.process)
}

type generateData struct {
	FitnessLevel string
	Age          int
	Goals        []string
	Injuries     []string
	Goal         string
	Exercises    []model.ExerciseCandidate
}

func (a *Agent) process(ctx context.Context, req *model.AgentRequest) (*agent.Output, error) {
	stats := model.ProcessingStats{StartTime: time.Now()}
	var warnings []string

	// Seed the prompt with reliable exercises from prior research
	var vetted []model.ExerciseCandidate
	if req.UserID != "" {
		memories := a.Memory().Retrieve(ctx, req.UserID, &repository.MemoryQuery{
			AgentTypes: []model.AgentType{model.AgentTypeResearch},
			Tags:       []string{"exercises"},
			Limit:      3,
			SortBy:     model.SortByRecency,
		})
		vetted = reliableExercises(memories)
	}

	prompt, err := buildPrompt(req, vetted)
	if err != nil {
		return nil, err
	}

	plan, err := agent.Retry(ctx, a.RetryPolicy(), func(ctx context.Context) (*model.WorkoutPlan, error) {
		return a.generate(ctx, prompt)
	})
	if err != nil {
		return nil, err
	}

	plan.ID = uuid.New().String()
	if plan.Goal == "" {
		plan.Goal = req.Goal()
	}

	if req.UserID != "" {
		if warning := a.persist(ctx, req, plan); warning != "" {
			warnings = append(warnings, warning)
		}
	}

	stats.EndTime = time.Now()
	stats.DurationMS = stats.EndTime.Sub(stats.StartTime).Milliseconds()

	return &agent.Output{
		Data: &model.AgentData{
			Exercises:    vetted,
			Techniques:   []string{},
			Progressions: []string{},
			Plan:         plan,
			Stats:        stats,
		},
		Warnings: warnings,
	}, nil
}

func buildPrompt(req *model.AgentRequest, vetted []model.ExerciseCandidate) (string, error) {
	data := generateData{
		Goal:      req.Goal(),
		Exercises: vetted,
	}
	if profile := req.Profile; profile != nil {
		data.FitnessLevel = string(profile.FitnessLevel)
		data.Age = profile.Age
		data.Goals = profile.Goals
		for _, injury := range profile.Injuries {
			if injury.Type != "" {
				data.Injuries = append(data.Injuries, injury.Type)
			}
		}
	}

	var buf bytes.Buffer
	if err := generatePromptTmpl.Execute(&buf, data); err != nil {
		return "", goerr.Wrap(err, "failed to build generation prompt",
			goerr.T(model.ErrTagProcessing))
	}
	return buf.String(), nil
}

func (a *Agent) generate(ctx context.Context, prompt string) (*model.WorkoutPlan, error) {
	responseSchema, err := adapter.ConvertJSONSchema(PlanSchema())
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
		return nil, goerr.Wrap(err, "plan generation request failed",
			goerr.T(model.ErrTagExternalService))
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, goerr.New("empty response from generation backend",
			goerr.T(model.ErrTagExternalService))
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.Text != "" {
			text.WriteString(part.Text)
		}
	}

	return DecodePlan(text.String())
}

// DecodePlan parses a model response into a workout plan, validating
// that it actually prescribes training days.
func DecodePlan(content string) (*model.WorkoutPlan, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return nil, goerr.New("empty plan content", goerr.T(model.ErrTagExternalService))
	}

	var plan model.WorkoutPlan
	if err := json.Unmarshal([]byte(trimmed), &plan); err != nil {
		return nil, goerr.Wrap(err, "plan content is not valid JSON",
			goerr.T(model.ErrTagProcessing))
	}

	if len(plan.Days) == 0 {
		return nil, goerr.New("plan has no training days",
			goerr.T(model.ErrTagValidation))
	}
	for i, day := range plan.Days {
		if len(day.Exercises) == 0 {
			return nil, goerr.New("plan day has no exercises",
				goerr.T(model.ErrTagValidation), goerr.V("day_index", i))
		}
	}

	return &plan, nil
}

func reliableExercises(memories []*model.MemoryRecord) []model.ExerciseCandidate {
	var result []model.ExerciseCandidate
	for _, memory := range memories {
		var exercises []model.ExerciseCandidate
		if err := json.Unmarshal([]byte(memory.Content), &exercises); err != nil {
			continue
		}
		for _, e := range exercises {
			if e.Reliable {
				result = append(result, e)
			}
		}
	}
	return result
}

func (a *Agent) persist(ctx context.Context, req *model.AgentRequest, plan *model.WorkoutPlan) string {
	content, err := json.Marshal(plan)
	if err != nil {
		return "failed to encode plan memory"
	}

	rec := a.StoreMemory(ctx, req.UserID, string(content), model.MemoryMetadata{
		MemoryType:    model.MemoryTypePlan,
		ContentType:   "application/json",
		Tags:          []string{"plan", string(req.ExerciseType)},
		Importance:    4,
		RelatedPlanID: plan.ID,
		Extra: map[string]any{
			"goal":  plan.Goal,
			"title": plan.Title,
		},
	})
	if rec == nil {
		return "failed to persist plan memory"
	}
	return ""
}
