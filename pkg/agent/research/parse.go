package research

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fitforge-ai/fitforge/pkg/model"
	"github.com/m-mizutani/goerr/v2"
)

// Parse turns the raw search response content into exercise
// candidates. It tolerates markdown code fences and one level of
// double-encoding (a JSON string containing JSON). Elements violating
// the exercise schema are dropped; one violation message per dropped
// element is returned alongside the valid candidates.
//
// Empty content is an external service error, unparsable content a
// processing error, and zero valid candidates a validation error.
func Parse(content string) ([]model.ExerciseCandidate, []string, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return nil, nil, goerr.New("empty response content",
			goerr.T(model.ErrTagExternalService))
	}

	elements, err := decodeElements(trimmed)
	if err != nil {
		return nil, nil, err
	}

	resolved, err := resolveExerciseSchema()
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to resolve exercise schema",
			goerr.T(model.ErrTagProcessing))
	}

	var candidates []model.ExerciseCandidate
	var violations []string
	for i, element := range elements {
		if err := resolved.Validate(element); err != nil {
			violations = append(violations, fmt.Sprintf("exercise %d rejected: %v", i, err))
			continue
		}
		candidates = append(candidates, toCandidate(element))
	}

	if len(candidates) == 0 {
		return nil, nil, goerr.New("no valid exercises found",
			goerr.T(model.ErrTagValidation),
			goerr.V("violations", violations),
			goerr.V("total_elements", len(elements)))
	}

	return candidates, violations, nil
}

// decodeElements parses content as a JSON array of objects. A single
// object is wrapped in a one-element array; any other shape is a
// processing error.
func decodeElements(content string) ([]map[string]any, error) {
	raw := stripCodeFence(content)

	var value any
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		return nil, goerr.Wrap(err, "response content is not valid JSON",
			goerr.T(model.ErrTagProcessing))
	}

	// Double-encoded: the first parse yields a string holding JSON
	if inner, ok := value.(string); ok {
		if err := json.Unmarshal([]byte(inner), &value); err != nil {
			return nil, goerr.Wrap(err, "double-encoded response content is not valid JSON",
				goerr.T(model.ErrTagProcessing))
		}
	}

	switch v := value.(type) {
	case []any:
		elements := make([]map[string]any, 0, len(v))
		for i, item := range v {
			obj, ok := item.(map[string]any)
			if !ok {
				return nil, goerr.New("response array contains a non-object element",
					goerr.T(model.ErrTagProcessing), goerr.V("index", i))
			}
			elements = append(elements, obj)
		}
		return elements, nil
	case map[string]any:
		return []map[string]any{v}, nil
	default:
		return nil, goerr.New("response is neither a JSON array nor an object",
			goerr.T(model.ErrTagProcessing), goerr.V("type", fmt.Sprintf("%T", value)))
	}
}

// stripCodeFence removes a surrounding markdown code fence, which
// language models routinely wrap JSON answers in.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	s = strings.TrimPrefix(s, "```")
	if idx := strings.Index(s, "\n"); idx >= 0 {
		s = s[idx+1:] // drop the language hint line
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func toCandidate(element map[string]any) model.ExerciseCandidate {
	candidate := model.ExerciseCandidate{
		Name:         stringField(element, "name"),
		Description:  stringField(element, "description"),
		Difficulty:   model.Difficulty(stringField(element, "difficulty")),
		Equipment:    stringsField(element, "equipment"),
		MuscleGroups: stringsField(element, "muscleGroups"),
		Citations:    stringsField(element, "citations"),
		Reliable:     true,
	}

	// Preserve an already-present reliability verdict
	if reliable, ok := element["isReliable"].(bool); ok {
		candidate.Reliable = reliable
	}
	if warning, ok := element["warning"].(string); ok {
		candidate.Warning = warning
	}

	return candidate
}

func stringField(element map[string]any, key string) string {
	s, _ := element[key].(string)
	return s
}

func stringsField(element map[string]any, key string) []string {
	items, ok := element[key].([]any)
	if !ok {
		return nil
	}

	result := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok && s != "" {
			result = append(result, s)
		}
	}
	return result
}
