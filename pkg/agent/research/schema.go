package research

import (
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
)

// exerciseSchema is the contract the upstream service is instructed to
// answer with. Only name and description are required; the cleaning
// stage fills safe defaults for the rest.
var exerciseSchema = &jsonschema.Schema{
	Type: "object",
	Properties: map[string]*jsonschema.Schema{
		"name": {
			Type:        "string",
			MinLength:   ptr(1),
			Description: "Exercise name",
		},
		"description": {
			Type:        "string",
			MinLength:   ptr(1),
			Description: "How the exercise is performed",
		},
		"difficulty": {
			Type: "string",
			Enum: []any{"beginner", "intermediate", "advanced"},
		},
		"equipment": {
			Type:  "array",
			Items: &jsonschema.Schema{Type: "string"},
		},
		"muscleGroups": {
			Type:  "array",
			Items: &jsonschema.Schema{Type: "string"},
		},
		"citations": {
			Type:  "array",
			Items: &jsonschema.Schema{Type: "string"},
		},
		"isReliable": {Type: "boolean"},
		"warning":    {Type: "string"},
	},
	Required: []string{"name", "description"},
}

func ptr[T any](v T) *T {
	return &v
}

var resolveExerciseSchema = sync.OnceValues(func() (*jsonschema.Resolved, error) {
	return exerciseSchema.Resolve(nil)
})
