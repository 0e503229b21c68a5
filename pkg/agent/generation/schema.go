package generation

import "github.com/google/jsonschema-go/jsonschema"

// PlanSchema is the JSON Schema the model must answer with when
// generating or adjusting a workout plan.
func PlanSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"title": {Type: "string", Description: "Short plan title"},
			"goal":  {Type: "string", Description: "Primary goal the plan targets"},
			"duration_weeks": {
				Type:        "integer",
				Description: "How many weeks the plan should be followed",
			},
			"days": {
				Type: "array",
				Items: &jsonschema.Schema{
					Type: "object",
					Properties: map[string]*jsonschema.Schema{
						"day":   {Type: "string", Description: "Weekday or day label"},
						"focus": {Type: "string", Description: "Training focus of the day"},
						"exercises": {
							Type: "array",
							Items: &jsonschema.Schema{
								Type: "object",
								Properties: map[string]*jsonschema.Schema{
									"name":         {Type: "string"},
									"sets":         {Type: "integer"},
									"reps":         {Type: "string"},
									"rest_seconds": {Type: "integer"},
									"notes":        {Type: "string"},
								},
								Required: []string{"name", "sets", "reps"},
							},
						},
					},
					Required: []string{"day", "focus", "exercises"},
				},
			},
			"notes": {Type: "string"},
		},
		Required: []string{"title", "goal", "days"},
	}
}
