package research

import (
	"strings"

	"github.com/fitforge-ai/fitforge/pkg/model"
)

// Clean fills missing candidate fields with safe defaults. It is a
// pure mapping: every input candidate appears in the output, and an
// already-present reliability verdict is left untouched. A candidate
// that arrives unreliable without an explanation gets a generic
// warning, keeping the verdict-implies-warning invariant.
func Clean(candidates []model.ExerciseCandidate) []model.ExerciseCandidate {
	cleaned := make([]model.ExerciseCandidate, 0, len(candidates))
	for _, c := range candidates {
		c.Name = strings.TrimSpace(c.Name)
		c.Description = strings.TrimSpace(c.Description)

		if !model.ValidDifficulty(string(c.Difficulty)) {
			c.Difficulty = model.DifficultyIntermediate
		}
		if len(c.Equipment) == 0 {
			c.Equipment = []string{"bodyweight"}
		}
		if c.MuscleGroups == nil {
			c.MuscleGroups = []string{}
		}
		if c.Citations == nil {
			c.Citations = []string{}
		}
		if !c.Reliable && c.Warning == "" {
			c.Warning = "Flagged as unreliable by source"
		}

		cleaned = append(cleaned, c)
	}
	return cleaned
}
