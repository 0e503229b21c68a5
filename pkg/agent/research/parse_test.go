package research_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/fitforge-ai/fitforge/pkg/agent/research"
	"github.com/fitforge-ai/fitforge/pkg/model"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
)

const validExerciseJSON = `[
  {
    "name": "Goblet Squat",
    "description": "A squat variation holding a weight at the chest",
    "difficulty": "beginner",
    "equipment": ["dumbbell"],
    "muscleGroups": ["quadriceps", "glutes"],
    "citations": ["https://www.nsca.com/squat-guide"]
  },
  {
    "name": "Push-Up",
    "description": "A bodyweight pressing movement",
    "difficulty": "beginner",
    "equipment": [],
    "muscleGroups": ["chest", "triceps"],
    "citations": []
  }
]`

func TestParseValidArray(t *testing.T) {
	candidates, violations, err := research.Parse(validExerciseJSON)
	gt.NoError(t, err)
	gt.Equal(t, len(violations), 0)
	gt.Equal(t, len(candidates), 2)

	gt.Equal(t, candidates[0].Name, "Goblet Squat")
	gt.Equal(t, candidates[0].Difficulty, model.DifficultyBeginner)
	gt.Equal(t, candidates[0].Citations, []string{"https://www.nsca.com/squat-guide"})
	gt.True(t, candidates[0].Reliable)
}

func TestParseCodeFence(t *testing.T) {
	fenced := "```json\n" + validExerciseJSON + "\n```"
	candidates, _, err := research.Parse(fenced)
	gt.NoError(t, err)
	gt.Equal(t, len(candidates), 2)
}

func TestParseDoubleEncoded(t *testing.T) {
	doubled, err := json.Marshal(validExerciseJSON)
	gt.NoError(t, err)

	candidates, _, perr := research.Parse(string(doubled))
	gt.NoError(t, perr)
	gt.Equal(t, len(candidates), 2)
}

func TestParseSingleObjectWrapped(t *testing.T) {
	content := `{"name": "Plank", "description": "An isometric core hold"}`
	candidates, violations, err := research.Parse(content)
	gt.NoError(t, err)
	gt.Equal(t, len(violations), 0)
	gt.Equal(t, len(candidates), 1)
	gt.Equal(t, candidates[0].Name, "Plank")
}

func TestParseEmptyContentIsExternal(t *testing.T) {
	_, _, err := research.Parse("   ")
	gt.Error(t, err)
	gt.True(t, goerr.HasTag(err, model.ErrTagExternalService))
}

func TestParseGarbageIsProcessing(t *testing.T) {
	_, _, err := research.Parse("this is not json at all")
	gt.Error(t, err)
	gt.True(t, goerr.HasTag(err, model.ErrTagProcessing))
}

func TestParseWrongShapeIsProcessing(t *testing.T) {
	_, _, err := research.Parse(`42`)
	gt.Error(t, err)
	gt.True(t, goerr.HasTag(err, model.ErrTagProcessing))

	_, _, err = research.Parse(`["just", "strings"]`)
	gt.Error(t, err)
	gt.True(t, goerr.HasTag(err, model.ErrTagProcessing))
}

func TestParseEmptyArrayIsValidation(t *testing.T) {
	_, _, err := research.Parse(`[]`)
	gt.Error(t, err)
	gt.True(t, goerr.HasTag(err, model.ErrTagValidation))
	gt.True(t, strings.Contains(err.Error(), "no valid exercises found"))
}

func TestParseDropsSchemaViolations(t *testing.T) {
	content := `[
	  {"name": "Lunge", "description": "A single-leg squat pattern"},
	  {"description": "missing its name"},
	  {"name": "", "description": "blank name"}
	]`

	candidates, violations, err := research.Parse(content)
	gt.NoError(t, err)
	gt.Equal(t, len(candidates), 1)
	gt.Equal(t, candidates[0].Name, "Lunge")
	gt.Equal(t, len(violations), 2)
}

func TestParseAllInvalidIsValidation(t *testing.T) {
	content := `[{"description": "no name here"}]`
	_, _, err := research.Parse(content)
	gt.Error(t, err)
	gt.True(t, goerr.HasTag(err, model.ErrTagValidation))
}

func TestParsePreservesReliabilityVerdict(t *testing.T) {
	content := `[{
	  "name": "Box Jump",
	  "description": "An explosive jump onto a box",
	  "isReliable": false,
	  "warning": "previously flagged"
	}]`

	candidates, _, err := research.Parse(content)
	gt.NoError(t, err)
	gt.False(t, candidates[0].Reliable)
	gt.Equal(t, candidates[0].Warning, "previously flagged")
}
