package research_test

import (
	"strings"
	"testing"

	"github.com/fitforge-ai/fitforge/pkg/agent/research"
	"github.com/fitforge-ai/fitforge/pkg/model"
	"github.com/m-mizutani/gt"
)

func TestSafetyFilterFlagsContraindicated(t *testing.T) {
	filter := research.NewSafetyFilter(nil)
	profile := &model.UserProfile{
		Injuries: []model.Injury{{Type: "knee"}},
	}
	candidates := []model.ExerciseCandidate{
		{
			Name:        "Box Jump",
			Description: "An explosive high-impact jump onto a plyo box",
			Reliable:    true,
		},
		{
			Name:        "Glute Bridge",
			Description: "A supine hip extension",
			Reliable:    true,
		},
	}

	filtered := filter.Apply(profile, candidates)
	gt.Equal(t, len(filtered), 2)

	boxJump := filtered[0]
	gt.False(t, boxJump.Reliable)
	gt.True(t, strings.Contains(boxJump.Warning, "knee"))
	gt.True(t, strings.Contains(boxJump.Warning, "high-impact"))

	gt.True(t, filtered[1].Reliable)
	gt.Equal(t, filtered[1].Warning, "")
}

func TestSafetyFilterNoInjuriesPassthrough(t *testing.T) {
	filter := research.NewSafetyFilter(nil)
	candidates := []model.ExerciseCandidate{
		{Name: "Box Jump", Description: "jump", Reliable: true},
	}

	gt.True(t, filter.Apply(nil, candidates)[0].Reliable)
	gt.True(t, filter.Apply(&model.UserProfile{}, candidates)[0].Reliable)
}

func TestSafetyFilterCaseInsensitive(t *testing.T) {
	filter := research.NewSafetyFilter(nil)
	profile := &model.UserProfile{
		Injuries: []model.Injury{{Type: "Shoulder"}},
	}
	candidates := []model.ExerciseCandidate{
		{Name: "OVERHEAD PRESS", Description: "A vertical press", Reliable: true},
	}

	filtered := filter.Apply(profile, candidates)
	gt.False(t, filtered[0].Reliable)
	gt.True(t, strings.Contains(filtered[0].Warning, "shoulder"))
}

func TestSafetyFilterUnknownInjuryIgnored(t *testing.T) {
	filter := research.NewSafetyFilter(nil)
	profile := &model.UserProfile{
		Injuries: []model.Injury{{Type: "elbow"}},
	}
	candidates := []model.ExerciseCandidate{
		{Name: "Box Jump", Description: "high-impact jump", Reliable: true},
	}

	gt.True(t, filter.Apply(profile, candidates)[0].Reliable)
}

func TestSafetyFilterDoesNotTouchInput(t *testing.T) {
	filter := research.NewSafetyFilter(nil)
	profile := &model.UserProfile{
		Injuries: []model.Injury{{Type: "back"}},
	}
	candidates := []model.ExerciseCandidate{
		{Name: "Deadlift", Description: "A hip hinge", Reliable: true},
	}

	filtered := filter.Apply(profile, candidates)
	gt.False(t, filtered[0].Reliable)
	gt.True(t, candidates[0].Reliable)
}

func TestLoadSafetyRulesMergesOverDefaults(t *testing.T) {
	yaml := `
contraindications:
  knee:
    - lunge
  elbow:
    - dips
`
	rules, err := research.LoadSafetyRules(strings.NewReader(yaml))
	gt.NoError(t, err)

	filter := research.NewSafetyFilter(rules)

	// Replaced knee terms: jumps are no longer flagged, lunges are
	kneeProfile := &model.UserProfile{Injuries: []model.Injury{{Type: "knee"}}}
	candidates := []model.ExerciseCandidate{
		{Name: "Box Jump", Description: "high-impact jump", Reliable: true},
		{Name: "Walking Lunge", Description: "alternating lunge steps", Reliable: true},
	}
	filtered := filter.Apply(kneeProfile, candidates)
	gt.True(t, filtered[0].Reliable)
	gt.False(t, filtered[1].Reliable)

	// New injury type from the file
	elbowProfile := &model.UserProfile{Injuries: []model.Injury{{Type: "elbow"}}}
	filtered = filter.Apply(elbowProfile, []model.ExerciseCandidate{
		{Name: "Bench Dips", Description: "dips off a bench", Reliable: true},
	})
	gt.False(t, filtered[0].Reliable)

	// Untouched defaults survive the merge
	backProfile := &model.UserProfile{Injuries: []model.Injury{{Type: "back"}}}
	filtered = filter.Apply(backProfile, []model.ExerciseCandidate{
		{Name: "Deadlift", Description: "A hip hinge", Reliable: true},
	})
	gt.False(t, filtered[0].Reliable)
}

func TestLoadSafetyRulesRejectsEmpty(t *testing.T) {
	_, err := research.LoadSafetyRules(strings.NewReader("contraindications: {}"))
	gt.Error(t, err)

	_, err = research.LoadSafetyRules(strings.NewReader("not: relevant"))
	gt.Error(t, err)
}
