package model

// Difficulty is the skill level of an exercise candidate
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

// ValidDifficulty reports whether s is a member of the difficulty enum
func ValidDifficulty(s string) bool {
	switch Difficulty(s) {
	case DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced:
		return true
	}
	return false
}

// ExerciseCandidate is one exercise proposed by the research pipeline.
// Invariant: Warning is non-empty whenever Reliable is false, and
// Citations is never nil once the candidate has passed cleaning.
type ExerciseCandidate struct {
	Name         string     `json:"name"`
	Description  string     `json:"description"`
	Difficulty   Difficulty `json:"difficulty"`
	Equipment    []string   `json:"equipment"`
	MuscleGroups []string   `json:"muscleGroups"`
	Citations    []string   `json:"citations"`
	Reliable     bool       `json:"isReliable"`
	Warning      string     `json:"warning,omitempty"`
}

// MarkUnreliable returns a copy flagged as unreliable with the given
// warning. An already-unreliable candidate keeps its original warning.
func (c ExerciseCandidate) MarkUnreliable(warning string) ExerciseCandidate {
	if !c.Reliable && c.Warning != "" {
		return c
	}
	c.Reliable = false
	c.Warning = warning
	return c
}
