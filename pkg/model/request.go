package model

// ExerciseType is the broad category of training a request targets
type ExerciseType string

const (
	ExerciseTypeStrength    ExerciseType = "strength"
	ExerciseTypeCardio      ExerciseType = "cardio"
	ExerciseTypeFlexibility ExerciseType = "flexibility"
	ExerciseTypeGeneral     ExerciseType = "general"
)

// FitnessLevel describes the user's self-reported training experience
type FitnessLevel string

const (
	FitnessLevelBeginner     FitnessLevel = "beginner"
	FitnessLevelIntermediate FitnessLevel = "intermediate"
	FitnessLevelAdvanced     FitnessLevel = "advanced"
)

// Injury is a reported injury on a user profile. Type is the body part
// or condition keyword used for contraindication matching (e.g. "knee").
type Injury struct {
	Type     string `json:"type"`
	Severity string `json:"severity,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

// UserProfile carries the profile fields agents use for prompting and
// safety filtering. All fields are optional; absent fields are simply
// omitted from prompts.
type UserProfile struct {
	FitnessLevel FitnessLevel `json:"fitness_level,omitempty"`
	Age          int          `json:"age,omitempty"`
	Gender       string       `json:"gender,omitempty"`
	Goals        []string     `json:"goals,omitempty"`
	Injuries     []Injury     `json:"injuries,omitempty"`
}

// AgentRequest is the input to a single agent invocation. It is
// immutable for the duration of the call; agents never write back to it.
type AgentRequest struct {
	Query        string       `json:"query,omitempty"`
	UserID       string       `json:"user_id,omitempty"`
	Profile      *UserProfile `json:"profile,omitempty"`
	ExerciseType ExerciseType `json:"exercise_type,omitempty"`
	Goals        []string     `json:"goals,omitempty"`

	// UseCache short-circuits to the most recent stored memory when one
	// exists, skipping the external call entirely.
	UseCache bool `json:"use_cache,omitempty"`

	// Feedback is free-form user feedback, consumed by the adjustment agent.
	Feedback string `json:"feedback,omitempty"`
}

// Goal returns the primary goal of the request, falling back to the
// profile and then to "general fitness".
func (r *AgentRequest) Goal() string {
	if len(r.Goals) > 0 {
		return r.Goals[0]
	}
	if r.Profile != nil && len(r.Profile.Goals) > 0 {
		return r.Profile.Goals[0]
	}
	return "general fitness"
}
