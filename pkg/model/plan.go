package model

// PlanExercise is a single prescribed exercise within a plan day
type PlanExercise struct {
	Name     string `json:"name"`
	Sets     int    `json:"sets"`
	Reps     string `json:"reps"`
	RestSecs int    `json:"rest_seconds,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

// PlanDay is one training day of a workout plan
type PlanDay struct {
	Day       string         `json:"day"`
	Focus     string         `json:"focus"`
	Exercises []PlanExercise `json:"exercises"`
}

// WorkoutPlan is the structured output of the generation and
// adjustment agents.
type WorkoutPlan struct {
	ID           string    `json:"id,omitempty"`
	Title        string    `json:"title"`
	Goal         string    `json:"goal"`
	DurationWeek int       `json:"duration_weeks"`
	Days         []PlanDay `json:"days"`
	Notes        string    `json:"notes,omitempty"`
}
