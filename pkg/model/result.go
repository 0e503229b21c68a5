package model

import "time"

// ProcessingStats summarizes a completed pipeline run. It is derived
// data, read-only once the result is built.
type ProcessingStats struct {
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	DurationMS      int64     `json:"duration_ms"`
	TotalExercises  int       `json:"total_exercises"`
	FilteredOut     int       `json:"filtered_out"`
	UnreliableCount int       `json:"unreliable_count"`
}

// AgentData is the successful payload of an agent invocation
type AgentData struct {
	Exercises    []ExerciseCandidate `json:"exercises"`
	Techniques   []string            `json:"techniques"`
	Progressions []string            `json:"progressions"`
	Plan         *WorkoutPlan        `json:"plan,omitempty"`
	Stats        ProcessingStats     `json:"stats"`
}

// AgentResult is the envelope returned by every agent call. Exactly one
// of Data and Error is set, selected by Success.
type AgentResult struct {
	Success  bool        `json:"success"`
	Data     *AgentData  `json:"data,omitempty"`
	Error    *AgentError `json:"error,omitempty"`
	Warnings []string    `json:"warnings,omitempty"`
	Errors   []string    `json:"errors,omitempty"`
}

// Succeed builds a successful result envelope
func Succeed(data *AgentData, warnings []string) *AgentResult {
	return &AgentResult{
		Success:  true,
		Data:     data,
		Warnings: warnings,
	}
}

// Fail builds a failed result envelope
func Fail(err *AgentError) *AgentResult {
	return &AgentResult{
		Success: false,
		Error:   err,
	}
}
