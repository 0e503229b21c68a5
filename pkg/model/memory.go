package model

import (
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
)

type MemoryID string

// NewMemoryID generates a new unique MemoryID
func NewMemoryID() MemoryID {
	return MemoryID(uuid.New().String())
}

// AgentType identifies which agent produced a memory
type AgentType string

const (
	AgentTypeResearch   AgentType = "research"
	AgentTypeGeneration AgentType = "generation"
	AgentTypeAdjustment AgentType = "adjustment"
)

// MemoryType is the kind of content a memory holds
type MemoryType string

const (
	MemoryTypeResearch MemoryType = "research"
	MemoryTypePlan     MemoryType = "plan"
	MemoryTypeFeedback MemoryType = "feedback"
)

// SortOrder selects how retrieved memories are ranked
type SortOrder string

const (
	SortByRecency    SortOrder = "recency"
	SortByRelevance  SortOrder = "relevance"
	SortByImportance SortOrder = "importance"
)

// MemoryMetadata is the caller-supplied metadata attached to a memory.
// Importance ranges 1 (disposable) to 5 (critical).
type MemoryMetadata struct {
	AgentType     AgentType      `json:"agent_type"`
	MemoryType    MemoryType     `json:"memory_type"`
	ContentType   string         `json:"content_type,omitempty"`
	Tags          []string       `json:"tags,omitempty"`
	Importance    int            `json:"importance"`
	RelatedPlanID string         `json:"related_plan_id,omitempty"`
	RelatedLogID  string         `json:"related_log_id,omitempty"`
	Extra         map[string]any `json:"extra,omitempty"`
}

// MemoryRecord is a stored agent output, owned by the backing store.
// Agents hold references returned by store/retrieve calls and never
// mutate a record after creation.
type MemoryRecord struct {
	ID        MemoryID       `json:"id"`
	UserID    string         `json:"user_id"`
	Content   string         `json:"content"`
	Metadata  MemoryMetadata `json:"metadata"`
	CreatedAt time.Time      `json:"created_at"`

	// Embedding supports relevance-sorted retrieval. Zero-length when the
	// store has no embedder configured.
	Embedding firestore.Vector32 `json:"-"`
}
