package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/fitforge-ai/fitforge/pkg/model"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"
)

const memoryCollection = "memories"

// firestoreRepo implements Repository using Firestore
type firestoreRepo struct {
	client *firestore.Client
}

// NewFirestore creates a Firestore-backed repository
func NewFirestore(ctx context.Context, projectID, databaseName string) (Repository, error) {
	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseName)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("project", projectID), goerr.V("database", databaseName))
	}

	return &firestoreRepo{client: client}, nil
}

// memoryDoc is the Firestore document shape for a memory record.
// Metadata is flattened so queries can filter on its fields directly.
type memoryDoc struct {
	ID            string             `firestore:"id"`
	UserID        string             `firestore:"user_id"`
	AgentType     string             `firestore:"agent_type"`
	MemoryType    string             `firestore:"memory_type"`
	ContentType   string             `firestore:"content_type,omitempty"`
	Content       string             `firestore:"content"`
	Tags          []string           `firestore:"tags,omitempty"`
	Importance    int                `firestore:"importance"`
	RelatedPlanID string             `firestore:"related_plan_id,omitempty"`
	RelatedLogID  string             `firestore:"related_log_id,omitempty"`
	Extra         map[string]any     `firestore:"extra,omitempty"`
	CreatedAt     time.Time          `firestore:"created_at"`
	Embedding     firestore.Vector32 `firestore:"embedding,omitempty"`
}

func toDoc(rec *model.MemoryRecord) *memoryDoc {
	return &memoryDoc{
		ID:            string(rec.ID),
		UserID:        rec.UserID,
		AgentType:     string(rec.Metadata.AgentType),
		MemoryType:    string(rec.Metadata.MemoryType),
		ContentType:   rec.Metadata.ContentType,
		Content:       rec.Content,
		Tags:          rec.Metadata.Tags,
		Importance:    rec.Metadata.Importance,
		RelatedPlanID: rec.Metadata.RelatedPlanID,
		RelatedLogID:  rec.Metadata.RelatedLogID,
		Extra:         rec.Metadata.Extra,
		CreatedAt:     rec.CreatedAt,
		Embedding:     rec.Embedding,
	}
}

func (d *memoryDoc) toRecord() *model.MemoryRecord {
	return &model.MemoryRecord{
		ID:      model.MemoryID(d.ID),
		UserID:  d.UserID,
		Content: d.Content,
		Metadata: model.MemoryMetadata{
			AgentType:     model.AgentType(d.AgentType),
			MemoryType:    model.MemoryType(d.MemoryType),
			ContentType:   d.ContentType,
			Tags:          d.Tags,
			Importance:    d.Importance,
			RelatedPlanID: d.RelatedPlanID,
			RelatedLogID:  d.RelatedLogID,
			Extra:         d.Extra,
		},
		CreatedAt: d.CreatedAt,
		Embedding: d.Embedding,
	}
}

func (r *firestoreRepo) PutMemory(ctx context.Context, rec *model.MemoryRecord) error {
	if rec.ID == "" {
		rec.ID = model.NewMemoryID()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	doc := r.client.Collection(memoryCollection).Doc(string(rec.ID))
	if _, err := doc.Set(ctx, toDoc(rec)); err != nil {
		return goerr.Wrap(err, "failed to put memory", goerr.V("memory_id", rec.ID))
	}

	return nil
}

func (r *firestoreRepo) GetMemory(ctx context.Context, id model.MemoryID) (*model.MemoryRecord, error) {
	snap, err := r.client.Collection(memoryCollection).Doc(string(id)).Get(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get memory", goerr.V("memory_id", id))
	}

	var doc memoryDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, goerr.Wrap(err, "failed to decode memory", goerr.V("memory_id", id))
	}

	return doc.toRecord(), nil
}

func (r *firestoreRepo) QueryMemories(ctx context.Context, userID string, q *MemoryQuery) ([]*model.MemoryRecord, error) {
	q.Normalize()

	query := r.client.Collection(memoryCollection).Query.
		Where("user_id", "==", userID)

	if len(q.AgentTypes) > 0 {
		types := make([]string, 0, len(q.AgentTypes))
		for _, t := range q.AgentTypes {
			types = append(types, string(t))
		}
		query = query.Where("agent_type", "in", types)
	}
	if q.MemoryType != "" {
		query = query.Where("memory_type", "==", string(q.MemoryType))
	}
	if len(q.Tags) > 0 {
		query = query.Where("tags", "array-contains-any", q.Tags)
	}

	switch q.SortBy {
	case model.SortByRelevance:
		if len(q.Embedding) == 0 {
			// No query vector available, recency is the closest ranking
			query = query.OrderBy("created_at", firestore.Desc)
		} else {
			vq := query.FindNearest("embedding", firestore.Vector32(q.Embedding), q.Limit,
				firestore.DistanceMeasureCosine, &firestore.FindNearestOptions{
					DistanceThreshold: &q.Threshold,
				})
			return collectMemories(vq.Documents(ctx))
		}
	case model.SortByImportance:
		query = query.OrderBy("importance", firestore.Desc)
	default:
		query = query.OrderBy("created_at", firestore.Desc)
	}

	return collectMemories(query.Limit(q.Limit).Documents(ctx))
}

func collectMemories(iter *firestore.DocumentIterator) ([]*model.MemoryRecord, error) {
	defer iter.Stop()

	var records []*model.MemoryRecord
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate memories")
		}

		var doc memoryDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, goerr.Wrap(err, "failed to decode memory", goerr.V("doc_id", snap.Ref.ID))
		}
		records = append(records, doc.toRecord())
	}

	return records, nil
}

func (r *firestoreRepo) Close() error {
	return r.client.Close()
}
