package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/fitforge-ai/fitforge/pkg/model"
	"github.com/m-mizutani/goerr/v2"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS memories (
	id              TEXT PRIMARY KEY,
	user_id         TEXT NOT NULL,
	agent_type      TEXT NOT NULL,
	memory_type     TEXT NOT NULL,
	content_type    TEXT NOT NULL DEFAULT '',
	content         TEXT NOT NULL,
	tags            TEXT NOT NULL DEFAULT '[]',
	importance      INTEGER NOT NULL DEFAULT 1,
	related_plan_id TEXT NOT NULL DEFAULT '',
	related_log_id  TEXT NOT NULL DEFAULT '',
	extra           TEXT NOT NULL DEFAULT '{}',
	embedding       TEXT NOT NULL DEFAULT '[]',
	created_at      TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_memories_user ON memories(user_id, agent_type, created_at);
`

// sqliteRepo implements Repository on a local SQLite file so the CLI
// can run without any cloud project configured.
type sqliteRepo struct {
	db *sql.DB
}

// NewSQLite opens (and migrates) a SQLite-backed repository at path
func NewSQLite(path string) (Repository, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open sqlite database", goerr.V("path", path))
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, goerr.Wrap(err, "failed to migrate sqlite schema")
	}

	return &sqliteRepo{db: db}, nil
}

func (r *sqliteRepo) PutMemory(ctx context.Context, rec *model.MemoryRecord) error {
	if rec.ID == "" {
		rec.ID = model.NewMemoryID()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	tags, err := json.Marshal(orEmpty(rec.Metadata.Tags))
	if err != nil {
		return goerr.Wrap(err, "failed to encode tags")
	}
	extra, err := json.Marshal(rec.Metadata.Extra)
	if err != nil {
		return goerr.Wrap(err, "failed to encode extra metadata")
	}
	embedding, err := json.Marshal(rec.Embedding)
	if err != nil {
		return goerr.Wrap(err, "failed to encode embedding")
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO memories
		(id, user_id, agent_type, memory_type, content_type, content, tags,
		 importance, related_plan_id, related_log_id, extra, embedding, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(rec.ID), rec.UserID, string(rec.Metadata.AgentType),
		string(rec.Metadata.MemoryType), rec.Metadata.ContentType, rec.Content,
		string(tags), rec.Metadata.Importance, rec.Metadata.RelatedPlanID,
		rec.Metadata.RelatedLogID, string(extra), string(embedding), rec.CreatedAt)
	if err != nil {
		return goerr.Wrap(err, "failed to insert memory", goerr.V("memory_id", rec.ID))
	}

	return nil
}

func (r *sqliteRepo) GetMemory(ctx context.Context, id model.MemoryID) (*model.MemoryRecord, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, agent_type, memory_type, content_type, content, tags,
		        importance, related_plan_id, related_log_id, extra, embedding, created_at
		 FROM memories WHERE id = ?`, string(id))

	rec, err := scanMemory(row)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get memory", goerr.V("memory_id", id))
	}
	return rec, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMemory(row rowScanner) (*model.MemoryRecord, error) {
	var rec model.MemoryRecord
	var id, agentType, memoryType, tags, extra, embedding string

	err := row.Scan(&id, &rec.UserID, &agentType, &memoryType,
		&rec.Metadata.ContentType, &rec.Content, &tags,
		&rec.Metadata.Importance, &rec.Metadata.RelatedPlanID,
		&rec.Metadata.RelatedLogID, &extra, &embedding, &rec.CreatedAt)
	if err != nil {
		return nil, err
	}

	rec.ID = model.MemoryID(id)
	rec.Metadata.AgentType = model.AgentType(agentType)
	rec.Metadata.MemoryType = model.MemoryType(memoryType)
	if err := json.Unmarshal([]byte(tags), &rec.Metadata.Tags); err != nil {
		return nil, goerr.Wrap(err, "failed to decode tags")
	}
	if extra != "" && extra != "null" {
		if err := json.Unmarshal([]byte(extra), &rec.Metadata.Extra); err != nil {
			return nil, goerr.Wrap(err, "failed to decode extra metadata")
		}
	}
	if err := json.Unmarshal([]byte(embedding), &rec.Embedding); err != nil {
		return nil, goerr.Wrap(err, "failed to decode embedding")
	}

	return &rec, nil
}

func (r *sqliteRepo) QueryMemories(ctx context.Context, userID string, q *MemoryQuery) ([]*model.MemoryRecord, error) {
	q.Normalize()

	var sb strings.Builder
	sb.WriteString(`SELECT id, user_id, agent_type, memory_type, content_type, content, tags,
		importance, related_plan_id, related_log_id, extra, embedding, created_at
		FROM memories WHERE user_id = ?`)
	args := []any{userID}

	if len(q.AgentTypes) > 0 {
		sb.WriteString(" AND agent_type IN (?" + strings.Repeat(",?", len(q.AgentTypes)-1) + ")")
		for _, t := range q.AgentTypes {
			args = append(args, string(t))
		}
	}
	if q.MemoryType != "" {
		sb.WriteString(" AND memory_type = ?")
		args = append(args, string(q.MemoryType))
	}

	switch q.SortBy {
	case model.SortByImportance:
		sb.WriteString(" ORDER BY importance DESC, created_at DESC")
	default:
		// Relevance ranking happens in Go below; fetch newest first
		sb.WriteString(" ORDER BY created_at DESC")
	}

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query memories")
	}
	defer rows.Close()

	var records []*model.MemoryRecord
	for rows.Next() {
		rec, err := scanMemory(rows)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to scan memory row")
		}
		// Tag filtering over the JSON column is done here rather than in SQL
		if len(q.Tags) > 0 && !hasAnyTag(rec.Metadata.Tags, q.Tags) {
			continue
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate memory rows")
	}

	if q.SortBy == model.SortByRelevance && len(q.Embedding) > 0 {
		records = rankByDistance(records, q.Embedding, q.Threshold)
	}
	if len(records) > q.Limit {
		records = records[:q.Limit]
	}

	return records, nil
}

func (r *sqliteRepo) Close() error {
	return r.db.Close()
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
