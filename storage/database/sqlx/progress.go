package sqlxrepos

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/AnuragJha1954/lms/core"
	"github.com/AnuragJha1954/lms/core/progress"
	"github.com/AnuragJha1954/lms/storage/database"
)

const progressColumns = "id, student_id, topic_id, completion_percentage, is_completed, last_accessed"

type progressRepository struct {
	repository
}

var _ progress.Repository = (*progressRepository)(nil) // interface compliance check

func NewProgressRepository(exec core.DBExecutor) *progressRepository {
	return &progressRepository{repository{exec: exec}}
}

type progressRow struct {
	ID                   string    `db:"id"`
	StudentID            string    `db:"student_id"`
	TopicID              string    `db:"topic_id"`
	CompletionPercentage float64   `db:"completion_percentage"`
	IsCompleted          bool      `db:"is_completed"`
	LastAccessed         time.Time `db:"last_accessed"`
}

func (row progressRow) toProgress() progress.TopicProgress {
	return progress.TopicProgress{
		ID:                   row.ID,
		StudentID:            row.StudentID,
		TopicID:              row.TopicID,
		CompletionPercentage: row.CompletionPercentage,
		IsCompleted:          row.IsCompleted,
		LastAccessed:         row.LastAccessed.UTC(),
	}
}

// Upsert keeps a single row per (student_id, topic_id).
func (repo progressRepository) Upsert(ctx context.Context, p progress.TopicProgress, exec ...core.DBExecutor) (progress.TopicProgress, error) {
	if p.ID == "" {
		p.ID = newID()
	}
	if p.LastAccessed.IsZero() {
		p.LastAccessed = now()
	}
	err := repo.namedExec(ctx, exec, `
		INSERT INTO topic_progress (`+progressColumns+`)
		VALUES (:id, :student_id, :topic_id, :completion_percentage, :is_completed, :last_accessed)
		ON CONFLICT (student_id, topic_id) DO UPDATE SET
			completion_percentage = excluded.completion_percentage,
			is_completed = excluded.is_completed,
			last_accessed = excluded.last_accessed`,
		progressRow{p.ID, p.StudentID, p.TopicID, p.CompletionPercentage, p.IsCompleted, p.LastAccessed.UTC()},
	)
	if err != nil {
		return progress.TopicProgress{}, errors.Wrap(err, "upserting topic progress")
	}
	return repo.Get(ctx, p.StudentID, p.TopicID, exec...)
}

func (repo progressRepository) Get(ctx context.Context, studentID, topicID string, exec ...core.DBExecutor) (progress.TopicProgress, error) {
	var row progressRow
	err := repo.get(ctx, exec, &row,
		"SELECT "+progressColumns+" FROM topic_progress WHERE student_id = ? AND topic_id = ?", studentID, topicID)
	if err != nil {
		return progress.TopicProgress{}, database.TrapNoRows(err, progress.ErrProgressNotFound, "selecting topic progress")
	}
	return row.toProgress(), nil
}

func (repo progressRepository) ListByStudent(ctx context.Context, studentID string, exec ...core.DBExecutor) ([]progress.TopicProgress, error) {
	var rows []progressRow
	err := repo.selectAll(ctx, exec, &rows,
		"SELECT "+progressColumns+" FROM topic_progress WHERE student_id = ? ORDER BY last_accessed DESC", studentID)
	if err != nil {
		return nil, errors.Wrap(err, "selecting topic progress")
	}
	list := make([]progress.TopicProgress, 0, len(rows))
	for _, row := range rows {
		list = append(list, row.toProgress())
	}
	return list, nil
}
