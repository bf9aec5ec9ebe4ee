package sqlxrepos

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/AnuragJha1954/lms/core"
	"github.com/AnuragJha1954/lms/core/curriculum"
	"github.com/AnuragJha1954/lms/storage/database"
)

const (
	subjectColumns = "id, class_id, teacher_id, name, description, created_at"
	chapterColumns = "id, subject_id, name, description, created_at"
	topicColumns   = "id, chapter_id, name, description, is_completed, created_at"
	contentColumns = "id, topic_id, link, description, position, is_active, is_completed, created_at"
)

type curriculumRepository struct {
	repository
}

var _ curriculum.Repository = (*curriculumRepository)(nil) // interface compliance check

func NewCurriculumRepository(exec core.DBExecutor) *curriculumRepository {
	return &curriculumRepository{repository{exec: exec}}
}

type (
	subjectRow struct {
		ID          string      `db:"id"`
		ClassID     string      `db:"class_id"`
		TeacherID   null.String `db:"teacher_id"`
		Name        string      `db:"name"`
		Description string      `db:"description"`
		CreatedAt   time.Time   `db:"created_at"`
	}

	chapterRow struct {
		ID          string    `db:"id"`
		SubjectID   string    `db:"subject_id"`
		Name        string    `db:"name"`
		Description string    `db:"description"`
		CreatedAt   time.Time `db:"created_at"`
	}

	topicRow struct {
		ID          string    `db:"id"`
		ChapterID   string    `db:"chapter_id"`
		Name        string    `db:"name"`
		Description string    `db:"description"`
		IsCompleted bool      `db:"is_completed"`
		CreatedAt   time.Time `db:"created_at"`
	}

	contentRow struct {
		ID          string    `db:"id"`
		TopicID     string    `db:"topic_id"`
		Link        string    `db:"link"`
		Description string    `db:"description"`
		Position    int       `db:"position"`
		IsActive    bool      `db:"is_active"`
		IsCompleted bool      `db:"is_completed"`
		CreatedAt   time.Time `db:"created_at"`
	}
)

func (row subjectRow) toSubject() curriculum.Subject {
	return curriculum.Subject{
		ID:          row.ID,
		ClassID:     row.ClassID,
		TeacherID:   row.TeacherID,
		Name:        row.Name,
		Description: row.Description,
		CreatedAt:   row.CreatedAt.UTC(),
	}
}

func (row chapterRow) toChapter() curriculum.Chapter {
	return curriculum.Chapter{
		ID:          row.ID,
		SubjectID:   row.SubjectID,
		Name:        row.Name,
		Description: row.Description,
		CreatedAt:   row.CreatedAt.UTC(),
	}
}

func (row topicRow) toTopic() curriculum.Topic {
	return curriculum.Topic{
		ID:          row.ID,
		ChapterID:   row.ChapterID,
		Name:        row.Name,
		Description: row.Description,
		IsCompleted: row.IsCompleted,
		CreatedAt:   row.CreatedAt.UTC(),
	}
}

func (row contentRow) toContent() curriculum.Content {
	return curriculum.Content{
		ID:          row.ID,
		TopicID:     row.TopicID,
		Link:        row.Link,
		Description: row.Description,
		Order:       row.Position,
		IsActive:    row.IsActive,
		IsCompleted: row.IsCompleted,
		CreatedAt:   row.CreatedAt.UTC(),
	}
}

func topicsFromRows(rows []topicRow) []curriculum.Topic {
	topics := make([]curriculum.Topic, 0, len(rows))
	for _, row := range rows {
		topics = append(topics, row.toTopic())
	}
	return topics
}

// Subjects

func (repo curriculumRepository) CreateSubject(ctx context.Context, sub curriculum.Subject, exec ...core.DBExecutor) (curriculum.Subject, error) {
	if sub.ID == "" {
		sub.ID = newID()
	}
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = now()
	}
	err := repo.namedExec(ctx, exec,
		"INSERT INTO subjects ("+subjectColumns+") VALUES (:id, :class_id, :teacher_id, :name, :description, :created_at)",
		subjectRow{sub.ID, sub.ClassID, sub.TeacherID, sub.Name, sub.Description, sub.CreatedAt.UTC()},
	)
	if err != nil {
		return curriculum.Subject{}, errors.Wrap(err, "inserting subject")
	}
	return repo.GetSubject(ctx, sub.ID, exec...)
}

func (repo curriculumRepository) GetSubject(ctx context.Context, id string, exec ...core.DBExecutor) (curriculum.Subject, error) {
	var row subjectRow
	if err := repo.get(ctx, exec, &row, "SELECT "+subjectColumns+" FROM subjects WHERE id = ?", id); err != nil {
		return curriculum.Subject{}, database.TrapNoRows(err, curriculum.ErrSubjectNotFound, "selecting subject")
	}
	return row.toSubject(), nil
}

func (repo curriculumRepository) ListSubjects(ctx context.Context, classID string, exec ...core.DBExecutor) ([]curriculum.Subject, error) {
	var rows []subjectRow
	err := repo.selectAll(ctx, exec, &rows,
		"SELECT "+subjectColumns+" FROM subjects WHERE class_id = ? ORDER BY name", classID)
	if err != nil {
		return nil, errors.Wrap(err, "selecting subjects")
	}
	subjects := make([]curriculum.Subject, 0, len(rows))
	for _, row := range rows {
		subjects = append(subjects, row.toSubject())
	}
	return subjects, nil
}

func (repo curriculumRepository) SetSubjectTeacher(ctx context.Context, id string, teacherID null.String, exec ...core.DBExecutor) (curriculum.Subject, error) {
	n, err := repo.execute(ctx, exec, "UPDATE subjects SET teacher_id = ? WHERE id = ?", teacherID, id)
	if err != nil {
		return curriculum.Subject{}, errors.Wrap(err, "updating subject teacher")
	}
	if n == 0 {
		return curriculum.Subject{}, curriculum.ErrSubjectNotFound
	}
	return repo.GetSubject(ctx, id, exec...)
}

// Chapters

func (repo curriculumRepository) CreateChapter(ctx context.Context, chap curriculum.Chapter, exec ...core.DBExecutor) (curriculum.Chapter, error) {
	if chap.ID == "" {
		chap.ID = newID()
	}
	if chap.CreatedAt.IsZero() {
		chap.CreatedAt = now()
	}
	err := repo.namedExec(ctx, exec,
		"INSERT INTO chapters ("+chapterColumns+") VALUES (:id, :subject_id, :name, :description, :created_at)",
		chapterRow{chap.ID, chap.SubjectID, chap.Name, chap.Description, chap.CreatedAt.UTC()},
	)
	if err != nil {
		return curriculum.Chapter{}, errors.Wrap(err, "inserting chapter")
	}
	return repo.GetChapter(ctx, chap.ID, exec...)
}

func (repo curriculumRepository) GetChapter(ctx context.Context, id string, exec ...core.DBExecutor) (curriculum.Chapter, error) {
	var row chapterRow
	if err := repo.get(ctx, exec, &row, "SELECT "+chapterColumns+" FROM chapters WHERE id = ?", id); err != nil {
		return curriculum.Chapter{}, database.TrapNoRows(err, curriculum.ErrChapterNotFound, "selecting chapter")
	}
	return row.toChapter(), nil
}

func (repo curriculumRepository) ListChapters(ctx context.Context, subjectID string, exec ...core.DBExecutor) ([]curriculum.Chapter, error) {
	var rows []chapterRow
	err := repo.selectAll(ctx, exec, &rows,
		"SELECT "+chapterColumns+" FROM chapters WHERE subject_id = ? ORDER BY created_at, name", subjectID)
	if err != nil {
		return nil, errors.Wrap(err, "selecting chapters")
	}
	chapters := make([]curriculum.Chapter, 0, len(rows))
	for _, row := range rows {
		chapters = append(chapters, row.toChapter())
	}
	return chapters, nil
}

// Topics

func (repo curriculumRepository) CreateTopic(ctx context.Context, tpc curriculum.Topic, exec ...core.DBExecutor) (curriculum.Topic, error) {
	if tpc.ID == "" {
		tpc.ID = newID()
	}
	if tpc.CreatedAt.IsZero() {
		tpc.CreatedAt = now()
	}
	err := repo.namedExec(ctx, exec,
		"INSERT INTO topics ("+topicColumns+") VALUES (:id, :chapter_id, :name, :description, :is_completed, :created_at)",
		topicRow{tpc.ID, tpc.ChapterID, tpc.Name, tpc.Description, tpc.IsCompleted, tpc.CreatedAt.UTC()},
	)
	if err != nil {
		return curriculum.Topic{}, errors.Wrap(err, "inserting topic")
	}
	return repo.GetTopic(ctx, tpc.ID, exec...)
}

func (repo curriculumRepository) GetTopic(ctx context.Context, id string, exec ...core.DBExecutor) (curriculum.Topic, error) {
	var row topicRow
	if err := repo.get(ctx, exec, &row, "SELECT "+topicColumns+" FROM topics WHERE id = ?", id); err != nil {
		return curriculum.Topic{}, database.TrapNoRows(err, curriculum.ErrTopicNotFound, "selecting topic")
	}
	return row.toTopic(), nil
}

func (repo curriculumRepository) ListTopics(ctx context.Context, chapterID string, exec ...core.DBExecutor) ([]curriculum.Topic, error) {
	var rows []topicRow
	err := repo.selectAll(ctx, exec, &rows,
		"SELECT "+topicColumns+" FROM topics WHERE chapter_id = ? ORDER BY created_at, name", chapterID)
	if err != nil {
		return nil, errors.Wrap(err, "selecting topics")
	}
	return topicsFromRows(rows), nil
}

func (repo curriculumRepository) ListSubjectTopics(ctx context.Context, subjectID string, exec ...core.DBExecutor) ([]curriculum.Topic, error) {
	var rows []topicRow
	err := repo.selectAll(ctx, exec, &rows, `
		SELECT t.id, t.chapter_id, t.name, t.description, t.is_completed, t.created_at
		FROM topics t
		JOIN chapters c ON c.id = t.chapter_id
		WHERE c.subject_id = ?
		ORDER BY c.created_at, t.created_at`, subjectID)
	if err != nil {
		return nil, errors.Wrap(err, "selecting subject topics")
	}
	return topicsFromRows(rows), nil
}

func (repo curriculumRepository) SetTopicCompleted(ctx context.Context, id string, completed bool, exec ...core.DBExecutor) (curriculum.Topic, error) {
	n, err := repo.execute(ctx, exec, "UPDATE topics SET is_completed = ? WHERE id = ?", completed, id)
	if err != nil {
		return curriculum.Topic{}, errors.Wrap(err, "updating topic")
	}
	if n == 0 {
		return curriculum.Topic{}, curriculum.ErrTopicNotFound
	}
	return repo.GetTopic(ctx, id, exec...)
}

// DeleteTopic relies on ON DELETE CASCADE for contents, quizzes and progress rows.
func (repo curriculumRepository) DeleteTopic(ctx context.Context, id string, exec ...core.DBExecutor) error {
	n, err := repo.execute(ctx, exec, "DELETE FROM topics WHERE id = ?", id)
	if err != nil {
		return errors.Wrap(err, "deleting topic")
	}
	if n == 0 {
		return curriculum.ErrTopicNotFound
	}
	return nil
}

// Contents

func (repo curriculumRepository) CreateContent(ctx context.Context, cnt curriculum.Content, exec ...core.DBExecutor) (curriculum.Content, error) {
	if cnt.ID == "" {
		cnt.ID = newID()
	}
	if cnt.CreatedAt.IsZero() {
		cnt.CreatedAt = now()
	}
	err := repo.namedExec(ctx, exec, `
		INSERT INTO contents (`+contentColumns+`)
		VALUES (:id, :topic_id, :link, :description, :position, :is_active, :is_completed, :created_at)`,
		contentRow{cnt.ID, cnt.TopicID, cnt.Link, cnt.Description, cnt.Order, cnt.IsActive, cnt.IsCompleted, cnt.CreatedAt.UTC()},
	)
	if err != nil {
		return curriculum.Content{}, errors.Wrap(err, "inserting content")
	}
	return repo.GetContent(ctx, cnt.ID, exec...)
}

func (repo curriculumRepository) GetContent(ctx context.Context, id string, exec ...core.DBExecutor) (curriculum.Content, error) {
	var row contentRow
	if err := repo.get(ctx, exec, &row, "SELECT "+contentColumns+" FROM contents WHERE id = ?", id); err != nil {
		return curriculum.Content{}, database.TrapNoRows(err, curriculum.ErrContentNotFound, "selecting content")
	}
	return row.toContent(), nil
}

func (repo curriculumRepository) ListContents(ctx context.Context, topicID string, exec ...core.DBExecutor) ([]curriculum.Content, error) {
	var rows []contentRow
	err := repo.selectAll(ctx, exec, &rows,
		"SELECT "+contentColumns+" FROM contents WHERE topic_id = ? ORDER BY position, created_at", topicID)
	if err != nil {
		return nil, errors.Wrap(err, "selecting contents")
	}
	contents := make([]curriculum.Content, 0, len(rows))
	for _, row := range rows {
		contents = append(contents, row.toContent())
	}
	return contents, nil
}

func (repo curriculumRepository) SetContentCompleted(ctx context.Context, id string, completed bool, exec ...core.DBExecutor) (curriculum.Content, error) {
	n, err := repo.execute(ctx, exec, "UPDATE contents SET is_completed = ? WHERE id = ?", completed, id)
	if err != nil {
		return curriculum.Content{}, errors.Wrap(err, "updating content")
	}
	if n == 0 {
		return curriculum.Content{}, curriculum.ErrContentNotFound
	}
	return repo.GetContent(ctx, id, exec...)
}

// CountContents counts every content of the topic, active or not.
func (repo curriculumRepository) CountContents(ctx context.Context, topicID string, exec ...core.DBExecutor) (curriculum.ContentCount, error) {
	var count curriculum.ContentCount
	err := repo.get(ctx, exec, &count, `
		SELECT COUNT(*) AS total,
		       COALESCE(SUM(CASE WHEN is_completed THEN 1 ELSE 0 END), 0) AS completed
		FROM contents
		WHERE topic_id = ?`, topicID)
	if err != nil {
		return curriculum.ContentCount{}, errors.Wrap(err, "counting contents")
	}
	return count, nil
}
