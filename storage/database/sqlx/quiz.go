package sqlxrepos

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/AnuragJha1954/lms/core"
	"github.com/AnuragJha1954/lms/core/quiz"
	"github.com/AnuragJha1954/lms/storage/database"
)

const (
	quizColumns     = "id, topic_id, teacher_id, title, description, quiz_type, is_active, created_at"
	questionColumns = "id, quiz_id, text, marks, is_multiple_choice, position"
	optionColumns   = "id, question_id, text, position"
	attemptColumns  = "id, student_id, quiz_id, score, started_at, completed_at, is_submitted"
	responseColumns = "id, attempt_id, question_id, is_correct"
)

type quizRepository struct {
	repository
}

var _ quiz.Repository = (*quizRepository)(nil) // interface compliance check

func NewQuizRepository(exec core.DBExecutor) *quizRepository {
	return &quizRepository{repository{exec: exec}}
}

type (
	quizRow struct {
		ID          string      `db:"id"`
		TopicID     string      `db:"topic_id"`
		TeacherID   null.String `db:"teacher_id"`
		Title       string      `db:"title"`
		Description string      `db:"description"`
		Type        string      `db:"quiz_type"`
		IsActive    bool        `db:"is_active"`
		CreatedAt   time.Time   `db:"created_at"`
	}

	questionRow struct {
		ID               string  `db:"id"`
		QuizID           string  `db:"quiz_id"`
		Text             string  `db:"text"`
		Marks            float64 `db:"marks"`
		IsMultipleChoice bool    `db:"is_multiple_choice"`
		Position         int     `db:"position"`
	}

	optionRow struct {
		ID         string `db:"id"`
		QuestionID string `db:"question_id"`
		Text       string `db:"text"`
		Position   int    `db:"position"`
	}

	answerRow struct {
		ID         string `db:"id"`
		QuestionID string `db:"question_id"`
		OptionID   string `db:"option_id"`
	}

	attemptRow struct {
		ID          string    `db:"id"`
		StudentID   string    `db:"student_id"`
		QuizID      string    `db:"quiz_id"`
		Score       float64   `db:"score"`
		StartedAt   time.Time `db:"started_at"`
		CompletedAt null.Time `db:"completed_at"`
		IsSubmitted bool      `db:"is_submitted"`
	}

	responseRow struct {
		ID         string `db:"id"`
		AttemptID  string `db:"attempt_id"`
		QuestionID string `db:"question_id"`
		IsCorrect  bool   `db:"is_correct"`
	}

	responseOptionRow struct {
		ResponseID string `db:"response_id"`
		OptionID   string `db:"option_id"`
	}
)

func (row quizRow) toQuiz() quiz.Quiz {
	return quiz.Quiz{
		ID:          row.ID,
		TopicID:     row.TopicID,
		TeacherID:   row.TeacherID,
		Title:       row.Title,
		Description: row.Description,
		Type:        row.Type,
		IsActive:    row.IsActive,
		CreatedAt:   row.CreatedAt.UTC(),
	}
}

func (row attemptRow) toAttempt() quiz.Attempt {
	att := quiz.Attempt{
		ID:          row.ID,
		StudentID:   row.StudentID,
		QuizID:      row.QuizID,
		Score:       row.Score,
		StartedAt:   row.StartedAt.UTC(),
		CompletedAt: row.CompletedAt,
		IsSubmitted: row.IsSubmitted,
	}
	if att.CompletedAt.Valid {
		att.CompletedAt.Time = att.CompletedAt.Time.UTC()
	}
	return att
}

func quizzesFromRows(rows []quizRow) []quiz.Quiz {
	quizzes := make([]quiz.Quiz, 0, len(rows))
	for _, row := range rows {
		quizzes = append(quizzes, row.toQuiz())
	}
	return quizzes
}

// Quizzes

func (repo quizRepository) CreateQuiz(ctx context.Context, qz quiz.Quiz, exec ...core.DBExecutor) (quiz.Quiz, error) {
	if qz.ID == "" {
		qz.ID = newID()
	}
	if qz.CreatedAt.IsZero() {
		qz.CreatedAt = now()
	}
	err := repo.namedExec(ctx, exec, `
		INSERT INTO quizzes (`+quizColumns+`)
		VALUES (:id, :topic_id, :teacher_id, :title, :description, :quiz_type, :is_active, :created_at)`,
		quizRow{qz.ID, qz.TopicID, qz.TeacherID, qz.Title, qz.Description, qz.Type, qz.IsActive, qz.CreatedAt.UTC()},
	)
	if err != nil {
		return quiz.Quiz{}, errors.Wrap(err, "inserting quiz")
	}
	return repo.GetQuiz(ctx, qz.ID, exec...)
}

func (repo quizRepository) GetQuiz(ctx context.Context, id string, exec ...core.DBExecutor) (quiz.Quiz, error) {
	var row quizRow
	if err := repo.get(ctx, exec, &row, "SELECT "+quizColumns+" FROM quizzes WHERE id = ?", id); err != nil {
		return quiz.Quiz{}, database.TrapNoRows(err, quiz.ErrQuizNotFound, "selecting quiz")
	}
	return row.toQuiz(), nil
}

func (repo quizRepository) ListQuizzesByTopic(ctx context.Context, topicID string, exec ...core.DBExecutor) ([]quiz.Quiz, error) {
	var rows []quizRow
	err := repo.selectAll(ctx, exec, &rows, `
		SELECT `+quizColumns+` FROM quizzes
		WHERE topic_id = ? AND is_active = ?
		ORDER BY created_at`, topicID, true)
	if err != nil {
		return nil, errors.Wrap(err, "selecting quizzes")
	}
	return quizzesFromRows(rows), nil
}

func (repo quizRepository) ListQuizzesByTeacherTopic(ctx context.Context, teacherID, topicID string, exec ...core.DBExecutor) ([]quiz.Quiz, error) {
	var rows []quizRow
	err := repo.selectAll(ctx, exec, &rows, `
		SELECT `+quizColumns+` FROM quizzes
		WHERE teacher_id = ? AND topic_id = ? AND quiz_type = ? AND is_active = ?
		ORDER BY created_at`, teacherID, topicID, quiz.TypeTeacher, true)
	if err != nil {
		return nil, errors.Wrap(err, "selecting teacher quizzes")
	}
	return quizzesFromRows(rows), nil
}

// DeleteQuiz relies on ON DELETE CASCADE for questions, options, answers, attempts and responses.
func (repo quizRepository) DeleteQuiz(ctx context.Context, id string, exec ...core.DBExecutor) error {
	n, err := repo.execute(ctx, exec, "DELETE FROM quizzes WHERE id = ?", id)
	if err != nil {
		return errors.Wrap(err, "deleting quiz")
	}
	if n == 0 {
		return quiz.ErrQuizNotFound
	}
	return nil
}

// Questions

func (repo quizRepository) CreateQuestion(ctx context.Context, q quiz.Question, exec ...core.DBExecutor) (quiz.Question, error) {
	if q.ID == "" {
		q.ID = newID()
	}
	err := repo.namedExec(ctx, exec, `
		INSERT INTO questions (`+questionColumns+`)
		VALUES (:id, :quiz_id, :text, :marks, :is_multiple_choice, :position)`,
		questionRow{q.ID, q.QuizID, q.Text, q.Marks, q.IsMultipleChoice, q.Position},
	)
	if err != nil {
		return quiz.Question{}, errors.Wrap(err, "inserting question")
	}
	return q, nil
}

func (repo quizRepository) CreateOption(ctx context.Context, opt quiz.Option, exec ...core.DBExecutor) (quiz.Option, error) {
	if opt.ID == "" {
		opt.ID = newID()
	}
	err := repo.namedExec(ctx, exec,
		"INSERT INTO options ("+optionColumns+") VALUES (:id, :question_id, :text, :position)",
		optionRow{opt.ID, opt.QuestionID, opt.Text, opt.Position},
	)
	if err != nil {
		return quiz.Option{}, errors.Wrap(err, "inserting option")
	}
	return opt, nil
}

func (repo quizRepository) CreateAnswer(ctx context.Context, ans quiz.Answer, exec ...core.DBExecutor) error {
	if ans.ID == "" {
		ans.ID = newID()
	}
	err := repo.namedExec(ctx, exec,
		"INSERT INTO answers (id, question_id, option_id) VALUES (:id, :question_id, :option_id)",
		answerRow{ans.ID, ans.QuestionID, ans.OptionID},
	)
	return errors.Wrap(err, "inserting answer")
}

func (repo quizRepository) ListQuestions(ctx context.Context, quizID string, withAnswers bool, exec ...core.DBExecutor) ([]quiz.Question, error) {
	var qRows []questionRow
	err := repo.selectAll(ctx, exec, &qRows,
		"SELECT "+questionColumns+" FROM questions WHERE quiz_id = ? ORDER BY position", quizID)
	if err != nil {
		return nil, errors.Wrap(err, "selecting questions")
	}
	if len(qRows) == 0 {
		return []quiz.Question{}, nil
	}

	ids := make([]string, 0, len(qRows))
	for _, row := range qRows {
		ids = append(ids, row.ID)
	}

	var oRows []optionRow
	err = repo.selectIn(ctx, exec, &oRows,
		"SELECT "+optionColumns+" FROM options WHERE question_id IN (?) ORDER BY position", ids)
	if err != nil {
		return nil, errors.Wrap(err, "selecting options")
	}
	options := make(map[string][]quiz.Option, len(qRows))
	for _, row := range oRows {
		options[row.QuestionID] = append(options[row.QuestionID], quiz.Option{
			ID:         row.ID,
			QuestionID: row.QuestionID,
			Text:       row.Text,
			Position:   row.Position,
		})
	}

	answers := make(map[string][]string)
	if withAnswers {
		var aRows []answerRow
		err = repo.selectIn(ctx, exec, &aRows, `
			SELECT a.id, a.question_id, a.option_id
			FROM answers a
			JOIN options o ON o.id = a.option_id
			WHERE a.question_id IN (?)
			ORDER BY o.position`, ids)
		if err != nil {
			return nil, errors.Wrap(err, "selecting answers")
		}
		for _, row := range aRows {
			answers[row.QuestionID] = append(answers[row.QuestionID], row.OptionID)
		}
	}

	questions := make([]quiz.Question, 0, len(qRows))
	for _, row := range qRows {
		q := quiz.Question{
			ID:               row.ID,
			QuizID:           row.QuizID,
			Text:             row.Text,
			Marks:            row.Marks,
			IsMultipleChoice: row.IsMultipleChoice,
			Position:         row.Position,
			Options:          options[row.ID],
			CorrectOptionIDs: answers[row.ID],
		}
		if q.Options == nil {
			q.Options = []quiz.Option{}
		}
		questions = append(questions, q)
	}
	return questions, nil
}

// Attempts

func (repo quizRepository) CreateAttempt(ctx context.Context, att quiz.Attempt, exec ...core.DBExecutor) (quiz.Attempt, error) {
	if att.ID == "" {
		att.ID = newID()
	}
	if att.StartedAt.IsZero() {
		att.StartedAt = now()
	}
	err := repo.namedExec(ctx, exec, `
		INSERT INTO quiz_attempts (`+attemptColumns+`)
		VALUES (:id, :student_id, :quiz_id, :score, :started_at, :completed_at, :is_submitted)`,
		attemptRow{att.ID, att.StudentID, att.QuizID, att.Score, att.StartedAt.UTC(), att.CompletedAt, att.IsSubmitted},
	)
	if err != nil {
		return quiz.Attempt{}, database.TrapUnique(err, quiz.ErrDuplicateAttempt, "inserting attempt")
	}
	return repo.getAttempt(ctx, exec, "id = ?", att.ID)
}

func (repo quizRepository) GetAttempt(ctx context.Context, studentID, quizID string, exec ...core.DBExecutor) (quiz.Attempt, error) {
	return repo.getAttempt(ctx, exec, "student_id = ? AND quiz_id = ?", studentID, quizID)
}

func (repo quizRepository) getAttempt(ctx context.Context, exec []core.DBExecutor, where string, args ...interface{}) (quiz.Attempt, error) {
	var row attemptRow
	if err := repo.get(ctx, exec, &row, "SELECT "+attemptColumns+" FROM quiz_attempts WHERE "+where, args...); err != nil {
		return quiz.Attempt{}, database.TrapNoRows(err, quiz.ErrAttemptNotFound, "selecting attempt")
	}
	return row.toAttempt(), nil
}

func (repo quizRepository) FinalizeAttempt(ctx context.Context, att quiz.Attempt, exec ...core.DBExecutor) (quiz.Attempt, error) {
	n, err := repo.execute(ctx, exec,
		"UPDATE quiz_attempts SET score = ?, completed_at = ?, is_submitted = ? WHERE id = ?",
		att.Score, att.CompletedAt, att.IsSubmitted, att.ID,
	)
	if err != nil {
		return quiz.Attempt{}, errors.Wrap(err, "updating attempt")
	}
	if n == 0 {
		return quiz.Attempt{}, quiz.ErrAttemptNotFound
	}
	return repo.getAttempt(ctx, exec, "id = ?", att.ID)
}

// Responses

func (repo quizRepository) CreateResponse(ctx context.Context, resp quiz.Response, exec ...core.DBExecutor) (quiz.Response, error) {
	if resp.ID == "" {
		resp.ID = newID()
	}
	err := repo.namedExec(ctx, exec,
		"INSERT INTO question_responses ("+responseColumns+") VALUES (:id, :attempt_id, :question_id, :is_correct)",
		responseRow{resp.ID, resp.AttemptID, resp.QuestionID, resp.IsCorrect},
	)
	if err != nil {
		return quiz.Response{}, errors.Wrap(err, "inserting response")
	}
	for _, optID := range resp.SelectedOptionIDs {
		err = repo.namedExec(ctx, exec,
			"INSERT INTO response_options (response_id, option_id) VALUES (:response_id, :option_id)",
			responseOptionRow{resp.ID, optID},
		)
		if err != nil {
			return quiz.Response{}, errors.Wrap(err, "inserting response option")
		}
	}
	if resp.SelectedOptionIDs == nil {
		resp.SelectedOptionIDs = []string{}
	}
	return resp, nil
}

func (repo quizRepository) ListResponses(ctx context.Context, attemptID string, exec ...core.DBExecutor) ([]quiz.Response, error) {
	var rRows []responseRow
	err := repo.selectAll(ctx, exec, &rRows, `
		SELECT r.id, r.attempt_id, r.question_id, r.is_correct
		FROM question_responses r
		JOIN questions q ON q.id = r.question_id
		WHERE r.attempt_id = ?
		ORDER BY q.position`, attemptID)
	if err != nil {
		return nil, errors.Wrap(err, "selecting responses")
	}
	if len(rRows) == 0 {
		return []quiz.Response{}, nil
	}

	ids := make([]string, 0, len(rRows))
	for _, row := range rRows {
		ids = append(ids, row.ID)
	}
	var oRows []responseOptionRow
	err = repo.selectIn(ctx, exec, &oRows, `
		SELECT ro.response_id, ro.option_id
		FROM response_options ro
		JOIN options o ON o.id = ro.option_id
		WHERE ro.response_id IN (?)
		ORDER BY o.position`, ids)
	if err != nil {
		return nil, errors.Wrap(err, "selecting response options")
	}
	selected := make(map[string][]string, len(rRows))
	for _, row := range oRows {
		selected[row.ResponseID] = append(selected[row.ResponseID], row.OptionID)
	}

	responses := make([]quiz.Response, 0, len(rRows))
	for _, row := range rRows {
		resp := quiz.Response{
			ID:                row.ID,
			AttemptID:         row.AttemptID,
			QuestionID:        row.QuestionID,
			SelectedOptionIDs: selected[row.ID],
			IsCorrect:         row.IsCorrect,
		}
		if resp.SelectedOptionIDs == nil {
			resp.SelectedOptionIDs = []string{}
		}
		responses = append(responses, resp)
	}
	return responses, nil
}
