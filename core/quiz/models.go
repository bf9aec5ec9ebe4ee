package quiz

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/AnuragJha1954/lms/core"
)

const (
	TypeTopic   = "topic"
	TypeTeacher = "teacher"
)

type Quiz struct {
	ID          string      `json:"id"`
	TopicID     string      `json:"topic_id"`
	TeacherID   null.String `json:"teacher_id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Type        string      `json:"quiz_type"`
	IsActive    bool        `json:"is_active"`
	CreatedAt   time.Time   `json:"created_at"`
	Questions   []Question  `json:"questions,omitempty"`
}

type Question struct {
	ID               string   `json:"id"`
	QuizID           string   `json:"quiz_id"`
	Text             string   `json:"text"`
	Marks            float64  `json:"marks"`
	IsMultipleChoice bool     `json:"is_multiple_choice"`
	Position         int      `json:"position"`
	Options          []Option `json:"options"`
	// CorrectOptionIDs is only loaded for the quiz authors.
	CorrectOptionIDs []string `json:"correct_option_ids,omitempty"`
}

type Option struct {
	ID         string `json:"id"`
	QuestionID string `json:"question_id"`
	Text       string `json:"text"`
	Position   int    `json:"position"`
}

// Answer marks Option as a correct choice for Question.
type Answer struct {
	ID         string
	QuestionID string
	OptionID   string
}

// Attempt is the single submission of a student to a quiz.
type Attempt struct {
	ID          string     `json:"id"`
	StudentID   string     `json:"student_id"`
	QuizID      string     `json:"quiz_id"`
	Score       float64    `json:"score"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt null.Time  `json:"completed_at"`
	IsSubmitted bool       `json:"is_submitted"`
	Responses   []Response `json:"responses,omitempty"`
}

type Response struct {
	ID                string   `json:"id"`
	AttemptID         string   `json:"attempt_id"`
	QuestionID        string   `json:"question_id"`
	SelectedOptionIDs []string `json:"selected_option_ids"`
	IsCorrect         bool     `json:"is_correct"`
}

// NewQuiz contains information needed to build a quiz with its questions.
type NewQuiz struct {
	Title       string        `json:"title" validate:"required,max=255"`
	Description string        `json:"description"`
	Type        string        `json:"quiz_type" validate:"required,oneof=topic teacher"`
	Questions   []NewQuestion `json:"questions" validate:"required,min=1,dive"`
}

type NewQuestion struct {
	Text             string      `json:"text" validate:"required"`
	Marks            *float64    `json:"marks" validate:"omitempty,gt=0"`
	IsMultipleChoice bool        `json:"is_multiple_choice"`
	Options          []NewOption `json:"options" validate:"required,min=1,dive"`
	// CorrectOptionIndexes are 0 based positions in Options.
	CorrectOptionIndexes []int `json:"correct_option_indexes" validate:"required,min=1"`
}

type NewOption struct {
	Text string `json:"text" validate:"required,max=255"`
}

func (nq *NewQuiz) Validate(validate *validator.Validate) error {
	nq.Title = core.CleanString(nq.Title)
	nq.Description = core.CleanString(nq.Description)
	nq.Type = core.CleanString(nq.Type)
	if nq.Type == "" {
		nq.Type = TypeTopic
	}
	for i := range nq.Questions {
		q := &nq.Questions[i]
		q.Text = core.CleanString(q.Text)
		for j := range q.Options {
			q.Options[j].Text = core.CleanString(q.Options[j].Text)
		}
	}
	if err := validate.Struct(nq); err != nil {
		return err
	}
	return nq.checkIndexes()
}

// checkIndexes enforces that every correct option index points to a distinct option of its question.
func (nq NewQuiz) checkIndexes() error {
	var flds []core.FieldError
	for i, q := range nq.Questions {
		seen := make(map[int]bool, len(q.CorrectOptionIndexes))
		for _, idx := range q.CorrectOptionIndexes {
			field := fmt.Sprintf("questions[%d].correct_option_indexes", i)
			switch {
			case idx < 0 || idx >= len(q.Options):
				flds = append(flds, core.FieldError{
					Field: field,
					Error: fmt.Sprintf("Option index %d is out of range (%d options).", idx, len(q.Options)),
				})
			case seen[idx]:
				flds = append(flds, core.FieldError{
					Field: field,
					Error: fmt.Sprintf("Option index %d is repeated.", idx),
				})
			}
			seen[idx] = true
		}
	}
	if len(flds) > 0 {
		return core.NewValidationError(ErrInvalidOptionIndex, flds...)
	}
	return nil
}

func (q NewQuestion) marks() float64 {
	if q.Marks == nil {
		return 1
	}
	return *q.Marks
}

// SubmitAttempt is the answer set of a student to a quiz.
type SubmitAttempt struct {
	Answers []AnswerInput `json:"answers" validate:"required,min=1,dive"`
}

type AnswerInput struct {
	QuestionID        string   `json:"question_id" validate:"required"`
	SelectedOptionIDs []string `json:"selected_option_ids" validate:"required,min=1"`
}

func (sa *SubmitAttempt) Validate(validate *validator.Validate) error {
	for i := range sa.Answers {
		sa.Answers[i].QuestionID = core.CleanString(sa.Answers[i].QuestionID)
	}
	return validate.Struct(sa)
}

// IsCorrect reports whether selected is exactly the correct set: no partial credit,
// and neither a subset nor a superset of correct passes.
func IsCorrect(correct, selected []string) bool {
	want := make(map[string]bool, len(correct))
	for _, id := range correct {
		want[id] = true
	}
	got := make(map[string]bool, len(selected))
	for _, id := range selected {
		if !want[id] {
			return false
		}
		got[id] = true
	}
	return len(got) == len(want)
}

// Score sums the marks of the questions whose selected set matches their correct set.
// selected is keyed by question id; unanswered questions score nothing.
func Score(questions []Question, selected map[string][]string) float64 {
	var total float64
	for _, q := range questions {
		sel, ok := selected[q.ID]
		if ok && IsCorrect(q.CorrectOptionIDs, sel) {
			total += q.Marks
		}
	}
	return total
}
