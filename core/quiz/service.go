package quiz

import (
	"context"
	"fmt"
	"net/mail"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/AnuragJha1954/lms/core"
	"github.com/AnuragJha1954/lms/core/curriculum"
	"github.com/AnuragJha1954/lms/core/school"
)

var (
	// errors
	ErrQuizNotFound       = core.NewNotFoundError("quiz not found")
	ErrAttemptNotFound    = core.NewNotFoundError("quiz attempt not found")
	ErrDuplicateAttempt   = core.NewConflictError("quiz already attempted")
	ErrQuestionNotInQuiz  = errors.New("question does not belong to this quiz")
	ErrDuplicateQuestion  = errors.New("question answered more than once")
	ErrInvalidOptionIndex = errors.New("invalid correct option index")
	ErrTeacherRequired    = errors.New("teacher quizzes require a teacher")
)

var nowFunc = func() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

type (
	Repository interface {
		CreateQuiz(ctx context.Context, qz Quiz, exec ...core.DBExecutor) (Quiz, error)
		GetQuiz(ctx context.Context, id string, exec ...core.DBExecutor) (Quiz, error)
		ListQuizzesByTopic(ctx context.Context, topicID string, exec ...core.DBExecutor) ([]Quiz, error)
		ListQuizzesByTeacherTopic(ctx context.Context, teacherID, topicID string, exec ...core.DBExecutor) ([]Quiz, error)
		DeleteQuiz(ctx context.Context, id string, exec ...core.DBExecutor) error

		CreateQuestion(ctx context.Context, q Question, exec ...core.DBExecutor) (Question, error)
		CreateOption(ctx context.Context, opt Option, exec ...core.DBExecutor) (Option, error)
		CreateAnswer(ctx context.Context, ans Answer, exec ...core.DBExecutor) error
		// ListQuestions returns the questions of the quiz with their options, in position order.
		// CorrectOptionIDs are filled when withAnswers is set.
		ListQuestions(ctx context.Context, quizID string, withAnswers bool, exec ...core.DBExecutor) ([]Question, error)

		// CreateAttempt fails with ErrDuplicateAttempt when the student already attempted the quiz.
		CreateAttempt(ctx context.Context, att Attempt, exec ...core.DBExecutor) (Attempt, error)
		GetAttempt(ctx context.Context, studentID, quizID string, exec ...core.DBExecutor) (Attempt, error)
		FinalizeAttempt(ctx context.Context, att Attempt, exec ...core.DBExecutor) (Attempt, error)
		// CreateResponse stores the response and its selected options.
		CreateResponse(ctx context.Context, resp Response, exec ...core.DBExecutor) (Response, error)
		ListResponses(ctx context.Context, attemptID string, exec ...core.DBExecutor) ([]Response, error)
	}

	Service interface {
		// Create builds the quiz, its questions, options and answers in one transaction.
		Create(ctx context.Context, topicID string, teacherID *string, nq NewQuiz) (Quiz, error)
		Get(ctx context.Context, id string, withAnswers bool) (Quiz, error)
		ListByTopic(ctx context.Context, topicID string) ([]Quiz, error)
		ListByTeacherTopic(ctx context.Context, teacherID, topicID string) ([]Quiz, error)
		Delete(ctx context.Context, id string) error

		// Submit scores and stores the one and only attempt of std to the quiz.
		Submit(ctx context.Context, std school.StudentProfile, quizID string, data SubmitAttempt) (Attempt, error)
		GetAttempt(ctx context.Context, studentID, quizID string) (Attempt, error)
	}

	service struct {
		db      core.DB
		repo    Repository
		curRepo curriculum.Repository
		schRepo school.Repository
		mailSvc core.EmailService
	}
)

var _ Service = (*service)(nil)

func NewService(
	db core.DB,
	repo Repository,
	curRepo curriculum.Repository,
	schRepo school.Repository,
	mailSvc core.EmailService,
) Service {
	return newService(db, repo, curRepo, schRepo, mailSvc)
}

func newService(
	db core.DB,
	repo Repository,
	curRepo curriculum.Repository,
	schRepo school.Repository,
	mailSvc core.EmailService,
) *service {
	return &service{
		db:      db,
		repo:    repo,
		curRepo: curRepo,
		schRepo: schRepo,
		mailSvc: mailSvc,
	}
}

func (svc *service) Create(ctx context.Context, topicID string, teacherID *string, nq NewQuiz) (Quiz, error) {
	tpc, err := svc.curRepo.GetTopic(ctx, topicID)
	if err != nil {
		return Quiz{}, err
	}

	qz := Quiz{
		TopicID:     topicID,
		Title:       nq.Title,
		Description: nq.Description,
		Type:        nq.Type,
		IsActive:    true,
		CreatedAt:   nowFunc(),
	}
	switch nq.Type {
	case TypeTeacher:
		if teacherID == nil || *teacherID == "" {
			return Quiz{}, core.NewValidationError(ErrTeacherRequired, core.FieldError{
				Field: "teacher_id",
				Error: "This field is required for teacher quizzes.",
			})
		}
		if err = svc.checkTeacher(ctx, *teacherID, tpc); err != nil {
			return Quiz{}, err
		}
		qz.TeacherID = null.StringFrom(*teacherID)
	case TypeTopic:
	default:
		return Quiz{}, core.NewValidationError(errors.New("invalid quiz type"), core.FieldError{
			Field: "quiz_type",
			Error: "Must be one of: topic, teacher.",
		})
	}

	err = core.WithTx(ctx, svc.db, func(tx core.DBExecutor) error {
		var err error
		if qz, err = svc.repo.CreateQuiz(ctx, qz, tx); err != nil {
			return err
		}
		qz.Questions = make([]Question, 0, len(nq.Questions))
		for i, nqs := range nq.Questions {
			q, err := svc.createQuestion(ctx, qz.ID, i, nqs, tx)
			if err != nil {
				return err
			}
			qz.Questions = append(qz.Questions, q)
		}
		return nil
	})
	if err != nil {
		return Quiz{}, err
	}
	return qz, nil
}

// checkTeacher reports a teacher of another school as not found.
func (svc *service) checkTeacher(ctx context.Context, teacherID string, tpc curriculum.Topic) error {
	tchr, err := svc.schRepo.GetTeacher(ctx, teacherID)
	if err != nil {
		return err
	}
	chap, err := svc.curRepo.GetChapter(ctx, tpc.ChapterID)
	if err != nil {
		return err
	}
	sub, err := svc.curRepo.GetSubject(ctx, chap.SubjectID)
	if err != nil {
		return err
	}
	cls, err := svc.schRepo.GetClass(ctx, sub.ClassID)
	if err != nil {
		return err
	}
	if tchr.SchoolID != cls.SchoolID {
		return school.ErrTeacherNotFound
	}
	return nil
}

// createQuestion stores one question, its options in the given order, then its answers.
// An index outside of the options fails the whole quiz.
func (svc *service) createQuestion(ctx context.Context, quizID string, pos int, nqs NewQuestion, tx core.DBExecutor) (Question, error) {
	q, err := svc.repo.CreateQuestion(ctx, Question{
		QuizID:           quizID,
		Text:             nqs.Text,
		Marks:            nqs.marks(),
		IsMultipleChoice: nqs.IsMultipleChoice,
		Position:         pos,
	}, tx)
	if err != nil {
		return Question{}, errors.Wrap(err, "creating question")
	}

	q.Options = make([]Option, 0, len(nqs.Options))
	for j, no := range nqs.Options {
		opt, err := svc.repo.CreateOption(ctx, Option{QuestionID: q.ID, Text: no.Text, Position: j}, tx)
		if err != nil {
			return Question{}, errors.Wrap(err, "creating option")
		}
		q.Options = append(q.Options, opt)
	}

	field := fmt.Sprintf("questions[%d].correct_option_indexes", pos)
	seen := make(map[int]bool, len(nqs.CorrectOptionIndexes))
	for _, idx := range nqs.CorrectOptionIndexes {
		if idx < 0 || idx >= len(q.Options) {
			return Question{}, core.NewValidationError(ErrInvalidOptionIndex, core.FieldError{
				Field: field,
				Error: "Option index " + strconv.Itoa(idx) + " is out of range.",
			})
		}
		if seen[idx] {
			return Question{}, core.NewValidationError(ErrInvalidOptionIndex, core.FieldError{
				Field: field,
				Error: "Option index " + strconv.Itoa(idx) + " is repeated.",
			})
		}
		seen[idx] = true

		optID := q.Options[idx].ID
		if err := svc.repo.CreateAnswer(ctx, Answer{QuestionID: q.ID, OptionID: optID}, tx); err != nil {
			return Question{}, errors.Wrap(err, "creating answer")
		}
		q.CorrectOptionIDs = append(q.CorrectOptionIDs, optID)
	}
	return q, nil
}

func (svc *service) Get(ctx context.Context, id string, withAnswers bool) (Quiz, error) {
	qz, err := svc.repo.GetQuiz(ctx, id)
	if err != nil {
		return Quiz{}, err
	}
	if qz.Questions, err = svc.repo.ListQuestions(ctx, id, withAnswers); err != nil {
		return Quiz{}, err
	}
	return qz, nil
}

func (svc *service) ListByTopic(ctx context.Context, topicID string) ([]Quiz, error) {
	if _, err := svc.curRepo.GetTopic(ctx, topicID); err != nil {
		return nil, err
	}
	return svc.repo.ListQuizzesByTopic(ctx, topicID)
}

func (svc *service) ListByTeacherTopic(ctx context.Context, teacherID, topicID string) ([]Quiz, error) {
	if _, err := svc.schRepo.GetTeacher(ctx, teacherID); err != nil {
		return nil, err
	}
	if _, err := svc.curRepo.GetTopic(ctx, topicID); err != nil {
		return nil, err
	}
	return svc.repo.ListQuizzesByTeacherTopic(ctx, teacherID, topicID)
}

func (svc *service) Delete(ctx context.Context, id string) error {
	return svc.repo.DeleteQuiz(ctx, id)
}

// submission is a stored attempt along with the quiz it answers.
type submission struct {
	Attempt
	quiz      Quiz
	questions []Question
}

func (svc *service) Submit(ctx context.Context, std school.StudentProfile, quizID string, data SubmitAttempt) (Attempt, error) {
	sub, err := svc.submit(ctx, std, quizID, data)
	if err != nil {
		return Attempt{}, err
	}
	go svc.sendResultMail(std, sub.quiz, sub.questions, sub.Attempt)
	return sub.Attempt, nil
}

func (svc *service) submit(ctx context.Context, std school.StudentProfile, quizID string, data SubmitAttempt) (submission, error) {
	startedAt := nowFunc()

	qz, err := svc.repo.GetQuiz(ctx, quizID)
	if err != nil {
		return submission{}, err
	}
	questions, err := svc.repo.ListQuestions(ctx, quizID, true)
	if err != nil {
		return submission{}, err
	}
	byID := make(map[string]Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}
	if err := checkAnswers(data.Answers, byID); err != nil {
		return submission{}, err
	}

	var att Attempt
	err = core.WithTx(ctx, svc.db, func(tx core.DBExecutor) error {
		_, err := svc.repo.GetAttempt(ctx, std.ID, quizID, tx)
		switch {
		case err == nil:
			return ErrDuplicateAttempt
		case errors.Cause(err) != ErrAttemptNotFound:
			return err
		}

		att, err = svc.repo.CreateAttempt(ctx, Attempt{
			StudentID: std.ID,
			QuizID:    quizID,
			StartedAt: startedAt,
		}, tx)
		if err != nil {
			return err
		}

		att.Responses = make([]Response, 0, len(data.Answers))
		for _, ans := range data.Answers {
			q := byID[ans.QuestionID]
			selected := ownOptions(q, ans.SelectedOptionIDs)
			correct := IsCorrect(q.CorrectOptionIDs, selected)
			resp, err := svc.repo.CreateResponse(ctx, Response{
				AttemptID:         att.ID,
				QuestionID:        q.ID,
				SelectedOptionIDs: selected,
				IsCorrect:         correct,
			}, tx)
			if err != nil {
				return errors.Wrap(err, "creating response")
			}
			if correct {
				att.Score += q.Marks
			}
			att.Responses = append(att.Responses, resp)
		}

		att.IsSubmitted = true
		att.CompletedAt = null.TimeFrom(nowFunc())
		responses := att.Responses
		if att, err = svc.repo.FinalizeAttempt(ctx, att, tx); err != nil {
			return err
		}
		att.Responses = responses
		return nil
	})
	if err != nil {
		return submission{}, err
	}
	return submission{Attempt: att, quiz: qz, questions: questions}, nil
}

// checkAnswers rejects answers to questions outside of the quiz, and questions answered twice.
func checkAnswers(answers []AnswerInput, questions map[string]Question) error {
	var flds []core.FieldError
	seen := make(map[string]bool, len(answers))
	cause := ErrQuestionNotInQuiz
	for i, ans := range answers {
		field := fmt.Sprintf("answers[%d].question_id", i)
		if _, ok := questions[ans.QuestionID]; !ok {
			flds = append(flds, core.FieldError{Field: field, Error: "Question does not belong to this quiz."})
			continue
		}
		if seen[ans.QuestionID] {
			if len(flds) == 0 {
				cause = ErrDuplicateQuestion
			}
			flds = append(flds, core.FieldError{Field: field, Error: "Question is answered more than once."})
		}
		seen[ans.QuestionID] = true
	}
	if len(flds) > 0 {
		return core.NewValidationError(cause, flds...)
	}
	return nil
}

// ownOptions keeps the selected ids that are options of q, in q's order, without duplicates.
func ownOptions(q Question, selected []string) []string {
	want := make(map[string]bool, len(selected))
	for _, id := range selected {
		want[id] = true
	}
	own := make([]string, 0, len(selected))
	for _, opt := range q.Options {
		if want[opt.ID] {
			own = append(own, opt.ID)
		}
	}
	return own
}

func (svc *service) GetAttempt(ctx context.Context, studentID, quizID string) (Attempt, error) {
	if _, err := svc.repo.GetQuiz(ctx, quizID); err != nil {
		return Attempt{}, err
	}
	att, err := svc.repo.GetAttempt(ctx, studentID, quizID)
	if err != nil {
		return Attempt{}, err
	}
	if att.Responses, err = svc.repo.ListResponses(ctx, att.ID); err != nil {
		return Attempt{}, err
	}
	return att, nil
}

func (svc *service) sendResultMail(std school.StudentProfile, qz Quiz, questions []Question, att Attempt) {
	if std.Email == "" {
		return
	}
	var maxScore float64
	for _, q := range questions {
		maxScore += q.Marks
	}
	correct := 0
	for _, resp := range att.Responses {
		if resp.IsCorrect {
			correct++
		}
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: std.Name, Address: std.Email}},
		Subject:      "Your result for " + qz.Title,
		TemplateName: "quiz_result",
		TemplateData: map[string]string{
			"Name":      std.Name,
			"QuizTitle": qz.Title,
			"Score":     strconv.FormatFloat(att.Score, 'f', -1, 64),
			"MaxScore":  strconv.FormatFloat(maxScore, 'f', -1, 64),
			"Correct":   strconv.Itoa(correct),
			"Total":     strconv.Itoa(len(questions)),
		},
	})
}
