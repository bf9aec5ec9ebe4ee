package sqlxrepos_test

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnuragJha1954/lms/core"
	"github.com/AnuragJha1954/lms/core/quiz"
	"github.com/AnuragJha1954/lms/testutil"
)

func TestQuizRepository_Questions(t *testing.T) {
	r := setup(t)
	ctx := context.Background()
	cur := testutil.CreateCurriculum(t, r.usr, r.sch, r.cur, "Quiz School")

	qz, err := r.quiz.CreateQuiz(ctx, quiz.Quiz{TopicID: cur.Topic.ID, Title: "Repo quiz", Type: quiz.TypeTopic, IsActive: true})
	require.NoError(t, err)
	q, err := r.quiz.CreateQuestion(ctx, quiz.Question{QuizID: qz.ID, Text: "Pick two", Marks: 2, IsMultipleChoice: true})
	require.NoError(t, err)

	var opts []quiz.Option
	for i, txt := range []string{"A", "B", "C"} {
		opt, err := r.quiz.CreateOption(ctx, quiz.Option{QuestionID: q.ID, Text: txt, Position: i})
		require.NoError(t, err)
		opts = append(opts, opt)
	}
	require.NoError(t, r.quiz.CreateAnswer(ctx, quiz.Answer{QuestionID: q.ID, OptionID: opts[0].ID}))
	require.NoError(t, r.quiz.CreateAnswer(ctx, quiz.Answer{QuestionID: q.ID, OptionID: opts[2].ID}))

	withAnswers, err := r.quiz.ListQuestions(ctx, qz.ID, true)
	require.NoError(t, err)
	require.Len(t, withAnswers, 1)
	assert.Len(t, withAnswers[0].Options, 3)
	assert.ElementsMatch(t, []string{opts[0].ID, opts[2].ID}, withAnswers[0].CorrectOptionIDs)

	hidden, err := r.quiz.ListQuestions(ctx, qz.ID, false)
	require.NoError(t, err)
	require.Len(t, hidden, 1)
	assert.Empty(t, hidden[0].CorrectOptionIDs)

	empty, err := r.quiz.CreateQuiz(ctx, quiz.Quiz{TopicID: cur.Topic.ID, Title: "Empty quiz", Type: quiz.TypeTopic, IsActive: true})
	require.NoError(t, err)
	none, err := r.quiz.ListQuestions(ctx, empty.ID, true)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestQuizRepository_Attempts(t *testing.T) {
	r := setup(t)
	ctx := context.Background()
	cur := testutil.CreateCurriculum(t, r.usr, r.sch, r.cur, "Attempt School")
	std, _ := testutil.CreateStudent(t, r.usr, r.sch, cur.Class, "Attempt Student")

	qz, err := r.quiz.CreateQuiz(ctx, quiz.Quiz{TopicID: cur.Topic.ID, Title: "Attempted", Type: quiz.TypeTopic, IsActive: true})
	require.NoError(t, err)
	q, err := r.quiz.CreateQuestion(ctx, quiz.Question{QuizID: qz.ID, Text: "Q", Marks: 1})
	require.NoError(t, err)
	opt, err := r.quiz.CreateOption(ctx, quiz.Option{QuestionID: q.ID, Text: "only"})
	require.NoError(t, err)

	_, err = r.quiz.GetAttempt(ctx, std.ID, qz.ID)
	assert.Equal(t, quiz.ErrAttemptNotFound, errors.Cause(err))

	started := time.Now().UTC().Truncate(time.Second)
	att, err := r.quiz.CreateAttempt(ctx, quiz.Attempt{StudentID: std.ID, QuizID: qz.ID, StartedAt: started})
	require.NoError(t, err)
	assert.False(t, att.IsSubmitted)

	_, err = r.quiz.CreateAttempt(ctx, quiz.Attempt{StudentID: std.ID, QuizID: qz.ID, StartedAt: started})
	assert.True(t, core.IsConflict(err), "unexpected error: %v", err)

	_, err = r.quiz.CreateResponse(ctx, quiz.Response{
		AttemptID: att.ID, QuestionID: q.ID, SelectedOptionIDs: []string{opt.ID}, IsCorrect: true,
	})
	require.NoError(t, err)

	att.Score = 1
	att.IsSubmitted = true
	att.CompletedAt.SetValid(started.Add(time.Minute))
	att, err = r.quiz.FinalizeAttempt(ctx, att)
	require.NoError(t, err)

	got, err := r.quiz.GetAttempt(ctx, std.ID, qz.ID)
	require.NoError(t, err)
	assert.Equal(t, float64(1), got.Score)
	assert.True(t, got.IsSubmitted)
	assert.True(t, got.CompletedAt.Valid)

	responses, err := r.quiz.ListResponses(ctx, att.ID)
	require.NoError(t, err)
	require.Len(t, responses, 1)
	assert.Equal(t, []string{opt.ID}, responses[0].SelectedOptionIDs)
	assert.True(t, responses[0].IsCorrect)

	require.NoError(t, r.quiz.DeleteQuiz(ctx, qz.ID))
	for _, table := range []string{"questions", "options", "quiz_attempts", "question_responses", "response_options"} {
		assert.Zero(t, r.count(t, table), table)
	}
	assert.Equal(t, quiz.ErrQuizNotFound, errors.Cause(r.quiz.DeleteQuiz(ctx, qz.ID)))
}
