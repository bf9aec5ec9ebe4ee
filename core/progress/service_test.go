package progress_test

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnuragJha1954/lms/core"
	"github.com/AnuragJha1954/lms/core/curriculum"
	"github.com/AnuragJha1954/lms/core/progress"
	"github.com/AnuragJha1954/lms/core/school"
	"github.com/AnuragJha1954/lms/core/user"
	sqlxrepos "github.com/AnuragJha1954/lms/storage/database/sqlx"
	"github.com/AnuragJha1954/lms/testutil"
)

const unknownID = "5e0aa093-b7fa-4bd7-9a0a-1c2ba1d0d8c8"

type progressTest struct {
	db      *sqlx.DB
	svc     progress.Service
	usrRepo user.Repository
	schRepo school.Repository
	curRepo curriculum.Repository
	cur     testutil.Curriculum
	student school.StudentProfile
}

func setup(t *testing.T) *progressTest {
	t.Helper()
	db := testutil.PrepareDB(t)
	usrRepo := sqlxrepos.NewUserRepository(db)
	schRepo := sqlxrepos.NewSchoolRepository(db)
	curRepo := sqlxrepos.NewCurriculumRepository(db)

	cur := testutil.CreateCurriculum(t, usrRepo, schRepo, curRepo, "Lake View School")
	std, _ := testutil.CreateStudent(t, usrRepo, schRepo, cur.Class, "Carla Student")
	return &progressTest{
		db:      db,
		svc:     progress.NewService(db, sqlxrepos.NewProgressRepository(db), curRepo, schRepo),
		usrRepo: usrRepo,
		schRepo: schRepo,
		curRepo: curRepo,
		cur:     cur,
		student: std,
	}
}

// topicWith creates a topic holding total contents, the first completed of which are done.
func (pt *progressTest) topicWith(t *testing.T, name string, total, completed int) curriculum.Topic {
	t.Helper()
	tpc := testutil.CreateTopic(t, pt.curRepo, pt.cur.Chapter.ID, name)
	for i := 0; i < total; i++ {
		testutil.CreateContent(t, pt.curRepo, tpc.ID, i, i < completed)
	}
	return tpc
}

func (pt *progressTest) countRows(t *testing.T) int {
	t.Helper()
	var n int
	require.NoError(t, pt.db.Get(&n, "SELECT COUNT(*) FROM topic_progress"))
	return n
}

func TestService_Recompute(t *testing.T) {
	pt := setup(t)
	ctx := context.Background()

	tests := []struct {
		name             string
		total, completed int
		wantPct          float64
		wantCompleted    bool
	}{
		{name: "no content", wantPct: 0},
		{name: "nothing done", total: 3, completed: 0, wantPct: 0},
		{name: "one of four", total: 4, completed: 1, wantPct: 25},
		{name: "two of three", total: 3, completed: 2, wantPct: 200.0 / 3},
		{name: "everything", total: 2, completed: 2, wantPct: 100, wantCompleted: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tpc := pt.topicWith(t, tt.name, tt.total, tt.completed)

			p, err := pt.svc.Recompute(ctx, pt.student.ID, tpc.ID)
			require.NoError(t, err)
			assert.InDelta(t, tt.wantPct, p.CompletionPercentage, 0.0001)
			assert.Equal(t, tt.wantCompleted, p.IsCompleted)
			assert.False(t, p.LastAccessed.IsZero())

			got, err := pt.svc.Get(ctx, pt.student.ID, tpc.ID)
			require.NoError(t, err)
			assert.Equal(t, p.ID, got.ID)
		})
	}
	assert.Equal(t, len(tests), pt.countRows(t))
}

func TestService_RecomputeKeepsOneRow(t *testing.T) {
	pt := setup(t)
	ctx := context.Background()
	tpc := pt.topicWith(t, "Subtracting fractions", 2, 0)

	first, err := pt.svc.Recompute(ctx, pt.student.ID, tpc.ID)
	require.NoError(t, err)
	assert.Zero(t, first.CompletionPercentage)

	contents, err := pt.curRepo.ListContents(ctx, tpc.ID)
	require.NoError(t, err)
	_, err = pt.curRepo.SetContentCompleted(ctx, contents[0].ID, true)
	require.NoError(t, err)

	second, err := pt.svc.Recompute(ctx, pt.student.ID, tpc.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, float64(50), second.CompletionPercentage)
	assert.Equal(t, 1, pt.countRows(t))
}

func TestService_RecomputeErrors(t *testing.T) {
	pt := setup(t)
	ctx := context.Background()

	_, err := pt.svc.Recompute(ctx, unknownID, pt.cur.Topic.ID)
	assert.True(t, core.IsNotFound(err), "unexpected error: %v", err)

	_, err = pt.svc.Recompute(ctx, pt.student.ID, unknownID)
	assert.True(t, core.IsNotFound(err), "unexpected error: %v", err)

	assert.Zero(t, pt.countRows(t))
}

func TestService_MarkContent(t *testing.T) {
	pt := setup(t)
	ctx := context.Background()
	tpc := pt.topicWith(t, "Comparing fractions", 2, 0)
	contents, err := pt.curRepo.ListContents(ctx, tpc.ID)
	require.NoError(t, err)
	require.Len(t, contents, 2)

	steps := []struct {
		content       int
		completed     bool
		wantPct       float64
		wantCompleted bool
	}{
		{content: 0, completed: true, wantPct: 50},
		{content: 1, completed: true, wantPct: 100, wantCompleted: true},
		{content: 0, completed: false, wantPct: 50},
	}
	for _, step := range steps {
		p, err := pt.svc.MarkContent(ctx, pt.student.ID, contents[step.content].ID, step.completed)
		require.NoError(t, err)
		assert.Equal(t, step.wantPct, p.CompletionPercentage)
		assert.Equal(t, step.wantCompleted, p.IsCompleted)
	}
	assert.Equal(t, 1, pt.countRows(t))

	_, err = pt.svc.MarkContent(ctx, pt.student.ID, unknownID, true)
	assert.True(t, core.IsNotFound(err), "unexpected error: %v", err)
}

// Completion flags live on the content, so one student's marks move every student's percentage.
func TestService_MarkContentSharesFlags(t *testing.T) {
	pt := setup(t)
	ctx := context.Background()
	classmate, _ := testutil.CreateStudent(t, pt.usrRepo, pt.schRepo, pt.cur.Class, "Dan Student")
	tpc := pt.topicWith(t, "Equivalent fractions", 4, 0)
	contents, err := pt.curRepo.ListContents(ctx, tpc.ID)
	require.NoError(t, err)

	before, err := pt.svc.Recompute(ctx, classmate.ID, tpc.ID)
	require.NoError(t, err)
	assert.Zero(t, before.CompletionPercentage)

	p, err := pt.svc.MarkContent(ctx, pt.student.ID, contents[0].ID, true)
	require.NoError(t, err)
	assert.Equal(t, float64(25), p.CompletionPercentage)

	// the classmate's stored row only moves on their own recompute
	stored, err := pt.svc.Get(ctx, classmate.ID, tpc.ID)
	require.NoError(t, err)
	assert.Zero(t, stored.CompletionPercentage)

	after, err := pt.svc.Recompute(ctx, classmate.ID, tpc.ID)
	require.NoError(t, err)
	assert.Equal(t, before.ID, after.ID)
	assert.Equal(t, float64(25), after.CompletionPercentage)
	assert.Equal(t, 2, pt.countRows(t))
}

func TestService_Get(t *testing.T) {
	pt := setup(t)

	p, err := pt.svc.Get(context.Background(), pt.student.ID, pt.cur.Topic.ID)
	require.NoError(t, err)
	assert.Empty(t, p.ID)
	assert.Equal(t, pt.student.ID, p.StudentID)
	assert.Zero(t, p.CompletionPercentage)
	assert.False(t, p.IsCompleted)
}

func TestService_Dashboard(t *testing.T) {
	pt := setup(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	// the curriculum topic has no content and stays at 0
	half := pt.topicWith(t, "Half done", 2, 1)
	third := pt.topicWith(t, "A third done", 3, 1)
	done := pt.topicWith(t, "Done", 1, 1)
	stale := pt.topicWith(t, "Stale", 4, 1)
	empty := testutil.CreateSubject(t, pt.curRepo, pt.cur.Class.ID, "Art")

	recompute := func(tpc curriculum.Topic, at time.Time) {
		restore := progress.SetNow(at)
		defer restore()
		_, err := pt.svc.Recompute(ctx, pt.student.ID, tpc.ID)
		require.NoError(t, err)
	}
	recompute(stale, now.Add(-progress.RecentWindow-time.Hour))
	recompute(half, now.Add(-2*time.Hour))
	recompute(third, now.Add(-time.Hour))
	recompute(done, now.Add(-time.Minute))

	restore := progress.SetNow(now)
	defer restore()
	dash, err := pt.svc.Dashboard(ctx, pt.student)
	require.NoError(t, err)
	assert.Equal(t, pt.student.ID, dash.StudentID)

	bySubject := make(map[string]progress.SubjectProgress)
	for _, sp := range dash.Subjects {
		bySubject[sp.SubjectID] = sp
	}
	require.Len(t, bySubject, 2)
	// (0 + 50 + 33.33 + 100 + 25) / 5
	assert.Equal(t, 41.67, bySubject[pt.cur.Subject.ID].CompletionPercentage)
	assert.Equal(t, "Mathematics", bySubject[pt.cur.Subject.ID].SubjectName)
	assert.Zero(t, bySubject[empty.ID].CompletionPercentage)

	require.Len(t, dash.RecentTopics, 2)
	assert.Equal(t, third.ID, dash.RecentTopics[0].TopicID)
	assert.Equal(t, 33.33, dash.RecentTopics[0].CompletionPercentage)
	assert.Equal(t, half.ID, dash.RecentTopics[1].TopicID)
	assert.Equal(t, "Half done", dash.RecentTopics[1].TopicName)
}

func TestService_DashboardWithoutProgress(t *testing.T) {
	pt := setup(t)

	dash, err := pt.svc.Dashboard(context.Background(), pt.student)
	require.NoError(t, err)
	require.Len(t, dash.Subjects, 1)
	assert.Zero(t, dash.Subjects[0].CompletionPercentage)
	assert.NotNil(t, dash.RecentTopics)
	assert.Empty(t, dash.RecentTopics)
}
