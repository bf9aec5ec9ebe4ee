package echoapi_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/AnuragJha1954/lms/apps/api/echo"
	"github.com/AnuragJha1954/lms/core/curriculum"
	"github.com/AnuragJha1954/lms/core/progress"
	"github.com/AnuragJha1954/lms/testutil"
)

func Test_progressApi(t *testing.T) {
	at := setup(t)
	cur := testutil.CreateCurriculum(t, at.usrRepo, at.schRepo, at.curRepo, "Progress School")
	_, tchrUsr := testutil.CreateTeacher(t, at.usrRepo, at.schRepo, cur.School.ID, "Progress Teacher")
	std, stdUsr := testutil.CreateStudent(t, at.usrRepo, at.schRepo, cur.Class, "Progress Student")
	first := testutil.CreateContent(t, at.curRepo, cur.Topic.ID, 0, false)
	testutil.CreateContent(t, at.curRepo, cur.Topic.ID, 1, false)
	stdToken := at.token(t, stdUsr)
	tchrToken := at.token(t, tchrUsr)
	topicProgress := "/v1/students/me/topics/" + cur.Topic.ID + "/progress"

	at.run(t, []httpTest{
		{
			name: "untouched topic", path: topicProgress, token: stdToken, wantCode: http.StatusOK,
			wantData: progress.TopicProgress{StudentID: std.ID, TopicID: cur.Topic.ID},
		},
		{
			name: "teachers have no progress", method: http.MethodPut, path: "/v1/contents/" + first.ID + "/completion",
			token: tchrToken, wantCode: http.StatusForbidden,
		},
		{name: "unknown content", method: http.MethodPut, path: "/v1/contents/nope/completion", token: stdToken, wantCode: http.StatusNotFound},
	})

	rec := at.do(t, http.MethodPut, "/v1/contents/"+first.ID+"/completion", stdToken, echoapi.CompletionRequest{})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var p progress.TopicProgress
	decode(t, rec, &p)
	assert.Equal(t, float64(50), p.CompletionPercentage)
	assert.False(t, p.IsCompleted)

	rec = at.do(t, http.MethodGet, topicProgress, stdToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decode(t, rec, &p)
	assert.Equal(t, float64(50), p.CompletionPercentage)

	rec = at.do(t, http.MethodGet, "/v1/students/me/dashboard", stdToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var dash progress.Dashboard
	decode(t, rec, &dash)
	require.Len(t, dash.Subjects, 1)
	assert.Equal(t, float64(50), dash.Subjects[0].CompletionPercentage)
	require.Len(t, dash.RecentTopics, 1)
	assert.Equal(t, cur.Topic.ID, dash.RecentTopics[0].TopicID)

	// topic completion is a shared flag set by the staff
	done := false
	rec = at.do(t, http.MethodPut, "/v1/topics/"+cur.Topic.ID+"/completion", tchrToken, echoapi.CompletionRequest{IsCompleted: &done})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var tpc curriculum.Topic
	decode(t, rec, &tpc)
	assert.False(t, tpc.IsCompleted)

	at.run(t, []httpTest{
		{name: "students cannot flag topics", method: http.MethodPut, path: "/v1/topics/" + cur.Topic.ID + "/completion", token: stdToken, wantCode: http.StatusForbidden},
		{name: "dashboard needs a student", path: "/v1/students/me/dashboard", token: tchrToken, wantCode: http.StatusForbidden},
	})
}
