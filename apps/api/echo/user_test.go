package echoapi_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/AnuragJha1954/lms/apps/api/echo"
	"github.com/AnuragJha1954/lms/core/user"
	"github.com/AnuragJha1954/lms/testutil"
)

var errNotAuthenticated = httpErr{Error: "user not authenticated"}

func Test_authApi_login(t *testing.T) {
	at := setup(t)
	usr := testutil.CreateUser(t, at.usrRepo, "Teacher", "teacher@test.test", user.RoleTeacher, true)
	testutil.CreateUser(t, at.usrRepo, "Gone", "gone@test.test", user.RoleTeacher, false)

	at.run(t, []httpTest{
		{
			name: "invalid body", method: http.MethodPost, path: "/v1/auth/login",
			body: echoapi.LoginRequest{Email: "not-an-email"}, wantCode: http.StatusBadRequest,
		},
		{
			name: "wrong password", method: http.MethodPost, path: "/v1/auth/login",
			body:     echoapi.LoginRequest{Email: usr.Email, Password: "Wrong-Pass#1"},
			wantCode: http.StatusBadRequest, wantData: httpErr{Error: user.ErrInvalidCredentials.Error()},
		},
		{
			name: "deactivated", method: http.MethodPost, path: "/v1/auth/login",
			body:     echoapi.LoginRequest{Email: "gone@test.test", Password: testutil.Password},
			wantCode: http.StatusForbidden, wantData: httpErr{Error: "account deactivated"},
		},
	})

	rec := at.do(t, http.MethodPost, "/v1/auth/login", "", echoapi.LoginRequest{Email: " TEACHER@test.test", Password: testutil.Password})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp echoapi.LoginResponse
	decode(t, rec, &resp)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, usr.ID, resp.User.ID)
}

func Test_authApi_session(t *testing.T) {
	at := setup(t)
	usr := testutil.CreateUser(t, at.usrRepo, "Student", "student@test.test", user.RoleStudent, true)
	token := at.token(t, usr)

	at.run(t, []httpTest{
		{name: "no token", path: "/v1/auth/me", wantCode: http.StatusUnauthorized, wantData: errNotAuthenticated},
		{name: "bad token", path: "/v1/auth/me", token: "nope", wantCode: http.StatusUnauthorized, wantData: errNotAuthenticated},
		{name: "me", path: "/v1/auth/me", token: token, wantCode: http.StatusOK},
	})

	rec := at.do(t, http.MethodPost, "/v1/auth/token-refresh", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var refreshed echoapi.LoginResponse
	decode(t, rec, &refreshed)
	assert.NotEqual(t, token, refreshed.Token)

	at.run(t, []httpTest{
		{name: "old token revoked", path: "/v1/auth/me", token: token, wantCode: http.StatusUnauthorized},
		{name: "logout", method: http.MethodPost, path: "/v1/auth/logout", token: refreshed.Token, wantCode: http.StatusNoContent},
		{name: "logged out", path: "/v1/auth/me", token: refreshed.Token, wantCode: http.StatusUnauthorized},
	})
}

func Test_authApi_passwordReset(t *testing.T) {
	at := setup(t)
	usr := testutil.CreateUser(t, at.usrRepo, "Forgetful", "forgetful@test.test", user.RoleSchool, true)

	// unknown emails get the same answer
	for _, email := range []string{"nobody@test.test", usr.Email} {
		rec := at.do(t, http.MethodPost, "/v1/auth/password-reset", "", echoapi.PasswordResetRequest{Email: email})
		assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}
	sent := at.mailSvc.SentMessages()
	require.Len(t, sent, 1)
	data := sent[0].TemplateData.(map[string]string)

	newPwd := "Brand-New#99"
	at.run(t, []httpTest{
		{
			name: "bad token", method: http.MethodPost, path: "/v1/auth/password-reset-confirm",
			body:     user.ResetUserPassword{UID: data["UID"], Token: "bad-token-sig", Password: newPwd, PasswordConfirm: newPwd},
			wantCode: http.StatusBadRequest,
		},
		{
			name: "weak password", method: http.MethodPost, path: "/v1/auth/password-reset-confirm",
			body:     user.ResetUserPassword{UID: data["UID"], Token: data["Token"], Password: "weak", PasswordConfirm: "weak"},
			wantCode: http.StatusBadRequest,
		},
		{
			name: "reset", method: http.MethodPost, path: "/v1/auth/password-reset-confirm",
			body:     user.ResetUserPassword{UID: data["UID"], Token: data["Token"], Password: newPwd, PasswordConfirm: newPwd},
			wantCode: http.StatusOK,
		},
		{
			name: "login with new password", method: http.MethodPost, path: "/v1/auth/login",
			body: echoapi.LoginRequest{Email: usr.Email, Password: newPwd}, wantCode: http.StatusOK,
		},
	})
}
