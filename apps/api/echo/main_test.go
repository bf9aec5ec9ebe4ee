package echoapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/AnuragJha1954/lms/apps/api/echo"
	"github.com/AnuragJha1954/lms/core"
	"github.com/AnuragJha1954/lms/core/curriculum"
	"github.com/AnuragJha1954/lms/core/progress"
	"github.com/AnuragJha1954/lms/core/quiz"
	"github.com/AnuragJha1954/lms/core/school"
	"github.com/AnuragJha1954/lms/core/user"
	emailsvc "github.com/AnuragJha1954/lms/services/email"
	logsvc "github.com/AnuragJha1954/lms/services/logger"
	sqlxrepos "github.com/AnuragJha1954/lms/storage/database/sqlx"
	"github.com/AnuragJha1954/lms/testutil"
)

type apiTest struct {
	srv     *echoapi.Server
	usrSvc  user.Service
	usrRepo user.Repository
	schRepo school.Repository
	curRepo curriculum.Repository
	mailSvc *emailsvc.ConsoleService
}

func setup(t *testing.T) *apiTest {
	t.Helper()
	conf := core.NewTestConfig()
	db := testutil.PrepareDB(t)
	logger := logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), conf)

	usrRepo := sqlxrepos.NewUserRepository(db)
	schRepo := sqlxrepos.NewSchoolRepository(db)
	curRepo := sqlxrepos.NewCurriculumRepository(db)
	mailSvc := emailsvc.NewConsoleServiceMock(conf)

	validate, translator := core.NewValidator()
	user.InitValidators(validate, translator)
	user.LoadCommonPasswords(logger)

	usrSvc := user.NewServiceMock(db, usrRepo, mailSvc, conf)
	srv := echoapi.NewServer(echoapi.ServerDeps{
		Conf:          conf,
		Logger:        logger,
		Validate:      validate,
		Translator:    translator,
		UserSvc:       usrSvc,
		SchoolSvc:     school.NewService(db, schRepo, usrSvc, mailSvc),
		CurriculumSvc: curriculum.NewService(curRepo, schRepo),
		ProgressSvc:   progress.NewService(db, sqlxrepos.NewProgressRepository(db), curRepo, schRepo),
		QuizSvc:       quiz.NewServiceMock(db, sqlxrepos.NewQuizRepository(db), curRepo, schRepo, mailSvc),
	})
	return &apiTest{
		srv:     srv,
		usrSvc:  usrSvc,
		usrRepo: usrRepo,
		schRepo: schRepo,
		curRepo: curRepo,
		mailSvc: mailSvc,
	}
}

// token logs usr in with the fixture password.
func (at *apiTest) token(t *testing.T, usr user.User) string {
	t.Helper()
	token, _, err := at.usrSvc.Login(context.Background(), usr.Email, testutil.Password)
	require.NoError(t, err)
	return token.Key
}

func (at *apiTest) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	at.srv.ServeHTTP(rec, req)
	return rec
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     interface{}
	token    string
	wantCode int
	wantData interface{}
}

func (at *apiTest) run(t *testing.T, tests []httpTest) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			method := tt.method
			if method == "" {
				method = http.MethodGet
			}
			rec := at.do(t, method, tt.path, tt.token, tt.body)
			assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			if tt.wantData != nil {
				want, err := json.Marshal(tt.wantData)
				require.NoError(t, err)
				assert.JSONEq(t, string(want), rec.Body.String())
			}
		})
	}
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}
