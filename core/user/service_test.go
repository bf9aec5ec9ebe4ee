package user_test

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnuragJha1954/lms/core"
	"github.com/AnuragJha1954/lms/core/user"
	emailsvc "github.com/AnuragJha1954/lms/services/email"
	sqlxrepos "github.com/AnuragJha1954/lms/storage/database/sqlx"
	"github.com/AnuragJha1954/lms/testutil"
)

type userTest struct {
	db      *sqlx.DB
	conf    *core.Config
	repo    user.Repository
	svc     user.Service
	mailSvc *emailsvc.ConsoleService
}

func setup(t *testing.T) *userTest {
	t.Helper()
	conf := core.NewTestConfig()
	db := testutil.PrepareDB(t)
	repo := sqlxrepos.NewUserRepository(db)
	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	return &userTest{
		db:      db,
		conf:    conf,
		repo:    repo,
		svc:     user.NewServiceMock(db, repo, mailSvc, conf),
		mailSvc: mailSvc,
	}
}

func TestService_Create(t *testing.T) {
	ut := setup(t)
	ctx := context.Background()

	usr, err := ut.svc.Create(ctx, user.NewUser{
		Name:     "  Grace Hopper ",
		Email:    "Grace@Navy.test",
		Password: testutil.Password,
		Role:     user.RoleMasterAdmin,
	})
	require.NoError(t, err)
	assert.Equal(t, "Grace Hopper", usr.Name)
	assert.Equal(t, "grace@navy.test", usr.Email)
	assert.Equal(t, user.AccountSchool, usr.AccountType)
	assert.True(t, usr.IsActive)
	assert.NoError(t, usr.CheckPassword(testutil.Password))

	_, err = ut.svc.Create(ctx, user.NewUser{Name: "Other", Email: "grace@navy.test", Password: testutil.Password, Role: user.RoleSchool})
	require.True(t, core.IsValidation(err), "unexpected error: %v", err)
	var vErr *core.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, user.ErrEmailExists, vErr.Err)
}

func TestService_Login(t *testing.T) {
	ut := setup(t)
	ctx := context.Background()
	active := testutil.CreateUser(t, ut.repo, "Active", "active@test.test", user.RoleTeacher, true)
	testutil.CreateUser(t, ut.repo, "Inactive", "inactive@test.test", user.RoleTeacher, false)

	tests := []struct {
		name      string
		email     string
		pwd       string
		wantCheck func(error) bool
		wantErr   error
	}{
		{name: "unknown email", email: "nobody@test.test", pwd: testutil.Password, wantCheck: core.IsValidation},
		{name: "wrong password", email: "active@test.test", pwd: "Wrong-Pass#1", wantCheck: core.IsValidation},
		{name: "inactive account", email: "inactive@test.test", pwd: testutil.Password, wantErr: user.ErrAccountDeactivated},
		{name: "email is case insensitive", email: " ACTIVE@test.test", pwd: testutil.Password},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, usr, err := ut.svc.Login(ctx, tt.email, tt.pwd)
			switch {
			case tt.wantCheck != nil:
				assert.True(t, tt.wantCheck(err), "unexpected error: %v", err)
			case tt.wantErr != nil:
				assert.Equal(t, tt.wantErr, errors.Cause(err))
			default:
				require.NoError(t, err)
				assert.NotEmpty(t, token.Key)
				assert.Equal(t, active.ID, usr.ID)
				assert.True(t, usr.LastLogin.Valid)
			}
		})
	}
}

func TestService_AuthenticateAndLogout(t *testing.T) {
	ut := setup(t)
	ctx := context.Background()
	usr := testutil.CreateUser(t, ut.repo, "Active", "active@test.test", user.RoleStudent, true)

	token, _, err := ut.svc.Login(ctx, usr.Email, testutil.Password)
	require.NoError(t, err)

	got, err := ut.svc.Authenticate(ctx, token.Key)
	require.NoError(t, err)
	assert.Equal(t, usr.ID, got.ID)

	_, err = ut.svc.Authenticate(ctx, "")
	assert.Equal(t, user.ErrInvalidToken, err)
	_, err = ut.svc.Authenticate(ctx, "not-a-token")
	assert.Equal(t, user.ErrInvalidToken, err)

	require.NoError(t, ut.svc.Logout(ctx, token.Key))
	_, err = ut.svc.Authenticate(ctx, token.Key)
	assert.Equal(t, user.ErrInvalidToken, err)
}

func TestService_AuthenticateExpired(t *testing.T) {
	ut := setup(t)
	ctx := context.Background()
	usr := testutil.CreateUser(t, ut.repo, "Active", "active@test.test", user.RoleStudent, true)

	old, err := ut.repo.CreateToken(ctx, user.AuthToken{
		Key:       "expiredtokenkey",
		UserID:    usr.ID,
		CreatedAt: time.Now().UTC().Add(-ut.conf.Auth.TokenExpirationDelta - time.Minute),
	})
	require.NoError(t, err)

	_, err = ut.svc.Authenticate(ctx, old.Key)
	assert.Equal(t, user.ErrInvalidToken, err)

	_, err = ut.repo.GetToken(ctx, old.Key)
	assert.Equal(t, user.ErrTokenNotFound, errors.Cause(err), "expired tokens are deleted")
}

func TestService_AuthenticateDeactivated(t *testing.T) {
	ut := setup(t)
	ctx := context.Background()
	usr := testutil.CreateUser(t, ut.repo, "Active", "active@test.test", user.RoleStudent, true)

	token, _, err := ut.svc.Login(ctx, usr.Email, testutil.Password)
	require.NoError(t, err)

	usr.IsActive = false
	_, err = ut.repo.UpdateUser(ctx, usr)
	require.NoError(t, err)

	_, err = ut.svc.Authenticate(ctx, token.Key)
	assert.Equal(t, user.ErrAccountDeactivated, err)
}

func TestService_RefreshToken(t *testing.T) {
	ut := setup(t)
	ctx := context.Background()
	usr := testutil.CreateUser(t, ut.repo, "Active", "active@test.test", user.RoleSchool, true)

	token, _, err := ut.svc.Login(ctx, usr.Email, testutil.Password)
	require.NoError(t, err)

	refreshed, err := ut.svc.RefreshToken(ctx, token.Key)
	require.NoError(t, err)
	assert.NotEqual(t, token.Key, refreshed.Key)

	_, err = ut.svc.Authenticate(ctx, token.Key)
	assert.Equal(t, user.ErrInvalidToken, err, "the old token is revoked")
	_, err = ut.svc.Authenticate(ctx, refreshed.Key)
	assert.NoError(t, err)

	// refresh window shorter than the token lifetime
	ut.conf.Auth.TokenRefreshExpirationDelta = time.Minute
	old, err := ut.repo.CreateToken(ctx, user.AuthToken{
		Key:       "oldtokenkey",
		UserID:    usr.ID,
		CreatedAt: time.Now().UTC().Add(-time.Hour),
	})
	require.NoError(t, err)
	_, err = ut.svc.RefreshToken(ctx, old.Key)
	assert.Equal(t, user.ErrRefreshExpired, err)
}

func TestService_PasswordReset(t *testing.T) {
	ut := setup(t)
	ctx := context.Background()
	usr := testutil.CreateUser(t, ut.repo, "Forgetful", "forgetful@test.test", user.RoleTeacher, true)
	testutil.CreateUser(t, ut.repo, "Inactive", "inactive@test.test", user.RoleTeacher, false)

	token, _, err := ut.svc.Login(ctx, usr.Email, testutil.Password)
	require.NoError(t, err)

	err = ut.svc.RequestPasswordReset(ctx, "nobody@test.test")
	assert.Equal(t, user.ErrNotFound, errors.Cause(err))
	err = ut.svc.RequestPasswordReset(ctx, "inactive@test.test")
	assert.Equal(t, user.ErrNotFound, errors.Cause(err))
	assert.Empty(t, ut.mailSvc.SentMessages())

	require.NoError(t, ut.svc.RequestPasswordReset(ctx, usr.Email))
	sent := ut.mailSvc.SentMessages()
	require.Len(t, sent, 1)
	assert.Equal(t, usr.Email, sent[0].To[0].Address)
	data, ok := sent[0].TemplateData.(map[string]string)
	require.True(t, ok)

	newPwd := "Fresh-Start#42"
	err = ut.svc.ResetPassword(ctx, user.ResetUserPassword{UID: data["UID"], Token: "bad-token-sig", Password: newPwd, PasswordConfirm: newPwd})
	assert.True(t, core.IsValidation(err), "unexpected error: %v", err)
	err = ut.svc.ResetPassword(ctx, user.ResetUserPassword{UID: "!!!", Token: data["Token"], Password: newPwd, PasswordConfirm: newPwd})
	assert.True(t, core.IsValidation(err), "unexpected error: %v", err)

	require.NoError(t, ut.svc.ResetPassword(ctx, user.ResetUserPassword{
		UID: data["UID"], Token: data["Token"], Password: newPwd, PasswordConfirm: newPwd,
	}))

	_, err = ut.svc.Authenticate(ctx, token.Key)
	assert.Equal(t, user.ErrInvalidToken, err, "a reset logs the user out")
	_, _, err = ut.svc.Login(ctx, usr.Email, testutil.Password)
	assert.True(t, core.IsValidation(err))
	_, _, err = ut.svc.Login(ctx, usr.Email, newPwd)
	assert.NoError(t, err)
}

func TestService_SetPassword(t *testing.T) {
	ut := setup(t)
	ctx := context.Background()
	usr := testutil.CreateUser(t, ut.repo, "Admin", "admin@test.test", user.RoleMasterAdmin, true)

	token, _, err := ut.svc.Login(ctx, usr.Email, testutil.Password)
	require.NoError(t, err)

	require.NoError(t, ut.svc.SetPassword(ctx, "ADMIN@test.test", "Another-Pass#7"))
	_, err = ut.svc.Authenticate(ctx, token.Key)
	assert.Equal(t, user.ErrInvalidToken, err)
	_, _, err = ut.svc.Login(ctx, usr.Email, "Another-Pass#7")
	assert.NoError(t, err)

	err = ut.svc.SetPassword(ctx, "nobody@test.test", "Another-Pass#7")
	assert.Equal(t, user.ErrNotFound, errors.Cause(err))
}
