package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/AnuragJha1954/lms/core"
	"github.com/AnuragJha1954/lms/core/user"
	emailsvc "github.com/AnuragJha1954/lms/services/email"
	logsvc "github.com/AnuragJha1954/lms/services/logger"
	sqlxrepos "github.com/AnuragJha1954/lms/storage/database/sqlx"
	"github.com/AnuragJha1954/lms/testutil"
)

var usrRepo user.Repository

func setup(t *testing.T) *commandLine {
	conf := core.NewTestConfig()
	db := testutil.PrepareDB(t)
	usrRepo = sqlxrepos.NewUserRepository(db)

	validate, translator := core.NewValidator()
	user.InitValidators(validate, translator)
	user.LoadCommonPasswords(logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), conf))

	// start CLI
	return &commandLine{
		db:         db,
		usrSvc:     user.NewServiceMock(db, usrRepo, emailsvc.NewConsoleServiceMock(conf), conf),
		validate:   validate,
		translator: translator,
	}
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	extra      interface{}
}

func mockPassword(pwd string) {
	readPasswordFunc = func(fd int) ([]byte, error) {
		return []byte(pwd), nil
	}
}

func Test_commandLine_migrate(t *testing.T) {
	cli := setup(t)

	gooseRunFunc = func(db *sqlx.DB, command string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: goose [OPTIONS] DRIVER DBSTRING %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErrStr: "create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "create", args: []string{"migrate", "create", "attendance", "sql"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			if err := cli.run(args); err != nil {
				if tt.wantErr != nil {
					if err != tt.wantErr {
						t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
					}
				} else if tt.wantErrStr != "" {
					if err.Error() != tt.wantErrStr {
						t.Errorf("cli.run() error.Error() = %s, wantErrStr %s", err.Error(), tt.wantErrStr)
					}
				} else {
					t.Errorf("cli.run() unexpected error = %v", err)
				}
			} else if tt.wantErr != nil || tt.wantErrStr != "" {
				t.Errorf("cli.run() expected an error")
			}
		})
	}
}

func Test_commandLine_migrateRuns(t *testing.T) {
	cli := setup(t)
	var gotDB *sqlx.DB
	var gotCmd string
	gooseRunFunc = func(db *sqlx.DB, command string, args ...string) error {
		gotDB, gotCmd = db, command
		return nil
	}

	if err := cli.run([]string{"admin", "migrate", "status"}); err != nil {
		t.Fatalf("cli.run() unexpected error = %v", err)
	}
	if gotDB != cli.db || gotCmd != "status" {
		t.Errorf("gooseRunFunc() got (%p, %s), want (%p, status)", gotDB, gotCmd, cli.db)
	}
}

func Test_commandLine_addUser(t *testing.T) {
	cli := setup(t)
	ctx := context.Background()

	existing := testutil.CreateUser(t, usrRepo, "Existing", "existing@lms.test", user.RoleSchool, true)

	type extra struct {
		pwd string
	}
	tests := []cliTest{
		{name: "no args", args: []string{"adduser"}, wantErr: errHelp},
		{name: "no name", args: []string{"adduser", "-email", "root@lms.test"}, extra: extra{pwd: testutil.Password}, wantErr: errHelp},
		{name: "no password", args: []string{"adduser", "-email", "root@lms.test", "-name", "Root"}, wantErr: errHelp},
		{
			name: "weak password", args: []string{"adduser", "-email", "root@lms.test", "-name", "Root"},
			extra: extra{pwd: "weak"}, wantErrStr: "password",
		},
		{
			name: "unknown role", args: []string{"adduser", "-email", "root@lms.test", "-name", "Root", "-role", "janitor"},
			extra: extra{pwd: testutil.Password}, wantErrStr: "role",
		},
		{name: "create", args: []string{"adduser", "-email", "Root@LMS.test", "-name", "Root"}, extra: extra{pwd: testutil.Password}},
		{
			name: "existing email resets the password", args: []string{"adduser", "-email", existing.Email, "-name", "Whatever"},
			extra: extra{pwd: "Another-One#5"},
		},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)
		pwd := ""
		if extra, ok := tt.extra.(extra); ok {
			pwd = extra.pwd
		}
		mockPassword(pwd)

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			switch {
			case tt.wantErr != nil:
				if err != tt.wantErr {
					t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
				}
			case tt.wantErrStr != "":
				if err == nil || !strings.Contains(err.Error(), tt.wantErrStr) {
					t.Errorf("cli.run() error = %v, want it to mention %q", err, tt.wantErrStr)
				}
			case err != nil:
				t.Errorf("cli.run() unexpected error = %v", err)
			}
		})
	}

	root, err := usrRepo.GetUserByEmail(ctx, "root@lms.test")
	if err != nil {
		t.Fatalf("GetUserByEmail() failed: %v", err)
	}
	if root.Role != user.RoleMasterAdmin || root.AccountType != user.AccountPersonal {
		t.Errorf("created user role = %s, account = %s", root.Role, root.AccountType)
	}
	if err = root.CheckPassword(testutil.Password); err != nil {
		t.Errorf("created user has the wrong password: %v", err)
	}

	refreshed, err := usrRepo.GetUserByID(ctx, existing.ID)
	if err != nil {
		t.Fatalf("GetUserByID() failed: %v", err)
	}
	if refreshed.Name != existing.Name || refreshed.Role != existing.Role {
		t.Error("adduser must only reset the password of an existing user")
	}
	if err = refreshed.CheckPassword("Another-One#5"); err != nil {
		t.Errorf("existing user password not reset: %v", err)
	}
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli := setup(t)

	usr := testutil.CreateUser(t, usrRepo, "User", "awe@test.cd", user.RoleTeacher, true)

	type extra struct {
		pwd string
	}
	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "email but no password", args: []string{"resetpassword", "-email", "lol@test.cd"}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "-email", "lol@test.cd"}, extra: extra{pwd: "lol"}, wantErr: user.ErrNotFound},
		{name: "reset", args: []string{"resetpassword", "-email", usr.Email}, extra: extra{pwd: "lmao"}},
		{name: "reset with uppercase email", args: []string{"resetpassword", "-email", strings.ToUpper(usr.Email)}, extra: extra{pwd: "lmfao"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		readPasswordFunc = func(fd int) ([]byte, error) {
			if extra, ok := tt.extra.(extra); ok {
				return []byte(extra.pwd), nil
			}
			return nil, nil
		}

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			if err == nil {
				refreshedUsr, err := usrRepo.GetUserByID(context.Background(), usr.ID)
				if err != nil {
					t.Fatalf("GetUserByID() failed, %v", err)
				}
				if bytes.Equal(refreshedUsr.PasswordHash, usr.PasswordHash) {
					t.Error("failed to update new password")
				}
				usr = refreshedUsr
			} else if errors.Cause(err) != tt.wantErr {
				t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
