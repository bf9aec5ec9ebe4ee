package user

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnuragJha1954/lms/core"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

func TestCheckPassword(t *testing.T) {
	LoadCommonPasswords(nopLogger{})

	tests := []struct {
		name  string
		pwd   string
		attrs []string
		want  string
	}{
		{name: "too short", pwd: "Ab1#", want: pwdMinLenTag},
		{name: "whitespace", pwd: "Abcd 123#", want: pwdNoSpaceTag},
		{name: "all numeric", pwd: "1234567890", want: pwdNotAllNumTag},
		{name: "no special", pwd: "Abcdef123", want: pwdComplexityTag},
		{name: "no upper", pwd: "abcdef12#", want: pwdComplexityTag},
		{name: "similar to email", pwd: "John.Doe1@test", attrs: []string{"john.doe1@test.test"}, want: pwdAttrSimTag},
		{name: "ok", pwd: "Lms-Test#2024", attrs: []string{"Grace Hopper", "grace@navy.test"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, checkPassword(tt.pwd, tt.attrs...))
		})
	}
}

func TestNewUser_Validate(t *testing.T) {
	validate, translator := core.NewValidator()
	InitValidators(validate, translator)

	nu := NewUser{
		Name:            "Grace",
		Email:           " GRACE@navy.test ",
		Password:        "short",
		PasswordConfirm: "short",
		Role:            RoleTeacher,
	}
	err := nu.Validate(validate)
	require.Error(t, err)
	assert.Equal(t, "grace@navy.test", nu.Email)

	nu.Password, nu.PasswordConfirm = "Lms-Test#2024", "Lms-Test#2024"
	assert.NoError(t, nu.Validate(validate))

	nu.Role = "janitor"
	assert.Error(t, nu.Validate(validate))
}
