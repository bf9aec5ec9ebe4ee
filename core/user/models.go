package user

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"
	"golang.org/x/crypto/bcrypt"

	"github.com/AnuragJha1954/lms/core"
)

// Roles
const (
	RoleMasterAdmin = "master_admin"
	RoleSchool      = "school"
	RoleTeacher     = "teacher"
	RoleStudent     = "student"
)

// Account types
const (
	AccountSchool   = "school"
	AccountPersonal = "personal"
)

var (
	AllRoles = []string{RoleMasterAdmin, RoleSchool, RoleTeacher, RoleStudent}

	Roles = []Role{
		{Name: "Master Admin", Value: RoleMasterAdmin},
		{Name: "School", Value: RoleSchool},
		{Name: "Teacher", Value: RoleTeacher},
		{Name: "Student", Value: RoleStudent},
	}
)

type Role struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	AccountType  string    `json:"account_type"`
	IsActive     bool      `json:"is_active"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
	LastLogin    null.Time `json:"last_login"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

// HasAnyRole reports whether the user holds one of roles. Master admins hold every role.
func (u User) HasAnyRole(roles ...string) bool {
	if u.Role == RoleMasterAdmin || len(roles) == 0 {
		return true
	}
	for _, role := range roles {
		if u.Role == role {
			return true
		}
	}
	return false
}

func (u User) IsMasterAdmin() bool { return u.Role == RoleMasterAdmin }
func (u User) IsSchool() bool      { return u.Role == RoleSchool }
func (u User) IsTeacher() bool     { return u.Role == RoleTeacher }
func (u User) IsStudent() bool     { return u.Role == RoleStudent }

// AuthToken is an opaque bearer token issued on login.
type AuthToken struct {
	Key       string    `json:"token"`
	UserID    string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

func (t AuthToken) ExpiresAt(delta time.Duration) time.Time {
	return t.CreatedAt.Add(delta)
}

// NewUser contains information needed to create a new User.
type NewUser struct {
	Name            string `json:"name" validate:"required,max=150"`
	Email           string `json:"email" validate:"required,email,max=254"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
	Role            string `json:"role" validate:"required,oneof=master_admin school teacher student"`
	AccountType     string `json:"account_type" validate:"omitempty,oneof=school personal"`
}

func (nu *NewUser) Clean() {
	nu.Name = core.CleanString(nu.Name)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	if nu.AccountType == "" {
		nu.AccountType = AccountSchool
	}
}

func (nu *NewUser) Validate(validate *validator.Validate) error {
	nu.Clean()
	return validate.Struct(nu)
}

type ResetUserPassword struct {
	Token           string `json:"token,omitempty" validate:"required"`
	UID             string `json:"uid,omitempty" validate:"required"`
	Password        string `json:"password,omitempty" validate:"required"`
	PasswordConfirm string `json:"password_confirm,omitempty" validate:"required,eqfield=Password"`
}

func (rp *ResetUserPassword) Validate(validate *validator.Validate) error {
	rp.Token = core.CleanString(rp.Token)
	rp.UID = core.CleanString(rp.UID)
	return validate.Struct(rp)
}
