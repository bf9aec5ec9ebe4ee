package school

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/AnuragJha1954/lms/core"
	"github.com/AnuragJha1954/lms/core/user"
)

type School struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

type Class struct {
	ID        string    `json:"id"`
	SchoolID  string    `json:"school_id"`
	Name      string    `json:"name"`
	Section   string    `json:"section"`
	CreatedAt time.Time `json:"created_at"`
}

type TeacherProfile struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	SchoolID  string    `json:"school_id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

type StudentProfile struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	SchoolID         string    `json:"school_id"`
	ClassID          string    `json:"class_id"`
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	DOB              null.Time `json:"dob"`
	Address          string    `json:"address"`
	Phone            string    `json:"phone"`
	Gender           string    `json:"gender"`
	GuardianName     string    `json:"guardian_name"`
	EmergencyContact string    `json:"emergency_contact"`
	CreatedAt        time.Time `json:"created_at"`
}

// NewSchool contains information needed to register a school and its account.
type NewSchool struct {
	Name            string `json:"name" validate:"required,max=255"`
	Address         string `json:"address"`
	Phone           string `json:"phone" validate:"omitempty,phone"`
	Email           string `json:"email" validate:"required,email,max=254"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
}

func (ns *NewSchool) Validate(validate *validator.Validate) error {
	ns.Name = core.CleanString(ns.Name)
	ns.Address = core.CleanString(ns.Address)
	ns.Phone = core.CleanString(ns.Phone)
	ns.Email = core.CleanString(ns.Email, true /* lower */)
	if err := validate.Struct(ns); err != nil {
		return err
	}
	nu := ns.user()
	return nu.Validate(validate)
}

func (ns NewSchool) user() user.NewUser {
	return user.NewUser{
		Name:            ns.Name,
		Email:           ns.Email,
		Password:        ns.Password,
		PasswordConfirm: ns.PasswordConfirm,
		Role:            user.RoleSchool,
		AccountType:     user.AccountSchool,
	}
}

type NewClass struct {
	Name    string `json:"name" validate:"required,max=100"`
	Section string `json:"section" validate:"omitempty,max=20,alphanum_"`
}

func (nc *NewClass) Validate(validate *validator.Validate) error {
	nc.Name = core.CleanString(nc.Name)
	nc.Section = core.CleanString(nc.Section)
	return validate.Struct(nc)
}

type NewTeacher struct {
	Name            string `json:"name" validate:"required,max=150"`
	Email           string `json:"email" validate:"required,email,max=254"`
	Phone           string `json:"phone" validate:"omitempty,phone"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
}

func (nt *NewTeacher) Validate(validate *validator.Validate) error {
	nt.Name = core.CleanString(nt.Name)
	nt.Email = core.CleanString(nt.Email, true /* lower */)
	nt.Phone = core.CleanString(nt.Phone)
	if err := validate.Struct(nt); err != nil {
		return err
	}
	nu := nt.user()
	return nu.Validate(validate)
}

func (nt NewTeacher) user() user.NewUser {
	return user.NewUser{
		Name:            nt.Name,
		Email:           nt.Email,
		Password:        nt.Password,
		PasswordConfirm: nt.PasswordConfirm,
		Role:            user.RoleTeacher,
		AccountType:     user.AccountSchool,
	}
}

type NewStudent struct {
	ClassID          string     `json:"class_id" validate:"required"`
	Name             string     `json:"name" validate:"required,max=150"`
	Email            string     `json:"email" validate:"required,email,max=254"`
	Password         string     `json:"password" validate:"required"`
	PasswordConfirm  string     `json:"password_confirm" validate:"required,eqfield=Password"`
	DOB              *time.Time `json:"dob"`
	Address          string     `json:"address"`
	Phone            string     `json:"phone" validate:"omitempty,phone"`
	Gender           string     `json:"gender" validate:"omitempty,oneof=male female other"`
	GuardianName     string     `json:"guardian_name" validate:"omitempty,max=150"`
	EmergencyContact string     `json:"emergency_contact" validate:"omitempty,phone"`
}

func (ns *NewStudent) Validate(validate *validator.Validate) error {
	ns.ClassID = core.CleanString(ns.ClassID)
	ns.Name = core.CleanString(ns.Name)
	ns.Email = core.CleanString(ns.Email, true /* lower */)
	ns.Address = core.CleanString(ns.Address)
	ns.Phone = core.CleanString(ns.Phone)
	ns.Gender = core.CleanString(ns.Gender, true /* lower */)
	ns.GuardianName = core.CleanString(ns.GuardianName)
	ns.EmergencyContact = core.CleanString(ns.EmergencyContact)
	if err := validate.Struct(ns); err != nil {
		return err
	}
	nu := ns.user()
	return nu.Validate(validate)
}

func (ns NewStudent) user() user.NewUser {
	return user.NewUser{
		Name:            ns.Name,
		Email:           ns.Email,
		Password:        ns.Password,
		PasswordConfirm: ns.PasswordConfirm,
		Role:            user.RoleStudent,
		AccountType:     user.AccountSchool,
	}
}
