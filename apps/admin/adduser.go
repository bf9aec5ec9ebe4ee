package main

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/AnuragJha1954/lms/core"
	"github.com/AnuragJha1954/lms/core/user"
)

// addUser creates a user.User, or resets the password of the existing one.
func (cli *commandLine) addUser(name, email, role, pwd string) error {
	ctx := context.Background()
	email = core.CleanString(email, true /* lower */)

	_, err := cli.usrSvc.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return cli.usrSvc.SetPassword(ctx, email, pwd)
	case errors.Cause(err) != user.ErrNotFound:
		return err
	}

	nu := user.NewUser{
		Name:            name,
		Email:           email,
		Password:        pwd,
		PasswordConfirm: pwd,
		Role:            role,
		AccountType:     user.AccountPersonal,
	}
	if err = nu.Validate(cli.validate); err != nil {
		return cli.describe(err)
	}
	_, err = cli.usrSvc.Create(ctx, nu)
	return err
}

// describe flattens validation errors into a single readable error.
func (cli *commandLine) describe(err error) error {
	var vErrs validator.ValidationErrors
	if !errors.As(err, &vErrs) {
		return err
	}
	msgs := make([]string, 0, len(vErrs))
	for fld, msg := range core.TranslateValidationErrors(vErrs, cli.translator) {
		msgs = append(msgs, fmt.Sprintf("%s: %s", fld, msg))
	}
	sort.Strings(msgs)
	return errors.New(strings.Join(msgs, "; "))
}
