package user

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/AnuragJha1954/lms/core"
)

var (
	// errors
	ErrNotFound             = core.NewNotFoundError("user not found")
	ErrTokenNotFound        = core.NewNotFoundError("token not found")
	ErrEmailExists          = errors.New("a user with this email already exists")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrAccountDeactivated   = errors.New("account deactivated")
	ErrInvalidToken         = errors.New("invalid or expired token")
	ErrRefreshExpired       = errors.New("refresh has expired")
	ErrInvalidPasswordReset = errors.New("invalid password reset link")
)

type (
	Repository interface {
		CreateUser(ctx context.Context, usr User, exec ...core.DBExecutor) (User, error)
		GetUserByID(ctx context.Context, id string, exec ...core.DBExecutor) (User, error)
		GetUserByEmail(ctx context.Context, email string, exec ...core.DBExecutor) (User, error)
		UpdateUser(ctx context.Context, usr User, exec ...core.DBExecutor) (User, error)
		CreateToken(ctx context.Context, token AuthToken, exec ...core.DBExecutor) (AuthToken, error)
		GetToken(ctx context.Context, key string, exec ...core.DBExecutor) (AuthToken, error)
		DeleteToken(ctx context.Context, key string, exec ...core.DBExecutor) error
		DeleteUserTokens(ctx context.Context, userID string, exec ...core.DBExecutor) error
	}

	Service interface {
		Create(ctx context.Context, nu NewUser, exec ...core.DBExecutor) (User, error)
		GetByID(ctx context.Context, id string) (User, error)
		GetByEmail(ctx context.Context, email string) (User, error)
		Login(ctx context.Context, email, pwd string) (AuthToken, User, error)
		Logout(ctx context.Context, key string) error
		RefreshToken(ctx context.Context, key string) (AuthToken, error)
		Authenticate(ctx context.Context, key string) (User, error)
		RequestPasswordReset(ctx context.Context, email string) error
		ResetPassword(ctx context.Context, data ResetUserPassword) error
		// SetPassword replaces the password of the user owning email, and revokes all of their tokens.
		SetPassword(ctx context.Context, email, pwd string) error
	}

	service struct {
		db      core.DB
		repo    Repository
		mailSvc core.EmailService
		conf    *core.Config
		tokens  passwordResetTokens
	}
)

var _ Service = (*service)(nil)

func NewService(db core.DB, repo Repository, mailSvc core.EmailService, conf *core.Config) Service {
	return newService(db, repo, mailSvc, conf)
}

func newService(db core.DB, repo Repository, mailSvc core.EmailService, conf *core.Config) *service {
	return &service{
		db:      db,
		repo:    repo,
		mailSvc: mailSvc,
		conf:    conf,
		tokens: passwordResetTokens{
			secretKey: []byte(conf.SecretKey),
			timeout:   conf.PasswordResetTimeoutDelta,
		},
	}
}

func (svc *service) checkUniqueness(ctx context.Context, email string, exec ...core.DBExecutor) error {
	_, err := svc.repo.GetUserByEmail(ctx, email, exec...)
	switch {
	case err == nil:
		return core.NewValidationError(ErrEmailExists, core.FieldError{Field: "email", Error: ErrEmailExists.Error()})
	case errors.Cause(err) == ErrNotFound:
		return nil
	default:
		return errors.Wrap(err, "checking email uniqueness")
	}
}

// Create creates a new active User. nu must have been validated.
func (svc *service) Create(ctx context.Context, nu NewUser, exec ...core.DBExecutor) (User, error) {
	nu.Clean()
	if err := svc.checkUniqueness(ctx, nu.Email, exec...); err != nil {
		return User{}, err
	}

	now := time.Now().UTC()
	usr := User{
		Name:        nu.Name,
		Email:       nu.Email,
		Role:        nu.Role,
		AccountType: nu.AccountType,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "setting password")
	}
	return svc.repo.CreateUser(ctx, usr, exec...)
}

func (svc *service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUserByID(ctx, id)
}

func (svc *service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUserByEmail(ctx, core.CleanString(email, true /* lower */))
}

func newTokenKey() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Login checks the credentials and issues a new AuthToken.
func (svc *service) Login(ctx context.Context, email, pwd string) (AuthToken, User, error) {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return AuthToken{}, User{}, core.NewValidationError(ErrInvalidCredentials)
		}
		return AuthToken{}, User{}, errors.Wrap(err, "finding user by email")
	}
	if err = usr.CheckPassword(pwd); err != nil {
		return AuthToken{}, User{}, core.NewValidationError(ErrInvalidCredentials)
	}
	if !usr.IsActive {
		return AuthToken{}, User{}, ErrAccountDeactivated
	}

	var token AuthToken
	err = core.WithTx(ctx, svc.db, func(tx core.DBExecutor) error {
		now := time.Now().UTC()
		usr.LastLogin = null.TimeFrom(now)
		usr.UpdatedAt = now
		if usr, err = svc.repo.UpdateUser(ctx, usr, tx); err != nil {
			return errors.Wrap(err, "setting last login")
		}
		token, err = svc.repo.CreateToken(ctx, AuthToken{Key: newTokenKey(), UserID: usr.ID, CreatedAt: now}, tx)
		return errors.Wrap(err, "creating token")
	})
	if err != nil {
		return AuthToken{}, User{}, err
	}
	return token, usr, nil
}

func (svc *service) Logout(ctx context.Context, key string) error {
	err := svc.repo.DeleteToken(ctx, key)
	return errors.Wrap(err, "deleting token")
}

// RefreshToken swaps a live token for a new one, as long as the token was issued within the refresh window.
func (svc *service) RefreshToken(ctx context.Context, key string) (AuthToken, error) {
	usr, token, err := svc.authenticate(ctx, key)
	if err != nil {
		return AuthToken{}, err
	}
	if time.Now().After(token.ExpiresAt(svc.conf.Auth.TokenRefreshExpirationDelta)) {
		return AuthToken{}, ErrRefreshExpired
	}

	var newToken AuthToken
	err = core.WithTx(ctx, svc.db, func(tx core.DBExecutor) error {
		if err := svc.repo.DeleteToken(ctx, token.Key, tx); err != nil {
			return errors.Wrap(err, "deleting token")
		}
		newToken, err = svc.repo.CreateToken(ctx, AuthToken{Key: newTokenKey(), UserID: usr.ID, CreatedAt: time.Now().UTC()}, tx)
		return errors.Wrap(err, "creating token")
	})
	return newToken, err
}

// Authenticate resolves the User owning the bearer token key.
func (svc *service) Authenticate(ctx context.Context, key string) (User, error) {
	usr, _, err := svc.authenticate(ctx, key)
	return usr, err
}

func (svc *service) authenticate(ctx context.Context, key string) (User, AuthToken, error) {
	if key == "" {
		return User{}, AuthToken{}, ErrInvalidToken
	}
	token, err := svc.repo.GetToken(ctx, key)
	if err != nil {
		if errors.Cause(err) == ErrTokenNotFound {
			return User{}, AuthToken{}, ErrInvalidToken
		}
		return User{}, AuthToken{}, errors.Wrap(err, "finding token")
	}
	if time.Now().After(token.ExpiresAt(svc.conf.Auth.TokenExpirationDelta)) {
		if err = svc.repo.DeleteToken(ctx, token.Key); err != nil {
			return User{}, AuthToken{}, errors.Wrap(err, "deleting expired token")
		}
		return User{}, AuthToken{}, ErrInvalidToken
	}

	usr, err := svc.repo.GetUserByID(ctx, token.UserID)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return User{}, AuthToken{}, ErrInvalidToken
		}
		return User{}, AuthToken{}, errors.Wrap(err, "finding user by ID")
	}
	if !usr.IsActive {
		return User{}, AuthToken{}, ErrAccountDeactivated
	}
	return usr, token, nil
}

func (svc *service) RequestPasswordReset(ctx context.Context, email string) error {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if !usr.IsActive {
		return ErrNotFound
	}
	go svc.sendPasswordResetMail(usr)
	return nil
}

func (svc *service) sendPasswordResetMail(usr User) {
	token, err := svc.tokens.makeToken(usr)
	if err != nil {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:      "Password Reset",
		TemplateName: "password_reset",
		TemplateData: map[string]string{
			"Name":  usr.Name,
			"UID":   encodeUID(usr),
			"Token": token,
		},
	})
}

// ResetPassword sets a new password when the reset link is valid, and logs the user out everywhere.
func (svc *service) ResetPassword(ctx context.Context, data ResetUserPassword) error {
	id, err := decodeUID(data.UID)
	if err != nil {
		return core.NewValidationError(ErrInvalidPasswordReset)
	}
	usr, err := svc.repo.GetUserByID(ctx, id)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return core.NewValidationError(ErrInvalidPasswordReset)
		}
		return errors.Wrap(err, "finding user by ID")
	}
	if err = svc.tokens.verifyToken(usr, data.Token); err != nil {
		if err == errInvalidToken || err == errTokenExpired {
			return core.NewValidationError(ErrInvalidPasswordReset, core.FieldError{Field: "token", Error: err.Error()})
		}
		return errors.Wrap(err, "verifying token")
	}

	return svc.setPassword(ctx, usr, data.Password)
}

func (svc *service) SetPassword(ctx context.Context, email, pwd string) error {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	return svc.setPassword(ctx, usr, pwd)
}

func (svc *service) setPassword(ctx context.Context, usr User, pwd string) error {
	if err := usr.SetPassword(pwd); err != nil {
		return errors.Wrap(err, "setting password")
	}
	usr.UpdatedAt = time.Now().UTC()
	return core.WithTx(ctx, svc.db, func(tx core.DBExecutor) error {
		if _, err := svc.repo.UpdateUser(ctx, usr, tx); err != nil {
			return errors.Wrap(err, "updating user")
		}
		return errors.Wrap(svc.repo.DeleteUserTokens(ctx, usr.ID, tx), "deleting user tokens")
	})
}
