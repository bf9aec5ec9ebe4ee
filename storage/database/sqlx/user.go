package sqlxrepos

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/AnuragJha1954/lms/core"
	"github.com/AnuragJha1954/lms/core/user"
	"github.com/AnuragJha1954/lms/storage/database"
)

const userColumns = "id, name, email, role, account_type, is_active, password_hash, created_at, updated_at, last_login"

type userRepository struct {
	repository
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(exec core.DBExecutor) *userRepository {
	return &userRepository{repository{exec: exec}}
}

type userRow struct {
	ID           string    `db:"id"`
	Name         string    `db:"name"`
	Email        string    `db:"email"`
	Role         string    `db:"role"`
	AccountType  string    `db:"account_type"`
	IsActive     bool      `db:"is_active"`
	PasswordHash string    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
	LastLogin    null.Time `db:"last_login"`
}

func toUserRow(usr user.User) userRow {
	return userRow{
		ID:           usr.ID,
		Name:         usr.Name,
		Email:        usr.Email,
		Role:         usr.Role,
		AccountType:  usr.AccountType,
		IsActive:     usr.IsActive,
		PasswordHash: string(usr.PasswordHash),
		CreatedAt:    usr.CreatedAt.UTC(),
		UpdatedAt:    usr.UpdatedAt.UTC(),
		LastLogin:    usr.LastLogin,
	}
}

func (row userRow) toUser() user.User {
	return user.User{
		ID:           row.ID,
		Name:         row.Name,
		Email:        row.Email,
		Role:         row.Role,
		AccountType:  row.AccountType,
		IsActive:     row.IsActive,
		PasswordHash: []byte(row.PasswordHash),
		CreatedAt:    row.CreatedAt.UTC(),
		UpdatedAt:    row.UpdatedAt.UTC(),
		LastLogin:    row.LastLogin,
	}
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	if usr.ID == "" {
		usr.ID = newID()
	}
	if usr.CreatedAt.IsZero() {
		usr.CreatedAt = now()
	}
	if usr.UpdatedAt.IsZero() {
		usr.UpdatedAt = usr.CreatedAt
	}
	err := repo.namedExec(ctx, exec, `
		INSERT INTO users (`+userColumns+`)
		VALUES (:id, :name, :email, :role, :account_type, :is_active, :password_hash, :created_at, :updated_at, :last_login)`,
		toUserRow(usr),
	)
	if err != nil {
		return user.User{}, database.TrapUnique(err, core.NewValidationError(user.ErrEmailExists), "inserting user")
	}
	return repo.GetUserByID(ctx, usr.ID, exec...)
}

func (repo userRepository) getUser(ctx context.Context, exec []core.DBExecutor, where string, args ...interface{}) (user.User, error) {
	var row userRow
	err := repo.get(ctx, exec, &row, "SELECT "+userColumns+" FROM users WHERE "+where, args...)
	if err != nil {
		return user.User{}, database.TrapNoRows(err, user.ErrNotFound, "selecting user")
	}
	return row.toUser(), nil
}

func (repo userRepository) GetUserByID(ctx context.Context, id string, exec ...core.DBExecutor) (user.User, error) {
	return repo.getUser(ctx, exec, "id = ?", id)
}

func (repo userRepository) GetUserByEmail(ctx context.Context, email string, exec ...core.DBExecutor) (user.User, error) {
	return repo.getUser(ctx, exec, "email = ?", email)
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	if usr.UpdatedAt.IsZero() {
		usr.UpdatedAt = now()
	}
	row := toUserRow(usr)
	n, err := repo.execute(ctx, exec, `
		UPDATE users
		SET name = ?, email = ?, role = ?, account_type = ?, is_active = ?, password_hash = ?, updated_at = ?, last_login = ?
		WHERE id = ?`,
		row.Name, row.Email, row.Role, row.AccountType, row.IsActive, row.PasswordHash, row.UpdatedAt, row.LastLogin, row.ID,
	)
	if err != nil {
		return user.User{}, database.TrapUnique(err, core.NewValidationError(user.ErrEmailExists), "updating user")
	}
	if n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return repo.GetUserByID(ctx, usr.ID, exec...)
}

func (repo userRepository) CreateToken(ctx context.Context, token user.AuthToken, exec ...core.DBExecutor) (user.AuthToken, error) {
	if token.CreatedAt.IsZero() {
		token.CreatedAt = now()
	}
	token.CreatedAt = token.CreatedAt.UTC()
	_, err := repo.execute(ctx, exec,
		"INSERT INTO auth_tokens (key, user_id, created_at) VALUES (?, ?, ?)",
		token.Key, token.UserID, token.CreatedAt,
	)
	if err != nil {
		return user.AuthToken{}, errors.Wrap(err, "inserting token")
	}
	return token, nil
}

func (repo userRepository) GetToken(ctx context.Context, key string, exec ...core.DBExecutor) (user.AuthToken, error) {
	var row struct {
		Key       string    `db:"key"`
		UserID    string    `db:"user_id"`
		CreatedAt time.Time `db:"created_at"`
	}
	err := repo.get(ctx, exec, &row, "SELECT key, user_id, created_at FROM auth_tokens WHERE key = ?", key)
	if err != nil {
		return user.AuthToken{}, database.TrapNoRows(err, user.ErrTokenNotFound, "selecting token")
	}
	return user.AuthToken{Key: row.Key, UserID: row.UserID, CreatedAt: row.CreatedAt.UTC()}, nil
}

func (repo userRepository) DeleteToken(ctx context.Context, key string, exec ...core.DBExecutor) error {
	_, err := repo.execute(ctx, exec, "DELETE FROM auth_tokens WHERE key = ?", key)
	return errors.Wrap(err, "deleting token")
}

func (repo userRepository) DeleteUserTokens(ctx context.Context, userID string, exec ...core.DBExecutor) error {
	_, err := repo.execute(ctx, exec, "DELETE FROM auth_tokens WHERE user_id = ?", userID)
	return errors.Wrap(err, "deleting user tokens")
}
