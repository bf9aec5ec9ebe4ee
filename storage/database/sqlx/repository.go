// Package sqlxrepos implements the core repositories on top of jmoiron/sqlx.
// Queries use `?` placeholders and are rebound to the driver's bindvar at execution,
// so the same repositories serve postgres and sqlite.
package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/AnuragJha1954/lms/core"
)

type repository struct {
	exec core.DBExecutor
}

// getExec returns the service provided executor (usually a transaction), or the repository's DB.
func (repo repository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 && svcExec[0] != nil {
		return svcExec[0]
	}
	return repo.exec
}

func (repo repository) get(ctx context.Context, svcExec []core.DBExecutor, dest interface{}, query string, args ...interface{}) error {
	exec := repo.getExec(svcExec)
	return sqlx.GetContext(ctx, exec, dest, exec.Rebind(query), args...)
}

func (repo repository) selectAll(ctx context.Context, svcExec []core.DBExecutor, dest interface{}, query string, args ...interface{}) error {
	exec := repo.getExec(svcExec)
	return sqlx.SelectContext(ctx, exec, dest, exec.Rebind(query), args...)
}

// selectIn expands slice args of query (`IN (?)`) before running it.
func (repo repository) selectIn(ctx context.Context, svcExec []core.DBExecutor, dest interface{}, query string, args ...interface{}) error {
	q, inArgs, err := sqlx.In(query, args...)
	if err != nil {
		return err
	}
	return repo.selectAll(ctx, svcExec, dest, q, inArgs...)
}

func (repo repository) execute(ctx context.Context, svcExec []core.DBExecutor, query string, args ...interface{}) (int64, error) {
	exec := repo.getExec(svcExec)
	res, err := exec.ExecContext(ctx, exec.Rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (repo repository) namedExec(ctx context.Context, svcExec []core.DBExecutor, query string, arg interface{}) error {
	exec := repo.getExec(svcExec)
	_, err := sqlx.NamedExecContext(ctx, exec, query, arg)
	return err
}

func newID() string {
	return uuid.NewString()
}

func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
