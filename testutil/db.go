// Package testutil provides the database and fixtures shared by the package tests.
package testutil

import (
	"testing"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"

	"github.com/AnuragJha1954/lms/core"
	"github.com/AnuragJha1954/lms/storage/database"
)

// Password satisfies the password policy; every fixture user gets it.
const Password = "Lms-Test#2024"

func init() {
	goose.SetLogger(goose.NopLogger())
}

// PrepareDB opens a private in-memory sqlite database, migrated to the latest version,
// and closes it at the end of the test.
func PrepareDB(t *testing.T) *sqlx.DB {
	t.Helper()

	conf := core.NewTestConfig()
	conf.Database.Engine = database.EngineSQLite
	conf.Database.Name = "file:" + uuid.NewString() + "?mode=memory&cache=shared"

	db, err := database.Open(conf)
	if err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("db.Close() failed: %v", err)
		}
	})

	if err = database.Migrate(db); err != nil {
		t.Fatalf("PrepareDB() failed to migrate: %v", err)
	}
	return db
}
