// Package testutil holds helpers shared by package tests.
package testutil

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/Gobusters/ectologger"
	"github.com/IWUGERMANY/elca-sub002/pkg/database"
	"github.com/IWUGERMANY/elca-sub002/pkg/models"
	"github.com/jmoiron/sqlx"
)

// NoopLogger returns a logger that discards everything.
func NoopLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

// NewMockDB returns a database backed by sqlmock. Unmet expectations fail the test on cleanup.
func NewMockDB(t *testing.T) (database.DB, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}

	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet sql expectations: %v", err)
		}
		mockDB.Close()
	})

	return database.NewDatabaseInstance(sqlx.NewDb(mockDB, "postgres"), NoopLogger()), mock
}

// ItemRows returns sqlmock rows shaped like elca_cache.items.
func ItemRows(items ...models.CacheItem) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id", "parent_id", "project_id", "type", "is_virtual", "is_outdated", "version", "created", "modified"})
	for _, item := range items {
		var parentID any
		if item.ParentID != nil {
			parentID = *item.ParentID
		}
		version := item.Version
		if version == 0 {
			version = 1
		}
		rows.AddRow(item.ID, parentID, item.ProjectID, item.Type, item.IsVirtual, item.IsOutdated, version, item.Created, nil)
	}
	return rows
}

// VariantRows returns sqlmock rows shaped like elca.project_variants.
func VariantRows(id, projectID int64) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "project_id", "name"}).AddRow(id, projectID, "Variante 1")
}
