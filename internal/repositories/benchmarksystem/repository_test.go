package benchmarksystem

import (
	"context"
	"net/http"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/Gobusters/ectoerror/httperror"
	"github.com/IWUGERMANY/elca-sub002/internal/testutil"
	"github.com/IWUGERMANY/elca-sub002/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func systemRows() *sqlmock.Rows {
	return sqlmock.NewRows(columns).AddRow(int64(1), "BNB", "BnbBenchmarkSystemModel", true, nil)
}

func TestCreate(t *testing.T) {
	t.Run("inserts and returns the row", func(t *testing.T) {
		db, mock := testutil.NewMockDB(t)
		repo := NewRepository(db, testutil.NoopLogger())

		mock.ExpectQuery(`INSERT INTO elca.benchmark_systems \(name, model_class, is_active, description\) VALUES \(\$1, \$2, \$3, \$4\) RETURNING id`).
			WithArgs("BNB", "BnbBenchmarkSystemModel", true, nil).
			WillReturnRows(systemRows())

		system, err := repo.Create(context.Background(), &models.BenchmarkSystem{Name: "BNB", ModelClass: "BnbBenchmarkSystemModel", IsActive: true})
		require.NoError(t, err)
		assert.Equal(t, int64(1), system.ID)
		assert.Nil(t, system.Description)
	})

	t.Run("rejects a missing name", func(t *testing.T) {
		db, _ := testutil.NewMockDB(t)
		repo := NewRepository(db, testutil.NoopLogger())

		_, err := repo.Create(context.Background(), &models.BenchmarkSystem{ModelClass: "x"})
		require.Error(t, err)
		assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))
	})
}

func TestFindAll(t *testing.T) {
	tests := []struct {
		name       string
		activeOnly bool
		pattern    string
	}{
		{name: "active only", activeOnly: true, pattern: `FROM elca.benchmark_systems WHERE is_active ORDER BY name, id ASC`},
		{name: "all", activeOnly: false, pattern: `FROM elca.benchmark_systems ORDER BY name, id ASC`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := testutil.NewMockDB(t)
			repo := NewRepository(db, testutil.NoopLogger())

			mock.ExpectQuery(tt.pattern).WillReturnRows(systemRows())

			systems, err := repo.FindAll(context.Background(), tt.activeOnly)
			require.NoError(t, err)
			require.Len(t, systems, 1)
			assert.Equal(t, "BNB", systems[0].Name)
		})
	}
}

func TestFindByVersionID(t *testing.T) {
	db, mock := testutil.NewMockDB(t)
	repo := NewRepository(db, testutil.NoopLogger())

	mock.ExpectQuery(`JOIN elca.benchmark_versions v ON v.benchmark_system_id = s.id WHERE v.id = \$1`).
		WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows(columns))

	system, err := repo.FindByVersionID(context.Background(), 4)
	require.NoError(t, err)
	assert.Nil(t, system)
}

func TestUpdateMissing(t *testing.T) {
	db, mock := testutil.NewMockDB(t)
	repo := NewRepository(db, testutil.NoopLogger())

	mock.ExpectExec(`UPDATE elca.benchmark_systems SET name = \$1, model_class = \$2, is_active = \$3, description = \$4 WHERE id = \$5`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), &models.BenchmarkSystem{ID: 9, Name: "BNB", ModelClass: "m"})
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, httperror.GetStatusCode(err))
}

func TestIsUsedInProject(t *testing.T) {
	db, mock := testutil.NewMockDB(t)
	repo := NewRepository(db, testutil.NoopLogger())

	mock.ExpectQuery(`SELECT EXISTS \( SELECT 1 FROM elca.projects p JOIN elca.benchmark_versions v ON v.id = p.benchmark_version_id WHERE v.benchmark_system_id = \$1 \)`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	used, err := repo.IsUsedInProject(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, used)
}
