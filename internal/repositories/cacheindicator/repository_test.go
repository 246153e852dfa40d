package cacheindicator

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/Gobusters/ectoerror/httperror"
	"github.com/IWUGERMANY/elca-sub002/internal/testutil"
	"github.com/IWUGERMANY/elca-sub002/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var indicatorColumns = []string{"item_id", "life_cycle_ident", "indicator_id", "process_id", "value", "ratio", "is_partial"}

func TestFindByPK(t *testing.T) {
	t.Run("matches a NULL process id with IS NULL", func(t *testing.T) {
		db, mock := testutil.NewMockDB(t)
		repo := NewRepository(db, testutil.NoopLogger())

		mock.ExpectQuery(`FROM elca_cache.indicators WHERE item_id = \$1 AND life_cycle_ident = \$2 AND indicator_id = \$3 AND process_id IS NULL`).
			WithArgs(int64(4), "A1-3", int64(9)).
			WillReturnRows(sqlmock.NewRows(indicatorColumns).AddRow(int64(4), "A1-3", int64(9), nil, 42.5, 1.0, false))

		indicator, err := repo.FindByPK(context.Background(), 4, "A1-3", 9, nil)
		require.NoError(t, err)
		require.NotNil(t, indicator)
		assert.Nil(t, indicator.ProcessID)
		assert.Equal(t, 42.5, indicator.Value)
	})

	t.Run("returns nil when missing", func(t *testing.T) {
		db, mock := testutil.NewMockDB(t)
		repo := NewRepository(db, testutil.NoopLogger())

		processID := int64(77)
		mock.ExpectQuery(`AND process_id = \$4`).
			WithArgs(int64(4), "A1-3", int64(9), processID).
			WillReturnRows(sqlmock.NewRows(indicatorColumns))

		indicator, err := repo.FindByPK(context.Background(), 4, "A1-3", 9, &processID)
		require.NoError(t, err)
		assert.Nil(t, indicator)
	})
}

func TestFindByItemIDs(t *testing.T) {
	t.Run("skips the query for no ids", func(t *testing.T) {
		db, _ := testutil.NewMockDB(t)
		repo := NewRepository(db, testutil.NoopLogger())

		indicators, err := repo.FindByItemIDs(context.Background(), nil)
		require.NoError(t, err)
		assert.Empty(t, indicators)
	})

	t.Run("converts rows", func(t *testing.T) {
		db, mock := testutil.NewMockDB(t)
		repo := NewRepository(db, testutil.NoopLogger())

		mock.ExpectQuery(`WHERE item_id IN \(\$1, \$2\)`).
			WithArgs(int64(1), int64(2)).
			WillReturnRows(sqlmock.NewRows(indicatorColumns).
				AddRow(int64(1), "A1-3", int64(9), int64(100), 10.0, 0.5, false).
				AddRow(int64(2), "total", int64(9), nil, 20.0, 1.0, true))

		indicators, err := repo.FindByItemIDs(context.Background(), []int64{1, 2})
		require.NoError(t, err)
		require.Len(t, indicators, 2)
		require.NotNil(t, indicators[0].ProcessID)
		assert.Equal(t, int64(100), *indicators[0].ProcessID)
		assert.Equal(t, 0.5, indicators[0].Ratio)
		assert.True(t, indicators[1].IsPartial)
	})
}

func TestUpsert(t *testing.T) {
	indicator := &models.CacheIndicator{ItemID: 3, LifeCycleIdent: "A1-3", IndicatorID: 9, Value: 1.5, Ratio: 1}

	t.Run("updates an existing row", func(t *testing.T) {
		db, mock := testutil.NewMockDB(t)
		repo := NewRepository(db, testutil.NoopLogger())

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE elca_cache.indicators SET value = \$1, ratio = \$2, is_partial = \$3 WHERE .* process_id IS NULL`).
			WithArgs(1.5, 1.0, false, int64(3), "A1-3", int64(9)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		inserted, err := repo.Upsert(context.Background(), indicator)
		require.NoError(t, err)
		assert.False(t, inserted)
	})

	t.Run("inserts when nothing matched", func(t *testing.T) {
		db, mock := testutil.NewMockDB(t)
		repo := NewRepository(db, testutil.NoopLogger())

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE elca_cache.indicators`).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(`INSERT INTO elca_cache.indicators`).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		inserted, err := repo.Upsert(context.Background(), indicator)
		require.NoError(t, err)
		assert.True(t, inserted)
	})

	t.Run("rolls back when the insert fails", func(t *testing.T) {
		db, mock := testutil.NewMockDB(t)
		repo := NewRepository(db, testutil.NoopLogger())

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE elca_cache.indicators`).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(`INSERT INTO elca_cache.indicators`).WillReturnError(errors.New("fk violation"))
		mock.ExpectRollback()

		_, err := repo.Upsert(context.Background(), indicator)
		require.Error(t, err)
		assert.Equal(t, http.StatusInternalServerError, httperror.GetStatusCode(err))
	})

	t.Run("rejects ratios above one", func(t *testing.T) {
		db, _ := testutil.NewMockDB(t)
		repo := NewRepository(db, testutil.NoopLogger())

		_, err := repo.Upsert(context.Background(), &models.CacheIndicator{ItemID: 3, LifeCycleIdent: "A1-3", IndicatorID: 9, Ratio: 1.2})
		require.Error(t, err)
		assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))
	})
}

func TestUpdateMissingRow(t *testing.T) {
	db, mock := testutil.NewMockDB(t)
	repo := NewRepository(db, testutil.NoopLogger())

	mock.ExpectExec(`UPDATE elca_cache.indicators`).WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), &models.CacheIndicator{ItemID: 3, LifeCycleIdent: "A1-3", IndicatorID: 9, Ratio: 1})
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, httperror.GetStatusCode(err))
}

func TestCopy(t *testing.T) {
	tests := []struct {
		name   string
		src    int64
		dst    int64
		expect bool
	}{
		{name: "copies rows", src: 5, dst: 6, expect: true},
		{name: "zero source is a no-op", src: 0, dst: 6, expect: false},
		{name: "zero destination is a no-op", src: 5, dst: 0, expect: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := testutil.NewMockDB(t)
			repo := NewRepository(db, testutil.NoopLogger())

			if tt.expect {
				mock.ExpectExec(`INSERT INTO elca_cache.indicators .* SELECT \$1, life_cycle_ident`).
					WithArgs(tt.dst, tt.src).
					WillReturnResult(sqlmock.NewResult(0, 3))
			}

			copied, err := repo.Copy(context.Background(), tt.src, tt.dst)
			require.NoError(t, err)
			assert.Equal(t, tt.expect, copied)
		})
	}
}

func TestDeletes(t *testing.T) {
	t.Run("by life cycle phase", func(t *testing.T) {
		db, mock := testutil.NewMockDB(t)
		repo := NewRepository(db, testutil.NoopLogger())

		mock.ExpectExec(`DELETE FROM elca_cache.indicators WHERE item_id = \$1 AND life_cycle_ident IN \(SELECT ident FROM elca.life_cycles WHERE phase = \$2\)`).
			WithArgs(int64(8), models.LifeCyclePhaseProd).
			WillReturnResult(sqlmock.NewResult(0, 2))

		require.NoError(t, repo.DeleteByItemIDAndLifeCyclePhase(context.Background(), 8, models.LifeCyclePhaseProd))
	})

	t.Run("by life cycle ident returns the statement error", func(t *testing.T) {
		db, mock := testutil.NewMockDB(t)
		repo := NewRepository(db, testutil.NoopLogger())

		mock.ExpectExec(`DELETE FROM elca_cache.indicators WHERE item_id = \$1 AND life_cycle_ident = \$2`).
			WithArgs(int64(8), "A1-3").
			WillReturnError(errors.New("deadlock detected"))

		err := repo.DeleteByItemIDAndLifeCycleIdent(context.Background(), 8, "A1-3")
		require.Error(t, err)
		assert.Equal(t, http.StatusInternalServerError, httperror.GetStatusCode(err))
	})

	t.Run("element type indicators of a project", func(t *testing.T) {
		db, mock := testutil.NewMockDB(t)
		repo := NewRepository(db, testutil.NoopLogger())

		mock.ExpectExec(`DELETE FROM elca_cache.indicators WHERE item_id IN \( SELECT t.item_id FROM elca_cache.element_types t`).
			WithArgs(int64(2)).
			WillReturnResult(sqlmock.NewResult(0, 10))

		require.NoError(t, repo.DeleteElementTypeIndicatorsByProjectID(context.Background(), 2))
	})
}

func TestCounts(t *testing.T) {
	t.Run("duplicate totals", func(t *testing.T) {
		db, mock := testutil.NewMockDB(t)
		repo := NewRepository(db, testutil.NoopLogger())

		mock.ExpectQuery(`SELECT count\(\*\) FROM \( SELECT ci.item_id FROM elca_cache.indicators_v ci .* HAVING count\(\*\) > 1`).
			WithArgs(models.LifeCycleIdentTotal, models.IndicatorGwp, int64(7)).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

		count, err := repo.CountDuplicateTotals(context.Background(), 7)
		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})

	t.Run("A1, A2 or A3 totals", func(t *testing.T) {
		db, mock := testutil.NewMockDB(t)
		repo := NewRepository(db, testutil.NoopLogger())

		mock.ExpectQuery(`WHERE ci.life_cycle_ident IN \(\$1, \$2, \$3\) AND ci.type = \$4`).
			WithArgs("A1", "A2", "A3", models.CacheItemTypeProjectVariant, models.IndicatorGwp, int64(7)).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

		count, err := repo.CountA1A2OrA3Totals(context.Background(), 7)
		require.NoError(t, err)
		assert.Equal(t, 3, count)
	})

	t.Run("project zero counts nothing", func(t *testing.T) {
		db, _ := testutil.NewMockDB(t)
		repo := NewRepository(db, testutil.NoopLogger())

		count, err := repo.CountDuplicateTotals(context.Background(), 0)
		require.NoError(t, err)
		assert.Zero(t, count)
	})
}

func TestAggregate(t *testing.T) {
	db, mock := testutil.NewMockDB(t)
	repo := NewRepository(db, testutil.NoopLogger())

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM elca_cache.indicators WHERE item_id = \$1 AND process_id IS NULL`).
		WithArgs(int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`SELECT \$1, ci.life_cycle_ident, ci.indicator_id, NULL, sum\(ci.value\), 1, bool_or\(ci.is_partial\) .* AND NOT i.is_virtual`).
		WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectCommit()

	written, err := repo.Aggregate(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(4), written)
}
