package cacheprojectvariant

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/Gobusters/ectoerror/httperror"
	"github.com/IWUGERMANY/elca-sub002/internal/repositories/cacheindicator"
	"github.com/IWUGERMANY/elca-sub002/internal/repositories/cacheitem"
	"github.com/IWUGERMANY/elca-sub002/internal/repositories/project"
	"github.com/IWUGERMANY/elca-sub002/internal/testutil"
	"github.com/IWUGERMANY/elca-sub002/pkg/database"
	"github.com/IWUGERMANY/elca-sub002/pkg/memo"
	"github.com/IWUGERMANY/elca-sub002/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepository(db database.DB) *Repository {
	logger := testutil.NoopLogger()
	return NewRepository(db, logger,
		cacheitem.NewRepository(db, logger),
		cacheindicator.NewRepository(db, logger),
		project.NewRepository(db, logger),
	)
}

func expectRootCreate(mock sqlmock.Sqlmock, variantID, projectID, itemID int64) {
	mock.ExpectQuery(`FROM elca.project_variants WHERE id = \$1`).
		WithArgs(variantID).
		WillReturnRows(testutil.VariantRows(variantID, projectID))
	mock.ExpectQuery(`INSERT INTO elca_cache.items`).
		WithArgs(nil, projectID, models.CacheItemTypeProjectVariant, false, true).
		WillReturnRows(testutil.ItemRows(models.CacheItem{ID: itemID, ProjectID: projectID, Type: models.CacheItemTypeProjectVariant, IsOutdated: true}))
	mock.ExpectExec(`INSERT INTO elca_cache.project_variants \(item_id, project_variant_id\) VALUES \(\$1, \$2\)`).
		WithArgs(itemID, variantID).
		WillReturnResult(sqlmock.NewResult(0, 1))
}

func TestCreate(t *testing.T) {
	t.Run("allocates a root item", func(t *testing.T) {
		db, mock := testutil.NewMockDB(t)
		repo := newRepository(db)

		mock.ExpectBegin()
		expectRootCreate(mock, 5, 1, 11)
		mock.ExpectCommit()

		node, err := repo.Create(context.Background(), 5, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(11), node.ItemID)
		require.NotNil(t, node.Item)
		assert.True(t, node.Item.IsRoot())
	})

	t.Run("unknown project variant is a 404", func(t *testing.T) {
		db, mock := testutil.NewMockDB(t)
		repo := newRepository(db)

		mock.ExpectBegin()
		mock.ExpectQuery(`FROM elca.project_variants`).WillReturnRows(sqlmock.NewRows([]string{"id", "project_id", "name"}))
		mock.ExpectRollback()

		_, err := repo.Create(context.Background(), 5, nil)
		require.Error(t, err)
		assert.Equal(t, http.StatusNotFound, httperror.GetStatusCode(err))
	})

	t.Run("rolls back the item when the node insert fails", func(t *testing.T) {
		db, mock := testutil.NewMockDB(t)
		repo := newRepository(db)

		mock.ExpectBegin()
		mock.ExpectQuery(`FROM elca.project_variants`).WillReturnRows(testutil.VariantRows(5, 1))
		mock.ExpectQuery(`INSERT INTO elca_cache.items`).
			WillReturnRows(testutil.ItemRows(models.CacheItem{ID: 11, ProjectID: 1, Type: models.CacheItemTypeProjectVariant, IsOutdated: true}))
		mock.ExpectExec(`INSERT INTO elca_cache.project_variants`).WillReturnError(errors.New("duplicate key"))
		mock.ExpectRollback()

		_, err := repo.Create(context.Background(), 5, nil)
		require.Error(t, err)
		assert.Equal(t, http.StatusInternalServerError, httperror.GetStatusCode(err))
	})

	t.Run("uses an existing item", func(t *testing.T) {
		db, mock := testutil.NewMockDB(t)
		repo := newRepository(db)
		itemID := int64(30)

		mock.ExpectBegin()
		mock.ExpectQuery(`FROM elca_cache.items WHERE id = \$1`).
			WithArgs(itemID).
			WillReturnRows(testutil.ItemRows(models.CacheItem{ID: itemID, ProjectID: 1, Type: models.CacheItemTypeProjectVariant}))
		mock.ExpectExec(`INSERT INTO elca_cache.project_variants`).
			WithArgs(itemID, int64(5)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		node, err := repo.Create(context.Background(), 5, &itemID)
		require.NoError(t, err)
		assert.Equal(t, itemID, node.ItemID)
	})
}

func TestFindOrCreate(t *testing.T) {
	db, mock := testutil.NewMockDB(t)
	repo := newRepository(db)
	ctx := memo.WithStore(context.Background())

	mock.ExpectQuery(`FROM elca_cache.project_variants WHERE project_variant_id = \$1`).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"item_id", "project_variant_id"}))
	mock.ExpectBegin()
	expectRootCreate(mock, 5, 1, 11)
	mock.ExpectCommit()

	first, err := repo.FindOrCreate(ctx, 5)
	require.NoError(t, err)
	second, err := repo.FindOrCreate(ctx, 5)
	require.NoError(t, err)

	assert.Same(t, first, second)
}

func TestFindOrCreateForgetsRootOfRolledBackUnit(t *testing.T) {
	db, mock := testutil.NewMockDB(t)
	repo := newRepository(db)
	ctx := memo.WithStore(context.Background())

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM elca_cache.project_variants WHERE project_variant_id = \$1`).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"item_id", "project_variant_id"}))
	expectRootCreate(mock, 5, 1, 11)
	mock.ExpectRollback()
	mock.ExpectQuery(`FROM elca_cache.project_variants WHERE project_variant_id = \$1`).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"item_id", "project_variant_id"}).AddRow(int64(12), int64(5)))

	failure := errors.New("element insert failed")
	err := database.WithTx(ctx, db, func(ctx context.Context) error {
		root, err := repo.FindOrCreate(ctx, 5)
		require.NoError(t, err)
		assert.Equal(t, int64(11), root.ItemID)
		return failure
	})
	assert.ErrorIs(t, err, failure)

	root, err := repo.FindOrCreate(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(12), root.ItemID)
}

func TestCopy(t *testing.T) {
	t.Run("nil source yields nil", func(t *testing.T) {
		db, _ := testutil.NewMockDB(t)
		repo := newRepository(db)

		copied, err := repo.Copy(context.Background(), nil, 6)
		require.NoError(t, err)
		assert.Nil(t, copied)
	})

	t.Run("zero owner yields nil", func(t *testing.T) {
		db, _ := testutil.NewMockDB(t)
		repo := newRepository(db)

		copied, err := repo.Copy(context.Background(), &models.CacheProjectVariant{ItemID: 11, ProjectVariantID: 5}, 0)
		require.NoError(t, err)
		assert.Nil(t, copied)
	})

	t.Run("creates a root and copies indicators in one transaction", func(t *testing.T) {
		db, mock := testutil.NewMockDB(t)
		repo := newRepository(db)

		mock.ExpectBegin()
		expectRootCreate(mock, 6, 1, 12)
		mock.ExpectExec(`INSERT INTO elca_cache.indicators .* SELECT`).
			WithArgs(int64(12), int64(11)).
			WillReturnResult(sqlmock.NewResult(0, 14))
		mock.ExpectCommit()

		copied, err := repo.Copy(context.Background(), &models.CacheProjectVariant{ItemID: 11, ProjectVariantID: 5}, 6)
		require.NoError(t, err)
		assert.Equal(t, int64(12), copied.ItemID)
		assert.Equal(t, int64(6), copied.ProjectVariantID)
	})
}
