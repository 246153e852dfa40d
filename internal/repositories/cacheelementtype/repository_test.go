package cacheelementtype

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/Gobusters/ectoerror/httperror"
	"github.com/IWUGERMANY/elca-sub002/internal/repositories/cacheindicator"
	"github.com/IWUGERMANY/elca-sub002/internal/repositories/cacheitem"
	"github.com/IWUGERMANY/elca-sub002/internal/repositories/cacheprojectvariant"
	"github.com/IWUGERMANY/elca-sub002/internal/repositories/project"
	"github.com/IWUGERMANY/elca-sub002/internal/testutil"
	"github.com/IWUGERMANY/elca-sub002/pkg/database"
	"github.com/IWUGERMANY/elca-sub002/pkg/memo"
	"github.com/IWUGERMANY/elca-sub002/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	nodeColumns        = []string{"node_id", "din_code", "name", "is_composite_level", "lft", "rgt", "level"}
	elementTypeColumns = []string{"item_id", "project_variant_id", "element_type_node_id", "mass"}
)

func newRepository(db database.DB) *Repository {
	logger := testutil.NoopLogger()
	items := cacheitem.NewRepository(db, logger)
	indicators := cacheindicator.NewRepository(db, logger)
	projects := project.NewRepository(db, logger)
	variants := cacheprojectvariant.NewRepository(db, logger, items, indicators, projects)
	return NewRepository(db, logger, items, indicators, variants, projects)
}

func TestCreateResolvesParentChain(t *testing.T) {
	db, mock := testutil.NewMockDB(t)
	repo := newRepository(db)
	ctx := memo.WithStore(context.Background())
	mass := 100.0

	mock.ExpectBegin()
	// 12 sits below 3, which is a top level node
	mock.ExpectQuery(`FROM elca.element_types n`).WithArgs(int64(12)).
		WillReturnRows(sqlmock.NewRows(nodeColumns).AddRow(int64(3), 300, "Baukonstruktion", false, 2, 20, 1))
	mock.ExpectQuery(`FROM elca_cache.element_types WHERE project_variant_id = \$1 AND element_type_node_id = \$2`).
		WithArgs(int64(5), int64(3)).
		WillReturnRows(sqlmock.NewRows(elementTypeColumns))
	mock.ExpectQuery(`FROM elca.element_types n`).WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows(nodeColumns))
	mock.ExpectQuery(`FROM elca_cache.project_variants WHERE project_variant_id = \$1`).WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"item_id", "project_variant_id"}).AddRow(int64(11), int64(5)))
	mock.ExpectQuery(`FROM elca.project_variants WHERE id = \$1`).WithArgs(int64(5)).
		WillReturnRows(testutil.VariantRows(5, 1))
	mock.ExpectQuery(`INSERT INTO elca_cache.items`).
		WithArgs(int64(11), int64(1), models.CacheItemTypeElementType, false, true).
		WillReturnRows(testutil.ItemRows(models.CacheItem{ID: 20, ParentID: ptr(int64(11)), ProjectID: 1, Type: models.CacheItemTypeElementType, IsOutdated: true}))
	mock.ExpectExec(`INSERT INTO elca_cache.element_types`).
		WithArgs(int64(20), int64(5), int64(3), nil).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO elca_cache.items`).
		WithArgs(int64(20), int64(1), models.CacheItemTypeElementType, false, true).
		WillReturnRows(testutil.ItemRows(models.CacheItem{ID: 21, ParentID: ptr(int64(20)), ProjectID: 1, Type: models.CacheItemTypeElementType, IsOutdated: true}))
	mock.ExpectExec(`INSERT INTO elca_cache.element_types`).
		WithArgs(int64(21), int64(5), int64(12), 100.0).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	node, err := repo.Create(ctx, &models.CacheElementType{ProjectVariantID: 5, ElementTypeNodeID: 12, Mass: &mass}, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(21), node.ItemID)
	require.NotNil(t, node.Item)
	assert.Equal(t, int64(20), *node.Item.ParentID)
	assert.Equal(t, 100.0, *node.Mass)
}

func TestCreateRollsBackWholeChain(t *testing.T) {
	db, mock := testutil.NewMockDB(t)
	repo := newRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM elca.element_types n`).WithArgs(int64(3)).WillReturnRows(sqlmock.NewRows(nodeColumns))
	mock.ExpectQuery(`FROM elca_cache.project_variants`).WillReturnRows(sqlmock.NewRows([]string{"item_id", "project_variant_id"}).AddRow(int64(11), int64(5)))
	mock.ExpectQuery(`FROM elca.project_variants`).WillReturnRows(testutil.VariantRows(5, 1))
	mock.ExpectQuery(`INSERT INTO elca_cache.items`).
		WillReturnRows(testutil.ItemRows(models.CacheItem{ID: 20, ParentID: ptr(int64(11)), ProjectID: 1, Type: models.CacheItemTypeElementType, IsOutdated: true}))
	mock.ExpectExec(`INSERT INTO elca_cache.element_types`).WillReturnError(errors.New("unique violation"))
	mock.ExpectRollback()

	_, err := repo.Create(context.Background(), &models.CacheElementType{ProjectVariantID: 5, ElementTypeNodeID: 3}, nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, httperror.GetStatusCode(err))
}

func TestCreateValidates(t *testing.T) {
	db, _ := testutil.NewMockDB(t)
	repo := newRepository(db)

	_, err := repo.Create(context.Background(), &models.CacheElementType{ProjectVariantID: 5}, nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))
}

func TestFindOrCreateReturnsExisting(t *testing.T) {
	db, mock := testutil.NewMockDB(t)
	repo := newRepository(db)
	ctx := memo.WithStore(context.Background())

	mock.ExpectQuery(`FROM elca_cache.element_types WHERE project_variant_id = \$1 AND element_type_node_id = \$2`).
		WithArgs(int64(5), int64(3)).
		WillReturnRows(sqlmock.NewRows(elementTypeColumns).AddRow(int64(20), int64(5), int64(3), 12.5))

	for i := 0; i < 3; i++ {
		node, err := repo.FindOrCreate(ctx, 5, 3)
		require.NoError(t, err)
		assert.Equal(t, int64(20), node.ItemID)
	}
}

func TestUpdate(t *testing.T) {
	t.Run("writes the mass", func(t *testing.T) {
		db, mock := testutil.NewMockDB(t)
		repo := newRepository(db)
		mass := 42.5

		mock.ExpectExec(`UPDATE elca_cache.element_types SET mass = \$1 WHERE item_id = \$2`).
			WithArgs(42.5, int64(20)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.Update(context.Background(), &models.CacheElementType{ItemID: 20, Mass: &mass}))
	})

	t.Run("missing node is a 404", func(t *testing.T) {
		db, mock := testutil.NewMockDB(t)
		repo := newRepository(db)

		mock.ExpectExec(`UPDATE elca_cache.element_types`).WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Update(context.Background(), &models.CacheElementType{ItemID: 20})
		assert.Equal(t, http.StatusNotFound, httperror.GetStatusCode(err))
	})
}

func ptr[T any](v T) *T {
	return &v
}
