package cacheelement

import (
	"context"
	"net/http"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/Gobusters/ectoerror/httperror"
	"github.com/IWUGERMANY/elca-sub002/internal/repositories/cacheelementtype"
	"github.com/IWUGERMANY/elca-sub002/internal/repositories/cacheindicator"
	"github.com/IWUGERMANY/elca-sub002/internal/repositories/cacheitem"
	"github.com/IWUGERMANY/elca-sub002/internal/repositories/cacheprojectvariant"
	"github.com/IWUGERMANY/elca-sub002/internal/repositories/project"
	"github.com/IWUGERMANY/elca-sub002/internal/testutil"
	"github.com/IWUGERMANY/elca-sub002/pkg/database"
	"github.com/IWUGERMANY/elca-sub002/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepository(db database.DB) *Repository {
	logger := testutil.NoopLogger()
	items := cacheitem.NewRepository(db, logger)
	indicators := cacheindicator.NewRepository(db, logger)
	projects := project.NewRepository(db, logger)
	variants := cacheprojectvariant.NewRepository(db, logger, items, indicators, projects)
	elementTypes := cacheelementtype.NewRepository(db, logger, items, indicators, variants, projects)
	return NewRepository(db, logger, items, indicators, elementTypes, projects)
}

func elementRows(id int64, variantID any, isComposite bool) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "element_type_node_id", "project_variant_id", "name", "is_composite"}).
		AddRow(id, int64(12), variantID, "Außenwand", isComposite)
}

func typeNodeRows(isCompositeLevel bool) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"node_id", "din_code", "name", "is_composite_level", "lft", "rgt", "level"}).
		AddRow(int64(12), 331, "Tragende Außenwände", isCompositeLevel, 3, 4, 2)
}

func TestCreateVirtualFlag(t *testing.T) {
	tests := []struct {
		name             string
		isComposite      bool
		isCompositeLevel bool
		expectVirtual    bool
	}{
		{name: "plain element counts", expectVirtual: false},
		{name: "composite element is virtual", isComposite: true, expectVirtual: true},
		{name: "element on composite level is virtual", isCompositeLevel: true, expectVirtual: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := testutil.NewMockDB(t)
			repo := newRepository(db)

			mock.ExpectBegin()
			mock.ExpectQuery(`FROM elca.elements WHERE id = \$1`).WithArgs(int64(9)).
				WillReturnRows(elementRows(9, int64(5), tt.isComposite))
			mock.ExpectQuery(`FROM elca.element_types WHERE node_id = \$1`).WithArgs(int64(12)).
				WillReturnRows(typeNodeRows(tt.isCompositeLevel))
			mock.ExpectQuery(`FROM elca_cache.element_types WHERE project_variant_id = \$1 AND element_type_node_id = \$2`).
				WithArgs(int64(5), int64(12)).
				WillReturnRows(sqlmock.NewRows([]string{"item_id", "project_variant_id", "element_type_node_id", "mass"}).AddRow(int64(21), int64(5), int64(12), nil))
			mock.ExpectQuery(`FROM elca.project_variants WHERE id = \$1`).WithArgs(int64(5)).
				WillReturnRows(testutil.VariantRows(5, 1))
			mock.ExpectQuery(`INSERT INTO elca_cache.items`).
				WithArgs(int64(21), int64(1), models.CacheItemTypeElement, tt.expectVirtual, true).
				WillReturnRows(testutil.ItemRows(models.CacheItem{ID: 30, ProjectID: 1, Type: models.CacheItemTypeElement, IsVirtual: tt.expectVirtual, IsOutdated: true}))
			mock.ExpectExec(`INSERT INTO elca_cache.elements`).WillReturnResult(sqlmock.NewResult(0, 1))
			mock.ExpectCommit()

			node, err := repo.Create(context.Background(), &models.CacheElement{ElementID: 9}, nil)
			require.NoError(t, err)
			assert.Equal(t, int64(30), node.ItemID)
			assert.Equal(t, tt.expectVirtual, node.Item.IsVirtual)
		})
	}
}

func TestCreateRejectsTemplates(t *testing.T) {
	db, mock := testutil.NewMockDB(t)
	repo := newRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM elca.elements`).WillReturnRows(elementRows(9, nil, false))
	mock.ExpectRollback()

	_, err := repo.Create(context.Background(), &models.CacheElement{ElementID: 9}, nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))
}

func TestCreateRejectsLongRefUnit(t *testing.T) {
	db, _ := testutil.NewMockDB(t)
	repo := newRepository(db)
	unit := "Quadratmeter"

	_, err := repo.Create(context.Background(), &models.CacheElement{ElementID: 9, RefUnit: &unit}, nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))
}

func TestUpdate(t *testing.T) {
	db, mock := testutil.NewMockDB(t)
	repo := newRepository(db)
	quantity := 2.0
	unit := "m2"

	mock.ExpectExec(`UPDATE elca_cache.elements SET composite_item_id = \$1, mass = \$2, quantity = \$3, ref_unit = \$4 WHERE item_id = \$5`).
		WithArgs(nil, nil, 2.0, "m2", int64(30)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Update(context.Background(), &models.CacheElement{ItemID: 30, ElementID: 9, Quantity: &quantity, RefUnit: &unit}))
}

func TestCopyWithoutSource(t *testing.T) {
	db, _ := testutil.NewMockDB(t)
	repo := newRepository(db)

	copied, err := repo.Copy(context.Background(), nil, 10, nil)
	require.NoError(t, err)
	assert.Nil(t, copied)
}
