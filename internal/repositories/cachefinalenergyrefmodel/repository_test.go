package cachefinalenergyrefmodel

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/IWUGERMANY/elca-sub002/internal/repositories/cacheindicator"
	"github.com/IWUGERMANY/elca-sub002/internal/repositories/cacheitem"
	"github.com/IWUGERMANY/elca-sub002/internal/repositories/cacheprojectvariant"
	"github.com/IWUGERMANY/elca-sub002/internal/repositories/project"
	"github.com/IWUGERMANY/elca-sub002/internal/testutil"
	"github.com/IWUGERMANY/elca-sub002/pkg/memo"
	"github.com/IWUGERMANY/elca-sub002/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateIsAlwaysVirtual(t *testing.T) {
	db, mock := testutil.NewMockDB(t)
	logger := testutil.NoopLogger()
	items := cacheitem.NewRepository(db, logger)
	indicators := cacheindicator.NewRepository(db, logger)
	projects := project.NewRepository(db, logger)
	variants := cacheprojectvariant.NewRepository(db, logger, items, indicators, projects)
	repo := NewRepository(db, logger, items, indicators, variants, projects)
	ctx := memo.WithStore(context.Background())

	mock.ExpectQuery(`FROM elca.project_final_energy_ref_models WHERE id = \$1`).WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "project_variant_id"}).AddRow(int64(3), int64(21)))
	mock.ExpectBegin()
	// no root yet: it is created on the way
	mock.ExpectQuery(`FROM elca_cache.project_variants WHERE project_variant_id = \$1`).WithArgs(int64(21)).
		WillReturnRows(sqlmock.NewRows([]string{"item_id", "project_variant_id"}))
	mock.ExpectQuery(`FROM elca.project_variants WHERE id = \$1`).WithArgs(int64(21)).
		WillReturnRows(testutil.VariantRows(21, 1))
	mock.ExpectQuery(`INSERT INTO elca_cache.items`).
		WithArgs(nil, int64(1), models.CacheItemTypeProjectVariant, false, true).
		WillReturnRows(testutil.ItemRows(models.CacheItem{ID: 11, ProjectID: 1, Type: models.CacheItemTypeProjectVariant, IsOutdated: true}))
	mock.ExpectExec(`INSERT INTO elca_cache.project_variants`).WithArgs(int64(11), int64(21)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO elca_cache.items`).
		WithArgs(int64(11), int64(1), models.CacheItemTypeFinalEnergyRefModel, true, true).
		WillReturnRows(testutil.ItemRows(models.CacheItem{ID: 70, ProjectID: 1, Type: models.CacheItemTypeFinalEnergyRefModel, IsVirtual: true, IsOutdated: true}))
	mock.ExpectExec(`INSERT INTO elca_cache.final_energy_ref_models \(item_id, final_energy_ref_model_id, quantity, ref_unit\)`).
		WithArgs(int64(70), int64(3), nil, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	node, err := repo.Create(ctx, &models.CacheFinalEnergyRefModel{FinalEnergyRefModelID: 3}, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(70), node.ItemID)
	assert.True(t, node.Item.IsVirtual)
}
