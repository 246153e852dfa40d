package cachefinalenergysupply

import (
	"context"
	"net/http"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/Gobusters/ectoerror/httperror"
	"github.com/IWUGERMANY/elca-sub002/internal/repositories/cacheindicator"
	"github.com/IWUGERMANY/elca-sub002/internal/repositories/cacheitem"
	"github.com/IWUGERMANY/elca-sub002/internal/repositories/cacheprojectvariant"
	"github.com/IWUGERMANY/elca-sub002/internal/repositories/project"
	"github.com/IWUGERMANY/elca-sub002/internal/testutil"
	"github.com/IWUGERMANY/elca-sub002/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepository(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	db, mock := testutil.NewMockDB(t)
	logger := testutil.NoopLogger()
	items := cacheitem.NewRepository(db, logger)
	indicators := cacheindicator.NewRepository(db, logger)
	projects := project.NewRepository(db, logger)
	variants := cacheprojectvariant.NewRepository(db, logger, items, indicators, projects)
	return NewRepository(db, logger, items, indicators, variants, projects), mock
}

func TestCreate(t *testing.T) {
	t.Run("missing owner id is rejected", func(t *testing.T) {
		repo, _ := newTestRepository(t)

		_, err := repo.Create(context.Background(), &models.CacheFinalEnergySupply{}, nil)
		require.Error(t, err)
		assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))
	})

	t.Run("unknown final energy supply", func(t *testing.T) {
		repo, mock := newTestRepository(t)
		mock.ExpectQuery(`FROM elca.project_final_energy_supplies WHERE id = \$1`).WithArgs(int64(9)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "project_variant_id"}))

		_, err := repo.Create(context.Background(), &models.CacheFinalEnergySupply{FinalEnergySupplyID: 9}, nil)
		require.Error(t, err)
		assert.Equal(t, http.StatusNotFound, httperror.GetStatusCode(err))
	})
}

func TestFindByFinalEnergySupplyID(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		repo, mock := newTestRepository(t)
		mock.ExpectQuery(`SELECT item_id, final_energy_supply_id AS owner_id, quantity, ref_unit FROM elca_cache.final_energy_supplies WHERE final_energy_supply_id = \$1`).
			WithArgs(int64(4)).
			WillReturnRows(sqlmock.NewRows([]string{"item_id", "owner_id", "quantity", "ref_unit"}).AddRow(int64(40), int64(4), 12.5, "kWh"))

		node, err := repo.FindByFinalEnergySupplyID(context.Background(), 4)
		require.NoError(t, err)
		require.NotNil(t, node)
		assert.Equal(t, int64(40), node.ItemID)
		assert.Equal(t, int64(4), node.FinalEnergySupplyID)
		require.NotNil(t, node.RefUnit)
		assert.Equal(t, "kWh", *node.RefUnit)
	})

	t.Run("not found", func(t *testing.T) {
		repo, mock := newTestRepository(t)
		mock.ExpectQuery(`FROM elca_cache.final_energy_supplies WHERE final_energy_supply_id = \$1`).WithArgs(int64(5)).
			WillReturnRows(sqlmock.NewRows([]string{"item_id", "owner_id", "quantity", "ref_unit"}))

		node, err := repo.FindByFinalEnergySupplyID(context.Background(), 5)
		require.NoError(t, err)
		assert.Nil(t, node)
	})
}

func TestCopyWithoutSourceOrOwner(t *testing.T) {
	repo, _ := newTestRepository(t)

	copied, err := repo.Copy(context.Background(), nil, 3)
	require.NoError(t, err)
	assert.Nil(t, copied)

	copied, err = repo.Copy(context.Background(), &models.CacheFinalEnergySupply{ItemID: 1, FinalEnergySupplyID: 2}, 0)
	require.NoError(t, err)
	assert.Nil(t, copied)
}
