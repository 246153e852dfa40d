package indicator

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/IWUGERMANY/elca-sub002/internal/testutil"
	"github.com/IWUGERMANY/elca-sub002/pkg/memo"
	"github.com/IWUGERMANY/elca-sub002/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var columns = []string{"id", "ident", "name", "unit", "is_hidden", "p_order"}

func TestFindAll(t *testing.T) {
	tests := []struct {
		name          string
		includeHidden bool
		pattern       string
	}{
		{name: "visible only", includeHidden: false, pattern: `FROM elca.indicators WHERE NOT is_hidden ORDER BY p_order, id ASC`},
		{name: "with hidden", includeHidden: true, pattern: `FROM elca.indicators ORDER BY p_order, id ASC`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := testutil.NewMockDB(t)
			repo := NewRepository(db, testutil.NoopLogger())

			mock.ExpectQuery(tt.pattern).
				WillReturnRows(sqlmock.NewRows(columns).AddRow(int64(1), models.IndicatorGwp, "GWP", "kg CO2 Äqv.", false, 10))

			indicators, err := repo.FindAll(context.Background(), tt.includeHidden)
			require.NoError(t, err)
			require.Len(t, indicators, 1)
			assert.Equal(t, models.IndicatorGwp, indicators[0].Ident)
		})
	}
}

func TestFindByIdent(t *testing.T) {
	db, mock := testutil.NewMockDB(t)
	repo := NewRepository(db, testutil.NoopLogger())
	ctx := memo.WithStore(context.Background())

	mock.ExpectQuery(`FROM elca.indicators WHERE ident = \$1`).
		WithArgs(models.IndicatorOdp).
		WillReturnRows(sqlmock.NewRows(columns).AddRow(int64(2), models.IndicatorOdp, "ODP", "kg R11 Äqv.", false, 20))

	first, err := repo.FindByIdent(ctx, models.IndicatorOdp)
	require.NoError(t, err)
	second, err := repo.FindByIdent(ctx, models.IndicatorOdp)
	require.NoError(t, err)

	assert.Equal(t, int64(2), first.ID)
	assert.Same(t, first, second)
}
