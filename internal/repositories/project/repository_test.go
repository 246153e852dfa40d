package project

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/IWUGERMANY/elca-sub002/internal/testutil"
	"github.com/IWUGERMANY/elca-sub002/pkg/memo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var nodeColumns = []string{"node_id", "din_code", "name", "is_composite_level", "lft", "rgt", "level"}

func TestFindParentByNodeID(t *testing.T) {
	t.Run("returns the nearest enclosing node", func(t *testing.T) {
		db, mock := testutil.NewMockDB(t)
		repo := NewRepository(db, testutil.NoopLogger())

		mock.ExpectQuery(`JOIN elca.element_types p ON p.lft < n.lft AND p.rgt > n.rgt WHERE n.node_id = \$1 ORDER BY p.lft DESC LIMIT 1`).
			WithArgs(int64(12)).
			WillReturnRows(sqlmock.NewRows(nodeColumns).AddRow(int64(3), 330, "Außenwände", false, 2, 9, 1))

		parent, err := repo.FindParentByNodeID(context.Background(), 12)
		require.NoError(t, err)
		require.NotNil(t, parent)
		assert.Equal(t, int64(3), parent.NodeID)
		require.NotNil(t, parent.DinCode)
		assert.Equal(t, 330, *parent.DinCode)
	})

	t.Run("root has no parent", func(t *testing.T) {
		db, mock := testutil.NewMockDB(t)
		repo := NewRepository(db, testutil.NoopLogger())

		mock.ExpectQuery(`FROM elca.element_types n`).WithArgs(int64(1)).WillReturnRows(sqlmock.NewRows(nodeColumns))

		parent, err := repo.FindParentByNodeID(context.Background(), 1)
		require.NoError(t, err)
		assert.Nil(t, parent)
	})

	t.Run("is remembered per request", func(t *testing.T) {
		db, mock := testutil.NewMockDB(t)
		repo := NewRepository(db, testutil.NoopLogger())
		ctx := memo.WithStore(context.Background())

		mock.ExpectQuery(`FROM elca.element_types n`).
			WithArgs(int64(12)).
			WillReturnRows(sqlmock.NewRows(nodeColumns).AddRow(int64(3), nil, "Wände", true, 2, 9, 1))

		first, err := repo.FindParentByNodeID(ctx, 12)
		require.NoError(t, err)
		second, err := repo.FindParentByNodeID(ctx, 12)
		require.NoError(t, err)
		assert.Same(t, first, second)
		assert.Nil(t, first.DinCode)
	})
}

func TestFindTransportMeanByID(t *testing.T) {
	db, mock := testutil.NewMockDB(t)
	repo := NewRepository(db, testutil.NoopLogger())

	mock.ExpectQuery(`FROM elca.project_transport_means m JOIN elca.project_transports t ON t.id = m.project_transport_id WHERE m.id = \$1`).
		WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "project_variant_id"}).AddRow(int64(4), int64(21)))

	mean, err := repo.FindTransportMeanByID(context.Background(), 4)
	require.NoError(t, err)
	require.NotNil(t, mean)
	assert.Equal(t, int64(21), mean.ProjectVariantID)
}

func TestFindElementByID(t *testing.T) {
	db, mock := testutil.NewMockDB(t)
	repo := NewRepository(db, testutil.NoopLogger())

	mock.ExpectQuery(`FROM elca.elements WHERE id = \$1`).
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "element_type_node_id", "project_variant_id", "name", "is_composite"}).
			AddRow(int64(9), int64(12), nil, "Template", false))

	element, err := repo.FindElementByID(context.Background(), 9)
	require.NoError(t, err)
	require.NotNil(t, element)
	assert.Nil(t, element.ProjectVariantID)
	assert.Equal(t, int64(12), element.ElementTypeNodeID)
}
