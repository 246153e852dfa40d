package memo

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type row struct {
	ID int64
}

func TestGetOrFetch(t *testing.T) {
	t.Run("fetches once per store", func(t *testing.T) {
		ctx := WithStore(context.Background())
		calls := 0
		fetch := func(_ context.Context) (*row, error) {
			calls++
			return &row{ID: 7}, nil
		}

		first, err := GetOrFetch(ctx, Key("item", 7), fetch)
		require.NoError(t, err)
		second, err := GetOrFetch(ctx, Key("item", 7), fetch)
		require.NoError(t, err)

		assert.Equal(t, 1, calls)
		assert.Same(t, first, second)
	})

	t.Run("without store always fetches", func(t *testing.T) {
		calls := 0
		fetch := func(_ context.Context) (*row, error) {
			calls++
			return &row{ID: 1}, nil
		}

		_, _ = GetOrFetch(context.Background(), "k", fetch)
		_, _ = GetOrFetch(context.Background(), "k", fetch)

		assert.Equal(t, 2, calls)
	})

	t.Run("misses and errors are not remembered", func(t *testing.T) {
		ctx := WithStore(context.Background())
		calls := 0
		results := []*row{nil, {ID: 3}}
		fetch := func(_ context.Context) (*row, error) {
			r := results[calls]
			calls++
			return r, nil
		}

		missing, err := GetOrFetch(ctx, "k", fetch)
		require.NoError(t, err)
		assert.Nil(t, missing)

		found, err := GetOrFetch(ctx, "k", fetch)
		require.NoError(t, err)
		assert.Equal(t, int64(3), found.ID)

		_, err = GetOrFetch(ctx, "e", func(_ context.Context) (*row, error) {
			return nil, errors.New("boom")
		})
		assert.EqualError(t, err, "boom")
	})
}

func TestForget(t *testing.T) {
	ctx := WithStore(context.Background())
	calls := 0
	fetch := func(_ context.Context) (*row, error) {
		calls++
		return &row{ID: int64(calls)}, nil
	}

	_, _ = GetOrFetch(ctx, Key("item", 1), fetch)
	_, _ = GetOrFetch(ctx, Key("item", 2), fetch)
	Forget(ctx, Key("item", 1))
	_, _ = GetOrFetch(ctx, Key("item", 1), fetch)
	assert.Equal(t, 3, calls)

	ForgetPrefix(ctx, "item:")
	_, _ = GetOrFetch(ctx, Key("item", 2), fetch)
	assert.Equal(t, 4, calls)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "indicator:1:A1-3:5:<nil>", Key("indicator", 1, "A1-3", 5, nil))
	assert.Equal(t, "root", Key("root"))
}
