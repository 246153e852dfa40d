package repositories

import (
	"context"

	"github.com/Gobusters/ectologger"
	"github.com/IWUGERMANY/elca-sub002/pkg/database"
)

// Get scans a single row into a new T. It returns nil when the query matched nothing.
func Get[T any](ctx context.Context, db database.DB, logger ectologger.Logger, query string, args []any, fields map[string]any, message string) (*T, error) {
	var dest T
	err := database.Executor(ctx, db).GetContext(ctx, &dest, query, args...)
	if IsNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, InternalError(ctx, logger, err, fields, message)
	}
	return &dest, nil
}

// Select scans all rows into new Ts.
func Select[T any](ctx context.Context, db database.DB, logger ectologger.Logger, query string, args []any, fields map[string]any, message string) ([]*T, error) {
	dest := []*T{}
	if err := database.Executor(ctx, db).SelectContext(ctx, &dest, query, args...); err != nil {
		return nil, InternalError(ctx, logger, err, fields, message)
	}
	return dest, nil
}

// Exec runs a statement and returns the number of affected rows.
func Exec(ctx context.Context, db database.DB, logger ectologger.Logger, query string, args []any, fields map[string]any, message string) (int64, error) {
	result, err := database.Executor(ctx, db).ExecContext(ctx, query, args...)
	if err != nil {
		return 0, InternalError(ctx, logger, err, fields, message)
	}
	affected, _ := result.RowsAffected()
	return affected, nil
}
