// Package repositories holds helpers shared by the per-entity repository packages.
package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
)

// ErrConcurrentModification is returned when a cache item changed between read and write.
var ErrConcurrentModification = httperror.NewHTTPError(http.StatusConflict, "cache item was modified concurrently")

// NotFound returns a 404 HTTP error with a descriptive message
func NotFound(format string, args ...any) error {
	return httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf(format, args...))
}

// BadRequest returns a 400 HTTP error
func BadRequest(format string, args ...any) error {
	return httperror.NewHTTPError(http.StatusBadRequest, fmt.Sprintf(format, args...))
}

// Conflict returns a 409 HTTP error
func Conflict(format string, args ...any) error {
	return httperror.NewHTTPError(http.StatusConflict, fmt.Sprintf(format, args...))
}

// InternalError logs err with fields and returns a 500 carrying message.
func InternalError(ctx context.Context, logger ectologger.Logger, err error, fields map[string]any, message string) error {
	logger.WithContext(ctx).WithError(err).WithFields(fields).Error(message)
	return httperror.NewHTTPError(http.StatusInternalServerError, message)
}

// IsNoRows reports whether err means the query matched nothing.
func IsNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// Int64Ptr returns nil for zero, otherwise a pointer to id.
func Int64Ptr(id int64) *int64 {
	if id == 0 {
		return nil
	}
	return &id
}
