package middleware

import (
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/IWUGERMANY/elca-sub002/pkg/context"
	"github.com/IWUGERMANY/elca-sub002/pkg/memo"
)

// HeaderUserID is the header key for the acting user
const HeaderUserID = "X-User-ID"

// Context copies request metadata into the request context and attaches a fresh read memo.
func Context() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			req := c.Request()

			requestID := req.Header.Get(echo.HeaderXRequestID)
			if requestID == "" {
				requestID = uuid.New().String()
			}
			c.Response().Header().Set(echo.HeaderXRequestID, requestID)

			ctx := req.Context()
			ctx = context.SetRequestID(ctx, requestID)
			ctx = context.SetMethod(ctx, req.Method)
			ctx = context.SetRoute(ctx, c.Path())
			ctx = context.SetRemoteIP(ctx, c.RealIP())
			ctx = context.SetReferer(ctx, req.Referer())
			ctx = context.SetUserID(ctx, req.Header.Get(HeaderUserID))
			if projectID, convErr := strconv.ParseInt(c.Param("projectId"), 10, 64); convErr == nil {
				ctx = context.SetProjectID(ctx, projectID)
			}
			ctx = memo.WithStore(ctx)

			c.SetRequest(req.WithContext(ctx))

			return next(c)
		}
	}
}
