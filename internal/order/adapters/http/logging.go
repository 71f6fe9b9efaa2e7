package http

import (
	"context"
	"log/slog"
)

const serviceName = "order-service"

func httpLogger() *slog.Logger {
	return slog.Default().With(
		"service", serviceName,
		"layer", "adapter",
		"module", "http",
	)
}

func logHTTPOperationError(ctx context.Context, operation string, statusCode int, code, message string, err error) {
	logger := httpLogger()
	fields := []any{
		"operation", operation,
		"outcome", "failure",
		"request_id", requestIDFromContext(ctx),
		"status_code", statusCode,
		"error_code", code,
		"error", err,
	}
	if statusCode >= 500 {
		logger.ErrorContext(ctx, message, fields...)
		return
	}
	logger.WarnContext(ctx, message, fields...)
}
