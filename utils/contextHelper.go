package utils

import (
	"context"

	"bitbucket.org/mmdatafocus/budgets_backend/appctx"
	"github.com/google/uuid"
)

var (
	ContextKeyUserId        = appctx.ContextKeyUserId
	ContextKeyCorrelationId = appctx.ContextKeyCorrelationId
)

func GetUserIdFromContext(ctx context.Context) (int, bool) {
	return appctx.GetInt(ctx, ContextKeyUserId)
}

func GetCorrelationIdFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyCorrelationId)
}

func SetUserIdInContext(ctx context.Context, userId int) context.Context {
	return appctx.Set(ctx, ContextKeyUserId, userId)
}

func SetCorrelationIdInContext(ctx context.Context, correlationId string) context.Context {
	return appctx.Set(ctx, ContextKeyCorrelationId, correlationId)
}

// WithNewCorrelationId tags a batch run so its log lines can be grouped.
func WithNewCorrelationId(ctx context.Context) context.Context {
	return SetCorrelationIdInContext(ctx, uuid.NewString())
}
