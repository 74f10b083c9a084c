package utils

import "context"

type ContextKey string

const ContextKeyRunId ContextKey = "runId"

func GetRunIdFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ContextKeyRunId).(string)
	return v, ok
}

func SetRunIdInContext(ctx context.Context, runId string) context.Context {
	return context.WithValue(ctx, ContextKeyRunId, runId)
}
