package subjectctx

import (
	"context"
)

type ctxKey string

const subjectKey ctxKey = "subject"

// Create a new context carrying the authenticated subject
func New(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, subjectKey, subject)
}

// Extract the authenticated subject from the context
func FromContext(ctx context.Context) (string, bool) {
	subject, ok := ctx.Value(subjectKey).(string)
	return subject, ok
}
