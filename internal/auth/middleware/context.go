package auth

import (
	"context"

	"github.com/venturelens/venturelens/internal/rbac"
)

type subjectKey struct{}

func WithSubject(ctx context.Context, sub string) context.Context {
	return context.WithValue(ctx, subjectKey{}, sub)
}

// SubjectFromContext returns the user id set by JWTMiddleware.
func SubjectFromContext(ctx context.Context) string {
	sub, _ := ctx.Value(subjectKey{}).(string)
	return sub
}

// WithIdentity stores the subject and its role.
func WithIdentity(ctx context.Context, sub, role string) context.Context {
	return rbac.WithRole(WithSubject(ctx, sub), role)
}
