package httpx

import "context"

type tenantContextKey struct{}

// TenantFromContext returns the tenant id stamped onto the request context
// by the auth middleware, or "" outside an authenticated request.
func TenantFromContext(ctx context.Context) string {
	tenantID, _ := ctx.Value(tenantContextKey{}).(string)
	return tenantID
}

// WithTenant stamps a tenant id onto the context. Jobs and tests use it to
// run service calls outside an HTTP request.
func WithTenant(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, tenantContextKey{}, tenantID)
}
