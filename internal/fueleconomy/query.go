package fueleconomy

import "context"

// Query identifies one aggregation.
type Query struct {
	Year int    `json:"year"`
	Make string `json:"make"`
}

type queryKey struct{}

// WithQuery returns a copy of ctx carrying q.
func WithQuery(ctx context.Context, q Query) context.Context {
	return context.WithValue(ctx, queryKey{}, q)
}

// QueryFromContext returns the query a Renderer is being called for, if the
// caller recorded one.
func QueryFromContext(ctx context.Context) (Query, bool) {
	q, ok := ctx.Value(queryKey{}).(Query)
	return q, ok
}
