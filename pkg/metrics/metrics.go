package metrics

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel/attribute"
)

type (
	// Client records application metrics. Keys use dotted or snake case names,
	// implementations decide how to map them onto their backend.
	Client interface {
		Inc(ctx context.Context, key string, value any, attributes ...attribute.KeyValue)
		Handler() http.Handler
		Shutdown(ctx context.Context) error
	}
)
