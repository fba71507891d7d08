// Package observability provides logging and metrics for the explorer.
//
// Create a logger from configuration and derive component loggers from it:
//
//	logger := observability.NewLogger(observability.LoggingConfig{
//	    Level:  "info",
//	    Format: "json",
//	    Output: "stdout",
//	})
//	clientLog := logger.With().Str("component", "openalex").Logger()
//
// Metrics are registered on the default Prometheus registry:
//
//	metrics := observability.NewMetrics("openalex_explorer")
//	metrics.RecordUpstreamRequest("works", observability.OutcomeSuccess, 0.21)
//
// Request and correlation IDs travel on the context:
//
//	ctx = observability.WithCorrelationID(ctx, id)
//	id := observability.CorrelationIDFromContext(ctx)
//
// Standard log fields:
//
//   - component: subsystem that emitted the entry
//   - request_id, correlation_id: identify the page view
//   - entity, entity_id: OpenAlex kind and ID being rendered
//   - upstream_path: OpenAlex URL path of an outgoing call
package observability
