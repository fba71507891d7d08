package httpserver

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/helixir/openalex-explorer/internal/domain"
	"github.com/helixir/openalex-explorer/internal/observability"
)

// classify maps an error to an HTTP status and a message that is safe to
// show to users. Upstream bodies and internal details are never included.
func classify(err error) (int, string) {
	var (
		nf  *domain.NotFoundError
		ve  *domain.ValidationError
		api *domain.ExternalAPIError
	)

	switch {
	case errors.As(err, &nf):
		return http.StatusNotFound, nf.Entity + " not found"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "resource not found"
	case errors.As(err, &ve):
		return http.StatusBadRequest, ve.Error()
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, "invalid input"
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests, "OpenAlex rate limit reached, try again shortly"
	case errors.Is(err, domain.ErrServiceUnavailable):
		return http.StatusServiceUnavailable, "OpenAlex is unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "OpenAlex did not respond in time"
	case errors.As(err, &api):
		return http.StatusBadGateway, "OpenAlex request failed"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// writeDomainError maps domain errors to appropriate HTTP status codes
// and writes a JSON error body.
func writeDomainError(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	status, msg := classify(err)
	setRetryAfter(w, err)
	writeError(w, status, msg)
}

// setRetryAfter passes the upstream Retry-After hint on to the caller.
func setRetryAfter(w http.ResponseWriter, err error) {
	var rl *domain.RateLimitError
	if errors.As(err, &rl) && rl.RetryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(rl.RetryAfter.Seconds()))))
	}
}

// apiError logs server-side failures and writes the JSON error.
func (s *Server) apiError(w http.ResponseWriter, r *http.Request, err error) {
	s.logFailure(r, err)
	writeDomainError(w, err)
}

func (s *Server) logFailure(r *http.Request, err error) {
	if err == nil || errors.Is(err, context.Canceled) {
		return
	}
	if status, _ := classify(err); status < http.StatusInternalServerError {
		return
	}
	logger := s.logger
	if kind, id := routeEntity(r); id != "" {
		logger = observability.WithEntityContext(logger, kind, id)
	}
	logger.Error().
		Err(err).
		Str("path", r.URL.Path).
		Msg("request failed")
}

// routeEntity returns the entity kind and ID addressed by a detail route.
func routeEntity(r *http.Request) (string, string) {
	id := chi.URLParam(r, "id")
	if id == "" {
		return "", ""
	}
	if kind := chi.URLParam(r, "kind"); kind != "" {
		return kind, id
	}
	path := strings.TrimPrefix(strings.TrimPrefix(r.URL.Path, "/api/v1"), "/")
	kind, _, _ := strings.Cut(path, "/")
	return kind, id
}
