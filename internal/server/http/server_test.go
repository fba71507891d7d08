package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/openalex-explorer/internal/domain"
	"github.com/helixir/openalex-explorer/internal/observability"
	"github.com/helixir/openalex-explorer/internal/openalex"
	"github.com/helixir/openalex-explorer/internal/query"
)

// ---------------------------------------------------------------------------
// Mock implementation
// ---------------------------------------------------------------------------

// mockExplorer implements Explorer. Unset list functions return an empty
// page and unset get functions return a NotFoundError.
type mockExplorer struct {
	listWorksFn    func(ctx context.Context, params query.Params) (*openalex.Page[openalex.Work], error)
	getWorkFn      func(ctx context.Context, id string) (*openalex.Work, error)
	getWorksFn     func(ctx context.Context, ids []string) ([]*openalex.Work, error)
	listWorksForFn func(ctx context.Context, kind openalex.Kind, id string, params query.Params) (*openalex.Page[openalex.Work], error)
	groupWorksFn   func(ctx context.Context, params query.Params, groupBy string) ([]openalex.GroupCount, error)

	listAuthorsFn      func(ctx context.Context, params query.Params) (*openalex.Page[openalex.Author], error)
	getAuthorFn        func(ctx context.Context, id string) (*openalex.Author, error)
	listInstitutionsFn func(ctx context.Context, params query.Params) (*openalex.Page[openalex.Institution], error)
	getInstitutionFn   func(ctx context.Context, id string) (*openalex.Institution, error)
	listPublishersFn   func(ctx context.Context, params query.Params) (*openalex.Page[openalex.Publisher], error)
	getPublisherFn     func(ctx context.Context, id string) (*openalex.Publisher, error)
	listSourcesFn      func(ctx context.Context, params query.Params) (*openalex.Page[openalex.Source], error)
	getSourceFn        func(ctx context.Context, id string) (*openalex.Source, error)
	listTopicsFn       func(ctx context.Context, params query.Params) (*openalex.Page[openalex.Topic], error)
	getTopicFn         func(ctx context.Context, id string) (*openalex.Topic, error)
	listFundersFn      func(ctx context.Context, params query.Params) (*openalex.Page[openalex.Funder], error)
	getFunderFn        func(ctx context.Context, id string) (*openalex.Funder, error)

	countriesFn     func(ctx context.Context) ([]openalex.CountryCount, error)
	countryOutputFn func(ctx context.Context, code string) ([]openalex.YearCount, error)
	pingFn          func(ctx context.Context) error
}

func emptyPage[T any]() *openalex.Page[T] {
	return &openalex.Page[T]{Results: []T{}}
}

func notFound(kind openalex.Kind, id string) error {
	return &domain.NotFoundError{Entity: kind.Singular(), ID: id}
}

func (m *mockExplorer) ListWorks(ctx context.Context, params query.Params) (*openalex.Page[openalex.Work], error) {
	if m.listWorksFn != nil {
		return m.listWorksFn(ctx, params)
	}
	return emptyPage[openalex.Work](), nil
}

func (m *mockExplorer) GetWork(ctx context.Context, id string) (*openalex.Work, error) {
	if m.getWorkFn != nil {
		return m.getWorkFn(ctx, id)
	}
	return nil, notFound(openalex.KindWorks, id)
}

func (m *mockExplorer) GetWorks(ctx context.Context, ids []string) ([]*openalex.Work, error) {
	if m.getWorksFn != nil {
		return m.getWorksFn(ctx, ids)
	}
	return nil, nil
}

func (m *mockExplorer) ListWorksFor(ctx context.Context, kind openalex.Kind, id string, params query.Params) (*openalex.Page[openalex.Work], error) {
	if m.listWorksForFn != nil {
		return m.listWorksForFn(ctx, kind, id, params)
	}
	return emptyPage[openalex.Work](), nil
}

func (m *mockExplorer) GroupWorks(ctx context.Context, params query.Params, groupBy string) ([]openalex.GroupCount, error) {
	if m.groupWorksFn != nil {
		return m.groupWorksFn(ctx, params, groupBy)
	}
	return nil, nil
}

func (m *mockExplorer) ListAuthors(ctx context.Context, params query.Params) (*openalex.Page[openalex.Author], error) {
	if m.listAuthorsFn != nil {
		return m.listAuthorsFn(ctx, params)
	}
	return emptyPage[openalex.Author](), nil
}

func (m *mockExplorer) GetAuthor(ctx context.Context, id string) (*openalex.Author, error) {
	if m.getAuthorFn != nil {
		return m.getAuthorFn(ctx, id)
	}
	return nil, notFound(openalex.KindAuthors, id)
}

func (m *mockExplorer) ListInstitutions(ctx context.Context, params query.Params) (*openalex.Page[openalex.Institution], error) {
	if m.listInstitutionsFn != nil {
		return m.listInstitutionsFn(ctx, params)
	}
	return emptyPage[openalex.Institution](), nil
}

func (m *mockExplorer) GetInstitution(ctx context.Context, id string) (*openalex.Institution, error) {
	if m.getInstitutionFn != nil {
		return m.getInstitutionFn(ctx, id)
	}
	return nil, notFound(openalex.KindInstitutions, id)
}

func (m *mockExplorer) ListPublishers(ctx context.Context, params query.Params) (*openalex.Page[openalex.Publisher], error) {
	if m.listPublishersFn != nil {
		return m.listPublishersFn(ctx, params)
	}
	return emptyPage[openalex.Publisher](), nil
}

func (m *mockExplorer) GetPublisher(ctx context.Context, id string) (*openalex.Publisher, error) {
	if m.getPublisherFn != nil {
		return m.getPublisherFn(ctx, id)
	}
	return nil, notFound(openalex.KindPublishers, id)
}

func (m *mockExplorer) ListSources(ctx context.Context, params query.Params) (*openalex.Page[openalex.Source], error) {
	if m.listSourcesFn != nil {
		return m.listSourcesFn(ctx, params)
	}
	return emptyPage[openalex.Source](), nil
}

func (m *mockExplorer) GetSource(ctx context.Context, id string) (*openalex.Source, error) {
	if m.getSourceFn != nil {
		return m.getSourceFn(ctx, id)
	}
	return nil, notFound(openalex.KindSources, id)
}

func (m *mockExplorer) ListTopics(ctx context.Context, params query.Params) (*openalex.Page[openalex.Topic], error) {
	if m.listTopicsFn != nil {
		return m.listTopicsFn(ctx, params)
	}
	return emptyPage[openalex.Topic](), nil
}

func (m *mockExplorer) GetTopic(ctx context.Context, id string) (*openalex.Topic, error) {
	if m.getTopicFn != nil {
		return m.getTopicFn(ctx, id)
	}
	return nil, notFound(openalex.KindTopics, id)
}

func (m *mockExplorer) ListFunders(ctx context.Context, params query.Params) (*openalex.Page[openalex.Funder], error) {
	if m.listFundersFn != nil {
		return m.listFundersFn(ctx, params)
	}
	return emptyPage[openalex.Funder](), nil
}

func (m *mockExplorer) GetFunder(ctx context.Context, id string) (*openalex.Funder, error) {
	if m.getFunderFn != nil {
		return m.getFunderFn(ctx, id)
	}
	return nil, notFound(openalex.KindFunders, id)
}

func (m *mockExplorer) Countries(ctx context.Context) ([]openalex.CountryCount, error) {
	if m.countriesFn != nil {
		return m.countriesFn(ctx)
	}
	return nil, nil
}

func (m *mockExplorer) CountryOutput(ctx context.Context, code string) ([]openalex.YearCount, error) {
	if m.countryOutputFn != nil {
		return m.countryOutputFn(ctx, code)
	}
	return nil, nil
}

func (m *mockExplorer) Ping(ctx context.Context) error {
	if m.pingFn != nil {
		return m.pingFn(ctx)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func newTestServer(explorer Explorer) *Server {
	return NewServer(Config{}, explorer, nil, zerolog.Nop())
}

func newTestServerWithMetrics(explorer Explorer, metrics *observability.Metrics) *Server {
	return NewServer(Config{}, explorer, metrics, zerolog.Nop())
}

func do(t *testing.T, s *Server, method, target string, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), "body: %s", rec.Body.String())
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	decodeBody(t, rec, &body)
	return body["error"]
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestNewServer_Defaults(t *testing.T) {
	s := newTestServer(&mockExplorer{})

	assert.Equal(t, query.DefaultPerPage, s.config.PerPage)
	assert.Equal(t, 5, s.config.RelatedWorks)
	assert.Equal(t, 10, s.config.OverviewWorks)
	for _, name := range pageTemplates {
		assert.Contains(t, s.views.pages, name)
	}
}

func TestHealthHandler(t *testing.T) {
	s := newTestServer(&mockExplorer{})

	rec := do(t, s, http.MethodGet, "/healthz", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var body map[string]string
	decodeBody(t, rec, &body)
	assert.Equal(t, "ok", body["status"])
}

func TestReadinessHandler(t *testing.T) {
	t.Run("ready", func(t *testing.T) {
		s := newTestServer(&mockExplorer{})

		rec := do(t, s, http.MethodGet, "/readyz", "")

		assert.Equal(t, http.StatusOK, rec.Code)
		var body map[string]string
		decodeBody(t, rec, &body)
		assert.Equal(t, "ready", body["status"])
	})

	t.Run("cache unreachable", func(t *testing.T) {
		s := newTestServer(&mockExplorer{
			pingFn: func(ctx context.Context) error {
				_, hasDeadline := ctx.Deadline()
				assert.True(t, hasDeadline)
				return errors.New("dial tcp: connection refused")
			},
		})

		rec := do(t, s, http.MethodGet, "/readyz", "")

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		var body map[string]string
		decodeBody(t, rec, &body)
		assert.Equal(t, "not_ready", body["status"])
		assert.Equal(t, "unreachable", body["cache"])
		assert.NotContains(t, rec.Body.String(), "connection refused")
	})
}

func TestNotFoundHandler(t *testing.T) {
	s := newTestServer(&mockExplorer{})

	t.Run("api path returns JSON", func(t *testing.T) {
		rec := do(t, s, http.MethodGet, "/api/v1/works/W1/citations", "")

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "not found", errorBody(t, rec))
	})

	t.Run("page path returns HTML", func(t *testing.T) {
		rec := do(t, s, http.MethodGet, "/nowhere", "")

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Body.String(), "404 Not Found")
		assert.Contains(t, rec.Body.String(), "/nowhere")
	})
}
