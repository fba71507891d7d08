package httpserver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/helixir/openalex-explorer/internal/abstract"
	"github.com/helixir/openalex-explorer/internal/domain"
	"github.com/helixir/openalex-explorer/internal/openalex"
	"github.com/helixir/openalex-explorer/internal/pagination"
	"github.com/helixir/openalex-explorer/internal/query"
)

// maxRequestBody caps JSON request bodies.
const maxRequestBody = 1 << 20

// apiPagination handles GET /api/v1/pagination?page=&total=.
// It returns the page window as a JSON array of numbers and "..." markers.
func (s *Server) apiPagination(w http.ResponseWriter, r *http.Request) {
	current, err := intParam(r, "page", 1)
	if err != nil {
		s.apiError(w, r, err)
		return
	}
	total, err := intParam(r, "total", 1)
	if err != nil {
		s.apiError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pagination.Window(current, total))
}

// apiReconstructAbstract handles POST /api/v1/abstract. The body is an
// inverted index object; the response carries the reconstructed text.
func (s *Server) apiReconstructAbstract(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	body = bytes.TrimSpace(body)
	if len(body) == 0 || body[0] != '{' || !json.Valid(body) {
		writeError(w, http.StatusBadRequest, "request body must be a JSON object")
		return
	}

	var index abstract.InvertedIndex
	if err := json.Unmarshal(body, &index); err != nil {
		writeError(w, http.StatusBadRequest, "request body must be a JSON object")
		return
	}

	text := abstract.Reconstruct(index)
	s.recordAbstract(text)
	writeJSON(w, http.StatusOK, abstractResponse{Abstract: text})
}

// apiInvertAbstract handles POST /api/v1/abstract/invert. It takes
// {"text": "..."} and returns the inverted index of the text, which can be
// posted back to /api/v1/abstract.
func (s *Server) apiInvertAbstract(w http.ResponseWriter, r *http.Request) {
	var req invertRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON request body")
		return
	}
	writeJSON(w, http.StatusOK, abstract.Invert(req.Text))
}

// apiCountries handles GET /api/v1/geo.
func (s *Server) apiCountries(w http.ResponseWriter, r *http.Request) {
	countries, err := s.explorer.Countries(r.Context())
	if err != nil {
		s.apiError(w, r, err)
		return
	}
	if countries == nil {
		countries = []openalex.CountryCount{}
	}
	writeJSON(w, http.StatusOK, countriesResponse{Countries: countries})
}

// apiCountryOutput handles GET /api/v1/geo/{code}.
func (s *Server) apiCountryOutput(w http.ResponseWriter, r *http.Request) {
	code := strings.ToUpper(chi.URLParam(r, "code"))
	years, err := s.explorer.CountryOutput(r.Context(), code)
	if err != nil {
		s.apiError(w, r, err)
		return
	}
	if years == nil {
		years = []openalex.YearCount{}
	}
	writeJSON(w, http.StatusOK, countryOutputResponse{CountryCode: code, Years: years})
}

// apiWorkAbstract handles GET /api/v1/works/{id}/abstract.
func (s *Server) apiWorkAbstract(w http.ResponseWriter, r *http.Request) {
	work, err := s.explorer.GetWork(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.apiError(w, r, err)
		return
	}
	text := work.Abstract()
	s.recordAbstract(text)
	writeJSON(w, http.StatusOK, abstractResponse{
		ID:       openalex.ShortID(work.ID),
		Abstract: text,
	})
}

// apiList handles GET /api/v1/{kind}. Works accept group_by, which returns
// the facet counts instead of a page of results.
func (s *Server) apiList(w http.ResponseWriter, r *http.Request) {
	kind, ok := openalex.ParseKind(chi.URLParam(r, "kind"))
	if !ok {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	params, err := parseListParams(r, kind, s.config.PerPage)
	if err != nil {
		s.apiError(w, r, err)
		return
	}

	if groupBy := strings.TrimSpace(r.URL.Query().Get("group_by")); groupBy != "" {
		if kind != openalex.KindWorks {
			writeError(w, http.StatusBadRequest, "group_by is only supported for works")
			return
		}
		groups, err := s.explorer.GroupWorks(r.Context(), params, groupBy)
		if err != nil {
			s.apiError(w, r, err)
			return
		}
		if groups == nil {
			groups = []openalex.GroupCount{}
		}
		writeJSON(w, http.StatusOK, groupResponse{GroupBy: groupBy, Groups: groups})
		return
	}

	resp, err := s.listKind(r, kind, params)
	if err != nil {
		s.apiError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) listKind(r *http.Request, kind openalex.Kind, params query.Params) (listResponse, error) {
	ctx := r.Context()
	switch kind {
	case openalex.KindWorks:
		return listOf(s.explorer.ListWorks(ctx, params))(params)
	case openalex.KindAuthors:
		return listOf(s.explorer.ListAuthors(ctx, params))(params)
	case openalex.KindInstitutions:
		return listOf(s.explorer.ListInstitutions(ctx, params))(params)
	case openalex.KindPublishers:
		return listOf(s.explorer.ListPublishers(ctx, params))(params)
	case openalex.KindSources:
		return listOf(s.explorer.ListSources(ctx, params))(params)
	case openalex.KindTopics:
		return listOf(s.explorer.ListTopics(ctx, params))(params)
	case openalex.KindFunders:
		return listOf(s.explorer.ListFunders(ctx, params))(params)
	default:
		return listResponse{}, fmt.Errorf("%w: unknown kind %q", domain.ErrInvalidInput, kind)
	}
}

// listOf adapts a List* result into a listResponse builder.
func listOf[T any](page *openalex.Page[T], err error) func(query.Params) (listResponse, error) {
	return func(params query.Params) (listResponse, error) {
		if err != nil {
			return listResponse{}, err
		}
		return newListResponse(page, params), nil
	}
}

// apiGet handles GET /api/v1/{kind}/{id}. Works are returned with their
// reconstructed abstract alongside the inverted index.
func (s *Server) apiGet(w http.ResponseWriter, r *http.Request) {
	kind, ok := openalex.ParseKind(chi.URLParam(r, "kind"))
	if !ok {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	ctx := r.Context()
	id := chi.URLParam(r, "id")

	var (
		v   interface{}
		err error
	)
	switch kind {
	case openalex.KindWorks:
		var work *openalex.Work
		if work, err = s.explorer.GetWork(ctx, id); err == nil {
			resp := newWorkResponse(work)
			s.recordAbstract(resp.Abstract)
			v = resp
		}
	case openalex.KindAuthors:
		v, err = s.explorer.GetAuthor(ctx, id)
	case openalex.KindInstitutions:
		v, err = s.explorer.GetInstitution(ctx, id)
	case openalex.KindPublishers:
		v, err = s.explorer.GetPublisher(ctx, id)
	case openalex.KindSources:
		v, err = s.explorer.GetSource(ctx, id)
	case openalex.KindTopics:
		v, err = s.explorer.GetTopic(ctx, id)
	case openalex.KindFunders:
		v, err = s.explorer.GetFunder(ctx, id)
	}
	if err != nil {
		s.apiError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) recordAbstract(text string) {
	if s.metrics != nil && text != "" {
		s.metrics.RecordAbstractReconstructed()
	}
}

// intParam reads an integer query parameter, returning def when it is absent.
func intParam(r *http.Request, key string, def int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.NewValidationError(key, "must be a whole number")
	}
	return n, nil
}
