package httpserver

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/helixir/openalex-explorer/internal/format"
	"github.com/helixir/openalex-explorer/internal/openalex"
	"github.com/helixir/openalex-explorer/internal/pagination"
	"github.com/helixir/openalex-explorer/internal/query"
)

// worksFacets are the facets shown beside the works list.
var worksFacets = []string{query.FilterOAStatus, query.FilterType}

// overviewPage handles GET /. It shows the top works by citation percentile
// and the headline work facets.
func (s *Server) overviewPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	params := query.Params{
		Sort:    openalex.SortTopWorks,
		PerPage: s.config.OverviewWorks,
		Page:    1,
	}

	var view overviewView
	facets := make([]facetGroup, len(query.WorkGroupKeys))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		page, err := s.explorer.ListWorks(gctx, params)
		if err != nil {
			return err
		}
		view.Total = page.Meta.Count
		view.Works = newWorkRows(page.Results)
		return nil
	})
	base := &url.URL{Path: "/works"}
	for i, key := range query.WorkGroupKeys {
		g.Go(func() error {
			facets[i] = s.facet(gctx, query.Params{}, key, base)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.renderError(w, r, err)
		return
	}

	view.Facets = nonEmptyFacets(facets)
	s.render(w, r, http.StatusOK, "overview.html", "OpenAlex explorer", "overview", view)
}

// worksPage handles GET /works.
func (s *Server) worksPage(w http.ResponseWriter, r *http.Request) {
	params, err := parseListParams(r, openalex.KindWorks, s.config.PerPage)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	if params.Sort == "" && params.Search == "" {
		params.Sort = openalex.SortMostCited
	}

	view := worksView{
		Search:  params.Search,
		Filters: activeFilters(r.URL),
		Sorts:   sortOptions(r.URL, params.Sort, workSorts),
	}
	facets := make([]facetGroup, len(worksFacets))

	g, gctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		page, err := s.explorer.ListWorks(gctx, params)
		if err != nil {
			return err
		}
		view.Count = page.Meta.Count
		view.Works = newWorkRows(page.Results)
		return nil
	})
	for i, key := range worksFacets {
		g.Go(func() error {
			facets[i] = s.facet(gctx, params, key, r.URL)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.renderError(w, r, err)
		return
	}

	view.Facets = nonEmptyFacets(facets)
	view.Pager = pagination.Build(params.Page, pagination.TotalPages(view.Count, params.PerPage), pageHref(r.URL))
	s.render(w, r, http.StatusOK, "works.html", "Works", openalex.KindWorks.String(), view)
}

// facet fetches one group_by facet. Facets are decoration, so a failure is
// logged and yields an empty group instead of failing the page.
func (s *Server) facet(ctx context.Context, params query.Params, key string, base *url.URL) facetGroup {
	f, ok := workFilterFor(key)
	if !ok {
		return facetGroup{}
	}
	groups, err := s.explorer.GroupWorks(ctx, params, key)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Warn().Err(err).Str("group_by", key).Msg("facet unavailable")
		}
		return facetGroup{}
	}
	return facetGroup{Label: f.Label, Bars: facetBars(groups, f, base)}
}

func nonEmptyFacets(groups []facetGroup) []facetGroup {
	out := groups[:0]
	for _, g := range groups {
		if len(g.Bars) > 0 {
			out = append(out, g)
		}
	}
	return out
}

// workPage handles GET /works/{id}.
func (s *Server) workPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	work, err := s.explorer.GetWork(ctx, chi.URLParam(r, "id"))
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	text := work.Abstract()
	s.recordAbstract(text)
	view := newWorkView(work, text)

	if n := min(len(work.RelatedWorks), s.config.RelatedWorks); n > 0 {
		related, err := s.explorer.GetWorks(ctx, work.RelatedWorks[:n])
		if err != nil {
			s.renderError(w, r, err)
			return
		}
		for _, rw := range related {
			view.Related = append(view.Related, newWorkRow(rw))
		}
	}

	s.render(w, r, http.StatusOK, "work.html", view.Title, openalex.KindWorks.String(), view)
}

// entityListPage handles GET /{kind} for every kind except works.
func (s *Server) entityListPage(kind openalex.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := parseListParams(r, kind, s.config.PerPage)
		if err != nil {
			s.renderError(w, r, err)
			return
		}
		if params.Sort == "" && params.Search == "" {
			params.Sort = openalex.SortMostWorks
		}

		rows, count, err := s.entityRows(r.Context(), kind, params)
		if err != nil {
			s.renderError(w, r, err)
			return
		}

		view := entitiesView{
			Kind:     kind.String(),
			Singular: kind.Singular(),
			Search:   params.Search,
			Count:    count,
			Rows:     rows,
			Sorts:    sortOptions(r.URL, params.Sort, entitySorts),
			Pager:    pagination.Build(params.Page, pagination.TotalPages(count, params.PerPage), pageHref(r.URL)),
		}
		s.render(w, r, http.StatusOK, "entities.html", format.Capitalize(kind.String()), kind.String(), view)
	}
}

func (s *Server) entityRows(ctx context.Context, kind openalex.Kind, params query.Params) ([]entityRow, int, error) {
	switch kind {
	case openalex.KindAuthors:
		return rowsOf(s.explorer.ListAuthors(ctx, params))(authorRow)
	case openalex.KindInstitutions:
		return rowsOf(s.explorer.ListInstitutions(ctx, params))(institutionRow)
	case openalex.KindPublishers:
		return rowsOf(s.explorer.ListPublishers(ctx, params))(publisherRow)
	case openalex.KindSources:
		return rowsOf(s.explorer.ListSources(ctx, params))(sourceRow)
	case openalex.KindTopics:
		return rowsOf(s.explorer.ListTopics(ctx, params))(topicRow)
	case openalex.KindFunders:
		return rowsOf(s.explorer.ListFunders(ctx, params))(funderRow)
	default:
		return nil, 0, nil
	}
}

// rowsOf maps a List* result through a row converter.
func rowsOf[T any](page *openalex.Page[T], err error) func(func(T) entityRow) ([]entityRow, int, error) {
	return func(convert func(T) entityRow) ([]entityRow, int, error) {
		if err != nil {
			return nil, 0, err
		}
		rows := make([]entityRow, 0, len(page.Results))
		for _, item := range page.Results {
			rows = append(rows, convert(item))
		}
		return rows, page.Meta.Count, nil
	}
}

// entityPage handles GET /{kind}/{id}. The entity and a page of its works
// are fetched concurrently.
func (s *Server) entityPage(kind openalex.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		params, err := parseListParams(r, openalex.KindWorks, s.config.PerPage)
		if err != nil {
			s.renderError(w, r, err)
			return
		}
		if params.Sort == "" && params.Search == "" {
			params.Sort = openalex.SortMostCited
		}

		var (
			view  entityView
			works *openalex.Page[openalex.Work]
		)
		g, gctx := errgroup.WithContext(r.Context())
		g.Go(func() error {
			v, err := s.entityDetail(gctx, kind, id)
			view = v
			return err
		})
		g.Go(func() error {
			page, err := s.explorer.ListWorksFor(gctx, kind, id, params)
			works = page
			return err
		})
		if err := g.Wait(); err != nil {
			s.renderError(w, r, err)
			return
		}

		short := openalex.NormalizeID(kind, id)
		view.Kind = kind.String()
		view.ID = short
		view.APIHref = "/api/v1/" + kind.String() + "/" + url.PathEscape(short)
		view.WorksCount = works.Meta.Count
		view.Works = newWorkRows(works.Results)
		view.Pager = pagination.Build(params.Page, pagination.TotalPages(works.Meta.Count, params.PerPage), pageHref(r.URL))
		if f, ok := workFilterFor(openalex.WorksFilterFor(kind)); ok {
			view.WorksHref = withParam(&url.URL{Path: "/works"}, f.Param, short)
		}
		s.render(w, r, http.StatusOK, "entity.html", view.Name, kind.String(), view)
	}
}

func (s *Server) entityDetail(ctx context.Context, kind openalex.Kind, id string) (entityView, error) {
	switch kind {
	case openalex.KindAuthors:
		return viewOf(s.explorer.GetAuthor(ctx, id))(authorView)
	case openalex.KindInstitutions:
		return viewOf(s.explorer.GetInstitution(ctx, id))(institutionView)
	case openalex.KindPublishers:
		return viewOf(s.explorer.GetPublisher(ctx, id))(publisherView)
	case openalex.KindSources:
		return viewOf(s.explorer.GetSource(ctx, id))(sourceView)
	case openalex.KindTopics:
		return viewOf(s.explorer.GetTopic(ctx, id))(topicView)
	case openalex.KindFunders:
		return viewOf(s.explorer.GetFunder(ctx, id))(funderView)
	default:
		return entityView{}, nil
	}
}

func viewOf[T any](v *T, err error) func(func(*T) entityView) (entityView, error) {
	return func(convert func(*T) entityView) (entityView, error) {
		if err != nil {
			return entityView{}, err
		}
		return convert(v), nil
	}
}

// geoPage handles GET /geo.
func (s *Server) geoPage(w http.ResponseWriter, r *http.Request) {
	countries, err := s.explorer.Countries(r.Context())
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "geo.html", "Works by country", "geo", geoView{Countries: countryBars(countries)})
}

// countryPage handles GET /geo/{code}.
func (s *Server) countryPage(w http.ResponseWriter, r *http.Request) {
	code := strings.ToUpper(chi.URLParam(r, "code"))
	years, err := s.explorer.CountryOutput(r.Context(), code)
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	counts := make([]yearCount, 0, len(years))
	total := 0
	for _, y := range years {
		counts = append(counts, yearCount{Year: y.Year, Count: y.Count})
		total += y.Count
	}
	worksBase := &url.URL{Path: "/works", RawQuery: url.Values{"country": {code}}.Encode()}
	view := countryView{
		Code:  code,
		Total: total,
		Years: yearBars(counts, func(year int) string {
			return withParam(worksBase, "year", strconv.Itoa(year))
		}),
		WorksHref: worksBase.String(),
	}
	s.render(w, r, http.StatusOK, "country.html", "Output of "+code, "geo", view)
}
