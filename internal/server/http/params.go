package httpserver

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/helixir/openalex-explorer/internal/domain"
	"github.com/helixir/openalex-explorer/internal/openalex"
	"github.com/helixir/openalex-explorer/internal/pagination"
	"github.com/helixir/openalex-explorer/internal/query"
)

// workFilter binds a dashboard query parameter to an OpenAlex works filter.
// Kind is set for filters whose values are entity IDs.
type workFilter struct {
	Param  string
	Filter string
	Label  string
	Kind   openalex.Kind
}

var workFilters = []workFilter{
	{Param: "oa_status", Filter: query.FilterOAStatus, Label: "Open access"},
	{Param: "type", Filter: query.FilterType, Label: "Type"},
	{Param: "journal", Filter: query.FilterSource, Label: "Journal", Kind: openalex.KindSources},
	{Param: "institution", Filter: query.FilterInstitution, Label: "Institution", Kind: openalex.KindInstitutions},
	{Param: "funder", Filter: query.FilterFunder, Label: "Funder", Kind: openalex.KindFunders},
	{Param: "year", Filter: query.FilterPublicationYear, Label: "Year"},
	{Param: "country", Filter: query.FilterCountryCode, Label: "Country"},
}

func workFilterFor(filter string) (workFilter, bool) {
	for _, f := range workFilters {
		if f.Filter == filter {
			return f, true
		}
	}
	return workFilter{}, false
}

// parseListParams reads q, page, per_page, sort and filter from the request.
// A page that is not a positive number falls back to 1. Page size and sort
// are validated and reported as domain.ValidationError. For works, the
// dashboard filter parameters are added on top of the raw filter string.
func parseListParams(r *http.Request, kind openalex.Kind, defaultPerPage int) (query.Params, error) {
	v := r.URL.Query()

	params := query.Params{
		Search:  strings.TrimSpace(v.Get("q")),
		Filters: query.ParseFilters(v.Get("filter")),
		PerPage: defaultPerPage,
		Page:    1,
	}
	if params.Search == "" {
		params.Search = strings.TrimSpace(v.Get("search"))
	}

	if raw := firstOf(v, "per_page", "per-page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > query.MaxPerPage {
			return query.Params{}, domain.NewValidationError("per_page", fmt.Sprintf("must be a number between 1 and %d", query.MaxPerPage))
		}
		params.PerPage = n
	}

	if n, err := strconv.Atoi(v.Get("page")); err == nil && n > 1 {
		params.Page = n
	}
	if last := pagination.LastPage(params.PerPage); params.Page > last {
		params.Page = last
	}

	sort, err := query.ParseSort(v.Get("sort"))
	if err != nil {
		return query.Params{}, err
	}
	params.Sort = sort

	if kind == openalex.KindWorks {
		for _, f := range workFilters {
			value := strings.TrimSpace(v.Get(f.Param))
			if value == "" {
				continue
			}
			if f.Kind != "" {
				value = normalizeIDs(f.Kind, value)
			}
			params.Filters.Add(f.Filter, value)
		}
	}

	return params, nil
}

// normalizeIDs normalises each alternative of an OR filter value ("A|B").
func normalizeIDs(kind openalex.Kind, value string) string {
	parts := strings.Split(value, "|")
	out := parts[:0]
	for _, p := range parts {
		if id := openalex.NormalizeID(kind, p); id != "" {
			out = append(out, id)
		}
	}
	return strings.Join(out, "|")
}

func firstOf(v url.Values, keys ...string) string {
	for _, k := range keys {
		if s := strings.TrimSpace(v.Get(k)); s != "" {
			return s
		}
	}
	return ""
}

// pageHref returns a function that links to another page of the current
// request, keeping every other query parameter.
func pageHref(u *url.URL) func(page int) string {
	return func(page int) string {
		v := u.Query()
		if page <= 1 {
			v.Del("page")
		} else {
			v.Set("page", strconv.Itoa(page))
		}
		if len(v) == 0 {
			return u.Path
		}
		return u.Path + "?" + v.Encode()
	}
}

// withParam returns the path of u with key set to value and paging reset.
func withParam(u *url.URL, key, value string) string {
	v := u.Query()
	v.Del("page")
	if value == "" {
		v.Del(key)
	} else {
		v.Set(key, value)
	}
	if len(v) == 0 {
		return u.Path
	}
	return u.Path + "?" + v.Encode()
}
