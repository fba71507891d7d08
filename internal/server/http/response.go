package httpserver

import (
	"github.com/helixir/openalex-explorer/internal/abstract"
	"github.com/helixir/openalex-explorer/internal/openalex"
	"github.com/helixir/openalex-explorer/internal/pagination"
	"github.com/helixir/openalex-explorer/internal/query"
)

// JSON response types.

type listResponse struct {
	Meta       openalex.Meta      `json:"meta"`
	Results    interface{}        `json:"results"`
	Pagination paginationResponse `json:"pagination"`
}

type paginationResponse struct {
	Page       int                `json:"page"`
	PerPage    int                `json:"per_page"`
	TotalPages int                `json:"total_pages"`
	Window     []pagination.Entry `json:"window"`
}

type groupResponse struct {
	GroupBy string                `json:"group_by"`
	Groups  []openalex.GroupCount `json:"groups"`
}

type workResponse struct {
	*openalex.Work
	Abstract string `json:"abstract"`
}

type abstractResponse struct {
	ID       string `json:"id,omitempty"`
	Abstract string `json:"abstract"`
}

type invertRequest struct {
	Text string `json:"text"`
}

type countriesResponse struct {
	Countries []openalex.CountryCount `json:"countries"`
}

type countryOutputResponse struct {
	CountryCode string               `json:"country_code"`
	Years       []openalex.YearCount `json:"years"`
}

// Converter functions

func newListResponse[T any](page *openalex.Page[T], params query.Params) listResponse {
	total := pagination.TotalPages(page.Meta.Count, params.PerPage)
	current := pagination.Clamp(params.Page, total)
	results := page.Results
	if results == nil {
		results = []T{}
	}
	return listResponse{
		Meta:    page.Meta,
		Results: results,
		Pagination: paginationResponse{
			Page:       current,
			PerPage:    params.PerPage,
			TotalPages: total,
			Window:     pagination.Window(current, total),
		},
	}
}

func newWorkResponse(w *openalex.Work) workResponse {
	return workResponse{Work: w, Abstract: abstract.Reconstruct(w.AbstractInvertedIndex)}
}
