package openalex

import (
	"context"

	"github.com/helixir/openalex-explorer/internal/query"
)

// Sort orders used by the dashboard.
const (
	SortTopWorks     = "citation_normalized_percentile.value:desc"
	SortMostCited    = "cited_by_count:desc"
	SortMostWorks    = "works_count:desc"
	SortNewestWorks  = "publication_date:desc"
	SortRelevance    = "relevance_score:desc"
	SortPublishedAsc = "publication_year:asc"
)

// ListWorks returns one page of works.
func (c *Client) ListWorks(ctx context.Context, params query.Params) (*Page[Work], error) {
	return list[Work](ctx, c, KindWorks, params)
}

// GetWork returns a single work by OpenAlex ID, URL or DOI.
func (c *Client) GetWork(ctx context.Context, id string) (*Work, error) {
	return get[Work](ctx, c, KindWorks, id)
}

// ListAuthors returns one page of authors.
func (c *Client) ListAuthors(ctx context.Context, params query.Params) (*Page[Author], error) {
	return list[Author](ctx, c, KindAuthors, params)
}

// GetAuthor returns a single author.
func (c *Client) GetAuthor(ctx context.Context, id string) (*Author, error) {
	return get[Author](ctx, c, KindAuthors, id)
}

// ListInstitutions returns one page of institutions.
func (c *Client) ListInstitutions(ctx context.Context, params query.Params) (*Page[Institution], error) {
	return list[Institution](ctx, c, KindInstitutions, params)
}

// GetInstitution returns a single institution.
func (c *Client) GetInstitution(ctx context.Context, id string) (*Institution, error) {
	return get[Institution](ctx, c, KindInstitutions, id)
}

// ListPublishers returns one page of publishers.
func (c *Client) ListPublishers(ctx context.Context, params query.Params) (*Page[Publisher], error) {
	return list[Publisher](ctx, c, KindPublishers, params)
}

// GetPublisher returns a single publisher.
func (c *Client) GetPublisher(ctx context.Context, id string) (*Publisher, error) {
	return get[Publisher](ctx, c, KindPublishers, id)
}

// ListSources returns one page of sources.
func (c *Client) ListSources(ctx context.Context, params query.Params) (*Page[Source], error) {
	return list[Source](ctx, c, KindSources, params)
}

// GetSource returns a single source.
func (c *Client) GetSource(ctx context.Context, id string) (*Source, error) {
	return get[Source](ctx, c, KindSources, id)
}

// ListTopics returns one page of topics.
func (c *Client) ListTopics(ctx context.Context, params query.Params) (*Page[Topic], error) {
	return list[Topic](ctx, c, KindTopics, params)
}

// GetTopic returns a single topic.
func (c *Client) GetTopic(ctx context.Context, id string) (*Topic, error) {
	return get[Topic](ctx, c, KindTopics, id)
}

// ListFunders returns one page of funders.
func (c *Client) ListFunders(ctx context.Context, params query.Params) (*Page[Funder], error) {
	return list[Funder](ctx, c, KindFunders, params)
}

// GetFunder returns a single funder.
func (c *Client) GetFunder(ctx context.Context, id string) (*Funder, error) {
	return get[Funder](ctx, c, KindFunders, id)
}

// worksFilters maps an entity kind to the works filter that selects the
// works attached to it.
var worksFilters = map[Kind]string{
	KindAuthors:      query.FilterAuthor,
	KindInstitutions: query.FilterInstitution,
	KindPublishers:   query.FilterPublisher,
	KindSources:      query.FilterSource,
	KindTopics:       query.FilterTopic,
	KindFunders:      query.FilterFunder,
}

// WorksFilterFor returns the works filter key for kind, or "" for works.
func WorksFilterFor(kind Kind) string {
	return worksFilters[kind]
}

// ListWorksFor returns works attached to the entity of kind with id, e.g.
// the works published in a source or funded by a funder. Filters already in
// params are kept.
func (c *Client) ListWorksFor(ctx context.Context, kind Kind, id string, params query.Params) (*Page[Work], error) {
	key := WorksFilterFor(kind)
	if key == "" {
		return c.ListWorks(ctx, params)
	}
	params.Filters = params.Filters.Clone()
	params.Filters.Add(key, NormalizeID(kind, id))
	return c.ListWorks(ctx, params)
}
