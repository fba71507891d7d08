package openalex

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/helixir/openalex-explorer/internal/domain"
	"github.com/helixir/openalex-explorer/internal/query"
)

const countryKeyPrefix = "https://openalex.org/countries/"

// GroupWorks counts the works matching params by the groupBy field. Paging
// options in params are ignored because OpenAlex returns every group in one
// response.
func (c *Client) GroupWorks(ctx context.Context, params query.Params, groupBy string) ([]GroupCount, error) {
	if strings.TrimSpace(groupBy) == "" {
		return nil, domain.NewValidationError("group_by", "must not be empty")
	}
	params.GroupBy = groupBy
	params.Page = 0
	params.PerPage = 0
	params.Sort = ""

	page, err := list[Work](ctx, c, KindWorks, params)
	if err != nil {
		return nil, fmt.Errorf("grouping works by %s: %w", groupBy, err)
	}
	return page.GroupBy, nil
}

// GetWorks fetches the works with the given IDs concurrently. Lookups that
// fail are logged and left out, so the result may be shorter than ids. The
// order of ids is preserved. Only cancellation of ctx is returned as an
// error.
func (c *Client) GetWorks(ctx context.Context, ids []string) ([]*Work, error) {
	results := make([]*Work, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.config.Concurrency)
	for i, id := range ids {
		g.Go(func() error {
			w, err := c.GetWork(gctx, id)
			if err != nil {
				c.logger.Warn().Err(err).Str("work_id", id).Msg("skipping work that could not be fetched")
				return nil
			}
			results[i] = w
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	works := make([]*Work, 0, len(results))
	for _, w := range results {
		if w != nil {
			works = append(works, w)
		}
	}
	return works, nil
}

// Countries returns the number of works per institution country, largest
// first.
func (c *Client) Countries(ctx context.Context) ([]CountryCount, error) {
	groups, err := c.GroupWorks(ctx, query.Params{}, query.FilterCountryCode)
	if err != nil {
		return nil, err
	}

	out := make([]CountryCount, 0, len(groups))
	for _, g := range groups {
		code := strings.ToUpper(strings.TrimPrefix(g.Key, countryKeyPrefix))
		if code == "" || code == "UNKNOWN" {
			continue
		}
		out = append(out, CountryCount{
			CountryCode: code,
			Name:        g.KeyDisplayName,
			Count:       g.Count,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})
	return out, nil
}

// CountryOutput returns the yearly work counts for institutions in the
// country with the given ISO 3166-1 alpha-2 code, oldest year first.
func (c *Client) CountryOutput(ctx context.Context, countryCode string) ([]YearCount, error) {
	code := strings.ToUpper(strings.TrimSpace(countryCode))
	if !isCountryCode(code) {
		return nil, domain.NewValidationError("country_code", fmt.Sprintf("%q is not a two-letter country code", countryCode))
	}

	var params query.Params
	params.Filters.Add(query.FilterCountryCode, code)

	groups, err := c.GroupWorks(ctx, params, query.FilterPublicationYear)
	if err != nil {
		return nil, err
	}

	out := make([]YearCount, 0, len(groups))
	for _, g := range groups {
		year, err := strconv.Atoi(g.Key)
		if err != nil {
			continue
		}
		out = append(out, YearCount{Year: year, Count: g.Count})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Year < out[j].Year
	})
	return out, nil
}

func isCountryCode(s string) bool {
	return len(s) == 2 && s[0] >= 'A' && s[0] <= 'Z' && s[1] >= 'A' && s[1] <= 'Z'
}
