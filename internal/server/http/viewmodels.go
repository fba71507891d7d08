package httpserver

import (
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/helixir/openalex-explorer/internal/format"
	"github.com/helixir/openalex-explorer/internal/imageurl"
	"github.com/helixir/openalex-explorer/internal/openalex"
	"github.com/helixir/openalex-explorer/internal/pagination"
	"github.com/helixir/openalex-explorer/internal/query"
)

// maxListedAuthors is how many authors a work row names before "et al.".
const maxListedAuthors = 3

// workRow is one line of a works table.
type workRow struct {
	ID       string
	Href     string
	Title    string
	Year     int
	Type     string
	Source   string
	Authors  string
	CitedBy  int
	OAStatus string
}

// entityRow is one line of an entity list.
type entityRow struct {
	ID           string
	Href         string
	Name         string
	Subtitle     string
	ImageURL     string
	WorksCount   int
	CitedByCount int
	HIndex       int
}

// fact is a labelled value on a detail page. Href is optional.
type fact struct {
	Label string
	Value string
	Href  string
}

// bar is one row of a horizontal bar chart. Width is a CSS percentage.
type bar struct {
	Label  string
	Href   string
	Count  int
	Width  int
	Colour string
}

type facetGroup struct {
	Label string
	Bars  []bar
}

type activeFilter struct {
	Label      string
	Value      string
	RemoveHref string
}

type sortOption struct {
	Label    string
	Value    string
	Href     string
	Selected bool
}

type overviewView struct {
	Total  int
	Works  []workRow
	Facets []facetGroup
}

type worksView struct {
	Search  string
	Count   int
	Works   []workRow
	Filters []activeFilter
	Facets  []facetGroup
	Sorts   []sortOption
	Pager   pagination.Pager
}

type authorLine struct {
	Name         string
	Href         string
	Institutions string
}

type workView struct {
	ID          string
	Title       string
	Year        int
	Date        string
	Type        string
	CitedBy     int
	OAStatus    string
	OAURL       string
	Retracted   bool
	Source      fact
	Topic       fact
	Abstract    string
	Authors     []authorLine
	Identifiers []fact
	Citations   []bar
	Concepts    []fact
	Keywords    []fact
	Related     []workRow
	APIHref     string
}

type entitiesView struct {
	Kind     string
	Singular string
	Search   string
	Count    int
	Rows     []entityRow
	Sorts    []sortOption
	Pager    pagination.Pager
}

type entityView struct {
	Kind        string
	ID          string
	Name        string
	Subtitle    string
	ImageURL    string
	HomepageURL string
	Description string
	Facts       []fact
	Years       []bar
	WorksCount  int
	WorksHref   string
	Works       []workRow
	Pager       pagination.Pager
	APIHref     string
}

type geoView struct {
	Countries []bar
}

type countryView struct {
	Code      string
	Total     int
	Years     []bar
	WorksHref string
}

func entityHref(kind openalex.Kind, id string) string {
	short := openalex.ShortID(id)
	if short == "" {
		return ""
	}
	return "/" + kind.String() + "/" + url.PathEscape(short)
}

func newWorkRow(w *openalex.Work) workRow {
	names := make([]string, 0, maxListedAuthors)
	for i, a := range w.Authorships {
		if i == maxListedAuthors {
			break
		}
		names = append(names, a.Author.DisplayName)
	}
	authors := strings.Join(names, ", ")
	if len(w.Authorships) > maxListedAuthors {
		authors += " et al."
	}
	return workRow{
		ID:       openalex.ShortID(w.ID),
		Href:     entityHref(openalex.KindWorks, w.ID),
		Title:    w.Name(),
		Year:     w.PublicationYear,
		Type:     w.Type,
		Source:   w.SourceName(),
		Authors:  authors,
		CitedBy:  w.CitedByCount,
		OAStatus: w.OpenAccess.OAStatus,
	}
}

func newWorkRows(works []openalex.Work) []workRow {
	rows := make([]workRow, 0, len(works))
	for i := range works {
		rows = append(rows, newWorkRow(&works[i]))
	}
	return rows
}

func newWorkView(w *openalex.Work, abstractText string) workView {
	v := workView{
		ID:        openalex.ShortID(w.ID),
		Title:     w.Name(),
		Year:      w.PublicationYear,
		Date:      format.Date(w.PublicationDate),
		Type:      w.Type,
		CitedBy:   w.CitedByCount,
		OAStatus:  w.OpenAccess.OAStatus,
		OAURL:     w.OpenAccess.OAURL,
		Retracted: w.IsRetracted,
		Abstract:  abstractText,
		APIHref:   "/api/v1/works/" + url.PathEscape(openalex.ShortID(w.ID)),
	}

	if w.PrimaryLocation != nil && w.PrimaryLocation.Source != nil {
		src := w.PrimaryLocation.Source
		v.Source = fact{Label: "Source", Value: src.DisplayName, Href: entityHref(openalex.KindSources, src.ID)}
	}
	if w.PrimaryTopic != nil {
		v.Topic = fact{Label: "Topic", Value: w.PrimaryTopic.DisplayName, Href: entityHref(openalex.KindTopics, w.PrimaryTopic.ID)}
	}

	for _, a := range w.Authorships {
		insts := make([]string, 0, len(a.Institutions))
		for _, inst := range a.Institutions {
			insts = append(insts, inst.DisplayName)
		}
		v.Authors = append(v.Authors, authorLine{
			Name:         a.Author.DisplayName,
			Href:         entityHref(openalex.KindAuthors, a.Author.ID),
			Institutions: strings.Join(insts, "; "),
		})
	}

	ids := w.Identifiers()
	schemes := make([]string, 0, len(ids))
	for scheme := range ids {
		schemes = append(schemes, scheme)
	}
	sort.Strings(schemes)
	for _, scheme := range schemes {
		v.Identifiers = append(v.Identifiers, fact{Label: strings.ToUpper(scheme), Value: ids[scheme]})
	}

	citations := make([]yearCount, 0, len(w.CountsByYear))
	for _, c := range w.CountsByYear {
		citations = append(citations, yearCount{Year: c.Year, Count: c.CitedByCount})
	}
	v.Citations = yearBars(citations, nil)

	for _, c := range w.Concepts {
		v.Concepts = append(v.Concepts, fact{Label: c.DisplayName, Value: format.Percent(c.Score)})
	}
	for _, k := range w.Keywords {
		v.Keywords = append(v.Keywords, fact{Label: k.DisplayName, Value: format.Percent(k.Score)})
	}
	return v
}

type yearCount struct {
	Year  int
	Count int
}

// yearBars charts counts oldest year first. href, when set, links each bar.
func yearBars(counts []yearCount, href func(year int) string) []bar {
	sorted := append([]yearCount(nil), counts...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Year < sorted[j].Year })

	peak := 0
	for _, c := range sorted {
		peak = max(peak, c.Count)
	}
	bars := make([]bar, 0, len(sorted))
	for _, c := range sorted {
		b := bar{Label: strconv.Itoa(c.Year), Count: c.Count, Width: width(c.Count, peak)}
		if href != nil {
			b.Href = href(c.Year)
		}
		bars = append(bars, b)
	}
	return bars
}

func activityBars(counts []openalex.CountsByYear) []bar {
	years := make([]yearCount, 0, len(counts))
	for _, c := range counts {
		years = append(years, yearCount{Year: c.Year, Count: c.WorksCount})
	}
	return yearBars(years, nil)
}

// width scales count against peak into 1..100, or 0 for an empty bar.
func width(count, peak int) int {
	if count <= 0 || peak <= 0 {
		return 0
	}
	return max(1, count*100/peak)
}

// facetBars turns group counts into links that add the facet to the works
// filters of base.
func facetBars(groups []openalex.GroupCount, f workFilter, base *url.URL) []bar {
	peak := 0
	for _, g := range groups {
		peak = max(peak, g.Count)
	}
	bars := make([]bar, 0, len(groups))
	for _, g := range groups {
		value := g.Key
		if f.Kind != "" {
			value = openalex.ShortID(g.Key)
		}
		label := g.KeyDisplayName
		if label == "" {
			label = g.Key
		}
		b := bar{
			Label: label,
			Count: g.Count,
			Width: width(g.Count, peak),
			Href:  withParam(base, f.Param, value),
		}
		if f.Filter == query.FilterOAStatus {
			b.Label = format.Capitalize(label)
			b.Colour = format.OAStatusColour(g.Key)
		}
		if f.Filter == query.FilterType {
			b.Label = format.Label(label)
		}
		bars = append(bars, b)
	}
	return bars
}

func countryBars(countries []openalex.CountryCount) []bar {
	peak := 0
	for _, c := range countries {
		peak = max(peak, c.Count)
	}
	bars := make([]bar, 0, len(countries))
	for _, c := range countries {
		label := c.Name
		if label == "" {
			label = c.CountryCode
		}
		bars = append(bars, bar{
			Label: label,
			Href:  "/geo/" + c.CountryCode,
			Count: c.Count,
			Width: width(c.Count, peak),
		})
	}
	return bars
}

// activeFilters lists the dashboard filters set on u with links that clear
// each one.
func activeFilters(u *url.URL) []activeFilter {
	v := u.Query()
	var out []activeFilter
	for _, f := range workFilters {
		value := strings.TrimSpace(v.Get(f.Param))
		if value == "" {
			continue
		}
		out = append(out, activeFilter{
			Label:      f.Label,
			Value:      value,
			RemoveHref: withParam(u, f.Param, ""),
		})
	}
	return out
}

func sortOptions(u *url.URL, current string, options []sortOption) []sortOption {
	out := make([]sortOption, len(options))
	for i, o := range options {
		o.Href = withParam(u, "sort", o.Value)
		o.Selected = o.Value == current
		out[i] = o
	}
	return out
}

var workSorts = []sortOption{
	{Label: "Most cited", Value: openalex.SortMostCited},
	{Label: "Newest", Value: openalex.SortNewestWorks},
	{Label: "Top percentile", Value: openalex.SortTopWorks},
	{Label: "Relevance", Value: openalex.SortRelevance},
}

var entitySorts = []sortOption{
	{Label: "Most works", Value: openalex.SortMostWorks},
	{Label: "Most cited", Value: openalex.SortMostCited},
}

func institutionLine(insts []openalex.Institution) string {
	names := make([]string, 0, len(insts))
	for _, inst := range insts {
		names = append(names, inst.DisplayName)
	}
	return strings.Join(names, ", ")
}

func authorRow(a openalex.Author) entityRow {
	return entityRow{
		ID:           openalex.ShortID(a.ID),
		Href:         entityHref(openalex.KindAuthors, a.ID),
		Name:         a.DisplayName,
		Subtitle:     institutionLine(a.LastKnownInstitutions),
		WorksCount:   a.WorksCount,
		CitedByCount: a.CitedByCount,
		HIndex:       a.SummaryStats.HIndex,
	}
}

func institutionRow(i openalex.Institution) entityRow {
	return entityRow{
		ID:           openalex.ShortID(i.ID),
		Href:         entityHref(openalex.KindInstitutions, i.ID),
		Name:         i.DisplayName,
		Subtitle:     joinNonEmpty(" · ", format.Label(i.Type), i.CountryCode),
		ImageURL:     i.ImageThumbnailURL,
		WorksCount:   i.WorksCount,
		CitedByCount: i.CitedByCount,
		HIndex:       i.SummaryStats.HIndex,
	}
}

func publisherRow(p openalex.Publisher) entityRow {
	return entityRow{
		ID:           openalex.ShortID(p.ID),
		Href:         entityHref(openalex.KindPublishers, p.ID),
		Name:         p.DisplayName,
		Subtitle:     strings.Join(p.CountryCodes, ", "),
		ImageURL:     imageOrPlaceholder(p.ImageThumbnailURL),
		WorksCount:   p.WorksCount,
		CitedByCount: p.CitedByCount,
		HIndex:       p.SummaryStats.HIndex,
	}
}

func sourceRow(s openalex.Source) entityRow {
	return entityRow{
		ID:           openalex.ShortID(s.ID),
		Href:         entityHref(openalex.KindSources, s.ID),
		Name:         s.DisplayName,
		Subtitle:     joinNonEmpty(" · ", s.HostOrganizationName, s.ISSNL),
		WorksCount:   s.WorksCount,
		CitedByCount: s.CitedByCount,
		HIndex:       s.SummaryStats.HIndex,
	}
}

func topicRow(t openalex.Topic) entityRow {
	row := entityRow{
		ID:           openalex.ShortID(t.ID),
		Href:         entityHref(openalex.KindTopics, t.ID),
		Name:         t.DisplayName,
		WorksCount:   t.WorksCount,
		CitedByCount: t.CitedByCount,
	}
	if t.Field != nil {
		row.Subtitle = t.Field.DisplayName
	}
	return row
}

func funderRow(f openalex.Funder) entityRow {
	return entityRow{
		ID:           openalex.ShortID(f.ID),
		Href:         entityHref(openalex.KindFunders, f.ID),
		Name:         f.DisplayName,
		Subtitle:     f.CountryCode,
		ImageURL:     f.ImageThumbnailURL,
		WorksCount:   f.WorksCount,
		CitedByCount: f.CitedByCount,
		HIndex:       f.SummaryStats.HIndex,
	}
}

func authorView(a *openalex.Author) entityView {
	v := entityView{
		Name:     a.DisplayName,
		Subtitle: institutionLine(a.LastKnownInstitutions),
		Years:    activityBars(a.CountsByYear),
		Facts:    summaryFacts(a.WorksCount, a.CitedByCount, a.SummaryStats),
	}
	if a.ORCID != "" {
		v.Facts = append(v.Facts, fact{Label: "ORCID", Value: openalex.ExtractIdentifier(openalex.SchemeORCID, a.ORCID), Href: a.ORCID})
	}
	for _, t := range a.Topics {
		v.Facts = append(v.Facts, fact{Label: "Topic", Value: t.DisplayName, Href: entityHref(openalex.KindTopics, t.ID)})
	}
	return v
}

func institutionView(i *openalex.Institution) entityView {
	v := entityView{
		Name:        i.DisplayName,
		Subtitle:    joinNonEmpty(" · ", format.Label(i.Type), i.CountryCode),
		ImageURL:    imageurl.Optimal(i.ImageURL, ""),
		HomepageURL: i.HomepageURL,
		Years:       activityBars(i.CountsByYear),
		Facts:       summaryFacts(i.WorksCount, i.CitedByCount, i.SummaryStats),
	}
	if i.Geo != nil {
		v.Facts = append(v.Facts, fact{Label: "Location", Value: joinNonEmpty(", ", i.Geo.City, i.Geo.Region, i.Geo.Country)})
	}
	if i.ROR != "" {
		v.Facts = append(v.Facts, fact{Label: "ROR", Value: openalex.ExtractIdentifier(openalex.SchemeROR, i.ROR), Href: i.ROR})
	}
	return v
}

func publisherView(p *openalex.Publisher) entityView {
	v := entityView{
		Name:        p.DisplayName,
		Subtitle:    strings.Join(p.CountryCodes, ", "),
		ImageURL:    imageOrPlaceholder(p.ImageURL),
		HomepageURL: p.HomepageURL,
		Years:       activityBars(p.CountsByYear),
		Facts:       summaryFacts(p.WorksCount, p.CitedByCount, p.SummaryStats),
	}
	if p.ParentPublisher != nil {
		v.Facts = append(v.Facts, fact{Label: "Parent", Value: p.ParentPublisher.DisplayName, Href: entityHref(openalex.KindPublishers, p.ParentPublisher.ID)})
	}
	if len(p.AlternateTitles) > 0 {
		v.Facts = append(v.Facts, fact{Label: "Also known as", Value: strings.Join(p.AlternateTitles, ", ")})
	}
	return v
}

func sourceView(s *openalex.Source) entityView {
	v := entityView{
		Name:        s.DisplayName,
		Subtitle:    format.Label(s.Type),
		HomepageURL: s.HomepageURL,
		Years:       activityBars(s.CountsByYear),
		Facts:       summaryFacts(s.WorksCount, s.CitedByCount, s.SummaryStats),
	}
	if s.HostOrganizationName != "" {
		v.Facts = append(v.Facts, fact{Label: "Host", Value: s.HostOrganizationName, Href: hostHref(s.HostOrganization)})
	}
	if s.ISSNL != "" {
		v.Facts = append(v.Facts, fact{Label: "ISSN-L", Value: s.ISSNL})
	}
	oa := "No"
	if s.IsOA {
		oa = "Yes"
	}
	v.Facts = append(v.Facts, fact{Label: "Open access", Value: oa})
	return v
}

func topicView(t *openalex.Topic) entityView {
	v := entityView{
		Name:        t.DisplayName,
		Description: t.Description,
		Facts: []fact{
			{Label: "Works", Value: format.Thousands(int64(t.WorksCount))},
			{Label: "Citations", Value: format.Thousands(int64(t.CitedByCount))},
		},
	}
	for _, ref := range []struct {
		label string
		ref   *openalex.Ref
	}{{"Domain", t.Domain}, {"Field", t.Field}, {"Subfield", t.Subfield}} {
		if ref.ref != nil {
			v.Facts = append(v.Facts, fact{Label: ref.label, Value: ref.ref.DisplayName})
		}
	}
	if len(t.Keywords) > 0 {
		v.Facts = append(v.Facts, fact{Label: "Keywords", Value: strings.Join(t.Keywords, ", ")})
	}
	return v
}

func funderView(f *openalex.Funder) entityView {
	v := entityView{
		Name:        f.DisplayName,
		Subtitle:    f.CountryCode,
		Description: f.Description,
		ImageURL:    imageurl.Optimal(f.ImageURL, ""),
		HomepageURL: f.HomepageURL,
		Years:       activityBars(f.CountsByYear),
		Facts:       summaryFacts(f.WorksCount, f.CitedByCount, f.SummaryStats),
	}
	v.Facts = append(v.Facts, fact{Label: "Grants", Value: format.Thousands(int64(f.GrantsCount))})
	return v
}

func summaryFacts(works, cited int, stats openalex.SummaryStats) []fact {
	return []fact{
		{Label: "Works", Value: format.Thousands(int64(works))},
		{Label: "Citations", Value: format.Thousands(int64(cited))},
		{Label: "h-index", Value: strconv.Itoa(stats.HIndex)},
		{Label: "i10-index", Value: strconv.Itoa(stats.I10Index)},
		{Label: "2-year mean citedness", Value: strconv.FormatFloat(stats.TwoYearMeanCitedness, 'f', 2, 64)},
	}
}

// hostHref links a source's host organization, which is either a publisher
// or an institution.
func hostHref(id string) string {
	short := openalex.ShortID(id)
	switch {
	case strings.HasPrefix(short, "P"):
		return entityHref(openalex.KindPublishers, short)
	case strings.HasPrefix(short, "I"):
		return entityHref(openalex.KindInstitutions, short)
	default:
		return ""
	}
}

func imageOrPlaceholder(u string) string {
	return imageurl.Optimal(u, imageurl.PublisherPlaceholder)
}

func joinNonEmpty(sep string, parts ...string) string {
	out := parts[:0:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}
