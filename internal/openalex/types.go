// Package openalex is a typed client for the OpenAlex REST API.
//
// OpenAlex is a free, open catalog of scholarly works, authors, sources,
// institutions, publishers, topics and funders. The client covers list and
// detail lookups for each of them plus the group-by aggregations the
// dashboard charts are drawn from.
//
// API Documentation: https://docs.openalex.org/
package openalex

import (
	"github.com/helixir/openalex-explorer/internal/abstract"
)

// Meta describes a list response.
type Meta struct {
	Count       int  `json:"count"`
	DBTime      int  `json:"db_response_time_ms"`
	Page        int  `json:"page"`
	PerPage     int  `json:"per_page"`
	GroupsCount *int `json:"groups_count,omitempty"`
}

// Page is one page of a list endpoint. GroupBy is only set on group_by
// requests.
type Page[T any] struct {
	Meta    Meta         `json:"meta"`
	Results []T          `json:"results"`
	GroupBy []GroupCount `json:"group_by,omitempty"`
}

// GroupCount is one bucket of a group_by aggregation.
type GroupCount struct {
	Key            string `json:"key"`
	KeyDisplayName string `json:"key_display_name"`
	Count          int    `json:"count"`
}

// CountsByYear is a yearly activity bucket.
type CountsByYear struct {
	Year         int `json:"year"`
	WorksCount   int `json:"works_count"`
	CitedByCount int `json:"cited_by_count"`
}

// SummaryStats are the citation indicators OpenAlex computes per entity.
type SummaryStats struct {
	TwoYearMeanCitedness float64 `json:"2yr_mean_citedness"`
	HIndex               int     `json:"h_index"`
	I10Index             int     `json:"i10_index"`
}

// Ref is the dehydrated form used when one entity points at another.
type Ref struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// Work is a scholarly document.
type Work struct {
	ID                           string                        `json:"id"`
	DOI                          string                        `json:"doi"`
	Title                        string                        `json:"title"`
	DisplayName                  string                        `json:"display_name"`
	PublicationYear              int                           `json:"publication_year"`
	PublicationDate              string                        `json:"publication_date"`
	Language                     string                        `json:"language"`
	Type                         string                        `json:"type"`
	CitedByCount                 int                           `json:"cited_by_count"`
	FWCI                         float64                       `json:"fwci"`
	CitationNormalizedPercentile *CitationNormalizedPercentile `json:"citation_normalized_percentile"`
	IDs                          WorkIDs                       `json:"ids"`
	OpenAccess                   OpenAccess                    `json:"open_access"`
	Authorships                  []Authorship                  `json:"authorships"`
	PrimaryLocation              *Location                     `json:"primary_location"`
	PrimaryTopic                 *Topic                        `json:"primary_topic"`
	Biblio                       Biblio                        `json:"biblio"`
	Keywords                     []Keyword                     `json:"keywords"`
	Concepts                     []Concept                     `json:"concepts"`
	Grants                       []Grant                       `json:"grants"`
	ReferencedWorksCount         int                           `json:"referenced_works_count"`
	ReferencedWorks              []string                      `json:"referenced_works"`
	RelatedWorks                 []string                      `json:"related_works"`
	CountsByYear                 []CountsByYear                `json:"counts_by_year"`
	IsRetracted                  bool                          `json:"is_retracted"`

	AbstractInvertedIndex abstract.InvertedIndex `json:"abstract_inverted_index"`
}

// Abstract reconstructs the plain-text abstract.
func (w *Work) Abstract() string {
	return abstract.Reconstruct(w.AbstractInvertedIndex)
}

// Name prefers the display name and falls back to the raw title.
func (w *Work) Name() string {
	if w.DisplayName != "" {
		return w.DisplayName
	}
	return w.Title
}

// SourceName is the display name of the primary location's source, if any.
func (w *Work) SourceName() string {
	if w.PrimaryLocation == nil || w.PrimaryLocation.Source == nil {
		return ""
	}
	return w.PrimaryLocation.Source.DisplayName
}

// Identifiers returns the work's external identifiers with resolver URLs
// stripped, keyed by scheme. Empty identifiers are omitted.
func (w *Work) Identifiers() map[string]string {
	out := make(map[string]string, 5)
	add := func(scheme, v string) {
		if v != "" {
			out[scheme] = ExtractIdentifier(scheme, v)
		}
	}
	add(SchemeOpenAlex, w.IDs.OpenAlex)
	add(SchemeDOI, w.IDs.DOI)
	add(SchemeMAG, w.IDs.MAG)
	add(SchemePMID, w.IDs.PMID)
	add(SchemePMCID, w.IDs.PMCID)
	return out
}

// CitationNormalizedPercentile ranks a work's citations against works of the
// same field, type and year.
type CitationNormalizedPercentile struct {
	Value            float64 `json:"value"`
	IsInTop1Percent  bool    `json:"is_in_top_1_percent"`
	IsInTop10Percent bool    `json:"is_in_top_10_percent"`
}

// WorkIDs holds the external identifiers of a work.
type WorkIDs struct {
	OpenAlex string `json:"openalex"`
	DOI      string `json:"doi"`
	MAG      string `json:"mag"`
	PMID     string `json:"pmid"`
	PMCID    string `json:"pmcid"`
}

// OpenAccess contains open access information for a work.
type OpenAccess struct {
	IsOA     bool   `json:"is_oa"`
	OAStatus string `json:"oa_status"`
	OAURL    string `json:"oa_url"`
}

// Authorship represents an author's contribution to a work.
type Authorship struct {
	AuthorPosition  string        `json:"author_position"`
	Author          AuthorRef     `json:"author"`
	Institutions    []Institution `json:"institutions"`
	Countries       []string      `json:"countries"`
	IsCorresponding bool          `json:"is_corresponding"`
}

// AuthorRef is the dehydrated author embedded in an authorship.
type AuthorRef struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	ORCID       string `json:"orcid"`
}

// Location represents where a work is available.
type Location struct {
	IsOA           bool    `json:"is_oa"`
	LandingPageURL string  `json:"landing_page_url"`
	PDFURL         string  `json:"pdf_url"`
	Source         *Source `json:"source"`
	License        string  `json:"license"`
	Version        string  `json:"version"`
}

// Biblio holds the bibliographic locator of a work.
type Biblio struct {
	Volume    string `json:"volume"`
	Issue     string `json:"issue"`
	FirstPage string `json:"first_page"`
	LastPage  string `json:"last_page"`
}

// Keyword is a scored keyword assigned to a work.
type Keyword struct {
	ID          string  `json:"id"`
	DisplayName string  `json:"display_name"`
	Score       float64 `json:"score"`
}

// Concept is a scored legacy concept tag.
type Concept struct {
	ID          string  `json:"id"`
	DisplayName string  `json:"display_name"`
	Level       int     `json:"level"`
	Score       float64 `json:"score"`
}

// Grant links a work to a funder.
type Grant struct {
	Funder            string `json:"funder"`
	FunderDisplayName string `json:"funder_display_name"`
	AwardID           string `json:"award_id"`
}

// Author is a person who has authored works.
type Author struct {
	ID                    string         `json:"id"`
	DisplayName           string         `json:"display_name"`
	ORCID                 string         `json:"orcid"`
	WorksCount            int            `json:"works_count"`
	CitedByCount          int            `json:"cited_by_count"`
	SummaryStats          SummaryStats   `json:"summary_stats"`
	LastKnownInstitutions []Institution  `json:"last_known_institutions"`
	Topics                []Topic        `json:"topics"`
	CountsByYear          []CountsByYear `json:"counts_by_year"`
}

// Institution is an organisation that authors are affiliated with.
type Institution struct {
	ID                string         `json:"id"`
	ROR               string         `json:"ror"`
	DisplayName       string         `json:"display_name"`
	CountryCode       string         `json:"country_code"`
	Type              string         `json:"type"`
	HomepageURL       string         `json:"homepage_url"`
	ImageURL          string         `json:"image_url"`
	ImageThumbnailURL string         `json:"image_thumbnail_url"`
	WorksCount        int            `json:"works_count"`
	CitedByCount      int            `json:"cited_by_count"`
	SummaryStats      SummaryStats   `json:"summary_stats"`
	Geo               *Geo           `json:"geo,omitempty"`
	CountsByYear      []CountsByYear `json:"counts_by_year"`
}

// Geo is the location of an institution.
type Geo struct {
	City      string  `json:"city"`
	Region    string  `json:"region"`
	Country   string  `json:"country"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Publisher is a company or organisation that publishes sources.
type Publisher struct {
	ID                string         `json:"id"`
	DisplayName       string         `json:"display_name"`
	AlternateTitles   []string       `json:"alternate_titles"`
	HierarchyLevel    int            `json:"hierarchy_level"`
	ParentPublisher   *Ref           `json:"parent_publisher,omitempty"`
	CountryCodes      []string       `json:"country_codes"`
	HomepageURL       string         `json:"homepage_url"`
	ImageURL          string         `json:"image_url"`
	ImageThumbnailURL string         `json:"image_thumbnail_url"`
	WorksCount        int            `json:"works_count"`
	CitedByCount      int            `json:"cited_by_count"`
	SummaryStats      SummaryStats   `json:"summary_stats"`
	CountsByYear      []CountsByYear `json:"counts_by_year"`
}

// Source is a venue that hosts works: a journal, repository or conference.
type Source struct {
	ID                   string         `json:"id"`
	DisplayName          string         `json:"display_name"`
	ISSNL                string         `json:"issn_l"`
	ISSN                 []string       `json:"issn"`
	Type                 string         `json:"type"`
	HostOrganization     string         `json:"host_organization"`
	HostOrganizationName string         `json:"host_organization_name"`
	IsOA                 bool           `json:"is_oa"`
	IsInDOAJ             bool           `json:"is_in_doaj"`
	HomepageURL          string         `json:"homepage_url"`
	WorksCount           int            `json:"works_count"`
	CitedByCount         int            `json:"cited_by_count"`
	SummaryStats         SummaryStats   `json:"summary_stats"`
	CountsByYear         []CountsByYear `json:"counts_by_year"`
}

// Topic is a research topic in the domain > field > subfield hierarchy.
type Topic struct {
	ID           string   `json:"id"`
	DisplayName  string   `json:"display_name"`
	Description  string   `json:"description"`
	Keywords     []string `json:"keywords"`
	Subfield     *Ref     `json:"subfield,omitempty"`
	Field        *Ref     `json:"field,omitempty"`
	Domain       *Ref     `json:"domain,omitempty"`
	Score        float64  `json:"score,omitempty"`
	WorksCount   int      `json:"works_count"`
	CitedByCount int      `json:"cited_by_count"`
}

// Funder is an organisation that funds research.
type Funder struct {
	ID                string         `json:"id"`
	DisplayName       string         `json:"display_name"`
	AlternateTitles   []string       `json:"alternate_titles"`
	CountryCode       string         `json:"country_code"`
	Description       string         `json:"description"`
	HomepageURL       string         `json:"homepage_url"`
	ImageURL          string         `json:"image_url"`
	ImageThumbnailURL string         `json:"image_thumbnail_url"`
	GrantsCount       int            `json:"grants_count"`
	WorksCount        int            `json:"works_count"`
	CitedByCount      int            `json:"cited_by_count"`
	SummaryStats      SummaryStats   `json:"summary_stats"`
	CountsByYear      []CountsByYear `json:"counts_by_year"`
}

// YearCount is a number of works published in one year.
type YearCount struct {
	Year  int `json:"year"`
	Count int `json:"count"`
}

// CountryCount is a number of works with an author affiliated in a country.
type CountryCount struct {
	CountryCode string `json:"country_code"`
	Name        string `json:"name"`
	Count       int    `json:"count"`
}
