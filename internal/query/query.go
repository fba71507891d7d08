// Package query builds OpenAlex list query strings from dashboard URL state.
package query

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/helixir/openalex-explorer/internal/domain"
)

// Work filter keys understood by the works endpoint.
const (
	FilterOAStatus        = "oa_status"
	FilterType            = "type"
	FilterSource          = "primary_location.source.id"
	FilterInstitution     = "institutions.id"
	FilterFunder          = "grants.funder"
	FilterPublicationYear = "publication_year"
	FilterCountryCode     = "institutions.country_code"
	FilterTopic           = "topics.id"
	FilterAuthor          = "authorships.author.id"
	FilterPublisher       = "primary_location.source.publisher_lineage"
)

// WorkGroupKeys are the work facets the dashboard can group by.
var WorkGroupKeys = []string{
	FilterOAStatus,
	FilterType,
	FilterSource,
	FilterInstitution,
	FilterFunder,
}

const (
	// MaxPerPage is the largest page size OpenAlex accepts.
	MaxPerPage = 200

	// DefaultPerPage is used when a list request carries no page size.
	DefaultPerPage = 25
)

var sortPattern = regexp.MustCompile(`^[a-z_][a-z0-9_.]*:(asc|desc)$`)

// Filters is an ordered set of key:value filter pairs. Adding a key that is
// already present replaces its value in place.
type Filters struct {
	keys   []string
	values map[string]string
}

// Add sets key to value. Empty keys or values are ignored.
func (f *Filters) Add(key, value string) *Filters {
	key = strings.TrimSpace(key)
	value = strings.TrimSpace(value)
	if key == "" || value == "" {
		return f
	}
	if f.values == nil {
		f.values = make(map[string]string)
	}
	if _, ok := f.values[key]; !ok {
		f.keys = append(f.keys, key)
	}
	f.values[key] = value
	return f
}

// Get returns the value for key, or "".
func (f Filters) Get(key string) string {
	return f.values[key]
}

// Len returns the number of pairs.
func (f Filters) Len() int {
	return len(f.keys)
}

// Clone returns a copy that can be modified without affecting f.
func (f Filters) Clone() Filters {
	out := Filters{keys: append([]string(nil), f.keys...)}
	if f.values != nil {
		out.values = make(map[string]string, len(f.values))
		for k, v := range f.values {
			out.values[k] = v
		}
	}
	return out
}

// String joins the pairs as "k1:v1,k2:v2" in insertion order.
func (f Filters) String() string {
	parts := make([]string, 0, len(f.keys))
	for _, k := range f.keys {
		parts = append(parts, k+":"+f.values[k])
	}
	return strings.Join(parts, ",")
}

// ParseFilters reads a filter string in the OpenAlex format. Pairs without a
// colon are skipped.
func ParseFilters(s string) Filters {
	var f Filters
	for _, part := range strings.Split(s, ",") {
		key, value, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		f.Add(key, value)
	}
	return f
}

// Params is the full set of query options for an OpenAlex list request.
// Zero values are omitted from the query string.
type Params struct {
	Search  string
	Filters Filters
	Sort    string `validate:"omitempty,oasort"`
	Page    int    `validate:"omitempty,min=1"`
	PerPage int    `validate:"omitempty,min=1,max=200"`
	GroupBy string
	Select  []string
	Mailto  string `validate:"omitempty,email"`
}

// Values renders p as url.Values. OpenAlex spells the page size "per-page"
// and grouping "group_by".
func (p Params) Values() url.Values {
	v := url.Values{}
	if p.Search != "" {
		v.Set("search", p.Search)
	}
	if p.Filters.Len() > 0 {
		v.Set("filter", p.Filters.String())
	}
	if p.Sort != "" {
		v.Set("sort", p.Sort)
	}
	if p.Page > 0 {
		v.Set("page", strconv.Itoa(p.Page))
	}
	if p.PerPage > 0 {
		v.Set("per-page", strconv.Itoa(p.PerPage))
	}
	if p.GroupBy != "" {
		v.Set("group_by", p.GroupBy)
	}
	if len(p.Select) > 0 {
		v.Set("select", strings.Join(p.Select, ","))
	}
	if p.Mailto != "" {
		v.Set("mailto", p.Mailto)
	}
	return v
}

// Encode is shorthand for p.Values().Encode().
func (p Params) Encode() string {
	return p.Values().Encode()
}

// Validate checks page, page size, sort and mailto. The first failing field
// is reported as a domain.ValidationError.
func (p Params) Validate() error {
	err := validate().Struct(p)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return domain.NewValidationError(fieldName(fe.Field()), describe(fe))
	}
	return fmt.Errorf("validating params: %w", err)
}

// ParseSort normalises a user supplied sort. A bare field defaults to
// descending order. An empty input returns "" with no error.
func ParseSort(s string) (string, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "", nil
	}
	if !strings.Contains(s, ":") {
		s += ":desc"
	}
	if !sortPattern.MatchString(s) {
		return "", domain.NewValidationError("sort", fmt.Sprintf("%q is not of the form field:asc or field:desc", s))
	}
	return s, nil
}

var (
	validateOnce sync.Once
	validateInst *validator.Validate
)

func validate() *validator.Validate {
	validateOnce.Do(func() {
		validateInst = validator.New(validator.WithRequiredStructEnabled())
		_ = validateInst.RegisterValidation("oasort", func(fl validator.FieldLevel) bool {
			return sortPattern.MatchString(fl.Field().String())
		})
	})
	return validateInst
}

func fieldName(structField string) string {
	switch structField {
	case "PerPage":
		return "per-page"
	default:
		return strings.ToLower(structField)
	}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "oasort":
		return fmt.Sprintf("%v is not of the form field:asc or field:desc", fe.Value())
	case "email":
		return "must be an email address"
	}
	return "failed " + fe.Tag() + " check"
}
