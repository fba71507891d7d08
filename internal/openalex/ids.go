package openalex

import (
	"strings"
)

const (
	openAlexIDPrefix = "https://openalex.org/"
	doiPrefix        = "https://doi.org/"
)

// Kind names an OpenAlex entity collection. Its value is the URL path
// segment of the collection.
type Kind string

// Entity kinds served by the dashboard.
const (
	KindWorks        Kind = "works"
	KindAuthors      Kind = "authors"
	KindInstitutions Kind = "institutions"
	KindPublishers   Kind = "publishers"
	KindSources      Kind = "sources"
	KindTopics       Kind = "topics"
	KindFunders      Kind = "funders"
)

// Kinds lists every supported kind in navigation order.
var Kinds = []Kind{
	KindWorks,
	KindAuthors,
	KindInstitutions,
	KindPublishers,
	KindSources,
	KindTopics,
	KindFunders,
}

var kindPrefixes = map[Kind]byte{
	KindWorks:        'W',
	KindAuthors:      'A',
	KindInstitutions: 'I',
	KindPublishers:   'P',
	KindSources:      'S',
	KindTopics:       'T',
	KindFunders:      'F',
}

// ParseKind resolves a collection name such as "works".
func ParseKind(s string) (Kind, bool) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	_, ok := kindPrefixes[k]
	return k, ok
}

// Prefix returns the letter OpenAlex puts in front of IDs of this kind,
// or 0 for an unknown kind.
func (k Kind) Prefix() byte {
	return kindPrefixes[k]
}

// Singular returns the entity name used in messages, e.g. "work".
func (k Kind) Singular() string {
	return strings.TrimSuffix(string(k), "s")
}

func (k Kind) String() string {
	return string(k)
}

// NormalizeID turns the many spellings of an entity reference into the
// short form the API path expects.
//
//	https://openalex.org/W2741809807  -> W2741809807
//	w2741809807                       -> W2741809807
//	2741809807                        -> W2741809807 (for works)
//	@/topics/T10017                   -> T10017
//	https://doi.org/10.1038/nphys1170 -> doi:10.1038/nphys1170 (works only)
//
// Namespaced external IDs such as "doi:..." or "orcid:..." pass through
// unchanged. An empty or blank id returns "".
func NormalizeID(kind Kind, id string) string {
	id = strings.TrimSpace(id)
	id = strings.TrimPrefix(id, openAlexIDPrefix)
	id = strings.TrimPrefix(id, "http://openalex.org/")
	id = strings.TrimPrefix(id, "@")
	if id == "" {
		return ""
	}

	if kind == KindWorks {
		switch {
		case strings.HasPrefix(id, doiPrefix):
			return "doi:" + strings.TrimPrefix(id, doiPrefix)
		case strings.HasPrefix(id, "http://doi.org/"):
			return "doi:" + strings.TrimPrefix(id, "http://doi.org/")
		case strings.HasPrefix(id, "10."):
			return "doi:" + id
		}
	}
	if isNamespaced(id) {
		return id
	}

	if i := strings.LastIndexByte(strings.TrimRight(id, "/"), '/'); i >= 0 {
		id = id[i+1:]
	}
	id = strings.Trim(id, "/")
	if id == "" {
		return ""
	}

	prefix := kind.Prefix()
	if prefix == 0 {
		return id
	}
	if isDigits(id) {
		return string(prefix) + id
	}
	if id[0] == prefix+('a'-'A') && isDigits(id[1:]) {
		return string(prefix) + id[1:]
	}
	return id
}

// ShortID strips the https://openalex.org/ prefix from an entity URL.
func ShortID(id string) string {
	return strings.TrimPrefix(strings.TrimSpace(id), openAlexIDPrefix)
}

// Identifier schemes understood by ExtractIdentifier.
const (
	SchemeOpenAlex = "openalex"
	SchemeDOI      = "doi"
	SchemeMAG      = "mag"
	SchemePMID     = "pmid"
	SchemePMCID    = "pmcid"
	SchemeORCID    = "orcid"
	SchemeROR      = "ror"
)

var schemePrefixes = map[string]string{
	SchemeOpenAlex: openAlexIDPrefix,
	SchemeDOI:      doiPrefix,
	SchemePMID:     "https://pubmed.ncbi.nlm.nih.gov/",
	SchemePMCID:    "https://www.ncbi.nlm.nih.gov/pmc/articles/",
	SchemeORCID:    "https://orcid.org/",
	SchemeROR:      "https://ror.org/",
}

// ExtractIdentifier strips the resolver URL of scheme from u, leaving the
// bare identifier for display. Unknown schemes and MAG IDs come back as is.
func ExtractIdentifier(scheme, u string) string {
	prefix, ok := schemePrefixes[scheme]
	if !ok {
		return u
	}
	return strings.TrimSuffix(strings.TrimPrefix(u, prefix), "/")
}

func isNamespaced(id string) bool {
	ns, rest, ok := strings.Cut(id, ":")
	if !ok || ns == "" || rest == "" || strings.Contains(ns, "/") {
		return false
	}
	for _, r := range ns {
		if (r < 'a' || r > 'z') && r != '_' {
			return false
		}
	}
	return true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
