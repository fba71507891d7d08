package openalex

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeID(t *testing.T) {
	tests := []struct {
		name     string
		kind     Kind
		input    string
		expected string
	}{
		{"full work URL", KindWorks, "https://openalex.org/W2741809807", "W2741809807"},
		{"short work ID", KindWorks, "W2741809807", "W2741809807"},
		{"lower-case prefix", KindWorks, "w2741809807", "W2741809807"},
		{"bare digits get the prefix", KindWorks, "2741809807", "W2741809807"},
		{"surrounding whitespace", KindAuthors, "  A5023888391 ", "A5023888391"},
		{"source digits", KindSources, "137773608", "S137773608"},
		{"publisher digits", KindPublishers, "4310319965", "P4310319965"},
		{"funder URL", KindFunders, "https://openalex.org/F4320332161", "F4320332161"},
		{"topic with at and path", KindTopics, "@/topics/T10017", "T10017"},
		{"topic path without at", KindTopics, "topics/10017", "T10017"},
		{"institution trailing slash", KindInstitutions, "https://openalex.org/I136199984/", "I136199984"},
		{"doi URL on works", KindWorks, "https://doi.org/10.1038/nphys1170", "doi:10.1038/nphys1170"},
		{"bare doi on works", KindWorks, "10.1038/nphys1170", "doi:10.1038/nphys1170"},
		{"namespaced doi passes through", KindWorks, "doi:10.1038/nphys1170", "doi:10.1038/nphys1170"},
		{"namespaced orcid passes through", KindAuthors, "orcid:0000-0002-1825-0097", "orcid:0000-0002-1825-0097"},
		{"foreign letter kept", KindAuthors, "W123", "W123"},
		{"empty", KindWorks, "", ""},
		{"blank", KindWorks, "   ", ""},
		{"only an at sign", KindTopics, "@", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeID(tt.kind, tt.input))
		})
	}
}

func TestExtractIdentifier(t *testing.T) {
	tests := []struct {
		scheme   string
		input    string
		expected string
	}{
		{SchemeOpenAlex, "https://openalex.org/W2741809807", "W2741809807"},
		{SchemeDOI, "https://doi.org/10.7717/peerj.4375", "10.7717/peerj.4375"},
		{SchemeMAG, "2741809807", "2741809807"},
		{SchemePMID, "https://pubmed.ncbi.nlm.nih.gov/29456894", "29456894"},
		{SchemePMCID, "https://www.ncbi.nlm.nih.gov/pmc/articles/5815332", "5815332"},
		{SchemePMCID, "https://www.ncbi.nlm.nih.gov/pmc/articles/PMC5815332/", "PMC5815332"},
		{"isbn", "https://example.org/isbn/123", "https://example.org/isbn/123"},
		{SchemeDOI, "10.1/already-bare", "10.1/already-bare"},
	}

	for _, tt := range tests {
		t.Run(tt.scheme+" "+tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExtractIdentifier(tt.scheme, tt.input))
		})
	}
}

func TestParseKind(t *testing.T) {
	k, ok := ParseKind("Works")
	assert.True(t, ok)
	assert.Equal(t, KindWorks, k)

	_, ok = ParseKind("concepts")
	assert.False(t, ok)

	for _, k := range Kinds {
		parsed, ok := ParseKind(k.String())
		assert.True(t, ok, k)
		assert.Equal(t, k, parsed)
		assert.NotZero(t, k.Prefix(), k)
	}
}

func TestKind_Singular(t *testing.T) {
	assert.Equal(t, "work", KindWorks.Singular())
	assert.Equal(t, "institution", KindInstitutions.Singular())
	assert.Equal(t, "funder", KindFunders.Singular())
}

func TestShortID(t *testing.T) {
	assert.Equal(t, "A1", ShortID("https://openalex.org/A1"))
	assert.Equal(t, "A1", ShortID("A1"))
}
