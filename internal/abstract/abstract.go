// Package abstract rebuilds plain-text abstracts from the word-position
// inverted index that OpenAlex returns on work records.
//
// OpenAlex never ships abstract text directly. A work carries an
// abstract_inverted_index object mapping each word to the zero-based
// positions where it occurs:
//
//	{"the": [0, 3], "cat": [1], "sat": [2], "mat": [4]}
//
// Reconstruct turns that back into "the cat sat the mat".
package abstract

import (
	"bytes"
	"encoding/json"
	"math"
	"sort"
	"strings"
)

// MaxPosition is the largest position Reconstruct will honour. Entries above
// it are dropped so a hostile payload cannot force a huge allocation.
const MaxPosition = 100_000

// InvertedIndex maps a word to the positions it occupies in the abstract.
type InvertedIndex map[string][]int

// Reconstruct joins the words of idx in ascending position order with single
// spaces.
//
// Unset positions are skipped, so gaps never produce double spaces. When two
// words claim the same position the lexically greater word wins, because words
// are written in sorted order and the last write is kept. Negative positions
// and positions above MaxPosition are ignored, and so are blank words. A nil
// or empty index yields "".
func Reconstruct(idx InvertedIndex) string {
	if len(idx) == 0 {
		return ""
	}

	maxPos := -1
	for w, positions := range idx {
		if isBlank(w) {
			continue
		}
		for _, p := range positions {
			if p >= 0 && p <= MaxPosition && p > maxPos {
				maxPos = p
			}
		}
	}
	if maxPos < 0 {
		return ""
	}

	words := make([]string, 0, len(idx))
	for w := range idx {
		if !isBlank(w) {
			words = append(words, w)
		}
	}
	sort.Strings(words)

	slots := make([]string, maxPos+1)
	filled := make([]bool, maxPos+1)
	for _, w := range words {
		for _, p := range idx[w] {
			if p < 0 || p > maxPos {
				continue
			}
			slots[p] = w
			filled[p] = true
		}
	}

	// Estimate an average word length of 6 characters plus a separator.
	var b strings.Builder
	b.Grow((maxPos + 1) * 7)
	first := true
	for i, ok := range filled {
		if !ok {
			continue
		}
		if !first {
			b.WriteByte(' ')
		}
		b.WriteString(slots[i])
		first = false
	}
	return b.String()
}

// Invert splits text on whitespace and records the position of every token.
// For an index whose positions are dense and unique, Invert(Reconstruct(idx))
// equals idx.
func Invert(text string) InvertedIndex {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return InvertedIndex{}
	}
	idx := make(InvertedIndex, len(fields))
	for i, w := range fields {
		idx[w] = append(idx[w], i)
	}
	return idx
}

// Len returns the number of word slots the index claims, counting duplicates.
func (idx InvertedIndex) Len() int {
	n := 0
	for _, positions := range idx {
		n += len(positions)
	}
	return n
}

// UnmarshalJSON decodes an inverted index without ever failing the enclosing
// document. Null and non-object values decode to an empty index. Entries whose
// value is not an array are dropped, and so are array elements that are not
// non-negative integers. Blank words are dropped. Integral floats such as 3.0
// are accepted.
func (idx *InvertedIndex) UnmarshalJSON(data []byte) error {
	*idx = InvertedIndex{}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil
	}

	for word, value := range raw {
		if isBlank(word) {
			continue
		}
		var elems []json.RawMessage
		if err := json.Unmarshal(value, &elems); err != nil {
			continue
		}
		positions := make([]int, 0, len(elems))
		for _, e := range elems {
			if p, ok := parsePosition(e); ok {
				positions = append(positions, p)
			}
		}
		if len(positions) > 0 {
			(*idx)[word] = positions
		}
	}
	return nil
}

func isBlank(word string) bool {
	return strings.TrimSpace(word) == ""
}

func parsePosition(raw json.RawMessage) (int, bool) {
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, false
	}
	if f < 0 || f > MaxPosition || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}
