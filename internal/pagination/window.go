// Package pagination computes the compact page-number windows shown under
// every list page of the dashboard.
package pagination

import (
	"encoding/json"
	"strconv"
)

// fullWindowLimit is the largest page count rendered without an ellipsis.
const fullWindowLimit = 7

// MaxResults is the deepest result OpenAlex serves through basic paging.
const MaxResults = 10_000

// Entry is a single slot in a page window: either a page number or the
// ellipsis marker. The zero value is the ellipsis.
type Entry struct {
	page int
}

// Ellipsis is the marker that stands for a run of hidden pages.
var Ellipsis = Entry{}

// PageEntry returns the entry for page n.
func PageEntry(n int) Entry {
	return Entry{page: n}
}

// IsEllipsis reports whether e is the ellipsis marker.
func (e Entry) IsEllipsis() bool {
	return e.page <= 0
}

// Page returns the page number, or 0 for the ellipsis.
func (e Entry) Page() int {
	if e.IsEllipsis() {
		return 0
	}
	return e.page
}

// String renders the page number, or "..." for the ellipsis.
func (e Entry) String() string {
	if e.IsEllipsis() {
		return "..."
	}
	return strconv.Itoa(e.page)
}

// MarshalJSON encodes a page as a number and the ellipsis as "...".
func (e Entry) MarshalJSON() ([]byte, error) {
	if e.IsEllipsis() {
		return json.Marshal("...")
	}
	return json.Marshal(e.page)
}

// Window returns the page numbers and ellipses to display for currentPage out
// of totalPages.
//
// Up to seven pages are listed in full. Beyond that the window keeps the first
// and last pages and collapses the rest around the current page:
//
//	current near the start:  1 2 3 ... T-1 T
//	current near the end:    1 2 ... T-2 T-1 T
//	current in the middle:   1 ... c-1 c c+1 ... T
//
// totalPages below 1 is treated as 1 and currentPage is clamped into
// [1, totalPages], so the result is never empty and always starts at page 1.
func Window(currentPage, totalPages int) []Entry {
	totalPages = max(totalPages, 1)
	currentPage = Clamp(currentPage, totalPages)

	if totalPages <= fullWindowLimit {
		entries := make([]Entry, totalPages)
		for i := range entries {
			entries[i] = PageEntry(i + 1)
		}
		return entries
	}

	last := totalPages
	switch {
	case currentPage <= 3:
		return []Entry{PageEntry(1), PageEntry(2), PageEntry(3), Ellipsis, PageEntry(last - 1), PageEntry(last)}
	case currentPage >= last-2:
		return []Entry{PageEntry(1), PageEntry(2), Ellipsis, PageEntry(last - 2), PageEntry(last - 1), PageEntry(last)}
	default:
		return []Entry{
			PageEntry(1),
			Ellipsis,
			PageEntry(currentPage - 1),
			PageEntry(currentPage),
			PageEntry(currentPage + 1),
			Ellipsis,
			PageEntry(last),
		}
	}
}

// Clamp limits page to [1, totalPages]. totalPages below 1 is treated as 1.
func Clamp(page, totalPages int) int {
	totalPages = max(totalPages, 1)
	return min(max(page, 1), totalPages)
}

// LastPage is the deepest page OpenAlex serves for perPage: the last page whose
// rows all fall within MaxResults. It is at least 1.
func LastPage(perPage int) int {
	if perPage < 1 {
		perPage = 1
	}
	return max(MaxResults/perPage, 1)
}

// TotalPages derives a page count from a result count and page size. The
// result is at least 1 and never exceeds LastPage(perPage).
func TotalPages(count, perPage int) int {
	if perPage < 1 {
		perPage = 1
	}
	count = max(count, 0)
	pages := (count + perPage - 1) / perPage
	return min(max(pages, 1), LastPage(perPage))
}
