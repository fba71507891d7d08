// Package format holds the number, text and open access helpers used by the
// dashboard templates.
package format

import (
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var compactUnits = []string{"K", "M", "B", "T"}

// Compact renders n in short English notation: 950, 1.2K, 12K, 3.4M, 1.1B.
// Values below ten units keep one decimal, larger ones are rounded.
func Compact(n int64) string {
	sign := ""
	v := float64(n)
	if v < 0 {
		sign = "-"
		v = -v
	}
	if v < 1000 {
		return strconv.FormatInt(n, 10)
	}

	unit := -1
	for v >= 1000 && unit < len(compactUnits)-1 {
		v /= 1000
		unit++
	}
	if v < 10 {
		v = math.Round(v*10) / 10
	} else {
		v = math.Round(v)
	}
	if v >= 1000 && unit < len(compactUnits)-1 {
		v /= 1000
		unit++
	}
	return sign + strconv.FormatFloat(v, 'f', -1, 64) + compactUnits[unit]
}

// Thousands renders n with English digit grouping, e.g. 1,234,567.
func Thousands(n int64) string {
	return message.NewPrinter(language.English).Sprintf("%d", n)
}

// Percent renders a 0..1 fraction as a whole percentage.
func Percent(f float64) string {
	return message.NewPrinter(language.English).Sprintf("%.0f%%", f*100)
}

// Capitalize upper-cases the first rune of s.
func Capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// Label turns an OpenAlex enum value such as "book-chapter" or
// "publication_year" into a title-cased label.
func Label(s string) string {
	s = strings.NewReplacer("-", " ", "_", " ").Replace(s)
	return cases.Title(language.English).String(s)
}

// Date renders an ISO date as "Feb 13, 2018". Unparseable input is returned
// unchanged.
func Date(s string) string {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return s
	}
	return t.Format("Jan 2, 2006")
}
