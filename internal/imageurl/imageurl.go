// Package imageurl resolves entity logo URLs for display.
package imageurl

import (
	"crypto/md5"
	"encoding/hex"
	"net/url"
	"regexp"
	"strings"
)

const (
	// PublisherPlaceholder is shown when a publisher has no image.
	PublisherPlaceholder = "https://static.openalex.org/publisher-images/publisher-placeholder.png"

	commonsHost = "commons.wikimedia.org"
	uploadBase  = "https://upload.wikimedia.org/wikipedia/commons/"
)

var fileRe = regexp.MustCompile(`(?i)/file/([^&?#]+)(?:[&?#]|$)`)

// Conversion describes how a URL was resolved.
type Conversion struct {
	Original  string `json:"original"`
	Filename  string `json:"filename,omitempty"`
	Hash      string `json:"hash,omitempty"`
	Converted string `json:"converted"`
}

// Explain resolves u and reports the intermediate filename and hash.
// Filename and Hash are empty when u is not a Commons file URL.
func Explain(u string) Conversion {
	c := Conversion{Original: u, Converted: u}
	if !strings.Contains(u, commonsHost) {
		return c
	}
	name, ok := filename(u)
	if !ok {
		return c
	}
	sum := md5.Sum([]byte(name))
	c.Filename = name
	c.Hash = hex.EncodeToString(sum[:])
	c.Converted = uploadBase + c.Hash[:1] + "/" + c.Hash[:2] + "/" + name
	return c
}

// WikimediaDirectURL rewrites a Wikimedia Commons redirect URL such as
// https://commons.wikimedia.org/w/index.php?title=Special:Redirect/file/MIT%20Press%20logo.svg
// to the hashed upload path of the file. Any other URL is returned unchanged.
func WikimediaDirectURL(u string) string {
	return Explain(u).Converted
}

// Optimal returns the URL to display for u, or fallback when u is empty.
func Optimal(u, fallback string) string {
	if u == "" {
		return fallback
	}
	return WikimediaDirectURL(u)
}

func filename(u string) (string, bool) {
	m := fileRe.FindStringSubmatch(u)
	if m == nil {
		return "", false
	}
	name, err := url.PathUnescape(m[1])
	if err != nil || name == "" {
		return "", false
	}
	return strings.ReplaceAll(name, " ", "_"), true
}
