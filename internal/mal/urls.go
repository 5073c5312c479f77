// Package mal contains the MyAnimeList-specific pieces the crawl engine is
// wired with: listing URL generation, listing parsing, and the per-item
// fetch-transform-store pipelines for the anime and people domains.
package mal

import (
	"fmt"
	"net/url"
	"strconv"
)

// DefaultBaseURL is the production site root.
const DefaultBaseURL = "https://myanimelist.net"

// PageSize is the number of entries per listing page. A page with fewer
// entries is the last page of its partition.
const PageSize = 50

// Letters returns the partition keys in traversal order: "A" through "Z",
// then "." for titles starting with anything else.
func Letters() []string {
	letters := make([]string, 0, 27)
	for c := 'A'; c <= 'Z'; c++ {
		letters = append(letters, string(c))
	}
	return append(letters, ".")
}

// AnimeURLs builds anime listing and detail URLs.
type AnimeURLs struct {
	base string
}

// NewAnimeURLs returns a builder rooted at base (DefaultBaseURL if empty).
func NewAnimeURLs(base string) AnimeURLs {
	if base == "" {
		base = DefaultBaseURL
	}
	return AnimeURLs{base: base}
}

// ListingURL returns the listing page for one letter and zero-based page.
func (u AnimeURLs) ListingURL(partition string, page int) string {
	return listingURL(u.base, "/anime.php", partition, page)
}

// ItemURL returns the detail page for one anime ID.
func (u AnimeURLs) ItemURL(id int64) string {
	return fmt.Sprintf("%s/anime/%d", u.base, id)
}

// PeopleURLs builds people listing and profile URLs.
type PeopleURLs struct {
	base string
}

// NewPeopleURLs returns a builder rooted at base (DefaultBaseURL if empty).
func NewPeopleURLs(base string) PeopleURLs {
	if base == "" {
		base = DefaultBaseURL
	}
	return PeopleURLs{base: base}
}

// ListingURL returns the listing page for one letter and zero-based page.
func (u PeopleURLs) ListingURL(partition string, page int) string {
	return listingURL(u.base, "/people.php", partition, page)
}

// ItemURL returns the profile page for one person ID.
func (u PeopleURLs) ItemURL(id int64) string {
	return fmt.Sprintf("%s/people/%d", u.base, id)
}

// listingURL encodes the site's pagination scheme: the show parameter is an
// item offset, page * PageSize.
func listingURL(base, path, partition string, page int) string {
	q := url.Values{}
	q.Set("letter", partition)
	q.Set("show", strconv.Itoa(page*PageSize))
	return base + path + "?" + q.Encode()
}
