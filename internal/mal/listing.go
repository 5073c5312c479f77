package mal

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/otakulab/malcrawl/internal/crawl"
)

var (
	animePathPattern  = regexp.MustCompile(`/anime/(\d+)(?:/|$)`)
	peoplePathPattern = regexp.MustCompile(`/people/(\d+)(?:/|$)`)
)

// ListingParser extracts item stubs from one listing page. Listing pages
// link each entry more than once (picture plus title), so stubs are
// deduplicated by ID, keeping first-seen order and preferring a link with
// visible text for the title.
type ListingParser struct {
	pattern *regexp.Regexp
}

// NewAnimeListingParser parses anime listing pages.
func NewAnimeListingParser() *ListingParser {
	return &ListingParser{pattern: animePathPattern}
}

// NewPeopleListingParser parses people listing pages.
func NewPeopleListingParser() *ListingParser {
	return &ListingParser{pattern: peoplePathPattern}
}

// Parse implements crawl.ListingParser.
func (p *ListingParser) Parse(body []byte) ([]crawl.ItemStub, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse listing page: %w", err)
	}

	byID := make(map[int64]int)
	var stubs []crawl.ItemStub
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		m := p.pattern.FindStringSubmatch(href)
		if m == nil {
			return
		}
		id, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			return
		}
		title := strings.TrimSpace(sel.Text())
		if idx, seen := byID[id]; seen {
			if stubs[idx].Title == "" && title != "" {
				stubs[idx].Title = title
			}
			return
		}
		byID[id] = len(stubs)
		stubs = append(stubs, crawl.ItemStub{ID: id, Title: title, SourceURL: href})
	})
	return stubs, nil
}
