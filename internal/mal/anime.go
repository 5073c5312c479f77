package mal

import (
	"bytes"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Link is a titled URL extracted from the page.
type Link struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// ThemeSong is one opening or ending theme.
type ThemeSong struct {
	Title   string `json:"title"`
	Artist  string `json:"artist"`
	Episode string `json:"episode"`
}

// ThemeSongs groups themes by placement.
type ThemeSongs struct {
	Opening []ThemeSong `json:"opening"`
	Ending  []ThemeSong `json:"ending"`
}

// RelatedEntry is one row of the related-entries tile.
type RelatedEntry struct {
	Relation string `json:"relation"`
	Title    string `json:"title"`
	URL      string `json:"url"`
}

// VoiceCredit links a character to one voice actor by person ID.
type VoiceCredit struct {
	PersonID string `json:"voice_actor_id"`
	Language string `json:"language"`
}

// CharacterCast is one character with its voice actors.
type CharacterCast struct {
	CharacterID string        `json:"character_id"`
	VoiceActors []VoiceCredit `json:"voice_actors"`
}

// AnimeData is the structured form of one anime detail page.
type AnimeData struct {
	ID                 int64             `json:"id"`
	Title              string            `json:"title"`
	URL                string            `json:"url"`
	ImageURL           string            `json:"image_url,omitempty"`
	Description        string            `json:"description"`
	Genres             []string          `json:"genres"`
	Score              string            `json:"score,omitempty"`
	ScoredBy           string            `json:"scored_by,omitempty"`
	Breadcrumbs        []string          `json:"breadcrumbs"`
	AlternativeTitles  map[string]string `json:"alternative_titles"`
	Information        map[string]string `json:"information"`
	Statistics         map[string]string `json:"statistics"`
	AvailableAt        []Link            `json:"available_at"`
	Resources          []Link            `json:"resources"`
	StreamingPlatforms []Link            `json:"streaming_platforms"`
	ThemeSongs         ThemeSongs        `json:"theme_songs"`
	RelatedEntries     []RelatedEntry    `json:"related_entries"`
	Characters         []CharacterCast   `json:"characters"`
}

var (
	rankedPattern      = regexp.MustCompile(`#\d+`)
	characterIDPattern = regexp.MustCompile(`/character/(\d+)`)
	personIDPattern    = regexp.MustCompile(`/people/(\d+)`)
)

// AnimeTransformer turns anime detail HTML into AnimeData.
type AnimeTransformer struct{}

// Transform parses one detail page body. detailURL is recorded verbatim.
func (AnimeTransformer) Transform(body []byte, id int64, detailURL string) (AnimeData, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return AnimeData{}, fmt.Errorf("parse anime page: %w", err)
	}

	data := AnimeData{
		ID:                 id,
		Title:              extractTitle(doc),
		URL:                detailURL,
		ImageURL:           extractImageURL(doc),
		Description:        strings.TrimSpace(doc.Find(`p[itemprop="description"]`).First().Text()),
		Genres:             extractGenres(doc),
		Score:              strings.TrimSpace(doc.Find(`span[itemprop="ratingValue"]`).First().Text()),
		ScoredBy:           strings.TrimSpace(doc.Find(`span[itemprop="ratingCount"]`).First().Text()),
		Breadcrumbs:        breadcrumbTrail(detailURL, "anime.php"),
		AlternativeTitles:  extractSidebarSection(doc, "Alternative Titles"),
		Information:        extractSidebarSection(doc, "Information"),
		Statistics:         extractStatistics(doc),
		AvailableAt:        extractAvailableAt(doc),
		Resources:          extractResources(doc),
		StreamingPlatforms: extractStreamingPlatforms(doc),
		ThemeSongs: ThemeSongs{
			// The site ships the "opnening" class name misspelled.
			Opening: extractThemeSongs(doc, "div.theme-songs.js-theme-songs.opnening"),
			Ending:  extractThemeSongs(doc, "div.theme-songs.js-theme-songs.ending"),
		},
		RelatedEntries: extractRelatedEntries(doc),
	}
	return data, nil
}

// CharactersURL finds the Characters & Staff page link on a detail page.
// It returns "" when the page has none.
func (AnimeTransformer) CharactersURL(body []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ""
	}
	var found string
	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")
		if strings.HasSuffix(href, "/characters") {
			found = href
			return false
		}
		return true
	})
	return found
}

// TransformCharacters parses the Characters & Staff page into cast entries.
func (AnimeTransformer) TransformCharacters(body []byte) ([]CharacterCast, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse characters page: %w", err)
	}

	var cast []CharacterCast
	doc.Find("table.js-anime-character-table").Each(func(_ int, table *goquery.Selection) {
		entry := CharacterCast{}
		table.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
			href, _ := sel.Attr("href")
			if m := characterIDPattern.FindStringSubmatch(href); m != nil {
				entry.CharacterID = m[1]
				return false
			}
			return true
		})
		table.Find("tr.js-anime-character-va-lang").Each(func(_ int, row *goquery.Selection) {
			credit := VoiceCredit{
				Language: strings.TrimSpace(row.Find("div.js-anime-character-language").First().Text()),
			}
			row.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
				href, _ := sel.Attr("href")
				if m := personIDPattern.FindStringSubmatch(href); m != nil {
					credit.PersonID = m[1]
					return false
				}
				return true
			})
			entry.VoiceActors = append(entry.VoiceActors, credit)
		})
		cast = append(cast, entry)
	})
	return cast, nil
}

func extractTitle(doc *goquery.Document) string {
	for _, selector := range []string{"h1.title-name strong", "h1.title-name", `span[itemprop="name"]`} {
		if title := strings.TrimSpace(doc.Find(selector).First().Text()); title != "" {
			return title
		}
	}
	return "Unknown"
}

func extractImageURL(doc *goquery.Document) string {
	src, _ := doc.Find(`img[itemprop="image"]`).First().Attr("src")
	return src
}

// breadcrumbTrail reconstructs the site breadcrumb for a detail page. The
// trail runs site root, then the listing index, then the page itself.
func breadcrumbTrail(detailURL, index string) []string {
	u, err := url.Parse(detailURL)
	if err != nil || u.Host == "" {
		return []string{detailURL}
	}
	root := u.Scheme + "://" + u.Host + "/"
	return []string{root, root + index, detailURL}
}

func extractGenres(doc *goquery.Document) []string {
	var genres []string
	doc.Find(`span[itemprop="genre"]`).Each(func(_ int, sel *goquery.Selection) {
		genres = append(genres, strings.TrimSpace(sel.Text()))
	})
	return genres
}

// sidebarPads collects the div.spaceit_pad siblings between the numbered
// section heading and the next heading.
func sidebarPads(doc *goquery.Document, heading string) []*goquery.Selection {
	var pads []*goquery.Selection
	doc.Find("h2").Each(func(_ int, h *goquery.Selection) {
		if strings.TrimSpace(h.Text()) != heading {
			return
		}
		for sib := h.Next(); sib.Length() > 0 && !sib.Is("h2"); sib = sib.Next() {
			if sib.HasClass("spaceit_pad") {
				pads = append(pads, sib)
			}
		}
	})
	return pads
}

// padKeyValue splits a sidebar row into its dark_text label and the
// remaining whitespace-collapsed value.
func padKeyValue(pad *goquery.Selection) (string, string, bool) {
	label := pad.Find("span.dark_text").First()
	if label.Length() == 0 {
		return "", "", false
	}
	key := strings.TrimSuffix(strings.TrimSpace(label.Text()), ":")
	value := strings.Replace(pad.Text(), label.Text(), "", 1)
	return key, strings.Join(strings.Fields(value), " "), true
}

func extractSidebarSection(doc *goquery.Document, heading string) map[string]string {
	section := make(map[string]string)
	for _, pad := range sidebarPads(doc, heading) {
		if key, value, ok := padKeyValue(pad); ok {
			section[key] = value
		}
	}
	return section
}

func extractStatistics(doc *goquery.Document) map[string]string {
	stats := make(map[string]string)
	for _, pad := range sidebarPads(doc, "Statistics") {
		key, value, ok := padKeyValue(pad)
		if !ok {
			continue
		}
		if key == "Ranked" {
			if clean := cleanRankedValue(value); clean != "" {
				stats[key] = clean
			}
			continue
		}
		stats[key] = value
	}
	return stats
}

func cleanRankedValue(value string) string {
	if strings.Contains(value, "N/A") {
		return "N/A"
	}
	return rankedPattern.FindString(value)
}

func extractAvailableAt(doc *goquery.Document) []Link {
	var links []Link
	doc.Find("h2").Each(func(_ int, h *goquery.Selection) {
		if strings.TrimSpace(h.Text()) != "Available At" {
			return
		}
		h.Next().Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
			href, _ := sel.Attr("href")
			links = append(links, Link{Title: strings.TrimSpace(sel.Text()), URL: href})
		})
	})
	return links
}

func extractResources(doc *goquery.Document) []Link {
	var links []Link
	doc.Find("h2").Each(func(_ int, h *goquery.Selection) {
		if strings.TrimSpace(h.Text()) != "Resources" {
			return
		}
		h.Next().Filter("div.external_links").Find("a.link").Each(func(_ int, sel *goquery.Selection) {
			caption := strings.TrimSpace(sel.Find("div.caption").First().Text())
			if caption == "" {
				return
			}
			href, _ := sel.Attr("href")
			links = append(links, Link{Title: caption, URL: href})
		})
	})
	return links
}

func extractStreamingPlatforms(doc *goquery.Document) []Link {
	var platforms []Link
	doc.Find("div.broadcasts a.broadcast-item").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		title, _ := sel.Attr("title")
		platforms = append(platforms, Link{Title: title, URL: href})
	})
	return platforms
}

func extractThemeSongs(doc *goquery.Document, selector string) []ThemeSong {
	var songs []ThemeSong
	doc.Find(selector).First().Find("tr").Each(func(_ int, row *goquery.Selection) {
		title := row.Find("span.theme-song-title").First()
		if title.Length() == 0 {
			return
		}
		songs = append(songs, ThemeSong{
			Title:   strings.Trim(strings.TrimSpace(title.Text()), `"`),
			Artist:  strings.TrimSpace(strings.ReplaceAll(row.Find("span.theme-song-artist").First().Text(), " by", "")),
			Episode: strings.Trim(strings.TrimSpace(row.Find("span.theme-song-episode").First().Text()), "()"),
		})
	})
	return songs
}

func extractRelatedEntries(doc *goquery.Document) []RelatedEntry {
	var entries []RelatedEntry
	doc.Find("div.entries-tile div.entry").Each(func(_ int, entry *goquery.Selection) {
		relationFields := strings.Fields(entry.Find("div.relation").First().Text())
		if len(relationFields) == 0 {
			return
		}
		relation := relationFields[0]
		if len(relationFields) > 1 {
			relation = fmt.Sprintf("%s (%s)", relationFields[0], strings.Trim(relationFields[1], "()"))
		}
		link := entry.Find("div.title a").First()
		if link.Length() == 0 {
			return
		}
		href, _ := link.Attr("href")
		entries = append(entries, RelatedEntry{
			Relation: relation,
			Title:    strings.TrimSpace(link.Text()),
			URL:      href,
		})
	})
	return entries
}
