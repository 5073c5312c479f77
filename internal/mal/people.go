package mal

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// VoiceActingRole is one row of a person's voice acting credits.
type VoiceActingRole struct {
	AnimeTitle   string `json:"anime_title"`
	AnimeURL     string `json:"anime_url"`
	Character    string `json:"character"`
	CharacterURL string `json:"character_url"`
	Role         string `json:"role"`
}

// StaffPosition is one row of a person's anime staff credits.
type StaffPosition struct {
	AnimeTitle string `json:"anime_title"`
	AnimeURL   string `json:"anime_url"`
	Position   string `json:"position"`
}

// MangaCredit is one row of a person's published manga.
type MangaCredit struct {
	MangaTitle string `json:"manga_title"`
	MangaURL   string `json:"manga_url"`
	Role       string `json:"role"`
}

// PersonData is the structured form of one person profile page.
type PersonData struct {
	ID                  int64             `json:"people_id"`
	URL                 string            `json:"url"`
	Name                string            `json:"name"`
	GivenName           string            `json:"given_name"`
	FamilyName          string            `json:"family_name"`
	Birthday            string            `json:"birthday,omitempty"`
	MemberFavorites     *int              `json:"member_favorites,omitempty"`
	More                string            `json:"more"`
	VoiceActingRoles    []VoiceActingRole `json:"voice_acting_roles"`
	AnimeStaffPositions []StaffPosition   `json:"anime_staff_positions"`
	PublishedManga      []MangaCredit     `json:"published_manga"`
}

// PersonTransformer turns person profile HTML into PersonData.
type PersonTransformer struct{}

// Transform parses one profile page body. profileURL is recorded verbatim.
func (PersonTransformer) Transform(body []byte, id int64, profileURL string) (PersonData, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return PersonData{}, fmt.Errorf("parse person page: %w", err)
	}

	data := PersonData{
		ID:                  id,
		URL:                 profileURL,
		Name:                strings.TrimSpace(doc.Find("h1.title-name").First().Text()),
		GivenName:           labeledSiblingText(doc, "Given name:"),
		FamilyName:          labeledSiblingText(doc, "Family name:"),
		Birthday:            normalizeBirthday(labeledSiblingText(doc, "Birthday:")),
		MemberFavorites:     parseFavorites(labeledSiblingText(doc, "Member Favorites:")),
		More:                strings.TrimSpace(doc.Find("div.people-informantion-more").First().Text()),
		VoiceActingRoles:    extractVoiceActingRoles(doc),
		AnimeStaffPositions: extractStaffPositions(doc),
		PublishedManga:      extractPublishedManga(doc),
	}
	return data, nil
}

// labeledSiblingText returns the text node following a dark_text label span,
// the way the profile sidebar lays out its fields.
func labeledSiblingText(doc *goquery.Document, label string) string {
	var value string
	doc.Find("span.dark_text").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if strings.TrimSpace(sel.Text()) != strings.TrimSuffix(label, ":")+":" {
			return true
		}
		if parent := sel.Parent(); parent.Length() > 0 {
			value = strings.TrimSpace(strings.Replace(parent.Text(), sel.Text(), "", 1))
		}
		return false
	})
	return value
}

// normalizeBirthday converts "Jan 2, 2006" style dates to ISO form. Dates
// the site renders without a day or year pass through empty.
func normalizeBirthday(raw string) string {
	raw = strings.Join(strings.Fields(raw), " ")
	if raw == "" {
		return ""
	}
	t, err := time.Parse("Jan 2, 2006", raw)
	if err != nil {
		return ""
	}
	return t.Format("2006-01-02")
}

func parseFavorites(raw string) *int {
	raw = strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if raw == "" {
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil
	}
	return &n
}

func extractVoiceActingRoles(doc *goquery.Document) []VoiceActingRole {
	var roles []VoiceActingRole
	doc.Find("table.js-table-people-character tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 3 {
			return
		}
		role := VoiceActingRole{}

		anime := cells.Eq(1).Find("a.js-people-title").First()
		role.AnimeTitle = strings.TrimSpace(anime.Text())
		role.AnimeURL, _ = anime.Attr("href")

		pads := cells.Eq(2).Find("div.spaceit_pad")
		if pads.Length() > 0 {
			char := pads.Eq(0).Find("a").First()
			role.Character = strings.TrimSpace(char.Text())
			role.CharacterURL, _ = char.Attr("href")
		}
		if pads.Length() > 1 {
			role.Role = strings.TrimSpace(pads.Eq(1).Text())
		}
		if role.AnimeTitle == "" && role.Character == "" {
			return
		}
		roles = append(roles, role)
	})
	return roles
}

func extractStaffPositions(doc *goquery.Document) []StaffPosition {
	var positions []StaffPosition
	doc.Find("table.js-table-people-staff tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return
		}
		anime := cells.Eq(1).Find("a.js-people-title").First()
		if anime.Length() == 0 {
			return
		}
		pos := StaffPosition{
			AnimeTitle: strings.TrimSpace(anime.Text()),
			Position:   strings.TrimSpace(cells.Eq(1).Find("small").First().Text()),
		}
		pos.AnimeURL, _ = anime.Attr("href")
		positions = append(positions, pos)
	})
	return positions
}

func extractPublishedManga(doc *goquery.Document) []MangaCredit {
	var works []MangaCredit
	doc.Find("table.js-table-people-manga tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return
		}
		manga := cells.Eq(1).Find("a.js-people-title").First()
		if manga.Length() == 0 {
			return
		}
		work := MangaCredit{
			MangaTitle: strings.TrimSpace(manga.Text()),
			Role:       strings.TrimSpace(cells.Eq(1).Find("small").First().Text()),
		}
		work.MangaURL, _ = manga.Attr("href")
		works = append(works, work)
	})
	return works
}
