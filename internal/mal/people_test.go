package mal

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const personProfilePage = `<html><body>
<h1 class="title-name">Kouichi Yamadera</h1>
<div class="spaceit_pad"><span class="dark_text">Given name:</span> 宏一</div>
<div class="spaceit_pad"><span class="dark_text">Family name:</span> 山寺</div>
<div class="spaceit_pad"><span class="dark_text">Birthday:</span>  Jun  17, 1961</div>
<div class="spaceit_pad"><span class="dark_text">Member Favorites:</span> 18,025</div>
<div class="people-informantion-more">Nicknamed Yama-chan.</div>

<table class="js-table-people-character">
  <tr>
    <td><img src="poster.jpg"></td>
    <td><a class="js-people-title" href="https://myanimelist.net/anime/1/Cowboy_Bebop">Cowboy Bebop</a></td>
    <td>
      <div class="spaceit_pad"><a href="https://myanimelist.net/character/1/Spike_Spiegel">Spiegel, Spike</a></div>
      <div class="spaceit_pad">Main</div>
    </td>
  </tr>
  <tr>
    <td><img src="poster2.jpg"></td>
    <td><a class="js-people-title" href="https://myanimelist.net/anime/30/Neon_Genesis_Evangelion">Neon Genesis Evangelion</a></td>
    <td>
      <div class="spaceit_pad"><a href="https://myanimelist.net/character/585/Ryouji_Kaji">Kaji, Ryouji</a></div>
      <div class="spaceit_pad">Supporting</div>
    </td>
  </tr>
</table>

<table class="js-table-people-staff">
  <tr>
    <td><img src="poster3.jpg"></td>
    <td>
      <a class="js-people-title" href="https://myanimelist.net/anime/570/Jin-Rou">Jin-Rou</a>
      <small>Theme Song Performance</small>
    </td>
  </tr>
  <tr>
    <td colspan="2">header row without a title link</td>
  </tr>
</table>

<table class="js-table-people-manga">
  <tr>
    <td><img src="poster4.jpg"></td>
    <td>
      <a class="js-people-title" href="https://myanimelist.net/manga/171/Example_Work">Example Work</a>
      <small>Story &amp; Art</small>
    </td>
  </tr>
</table>
</body></html>`

func TestPersonTransformer_Transform(t *testing.T) {
	t.Parallel()

	data, err := PersonTransformer{}.Transform([]byte(personProfilePage), 11, "https://myanimelist.net/people/11")
	require.NoError(t, err)

	require.Equal(t, int64(11), data.ID)
	require.Equal(t, "https://myanimelist.net/people/11", data.URL)
	require.Equal(t, "Kouichi Yamadera", data.Name)
	require.Equal(t, "宏一", data.GivenName)
	require.Equal(t, "山寺", data.FamilyName)
	require.Equal(t, "1961-06-17", data.Birthday)
	require.NotNil(t, data.MemberFavorites)
	require.Equal(t, 18025, *data.MemberFavorites)
	require.Equal(t, "Nicknamed Yama-chan.", data.More)

	require.Equal(t, []VoiceActingRole{
		{
			AnimeTitle:   "Cowboy Bebop",
			AnimeURL:     "https://myanimelist.net/anime/1/Cowboy_Bebop",
			Character:    "Spiegel, Spike",
			CharacterURL: "https://myanimelist.net/character/1/Spike_Spiegel",
			Role:         "Main",
		},
		{
			AnimeTitle:   "Neon Genesis Evangelion",
			AnimeURL:     "https://myanimelist.net/anime/30/Neon_Genesis_Evangelion",
			Character:    "Kaji, Ryouji",
			CharacterURL: "https://myanimelist.net/character/585/Ryouji_Kaji",
			Role:         "Supporting",
		},
	}, data.VoiceActingRoles)

	require.Equal(t, []StaffPosition{
		{
			AnimeTitle: "Jin-Rou",
			AnimeURL:   "https://myanimelist.net/anime/570/Jin-Rou",
			Position:   "Theme Song Performance",
		},
	}, data.AnimeStaffPositions)

	require.Equal(t, []MangaCredit{
		{
			MangaTitle: "Example Work",
			MangaURL:   "https://myanimelist.net/manga/171/Example_Work",
			Role:       "Story & Art",
		},
	}, data.PublishedManga)
}

func TestPersonTransformer_MissingFields(t *testing.T) {
	t.Parallel()

	data, err := PersonTransformer{}.Transform([]byte(`<html><body><h1 class="title-name">Someone</h1></body></html>`), 5, "u")
	require.NoError(t, err)

	require.Equal(t, "Someone", data.Name)
	require.Empty(t, data.GivenName)
	require.Empty(t, data.Birthday)
	require.Nil(t, data.MemberFavorites)
	require.Empty(t, data.VoiceActingRoles)
	require.Empty(t, data.AnimeStaffPositions)
	require.Empty(t, data.PublishedManga)
}

func TestNormalizeBirthday(t *testing.T) {
	t.Parallel()

	require.Equal(t, "1961-06-17", normalizeBirthday("Jun 17, 1961"))
	require.Equal(t, "", normalizeBirthday("1961"), "year-only dates are dropped")
	require.Equal(t, "", normalizeBirthday("Jun 17"), "dates without a year are dropped")
	require.Equal(t, "", normalizeBirthday(""))
}
