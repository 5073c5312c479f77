package mal

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const animeListingPage = `<html><body>
<div class="list">
  <a href="https://myanimelist.net/anime/1/Cowboy_Bebop"><img src="x.jpg"></a>
  <a href="https://myanimelist.net/anime/1/Cowboy_Bebop">Cowboy Bebop</a>
  <a href="https://myanimelist.net/anime/5114/Fullmetal_Alchemist">Fullmetal Alchemist: Brotherhood</a>
  <a href="https://myanimelist.net/manga/25/Berserk">not an anime link</a>
  <a href="https://myanimelist.net/anime/season">no id here</a>
</div>
</body></html>`

func TestAnimeListingParser(t *testing.T) {
	t.Parallel()

	stubs, err := NewAnimeListingParser().Parse([]byte(animeListingPage))
	require.NoError(t, err)
	require.Len(t, stubs, 2)

	require.Equal(t, int64(1), stubs[0].ID)
	require.Equal(t, "Cowboy Bebop", stubs[0].Title, "picture link without text must not shadow the title")
	require.Equal(t, int64(5114), stubs[1].ID)
	require.Equal(t, "Fullmetal Alchemist: Brotherhood", stubs[1].Title)
}

func TestPeopleListingParser(t *testing.T) {
	t.Parallel()

	page := `<html><body>
	<a href="/people/118/">Hayashibara, Megumi</a>
	<a href="/people/185/">Wakamoto, Norio</a>
	<a href="/anime/1/">Cowboy Bebop</a>
	</body></html>`

	stubs, err := NewPeopleListingParser().Parse([]byte(page))
	require.NoError(t, err)
	require.Len(t, stubs, 2)
	require.Equal(t, int64(118), stubs[0].ID)
	require.Equal(t, int64(185), stubs[1].ID)
}

func TestListingParser_EmptyPage(t *testing.T) {
	t.Parallel()

	stubs, err := NewAnimeListingParser().Parse([]byte("<html><body>No results</body></html>"))
	require.NoError(t, err)
	require.Empty(t, stubs)
}

func TestListingParser_FullPageCount(t *testing.T) {
	t.Parallel()

	var sb strings.Builder
	sb.WriteString("<html><body>")
	for i := 1; i <= PageSize; i++ {
		fmt.Fprintf(&sb, `<a href="/anime/%d/">Entry %d</a>`, i, i)
	}
	sb.WriteString("</body></html>")

	stubs, err := NewAnimeListingParser().Parse([]byte(sb.String()))
	require.NoError(t, err)
	require.Len(t, stubs, PageSize)
}
