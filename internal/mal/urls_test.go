package mal

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLetters(t *testing.T) {
	t.Parallel()

	letters := Letters()
	require.Len(t, letters, 27)
	require.Equal(t, "A", letters[0])
	require.Equal(t, "Z", letters[25])
	require.Equal(t, ".", letters[26], "catch-all partition comes last")
}

func TestAnimeURLs(t *testing.T) {
	t.Parallel()

	u := NewAnimeURLs("")
	require.Equal(t, "https://myanimelist.net/anime.php?letter=B&show=100", u.ListingURL("B", 2))
	require.Equal(t, "https://myanimelist.net/anime/5114", u.ItemURL(5114))
}

func TestPeopleURLs(t *testing.T) {
	t.Parallel()

	u := NewPeopleURLs("http://127.0.0.1:8080")
	require.Equal(t, "http://127.0.0.1:8080/people.php?letter=A&show=0", u.ListingURL("A", 0))
	require.Equal(t, "http://127.0.0.1:8080/people/118", u.ItemURL(118))
}

func TestListingURL_CatchAllLetter(t *testing.T) {
	t.Parallel()

	u := NewAnimeURLs("")
	require.Equal(t, "https://myanimelist.net/anime.php?letter=.&show=0", u.ListingURL(".", 0))
}
