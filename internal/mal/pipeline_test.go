package mal

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/otakulab/malcrawl/internal/crawl"
)

type stubFetcher struct {
	pages map[string][]byte
	errs  map[string]error
	calls []string
}

func (f *stubFetcher) Fetch(_ context.Context, url string) (crawl.Page, error) {
	f.calls = append(f.calls, url)
	if err, ok := f.errs[url]; ok {
		return crawl.Page{}, err
	}
	body, ok := f.pages[url]
	if !ok {
		return crawl.Page{}, fmt.Errorf("unexpected url %s", url)
	}
	return crawl.Page{URL: url, StatusCode: 200, Body: body}, nil
}

type captureSink struct {
	paths   []string
	records []crawl.Record
	err     error
}

func (s *captureSink) Store(_ context.Context, path string, record crawl.Record) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.paths = append(s.paths, path)
	s.records = append(s.records, record)
	return "memory://" + path, nil
}

type fixedClock struct{ at time.Time }

func (c fixedClock) Now() time.Time { return c.at }

func TestAnimePipeline_Process(t *testing.T) {
	t.Parallel()

	urls := NewAnimeURLs("")
	fetcher := &stubFetcher{pages: map[string][]byte{
		urls.ItemURL(1): []byte(animeDetailPage),
		"https://myanimelist.net/anime/1/Cowboy_Bebop/characters": []byte(
			`<html><body><table class="js-anime-character-table">
			<tr><td><a href="/character/1/Spike">Spike</a></td></tr>
			</table></body></html>`),
	}}
	sink := &captureSink{}
	clk := fixedClock{at: time.UnixMilli(1700000000000).UTC()}

	pipeline := NewAnimePipeline(fetcher, urls, sink, "anime", clk, zap.NewNop())
	uri, err := pipeline.Process(context.Background(), crawl.ItemStub{ID: 1, Title: "Cowboy Bebop"})
	require.NoError(t, err)
	require.Equal(t, "memory://anime/1.json", uri)

	require.Equal(t, []string{"anime/1.json"}, sink.paths)
	record := sink.records[0]
	require.NotEmpty(t, record.RecordID)
	require.Equal(t, int64(1700000000000), record.EmittedAt)

	data, ok := record.Data.(AnimeData)
	require.True(t, ok)
	require.Equal(t, "Cowboy Bebop", data.Title)
	require.Len(t, data.Characters, 1)
	require.Equal(t, "1", data.Characters[0].CharacterID)
}

func TestAnimePipeline_FetchFailureIsItemError(t *testing.T) {
	t.Parallel()

	urls := NewAnimeURLs("")
	fetcher := &stubFetcher{errs: map[string]error{
		urls.ItemURL(9): errors.New("boom"),
	}}
	pipeline := NewAnimePipeline(fetcher, urls, &captureSink{}, "anime", fixedClock{}, zap.NewNop())

	_, err := pipeline.Process(context.Background(), crawl.ItemStub{ID: 9})
	var itemErr *crawl.ItemError
	require.ErrorAs(t, err, &itemErr)
	require.Equal(t, int64(9), itemErr.ID)
}

func TestAnimePipeline_CharactersFetchFailureDegrades(t *testing.T) {
	t.Parallel()

	urls := NewAnimeURLs("")
	fetcher := &stubFetcher{
		pages: map[string][]byte{urls.ItemURL(1): []byte(animeDetailPage)},
		errs: map[string]error{
			"https://myanimelist.net/anime/1/Cowboy_Bebop/characters": errors.New("gone"),
		},
	}
	sink := &captureSink{}
	pipeline := NewAnimePipeline(fetcher, urls, sink, "anime", fixedClock{}, zap.NewNop())

	_, err := pipeline.Process(context.Background(), crawl.ItemStub{ID: 1})
	require.NoError(t, err)

	data := sink.records[0].Data.(AnimeData)
	require.Empty(t, data.Characters)
}

func TestAnimePipeline_SinkFailureIsItemError(t *testing.T) {
	t.Parallel()

	urls := NewAnimeURLs("")
	fetcher := &stubFetcher{pages: map[string][]byte{
		urls.ItemURL(3): []byte(`<html><body><h1 class="title-name"><strong>X</strong></h1></body></html>`),
	}}
	pipeline := NewAnimePipeline(fetcher, urls, &captureSink{err: errors.New("disk full")}, "anime", fixedClock{}, zap.NewNop())

	_, err := pipeline.Process(context.Background(), crawl.ItemStub{ID: 3})
	var itemErr *crawl.ItemError
	require.ErrorAs(t, err, &itemErr)
	require.Equal(t, int64(3), itemErr.ID)
}

func TestPeoplePipeline_Process(t *testing.T) {
	t.Parallel()

	urls := NewPeopleURLs("")
	fetcher := &stubFetcher{pages: map[string][]byte{
		urls.ItemURL(11): []byte(personProfilePage),
	}}
	sink := &captureSink{}
	clk := fixedClock{at: time.UnixMilli(1700000000000).UTC()}

	pipeline := NewPeoplePipeline(fetcher, urls, sink, "people", clk)
	uri, err := pipeline.Process(context.Background(), crawl.ItemStub{ID: 11})
	require.NoError(t, err)
	require.Equal(t, "memory://people/11.json", uri)

	data, ok := sink.records[0].Data.(PersonData)
	require.True(t, ok)
	require.Equal(t, "Kouichi Yamadera", data.Name)
	require.Equal(t, int64(1700000000000), sink.records[0].EmittedAt)
}
