package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otakulab/malcrawl/internal/crawl"
	"github.com/otakulab/malcrawl/internal/storage/memory"
)

func TestSink_StoreAndGet(t *testing.T) {
	sink := memory.NewSink()

	uri, err := sink.Store(context.Background(), "anime/1.json", crawl.Record{RecordID: "r1"})
	require.NoError(t, err)
	assert.Equal(t, "memory://anime/1.json", uri)

	record, ok := sink.Get("anime/1.json")
	require.True(t, ok)
	assert.Equal(t, "r1", record.RecordID)

	_, ok = sink.Get("anime/2.json")
	assert.False(t, ok)

	assert.Equal(t, 1, sink.Len())
}

func TestSink_OverwriteKeepsLatest(t *testing.T) {
	sink := memory.NewSink()

	_, err := sink.Store(context.Background(), "p", crawl.Record{RecordID: "old"})
	require.NoError(t, err)
	_, err = sink.Store(context.Background(), "p", crawl.Record{RecordID: "new"})
	require.NoError(t, err)

	record, ok := sink.Get("p")
	require.True(t, ok)
	assert.Equal(t, "new", record.RecordID)
	assert.Equal(t, 1, sink.Len())
}
