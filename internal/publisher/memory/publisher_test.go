package memory

import (
	"context"
	"testing"
	"time"

	"github.com/otakulab/malcrawl/internal/crawl"
)

func TestPublisherStoresMessages(t *testing.T) {
	t.Parallel()

	pub := New()
	id1, err := pub.Publish(context.Background(), "anime-completions", map[string]string{"k": "v"})
	if err != nil || id1 != "memory-1" {
		t.Fatalf("unexpected publish result id=%s err=%v", id1, err)
	}
	id2, err := pub.Publish(context.Background(), "people-completions", "payload")
	if err != nil || id2 != "memory-2" {
		t.Fatalf("unexpected publish result id=%s err=%v", id2, err)
	}

	msgs := pub.Messages()
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Topic != "anime-completions" || msgs[1].Topic != "people-completions" {
		t.Fatalf("topics not recorded correctly: %+v", msgs)
	}

	msgs[0].Topic = "modified"
	if pub.Messages()[0].Topic == "modified" {
		t.Fatal("expected Messages() to return a copy")
	}
}

func TestPublisherEvents(t *testing.T) {
	t.Parallel()

	pub := New()
	event := crawl.CompletionEvent{
		Domain:      "anime",
		ItemID:      42,
		URI:         "memory://anime/42.json",
		CompletedAt: time.Unix(1700000000, 0).UTC(),
	}
	if _, err := pub.Publish(context.Background(), "anime-completions", event); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if _, err := pub.Publish(context.Background(), "anime-completions", "not an event"); err != nil {
		t.Fatalf("publish: %v", err)
	}

	events := pub.Events()
	if len(events) != 1 {
		t.Fatalf("expected 1 completion event, got %d", len(events))
	}
	if events[0] != event {
		t.Fatalf("event not recorded verbatim: %+v", events[0])
	}
}
