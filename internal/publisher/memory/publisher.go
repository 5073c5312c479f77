// Package memory contains an in-process publisher for dev runs and tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/otakulab/malcrawl/internal/crawl"
)

// Message captures one publish call.
type Message struct {
	Topic   string
	Payload any
}

// Publisher keeps published payloads in memory so a run without a broker
// can still inspect its completion events.
type Publisher struct {
	mu       sync.RWMutex
	messages []Message
}

// New returns an empty memory Publisher.
func New() *Publisher {
	return &Publisher{}
}

// Publish records the message and returns a pseudo ID.
func (p *Publisher) Publish(_ context.Context, topic string, payload any) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, Message{Topic: topic, Payload: payload})
	return fmt.Sprintf("memory-%d", len(p.messages)), nil
}

// Messages returns the recorded publishes in order.
func (p *Publisher) Messages() []Message {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]Message, len(p.messages))
	copy(out, p.messages)
	return out
}

// Events returns the recorded completion events, skipping payloads of any
// other type.
func (p *Publisher) Events() []crawl.CompletionEvent {
	p.mu.RLock()
	defer p.mu.RUnlock()
	var events []crawl.CompletionEvent
	for _, m := range p.messages {
		if event, ok := m.Payload.(crawl.CompletionEvent); ok {
			events = append(events, event)
		}
	}
	return events
}
