package core

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"

	"gwi.com/wishlist-assistant/internal/store"
)

type fakeSearcher struct {
	payload string
	err     error
	calls   atomic.Int32
	queries []string
	mu      sync.Mutex
	// onSearch runs inside Search before it returns, when set.
	onSearch func()
}

func (f *fakeSearcher) Search(_ context.Context, query string) (json.RawMessage, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.queries = append(f.queries, query)
	f.mu.Unlock()
	if f.onSearch != nil {
		f.onSearch()
	}
	if f.err != nil {
		return nil, f.err
	}
	return json.RawMessage(f.payload), nil
}

type fakeGenerator struct {
	title       string
	titleErr    error
	titleCalls  atomic.Int32
	failFor     map[string]bool // product names whose description fails
	descCalls   atomic.Int32
	describeFor func(name string) string
}

var errUpstream = errors.New("upstream unavailable")

func (f *fakeGenerator) GenerateTitle(_ context.Context, _ string) (string, error) {
	f.titleCalls.Add(1)
	if f.titleErr != nil {
		return "", f.titleErr
	}
	return f.title, nil
}

func (f *fakeGenerator) GenerateDescription(_ context.Context, message string, _ store.Product) (string, error) {
	f.descCalls.Add(1)
	if f.failFor[message] {
		return "", errUpstream
	}
	if f.describeFor != nil {
		return f.describeFor(message), nil
	}
	return "About " + message, nil
}

func newTestService(searcher Searcher, gen Generator) (*ChatService, *store.MemoryKV) {
	kv := store.NewMemoryKV()
	repo := NewRepository(context.Background(), store.NewConversationStore(kv, store.ConversationsKey))
	return NewChatService(repo, searcher, gen, 4), kv
}
