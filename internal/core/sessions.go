package core

import (
	"context"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"gwi.com/wishlist-assistant/internal/store"
)

const DefaultSessionCacheSize = 1024

// Sessions hands out one ChatService per owner, each bound to the owner's
// own persisted slot. At most cacheSize services stay in memory; an evicted
// owner loses only an unsaved temporary conversation and reloads its saved
// list from the store on the next Get.
type Sessions struct {
	kv        store.KV
	searcher  Searcher
	generator Generator
	descLimit int
	repoOpts  []RepositoryOption

	services *lru.Cache[string, *ChatService]
	loads    singleflight.Group

	// Evicted services with a send still running, kept so the owner's next
	// Get resumes them instead of loading a stale copy.
	mu       sync.Mutex
	draining map[string]*ChatService
}

func NewSessions(kv store.KV, searcher Searcher, generator Generator, descriptionConcurrency, cacheSize int, opts ...RepositoryOption) *Sessions {
	if cacheSize <= 0 {
		cacheSize = DefaultSessionCacheSize
	}
	s := &Sessions{
		kv:        kv,
		searcher:  searcher,
		generator: generator,
		descLimit: descriptionConcurrency,
		repoOpts:  opts,
		draining:  make(map[string]*ChatService),
	}
	// Only fails for a non-positive size.
	s.services, _ = lru.NewWithEvict[string, *ChatService](cacheSize, s.onEvict)
	return s
}

// Get returns the owner's service, loading its conversations on first use.
// Concurrent first requests for one owner share a single load; loads for
// different owners do not wait on each other.
func (s *Sessions) Get(ctx context.Context, owner string) *ChatService {
	if svc, ok := s.services.Get(owner); ok {
		return svc
	}

	v, _, _ := s.loads.Do(owner, func() (any, error) {
		if svc, ok := s.services.Get(owner); ok {
			return svc, nil
		}
		svc := s.takeDraining(owner)
		if svc == nil {
			svc = s.load(context.WithoutCancel(ctx), owner)
		}
		s.services.Add(owner, svc)
		return svc, nil
	})
	return v.(*ChatService)
}

func (s *Sessions) load(ctx context.Context, owner string) *ChatService {
	cs := store.NewConversationStore(s.kv, store.SlotKey(owner))
	repo := NewRepository(ctx, cs, s.repoOpts...)
	log.Debug().Str("owner", owner).Int("saved", len(repo.ListAll())).Msg("Loaded session")
	return NewChatService(repo, s.searcher, s.generator, s.descLimit)
}

func (s *Sessions) onEvict(owner string, svc *ChatService) {
	if !svc.Busy() {
		log.Debug().Str("owner", owner).Msg("Evicted idle session")
		return
	}
	s.mu.Lock()
	s.draining[owner] = svc
	s.mu.Unlock()
}

// takeDraining removes and returns owner's draining service, if any, and
// drops draining services whose sends have finished.
func (s *Sessions) takeDraining(owner string) *ChatService {
	s.mu.Lock()
	defer s.mu.Unlock()

	svc := s.draining[owner]
	delete(s.draining, owner)
	for k, v := range s.draining {
		if !v.Busy() {
			delete(s.draining, k)
		}
	}
	return svc
}

// ActiveCount returns the number of cached sessions.
func (s *Sessions) ActiveCount() int {
	return s.services.Len()
}

func (s *Sessions) Close() error {
	return s.kv.Close()
}
