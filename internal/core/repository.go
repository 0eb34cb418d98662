package core

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"gwi.com/wishlist-assistant/internal/store"
)

const GreetingText = "Hi! I'm your shopping assistant. Ask me what you want to buy!"

// NewConversation returns a temporary conversation holding only the greeting.
func NewConversation(now time.Time) store.Conversation {
	ms := now.UnixMilli()
	return store.Conversation{
		ID: newID(),
		Messages: []store.Message{
			{ID: newID(), Role: store.RoleAssistant, Content: GreetingText},
		},
		CreatedAt: ms,
		UpdatedAt: ms,
	}
}

// Repository owns the ordered saved conversations and the active pointer.
// The active conversation is either one of the saved ones or a temporary
// conversation that exists only in memory until promoted.
type Repository struct {
	mu        sync.Mutex
	store     *store.ConversationStore
	saved     []store.Conversation
	active    store.Conversation
	temporary bool
	now       func() time.Time
}

type RepositoryOption func(*Repository)

// WithClock overrides time.Now, mostly for tests.
func WithClock(now func() time.Time) RepositoryOption {
	return func(r *Repository) { r.now = now }
}

// NewRepository loads the saved list. An empty list leaves a fresh temporary
// conversation active; otherwise the first saved conversation is active.
func NewRepository(ctx context.Context, cs *store.ConversationStore, opts ...RepositoryOption) *Repository {
	r := &Repository{store: cs, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}

	r.saved = cs.Load(ctx)
	if len(r.saved) == 0 {
		r.active = NewConversation(r.now())
		r.temporary = true
	} else {
		r.active = r.saved[0].Clone()
	}
	return r
}

// Create builds a new conversation without adopting it.
func (r *Repository) Create() store.Conversation {
	return NewConversation(r.now())
}

// NewChat makes a freshly created conversation the active temporary one.
func (r *Repository) NewChat() store.Conversation {
	c := r.Create()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active = c
	r.temporary = true
	return c.Clone()
}

// ListAll returns the saved conversations in order. The temporary
// conversation is never included.
func (r *Repository) ListAll() []store.Conversation {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]store.Conversation, len(r.saved))
	for i, c := range r.saved {
		out[i] = c.Clone()
	}
	return out
}

func (r *Repository) Active() store.Conversation {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active.Clone()
}

// ActiveState returns the active conversation and whether it is temporary,
// read together.
func (r *Repository) ActiveState() (store.Conversation, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active.Clone(), r.temporary
}

func (r *Repository) IsTemporary() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.temporary
}

// Get looks id up among the saved conversations and the temporary one.
func (r *Repository) Get(id string) (store.Conversation, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i := r.indexOf(id); i >= 0 {
		return r.saved[i].Clone(), true
	}
	if r.temporary && r.active.ID == id {
		return r.active.Clone(), true
	}
	return store.Conversation{}, false
}

// IsSaved reports whether id is in the saved list.
func (r *Repository) IsSaved(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.indexOf(id) >= 0
}

// SwitchActive activates a saved conversation. Unknown ids are ignored.
// The saved order is left untouched.
func (r *Repository) SwitchActive(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.indexOf(id)
	if i < 0 {
		return false
	}
	r.active = r.saved[i].Clone()
	r.temporary = false
	return true
}

// Promote titles conv, moves it to the front of the saved list and makes it
// active. A conv whose id is already saved is not inserted a second time.
func (r *Repository) Promote(ctx context.Context, conv store.Conversation, title string) store.Conversation {
	promoted := conv.Clone()
	promoted.Title = &title
	promoted.UpdatedAt = r.now().UnixMilli()

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.indexOf(promoted.ID) < 0 {
		r.saved = append([]store.Conversation{promoted.Clone()}, r.saved...)
		r.persistLocked(ctx)
	}
	r.active = promoted.Clone()
	r.temporary = false
	return promoted
}

// Update stores a new version of conv. Saved conversations are replaced by id
// and persisted; a temporary conversation only moves the active pointer.
// Versions of conversations that are neither saved nor active are dropped.
func (r *Repository) Update(ctx context.Context, conv store.Conversation) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if i := r.indexOf(conv.ID); i >= 0 {
		r.saved[i] = conv.Clone()
		r.persistLocked(ctx)
		if r.active.ID == conv.ID {
			r.active = conv.Clone()
		}
		return
	}
	if r.temporary && r.active.ID == conv.ID {
		r.active = conv.Clone()
		return
	}
	log.Debug().Str("conversation", conv.ID).Msg("Dropping update for unknown conversation")
}

func (r *Repository) indexOf(id string) int {
	for i := range r.saved {
		if r.saved[i].ID == id {
			return i
		}
	}
	return -1
}

func (r *Repository) persistLocked(ctx context.Context) {
	if err := r.store.Save(ctx, r.saved); err != nil {
		log.Error().Err(err).Msg("Failed to persist conversations")
	}
}
