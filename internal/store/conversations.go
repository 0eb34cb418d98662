package store

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const ConversationsKey = "wishlist_conversations"

// SlotKey returns the slot holding owner's conversation list.
func SlotKey(owner string) string {
	if owner == "" {
		return ConversationsKey
	}
	return ConversationsKey + ":" + owner
}

// ConversationStore reads and writes the JSON conversation list in one KV slot.
type ConversationStore struct {
	kv  KV
	key string
}

func NewConversationStore(kv KV, key string) *ConversationStore {
	return &ConversationStore{kv: kv, key: key}
}

// Load never fails: a missing, unreadable or malformed slot is an empty list.
func (s *ConversationStore) Load(ctx context.Context) []Conversation {
	raw, ok, err := s.kv.Get(ctx, s.key)
	if err != nil {
		log.Warn().Err(err).Str("key", s.key).Msg("Could not read conversation slot, starting empty")
		return []Conversation{}
	}
	if !ok || raw == "" {
		return []Conversation{}
	}

	var convos []Conversation
	if err := json.Unmarshal([]byte(raw), &convos); err != nil {
		// Covers non-array payloads too.
		log.Warn().Err(err).Str("key", s.key).Msg("Malformed conversation slot, starting empty")
		return []Conversation{}
	}
	if convos == nil {
		return []Conversation{}
	}
	return convos
}

func (s *ConversationStore) Save(ctx context.Context, convos []Conversation) error {
	if convos == nil {
		convos = []Conversation{}
	}
	data, err := json.Marshal(convos)
	if err != nil {
		return errors.Wrap(err, "failed to marshal conversations")
	}
	return s.kv.Set(ctx, s.key, string(data))
}
