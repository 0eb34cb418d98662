package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"gwi.com/wishlist-assistant/internal/store"
)

const (
	NoProductsText     = "I searched our database but couldn't find any products matching your request at the moment. Please try a different search term."
	SearchFailedText   = "I'm having trouble searching for products right now. Please try again in a moment."
	foundProductsTextF = "I found %d products that might interest you. Take a look at these options!"
)

var (
	ErrEmptyMessage = errors.New("message is empty")
	ErrSendInFlight = errors.New("a message is already being sent for this conversation")
)

// ChatService runs the send pipeline for one repository.
type ChatService struct {
	repo        *Repository
	searcher    Searcher
	titles      *TitleAdapter
	describer   Generator
	descLimit   int
	inflightMu  sync.Mutex
	inflightIDs map[string]struct{}
}

func NewChatService(repo *Repository, searcher Searcher, generator Generator, descriptionConcurrency int) *ChatService {
	return &ChatService{
		repo:        repo,
		searcher:    searcher,
		titles:      NewTitleAdapter(generator),
		describer:   generator,
		descLimit:   descriptionConcurrency,
		inflightIDs: make(map[string]struct{}),
	}
}

func (s *ChatService) Repository() *Repository {
	return s.repo
}

// Sending reports whether a send is running for the conversation.
func (s *ChatService) Sending(conversationID string) bool {
	s.inflightMu.Lock()
	defer s.inflightMu.Unlock()
	_, ok := s.inflightIDs[conversationID]
	return ok
}

// Busy reports whether any send is running.
func (s *ChatService) Busy() bool {
	s.inflightMu.Lock()
	defer s.inflightMu.Unlock()
	return len(s.inflightIDs) > 0
}

func (s *ChatService) acquire(conversationID string) bool {
	s.inflightMu.Lock()
	defer s.inflightMu.Unlock()
	if _, busy := s.inflightIDs[conversationID]; busy {
		return false
	}
	s.inflightIDs[conversationID] = struct{}{}
	return true
}

func (s *ChatService) release(conversationID string) {
	s.inflightMu.Lock()
	defer s.inflightMu.Unlock()
	delete(s.inflightIDs, conversationID)
}

// Send appends text as a user message to the active conversation and, once
// search and enrichment settle, exactly one assistant message. Upstream
// failures become fallback content, never errors. The pipeline is not
// cancelled when ctx is.
func (s *ChatService) Send(ctx context.Context, text string) (store.Conversation, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return store.Conversation{}, ErrEmptyMessage
	}

	active, temporary := s.repo.ActiveState()
	if !s.acquire(active.ID) {
		return store.Conversation{}, ErrSendInFlight
	}
	defer s.release(active.ID)

	ctx = context.WithoutCancel(ctx)
	logger := log.With().Str("conversation", active.ID).Logger()

	isFirstUserMessage := temporary && active.UserMessageCount() == 0

	userMsg := store.Message{ID: newID(), Role: store.RoleUser, Content: text}
	updated := active.WithMessage(userMsg, s.repo.now().UnixMilli())
	s.repo.Update(ctx, updated)

	if isFirstUserMessage {
		title := s.titles.Generate(ctx, text)
		updated = s.repo.Promote(ctx, updated, title)
		logger.Info().Str("title", title).Msg("Saved temporary conversation")
	}

	assistantMsg := s.answer(ctx, text)

	current, ok := s.repo.Get(updated.ID)
	if !ok {
		current = updated
	}
	final := current.WithMessage(assistantMsg, s.repo.now().UnixMilli())
	s.repo.Update(ctx, final)

	logger.Info().Int("products", len(assistantMsg.Products)).Msg("Message exchange complete")
	return final, nil
}

func (s *ChatService) answer(ctx context.Context, text string) store.Message {
	raw, err := s.searcher.Search(ctx, text)
	if err != nil {
		log.Error().Err(err).Msg("Error fetching products")
		return store.Message{
			ID:       newID(),
			Role:     store.RoleAssistant,
			Content:  SearchFailedText,
			Products: []store.Product{},
		}
	}

	products := DecodeProducts(raw)
	content := NoProductsText
	if len(products) > 0 {
		content = fmt.Sprintf(foundProductsTextF, len(products))
	}

	return store.Message{
		ID:       newID(),
		Role:     store.RoleAssistant,
		Content:  content,
		Products: enrichedProducts(EnrichProducts(ctx, s.describer, products, s.descLimit)),
	}
}
