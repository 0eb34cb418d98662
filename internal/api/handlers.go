package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"gwi.com/wishlist-assistant/internal/auth"
	"gwi.com/wishlist-assistant/internal/core"
	"gwi.com/wishlist-assistant/internal/store"
)

type ctxKey string

const ownerKey ctxKey = "owner"

type APIHandler struct {
	sessions  *core.Sessions
	searcher  core.Searcher
	generator core.Generator
}

func NewAPIHandler(sessions *core.Sessions, searcher core.Searcher, generator core.Generator) *APIHandler {
	return &APIHandler{sessions: sessions, searcher: searcher, generator: generator}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (h *APIHandler) JWTAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeError(w, http.StatusUnauthorized, "Authorization header is required")
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		owner, err := auth.ValidateJWT(tokenString)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), ownerKey, owner)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *APIHandler) service(r *http.Request) *core.ChatService {
	owner, _ := r.Context().Value(ownerKey).(string)
	return h.sessions.Get(r.Context(), owner)
}

type SessionResponse struct {
	Token string `json:"token"`
	Owner string `json:"owner"`
}

func (h *APIHandler) CreateSessionHandler(w http.ResponseWriter, r *http.Request) {
	token, owner, err := auth.NewSessionToken()
	if err != nil {
		log.Error().Err(err).Msg("Error generating session token")
		writeError(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}
	writeJSON(w, http.StatusCreated, SessionResponse{Token: token, Owner: owner})
}

type ConversationListResponse struct {
	ActiveID      string               `json:"active_id"`
	Temporary     bool                 `json:"temporary"`
	Conversations []store.Conversation `json:"conversations"`
}

func (h *APIHandler) ListConversationsHandler(w http.ResponseWriter, r *http.Request) {
	repo := h.service(r).Repository()
	active, temporary := repo.ActiveState()
	writeJSON(w, http.StatusOK, ConversationListResponse{
		ActiveID:      active.ID,
		Temporary:     temporary,
		Conversations: repo.ListAll(),
	})
}

type ActiveConversationResponse struct {
	Conversation store.Conversation `json:"conversation"`
	Temporary    bool               `json:"temporary"`
	Sending      bool               `json:"sending"`
}

func (h *APIHandler) activeResponse(svc *core.ChatService) ActiveConversationResponse {
	active, temporary := svc.Repository().ActiveState()
	return ActiveConversationResponse{
		Conversation: active,
		Temporary:    temporary,
		Sending:      svc.Sending(active.ID),
	}
}

func (h *APIHandler) GetActiveConversationHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.activeResponse(h.service(r)))
}

func (h *APIHandler) NewConversationHandler(w http.ResponseWriter, r *http.Request) {
	svc := h.service(r)
	svc.Repository().NewChat()
	writeJSON(w, http.StatusCreated, h.activeResponse(svc))
}

func (h *APIHandler) ActivateConversationHandler(w http.ResponseWriter, r *http.Request) {
	svc := h.service(r)
	conversationID := chi.URLParam(r, "conversationID")
	if !svc.Repository().SwitchActive(conversationID) {
		writeError(w, http.StatusNotFound, "Conversation not found")
		return
	}
	writeJSON(w, http.StatusOK, h.activeResponse(svc))
}

type PostMessageRequest struct {
	Content string `json:"content"`
}

func (h *APIHandler) PostMessageHandler(w http.ResponseWriter, r *http.Request) {
	var req PostMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	conv, err := h.service(r).Send(r.Context(), req.Content)
	switch {
	case errors.Is(err, core.ErrEmptyMessage):
		writeError(w, http.StatusBadRequest, "Message content cannot be empty")
		return
	case errors.Is(err, core.ErrSendInFlight):
		writeError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		log.Error().Err(err).Msg("Error posting message")
		writeError(w, http.StatusInternalServerError, "Failed to post message")
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

// SearchHandler relays the request body to the product search backend and
// returns its JSON untouched.
func (h *APIHandler) SearchHandler(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil || !json.Valid(body) {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var raw json.RawMessage
	if fwd, ok := h.searcher.(core.Forwarder); ok {
		raw, err = fwd.Forward(r.Context(), body)
	} else {
		var req core.SearchRequest
		if err := json.Unmarshal(body, &req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
			return
		}
		raw, err = h.searcher.Search(r.Context(), req.Query)
	}
	if err != nil {
		log.Error().Err(err).Msg("Search API error")
		writeError(w, http.StatusInternalServerError, "Failed to search products")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}

// GenerateHandler serves titles, or product descriptions when type is
// "description".
func (h *APIHandler) GenerateHandler(w http.ResponseWriter, r *http.Request) {
	var req core.GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "Message is required")
		return
	}
	if h.generator == nil {
		writeError(w, http.StatusServiceUnavailable, "Generation is not configured")
		return
	}

	if req.Type == core.GenerateTypeDescription {
		desc, err := h.generator.GenerateDescription(r.Context(), req.Message, req.Product)
		if err != nil {
			log.Error().Err(err).Msg("Description generation error")
			writeError(w, http.StatusInternalServerError, "Failed to generate description")
			return
		}
		writeJSON(w, http.StatusOK, core.GenerateResponse{Description: &desc})
		return
	}

	title, err := h.generator.GenerateTitle(r.Context(), req.Message)
	if err != nil {
		log.Error().Err(err).Msg("Title generation error")
		writeError(w, http.StatusInternalServerError, "Failed to generate title")
		return
	}
	if title == "" {
		writeJSON(w, http.StatusOK, map[string]any{"title": nil})
		return
	}
	writeJSON(w, http.StatusOK, core.GenerateResponse{Title: &title})
}
