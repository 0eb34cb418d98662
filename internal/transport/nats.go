package transport

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/nats-io/nats.go"
	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"gwi.com/wishlist-assistant/internal/config"
	"gwi.com/wishlist-assistant/internal/core"
	"gwi.com/wishlist-assistant/internal/store"
)

const (
	ErrorParseError   = "PARSE_ERROR"
	ErrorEmptyMessage = "EMPTY_MESSAGE"
	ErrorInFlight     = "SEND_IN_FLIGHT"
	ErrorInternal     = "INTERNAL_ERROR"
)

// SendRequest asks for one message to be appended to the session's active
// conversation.
type SendRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

type SendResponse struct {
	SessionID    string              `json:"session_id"`
	Conversation *store.Conversation `json:"conversation,omitempty"`
	ErrorCode    *string             `json:"error_code,omitempty"`
	ErrorMessage *string             `json:"error_message,omitempty"`
}

type NATSTransport struct {
	conn     *nats.Conn
	config   config.Config
	sessions *core.Sessions
}

func NewNATSTransport(cfg config.Config, sessions *core.Sessions) (*NATSTransport, error) {
	conn, err := nats.Connect(cfg.NatsURL,
		nats.Name("wishlist-assistant"),
		nats.Timeout(cfg.NatsTimeout),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to connect to NATS")
	}

	log.Info().Str("url", cfg.NatsURL).Msg("Connected to NATS server")

	return &NATSTransport{conn: conn, config: cfg, sessions: sessions}, nil
}

func (nt *NATSTransport) Start() error {
	if _, err := nt.conn.Subscribe(nt.config.NatsSendSubject, nt.handleSendRequest); err != nil {
		return pkgerrors.Wrapf(err, "failed to subscribe to %s", nt.config.NatsSendSubject)
	}

	log.Info().Str("subject", nt.config.NatsSendSubject).Msg("Subscribed to subject")
	return nil
}

func (nt *NATSTransport) handleSendRequest(msg *nats.Msg) {
	ctx, cancel := context.WithTimeout(context.Background(), nt.config.NatsTimeout)
	defer cancel()

	response := ProcessRequest(ctx, nt.sessions, msg.Data)
	data, err := json.Marshal(response)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal response")
		return
	}
	if err := msg.Respond(data); err != nil {
		log.Error().Err(err).Str("session", response.SessionID).Msg("Failed to send response")
	}
}

// ProcessRequest decodes a send request and runs it against the session's
// chat service. Failures are reported in the response, never returned.
func ProcessRequest(ctx context.Context, sessions *core.Sessions, data []byte) *SendResponse {
	var request SendRequest
	if err := json.Unmarshal(data, &request); err != nil || request.SessionID == "" {
		log.Warn().Err(err).Msg("Error parsing request")
		return errorResponse(request.SessionID, ErrorParseError, "Invalid request format")
	}

	log.Debug().Str("session", request.SessionID).Msg("Processing send request")

	conv, err := sessions.Get(ctx, request.SessionID).Send(ctx, request.Message)
	switch {
	case errors.Is(err, core.ErrEmptyMessage):
		return errorResponse(request.SessionID, ErrorEmptyMessage, err.Error())
	case errors.Is(err, core.ErrSendInFlight):
		return errorResponse(request.SessionID, ErrorInFlight, err.Error())
	case err != nil:
		log.Error().Err(err).Msg("Error processing send request")
		return errorResponse(request.SessionID, ErrorInternal, err.Error())
	}
	return &SendResponse{SessionID: request.SessionID, Conversation: &conv}
}

func errorResponse(sessionID, code, message string) *SendResponse {
	return &SendResponse{SessionID: sessionID, ErrorCode: &code, ErrorMessage: &message}
}

func (nt *NATSTransport) Close() error {
	if nt.conn != nil {
		nt.conn.Close()
		log.Info().Msg("NATS connection closed")
	}
	return nil
}
