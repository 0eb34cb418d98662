package transport

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gwi.com/wishlist-assistant/internal/core"
	"gwi.com/wishlist-assistant/internal/store"
)

type emptySearcher struct{}

func (emptySearcher) Search(ctx context.Context, query string) (json.RawMessage, error) {
	return json.RawMessage(`[]`), nil
}

type fixedTitle string

func (f fixedTitle) GenerateTitle(ctx context.Context, message string) (string, error) {
	return string(f), nil
}

func (f fixedTitle) GenerateDescription(ctx context.Context, message string, product store.Product) (string, error) {
	return "", nil
}

func newSessions() *core.Sessions {
	return core.NewSessions(store.NewMemoryKV(), emptySearcher{}, fixedTitle("Tents"), 2, 0)
}

func TestProcessRequest_Send(t *testing.T) {
	sessions := newSessions()

	resp := ProcessRequest(context.Background(), sessions, []byte(`{"session_id":"s1","message":"tent"}`))
	require.Nil(t, resp.ErrorCode)
	require.NotNil(t, resp.Conversation)
	assert.Equal(t, "s1", resp.SessionID)
	assert.Equal(t, "Tents", resp.Conversation.TitleOrEmpty())
	require.Len(t, resp.Conversation.Messages, 3)
	assert.Equal(t, core.NoProductsText, resp.Conversation.Messages[2].Content)

	assert.Len(t, sessions.Get(context.Background(), "s1").Repository().ListAll(), 1)
}

func TestProcessRequest_Errors(t *testing.T) {
	cases := []struct {
		name string
		data string
		code string
	}{
		{name: "invalid json", data: `{`, code: ErrorParseError},
		{name: "missing session", data: `{"message":"tent"}`, code: ErrorParseError},
		{name: "empty message", data: `{"session_id":"s1","message":"  "}`, code: ErrorEmptyMessage},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := ProcessRequest(context.Background(), newSessions(), []byte(tc.data))
			require.NotNil(t, resp.ErrorCode)
			assert.Equal(t, tc.code, *resp.ErrorCode)
			assert.Nil(t, resp.Conversation)
		})
	}
}

func TestSendResponse_OmitsEmptyFields(t *testing.T) {
	data, err := json.Marshal(errorResponse("s1", ErrorInternal, "boom"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"session_id":"s1","error_code":"INTERNAL_ERROR","error_message":"boom"}`, string(data))
}
