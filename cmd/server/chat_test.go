package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gwi.com/wishlist-assistant/internal/config"
	"gwi.com/wishlist-assistant/internal/core"
	"gwi.com/wishlist-assistant/internal/store"
)

type replSearcher struct{}

func (replSearcher) Search(ctx context.Context, query string) (json.RawMessage, error) {
	return json.RawMessage(`[{"product_name":"Trail Tent","price_str":"$149"}]`), nil
}

func TestRunREPL(t *testing.T) {
	ctx := context.Background()
	sessions := core.NewSessions(store.NewMemoryKV(), replSearcher{}, nil, 2, 0)
	svc := sessions.Get(ctx, localOwner)

	in := strings.NewReader("tent under $200\n/new\n/list\n/switch nope\n/quit\n")
	var out bytes.Buffer
	require.NoError(t, runREPL(ctx, svc, in, &out))

	text := out.String()
	assert.Contains(t, text, core.GreetingText)
	assert.Contains(t, text, "I found 1 products")
	assert.Contains(t, text, "1. Trail Tent ($149)")
	assert.Contains(t, text, "Shopping for tent under $200")
	assert.Contains(t, text, `no saved conversation "nope"`)

	assert.Len(t, svc.Repository().ListAll(), 1)
	assert.True(t, svc.Repository().IsTemporary())
}

func TestRunREPL_SwitchNeedsExactCommand(t *testing.T) {
	ctx := context.Background()
	sessions := core.NewSessions(store.NewMemoryKV(), replSearcher{}, nil, 2, 0)
	svc := sessions.Get(ctx, localOwner)

	in := strings.NewReader("/switchabc\n/switch\n/switch a b\n/quit\n")
	var out bytes.Buffer
	require.NoError(t, runREPL(ctx, svc, in, &out))

	text := out.String()
	assert.Contains(t, text, `unknown command "/switchabc"`)
	assert.Equal(t, 2, strings.Count(text, "usage: /switch <id>"))
	assert.True(t, svc.Repository().IsTemporary())
	assert.Equal(t, 0, svc.Repository().Active().UserMessageCount())
}

func TestChatConfig_DefaultsToMemoryStore(t *testing.T) {
	t.Setenv("STORE_BACKEND", "")
	require.NoError(t, os.Unsetenv("STORE_BACKEND"))

	cfg := config.Config{StoreBackend: "sqlite"}
	assert.Equal(t, "memory", chatConfig(cfg).StoreBackend)

	t.Setenv("STORE_BACKEND", "bolt")
	cfg.StoreBackend = "bolt"
	assert.Equal(t, "bolt", chatConfig(cfg).StoreBackend)

	require.NoError(t, os.Unsetenv("STORE_BACKEND"))
	storeBackend = "redis"
	t.Cleanup(func() { storeBackend = "" })
	cfg.StoreBackend = "redis"
	assert.Equal(t, "redis", chatConfig(cfg).StoreBackend)
}
