package core

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func names(t *testing.T, raw string) []string {
	t.Helper()
	products := DecodeProducts(json.RawMessage(raw))
	require.NotNil(t, products)
	out := make([]string, 0, len(products))
	for _, p := range products {
		out = append(out, p.Name())
	}
	return out
}

func TestDecodeProducts(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want []string
	}{
		{"bare array", `[{"product_name":"A"},{"product_name":"B"}]`, []string{"A", "B"}},
		{"leading whitespace", " \n [{\"product_name\":\"A\"}]", []string{"A"}},
		{"empty array", `[]`, []string{}},
		{"products key", `{"products":[{"product_name":"P"}]}`, []string{"P"}},
		{"items key", `{"items":[{"product_name":"I"}]}`, []string{"I"}},
		{"results key", `{"results":[{"product_name":"R"}]}`, []string{"R"}},
		{"data key", `{"data":[{"product_name":"D"}]}`, []string{"D"}},
		{"products wins over results", `{"results":[{"product_name":"R"}],"products":[{"product_name":"P"}]}`, []string{"P"}},
		{"non-array candidate skipped", `{"products":{"product_name":"X"},"items":[{"product_name":"I"}]}`, []string{"I"}},
		{"null candidate skipped", `{"products":null,"data":[{"product_name":"D"}]}`, []string{"D"}},
		{"no known key", `{"hits":[{"product_name":"H"}]}`, []string{}},
		{"string payload", `"nothing"`, []string{}},
		{"number payload", `42`, []string{}},
		{"null payload", `null`, []string{}},
		{"invalid json", `{"products": [`, []string{}},
		{"non-object entries kept empty", `[{"product_name":"A"}, null, "B", {"product_name":"C"}]`, []string{"A", "", "", "C"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, names(t, tc.raw))
		})
	}
}

func TestDecodeProducts_PassesFieldsThrough(t *testing.T) {
	raw := `[{"product_name":"Tent","review_count":12,"extra":{"nested":true}}]`
	products := DecodeProducts(json.RawMessage(raw))
	require.Len(t, products, 1)
	assert.Equal(t, 12, products[0].ReviewCount())
	assert.Equal(t, map[string]any{"nested": true}, products[0]["extra"])
}

func TestSearchClient_Search(t *testing.T) {
	var got SearchRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[{"product_name":"Tent"}]}`))
	}))
	defer srv.Close()

	raw, err := NewSearchClient(srv.URL, 5*time.Second).Search(context.Background(), "tent under $200")
	require.NoError(t, err)
	assert.Equal(t, "tent under $200", got.Query)
	assert.Len(t, DecodeProducts(raw), 1)
}

func TestSearchClient_ForwardSendsBodyUnchanged(t *testing.T) {
	var got []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = io.ReadAll(r.Body)
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	body := json.RawMessage(`{"query":"tent","limit":5,"filters":{"max_price":200}}`)
	raw, err := NewSearchClient(srv.URL, 5*time.Second).Forward(context.Background(), body)
	require.NoError(t, err)
	assert.JSONEq(t, string(body), string(got))
	assert.JSONEq(t, `[]`, string(raw))
}

func TestSearchClient_Non2xxIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"boom"}`, http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewSearchClient(srv.URL, 5*time.Second).Search(context.Background(), "tent")
	assert.Error(t, err)
}

func TestSearchClient_InvalidJSONIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>`))
	}))
	defer srv.Close()

	_, err := NewSearchClient(srv.URL, 5*time.Second).Search(context.Background(), "tent")
	assert.Error(t, err)
}

func TestSearchClient_TransportErrorIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewSearchClient(url, time.Second).Search(context.Background(), "tent")
	assert.Error(t, err)
}
