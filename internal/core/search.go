package core

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"gwi.com/wishlist-assistant/internal/store"
)

// Searcher runs a free-text product query and returns the raw payload.
type Searcher interface {
	Search(ctx context.Context, query string) (json.RawMessage, error)
}

// Forwarder relays a caller-built search body as-is.
type Forwarder interface {
	Forward(ctx context.Context, body json.RawMessage) (json.RawMessage, error)
}

type SearchRequest struct {
	Query string `json:"query"`
}

// SearchClient posts queries to the product search backend.
type SearchClient struct {
	url    string
	client *http.Client
}

func NewSearchClient(url string, timeout time.Duration) *SearchClient {
	return &SearchClient{url: url, client: &http.Client{Timeout: timeout}}
}

func (c *SearchClient) Search(ctx context.Context, query string) (json.RawMessage, error) {
	payload, err := json.Marshal(SearchRequest{Query: query})
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal search request")
	}
	return c.Forward(ctx, payload)
}

// Forward posts body to the search backend unchanged and returns its JSON.
func (c *SearchClient) Forward(ctx context.Context, body json.RawMessage) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "failed to build search request")
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "search request failed")
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read search response")
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, errors.Errorf("search backend returned status %d", res.StatusCode)
	}
	if !json.Valid(data) {
		return nil, errors.New("search backend returned invalid JSON")
	}
	return json.RawMessage(data), nil
}

// productListKeys are probed in order when the payload is an object.
var productListKeys = []string{"products", "items", "results", "data"}

type payloadShape int

const (
	shapeOther payloadShape = iota
	shapeArray
	shapeObject
)

func shapeOf(raw []byte) payloadShape {
	for _, b := range raw {
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		case '[':
			return shapeArray
		case '{':
			return shapeObject
		default:
			return shapeOther
		}
	}
	return shapeOther
}

// DecodeProducts turns a search payload into products. A bare array is used
// as-is; an object yields the first array found under productListKeys;
// anything else is empty. Array entries that are not objects become empty
// products so the result keeps one product per entry.
func DecodeProducts(raw json.RawMessage) []store.Product {
	switch shapeOf(raw) {
	case shapeArray:
		return decodeProductArray(raw)
	case shapeObject:
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(raw, &fields); err != nil {
			return []store.Product{}
		}
		for _, key := range productListKeys {
			v, ok := fields[key]
			if !ok || shapeOf(v) != shapeArray {
				continue
			}
			return decodeProductArray(v)
		}
	}
	return []store.Product{}
}

func decodeProductArray(raw json.RawMessage) []store.Product {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return []store.Product{}
	}
	out := make([]store.Product, 0, len(items))
	for _, item := range items {
		p := store.Product{}
		if shapeOf(item) == shapeObject {
			_ = json.Unmarshal(item, &p)
		}
		out = append(out, p)
	}
	return out
}
