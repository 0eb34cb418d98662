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

// Generator produces short texts for titles and product blurbs.
type Generator interface {
	GenerateTitle(ctx context.Context, message string) (string, error)
	GenerateDescription(ctx context.Context, message string, product store.Product) (string, error)
}

const GenerateTypeDescription = "description"

// GenerateRequest is the generation endpoint's body. An empty Type asks for a
// title.
type GenerateRequest struct {
	Message string        `json:"message"`
	Product store.Product `json:"product,omitempty"`
	Type    string        `json:"type,omitempty"`
}

type GenerateResponse struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Error       string  `json:"error,omitempty"`
}

// RemoteGenerator calls an HTTP generation endpoint. Any non-2xx status is a
// failure of the whole call.
type RemoteGenerator struct {
	url    string
	client *http.Client
}

func NewRemoteGenerator(url string, timeout time.Duration) *RemoteGenerator {
	return &RemoteGenerator{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

func (g *RemoteGenerator) GenerateTitle(ctx context.Context, message string) (string, error) {
	resp, err := g.call(ctx, GenerateRequest{Message: message})
	if err != nil {
		return "", err
	}
	if resp.Title == nil {
		return "", nil
	}
	return *resp.Title, nil
}

func (g *RemoteGenerator) GenerateDescription(ctx context.Context, message string, product store.Product) (string, error) {
	resp, err := g.call(ctx, GenerateRequest{Message: message, Product: product, Type: GenerateTypeDescription})
	if err != nil {
		return "", err
	}
	if resp.Description == nil || *resp.Description == "" {
		return "", errors.New("generation endpoint returned no description")
	}
	return *resp.Description, nil
}

func (g *RemoteGenerator) call(ctx context.Context, body GenerateRequest) (*GenerateResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal generation request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(payload))
	if err != nil {
		return nil, errors.Wrap(err, "failed to build generation request")
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := g.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "generation request failed")
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, res.Body)
		return nil, errors.Errorf("generation endpoint returned status %d", res.StatusCode)
	}

	var out GenerateResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, errors.Wrap(err, "failed to decode generation response")
	}
	return &out, nil
}
