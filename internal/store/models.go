package store

import "encoding/json"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Conversation is the persisted unit. Timestamps are unix milliseconds.
type Conversation struct {
	ID        string    `json:"id"`
	Messages  []Message `json:"messages"`
	CreatedAt int64     `json:"createdAt"`
	UpdatedAt int64     `json:"updatedAt"`
	Title     *string   `json:"title,omitempty"` // Nullable until promotion
}

type Message struct {
	ID       string    `json:"id"`
	Role     string    `json:"role"` // "user" or "assistant"
	Content  string    `json:"content"`
	Products []Product `json:"products,omitempty"`
}

// Clone returns a deep enough copy that appends on the result never alias c.
func (c Conversation) Clone() Conversation {
	out := c
	out.Messages = make([]Message, len(c.Messages))
	copy(out.Messages, c.Messages)
	if c.Title != nil {
		t := *c.Title
		out.Title = &t
	}
	return out
}

// WithMessage returns a copy of c with msg appended and UpdatedAt set to now.
func (c Conversation) WithMessage(msg Message, now int64) Conversation {
	out := c.Clone()
	out.Messages = append(out.Messages, msg)
	out.UpdatedAt = now
	return out
}

// UserMessageCount counts messages with the user role.
func (c Conversation) UserMessageCount() int {
	n := 0
	for _, m := range c.Messages {
		if m.Role == RoleUser {
			n++
		}
	}
	return n
}

func (c Conversation) TitleOrEmpty() string {
	if c.Title == nil {
		return ""
	}
	return *c.Title
}

// Product is an externally sourced record passed through as-is.
type Product map[string]any

const DescriptionKey = "ai_description"

func (p Product) str(key string) string {
	if v, ok := p[key].(string); ok {
		return v
	}
	return ""
}

func (p Product) num(key string) float64 {
	switch v := p[key].(type) {
	case float64:
		return v
	case json.Number:
		f, _ := v.Float64()
		return f
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return 0
}

func (p Product) ImageURL() string    { return p.str("image_url") }
func (p Product) Name() string        { return p.str("product_name") }
func (p Product) Price() string       { return p.str("price_str") }
func (p Product) PriceRange() string  { return p.str("price_range") }
func (p Product) Category() string    { return p.str("category") }
func (p Product) SiteName() string    { return p.str("site_name") }
func (p Product) Rating() float64     { return p.num("rating") }
func (p Product) ReviewCount() int    { return int(p.num("review_count")) }
func (p Product) Summary() string     { return p.str("description") }
func (p Product) URL() string         { return p.str("product_url") }
func (p Product) Description() string { return p.str(DescriptionKey) }

// WithDescription returns a shallow copy carrying the generated description.
func (p Product) WithDescription(desc string) Product {
	out := make(Product, len(p)+1)
	for k, v := range p {
		out[k] = v
	}
	out[DescriptionKey] = desc
	return out
}
