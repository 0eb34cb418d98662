package core

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"
)

const fallbackTitleWords = 4

// TitleAdapter names new conversations and never fails.
type TitleAdapter struct {
	generator Generator
}

func NewTitleAdapter(g Generator) *TitleAdapter {
	return &TitleAdapter{generator: g}
}

func (t *TitleAdapter) Generate(ctx context.Context, message string) string {
	if t.generator == nil {
		return FallbackTitle(message)
	}
	title, err := t.generator.GenerateTitle(ctx, message)
	if err != nil {
		log.Warn().Err(err).Msg("Title generation failed, using fallback")
		return FallbackTitle(message)
	}
	title = cleanGenerated(title)
	if title == "" {
		return "Shopping for " + truncateRunes(message, 30) + "..."
	}
	return title
}

// FallbackTitle keeps the first four words of message, marking truncation
// with an ellipsis.
func FallbackTitle(message string) string {
	words := strings.Fields(message)
	if len(words) <= fallbackTitleWords {
		return "Shopping for " + strings.Join(words, " ")
	}
	return "Shopping for " + strings.Join(words[:fallbackTitleWords], " ") + "..."
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
