package core

import (
	"fmt"
	"strings"

	"gwi.com/wishlist-assistant/internal/store"
)

const (
	titleSystemInstruction = "You are a helpful assistant that names shopping conversations. " +
		"The title should be 4-5 words maximum. Just return the title itself, nothing else."

	descriptionSystemInstruction = "You are a friendly shopping assistant. Describe products in two short sentences " +
		"for a shopper deciding what to buy. Only use the facts you are given. Do not invent prices or features."
)

func buildTitlePrompt(message string) string {
	return fmt.Sprintf("Generate a short, descriptive title (maximum 4-5 words) for a shopping conversation that starts with this user message: \"%s\"\n\nTitle:", message)
}

func buildDescriptionPrompt(message string, p store.Product) string {
	var b strings.Builder
	b.WriteString("Write a short description for this product.\n\n")
	name := p.Name()
	if name == "" {
		name = message
	}
	fmt.Fprintf(&b, "Name: %s\n", name)
	if v := p.Category(); v != "" {
		fmt.Fprintf(&b, "Category: %s\n", v)
	}
	if v := p.Price(); v != "" {
		fmt.Fprintf(&b, "Price: %s\n", v)
	}
	if v := p.PriceRange(); v != "" {
		fmt.Fprintf(&b, "Price range: %s\n", v)
	}
	if v := p.SiteName(); v != "" {
		fmt.Fprintf(&b, "Sold by: %s\n", v)
	}
	if r := p.Rating(); r > 0 {
		fmt.Fprintf(&b, "Rating: %.1f (%d reviews)\n", r, p.ReviewCount())
	}
	if v := p.Summary(); v != "" {
		fmt.Fprintf(&b, "Listing text: %s\n", v)
	}
	b.WriteString("\nDescription:")
	return b.String()
}

// cleanGenerated strips quoting and trailing punctuation models like to add.
func cleanGenerated(s string) string {
	return strings.Trim(s, "\"'\n\r\t .")
}
