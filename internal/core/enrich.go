package core

import (
	"context"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"gwi.com/wishlist-assistant/internal/store"
)

// EnrichResult pairs an enriched product with the error its description
// call produced, if any.
type EnrichResult struct {
	Product store.Product
	Err     error
}

// EnrichProducts asks g for a description of every product concurrently and
// returns results in input order. A failed item keeps its original fields.
func EnrichProducts(ctx context.Context, g Generator, products []store.Product, limit int) []EnrichResult {
	results := make([]EnrichResult, len(products))
	if g == nil {
		for i, p := range products {
			results[i] = EnrichResult{Product: p}
		}
		return results
	}

	var eg errgroup.Group
	if limit > 0 {
		eg.SetLimit(limit)
	}
	for i, p := range products {
		i, p := i, p
		eg.Go(func() error {
			desc, err := g.GenerateDescription(ctx, p.Name(), p)
			if err != nil {
				results[i] = EnrichResult{Product: p, Err: err}
				return nil
			}
			results[i] = EnrichResult{Product: p.WithDescription(desc)}
			return nil
		})
	}
	_ = eg.Wait() // workers capture their own errors

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	if failed > 0 {
		log.Warn().Int("failed", failed).Int("total", len(products)).Msg("Some product descriptions could not be generated")
	}
	return results
}

func enrichedProducts(results []EnrichResult) []store.Product {
	out := make([]store.Product, len(results))
	for i, r := range results {
		out[i] = r.Product
	}
	return out
}
