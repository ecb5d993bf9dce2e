package resolver

import (
	"context"

	"github.com/liamashdown/resolvewatch/internal/market"
)

// Result is a resolver's decision plus provenance
type Result struct {
	Submission       market.Submission
	ModelUsed        string
	PromptTokens     *int64
	CompletionTokens *int64
}

// Resolver inspects a market and proposes an outcome. Failures should be
// *market.ResolutionError values carrying one of the ErrResolver* codes.
type Resolver interface {
	Resolve(ctx context.Context, m market.Market) (*Result, error)
}

// Func adapts a function to the Resolver interface
type Func func(ctx context.Context, m market.Market) (*Result, error)

// Resolve calls f
func (f Func) Resolve(ctx context.Context, m market.Market) (*Result, error) {
	return f(ctx, m)
}
