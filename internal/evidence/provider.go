package evidence

import (
	"context"
	"errors"

	"github.com/ppiankov/watchdog/internal/model"
)

// Provider retrieves evidence documents relevant to a query
type Provider interface {
	Retrieve(ctx context.Context, query string, k int) ([]model.Document, error)
}

// Multi merges several providers and re-ranks the union
type Multi []Provider

// Retrieve queries every provider. Partial failures are returned joined
// alongside whatever documents were found.
func (m Multi) Retrieve(ctx context.Context, query string, k int) ([]model.Document, error) {
	var all []model.Document
	var errs []error
	for _, p := range m {
		docs, err := p.Retrieve(ctx, query, 0)
		if err != nil {
			errs = append(errs, err)
		}
		all = append(all, docs...)
	}
	return Rank(query, all, k), errors.Join(errs...)
}

// None is a provider with no documents
type None struct{}

func (None) Retrieve(context.Context, string, int) ([]model.Document, error) {
	return nil, nil
}
