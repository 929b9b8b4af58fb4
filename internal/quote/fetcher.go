package quote

import (
	"context"

	"CarrySentinel/internal/model"
)

// Fetcher retrieves the current exchange rate (local currency per USD).
// A fetch failure is a collaborator error: the caller must abort that
// cycle's computations rather than proceed with a stale or default rate.
type Fetcher interface {
	Fetch(ctx context.Context) (model.Quote, error)
	Name() string
}

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Quote model.Quote
	Err   error
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) Fetch(_ context.Context) (model.Quote, error) {
	if m.Err != nil {
		return model.Quote{}, m.Err
	}
	return m.Quote, nil
}
