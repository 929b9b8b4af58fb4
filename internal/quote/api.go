package quote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"CarrySentinel/internal/model"
)

// APIFetcher implements Fetcher against a JSON rate endpoint. The
// default configuration targets the DolarApi MEP quote, reading the
// "venta" field and the provider's fechaActualizacion timestamp.
type APIFetcher struct {
	URL    string
	Field  string
	Client *http.Client
}

// NewAPIFetcher creates a fetcher with optional proxy support.
func NewAPIFetcher(apiURL, field, proxyURL string) *APIFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &APIFetcher{
		URL:   apiURL,
		Field: field,
		Client: &http.Client{
			Timeout:   20 * time.Second,
			Transport: transport,
		},
	}
}

func (f *APIFetcher) Name() string { return "api:" + f.URL }

// Fetch retrieves and validates the current rate. Anything short of a
// positive rate is an error: the engine never sees a bad quote.
func (f *APIFetcher) Fetch(ctx context.Context) (model.Quote, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", f.URL, nil)
	if err != nil {
		return model.Quote{}, fmt.Errorf("create quote request: %w", err)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return model.Quote{}, fmt.Errorf("fetch quote: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return model.Quote{}, fmt.Errorf("quote API error: status %d, body: %s", resp.StatusCode, string(body))
	}

	var payload map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return model.Quote{}, fmt.Errorf("decode quote response: %w", err)
	}

	raw, ok := payload[f.Field]
	if !ok {
		return model.Quote{}, fmt.Errorf("quote response missing field %q", f.Field)
	}
	rate, err := toRate(raw)
	if err != nil {
		return model.Quote{}, fmt.Errorf("quote field %q: %w", f.Field, err)
	}
	if rate <= 0 {
		return model.Quote{}, fmt.Errorf("quote field %q: non-positive rate %v", f.Field, rate)
	}

	q := model.Quote{Rate: rate}
	if ts, ok := payload["fechaActualizacion"].(string); ok {
		q.UpdatedAt = ts
	}
	return q, nil
}

func toRate(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case string:
		return strconv.ParseFloat(n, 64)
	default:
		return 0, fmt.Errorf("unexpected type %T", v)
	}
}
