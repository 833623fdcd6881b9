package price

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

// DefaultMempoolURL is the public mempool.space price endpoint
const DefaultMempoolURL = "https://mempool.space/api/v1/prices"

// Source provides the current Bitcoin spot price in USD
type Source interface {
	Fetch(ctx context.Context) (float64, error)
}

// Mempool fetches prices from a mempool.space compatible endpoint
type Mempool struct {
	url    string
	client *http.Client
}

// NewMempool creates a mempool.space price source. An empty url selects DefaultMempoolURL.
func NewMempool(url string, timeout time.Duration) *Mempool {
	if url == "" {
		url = DefaultMempoolURL
	}
	return &Mempool{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

// Fetch retrieves the current USD price
func (m *Mempool) Fetch(ctx context.Context) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.url, nil)
	if err != nil {
		return 0, errors.Wrap(err, "could not create price request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return 0, errors.Wrap(err, "could not fetch bitcoin price")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, errors.Errorf("price feed returned status %d", resp.StatusCode)
	}

	var prices struct {
		USD *float64 `json:"USD"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&prices); err != nil {
		return 0, errors.Wrap(err, "could not parse price feed response")
	}
	if prices.USD == nil {
		return 0, errors.New("price feed response has no USD price")
	}

	return validate(*prices.USD)
}

func validate(p float64) (float64, error) {
	if math.IsNaN(p) || math.IsInf(p, 0) || p < 0 {
		return 0, errors.Errorf("invalid price value: %v", p)
	}
	return p, nil
}
