package price

import (
	"context"
	"net/http"
	"time"

	"github.com/coinpaprika/coinpaprika-api-go-client/v2/coinpaprika"
	"github.com/pkg/errors"
)

// DefaultCoinID is the CoinPaprika identifier of Bitcoin
const DefaultCoinID = "btc-bitcoin"

// Coinpaprika fetches prices through the CoinPaprika tickers API
type Coinpaprika struct {
	coinID string
	client *coinpaprika.Client
}

// NewCoinpaprika creates a CoinPaprika backed source. httpClient may be nil.
func NewCoinpaprika(coinID, apiProKey string, httpClient *http.Client, timeout time.Duration) *Coinpaprika {
	if coinID == "" {
		coinID = DefaultCoinID
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}

	var client *coinpaprika.Client
	if apiProKey != "" {
		client = coinpaprika.NewClient(httpClient, coinpaprika.WithAPIKey(apiProKey))
	} else {
		client = coinpaprika.NewClient(httpClient)
	}

	return &Coinpaprika{coinID: coinID, client: client}
}

// Fetch retrieves the current USD price of the configured coin.
// The CoinPaprika client does not take a context; cancellation is bounded by the http client timeout.
func (c *Coinpaprika) Fetch(_ context.Context) (float64, error) {
	ticker, err := c.client.Tickers.GetByID(c.coinID, &coinpaprika.TickersOptions{Quotes: "USD"})
	if err != nil {
		return 0, errors.Wrapf(err, "could not fetch ticker %s", c.coinID)
	}

	quote, ok := ticker.Quotes["USD"]
	if !ok || quote.Price == nil {
		return 0, errors.Errorf("ticker %s has no USD price", c.coinID)
	}

	return validate(*quote.Price)
}
