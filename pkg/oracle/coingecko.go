package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const coingeckoDefaultBaseURL = "https://api.coingecko.com"

// coingeckoIDs maps ledger asset codes to Coingecko coin ids.
var coingeckoIDs = map[string]string{
	"XRP":   "ripple",
	"RLUSD": "ripple-usd",
	"USDC":  "usd-coin",
}

// Coingecko reads spot prices from the Coingecko simple-price API.
type Coingecko struct {
	httpClient *http.Client
	baseURL    string
}

// NewCoingecko builds a Coingecko feed client.
func NewCoingecko(baseURL string, httpClient *http.Client) *Coingecko {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = coingeckoDefaultBaseURL
	}
	if httpClient == nil {
		httpClient = defaultHTTPClient()
	}
	return &Coingecko{httpClient: httpClient, baseURL: strings.TrimRight(baseURL, "/")}
}

// Name implements Oracle.
func (c *Coingecko) Name() string {
	return "coingecko"
}

// PairPrice implements Oracle.
func (c *Coingecko) PairPrice(ctx context.Context, baseCode, quoteCode string) (float64, error) {
	coinID, ok := coingeckoIDs[strings.ToUpper(baseCode)]
	if !ok {
		return 0, ErrPairNotListed{Feed: c.Name(), Base: baseCode, Quote: quoteCode}
	}
	vsCurrency := strings.ToLower(quoteCode)

	endpoint := fmt.Sprintf(
		"%s/api/v3/simple/price?ids=%s&vs_currencies=%s",
		c.baseURL, url.QueryEscape(coinID), url.QueryEscape(vsCurrency),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, fmt.Errorf("building coingecko request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("calling coingecko: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("coingecko returned status %d", resp.StatusCode)
	}

	var payload map[string]map[string]float64
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, fmt.Errorf("decoding coingecko response: %w", err)
	}

	prices, ok := payload[coinID]
	if !ok {
		return 0, ErrPairNotListed{Feed: c.Name(), Base: baseCode, Quote: quoteCode}
	}
	price, ok := prices[vsCurrency]
	if !ok {
		return 0, ErrPairNotListed{Feed: c.Name(), Base: baseCode, Quote: quoteCode}
	}
	return price, nil
}
