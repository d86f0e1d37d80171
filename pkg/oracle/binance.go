package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const binanceDefaultBaseURL = "https://api.binance.com"

// Binance reads spot prices from the public Binance ticker API.
type Binance struct {
	httpClient *http.Client
	baseURL    string
}

// NewBinance builds a Binance feed client.
func NewBinance(baseURL string, httpClient *http.Client) *Binance {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = binanceDefaultBaseURL
	}
	if httpClient == nil {
		httpClient = defaultHTTPClient()
	}
	return &Binance{httpClient: httpClient, baseURL: strings.TrimRight(baseURL, "/")}
}

// Name implements Oracle.
func (b *Binance) Name() string {
	return "binance"
}

type binanceTickerResponse struct {
	Symbol string `json:"symbol"`
	Price  string `json:"price"`
}

// PairPrice implements Oracle. Binance has no fiat USD market, so USD quotes
// map to the USDT pair.
func (b *Binance) PairPrice(ctx context.Context, baseCode, quoteCode string) (float64, error) {
	quote := strings.ToUpper(quoteCode)
	if quote == "USD" {
		quote = "USDT"
	}
	symbol := strings.ToUpper(baseCode) + quote

	endpoint := fmt.Sprintf("%s/api/v3/ticker/price?symbol=%s", b.baseURL, url.QueryEscape(symbol))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, fmt.Errorf("building binance request: %w", err)
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("calling binance: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusNotFound {
		return 0, ErrPairNotListed{Feed: b.Name(), Base: baseCode, Quote: quoteCode}
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("binance returned status %d", resp.StatusCode)
	}

	var ticker binanceTickerResponse
	if err := json.NewDecoder(resp.Body).Decode(&ticker); err != nil {
		return 0, fmt.Errorf("decoding binance response: %w", err)
	}

	price, err := strconv.ParseFloat(ticker.Price, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing binance price %q: %w", ticker.Price, err)
	}
	return price, nil
}
