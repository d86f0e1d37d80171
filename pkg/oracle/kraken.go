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

const krakenDefaultBaseURL = "https://api.kraken.com"

// Kraken reads spot prices from the public Kraken ticker API.
type Kraken struct {
	httpClient *http.Client
	baseURL    string
}

// NewKraken builds a Kraken feed client.
func NewKraken(baseURL string, httpClient *http.Client) *Kraken {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = krakenDefaultBaseURL
	}
	if httpClient == nil {
		httpClient = defaultHTTPClient()
	}
	return &Kraken{httpClient: httpClient, baseURL: strings.TrimRight(baseURL, "/")}
}

// Name implements Oracle.
func (k *Kraken) Name() string {
	return "kraken"
}

type krakenTickerResponse struct {
	Error  []string `json:"error"`
	Result map[string]struct {
		// c holds [last trade price, lot volume].
		Close []string `json:"c"`
	} `json:"result"`
}

// PairPrice implements Oracle. Kraken keys its result with its own pair
// aliases (e.g. XXRPZUSD for XRPUSD), so the single returned entry is read
// regardless of its key.
func (k *Kraken) PairPrice(ctx context.Context, baseCode, quoteCode string) (float64, error) {
	endpoint := fmt.Sprintf("%s/0/public/Ticker?pair=%s", k.baseURL, url.QueryEscape(baseCode+quoteCode))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, fmt.Errorf("building kraken request: %w", err)
	}

	resp, err := k.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("calling kraken: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("kraken returned status %d", resp.StatusCode)
	}

	var ticker krakenTickerResponse
	if err := json.NewDecoder(resp.Body).Decode(&ticker); err != nil {
		return 0, fmt.Errorf("decoding kraken response: %w", err)
	}
	if len(ticker.Error) > 0 {
		return 0, fmt.Errorf("kraken error: %s", strings.Join(ticker.Error, "; "))
	}

	for _, entry := range ticker.Result {
		if len(entry.Close) == 0 {
			continue
		}
		price, err := strconv.ParseFloat(entry.Close[0], 64)
		if err != nil {
			return 0, fmt.Errorf("parsing kraken price %q: %w", entry.Close[0], err)
		}
		return price, nil
	}

	return 0, ErrPairNotListed{Feed: k.Name(), Base: baseCode, Quote: quoteCode}
}
