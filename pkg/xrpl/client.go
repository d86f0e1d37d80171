package xrpl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/hardcastle/ledger-direct-backend/pkg/enums"
	pkgerrors "github.com/hardcastle/ledger-direct-backend/pkg/errors"
)

const (
	defaultTimeout        = 10 * time.Second
	responseBodyReadLimit = 8 << 20
	fetchRetryAttempts    = 3
)

// Client talks to an XRP Ledger JSON-RPC endpoint. It only implements the
// account_tx surface the reconciliation engine consumes.
type Client struct {
	httpClient *http.Client
	baseURL    string
	network    enums.Network
	info       NetworkInfo
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the network's default JSON-RPC endpoint.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// NewClient builds a ledger-query client for the given network.
func NewClient(network enums.Network, opts ...Option) (*Client, error) {
	if !network.IsValid() {
		return nil, fmt.Errorf("invalid network %q", network)
	}

	info := NetworkFor(network)
	client := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    info.JSONRPCURL,
		network:    network,
		info:       info,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: defaultTimeout}
	}

	return client, nil
}

// Network returns the network this client is bound to.
func (c *Client) Network() enums.Network {
	return c.network
}

// NetworkID returns the chain id used for CTID derivation.
func (c *Client) NetworkID() uint16 {
	return c.info.ID
}

// TxPayload is the subset of transaction fields the engine reads.
type TxPayload struct {
	Hash            string  `json:"hash"`
	LedgerIndex     uint32  `json:"ledger_index"`
	Account         string  `json:"Account"`
	Destination     string  `json:"Destination"`
	DestinationTag  *uint32 `json:"DestinationTag"`
	TransactionType string  `json:"TransactionType"`
	Date            int64   `json:"date"`
}

// TxMeta is the subset of transaction metadata the engine reads.
type TxMeta struct {
	TransactionIndex  uint16          `json:"TransactionIndex"`
	TransactionResult string          `json:"TransactionResult"`
	DeliveredAmount   json.RawMessage `json:"delivered_amount"`
}

// AccountTransaction is one entry of an account_tx page. The raw blobs are
// retained verbatim for persistence.
type AccountTransaction struct {
	Tx        TxPayload
	Meta      TxMeta
	RawTx     json.RawMessage
	RawMeta   json.RawMessage
	Validated bool
}

// UnmarshalJSON decodes the typed views and keeps the raw tx/meta blobs.
func (t *AccountTransaction) UnmarshalJSON(data []byte) error {
	var wire struct {
		Tx        json.RawMessage `json:"tx"`
		Meta      json.RawMessage `json:"meta"`
		Validated bool            `json:"validated"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	if err := json.Unmarshal(wire.Tx, &t.Tx); err != nil {
		return fmt.Errorf("decoding tx: %w", err)
	}
	if err := json.Unmarshal(wire.Meta, &t.Meta); err != nil {
		return fmt.Errorf("decoding meta: %w", err)
	}
	t.RawTx = wire.Tx
	t.RawMeta = wire.Meta
	t.Validated = wire.Validated
	return nil
}

// AccountTxPage is one page of an account's transaction history. A non-nil
// Marker means more pages remain.
type AccountTxPage struct {
	Transactions []AccountTransaction
	Marker       json.RawMessage
}

type accountTxParams struct {
	Account        string          `json:"account"`
	LedgerIndexMin int64           `json:"ledger_index_min"`
	LedgerIndexMax int64           `json:"ledger_index_max"`
	Forward        bool            `json:"forward"`
	Marker         json.RawMessage `json:"marker,omitempty"`
}

type jsonRPCRequest struct {
	Method string `json:"method"`
	Params []any  `json:"params"`
}

type accountTxResult struct {
	Status       string               `json:"status"`
	ErrorCode    string               `json:"error"`
	ErrorMessage string               `json:"error_message"`
	Transactions []AccountTransaction `json:"transactions"`
	Marker       json.RawMessage      `json:"marker"`
}

// FetchAccountTransactions requests one page of transactions addressed to or
// from account, starting after sinceLedgerIndex (-1 for the full history).
// Pass the previous page's marker to continue a drain.
func (c *Client) FetchAccountTransactions(ctx context.Context, account string, sinceLedgerIndex int64, marker json.RawMessage) (*AccountTxPage, error) {
	if account == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "account is required")
	}

	params := accountTxParams{
		Account:        account,
		LedgerIndexMin: sinceLedgerIndex,
		LedgerIndexMax: -1,
		Forward:        true,
		Marker:         marker,
	}

	var page *AccountTxPage
	backoff := retry.WithMaxRetries(fetchRetryAttempts-1, retry.NewExponential(250*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		result, err := c.doAccountTx(ctx, params)
		if err != nil {
			return retry.RetryableError(err)
		}
		page = result
		return nil
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetching account transactions")
	}
	return page, nil
}

func (c *Client) doAccountTx(ctx context.Context, params accountTxParams) (*AccountTxPage, error) {
	body, err := json.Marshal(jsonRPCRequest{Method: "account_tx", Params: []any{params}})
	if err != nil {
		return nil, fmt.Errorf("encoding account_tx request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building account_tx request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("account_tx returned status %d", resp.StatusCode)
	}

	payload, err := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
	if err != nil {
		return nil, fmt.Errorf("reading account_tx response: %w", err)
	}

	var envelope struct {
		Result accountTxResult `json:"result"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return nil, fmt.Errorf("decoding account_tx response: %w", err)
	}

	result := envelope.Result
	if result.Status == "error" || result.ErrorCode != "" {
		return nil, fmt.Errorf("account_tx error %s: %s", result.ErrorCode, result.ErrorMessage)
	}

	return &AccountTxPage{
		Transactions: result.Transactions,
		Marker:       result.Marker,
	}, nil
}
