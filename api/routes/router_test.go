package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/hardcastle/ledger-direct-backend/internal/orders"
	"github.com/hardcastle/ledger-direct-backend/internal/quotes"
	"github.com/hardcastle/ledger-direct-backend/pkg/config"
	"github.com/hardcastle/ledger-direct-backend/pkg/db/models"
	"github.com/hardcastle/ledger-direct-backend/pkg/enums"
	pkgerrors "github.com/hardcastle/ledger-direct-backend/pkg/errors"
	"github.com/hardcastle/ledger-direct-backend/pkg/logger"
	"github.com/hardcastle/ledger-direct-backend/pkg/xrpl"
)

type fakeOrderService struct {
	rows map[uuid.UUID]*models.Order
}

func newFakeOrderService() *fakeOrderService {
	return &fakeOrderService{rows: map[uuid.UUID]*models.Order{}}
}

func (f *fakeOrderService) Create(ctx context.Context, params orders.CreateParams) (*models.Order, error) {
	if !params.TotalAmount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "total amount must be positive")
	}
	order := &models.Order{
		ID:          uuid.New(),
		TotalAmount: params.TotalAmount,
		Currency:    params.Currency,
		Status:      enums.OrderStatusPending,
		CreatedAt:   time.Now(),
	}
	f.rows[order.ID] = order
	return order, nil
}

func (f *fakeOrderService) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, ok := f.rows[id]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

func (f *fakeOrderService) SetPaymentMeta(ctx context.Context, id uuid.UUID, meta json.RawMessage) error {
	return nil
}

func (f *fakeOrderService) MarkPaid(ctx context.Context, id uuid.UUID) error {
	return nil
}

func (f *fakeOrderService) ListAwaitingPayment(ctx context.Context, limit int) ([]*models.Order, error) {
	return nil, nil
}

type fakeQuoteService struct {
	quote  *quotes.Quote
	status *quotes.PaymentStatus
	err    error
}

func (f *fakeQuoteService) CreateQuote(ctx context.Context, orderID uuid.UUID, paymentType enums.PaymentType) (*quotes.Quote, error) {
	return f.quote, f.err
}

func (f *fakeQuoteService) GetQuote(ctx context.Context, orderID uuid.UUID) (*quotes.Quote, error) {
	return f.quote, f.err
}

func (f *fakeQuoteService) CheckPayment(ctx context.Context, orderID uuid.UUID) (*quotes.PaymentStatus, error) {
	return f.status, f.err
}

func testQuote() *quotes.Quote {
	return &quotes.Quote{
		Chain:              "XRPL",
		Network:            enums.NetworkTestnet,
		Version:            1,
		Type:               enums.PaymentTypeXRP,
		DestinationAccount: "rMerchant",
		DestinationTag:     20001,
		Pairing:            "XRP/USD",
		ExchangeRate:       decimal.RequireFromString("0.5"),
		AmountRequested:    xrpl.NewNativeAmount(decimal.NewFromInt(200)),
		ExpiresAt:          time.Now().Add(15 * time.Minute),
	}
}

func newTestRouter(ordersSvc orders.Service, quotesSvc quotes.Service) http.Handler {
	return NewRouter(RouterParams{
		Config: &config.Config{},
		Logger: logger.New(logger.Options{ServiceName: "test", Level: zerolog.Disabled}),
		Orders: ordersSvc,
		Quotes: quotesSvc,
	})
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&reader).Encode(body); err != nil {
			t.Fatalf("encoding body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthLive(t *testing.T) {
	router := newTestRouter(newFakeOrderService(), &fakeQuoteService{})

	rec := doJSON(t, router, http.MethodGet, "/health/live", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
}

func TestCreateOrderEndpoint(t *testing.T) {
	router := newTestRouter(newFakeOrderService(), &fakeQuoteService{})

	rec := doJSON(t, router, http.MethodPost, "/api/v1/orders",
		map[string]string{"total_amount": "99.90", "currency": "USD"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body)
	}

	var envelope struct {
		Data struct {
			ID          string `json:"id"`
			TotalAmount string `json:"total_amount"`
			Status      string `json:"status"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if envelope.Data.Status != "pending" || envelope.Data.TotalAmount != "99.9" {
		t.Fatalf("unexpected payload: %+v", envelope.Data)
	}
}

func TestCreateOrderRejectsBadBody(t *testing.T) {
	router := newTestRouter(newFakeOrderService(), &fakeQuoteService{})

	rec := doJSON(t, router, http.MethodPost, "/api/v1/orders",
		map[string]string{"total_amount": "not-a-number", "currency": "USD"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body)
	}
}

func TestGetOrderNotFound(t *testing.T) {
	router := newTestRouter(newFakeOrderService(), &fakeQuoteService{})

	rec := doJSON(t, router, http.MethodGet, "/api/v1/orders/"+uuid.NewString(), nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unexpected status %d", rec.Code)
	}
}

func TestGetOrderRejectsMalformedID(t *testing.T) {
	router := newTestRouter(newFakeOrderService(), &fakeQuoteService{})

	rec := doJSON(t, router, http.MethodGet, "/api/v1/orders/not-a-uuid", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status %d", rec.Code)
	}
}

func TestCreateQuoteEndpoint(t *testing.T) {
	router := newTestRouter(newFakeOrderService(), &fakeQuoteService{quote: testQuote()})

	rec := doJSON(t, router, http.MethodPost, "/api/v1/orders/"+uuid.NewString()+"/quote",
		map[string]string{"payment_type": "xrp"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body)
	}

	var envelope struct {
		Data struct {
			DestinationTag  uint32 `json:"destination_tag"`
			Pairing         string `json:"pairing"`
			AmountRequested struct {
				Kind  string `json:"kind"`
				Value string `json:"value"`
			} `json:"amount_requested"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if envelope.Data.DestinationTag != 20001 || envelope.Data.AmountRequested.Value != "200" {
		t.Fatalf("unexpected payload: %+v", envelope.Data)
	}
}

func TestCreateQuoteRejectsUnknownPaymentType(t *testing.T) {
	router := newTestRouter(newFakeOrderService(), &fakeQuoteService{quote: testQuote()})

	rec := doJSON(t, router, http.MethodPost, "/api/v1/orders/"+uuid.NewString()+"/quote",
		map[string]string{"payment_type": "doge"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body)
	}
}

func TestCheckPaymentEndpoint(t *testing.T) {
	quote := testQuote()
	quote.Hash = "ABC123"
	quote.CTID = "C000006400010000"
	router := newTestRouter(newFakeOrderService(), &fakeQuoteService{
		status: &quotes.PaymentStatus{Verdict: enums.PaymentVerdictPaid, Quote: quote},
	})

	rec := doJSON(t, router, http.MethodPost, "/api/v1/orders/"+uuid.NewString()+"/payment-check", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body)
	}

	var envelope struct {
		Data struct {
			Verdict string `json:"verdict"`
			Quote   struct {
				Hash string `json:"hash"`
				CTID string `json:"ctid"`
			} `json:"quote"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if envelope.Data.Verdict != "paid" || envelope.Data.Quote.Hash != "ABC123" {
		t.Fatalf("unexpected payload: %+v", envelope.Data)
	}
}

func TestQuoteConfigurationErrorSurfaces(t *testing.T) {
	router := newTestRouter(newFakeOrderService(), &fakeQuoteService{
		err: pkgerrors.New(pkgerrors.CodeConfiguration, "payment type usdc is not enabled"),
	})

	rec := doJSON(t, router, http.MethodPost, "/api/v1/orders/"+uuid.NewString()+"/quote",
		map[string]string{"payment_type": "usdc"})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body)
	}

	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if envelope.Error.Code != "CONFIGURATION_MISSING" {
		t.Fatalf("unexpected error code %q", envelope.Error.Code)
	}
}
