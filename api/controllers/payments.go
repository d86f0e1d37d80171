package controllers

import (
	"net/http"
	"time"

	"github.com/hardcastle/ledger-direct-backend/api/responses"
	"github.com/hardcastle/ledger-direct-backend/api/validators"
	"github.com/hardcastle/ledger-direct-backend/internal/quotes"
	"github.com/hardcastle/ledger-direct-backend/pkg/enums"
	pkgerrors "github.com/hardcastle/ledger-direct-backend/pkg/errors"
	"github.com/hardcastle/ledger-direct-backend/pkg/logger"
	"github.com/hardcastle/ledger-direct-backend/pkg/xrpl"
)

type createQuoteRequest struct {
	PaymentType string `json:"payment_type" validate:"required,oneof=xrp token rlusd usdc"`
}

type amountResponse struct {
	Kind     string `json:"kind"`
	Value    string `json:"value"`
	Currency string `json:"currency,omitempty"`
	Issuer   string `json:"issuer,omitempty"`
}

type quoteResponse struct {
	Chain              string          `json:"chain"`
	Network            string          `json:"network"`
	Type               string          `json:"type"`
	DestinationAccount string          `json:"destination_account"`
	DestinationTag     uint32          `json:"destination_tag"`
	Pairing            string          `json:"pairing"`
	ExchangeRate       string          `json:"exchange_rate"`
	AmountRequested    amountResponse  `json:"amount_requested"`
	ExpiresAt          time.Time       `json:"expires_at"`
	PageTitle          string          `json:"page_title,omitempty"`
	Hash               string          `json:"hash,omitempty"`
	CTID               string          `json:"ctid,omitempty"`
	DeliveredAmount    *amountResponse `json:"delivered_amount,omitempty"`
}

type paymentStatusResponse struct {
	Verdict string        `json:"verdict"`
	Expired bool          `json:"expired"`
	Quote   quoteResponse `json:"quote"`
}

func toAmountResponse(amount xrpl.Amount) amountResponse {
	return amountResponse{
		Kind:     string(amount.Kind),
		Value:    amount.Value.String(),
		Currency: amount.Currency,
		Issuer:   amount.Issuer,
	}
}

func toQuoteResponse(quote *quotes.Quote) quoteResponse {
	resp := quoteResponse{
		Chain:              quote.Chain,
		Network:            quote.Network.String(),
		Type:               quote.Type.String(),
		DestinationAccount: quote.DestinationAccount,
		DestinationTag:     quote.DestinationTag,
		Pairing:            quote.Pairing,
		ExchangeRate:       quote.ExchangeRate.String(),
		AmountRequested:    toAmountResponse(quote.AmountRequested),
		ExpiresAt:          quote.ExpiresAt,
		PageTitle:          quote.PageTitle,
		Hash:               quote.Hash,
		CTID:               quote.CTID,
	}
	if quote.DeliveredAmount != nil {
		delivered := toAmountResponse(*quote.DeliveredAmount)
		resp.DeliveredAmount = &delivered
	}
	return resp
}

// CreateQuote strikes a payment quote for an order.
func CreateQuote(svc quotes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		orderID, err := validators.ParseUUIDParam(r, "orderID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var req createQuoteRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		paymentType, err := enums.ParsePaymentType(req.PaymentType)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment type"))
			return
		}

		quote, err := svc.CreateQuote(ctx, orderID, paymentType)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, toQuoteResponse(quote))
	}
}

// GetQuote returns the quote stored on an order.
func GetQuote(svc quotes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		orderID, err := validators.ParseUUIDParam(r, "orderID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		quote, err := svc.GetQuote(ctx, orderID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, toQuoteResponse(quote))
	}
}

// CheckPayment reconciles an order's quote against the ledger and reports
// the outcome.
func CheckPayment(svc quotes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		orderID, err := validators.ParseUUIDParam(r, "orderID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		status, err := svc.CheckPayment(ctx, orderID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, paymentStatusResponse{
			Verdict: status.Verdict.String(),
			Expired: status.Expired,
			Quote:   toQuoteResponse(status.Quote),
		})
	}
}
