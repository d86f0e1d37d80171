package controllers

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hardcastle/ledger-direct-backend/api/responses"
	"github.com/hardcastle/ledger-direct-backend/api/validators"
	"github.com/hardcastle/ledger-direct-backend/internal/orders"
	"github.com/hardcastle/ledger-direct-backend/pkg/db/models"
	pkgerrors "github.com/hardcastle/ledger-direct-backend/pkg/errors"
	"github.com/hardcastle/ledger-direct-backend/pkg/logger"
)

type createOrderRequest struct {
	TotalAmount string `json:"total_amount" validate:"required"`
	Currency    string `json:"currency" validate:"required,uppercase,min=3,max=5"`
}

type orderResponse struct {
	ID          string    `json:"id"`
	TotalAmount string    `json:"total_amount"`
	Currency    string    `json:"currency"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

func toOrderResponse(order *models.Order) orderResponse {
	return orderResponse{
		ID:          order.ID.String(),
		TotalAmount: order.TotalAmount.String(),
		Currency:    order.Currency,
		Status:      order.Status.String(),
		CreatedAt:   order.CreatedAt,
	}
}

// CreateOrder registers an order awaiting payment.
func CreateOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req createOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		total, err := decimal.NewFromString(req.TotalAmount)
		if err != nil {
			responses.WriteError(ctx, logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "total_amount must be a decimal number"))
			return
		}

		order, err := svc.Create(ctx, orders.CreateParams{
			TotalAmount: total,
			Currency:    req.Currency,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, toOrderResponse(order))
	}
}

// GetOrder returns a single order.
func GetOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id, err := validators.ParseUUIDParam(r, "orderID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		order, err := svc.Get(ctx, id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, toOrderResponse(order))
	}
}
