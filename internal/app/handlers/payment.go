package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/AshikurRahmanMunna/intertools-server/internal/service"
)

// CreatePaymentIntentRequest — тело POST /create-payment-intent
type CreatePaymentIntentRequest struct {
	Price float64 `json:"price" validate:"required,gt=0"`
}

// CreatePaymentIntentResponse — client secret для подтверждения оплаты на клиенте
type CreatePaymentIntentResponse struct {
	ClientSecret string `json:"clientSecret"`
}

// CreatePaymentIntentHandler обрабатывает POST /create-payment-intent.
func CreatePaymentIntentHandler(log *slog.Logger, paymentService service.PaymentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.CreatePaymentIntentHandler"
		logger := log.With(slog.String("op", op))

		var req CreatePaymentIntentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Error("invalid request: decoding error", slog.Any("error", err))
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}

		if err := validate.Struct(req); err != nil {
			logger.Error("invalid request: validation error", slog.Any("error", err))
			http.Error(w, "validation error", http.StatusBadRequest)
			return
		}

		clientSecret, err := paymentService.CreatePaymentIntent(r.Context(), req.Price)
		if err != nil {
			logger.Error("failed to create payment intent", slog.Any("error", err))
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, logger, CreatePaymentIntentResponse{ClientSecret: clientSecret})
	}
}
