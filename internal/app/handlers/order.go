package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/AshikurRahmanMunna/intertools-server/internal/service"
	"github.com/AshikurRahmanMunna/intertools-server/internal/storage"
	"github.com/AshikurRahmanMunna/intertools-server/internal/token/tokenmiddleware"
	"github.com/go-chi/chi/v5"
)

// CreateOrderRequest — тело POST /order. Email берётся из токена,
// количество на складе клиент не присылает.
type CreateOrderRequest struct {
	ToolID   int64 `json:"toolId" validate:"required"`
	Quantity int   `json:"quantity" validate:"required,gt=0"`
}

// UpdateOrderRequest — тело PUT /order/{id}
type UpdateOrderRequest struct {
	Quantity int `json:"quantity" validate:"required,gt=0"`
}

// RecordPaymentRequest — тело PATCH /order/{id}
type RecordPaymentRequest struct {
	TransactionID string `json:"transactionId" validate:"required"`
}

// CreateOrderHandler обрабатывает POST /order.
func CreateOrderHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.CreateOrderHandler"
		logger := log.With(slog.String("op", op))

		email, ok := tokenmiddleware.FromContext(r.Context())
		if !ok {
			logger.Error("email not found in context")
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req CreateOrderRequest
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

		order, err := orderService.PlaceOrder(r.Context(), email, req.ToolID, req.Quantity)
		if err != nil {
			writeOrderError(w, logger, err)
			return
		}

		writeJSON(w, logger, order)
	}
}

// ListOrdersHandler обрабатывает GET /order (только админ).
func ListOrdersHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ListOrdersHandler"
		logger := log.With(slog.String("op", op))

		orders, err := orderService.ListOrders(r.Context())
		if err != nil {
			logger.Error("failed to list orders", slog.Any("error", err))
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, logger, orders)
	}
}

// GetOrderByIDHandler обрабатывает GET /orderById/{id}.
func GetOrderByIDHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.GetOrderByIDHandler"
		logger := log.With(slog.String("op", op))

		id, ok := parseID(w, r)
		if !ok {
			return
		}

		order, err := orderService.GetOrderByID(r.Context(), id)
		if err != nil {
			writeOrderError(w, logger, err)
			return
		}

		writeJSON(w, logger, order)
	}
}

// GetOrdersByEmailHandler обрабатывает GET /order/{email}: только свои заказы.
func GetOrdersByEmailHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.GetOrdersByEmailHandler"
		logger := log.With(slog.String("op", op))

		email := chi.URLParam(r, "email")
		if !isSelf(w, r, email) {
			return
		}

		orders, err := orderService.GetOrdersByEmail(r.Context(), email)
		if err != nil {
			logger.Error("failed to get orders", slog.Any("error", err))
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, logger, orders)
	}
}

// UpdateOrderHandler обрабатывает PUT /order/{id}: меняет количество в заказе,
// склад корректируется на разницу.
func UpdateOrderHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.UpdateOrderHandler"
		logger := log.With(slog.String("op", op))

		id, ok := parseID(w, r)
		if !ok {
			return
		}

		var req UpdateOrderRequest
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

		order, err := orderService.ChangeQuantity(r.Context(), id, req.Quantity)
		if err != nil {
			writeOrderError(w, logger, err)
			return
		}

		writeJSON(w, logger, order)
	}
}

// RecordPaymentResponse — ответ PATCH /order/{id}
type RecordPaymentResponse struct {
	Message string `json:"message"`
}

// RecordPaymentHandler обрабатывает PATCH /order/{id}.
func RecordPaymentHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.RecordPaymentHandler"
		logger := log.With(slog.String("op", op))

		id, ok := parseID(w, r)
		if !ok {
			return
		}

		var req RecordPaymentRequest
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

		if err := orderService.RecordPayment(r.Context(), id, req.TransactionID); err != nil {
			writeOrderError(w, logger, err)
			return
		}

		writeJSON(w, logger, RecordPaymentResponse{Message: "payment recorded"})
	}
}

// DeleteOrderResponse — подтверждение удаления заказа
type DeleteOrderResponse struct {
	Deleted bool `json:"deleted"`
}

// DeleteOrderHandler обрабатывает DELETE /order/{id}.
func DeleteOrderHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.DeleteOrderHandler"
		logger := log.With(slog.String("op", op))

		id, ok := parseID(w, r)
		if !ok {
			return
		}

		if err := orderService.DeleteOrder(r.Context(), id); err != nil {
			writeOrderError(w, logger, err)
			return
		}

		writeJSON(w, logger, DeleteOrderResponse{Deleted: true})
	}
}

// writeOrderError переводит ошибки order workflow в HTTP-статусы.
func writeOrderError(w http.ResponseWriter, log *slog.Logger, err error) {
	switch {
	case errors.Is(err, storage.ErrOrderNotFound):
		http.Error(w, "order not found", http.StatusNotFound)
	case errors.Is(err, storage.ErrToolNotFound):
		http.Error(w, "tool not found", http.StatusNotFound)
	case errors.Is(err, storage.ErrInsufficientQuantity):
		http.Error(w, "insufficient available quantity", http.StatusConflict)
	case errors.Is(err, service.ErrBelowMinimumQuantity):
		http.Error(w, "quantity below minimum order quantity", http.StatusBadRequest)
	case errors.Is(err, service.ErrOrderAlreadyPaid):
		http.Error(w, "order already paid", http.StatusConflict)
	default:
		log.Error("order operation failed", slog.Any("error", err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}
