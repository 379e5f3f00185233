package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/AshikurRahmanMunna/intertools-server/internal/domain/models"
	"github.com/AshikurRahmanMunna/intertools-server/internal/storage"
)

var (
	// ErrBelowMinimumQuantity — заказ меньше минимальной партии инструмента.
	ErrBelowMinimumQuantity = errors.New("quantity below minimum order quantity")
	// ErrOrderAlreadyPaid — оплаченный заказ менять нельзя.
	ErrOrderAlreadyPaid = errors.New("order already paid")
)

// EventPublisher публикует события жизненного цикла заказов.
// Публикация не влияет на результат операции: ошибки только логируются.
type EventPublisher interface {
	Publish(ctx context.Context, key string, event interface{}) error
}

// OrderEvent — JSON-конверт события заказа.
type OrderEvent struct {
	Type     string    `json:"type"` // order.created / order.paid / order.deleted
	OrderID  int64     `json:"orderId"`
	Email    string    `json:"email"`
	ToolID   int64     `json:"toolId"`
	Quantity int       `json:"quantity"`
	At       time.Time `json:"at"`
}

// OrderService определяет order workflow.
type OrderService interface {
	PlaceOrder(ctx context.Context, email string, toolID int64, quantity int) (*models.Order, error)
	GetOrderByID(ctx context.Context, id int64) (*models.Order, error)
	ListOrders(ctx context.Context) ([]*models.Order, error)
	GetOrdersByEmail(ctx context.Context, email string) ([]*models.Order, error)
	ChangeQuantity(ctx context.Context, id int64, newQuantity int) (*models.Order, error)
	RecordPayment(ctx context.Context, id int64, transactionID string) error
	DeleteOrder(ctx context.Context, id int64) error
}

type orderService struct {
	log         *slog.Logger
	db          *sql.DB
	toolRepo    storage.ToolStorage
	orderRepo   storage.OrderStorage
	paymentRepo storage.PaymentStorage
	events      EventPublisher
}

func NewOrderService(log *slog.Logger, db *sql.DB, toolRepo storage.ToolStorage, orderRepo storage.OrderStorage, paymentRepo storage.PaymentStorage, events EventPublisher) OrderService {
	return &orderService{
		log:         log,
		db:          db,
		toolRepo:    toolRepo,
		orderRepo:   orderRepo,
		paymentRepo: paymentRepo,
		events:      events,
	}
}

// PlaceOrder создаёт заказ: резервирование остатка и вставка заказа идут
// в одной транзакции, поэтому заказ без списания со склада появиться не может.
// Количество всегда пересчитывается на сервере, newQuantity от клиента не принимается.
func (s *orderService) PlaceOrder(ctx context.Context, email string, toolID int64, quantity int) (*models.Order, error) {
	const op = "service.OrderService.PlaceOrder"
	logger := s.log.With(slog.String("op", op), slog.String("email", email), slog.Int64("toolID", toolID), slog.Int("quantity", quantity))
	logger.Info("starting order transaction")

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Error("failed to begin transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}

	// Читаем инструмент через транзакцию
	tool, err := s.toolRepo.GetToolByIDTx(ctx, tx, toolID)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		logger.Error("failed to get tool", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get tool: %w", op, err)
	}

	// Проверяем минимальную партию
	if tool.MinOrderQuantity > 0 && quantity < tool.MinOrderQuantity {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		logger.Warn("quantity below minimum", slog.Int("minimum", tool.MinOrderQuantity))
		return nil, fmt.Errorf("%s: %w", op, ErrBelowMinimumQuantity)
	}

	// Атомарный условный декремент остатка
	if err := s.toolRepo.ReserveQuantity(ctx, tx, toolID, quantity); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		logger.Warn("failed to reserve quantity", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to reserve quantity: %w", op, err)
	}

	order := &models.Order{
		Email:      email,
		ToolID:     toolID,
		ToolName:   tool.Name,
		Quantity:   quantity,
		TotalPrice: tool.Price * float64(quantity),
	}
	id, err := s.orderRepo.CreateOrder(ctx, tx, order)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		logger.Error("failed to create order", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to create order: %w", op, err)
	}
	order.ID = id

	if err := tx.Commit(); err != nil {
		logger.Error("failed to commit transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}

	s.publish(ctx, "order.created", order)
	logger.Info("order placed", slog.Int64("orderID", order.ID))
	return order, nil
}

func (s *orderService) GetOrderByID(ctx context.Context, id int64) (*models.Order, error) {
	const op = "service.OrderService.GetOrderByID"

	order, err := s.orderRepo.GetOrderByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrOrderNotFound) {
			return nil, err
		}
		s.log.Error("failed to get order", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get order: %w", op, err)
	}
	return order, nil
}

func (s *orderService) ListOrders(ctx context.Context) ([]*models.Order, error) {
	const op = "service.OrderService.ListOrders"

	orders, err := s.orderRepo.ListOrders(ctx)
	if err != nil {
		s.log.Error("failed to list orders", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to list orders: %w", op, err)
	}
	return orders, nil
}

func (s *orderService) GetOrdersByEmail(ctx context.Context, email string) ([]*models.Order, error) {
	const op = "service.OrderService.GetOrdersByEmail"

	orders, err := s.orderRepo.GetOrdersByEmail(ctx, email)
	if err != nil {
		s.log.Error("failed to get orders", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get orders: %w", op, err)
	}
	return orders, nil
}

// ChangeQuantity меняет количество в неоплаченном заказе. Разница с текущим
// количеством списывается или возвращается на склад тем же условным декрементом.
func (s *orderService) ChangeQuantity(ctx context.Context, id int64, newQuantity int) (*models.Order, error) {
	const op = "service.OrderService.ChangeQuantity"
	logger := s.log.With(slog.String("op", op), slog.Int64("orderID", id), slog.Int("newQuantity", newQuantity))
	logger.Info("starting quantity change transaction")

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Error("failed to begin transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}

	order, err := s.orderRepo.LockOrderByIDTx(ctx, tx, id)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		logger.Error("failed to lock order", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get order: %w", op, err)
	}

	if order.IsPaid {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		logger.Warn("order already paid")
		return nil, fmt.Errorf("%s: %w", op, ErrOrderAlreadyPaid)
	}

	tool, err := s.toolRepo.GetToolByIDTx(ctx, tx, order.ToolID)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		logger.Error("failed to get tool", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get tool: %w", op, err)
	}

	if tool.MinOrderQuantity > 0 && newQuantity < tool.MinOrderQuantity {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		return nil, fmt.Errorf("%s: %w", op, ErrBelowMinimumQuantity)
	}

	// Корректируем склад на разницу
	delta := newQuantity - order.Quantity
	switch {
	case delta > 0:
		err = s.toolRepo.ReserveQuantity(ctx, tx, order.ToolID, delta)
	case delta < 0:
		err = s.toolRepo.ReleaseQuantity(ctx, tx, order.ToolID, -delta)
	}
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		logger.Warn("failed to adjust stock", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to adjust stock: %w", op, err)
	}

	totalPrice := tool.Price * float64(newQuantity)
	if err := s.orderRepo.UpdateOrderQuantity(ctx, tx, id, newQuantity, totalPrice); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		logger.Error("failed to update order", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to update order: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		logger.Error("failed to commit transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}

	order.Quantity = newQuantity
	order.TotalPrice = totalPrice
	order.ToolName = tool.Name
	logger.Info("order quantity changed")
	return order, nil
}

// RecordPayment добавляет запись об оплате и помечает заказ оплаченным.
// Повторный вызов добавляет ещё одну запись об оплате (как в исходном API),
// наблюдаемое состояние заказа не меняется.
func (s *orderService) RecordPayment(ctx context.Context, id int64, transactionID string) error {
	const op = "service.OrderService.RecordPayment"
	logger := s.log.With(slog.String("op", op), slog.Int64("orderID", id))
	logger.Info("starting payment transaction")

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Error("failed to begin transaction", slog.Any("error", err))
		return fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}

	order, err := s.orderRepo.LockOrderByIDTx(ctx, tx, id)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		logger.Error("failed to lock order", slog.Any("error", err))
		return fmt.Errorf("%s: failed to get order: %w", op, err)
	}

	if err := s.orderRepo.MarkOrderPaid(ctx, tx, id, transactionID); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		logger.Error("failed to mark order paid", slog.Any("error", err))
		return fmt.Errorf("%s: failed to mark order paid: %w", op, err)
	}

	if err := s.paymentRepo.CreatePayment(ctx, tx, id, transactionID); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		logger.Error("failed to create payment", slog.Any("error", err))
		return fmt.Errorf("%s: failed to create payment: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		logger.Error("failed to commit transaction", slog.Any("error", err))
		return fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}

	order.IsPaid = true
	s.publish(ctx, "order.paid", order)
	logger.Info("payment recorded")
	return nil
}

// DeleteOrder удаляет заказ. Для неоплаченного заказа зарезервированное
// количество возвращается на склад; оплаченный удаляется без возврата —
// товар считается отгруженным.
func (s *orderService) DeleteOrder(ctx context.Context, id int64) error {
	const op = "service.OrderService.DeleteOrder"
	logger := s.log.With(slog.String("op", op), slog.Int64("orderID", id))
	logger.Info("starting delete transaction")

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Error("failed to begin transaction", slog.Any("error", err))
		return fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}

	order, err := s.orderRepo.LockOrderByIDTx(ctx, tx, id)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		logger.Error("failed to lock order", slog.Any("error", err))
		return fmt.Errorf("%s: failed to get order: %w", op, err)
	}

	if !order.IsPaid {
		if err := s.toolRepo.ReleaseQuantity(ctx, tx, order.ToolID, order.Quantity); err != nil {
			// Инструмент могли удалить из каталога — возвращать некуда
			if !errors.Is(err, storage.ErrToolNotFound) {
				if rbErr := tx.Rollback(); rbErr != nil {
					logger.Error("transaction rollback failed", slog.Any("error", rbErr))
				}
				logger.Error("failed to release quantity", slog.Any("error", err))
				return fmt.Errorf("%s: failed to release quantity: %w", op, err)
			}
		}
	}

	if err := s.orderRepo.DeleteOrder(ctx, tx, id); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		logger.Error("failed to delete order", slog.Any("error", err))
		return fmt.Errorf("%s: failed to delete order: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		logger.Error("failed to commit transaction", slog.Any("error", err))
		return fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}

	s.publish(ctx, "order.deleted", order)
	logger.Info("order deleted")
	return nil
}

func (s *orderService) publish(ctx context.Context, eventType string, order *models.Order) {
	if s.events == nil {
		return
	}
	event := OrderEvent{
		Type:     eventType,
		OrderID:  order.ID,
		Email:    order.Email,
		ToolID:   order.ToolID,
		Quantity: order.Quantity,
		At:       time.Now().UTC(),
	}
	if err := s.events.Publish(ctx, eventType, event); err != nil {
		s.log.Warn("failed to publish order event", slog.String("type", eventType), slog.Any("error", err))
	}
}
