package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/AshikurRahmanMunna/intertools-server/internal/domain/models"
	"github.com/lib/pq"
)

var ErrOrderNotFound = errors.New("order not found")

// OrderStorage описывает методы для работы с заказами.
type OrderStorage interface {
	// CreateOrder вставляет новый заказ в рамках транзакции резервирования остатка.
	CreateOrder(ctx context.Context, tx *sql.Tx, order *models.Order) (int64, error)
	GetOrderByID(ctx context.Context, id int64) (*models.Order, error)
	// LockOrderByIDTx читает заказ с блокировкой строки (FOR UPDATE NOWAIT).
	LockOrderByIDTx(ctx context.Context, tx *sql.Tx, id int64) (*models.Order, error)
	ListOrders(ctx context.Context) ([]*models.Order, error)
	GetOrdersByEmail(ctx context.Context, email string) ([]*models.Order, error)
	UpdateOrderQuantity(ctx context.Context, tx *sql.Tx, id int64, quantity int, totalPrice float64) error
	MarkOrderPaid(ctx context.Context, tx *sql.Tx, id int64, transactionID string) error
	DeleteOrder(ctx context.Context, tx *sql.Tx, id int64) error
}

type orderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) OrderStorage {
	return &orderRepository{db: db}
}

func (r *orderRepository) CreateOrder(ctx context.Context, tx *sql.Tx, order *models.Order) (int64, error) {
	var id int64
	err := tx.QueryRowContext(ctx,
		`INSERT INTO orders (email, tool_id, quantity, total_price, is_paid, created_at)
		 VALUES ($1, $2, $3, $4, FALSE, NOW()) RETURNING id`,
		order.Email, order.ToolID, order.Quantity, order.TotalPrice,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create order: %w", err)
	}
	return id, nil
}

// orderSelect — общая часть выборки заказов; имя инструмента через LEFT JOIN,
// заказ переживает удаление инструмента из каталога.
const orderSelect = `
	SELECT o.id, o.email, o.tool_id, COALESCE(t.name, ''), o.quantity, o.total_price, o.is_paid, o.transaction_id, o.created_at
	FROM orders o
	LEFT JOIN tools t ON o.tool_id = t.id`

func scanOrder(row interface{ Scan(...interface{}) error }) (*models.Order, error) {
	order := &models.Order{}
	err := row.Scan(&order.ID, &order.Email, &order.ToolID, &order.ToolName, &order.Quantity,
		&order.TotalPrice, &order.IsPaid, &order.TransactionID, &order.CreatedAt)
	return order, err
}

func (r *orderRepository) GetOrderByID(ctx context.Context, id int64) (*models.Order, error) {
	row := r.db.QueryRowContext(ctx, orderSelect+" WHERE o.id = $1", id)
	order, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return order, nil
}

func (r *orderRepository) LockOrderByIDTx(ctx context.Context, tx *sql.Tx, id int64) (*models.Order, error) {
	order := &models.Order{}
	row := tx.QueryRowContext(ctx,
		`SELECT id, email, tool_id, quantity, total_price, is_paid, transaction_id, created_at
		 FROM orders WHERE id = $1 FOR UPDATE NOWAIT`, id)
	if err := row.Scan(&order.ID, &order.Email, &order.ToolID, &order.Quantity,
		&order.TotalPrice, &order.IsPaid, &order.TransactionID, &order.CreatedAt); err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code == "55P03" { // lock
				return nil, fmt.Errorf("resource is locked, please try again: %w", err)
			}
		}
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return order, nil
}

func (r *orderRepository) ListOrders(ctx context.Context) ([]*models.Order, error) {
	return r.queryOrders(ctx, orderSelect+" ORDER BY o.created_at DESC")
}

func (r *orderRepository) GetOrdersByEmail(ctx context.Context, email string) ([]*models.Order, error) {
	return r.queryOrders(ctx, orderSelect+" WHERE o.email = $1 ORDER BY o.created_at DESC", email)
}

func (r *orderRepository) queryOrders(ctx context.Context, query string, args ...interface{}) ([]*models.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*models.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *orderRepository) UpdateOrderQuantity(ctx context.Context, tx *sql.Tx, id int64, quantity int, totalPrice float64) error {
	res, err := tx.ExecContext(ctx,
		"UPDATE orders SET quantity = $1, total_price = $2 WHERE id = $3",
		quantity, totalPrice, id,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (r *orderRepository) MarkOrderPaid(ctx context.Context, tx *sql.Tx, id int64, transactionID string) error {
	res, err := tx.ExecContext(ctx,
		"UPDATE orders SET is_paid = TRUE, transaction_id = $1 WHERE id = $2",
		transactionID, id,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (r *orderRepository) DeleteOrder(ctx context.Context, tx *sql.Tx, id int64) error {
	res, err := tx.ExecContext(ctx, "DELETE FROM orders WHERE id = $1", id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrOrderNotFound
	}
	return nil
}
