package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// PaymentStorage описывает методы для записей об оплате.
type PaymentStorage interface {
	// CreatePayment добавляет запись об оплате в рамках транзакции recordPayment.
	CreatePayment(ctx context.Context, tx *sql.Tx, orderID int64, transactionID string) error
}

type paymentRepository struct {
	db *sql.DB
}

func NewPaymentRepository(db *sql.DB) PaymentStorage {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) CreatePayment(ctx context.Context, tx *sql.Tx, orderID int64, transactionID string) error {
	_, err := tx.ExecContext(ctx,
		"INSERT INTO payments (order_id, transaction_id, created_at) VALUES ($1, $2, NOW())",
		orderID, transactionID,
	)
	if err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}
	return nil
}
