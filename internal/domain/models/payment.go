package models

import "time"

// Payment — запись о проведённой оплате заказа.
// Повторный вызов recordPayment добавляет новую запись (как в исходном API),
// наблюдаемое состояние заказа при этом не меняется.
type Payment struct {
	ID            int64     `json:"id"`
	OrderID       int64     `json:"orderId"`
	TransactionID string    `json:"transactionId"`
	CreatedAt     time.Time `json:"createdAt"`
}
