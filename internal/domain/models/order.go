package models

import "time"

// Order представляет заказ, созданный при покупке инструмента.
// Жизненный цикл: создан (неоплачен) -> оплачен; удаление — отдельное
// терминальное действие.
type Order struct {
	ID            int64     `json:"id"`
	Email         string    `json:"email"`
	ToolID        int64     `json:"toolId"`
	ToolName      string    `json:"toolName"` // Имя инструмента; заполняется через JOIN с таблицей tools
	Quantity      int       `json:"quantity"`
	TotalPrice    float64   `json:"totalPrice"`
	IsPaid        bool      `json:"isPaid"`
	TransactionID *string   `json:"transactionId,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}
