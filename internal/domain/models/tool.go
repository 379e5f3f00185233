package models

// Tool представляет инструмент из каталога
type Tool struct {
	ID                int64   `json:"id"`
	Name              string  `json:"name"`
	Description       string  `json:"description"`
	Image             string  `json:"image"`
	Price             float64 `json:"price"`
	AvailableQuantity int     `json:"availableQuantity"`
	MinOrderQuantity  int     `json:"minOrderQuantity"`
}
