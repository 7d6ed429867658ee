package kafka

// ProductEventMessage - JSON payload события товара в топике
type ProductEventMessage struct {
	EventID          string `json:"event_id"`
	EventType        string `json:"event_type"`
	EventVersion     int    `json:"event_version"`
	OccurredAt       string `json:"occurred_at"`
	ProductID        int    `json:"product_id"`
	ProductName      string `json:"product_name"`
	ProductPrice     int    `json:"product_price"`
	InventarID       string `json:"inventar_id"`
	InventarQuantity int    `json:"inventar_quantity"`
}
