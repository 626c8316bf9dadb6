package client

import "time"

// Payment types accepted at order creation.
const (
	PaymentOnline    = "ONLINE"
	PaymentAtCounter = "PAY_AT_COUNTER"
)

// Mirror types for API resources. They deliberately duplicate the
// server entities so the consuming side compiles against the wire
// contract, not the server internals.

type Order struct {
	ID                 int64     `json:"id"`
	TrackingID         string    `json:"tracking_id"`
	TableID            int64     `json:"table_id"`
	TableNumber        string    `json:"table_number,omitempty"`
	Status             string    `json:"status"`
	PaymentType        string    `json:"payment_type"`
	Total              float64   `json:"total"`
	Notes              string    `json:"notes,omitempty"`
	CancellationReason string    `json:"cancellation_reason,omitempty"`
	GatewayOrderID     string    `json:"gateway_order_id,omitempty"`
	GatewayPaymentID   string    `json:"gateway_payment_id,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

type OrderItem struct {
	ID          int64      `json:"id"`
	OrderID     int64      `json:"order_id"`
	DishID      int64      `json:"dish_id"`
	DishName    string     `json:"dish_name"`
	UnitPrice   float64    `json:"unit_price"`
	Quantity    int        `json:"quantity"`
	LineTotal   float64    `json:"line_total"`
	ItemStatus  string     `json:"item_status"`
	TableNumber string     `json:"table_number,omitempty"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type OrderView struct {
	Order
	Items []*OrderItem `json:"items"`
}

type Table struct {
	ID                  int64     `json:"id"`
	Number              string    `json:"number"`
	Status              string    `json:"status"`
	Capacity            int       `json:"capacity"`
	QRCode              string    `json:"qr_code"`
	AssistanceRequested bool      `json:"assistance_requested"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

type Dish struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	Category  string  `json:"category,omitempty"`
	Price     float64 `json:"price"`
	Available bool    `json:"available"`
}

type ServiceTasks struct {
	ReadyItems       []*OrderItem `json:"ready_items"`
	AssistanceTables []*Table     `json:"assistance_tables"`
	PaymentOrders    []*OrderView `json:"payment_orders"`
}

type ItemRequest struct {
	DishID   int64 `json:"dish_id"`
	Quantity int   `json:"quantity"`
}

type OrderCreateRequest struct {
	TableID     int64         `json:"table_id"`
	Items       []ItemRequest `json:"items"`
	PaymentType string        `json:"payment_type"`
	Notes       string        `json:"notes,omitempty"`
}

type PaymentIntent struct {
	GatewayOrderID string `json:"gateway_order_id"`
	KeyID          string `json:"key_id"`
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
}

type VerifyRequest struct {
	OrderID          int64  `json:"order_id"`
	GatewayOrderID   string `json:"gateway_order_id"`
	GatewayPaymentID string `json:"gateway_payment_id"`
	Signature        string `json:"signature"`
}

type VerifyResult struct {
	Success    bool   `json:"success"`
	OrderID    int64  `json:"order_id"`
	TrackingID string `json:"tracking_id,omitempty"`
	Status     string `json:"status"`
}

type LoginResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	Role     string `json:"role"`
}
