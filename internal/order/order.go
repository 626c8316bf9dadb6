package order

import (
	"time"

	"github.com/appetiteclub/apt"

	"github.com/quicktab/quicktab/pkg/enums/orderstatus"
)

// Payment types an order can be flagged with at checkout. Empty until
// the customer chooses one.
const (
	PaymentOnline    = "ONLINE"
	PaymentAtCounter = "PAY_AT_COUNTER"
)

// Order is one customer tab at one table. Orders are never deleted;
// they only reach a terminal status and remain for receipt display.
type Order struct {
	ID                 int64              `json:"id" bson:"_id"`
	TrackingID         string             `json:"tracking_id" bson:"tracking_id"`
	TableID            int64              `json:"table_id" bson:"table_id"`
	TableNumber        string             `json:"table_number" bson:"table_number"`
	Status             orderstatus.Status `json:"status" bson:"status"`
	PaymentType        string             `json:"payment_type,omitempty" bson:"payment_type,omitempty"`
	Total              float64            `json:"total" bson:"total"`
	Notes              string             `json:"notes,omitempty" bson:"notes,omitempty"`
	CancellationReason string             `json:"cancellation_reason,omitempty" bson:"cancellation_reason,omitempty"`
	GatewayOrderID     string             `json:"gateway_order_id,omitempty" bson:"gateway_order_id,omitempty"`
	GatewayPaymentID   string             `json:"gateway_payment_id,omitempty" bson:"gateway_payment_id,omitempty"`
	CreatedAt          time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at" bson:"updated_at"`
}

func NewOrder() *Order {
	return &Order{
		Status:     orderstatus.Pending,
		TrackingID: apt.GenerateNewID().String(),
	}
}

// EnsureTrackingID backfills the public tracking id. The tracking id is
// the only identifier safe to expose in shareable URLs.
func (o *Order) EnsureTrackingID() {
	if o.TrackingID == "" {
		o.TrackingID = apt.GenerateNewID().String()
	}
}

func (o *Order) BeforeCreate() {
	o.EnsureTrackingID()
	o.CreatedAt = time.Now()
	o.UpdatedAt = time.Now()
}

func (o *Order) BeforeUpdate() {
	o.UpdatedAt = time.Now()
}

func (o *Order) MarkProcessing() {
	o.Status = orderstatus.Processing
	o.UpdatedAt = time.Now()
}

func (o *Order) MarkReady() {
	o.Status = orderstatus.Ready
	o.UpdatedAt = time.Now()
}

// MarkPaid records a verified online payment.
func (o *Order) MarkPaid(gatewayPaymentID string) {
	o.Status = orderstatus.Paid
	o.GatewayPaymentID = gatewayPaymentID
	o.PaymentType = PaymentOnline
	o.UpdatedAt = time.Now()
}

func (o *Order) Complete() {
	o.Status = orderstatus.Completed
	o.UpdatedAt = time.Now()
}

func (o *Order) Cancel(reason string) {
	o.Status = orderstatus.Cancelled
	o.CancellationReason = reason
	o.UpdatedAt = time.Now()
}

func (o *Order) FailPayment() {
	o.Status = orderstatus.PaymentFailed
	o.UpdatedAt = time.Now()
}

// ReopenForPayment returns a PAYMENT_FAILED order to PENDING when the
// customer starts another payment attempt.
func (o *Order) ReopenForPayment() {
	o.Status = orderstatus.Pending
	o.UpdatedAt = time.Now()
}

func (o *Order) Settled() bool {
	return o.Status.Settled()
}
