package tables

import (
	"time"

	"github.com/appetiteclub/apt"
)

const (
	StatusAvailable    = "AVAILABLE"
	StatusOccupied     = "OCCUPIED"
	StatusReserved     = "RESERVED"
	StatusOutOfService = "OUT_OF_SERVICE"
)

// Table is a physical table. QRCode is the opaque identifier printed on
// the table card; customers resolve it to a table before ordering.
type Table struct {
	ID                  int64     `json:"id" bson:"_id"`
	Number              string    `json:"number" bson:"number"`
	Status              string    `json:"status" bson:"status"`
	Capacity            int       `json:"capacity" bson:"capacity"`
	QRCode              string    `json:"qr_code" bson:"qr_code"`
	AssistanceRequested bool      `json:"assistance_requested" bson:"assistance_requested"`
	CreatedAt           time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt           time.Time `json:"updated_at" bson:"updated_at"`
}

func NewTable() *Table {
	return &Table{
		Status: StatusAvailable,
		QRCode: apt.GenerateNewID().String(),
	}
}

func (t *Table) EnsureQRCode() {
	if t.QRCode == "" {
		t.QRCode = apt.GenerateNewID().String()
	}
}

func (t *Table) BeforeCreate() {
	t.EnsureQRCode()
	t.CreatedAt = time.Now()
	t.UpdatedAt = time.Now()
}

func (t *Table) BeforeUpdate() {
	t.UpdatedAt = time.Now()
}

func (t *Table) RequestAssistance() {
	t.AssistanceRequested = true
	t.UpdatedAt = time.Now()
}

func (t *Table) ClearAssistance() {
	t.AssistanceRequested = false
	t.UpdatedAt = time.Now()
}

// AcceptsOrders reports whether customers may open a tab here.
func (t *Table) AcceptsOrders() bool {
	return t.Status != StatusOutOfService
}
