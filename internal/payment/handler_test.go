package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/appetiteclub/apt"
	"github.com/go-chi/chi/v5"

	"github.com/quicktab/quicktab/internal/order"
	"github.com/quicktab/quicktab/pkg/enums/orderstatus"
)

// mockGateway satisfies IntentCreator with the real HMAC scheme so
// verification tests exercise genuine signatures.
type mockGateway struct {
	secret     string
	nextID     string
	createErr  error
	lastAmount int64
}

func (m *mockGateway) CreateGatewayOrder(ctx context.Context, amount int64, receipt string) (string, error) {
	if m.createErr != nil {
		return "", m.createErr
	}
	m.lastAmount = amount
	return m.nextID, nil
}

func (m *mockGateway) VerifySignature(gatewayOrderID, paymentID, signature string) bool {
	mac := hmac.New(sha256.New, []byte(m.secret))
	mac.Write([]byte(gatewayOrderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil)) == signature
}

func (m *mockGateway) KeyID() string    { return "key_test" }
func (m *mockGateway) Currency() string { return "INR" }

func (m *mockGateway) sign(gatewayOrderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(m.secret))
	mac.Write([]byte(gatewayOrderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// mockOrderRepo implements the order.OrderRepo surface the handler
// touches; the list methods are unused here.
type mockOrderRepo struct {
	mu     sync.RWMutex
	orders map[int64]*order.Order
}

func newMockOrderRepo() *mockOrderRepo {
	return &mockOrderRepo{orders: make(map[int64]*order.Order)}
}

func (m *mockOrderRepo) add(o *order.Order) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *o
	m.orders[o.ID] = &copied
}

func (m *mockOrderRepo) Create(ctx context.Context, o *order.Order) error {
	m.add(o)
	return nil
}

func (m *mockOrderRepo) Get(ctx context.Context, id int64) (*order.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, nil
	}
	copied := *o
	return &copied, nil
}

func (m *mockOrderRepo) GetByTrackingID(ctx context.Context, trackingID string) (*order.Order, error) {
	return nil, nil
}

func (m *mockOrderRepo) GetActiveByTable(ctx context.Context, tableID int64) (*order.Order, error) {
	return nil, nil
}

func (m *mockOrderRepo) List(ctx context.Context) ([]*order.Order, error) { return nil, nil }

func (m *mockOrderRepo) ListByTable(ctx context.Context, tableID int64) ([]*order.Order, error) {
	return nil, nil
}

func (m *mockOrderRepo) ListByStatus(ctx context.Context, status orderstatus.Status) ([]*order.Order, error) {
	return nil, nil
}

func (m *mockOrderRepo) Save(ctx context.Context, o *order.Order) error {
	m.add(o)
	return nil
}

type paymentFixture struct {
	router  chi.Router
	gateway *mockGateway
	repo    *mockOrderRepo
}

func newPaymentFixture() *paymentFixture {
	gateway := &mockGateway{secret: "s3cret", nextID: "gw_order_1"}
	repo := newMockOrderRepo()

	h := NewHandler(gateway, repo, nil, apt.NewConfig(), apt.NewNoopLogger())
	r := chi.NewRouter()
	h.RegisterRoutes(r)

	return &paymentFixture{router: r, gateway: gateway, repo: repo}
}

func (f *paymentFixture) request(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("cannot encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func payableOrder(id int64, total float64) *order.Order {
	o := order.NewOrder()
	o.ID = id
	o.Total = total
	o.PaymentType = order.PaymentOnline
	o.BeforeCreate()
	return o
}

func TestCreateIntent(t *testing.T) {
	f := newPaymentFixture()
	f.repo.add(payableOrder(1, 19.90))

	w := f.request(t, http.MethodPost, "/payments/orders", IntentRequest{OrderID: 1})
	if w.Code != http.StatusOK {
		t.Fatalf("CreateIntent status = %d: %s", w.Code, w.Body.String())
	}

	var envelope struct {
		Data *Intent `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("cannot decode response: %v", err)
	}

	intent := envelope.Data
	if intent.GatewayOrderID != "gw_order_1" {
		t.Errorf("GatewayOrderID = %q, want gw_order_1", intent.GatewayOrderID)
	}
	if intent.Amount != 1990 {
		t.Errorf("Amount = %d, want 1990 (minor units of 19.90)", intent.Amount)
	}
	if f.gateway.lastAmount != 1990 {
		t.Errorf("gateway charged %d, want 1990", f.gateway.lastAmount)
	}

	stored, _ := f.repo.Get(context.Background(), 1)
	if stored.GatewayOrderID != "gw_order_1" {
		t.Errorf("stored GatewayOrderID = %q, want gw_order_1", stored.GatewayOrderID)
	}
}

func TestCreateIntentReopensFailedPayment(t *testing.T) {
	f := newPaymentFixture()
	o := payableOrder(1, 100)
	o.FailPayment()
	f.repo.add(o)

	w := f.request(t, http.MethodPost, "/payments/orders", IntentRequest{OrderID: 1})
	if w.Code != http.StatusOK {
		t.Fatalf("CreateIntent status = %d: %s", w.Code, w.Body.String())
	}

	stored, _ := f.repo.Get(context.Background(), 1)
	if stored.Status != orderstatus.Pending {
		t.Errorf("retried order status = %q, want %q", stored.Status, orderstatus.Pending)
	}
}

func TestCreateIntentRejections(t *testing.T) {
	tests := []struct {
		name     string
		prepare  func(f *paymentFixture)
		orderID  int64
		wantCode int
	}{
		{
			name:     "unknownOrder",
			prepare:  func(f *paymentFixture) {},
			orderID:  42,
			wantCode: http.StatusNotFound,
		},
		{
			name: "alreadyPaid",
			prepare: func(f *paymentFixture) {
				o := payableOrder(1, 100)
				o.MarkPaid("pay_1")
				f.repo.add(o)
			},
			orderID:  1,
			wantCode: http.StatusConflict,
		},
		{
			name: "cancelledOrder",
			prepare: func(f *paymentFixture) {
				o := payableOrder(1, 100)
				o.Cancel("no longer wanted")
				f.repo.add(o)
			},
			orderID:  1,
			wantCode: http.StatusConflict,
		},
		{
			name: "zeroTotal",
			prepare: func(f *paymentFixture) {
				f.repo.add(payableOrder(1, 0))
			},
			orderID:  1,
			wantCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newPaymentFixture()
			tt.prepare(f)

			w := f.request(t, http.MethodPost, "/payments/orders", IntentRequest{OrderID: tt.orderID})
			if w.Code != tt.wantCode {
				t.Errorf("CreateIntent status = %d, want %d: %s", w.Code, tt.wantCode, w.Body.String())
			}
		})
	}
}

func TestVerify(t *testing.T) {
	f := newPaymentFixture()
	o := payableOrder(1, 100)
	o.GatewayOrderID = "gw_order_1"
	f.repo.add(o)

	sig := f.gateway.sign("gw_order_1", "pay_1")
	w := f.request(t, http.MethodPost, "/payments/verify", VerifyRequest{
		OrderID:          1,
		GatewayOrderID:   "gw_order_1",
		GatewayPaymentID: "pay_1",
		Signature:        sig,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("Verify status = %d: %s", w.Code, w.Body.String())
	}

	var envelope struct {
		Data *VerifyResult `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("cannot decode response: %v", err)
	}
	if !envelope.Data.Success {
		t.Error("Verify with valid signature should succeed")
	}

	stored, _ := f.repo.Get(context.Background(), 1)
	if stored.Status != orderstatus.Paid {
		t.Errorf("order status = %q, want %q", stored.Status, orderstatus.Paid)
	}
	if stored.GatewayPaymentID != "pay_1" {
		t.Errorf("GatewayPaymentID = %q, want pay_1", stored.GatewayPaymentID)
	}
}

func TestVerifyBadSignature(t *testing.T) {
	f := newPaymentFixture()
	o := payableOrder(1, 100)
	o.GatewayOrderID = "gw_order_1"
	f.repo.add(o)

	w := f.request(t, http.MethodPost, "/payments/verify", VerifyRequest{
		OrderID:          1,
		GatewayOrderID:   "gw_order_1",
		GatewayPaymentID: "pay_1",
		Signature:        "deadbeef",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("Verify status = %d: %s", w.Code, w.Body.String())
	}

	var envelope struct {
		Data *VerifyResult `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("cannot decode response: %v", err)
	}
	if envelope.Data.Success {
		t.Error("Verify with bad signature should report failure")
	}

	stored, _ := f.repo.Get(context.Background(), 1)
	if stored.Status.Settled() {
		t.Errorf("order must not settle on a bad signature, status = %q", stored.Status)
	}
}

func TestVerifyIdempotentOnSettledOrder(t *testing.T) {
	f := newPaymentFixture()
	o := payableOrder(1, 100)
	o.GatewayOrderID = "gw_order_1"
	o.MarkPaid("pay_1")
	f.repo.add(o)

	// Even a garbage signature succeeds as a no-op once settled.
	w := f.request(t, http.MethodPost, "/payments/verify", VerifyRequest{
		OrderID:          1,
		GatewayOrderID:   "gw_order_1",
		GatewayPaymentID: "pay_other",
		Signature:        "whatever",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("Verify status = %d: %s", w.Code, w.Body.String())
	}

	var envelope struct {
		Data *VerifyResult `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("cannot decode response: %v", err)
	}
	if !envelope.Data.Success {
		t.Error("Verify on a settled order should report success")
	}

	stored, _ := f.repo.Get(context.Background(), 1)
	if stored.GatewayPaymentID != "pay_1" {
		t.Errorf("settled order must keep original payment id, got %q", stored.GatewayPaymentID)
	}
}

func TestVerifyUnknownGatewayOrder(t *testing.T) {
	f := newPaymentFixture()
	o := payableOrder(1, 100)
	o.GatewayOrderID = "gw_order_1"
	f.repo.add(o)

	w := f.request(t, http.MethodPost, "/payments/verify", VerifyRequest{
		OrderID:          1,
		GatewayOrderID:   "gw_other",
		GatewayPaymentID: "pay_1",
		Signature:        "sig",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Verify with mismatched gateway order status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestMinorUnits(t *testing.T) {
	tests := []struct {
		total float64
		want  int64
	}{
		{19.90, 1990},
		{0.1, 10},
		{100, 10000},
		{0.555, 56},
	}

	for _, tt := range tests {
		if got := minorUnits(tt.total); got != tt.want {
			t.Errorf("minorUnits(%v) = %d, want %d", tt.total, got, tt.want)
		}
	}
}
