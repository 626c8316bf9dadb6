package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"
	"github.com/appetiteclub/apt/telemetry"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/quicktab/quicktab/internal/order"
	"github.com/quicktab/quicktab/pkg/enums/orderstatus"
	"github.com/quicktab/quicktab/pkg/event"
)

const MaxBodyBytes = 1 << 20

// IntentCreator is the slice of the gateway the handler needs; the
// narrow interface keeps handler tests free of HTTP fixtures.
type IntentCreator interface {
	CreateGatewayOrder(ctx context.Context, amount int64, receipt string) (string, error)
	VerifySignature(gatewayOrderID, paymentID, signature string) bool
	KeyID() string
	Currency() string
}

type Handler struct {
	logger    apt.Logger
	config    *apt.Config
	tlm       *telemetry.HTTP
	validate  *validator.Validate
	gateway   IntentCreator
	orderRepo order.OrderRepo
	publisher events.Publisher
}

func NewHandler(gateway IntentCreator, orderRepo order.OrderRepo, publisher events.Publisher, config *apt.Config, logger apt.Logger) *Handler {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Handler{
		logger:    logger,
		config:    config,
		tlm:       telemetry.NewHTTP(),
		validate:  validator.New(),
		gateway:   gateway,
		orderRepo: orderRepo,
		publisher: publisher,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/payments", func(r chi.Router) {
		r.Post("/orders", h.CreateIntent)
		r.Post("/verify", h.Verify)
	})
}

type IntentRequest struct {
	OrderID int64 `json:"order_id" validate:"required,gt=0"`
}

// Intent is everything the browser widget needs to collect a card
// payment. Amount is minor units derived from the stored order total;
// the client's number is never trusted.
type Intent struct {
	GatewayOrderID string `json:"gateway_order_id"`
	KeyID          string `json:"key_id"`
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
}

type VerifyRequest struct {
	OrderID          int64  `json:"order_id" validate:"required,gt=0"`
	GatewayOrderID   string `json:"gateway_order_id" validate:"required"`
	GatewayPaymentID string `json:"gateway_payment_id" validate:"required"`
	Signature        string `json:"signature" validate:"required"`
}

type VerifyResult struct {
	Success    bool   `json:"success"`
	OrderID    int64  `json:"order_id"`
	TrackingID string `json:"tracking_id,omitempty"`
	Status     string `json:"status"`
}

func (h *Handler) CreateIntent(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.CreateIntent")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	var req IntentRequest
	if !h.decode(w, r, &req, log) {
		return
	}

	o, ok := h.loadOrder(w, ctx, req.OrderID, log)
	if !ok {
		return
	}

	if o.Settled() {
		apt.RespondError(w, http.StatusConflict, "Order is already paid")
		return
	}
	if o.Status == orderstatus.Cancelled || o.Status == orderstatus.Completed {
		apt.RespondError(w, http.StatusConflict,
			fmt.Sprintf("Cannot pay for an order with status %s", o.Status))
		return
	}
	if o.Total <= 0 {
		apt.RespondError(w, http.StatusBadRequest, "Order total is not payable")
		return
	}

	// A failed attempt re-enters the payable path before a new intent
	// is created.
	if o.Status == orderstatus.PaymentFailed {
		o.ReopenForPayment()
	}

	amount := minorUnits(o.Total)
	gatewayOrderID, err := h.gateway.CreateGatewayOrder(ctx, amount, o.TrackingID)
	if err != nil {
		log.Error("cannot create gateway order", "error", err, "order_id", o.ID)
		apt.RespondError(w, http.StatusBadGateway, "Payment provider is unavailable")
		return
	}

	o.GatewayOrderID = gatewayOrderID
	o.BeforeUpdate()
	if err := h.orderRepo.Save(ctx, o); err != nil {
		log.Error("cannot save order", "error", err, "order_id", o.ID)
		apt.RespondError(w, http.StatusInternalServerError, "Could not save order")
		return
	}

	apt.RespondSuccess(w, &Intent{
		GatewayOrderID: gatewayOrderID,
		KeyID:          h.gateway.KeyID(),
		Amount:         amount,
		Currency:       h.gateway.Currency(),
	})
}

func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.Verify")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	var req VerifyRequest
	if !h.decode(w, r, &req, log) {
		return
	}

	o, ok := h.loadOrder(w, ctx, req.OrderID, log)
	if !ok {
		return
	}

	// Verification is idempotent: a retried callback on a settled order
	// reports success without touching the order again.
	if o.Settled() {
		apt.RespondSuccess(w, &VerifyResult{
			Success:    true,
			OrderID:    o.ID,
			TrackingID: o.TrackingID,
			Status:     string(o.Status),
		})
		return
	}

	if o.GatewayOrderID == "" || o.GatewayOrderID != req.GatewayOrderID {
		apt.RespondError(w, http.StatusBadRequest, "Unknown gateway order")
		return
	}

	if !h.gateway.VerifySignature(req.GatewayOrderID, req.GatewayPaymentID, req.Signature) {
		log.Info("payment signature mismatch", "order_id", o.ID)
		apt.RespondSuccess(w, &VerifyResult{
			Success: false,
			OrderID: o.ID,
			Status:  string(o.Status),
		})
		return
	}

	o.MarkPaid(req.GatewayPaymentID)
	if err := h.orderRepo.Save(ctx, o); err != nil {
		log.Error("cannot save paid order", "error", err, "order_id", o.ID)
		apt.RespondError(w, http.StatusInternalServerError, "Could not save order")
		return
	}

	h.publishStatus(ctx, o)

	apt.RespondSuccess(w, &VerifyResult{
		Success:    true,
		OrderID:    o.ID,
		TrackingID: o.TrackingID,
		Status:     string(o.Status),
	})
}

// minorUnits converts a currency amount to the smallest unit the
// gateway charges in. Rounding guards against float drift on totals
// like 19.90.
func minorUnits(total float64) int64 {
	return int64(math.Round(total * 100))
}

func (h *Handler) loadOrder(w http.ResponseWriter, ctx context.Context, id int64, log apt.Logger) (*order.Order, bool) {
	o, err := h.orderRepo.Get(ctx, id)
	if err != nil {
		log.Error("error loading order", "error", err, "id", id)
		apt.RespondError(w, http.StatusInternalServerError, "Could not load order")
		return nil, false
	}
	if o == nil {
		apt.RespondError(w, http.StatusNotFound, "Order not found")
		return nil, false
	}
	return o, true
}

func (h *Handler) publishStatus(ctx context.Context, o *order.Order) {
	if h.publisher == nil {
		return
	}
	evt := event.OrderStatusEvent{
		EventType:   event.EventOrderStatusChanged,
		OccurredAt:  time.Now(),
		OrderID:     o.ID,
		TrackingID:  o.TrackingID,
		TableID:     o.TableID,
		TableNumber: o.TableNumber,
		Status:      string(o.Status),
		PaymentType: o.PaymentType,
		Total:       o.Total,
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		h.logger.Error("cannot marshal order status event", "error", err, "order_id", o.ID)
		return
	}
	if err := h.publisher.Publish(ctx, event.OrderStatusTopic(o.TrackingID), payload); err != nil {
		h.logger.Error("cannot publish order status event", "error", err, "order_id", o.ID)
	}
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dest interface{}, log apt.Logger) bool {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	defer func() { _, _ = io.Copy(io.Discard, r.Body) }()

	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		log.Debug("cannot decode request payload", "error", err)
		apt.RespondError(w, http.StatusBadRequest, "Invalid request payload")
		return false
	}
	if err := h.validate.Struct(dest); err != nil {
		apt.RespondError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

func (h *Handler) log(r *http.Request) apt.Logger {
	return h.logger.With("method", r.Method, "path", r.URL.Path)
}
