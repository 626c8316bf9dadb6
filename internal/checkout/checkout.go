package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/appetiteclub/apt"

	"github.com/quicktab/quicktab/internal/cart"
	"github.com/quicktab/quicktab/internal/client"
	"github.com/quicktab/quicktab/pkg/enums/orderstatus"
)

// Phase tracks where a checkout attempt is in the payment flow.
type Phase string

const (
	PhaseIdle           Phase = "IDLE"
	PhaseOrderCreating  Phase = "ORDER_CREATING"
	PhaseOrderCreated   Phase = "ORDER_CREATED"
	PhaseIntentCreating Phase = "INTENT_CREATING"
	PhaseIntentCreated  Phase = "INTENT_CREATED"
	PhaseWidgetOpen     Phase = "WIDGET_OPEN"
	PhaseVerifying      Phase = "VERIFYING"
	PhaseSuccess        Phase = "SUCCESS"
	PhaseFailed         Phase = "FAILED"
	PhaseDismissed      Phase = "DISMISSED"
	PhaseVerifyFailed   Phase = "VERIFY_FAILED"
)

// WidgetOutcome is what the card widget reports back: a charge with
// its credentials, a provider failure, or the customer closing the
// widget without paying.
type WidgetOutcome struct {
	Success          bool
	Dismissed        bool
	GatewayPaymentID string
	Signature        string
	FailureReason    string
}

// Widget collects a card payment for a prepared intent. The real one
// wraps the provider's browser widget; tests stub it.
type Widget interface {
	Collect(ctx context.Context, intent *client.PaymentIntent) (WidgetOutcome, error)
}

// API is the slice of the ordering client checkout needs.
type API interface {
	CreateOrder(ctx context.Context, req *client.OrderCreateRequest) (*client.OrderView, error)
	AddItems(ctx context.Context, orderID int64, items []client.ItemRequest) (*client.OrderView, error)
	ActiveOrderForTable(ctx context.Context, tableID int64) (*client.OrderView, error)
	AbandonOrder(ctx context.Context, trackingID, status, cancellationReason string) (*client.OrderView, error)
	CreatePaymentIntent(ctx context.Context, orderID int64) (*client.PaymentIntent, error)
	VerifyPayment(ctx context.Context, req *client.VerifyRequest) (*client.VerifyResult, error)
}

// ErrEmptyCart means checkout was started with nothing to order.
var ErrEmptyCart = errors.New("cart is empty")

// Result is the outcome of one checkout run.
type Result struct {
	Phase      Phase
	Order      *client.OrderView
	TrackingID string
	Reason     string
}

// Orchestrator drives a table's cart through ordering and payment. One
// orchestrator serves one table session. Submission is reentrant: a
// retry after a failed payment reuses the already-created order
// instead of opening a second tab.
type Orchestrator struct {
	api    API
	widget Widget
	logger apt.Logger

	mu      sync.Mutex
	tableID int64
	cart    *cart.Cart
	phase   Phase
	orderID int64
}

func NewOrchestrator(api API, widget Widget, tableID int64, c *cart.Cart, logger apt.Logger) *Orchestrator {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Orchestrator{
		api:     api,
		widget:  widget,
		logger:  logger,
		tableID: tableID,
		cart:    c,
		phase:   PhaseIdle,
	}
}

func (o *Orchestrator) Phase() Phase {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.phase
}

func (o *Orchestrator) setPhase(p Phase) {
	o.mu.Lock()
	o.phase = p
	o.mu.Unlock()
}

// Checkout runs the full flow for the chosen payment type. Counter
// payment ends at SUCCESS as soon as the order exists; online payment
// continues through intent, widget and verification. The cart is
// cleared only on success so a failed attempt can be retried as-is.
func (o *Orchestrator) Checkout(ctx context.Context, paymentType, notes string) (*Result, error) {
	if o.cart.Empty() {
		return nil, ErrEmptyCart
	}

	o.setPhase(PhaseOrderCreating)
	view, err := o.ensureOrder(ctx, paymentType, notes)
	if err != nil {
		o.setPhase(PhaseIdle)
		return nil, err
	}
	o.setPhase(PhaseOrderCreated)

	if paymentType != client.PaymentOnline {
		// Counter settlement happens later at staff hands; the order
		// simply stays open.
		o.cart.Clear()
		o.setPhase(PhaseSuccess)
		return &Result{Phase: PhaseSuccess, Order: view, TrackingID: view.TrackingID}, nil
	}

	return o.payOnline(ctx, view)
}

// ensureOrder creates the order exactly once per session. On retry the
// stored order id short-circuits creation; if another device on the
// same table already opened a tab, the cart is appended to it.
func (o *Orchestrator) ensureOrder(ctx context.Context, paymentType, notes string) (*client.OrderView, error) {
	o.mu.Lock()
	orderID := o.orderID
	o.mu.Unlock()

	if orderID != 0 {
		active, err := o.api.ActiveOrderForTable(ctx, o.tableID)
		if err != nil {
			return nil, fmt.Errorf("cannot load existing order: %w", err)
		}
		if active != nil && active.ID == orderID {
			return active, nil
		}
		// The remembered order is gone (cancelled or settled); fall
		// through and create a fresh one.
		o.mu.Lock()
		o.orderID = 0
		o.mu.Unlock()
	}

	view, err := o.api.CreateOrder(ctx, &client.OrderCreateRequest{
		TableID:     o.tableID,
		Items:       o.cart.Items(),
		PaymentType: paymentType,
		Notes:       notes,
	})
	if err == nil {
		o.mu.Lock()
		o.orderID = view.ID
		o.mu.Unlock()
		return view, nil
	}

	if !errors.Is(err, client.ErrConflict) {
		return nil, err
	}

	// Someone at this table ordered first; merge our cart into their
	// open tab instead of failing the customer.
	active, lookupErr := o.api.ActiveOrderForTable(ctx, o.tableID)
	if lookupErr != nil || active == nil {
		return nil, err
	}
	merged, appendErr := o.api.AddItems(ctx, active.ID, o.cart.Items())
	if appendErr != nil {
		return nil, appendErr
	}
	o.mu.Lock()
	o.orderID = merged.ID
	o.mu.Unlock()
	return merged, nil
}

func (o *Orchestrator) payOnline(ctx context.Context, view *client.OrderView) (*Result, error) {
	o.setPhase(PhaseIntentCreating)
	intent, err := o.api.CreatePaymentIntent(ctx, view.ID)
	if err != nil {
		// No money moved; the order stays open for another attempt.
		o.setPhase(PhaseOrderCreated)
		return nil, fmt.Errorf("cannot create payment intent: %w", err)
	}
	o.setPhase(PhaseIntentCreated)

	o.setPhase(PhaseWidgetOpen)
	outcome, err := o.widget.Collect(ctx, intent)
	if err != nil {
		o.setPhase(PhaseOrderCreated)
		return nil, fmt.Errorf("payment widget failed: %w", err)
	}

	switch {
	case outcome.Dismissed:
		// Closing the widget abandons the attempt entirely.
		o.abandon(ctx, view, "Payment dismissed by customer")
		o.setPhase(PhaseDismissed)
		return &Result{Phase: PhaseDismissed, Order: view, TrackingID: view.TrackingID}, nil

	case !outcome.Success:
		o.markFailed(ctx, view)
		o.setPhase(PhaseFailed)
		return &Result{
			Phase:      PhaseFailed,
			Order:      view,
			TrackingID: view.TrackingID,
			Reason:     outcome.FailureReason,
		}, nil
	}

	o.setPhase(PhaseVerifying)
	result, err := o.api.VerifyPayment(ctx, &client.VerifyRequest{
		OrderID:          view.ID,
		GatewayOrderID:   intent.GatewayOrderID,
		GatewayPaymentID: outcome.GatewayPaymentID,
		Signature:        outcome.Signature,
	})
	if err != nil {
		o.setPhase(PhaseVerifyFailed)
		return nil, fmt.Errorf("cannot verify payment: %w", err)
	}
	if !result.Success {
		o.markFailed(ctx, view)
		o.setPhase(PhaseVerifyFailed)
		return &Result{
			Phase:      PhaseVerifyFailed,
			Order:      view,
			TrackingID: view.TrackingID,
			Reason:     "Payment verification failed",
		}, nil
	}

	o.cart.Clear()
	o.mu.Lock()
	o.orderID = 0
	o.mu.Unlock()
	o.setPhase(PhaseSuccess)
	return &Result{Phase: PhaseSuccess, Order: view, TrackingID: result.TrackingID}, nil
}

// abandon cancels the order after a dismissed widget, through the
// public tracking-id route since the customer holds no staff
// credential. Best effort: the server may have moved the order on
// already, and an error here must not mask the dismissal outcome.
func (o *Orchestrator) abandon(ctx context.Context, view *client.OrderView, reason string) {
	if _, err := o.api.AbandonOrder(ctx, view.TrackingID, string(orderstatus.Cancelled), reason); err != nil {
		o.logger.Error("cannot cancel dismissed order", "error", err, "order_id", view.ID)
		return
	}
	o.mu.Lock()
	o.orderID = 0
	o.mu.Unlock()
}

// markFailed records the failed attempt on the order. Also best
// effort; the customer sees the failure either way and can retry.
func (o *Orchestrator) markFailed(ctx context.Context, view *client.OrderView) {
	if _, err := o.api.AbandonOrder(ctx, view.TrackingID, string(orderstatus.PaymentFailed), ""); err != nil {
		o.logger.Error("cannot mark order payment failed", "error", err, "order_id", view.ID)
	}
}
