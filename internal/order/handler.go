package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"
	"github.com/appetiteclub/apt/telemetry"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/quicktab/quicktab/internal/menu"
	"github.com/quicktab/quicktab/internal/tables"
	"github.com/quicktab/quicktab/pkg/enums/itemstatus"
	"github.com/quicktab/quicktab/pkg/enums/orderstatus"
	"github.com/quicktab/quicktab/pkg/event"
)

const MaxBodyBytes = 1 << 20

type Handler struct {
	logger    apt.Logger
	config    *apt.Config
	tlm       *telemetry.HTTP
	validate  *validator.Validate
	orderRepo OrderRepo
	itemRepo  OrderItemRepo
	dishRepo  menu.DishRepo
	tableRepo tables.Repo
	seq       Sequencer
	publisher events.Publisher
	staffAuth func(http.Handler) http.Handler
}

type HandlerDeps struct {
	OrderRepo OrderRepo
	ItemRepo  OrderItemRepo
	DishRepo  menu.DishRepo
	TableRepo tables.Repo
	Sequencer Sequencer
	Publisher events.Publisher
	StaffAuth func(http.Handler) http.Handler
}

func NewHandler(hd HandlerDeps, config *apt.Config, logger apt.Logger) *Handler {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	staffAuth := hd.StaffAuth
	if staffAuth == nil {
		staffAuth = func(next http.Handler) http.Handler { return next }
	}
	return &Handler{
		logger:    logger,
		config:    config,
		tlm:       telemetry.NewHTTP(),
		validate:  validator.New(),
		orderRepo: hd.OrderRepo,
		itemRepo:  hd.ItemRepo,
		dishRepo:  hd.DishRepo,
		tableRepo: hd.TableRepo,
		seq:       hd.Sequencer,
		publisher: hd.Publisher,
		staffAuth: staffAuth,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/orders", func(r chi.Router) {
		// Customer-facing routes: reachable from a scanned table QR,
		// no credential required.
		r.Post("/", h.CreateOrder)
		r.Post("/{id}/items", h.AddItems)
		r.Put("/{id}/request-bill", h.RequestBill)
		r.Get("/track/{trackingID}", h.TrackOrder)
		r.Put("/track/{trackingID}/abandon", h.AbandonPayment)
		r.Get("/table/{tableID}/active", h.ActiveOrderForTable)

		r.Group(func(r chi.Router) {
			r.Use(h.staffAuth)
			r.Get("/", h.ListOrders)
			r.Get("/kitchen", h.KitchenQueue)
			r.Get("/{id}", h.GetOrder)
			r.Put("/{id}/status", h.UpdateOrderStatus)
			r.Put("/items/{itemID}/status", h.UpdateItemStatus)
		})
	})

	r.Route("/service", func(r chi.Router) {
		r.Use(h.staffAuth)
		r.Get("/tasks", h.ServiceTasks)
	})
}

// Order handlers

func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.CreateOrder")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	var req OrderCreateRequest
	if !h.decode(w, r, &req, log) {
		return
	}

	table, err := h.tableRepo.Get(ctx, req.TableID)
	if err != nil {
		log.Error("error loading table", "error", err, "table_id", req.TableID)
		apt.RespondError(w, http.StatusInternalServerError, "Could not load table")
		return
	}
	if table == nil {
		apt.RespondError(w, http.StatusNotFound, "Table not found")
		return
	}
	if !table.AcceptsOrders() {
		apt.RespondError(w, http.StatusBadRequest, "Table is out of service")
		return
	}

	active, err := h.orderRepo.GetActiveByTable(ctx, req.TableID)
	if err != nil {
		log.Error("error checking active order", "error", err, "table_id", req.TableID)
		apt.RespondError(w, http.StatusInternalServerError, "Could not check active order")
		return
	}
	if active != nil {
		apt.RespondError(w, http.StatusConflict, "An open tab already exists for this table")
		return
	}

	o := NewOrder()
	o.TableID = table.ID
	o.TableNumber = table.Number
	o.PaymentType = req.PaymentType
	o.Notes = req.Notes

	o.ID, err = h.seq.Next(ctx, "orders")
	if err != nil {
		log.Error("cannot assign order id", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not create order")
		return
	}

	items, err := h.buildItems(ctx, o, req.Items)
	if err != nil {
		h.respondItemError(w, err, log)
		return
	}
	o.Total = sumLineTotals(items)

	o.BeforeCreate()
	if err := h.orderRepo.Create(ctx, o); err != nil {
		log.Error("cannot create order", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not create order")
		return
	}
	for i, item := range items {
		item.BeforeCreate()
		if err := h.itemRepo.Create(ctx, item); err != nil {
			log.Error("cannot create order item", "error", err, "order_id", o.ID, "dish_id", item.DishID)
			h.rollbackOrder(ctx, o, items[:i], log)
			apt.RespondError(w, http.StatusInternalServerError, "Could not create order items")
			return
		}
	}

	h.publishStatus(ctx, o, event.EventOrderCreated)

	w.WriteHeader(http.StatusCreated)
	apt.RespondSuccess(w, &OrderView{Order: *o, Items: items})
}

// rollbackOrder undoes a partially stored tab after an item insert
// failed. Inserted lines are removed and the order is cancelled so the
// kitchen never sees work for lines that were never fully stored.
// Best effort: leftovers are logged, the client keeps the original error.
func (h *Handler) rollbackOrder(ctx context.Context, o *Order, inserted []*OrderItem, log apt.Logger) {
	for _, item := range inserted {
		if err := h.itemRepo.Delete(ctx, item.ID); err != nil {
			log.Error("cannot roll back order item", "error", err, "order_item_id", item.ID)
		}
	}
	o.Cancel("Order creation failed")
	if err := h.orderRepo.Save(ctx, o); err != nil {
		log.Error("cannot roll back order", "error", err, "order_id", o.ID)
	}
}

func (h *Handler) AddItems(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.AddItems")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	id, ok := h.parseIDParam(w, r, "id")
	if !ok {
		return
	}

	var req OrderAppendRequest
	if !h.decode(w, r, &req, log) {
		return
	}

	o, ok := h.loadOrder(w, ctx, id, log)
	if !ok {
		return
	}
	if !o.Status.Appendable() {
		apt.RespondError(w, http.StatusConflict,
			fmt.Sprintf("Cannot add items to an order with status %s", o.Status))
		return
	}

	existing, err := h.itemRepo.ListByOrder(ctx, o.ID)
	if err != nil {
		log.Error("cannot list order items", "error", err, "order_id", o.ID)
		apt.RespondError(w, http.StatusInternalServerError, "Could not load order items")
		return
	}
	byDish := make(map[int64]*OrderItem, len(existing))
	for _, item := range existing {
		byDish[item.DishID] = item
	}

	for _, add := range req.Items {
		if item, found := byDish[add.DishID]; found {
			item.SetQuantity(item.Quantity + add.Quantity)
			if err := h.itemRepo.Save(ctx, item); err != nil {
				log.Error("cannot update order item", "error", err, "item_id", item.ID)
				apt.RespondError(w, http.StatusInternalServerError, "Could not update order items")
				return
			}
			continue
		}

		item, err := h.newItem(ctx, o, add)
		if err != nil {
			h.respondItemError(w, err, log)
			return
		}
		item.BeforeCreate()
		if err := h.itemRepo.Create(ctx, item); err != nil {
			log.Error("cannot create order item", "error", err, "order_id", o.ID)
			apt.RespondError(w, http.StatusInternalServerError, "Could not create order items")
			return
		}
		byDish[item.DishID] = item
		existing = append(existing, item)
	}

	// Total is recomputed from the stored lines; clients replace their
	// cached value with this one, never the other way around.
	o.Total = sumLineTotals(existing)
	o.BeforeUpdate()
	if err := h.orderRepo.Save(ctx, o); err != nil {
		log.Error("cannot save order", "error", err, "order_id", o.ID)
		apt.RespondError(w, http.StatusInternalServerError, "Could not save order")
		return
	}

	h.publishStatus(ctx, o, event.EventOrderItemsAdded)

	apt.RespondSuccess(w, &OrderView{Order: *o, Items: existing})
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetOrder")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	id, ok := h.parseIDParam(w, r, "id")
	if !ok {
		return
	}

	o, ok := h.loadOrder(w, ctx, id, log)
	if !ok {
		return
	}

	view, err := h.view(ctx, o)
	if err != nil {
		log.Error("cannot load order items", "error", err, "order_id", o.ID)
		apt.RespondError(w, http.StatusInternalServerError, "Could not load order items")
		return
	}

	apt.RespondSuccess(w, view)
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ListOrders")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	tableIDStr := r.URL.Query().Get("table_id")
	status := r.URL.Query().Get("status")

	var orders []*Order
	var err error

	switch {
	case tableIDStr != "":
		var tableID int64
		tableID, err = strconv.ParseInt(tableIDStr, 10, 64)
		if err != nil {
			apt.RespondError(w, http.StatusBadRequest, "Invalid table_id")
			return
		}
		orders, err = h.orderRepo.ListByTable(ctx, tableID)
	case status != "":
		if !orderstatus.Valid(orderstatus.Status(status)) {
			apt.RespondError(w, http.StatusBadRequest, "Invalid status")
			return
		}
		orders, err = h.orderRepo.ListByStatus(ctx, orderstatus.Status(status))
	default:
		orders, err = h.orderRepo.List(ctx)
	}
	if err != nil {
		log.Error("cannot list orders", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not list orders")
		return
	}

	apt.RespondSuccess(w, orders)
}

// TrackOrder is the public read behind shareable bill links. It is
// keyed by the opaque tracking id, never the internal one.
func (h *Handler) TrackOrder(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.TrackOrder")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	trackingID := chi.URLParam(r, "trackingID")
	if trackingID == "" {
		apt.RespondError(w, http.StatusBadRequest, "tracking id is required")
		return
	}

	o, err := h.orderRepo.GetByTrackingID(ctx, trackingID)
	if err != nil {
		log.Error("error loading order by tracking id", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not load order")
		return
	}
	if o == nil {
		apt.RespondError(w, http.StatusNotFound, "Order not found")
		return
	}

	view, err := h.view(ctx, o)
	if err != nil {
		log.Error("cannot load order items", "error", err, "order_id", o.ID)
		apt.RespondError(w, http.StatusInternalServerError, "Could not load order items")
		return
	}

	apt.RespondSuccess(w, view)
}

// ActiveOrderForTable answers "does this table have an open tab?".
// Absence is a normal outcome, reported as 204 rather than an error.
func (h *Handler) ActiveOrderForTable(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ActiveOrderForTable")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	tableID, ok := h.parseIDParam(w, r, "tableID")
	if !ok {
		return
	}

	o, err := h.orderRepo.GetActiveByTable(ctx, tableID)
	if err != nil {
		log.Error("error loading active order", "error", err, "table_id", tableID)
		apt.RespondError(w, http.StatusInternalServerError, "Could not load active order")
		return
	}
	if o == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	view, err := h.view(ctx, o)
	if err != nil {
		log.Error("cannot load order items", "error", err, "order_id", o.ID)
		apt.RespondError(w, http.StatusInternalServerError, "Could not load order items")
		return
	}

	apt.RespondSuccess(w, view)
}

func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.UpdateOrderStatus")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	id, ok := h.parseIDParam(w, r, "id")
	if !ok {
		return
	}

	var req OrderStatusUpdateRequest
	if !h.decode(w, r, &req, log) {
		return
	}

	next := orderstatus.Status(req.Status)
	if !orderstatus.Valid(next) {
		apt.RespondError(w, http.StatusBadRequest, "Unknown order status")
		return
	}

	o, ok := h.loadOrder(w, ctx, id, log)
	if !ok {
		return
	}

	if !o.Status.CanTransitionTo(next) {
		apt.RespondError(w, http.StatusConflict,
			fmt.Sprintf("Cannot transition order from %s to %s", o.Status, next))
		return
	}

	switch next {
	case orderstatus.Processing:
		o.MarkProcessing()
	case orderstatus.Ready:
		o.MarkReady()
	case orderstatus.Completed:
		o.Complete()
	case orderstatus.Cancelled:
		o.Cancel(req.CancellationReason)
	case orderstatus.PaymentFailed:
		o.FailPayment()
	case orderstatus.Pending:
		o.ReopenForPayment()
	case orderstatus.Paid:
		// PAID through this endpoint is a staff override; the gateway
		// payment id stays empty because no verification happened.
		o.Status = orderstatus.Paid
		o.BeforeUpdate()
	}

	if err := h.orderRepo.Save(ctx, o); err != nil {
		log.Error("cannot save order", "error", err, "order_id", o.ID)
		apt.RespondError(w, http.StatusInternalServerError, "Could not save order")
		return
	}

	h.publishStatus(ctx, o, event.EventOrderStatusChanged)

	view, err := h.view(ctx, o)
	if err != nil {
		log.Error("cannot load order items", "error", err, "order_id", o.ID)
		apt.RespondError(w, http.StatusInternalServerError, "Could not load order items")
		return
	}

	apt.RespondSuccess(w, view)
}

// AbandonPayment is the customer device reporting that a payment
// attempt ended without a charge: the widget was dismissed (CANCELLED)
// or the provider declined (PAYMENT_FAILED). It is keyed by the opaque
// tracking id instead of staff credentials, and no other status is
// accepted here, so a customer can close their own tab and nothing
// else.
func (h *Handler) AbandonPayment(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.AbandonPayment")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	trackingID := chi.URLParam(r, "trackingID")
	if trackingID == "" {
		apt.RespondError(w, http.StatusBadRequest, "tracking ID is required")
		return
	}

	var req OrderStatusUpdateRequest
	if !h.decode(w, r, &req, log) {
		return
	}

	next := orderstatus.Status(req.Status)
	if next != orderstatus.Cancelled && next != orderstatus.PaymentFailed {
		apt.RespondError(w, http.StatusBadRequest,
			"Only CANCELLED or PAYMENT_FAILED may be reported here")
		return
	}

	o, err := h.orderRepo.GetByTrackingID(ctx, trackingID)
	if err != nil {
		log.Error("error loading order by tracking id", "error", err, "tracking_id", trackingID)
		apt.RespondError(w, http.StatusInternalServerError, "Could not load order")
		return
	}
	if o == nil {
		apt.RespondError(w, http.StatusNotFound, "Order not found")
		return
	}

	if !o.Status.CanTransitionTo(next) {
		apt.RespondError(w, http.StatusConflict,
			fmt.Sprintf("Cannot transition order from %s to %s", o.Status, next))
		return
	}

	if next == orderstatus.Cancelled {
		o.Cancel(req.CancellationReason)
	} else {
		o.FailPayment()
	}

	if err := h.orderRepo.Save(ctx, o); err != nil {
		log.Error("cannot save order", "error", err, "order_id", o.ID)
		apt.RespondError(w, http.StatusInternalServerError, "Could not save order")
		return
	}

	h.publishStatus(ctx, o, event.EventOrderStatusChanged)

	view, err := h.view(ctx, o)
	if err != nil {
		log.Error("cannot load order items", "error", err, "order_id", o.ID)
		apt.RespondError(w, http.StatusInternalServerError, "Could not load order items")
		return
	}

	apt.RespondSuccess(w, view)
}

// RequestBill moves an open tab to READY, which places counter-paying
// orders into the staff settlement queue.
func (h *Handler) RequestBill(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.RequestBill")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	id, ok := h.parseIDParam(w, r, "id")
	if !ok {
		return
	}

	o, ok := h.loadOrder(w, ctx, id, log)
	if !ok {
		return
	}

	if !o.Status.CanTransitionTo(orderstatus.Ready) {
		apt.RespondError(w, http.StatusConflict,
			fmt.Sprintf("Cannot request the bill for an order with status %s", o.Status))
		return
	}

	o.MarkReady()
	if err := h.orderRepo.Save(ctx, o); err != nil {
		log.Error("cannot save order", "error", err, "order_id", o.ID)
		apt.RespondError(w, http.StatusInternalServerError, "Could not save order")
		return
	}

	h.publishStatus(ctx, o, event.EventOrderStatusChanged)

	view, err := h.view(ctx, o)
	if err != nil {
		log.Error("cannot load order items", "error", err, "order_id", o.ID)
		apt.RespondError(w, http.StatusInternalServerError, "Could not load order items")
		return
	}

	apt.RespondSuccess(w, view)
}

// Item handlers

func (h *Handler) KitchenQueue(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.KitchenQueue")
	defer finish()

	log := h.log(r)

	items, err := h.itemRepo.ListByStatuses(r.Context(),
		[]itemstatus.Status{itemstatus.NeedsPreparation, itemstatus.InProgress})
	if err != nil {
		log.Error("cannot list kitchen items", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not list kitchen items")
		return
	}

	apt.RespondSuccess(w, items)
}

func (h *Handler) UpdateItemStatus(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.UpdateItemStatus")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	itemID, ok := h.parseIDParam(w, r, "itemID")
	if !ok {
		return
	}

	var req ItemStatusUpdateRequest
	if !h.decode(w, r, &req, log) {
		return
	}

	next := itemstatus.Status(req.ItemStatus)
	if !itemstatus.Valid(next) {
		apt.RespondError(w, http.StatusBadRequest, "Unknown item status")
		return
	}

	item, err := h.itemRepo.Get(ctx, itemID)
	if err != nil {
		log.Error("error loading order item", "error", err, "item_id", itemID)
		apt.RespondError(w, http.StatusInternalServerError, "Could not load order item")
		return
	}
	if item == nil {
		apt.RespondError(w, http.StatusNotFound, "Order item not found")
		return
	}

	if !item.Status.CanTransitionTo(next) {
		apt.RespondError(w, http.StatusConflict,
			fmt.Sprintf("Cannot transition item from %s to %s", item.Status, next))
		return
	}

	item.ApplyStatus(next)
	if err := h.itemRepo.Save(ctx, item); err != nil {
		log.Error("cannot save order item", "error", err, "item_id", item.ID)
		apt.RespondError(w, http.StatusInternalServerError, "Could not save order item")
		return
	}

	// Push the line-level move to the customer's tracking channel and
	// derive order-level progress from it. Neither may mask the item
	// update, which already succeeded.
	o, err := h.orderRepo.Get(ctx, item.OrderID)
	if err != nil || o == nil {
		log.Error("cannot load order for item event", "error", err, "order_id", item.OrderID)
	} else {
		h.publishItemStatus(ctx, o, item)
		h.promoteOrderFromItems(ctx, o, item, log)
	}

	apt.RespondSuccess(w, item)
}

// ServiceTasks returns the three staff queues in one call: items ready
// to deliver, tables asking for assistance, and orders awaiting
// offline settlement.
func (h *Handler) ServiceTasks(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ServiceTasks")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	readyItems, err := h.itemRepo.ListByStatuses(ctx, []itemstatus.Status{itemstatus.Ready})
	if err != nil {
		log.Error("cannot list ready items", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not load service tasks")
		return
	}

	assistance, err := h.tableRepo.ListAssistanceRequested(ctx)
	if err != nil {
		log.Error("cannot list assistance tables", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not load service tasks")
		return
	}

	readyOrders, err := h.orderRepo.ListByStatus(ctx, orderstatus.Ready)
	if err != nil {
		log.Error("cannot list orders awaiting settlement", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not load service tasks")
		return
	}

	paymentOrders := make([]*OrderView, 0, len(readyOrders))
	for _, o := range readyOrders {
		// Online orders settle through gateway verification, not at the
		// counter; they stay out of the settlement queue.
		if o.PaymentType == PaymentOnline {
			continue
		}
		view, err := h.view(ctx, o)
		if err != nil {
			log.Error("cannot load order items", "error", err, "order_id", o.ID)
			apt.RespondError(w, http.StatusInternalServerError, "Could not load service tasks")
			return
		}
		paymentOrders = append(paymentOrders, view)
	}

	apt.RespondSuccess(w, &ServiceTasks{
		ReadyItems:       readyItems,
		AssistanceTables: assistance,
		PaymentOrders:    paymentOrders,
	})
}

// helpers

// promoteOrderFromItems derives order-level progress from item moves:
// kitchen picking up the first item promotes PENDING to PROCESSING, and
// the last item reaching READY or DELIVERED promotes PROCESSING to
// READY.
func (h *Handler) promoteOrderFromItems(ctx context.Context, o *Order, item *OrderItem, log apt.Logger) {
	var next orderstatus.Status
	switch {
	case o.Status == orderstatus.Pending && item.Status != itemstatus.NeedsPreparation:
		next = orderstatus.Processing
	case o.Status == orderstatus.Processing:
		items, err := h.itemRepo.ListByOrder(ctx, o.ID)
		if err != nil {
			log.Error("cannot list items for promotion", "error", err, "order_id", o.ID)
			return
		}
		allDone := len(items) > 0
		for _, it := range items {
			if it.Status.Open() {
				allDone = false
				break
			}
		}
		if allDone {
			next = orderstatus.Ready
		}
	}

	if next == "" || !o.Status.CanTransitionTo(next) {
		return
	}

	switch next {
	case orderstatus.Processing:
		o.MarkProcessing()
	case orderstatus.Ready:
		o.MarkReady()
	}

	if err := h.orderRepo.Save(ctx, o); err != nil {
		log.Error("cannot save promoted order", "error", err, "order_id", o.ID)
		return
	}

	h.publishStatus(ctx, o, event.EventOrderStatusChanged)
}

var (
	errDishNotFound    = errors.New("dish not found")
	errDishUnavailable = errors.New("dish unavailable")
)

func (h *Handler) buildItems(ctx context.Context, o *Order, reqs []ItemRequest) ([]*OrderItem, error) {
	byDish := make(map[int64]*OrderItem, len(reqs))
	items := make([]*OrderItem, 0, len(reqs))
	for _, req := range reqs {
		if existing, found := byDish[req.DishID]; found {
			existing.SetQuantity(existing.Quantity + req.Quantity)
			continue
		}
		item, err := h.newItem(ctx, o, req)
		if err != nil {
			return nil, err
		}
		byDish[req.DishID] = item
		items = append(items, item)
	}
	return items, nil
}

func (h *Handler) newItem(ctx context.Context, o *Order, req ItemRequest) (*OrderItem, error) {
	dish, err := h.dishRepo.Get(ctx, req.DishID)
	if err != nil {
		return nil, fmt.Errorf("cannot load dish %d: %w", req.DishID, err)
	}
	if dish == nil {
		return nil, fmt.Errorf("%w: %d", errDishNotFound, req.DishID)
	}
	if !dish.Available {
		return nil, fmt.Errorf("%w: %s", errDishUnavailable, dish.Name)
	}

	item := NewOrderItem()
	item.OrderID = o.ID
	item.DishID = dish.ID
	item.DishName = dish.Name
	item.UnitPrice = dish.Price
	item.TableNumber = o.TableNumber
	item.SetQuantity(req.Quantity)

	item.ID, err = h.seq.Next(ctx, "order_items")
	if err != nil {
		return nil, fmt.Errorf("cannot assign item id: %w", err)
	}
	return item, nil
}

func (h *Handler) respondItemError(w http.ResponseWriter, err error, log apt.Logger) {
	switch {
	case errors.Is(err, errDishNotFound):
		apt.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, errDishUnavailable):
		apt.RespondError(w, http.StatusBadRequest, err.Error())
	default:
		log.Error("cannot build order items", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not build order items")
	}
}

func (h *Handler) view(ctx context.Context, o *Order) (*OrderView, error) {
	items, err := h.itemRepo.ListByOrder(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	return &OrderView{Order: *o, Items: items}, nil
}

func (h *Handler) loadOrder(w http.ResponseWriter, ctx context.Context, id int64, log apt.Logger) (*Order, bool) {
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

func (h *Handler) publishStatus(ctx context.Context, o *Order, eventType string) {
	if h.publisher == nil {
		return
	}
	evt := event.OrderStatusEvent{
		EventType:          eventType,
		OccurredAt:         time.Now(),
		OrderID:            o.ID,
		TrackingID:         o.TrackingID,
		TableID:            o.TableID,
		TableNumber:        o.TableNumber,
		Status:             string(o.Status),
		PaymentType:        o.PaymentType,
		Total:              o.Total,
		CancellationReason: o.CancellationReason,
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

func (h *Handler) publishItemStatus(ctx context.Context, o *Order, item *OrderItem) {
	if h.publisher == nil {
		return
	}
	evt := event.OrderItemStatusEvent{
		EventType:   event.EventOrderItemStatusChanged,
		OccurredAt:  time.Now(),
		OrderID:     o.ID,
		TrackingID:  o.TrackingID,
		OrderItemID: item.ID,
		DishName:    item.DishName,
		Quantity:    item.Quantity,
		ItemStatus:  string(item.Status),
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		h.logger.Error("cannot marshal item status event", "error", err, "item_id", item.ID)
		return
	}
	if err := h.publisher.Publish(ctx, event.OrderStatusTopic(o.TrackingID), payload); err != nil {
		h.logger.Error("cannot publish item status event", "error", err, "item_id", item.ID)
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

func (h *Handler) parseIDParam(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		apt.RespondError(w, http.StatusBadRequest, "Invalid ID")
		return 0, false
	}
	return id, true
}

func (h *Handler) log(r *http.Request) apt.Logger {
	return h.logger.With("method", r.Method, "path", r.URL.Path)
}
