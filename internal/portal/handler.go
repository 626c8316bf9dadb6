package portal

import (
	"net/http"
	"strconv"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/telemetry"
	"github.com/go-chi/chi/v5"
)

// Handler exposes the staff views over a local JSON API the portal UI
// polls. It proxies actions through the views so the UI benefits from
// their optimistic state.
type Handler struct {
	logger  apt.Logger
	tlm     *telemetry.HTTP
	kitchen *KitchenView
	service *ServiceView
}

func NewHandler(kitchen *KitchenView, service *ServiceView, logger apt.Logger) *Handler {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Handler{
		logger:  logger,
		tlm:     telemetry.NewHTTP(),
		kitchen: kitchen,
		service: service,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/kitchen", func(r chi.Router) {
		r.Get("/items", h.KitchenItems)
		r.Put("/items/{itemID}/start", h.StartPreparation)
		r.Put("/items/{itemID}/ready", h.MarkReady)
	})

	r.Route("/service", func(r chi.Router) {
		r.Get("/tasks", h.Tasks)
		r.Put("/items/{itemID}/deliver", h.DeliverItem)
		r.Put("/orders/{orderID}/settle", h.Settle)
		r.Delete("/tables/{tableID}/assistance", h.ClearAssistance)
	})
}

func (h *Handler) KitchenItems(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.KitchenItems")
	defer finish()

	apt.RespondSuccess(w, h.kitchen.Items())
}

func (h *Handler) StartPreparation(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.StartPreparation")
	defer finish()

	itemID, ok := h.parseIDParam(w, r, "itemID")
	if !ok {
		return
	}
	if err := h.kitchen.StartPreparation(r.Context(), itemID); err != nil {
		h.logger.Error("cannot start preparation", "error", err, "item_id", itemID)
		apt.RespondError(w, http.StatusBadGateway, "Could not update item")
		return
	}
	apt.RespondSuccess(w, h.kitchen.Items())
}

func (h *Handler) MarkReady(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.MarkReady")
	defer finish()

	itemID, ok := h.parseIDParam(w, r, "itemID")
	if !ok {
		return
	}
	if err := h.kitchen.MarkReady(r.Context(), itemID); err != nil {
		h.logger.Error("cannot mark item ready", "error", err, "item_id", itemID)
		apt.RespondError(w, http.StatusBadGateway, "Could not update item")
		return
	}
	apt.RespondSuccess(w, h.kitchen.Items())
}

func (h *Handler) Tasks(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.Tasks")
	defer finish()

	apt.RespondSuccess(w, h.service.Tasks())
}

func (h *Handler) DeliverItem(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.DeliverItem")
	defer finish()

	itemID, ok := h.parseIDParam(w, r, "itemID")
	if !ok {
		return
	}
	if err := h.service.DeliverItem(r.Context(), itemID); err != nil {
		h.logger.Error("cannot deliver item", "error", err, "item_id", itemID)
		apt.RespondError(w, http.StatusBadGateway, "Could not deliver item")
		return
	}
	apt.RespondSuccess(w, h.service.Tasks())
}

func (h *Handler) Settle(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.Settle")
	defer finish()

	orderID, ok := h.parseIDParam(w, r, "orderID")
	if !ok {
		return
	}
	if err := h.service.Settle(r.Context(), orderID); err != nil {
		h.logger.Error("cannot settle order", "error", err, "order_id", orderID)
		apt.RespondError(w, http.StatusBadGateway, "Could not settle order")
		return
	}
	apt.RespondSuccess(w, h.service.Tasks())
}

func (h *Handler) ClearAssistance(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ClearAssistance")
	defer finish()

	tableID, ok := h.parseIDParam(w, r, "tableID")
	if !ok {
		return
	}
	if err := h.service.ClearAssistance(r.Context(), tableID); err != nil {
		h.logger.Error("cannot clear assistance", "error", err, "table_id", tableID)
		apt.RespondError(w, http.StatusBadGateway, "Could not clear assistance")
		return
	}
	apt.RespondSuccess(w, h.service.Tasks())
}

func (h *Handler) parseIDParam(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		apt.RespondError(w, http.StatusBadRequest, "Invalid ID")
		return 0, false
	}
	return id, true
}
