package tables

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/telemetry"
	"github.com/go-chi/chi/v5"
	qrcode "github.com/skip2/go-qrcode"
)

const qrImageSize = 256

type Handler struct {
	logger    apt.Logger
	config    *apt.Config
	tlm       *telemetry.HTTP
	repo      Repo
	staffAuth func(http.Handler) http.Handler
}

type HandlerDeps struct {
	Repo      Repo
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
		repo:      hd.Repo,
		staffAuth: staffAuth,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/tables", func(r chi.Router) {
		r.Get("/qr/{qrCode}", h.GetByQRCode)
		r.Post("/{id}/assistance", h.RequestAssistance)

		r.Group(func(r chi.Router) {
			r.Use(h.staffAuth)
			r.Get("/", h.ListTables)
			r.Get("/{id}", h.GetTable)
			r.Delete("/{id}/assistance", h.ClearAssistance)
			r.Get("/{id}/qr.png", h.QRImage)
		})
	})
}

// GetByQRCode resolves a scanned table QR. A stale or unknown code gets
// a dedicated 404, distinct from transient failures.
func (h *Handler) GetByQRCode(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetByQRCode")
	defer finish()

	ctx := r.Context()
	qrCode := chi.URLParam(r, "qrCode")
	if qrCode == "" {
		apt.RespondError(w, http.StatusBadRequest, "qr code is required")
		return
	}

	table, err := h.repo.GetByQRCode(ctx, qrCode)
	if err != nil {
		h.logger.Error("error loading table by qr code", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not load table")
		return
	}
	if table == nil {
		apt.RespondError(w, http.StatusNotFound, "Table not found")
		return
	}

	apt.RespondSuccess(w, table)
}

func (h *Handler) GetTable(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetTable")
	defer finish()

	ctx := r.Context()
	id, ok := h.parseIDParam(w, r)
	if !ok {
		return
	}

	table, err := h.repo.Get(ctx, id)
	if err != nil {
		h.logger.Error("error loading table", "error", err, "id", id)
		apt.RespondError(w, http.StatusInternalServerError, "Could not load table")
		return
	}
	if table == nil {
		apt.RespondError(w, http.StatusNotFound, "Table not found")
		return
	}

	apt.RespondSuccess(w, table)
}

func (h *Handler) ListTables(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ListTables")
	defer finish()

	tables, err := h.repo.List(r.Context())
	if err != nil {
		h.logger.Error("cannot list tables", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not list tables")
		return
	}

	apt.RespondSuccess(w, tables)
}

// RequestAssistance is the customer's "call waiter" action.
func (h *Handler) RequestAssistance(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.RequestAssistance")
	defer finish()

	h.setAssistance(w, r, true)
}

// ClearAssistance is staff-side; it resolves the request.
func (h *Handler) ClearAssistance(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ClearAssistance")
	defer finish()

	h.setAssistance(w, r, false)
}

func (h *Handler) setAssistance(w http.ResponseWriter, r *http.Request, requested bool) {
	ctx := r.Context()
	id, ok := h.parseIDParam(w, r)
	if !ok {
		return
	}

	table, err := h.repo.Get(ctx, id)
	if err != nil {
		h.logger.Error("error loading table", "error", err, "id", id)
		apt.RespondError(w, http.StatusInternalServerError, "Could not load table")
		return
	}
	if table == nil {
		apt.RespondError(w, http.StatusNotFound, "Table not found")
		return
	}

	if requested {
		table.RequestAssistance()
	} else {
		table.ClearAssistance()
	}

	if err := h.repo.Save(ctx, table); err != nil {
		h.logger.Error("cannot update assistance flag", "error", err, "table_id", id)
		apt.RespondError(w, http.StatusInternalServerError, "Could not update table")
		return
	}

	apt.RespondSuccess(w, table)
}

// QRImage renders the printable QR card for a table. The encoded URL
// points customers at the menu page for this table's code.
func (h *Handler) QRImage(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.QRImage")
	defer finish()

	ctx := r.Context()
	id, ok := h.parseIDParam(w, r)
	if !ok {
		return
	}

	table, err := h.repo.Get(ctx, id)
	if err != nil {
		h.logger.Error("error loading table", "error", err, "id", id)
		apt.RespondError(w, http.StatusInternalServerError, "Could not load table")
		return
	}
	if table == nil {
		apt.RespondError(w, http.StatusNotFound, "Table not found")
		return
	}

	menuURL := h.config.GetStringOrDef("web.menu_url", "http://localhost:5173/menu")
	content := fmt.Sprintf("%s?table=%s", menuURL, table.QRCode)

	png, err := qrcode.Encode(content, qrcode.Medium, qrImageSize)
	if err != nil {
		h.logger.Error("cannot encode qr image", "error", err, "table_id", id)
		apt.RespondError(w, http.StatusInternalServerError, "Could not generate QR code")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

func (h *Handler) parseIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		apt.RespondError(w, http.StatusBadRequest, "Invalid table ID")
		return 0, false
	}
	return id, true
}
