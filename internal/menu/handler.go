package menu

import (
	"net/http"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/telemetry"
	"github.com/go-chi/chi/v5"
)

type Handler struct {
	logger apt.Logger
	tlm    *telemetry.HTTP
	repo   DishRepo
}

func NewHandler(repo DishRepo, logger apt.Logger) *Handler {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Handler{
		logger: logger,
		tlm:    telemetry.NewHTTP(),
		repo:   repo,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/menu", func(r chi.Router) {
		r.Get("/dishes", h.ListDishes)
	})
}

// ListDishes is the public menu read customers browse after scanning a
// table QR. Only available dishes are returned.
func (h *Handler) ListDishes(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ListDishes")
	defer finish()

	dishes, err := h.repo.ListAvailable(r.Context())
	if err != nil {
		h.logger.Error("cannot list dishes", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not list dishes")
		return
	}

	apt.RespondSuccess(w, dishes)
}
