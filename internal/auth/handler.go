package auth

import (
	"crypto/subtle"
	"encoding/json"
	"io"
	"net/http"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/telemetry"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

const MaxBodyBytes = 1 << 20

// Handler exposes staff login. Credentials come from configuration; a
// single shared staff account is enough for a floor tablet deployment.
type Handler struct {
	logger   apt.Logger
	config   *apt.Config
	tlm      *telemetry.HTTP
	validate *validator.Validate
	service  *Service
}

func NewHandler(service *Service, config *apt.Config, logger apt.Logger) *Handler {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Handler{
		logger:   logger,
		config:   config,
		tlm:      telemetry.NewHTTP(),
		validate: validator.New(),
		service:  service,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/auth/login", h.Login)
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.Login")
	defer finish()

	log := h.logger.With("method", r.Method, "path", r.URL.Path)

	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	defer func() { _, _ = io.Copy(io.Discard, r.Body) }()

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Debug("cannot decode login payload", "error", err)
		apt.RespondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		apt.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	username := h.config.GetStringOrDef("auth.staff.username", "staff")
	password := h.config.GetStringOrDef("auth.staff.password", "")
	if password == "" {
		log.Error("staff password is not configured")
		apt.RespondError(w, http.StatusInternalServerError, "Login is not configured")
		return
	}

	userOK := subtle.ConstantTimeCompare([]byte(req.Username), []byte(username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(req.Password), []byte(password)) == 1
	if !userOK || !passOK {
		apt.RespondError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := h.service.IssueToken(req.Username, "staff")
	if err != nil {
		log.Error("cannot issue token", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not issue token")
		return
	}

	apt.RespondSuccess(w, &LoginResponse{
		Token:    token,
		Username: req.Username,
		Role:     "staff",
	})
}
