package auth

import (
	"log/slog"
	"net/http"

	"github.com/taskcoin/backend/internal/handlers"
	"github.com/taskcoin/backend/internal/middleware"
	"github.com/taskcoin/backend/internal/models"
	"github.com/taskcoin/backend/internal/services"
)

// Request/response structs use snake_case JSON.

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	PhotoURL string `json:"photo_url"`
	Role     string `json:"role"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token   string          `json:"token"`
	Account *models.Account `json:"account"`
}

type Handler struct {
	svc       Service
	validator handlers.BodyValidator
	log       *slog.Logger
}

func NewHandler(svc Service, validator handlers.BodyValidator, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{svc: svc, validator: validator, log: log}
}

// Register handles POST /api/v1/auth/register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := handlers.DecodeBody(r, h.validator, services.SchemaRegister, &req); err != nil {
		handlers.WriteError(w, r, h.log, err)
		return
	}
	acc, err := h.svc.Register(r.Context(), RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		PhotoURL: req.PhotoURL,
		Role:     req.Role,
	})
	if err != nil {
		handlers.WriteError(w, r, h.log, err)
		return
	}
	handlers.WriteJSON(w, http.StatusCreated, acc)
}

// Login handles POST /api/v1/auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := handlers.DecodeBody(r, h.validator, services.SchemaLogin, &req); err != nil {
		handlers.WriteError(w, r, h.log, err)
		return
	}
	token, acc, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		handlers.WriteError(w, r, h.log, err)
		return
	}
	handlers.WriteJSON(w, http.StatusOK, LoginResponse{Token: token, Account: acc})
}

// Me handles GET /api/v1/auth/me. The account was re-read by the auth middleware.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	acc := middleware.AccountFromCtx(r.Context())
	if acc == nil {
		middleware.WriteError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
		return
	}
	handlers.WriteJSON(w, http.StatusOK, acc)
}
