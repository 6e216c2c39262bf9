// AngelaMos | 2026
// handler.go

package registration

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/templates/registration-api/internal/activation"
	"github.com/carterperez-dev/templates/registration-api/internal/auth"
	"github.com/carterperez-dev/templates/registration-api/internal/core"
	"github.com/carterperez-dev/templates/registration-api/internal/middleware"
	"github.com/carterperez-dev/templates/registration-api/internal/user"
)

const (
	authRealm        = "users"
	maxBodyBytes     = 1 << 20
	activatedMessage = "Account activated successfully"
)

type Notifier interface {
	Enqueue(email, code string)
}

// Limits wraps each route with its own rate limiter. Nil entries are
// left unlimited.
type Limits struct {
	Register func(http.Handler) http.Handler
	Activate func(http.Handler) http.Handler
}

type Handler struct {
	service   *Service
	notifier  Notifier
	validator *validator.Validate
	logger    *slog.Logger
}

func NewHandler(service *Service, notifier Notifier, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		service:   service,
		notifier:  notifier,
		validator: validator.New(validator.WithRequiredStructEnabled()),
		logger:    logger,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router, limits Limits) {
	r.Route("/users", func(r chi.Router) {
		r.With(optional(limits.Register)...).
			Post("/", h.Register)

		r.With(append(
			optional(limits.Activate),
			middleware.RequireBasicAuth(authRealm),
		)...).Post("/activate", h.Activate)
	})
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !h.decode(w, r, &req) {
		return
	}

	reg, err := h.service.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.notifier.Enqueue(reg.User.Email, reg.Code)

	core.Created(w, user.ToUserResponse(reg.User))
}

func (h *Handler) Activate(w http.ResponseWriter, r *http.Request) {
	creds, ok := middleware.GetCredentials(r.Context())
	if !ok {
		h.writeError(w, r, auth.ErrInvalidCredentials)
		return
	}

	var req ActivateRequest
	if !h.decode(w, r, &req) {
		return
	}

	err := h.service.Activate(r.Context(), creds.Email, creds.Password, req.Code)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	core.Message(w, activatedMessage)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		core.BadRequest(w, "invalid request body")
		return false
	}

	if err := h.validator.Struct(dst); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return false
	}

	return true
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, user.ErrEmailAlreadyUsed):
		core.JSONError(w, core.EmailAlreadyUsedError())
	case errors.Is(err, auth.ErrInvalidCredentials):
		w.Header().Set("WWW-Authenticate", middleware.BasicChallenge(authRealm))
		core.JSONError(w, core.InvalidCredentialsError())
	case errors.Is(err, ErrAlreadyActive):
		core.JSONError(w, core.AlreadyActiveError())
	case errors.Is(err, activation.ErrCodeExpired):
		core.JSONError(w, core.CodeExpiredError())
	case errors.Is(err, activation.ErrInvalidCode):
		core.JSONError(w, core.InvalidCodeError())
	default:
		h.logger.ErrorContext(r.Context(), "request failed",
			"error", err,
			"request_id", middleware.GetRequestID(r.Context()),
			"path", r.URL.Path,
		)
		core.JSONError(w, core.InternalError(err))
	}
}

func optional(mw func(http.Handler) http.Handler) []func(http.Handler) http.Handler {
	if mw == nil {
		return nil
	}
	return []func(http.Handler) http.Handler{mw}
}
