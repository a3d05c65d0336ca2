package transport

import (
	"errors"
	"net/http"
	"strings"

	"inventario/internal/domain"
	"inventario/internal/middleware"
	"inventario/internal/service"
	"inventario/internal/session"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// RegisterForm is the submitted registration form
type RegisterForm struct {
	Name     string `form:"nombre" validate:"required,max=120"`
	Email    string `form:"email" validate:"required,email,max=120"`
	Password string `form:"password" validate:"required,min=8,max=72"`
	Confirm  string `form:"confirmar" validate:"required,eqfield=Password"`
}

// LoginForm is the submitted login form
type LoginForm struct {
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required"`
}

// UserHandler handles HTTP requests for user operations
type UserHandler struct {
	userService  service.UserService
	cartService  service.CartService
	statsService service.StatsService
	sessions     *session.Manager
	logger       *zap.Logger
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(
	userService service.UserService,
	cartService service.CartService,
	statsService service.StatsService,
	sessions *session.Manager,
	logger *zap.Logger,
) *UserHandler {
	return &UserHandler{
		userService:  userService,
		cartService:  cartService,
		statsService: statsService,
		sessions:     sessions,
		logger:       logger,
	}
}

// RegisterRoutes registers all user routes. credentialLimiter guards the
// endpoints that check passwords or create accounts.
func (h *UserHandler) RegisterRoutes(r chi.Router, credentialLimiter func(http.Handler) http.Handler) {
	r.Get("/login", h.LoginForm)
	r.Get("/register", h.RegisterForm)
	r.Get("/logout", h.Logout)
	r.With(middleware.Authorize(domain.ActionViewDashboard, h.logger)).Get("/dashboard", h.Dashboard)

	r.Group(func(r chi.Router) {
		r.Use(credentialLimiter)
		r.Post("/login", h.Login)
		r.Post("/register", h.Register)
	})
}

// LoginForm handles GET /login
func (h *UserHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	if middleware.GetPrincipal(r.Context()) != nil {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	render(w, r, http.StatusOK, "Log in", map[string]interface{}{"campos": []string{"email", "password"}})
}

// RegisterForm handles GET /register
func (h *UserHandler) RegisterForm(w http.ResponseWriter, r *http.Request) {
	render(w, r, http.StatusOK, "Register", map[string]interface{}{
		"campos": []string{"nombre", "email", "password", "confirmar"},
	})
}

// Register handles user registration
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	form := RegisterForm{
		Name:     strings.TrimSpace(r.PostFormValue("nombre")),
		Email:    strings.TrimSpace(r.PostFormValue("email")),
		Password: r.PostFormValue("password"),
		Confirm:  r.PostFormValue("confirmar"),
	}
	if err := middleware.ValidateRequest(form); err != nil {
		h.logger.Debug("Registration validation failed", zap.Error(err))
		middleware.RespondWithValidationErrors(w, middleware.FormatValidationErrors(err), map[string]string{
			"nombre": form.Name,
			"email":  form.Email,
		})
		return
	}

	user, err := h.userService.Register(r.Context(), form.Name, form.Email, form.Password)
	if err != nil {
		if errors.Is(err, service.ErrRegistrationFailed) {
			redirectWithFlash(w, r, "/register", session.FlashDanger, "Registration failed. Check your details and try again.")
			return
		}
		h.logger.Error("Registration failed", zap.Error(err))
		redirectWithFlash(w, r, "/register", session.FlashDanger, "Unexpected error: "+err.Error())
		return
	}

	h.logger.Info("User registered successfully", zap.Int64("user_id", user.ID))
	redirectWithFlash(w, r, "/login", session.FlashSuccess, "Registration complete. You can now log in.")
}

// Login handles user authentication. The session id is renewed and any
// cart collected so far follows the new id.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	form := LoginForm{
		Email:    strings.TrimSpace(r.PostFormValue("email")),
		Password: r.PostFormValue("password"),
	}
	if err := middleware.ValidateRequest(form); err != nil {
		h.logger.Debug("Login validation failed", zap.Error(err))
		middleware.RespondWithValidationErrors(w, middleware.FormatValidationErrors(err), map[string]string{"email": form.Email})
		return
	}

	user, err := h.userService.Login(r.Context(), form.Email, form.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			h.logger.Debug("Login failed", zap.Error(err))
			middleware.RespondWithError(w, http.StatusUnauthorized, "invalid email or password")
			return
		}
		h.logger.Error("Login failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to login")
		return
	}

	sess, ok := middleware.GetSession(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusInternalServerError, "session unavailable")
		return
	}

	oldID := h.sessions.Renew(sess)
	sess.SetPrincipal(user.Principal())
	if err := h.cartService.Rebind(r.Context(), oldID, sess.ID); err != nil {
		h.logger.Warn("Failed to move cart to renewed session", zap.Error(err))
	}

	h.logger.Info("User logged in successfully", zap.Int64("user_id", user.ID))
	redirectWithFlash(w, r, "/dashboard", session.FlashSuccess, "Welcome, "+user.Name+".")
}

// Logout destroys the session and its cart
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSession(r.Context())
	if !ok || sess.Principal() == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	userID := sess.Principal().UserID
	if err := h.cartService.Discard(r.Context(), sess.ID); err != nil {
		h.logger.Warn("Failed to discard cart", zap.Error(err))
	}
	h.sessions.Destroy(sess)

	h.logger.Info("User logged out successfully", zap.Int64("user_id", userID))
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// Dashboard shows catalog totals to administrators and a greeting to users
func (h *UserHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r.Context())
	if !principal.IsAdmin() {
		render(w, r, http.StatusOK, "Dashboard", map[string]interface{}{
			"saludo": "Hello, " + principal.Name + ".",
		})
		return
	}

	stats, err := h.statsService.Totals(r.Context())
	if err != nil {
		h.logger.Error("Failed to load dashboard totals", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to load dashboard")
		return
	}
	render(w, r, http.StatusOK, "Dashboard", stats)
}
