package transport

import (
	"errors"
	"fmt"
	"net/http"

	"inventario/internal/domain"
	"inventario/internal/middleware"
	"inventario/internal/service"
	"inventario/internal/session"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CartHandler handles the session cart and purchase history
type CartHandler struct {
	cartService     service.CartService
	checkoutService service.CheckoutService
	logger          *zap.Logger
}

// NewCartHandler creates a new CartHandler
func NewCartHandler(cartService service.CartService, checkoutService service.CheckoutService, logger *zap.Logger) *CartHandler {
	return &CartHandler{
		cartService:     cartService,
		checkoutService: checkoutService,
		logger:          logger,
	}
}

// RegisterRoutes registers cart and history routes
func (h *CartHandler) RegisterRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.Authorize(domain.ActionUseCart, h.logger))
		r.Post("/agregar_al_carrito/{id}", h.Add)
		r.Get("/carrito", h.View)
		r.Get("/carrito/eliminar/{id}", h.Remove)
		r.Get("/carrito/vaciar", h.Clear)
	})

	r.With(middleware.Authorize(domain.ActionPurchase, h.logger)).Post("/carrito/comprar", h.Checkout)
	r.With(middleware.Authorize(domain.ActionViewHistory, h.logger)).Get("/mis-compras", h.History)
}

// sessionID returns the id of the session owning the cart
func sessionID(r *http.Request) string {
	if sess, ok := middleware.GetSession(r.Context()); ok {
		return sess.ID
	}
	return ""
}

// Add handles POST /agregar_al_carrito/{id}
func (h *CartHandler) Add(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	quantity, err := parseQuantity(r)
	if err != nil {
		kind, msg := checkoutFlash(err)
		redirectWithFlash(w, r, "/productos", kind, msg)
		return
	}

	principal := middleware.GetPrincipal(r.Context())
	line, err := h.cartService.Add(r.Context(), principal, sessionID(r), id, quantity)
	if err != nil {
		kind, msg := checkoutFlash(err)
		if kind == session.FlashDanger {
			h.logger.Error("Failed to add to cart", zap.Int64("product_id", id), zap.Error(err))
		}
		redirectWithFlash(w, r, "/productos", kind, msg)
		return
	}

	redirectWithFlash(w, r, "/productos", session.FlashSuccess,
		fmt.Sprintf("Added %d x %s to the cart (%d in cart).", quantity, line.Name, line.Quantity))
}

// View handles GET /carrito
func (h *CartHandler) View(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r.Context())
	view, err := h.cartService.View(r.Context(), principal, sessionID(r))
	if err != nil {
		h.logger.Error("Failed to load cart", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to load cart")
		return
	}
	render(w, r, http.StatusOK, "Cart", view)
}

// Remove handles GET /carrito/eliminar/{id}
func (h *CartHandler) Remove(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	principal := middleware.GetPrincipal(r.Context())
	err := h.cartService.Remove(r.Context(), principal, sessionID(r), id)
	switch {
	case err == nil:
		redirectWithFlash(w, r, "/carrito", session.FlashInfo, "Product removed from the cart.")
	case errors.Is(err, service.ErrCartLineNotFound):
		redirectWithFlash(w, r, "/carrito", session.FlashWarning, "Product not found in the cart.")
	default:
		h.logger.Error("Failed to remove cart line", zap.Int64("product_id", id), zap.Error(err))
		redirectWithFlash(w, r, "/carrito", session.FlashDanger, "Unexpected error: "+err.Error())
	}
}

// Clear handles GET /carrito/vaciar
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r.Context())
	if err := h.cartService.Clear(r.Context(), principal, sessionID(r)); err != nil {
		h.logger.Error("Failed to clear cart", zap.Error(err))
		redirectWithFlash(w, r, "/carrito", session.FlashDanger, "Unexpected error: "+err.Error())
		return
	}
	redirectWithFlash(w, r, "/carrito", session.FlashInfo, "The cart was emptied.")
}

// Checkout handles POST /carrito/comprar
func (h *CartHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r.Context())
	purchases, err := h.cartService.Checkout(r.Context(), principal, sessionID(r))
	if err != nil {
		kind, msg := checkoutFlash(err)
		redirectWithFlash(w, r, "/carrito", kind, msg)
		return
	}

	redirectWithFlash(w, r, "/mis-compras", session.FlashSuccess,
		fmt.Sprintf("Purchase completed: %d product(s).", len(purchases)))
}

// History handles GET /mis-compras
func (h *CartHandler) History(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r.Context())
	entries, err := h.checkoutService.History(r.Context(), principal)
	if err != nil {
		h.logger.Error("Failed to load purchase history", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to load purchase history")
		return
	}
	if entries == nil {
		entries = []*domain.PurchaseHistoryEntry{}
	}
	render(w, r, http.StatusOK, "My purchases", map[string]interface{}{"compras": entries})
}
