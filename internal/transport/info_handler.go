package transport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// InfoHandler serves the static informational pages
type InfoHandler struct{}

// NewInfoHandler creates a new InfoHandler
func NewInfoHandler() *InfoHandler {
	return &InfoHandler{}
}

// RegisterRoutes registers the informational routes
func (h *InfoHandler) RegisterRoutes(r chi.Router) {
	r.Get("/about", h.About)
	r.Get("/usuario/{nombre}", h.Greet)
}

// About describes the application
func (h *InfoHandler) About(w http.ResponseWriter, r *http.Request) {
	render(w, r, http.StatusOK, "About", map[string]interface{}{
		"aplicacion":  "inventario",
		"descripcion": "Product catalog, customers, shopping cart and purchase history.",
		"formatos":    []string{"txt", "json", "csv"},
	})
}

// Greet welcomes the name given in the path
func (h *InfoHandler) Greet(w http.ResponseWriter, r *http.Request) {
	render(w, r, http.StatusOK, "Welcome", map[string]string{
		"saludo": "Welcome, " + chi.URLParam(r, "nombre") + "!",
	})
}
