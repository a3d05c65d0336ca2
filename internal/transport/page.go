package transport

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"inventario/internal/domain"
	"inventario/internal/middleware"
	"inventario/internal/repository"
	"inventario/internal/service"
	"inventario/internal/session"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

// Page is the envelope every GET endpoint renders
type Page struct {
	Title   string            `json:"title"`
	User    *domain.Principal `json:"user"`
	Flashes []session.Flash   `json:"flashes"`
	Data    interface{}       `json:"data,omitempty"`
}

// render writes a page and consumes the pending flashes of the session
func render(w http.ResponseWriter, r *http.Request, status int, title string, data interface{}) {
	page := Page{
		Title:   title,
		User:    middleware.GetPrincipal(r.Context()),
		Flashes: []session.Flash{},
		Data:    data,
	}
	if sess, ok := middleware.GetSession(r.Context()); ok {
		page.Flashes = sess.PopFlashes()
	}
	middleware.RespondWithJSON(w, status, page)
}

// redirectWithFlash queues a flash and answers 303 to target
func redirectWithFlash(w http.ResponseWriter, r *http.Request, target, kind, message string) {
	if sess, ok := middleware.GetSession(r.Context()); ok {
		sess.AddFlash(kind, message)
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// pathID parses the {id} URL parameter. Unknown ids are answered with 404.
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		middleware.RespondWithError(w, http.StatusNotFound, "not found")
		return 0, false
	}
	return id, true
}

// formValues collects the submitted values of the named fields
func formValues(r *http.Request, fields ...string) map[string]string {
	values := make(map[string]string, len(fields))
	for _, f := range fields {
		values[f] = r.PostFormValue(f)
	}
	return values
}

// parseQuantity reads the cantidad field, defaulting to 1 when absent
func parseQuantity(r *http.Request) (int, error) {
	raw := strings.TrimSpace(r.PostFormValue("cantidad"))
	if raw == "" {
		return 1, nil
	}
	q, err := strconv.Atoi(raw)
	if err != nil || q < 1 {
		return 0, service.ErrInvalidQuantity
	}
	return q, nil
}

func parseInt(values map[string]string, field string, errs *[]middleware.ValidationError) int {
	raw := strings.TrimSpace(values[field])
	if raw == "" {
		*errs = append(*errs, middleware.ValidationError{Field: field, Message: "This field is required"})
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		*errs = append(*errs, middleware.ValidationError{Field: field, Message: "Must be a whole number"})
	}
	return n
}

func parseDecimal(values map[string]string, field string, errs *[]middleware.ValidationError) decimal.Decimal {
	raw := strings.TrimSpace(values[field])
	if raw == "" {
		*errs = append(*errs, middleware.ValidationError{Field: field, Message: "This field is required"})
		return decimal.Zero
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		*errs = append(*errs, middleware.ValidationError{Field: field, Message: "Must be a number"})
	}
	return d
}

// checkoutFlash turns a purchase failure into the flash shown to the buyer
func checkoutFlash(err error) (string, string) {
	var stockErr *domain.InsufficientStockError
	var goneErr *domain.ProductUnavailableError
	switch {
	case errors.As(err, &stockErr):
		return session.FlashWarning, fmt.Sprintf("Not enough stock for %s: requested %d, only %d available.",
			stockErr.Name, stockErr.Requested, stockErr.Available)
	case errors.As(err, &goneErr):
		return session.FlashWarning, fmt.Sprintf("%s is no longer available.", goneErr.Name)
	case errors.Is(err, domain.ErrAdminCannotPurchase):
		return session.FlashWarning, "Administrators cannot purchase products."
	case errors.Is(err, repository.ErrProductNotFound):
		return session.FlashWarning, "Product not found."
	case errors.Is(err, service.ErrInvalidQuantity):
		return session.FlashWarning, "Quantity must be a positive integer."
	case errors.Is(err, service.ErrEmptyCart):
		return session.FlashInfo, "Your cart is empty."
	default:
		return session.FlashDanger, "Unexpected error: " + err.Error()
	}
}
