package transport

import (
	"errors"
	"net/http"
	"strings"

	"inventario/internal/domain"
	"inventario/internal/middleware"
	"inventario/internal/repository"
	"inventario/internal/service"
	"inventario/internal/session"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

var customerFields = []string{"nombre", "direccion", "correo_electronico"}

// CustomerForm is the submitted customer form
type CustomerForm struct {
	Name    string `form:"nombre" validate:"required,max=120"`
	Address string `form:"direccion" validate:"required,max=200"`
	Email   string `form:"correo_electronico" validate:"required,email,max=120"`
}

func parseCustomerForm(values map[string]string) (CustomerForm, []middleware.ValidationError) {
	form := CustomerForm{
		Name:    strings.TrimSpace(values["nombre"]),
		Address: strings.TrimSpace(values["direccion"]),
		Email:   strings.TrimSpace(values["correo_electronico"]),
	}
	if err := middleware.ValidateRequest(form); err != nil {
		return form, middleware.FormatValidationErrors(err)
	}
	return form, nil
}

// CustomerHandler handles HTTP requests for customers
type CustomerHandler struct {
	customerService service.CustomerService
	logger          *zap.Logger
}

// NewCustomerHandler creates a new CustomerHandler
func NewCustomerHandler(customerService service.CustomerService, logger *zap.Logger) *CustomerHandler {
	return &CustomerHandler{
		customerService: customerService,
		logger:          logger,
	}
}

// RegisterRoutes registers all customer routes
func (h *CustomerHandler) RegisterRoutes(r chi.Router) {
	r.Get("/clientes", h.List)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Authorize(domain.ActionManageCatalog, h.logger))
		r.Get("/clientes/nuevo", h.NewForm)
		r.Post("/clientes/nuevo", h.Create)
		r.Get("/clientes/{id}/editar", h.EditForm)
		r.Post("/clientes/{id}/editar", h.Update)
		r.Post("/clientes/{id}/eliminar", h.Delete)
	})
}

// List handles GET /clientes
func (h *CustomerHandler) List(w http.ResponseWriter, r *http.Request) {
	customers, err := h.customerService.List(r.Context())
	if err != nil {
		h.logger.Error("Failed to list customers", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list customers")
		return
	}
	if customers == nil {
		customers = []*domain.Customer{}
	}
	render(w, r, http.StatusOK, "Customers", map[string]interface{}{"clientes": customers})
}

// NewForm handles GET /clientes/nuevo
func (h *CustomerHandler) NewForm(w http.ResponseWriter, r *http.Request) {
	render(w, r, http.StatusOK, "New customer", map[string]interface{}{
		"modo":   "crear",
		"campos": customerFields,
	})
}

// Create handles POST /clientes/nuevo
func (h *CustomerHandler) Create(w http.ResponseWriter, r *http.Request) {
	values := formValues(r, customerFields...)
	form, errs := parseCustomerForm(values)
	if len(errs) > 0 {
		middleware.RespondWithValidationErrors(w, errs, values)
		return
	}

	customer, err := h.customerService.Create(r.Context(), service.CustomerInput(form))
	if err != nil {
		h.customerWriteError(w, err, values)
		return
	}

	h.logger.Info("Customer created", zap.Int64("customer_id", customer.ID))
	redirectWithFlash(w, r, "/clientes", session.FlashSuccess, "Customer added.")
}

// EditForm handles GET /clientes/{id}/editar
func (h *CustomerHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	customer, err := h.customerService.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrCustomerNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "customer not found")
			return
		}
		h.logger.Error("Failed to load customer", zap.Int64("customer_id", id), zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to load customer")
		return
	}

	render(w, r, http.StatusOK, "Edit customer", map[string]interface{}{
		"modo":    "editar",
		"cliente": customer,
	})
}

// Update handles POST /clientes/{id}/editar
func (h *CustomerHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	values := formValues(r, customerFields...)
	form, errs := parseCustomerForm(values)
	if len(errs) > 0 {
		middleware.RespondWithValidationErrors(w, errs, values)
		return
	}

	if _, err := h.customerService.Update(r.Context(), id, service.CustomerInput(form)); err != nil {
		if errors.Is(err, repository.ErrCustomerNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "customer not found")
			return
		}
		h.customerWriteError(w, err, values)
		return
	}

	h.logger.Info("Customer updated", zap.Int64("customer_id", id))
	redirectWithFlash(w, r, "/clientes", session.FlashSuccess, "Customer updated.")
}

// Delete handles POST /clientes/{id}/eliminar
func (h *CustomerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	err := h.customerService.Delete(r.Context(), id)
	switch {
	case err == nil:
		redirectWithFlash(w, r, "/clientes", session.FlashInfo, "Customer deleted.")
	case errors.Is(err, repository.ErrCustomerNotFound):
		redirectWithFlash(w, r, "/clientes", session.FlashWarning, "Customer not found.")
	default:
		h.logger.Error("Failed to delete customer", zap.Int64("customer_id", id), zap.Error(err))
		redirectWithFlash(w, r, "/clientes", session.FlashDanger, "Unexpected error: "+err.Error())
	}
}

func (h *CustomerHandler) customerWriteError(w http.ResponseWriter, err error, values map[string]string) {
	switch {
	case errors.Is(err, repository.ErrCustomerAlreadyExists):
		middleware.RespondWithValidationErrors(w, middleware.FieldError("correo_electronico", "A customer with this email already exists"), values)
	case errors.Is(err, service.ErrInvalidCustomer):
		middleware.RespondWithValidationErrors(w, middleware.FieldError("nombre", err.Error()), values)
	default:
		h.logger.Error("Failed to save customer", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "Unexpected error: "+err.Error())
	}
}
