package transport

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"inventario/internal/domain"
	"inventario/internal/middleware"
	"inventario/internal/repository"
	"inventario/internal/service"
	"inventario/internal/session"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var productFields = []string{"nombre", "cantidad", "precio"}

// ProductForm is the submitted product form
type ProductForm struct {
	Name     string          `form:"nombre" validate:"required,max=120"`
	Quantity int             `form:"cantidad" validate:"gte=0,lte=2147483647"`
	Price    decimal.Decimal `form:"precio" validate:"gte=0,lte=99999999.99"`
}

func (f ProductForm) input() service.ProductInput {
	return service.ProductInput{Name: f.Name, Quantity: f.Quantity, Price: f.Price}
}

func parseProductForm(values map[string]string) (ProductForm, []middleware.ValidationError) {
	var errs []middleware.ValidationError
	form := ProductForm{
		Name:     strings.TrimSpace(values["nombre"]),
		Quantity: parseInt(values, "cantidad", &errs),
		Price:    parseDecimal(values, "precio", &errs),
	}
	if err := middleware.ValidateRequest(form); err != nil {
		errs = append(errs, middleware.FormatValidationErrors(err)...)
	}
	return form, errs
}

// ProductHandler handles HTTP requests for the product catalog
type ProductHandler struct {
	productService  service.ProductService
	checkoutService service.CheckoutService
	logger          *zap.Logger
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(productService service.ProductService, checkoutService service.CheckoutService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		productService:  productService,
		checkoutService: checkoutService,
		logger:          logger,
	}
}

// RegisterRoutes registers all product routes
func (h *ProductHandler) RegisterRoutes(r chi.Router) {
	r.Get("/productos", h.List)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Authorize(domain.ActionManageCatalog, h.logger))
		r.Get("/productos/nuevo", h.NewForm)
		r.Post("/productos/nuevo", h.Create)
		r.Get("/productos/{id}/editar", h.EditForm)
		r.Post("/productos/{id}/editar", h.Update)
		r.Post("/productos/{id}/eliminar", h.Delete)
	})

	r.With(middleware.Authorize(domain.ActionPurchase, h.logger)).Post("/productos/{id}/comprar", h.Purchase)
}

// List handles GET /productos with an optional q name filter
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))

	products, err := h.productService.List(r.Context(), q)
	if err != nil {
		h.logger.Error("Failed to list products", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list products")
		return
	}
	if products == nil {
		products = []*domain.Product{}
	}

	render(w, r, http.StatusOK, "Products", map[string]interface{}{
		"productos": products,
		"q":         q,
	})
}

// NewForm handles GET /productos/nuevo
func (h *ProductHandler) NewForm(w http.ResponseWriter, r *http.Request) {
	render(w, r, http.StatusOK, "New product", map[string]interface{}{
		"modo":   "crear",
		"campos": productFields,
	})
}

// Create handles POST /productos/nuevo
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	values := formValues(r, productFields...)
	form, errs := parseProductForm(values)
	if len(errs) > 0 {
		middleware.RespondWithValidationErrors(w, errs, values)
		return
	}

	product, err := h.productService.Create(r.Context(), form.input())
	if err != nil {
		h.productWriteError(w, err, values)
		return
	}

	h.logger.Info("Product created", zap.Int64("product_id", product.ID))
	redirectWithFlash(w, r, "/productos", session.FlashSuccess, "Product added.")
}

// EditForm handles GET /productos/{id}/editar
func (h *ProductHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	product, err := h.productService.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
			return
		}
		h.logger.Error("Failed to load product", zap.Int64("product_id", id), zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to load product")
		return
	}

	render(w, r, http.StatusOK, "Edit product", map[string]interface{}{
		"modo":     "editar",
		"producto": product,
	})
}

// Update handles POST /productos/{id}/editar
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	values := formValues(r, productFields...)
	form, errs := parseProductForm(values)
	if len(errs) > 0 {
		middleware.RespondWithValidationErrors(w, errs, values)
		return
	}

	if _, err := h.productService.Update(r.Context(), id, form.input()); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
			return
		}
		h.productWriteError(w, err, values)
		return
	}

	h.logger.Info("Product updated", zap.Int64("product_id", id))
	redirectWithFlash(w, r, "/productos", session.FlashSuccess, "Product updated.")
}

func (h *ProductHandler) productWriteError(w http.ResponseWriter, err error, values map[string]string) {
	switch {
	case errors.Is(err, repository.ErrProductAlreadyExists):
		middleware.RespondWithValidationErrors(w, middleware.FieldError("nombre", "A product with this name already exists"), values)
	case errors.Is(err, service.ErrInvalidProduct):
		middleware.RespondWithValidationErrors(w, middleware.FieldError("nombre", err.Error()), values)
	default:
		h.logger.Error("Failed to save product", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "Unexpected error: "+err.Error())
	}
}

// Delete handles POST /productos/{id}/eliminar
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	err := h.productService.Delete(r.Context(), id)
	switch {
	case err == nil:
		h.logger.Info("Product deleted", zap.Int64("product_id", id))
		redirectWithFlash(w, r, "/productos", session.FlashInfo, "Product deleted.")
	case errors.Is(err, repository.ErrProductNotFound):
		redirectWithFlash(w, r, "/productos", session.FlashWarning, "Product not found.")
	case errors.Is(err, repository.ErrProductInUse):
		redirectWithFlash(w, r, "/productos", session.FlashWarning, "Product has purchases and cannot be deleted.")
	default:
		h.logger.Error("Failed to delete product", zap.Int64("product_id", id), zap.Error(err))
		redirectWithFlash(w, r, "/productos", session.FlashDanger, "Unexpected error: "+err.Error())
	}
}

// Purchase handles POST /productos/{id}/comprar
func (h *ProductHandler) Purchase(w http.ResponseWriter, r *http.Request) {
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
	purchase, err := h.checkoutService.PurchaseProduct(r.Context(), principal, id, quantity)
	if err != nil {
		kind, msg := checkoutFlash(err)
		redirectWithFlash(w, r, "/productos", kind, msg)
		return
	}

	redirectWithFlash(w, r, "/productos", session.FlashSuccess,
		fmt.Sprintf("Purchase recorded: %d unit(s) of product %d.", purchase.Quantity, purchase.ProductID))
}
