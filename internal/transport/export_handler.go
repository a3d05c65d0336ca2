package transport

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"inventario/internal/domain"
	"inventario/internal/flatfile"
	"inventario/internal/middleware"
	"inventario/internal/service"
	"inventario/internal/session"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ExportHandler snapshots the catalog to flat files and shows them back.
// The files are never read into the database.
type ExportHandler struct {
	productService service.ProductService
	store          *flatfile.Store
	logger         *zap.Logger
}

// NewExportHandler creates a new ExportHandler
func NewExportHandler(productService service.ProductService, store *flatfile.Store, logger *zap.Logger) *ExportHandler {
	return &ExportHandler{
		productService: productService,
		store:          store,
		logger:         logger,
	}
}

// RegisterRoutes registers one save and one load route per format
func (h *ExportHandler) RegisterRoutes(r chi.Router) {
	r.Get("/leer-datos", h.Index)

	manage := middleware.Authorize(domain.ActionManageCatalog, h.logger)
	for _, format := range flatfile.Formats {
		r.With(manage).Post("/productos/"+string(format)+"/guardar", h.save(format))
		r.Get("/productos/"+string(format)+"/cargar", h.load(format))
	}
}

// Index lists the available formats and their routes
func (h *ExportHandler) Index(w http.ResponseWriter, r *http.Request) {
	formats := make([]map[string]string, 0, len(flatfile.Formats))
	for _, format := range flatfile.Formats {
		formats = append(formats, map[string]string{
			"formato": string(format),
			"archivo": format.Filename(),
			"guardar": "/productos/" + string(format) + "/guardar",
			"cargar":  "/productos/" + string(format) + "/cargar",
		})
	}
	render(w, r, http.StatusOK, "Data files", map[string]interface{}{"formatos": formats})
}

func (h *ExportHandler) save(format flatfile.Format) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		products, err := h.productService.List(r.Context(), "")
		if err != nil {
			h.logger.Error("Failed to list products for export", zap.Error(err))
			redirectWithFlash(w, r, "/productos", session.FlashDanger, "Unexpected error: "+err.Error())
			return
		}

		if err := h.store.Save(format, flatfile.FromProducts(products)); err != nil {
			h.logger.Error("Failed to save export",
				zap.String("format", string(format)),
				zap.Error(err),
			)
			kind := session.FlashDanger
			if errors.Is(err, flatfile.ErrUnencodable) {
				kind = session.FlashWarning
			}
			redirectWithFlash(w, r, "/productos", kind, "Could not save products: "+err.Error())
			return
		}

		h.logger.Info("Products exported",
			zap.String("format", string(format)),
			zap.Int("count", len(products)),
		)
		redirectWithFlash(w, r, "/productos", session.FlashSuccess,
			fmt.Sprintf("Products saved to %s.", strings.ToUpper(string(format))))
	}
}

func (h *ExportHandler) load(format flatfile.Format) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		title := "Contents of " + format.Filename()

		raw, err := h.store.Raw(format)
		if errors.Is(err, flatfile.ErrFileNotFound) {
			if sess, ok := middleware.GetSession(r.Context()); ok {
				sess.AddFlash(session.FlashInfo, "File "+format.Filename()+" not found.")
			}
			render(w, r, http.StatusOK, title, map[string]interface{}{
				"archivo":   format.Filename(),
				"contenido": "",
				"productos": []flatfile.Record{},
			})
			return
		}
		if err != nil {
			h.logger.Error("Failed to read export", zap.String("format", string(format)), zap.Error(err))
			middleware.RespondWithError(w, http.StatusInternalServerError, "failed to read "+format.Filename())
			return
		}

		records, err := h.store.Load(format)
		data := map[string]interface{}{
			"archivo":   format.Filename(),
			"contenido": raw,
			"productos": records,
		}
		if err != nil {
			h.logger.Warn("Export file is malformed", zap.String("format", string(format)), zap.Error(err))
			data["productos"] = []flatfile.Record{}
			data["error"] = err.Error()
		} else if records == nil {
			data["productos"] = []flatfile.Record{}
		}
		render(w, r, http.StatusOK, title, data)
	}
}
