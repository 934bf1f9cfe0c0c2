package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/drstein77/productpruner/internal/middleware"
	"github.com/drstein77/productpruner/internal/models"
	"github.com/drstein77/productpruner/internal/storage"
	"github.com/go-chi/chi"
	"go.uber.org/zap"
)

// Storage interface for product operations
type Storage interface {
	GetAllProducts(context.Context) ([]models.Product, error)
	DeleteProduct(context.Context, models.ProductID) error
}

// Log interface for logging
type Log interface {
	Info(string, ...zap.Field)
}

// BaseController serves the product endpoints the pruner consumes.
type BaseController struct {
	storage Storage
	log     Log
}

// NewBaseController creates a new BaseController instance
func NewBaseController(storage Storage, log Log) *BaseController {
	return &BaseController{
		storage: storage,
		log:     log,
	}
}

// Route sets up the routes for the BaseController
func (h *BaseController) Route() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestLogger(h.log))

	r.Get("/products", h.getProducts)
	r.Delete("/products/{id}", h.deleteProduct)

	return r
}

func (h *BaseController) getProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.storage.GetAllProducts(r.Context())
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to retrieve products: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(products); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

func (h *BaseController) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id := models.ProductID(chi.URLParam(r, "id"))

	err := h.storage.DeleteProduct(r.Context(), id)
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, storage.ErrNotFound):
		http.Error(w, fmt.Sprintf("product %s not found", id), http.StatusNotFound)
	default:
		http.Error(w, fmt.Sprintf("Failed to delete product: %v", err), http.StatusInternalServerError)
	}
}
