package controllers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/drstein77/productpruner/internal/logger"
	"github.com/drstein77/productpruner/internal/models"
	"github.com/drstein77/productpruner/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type brokenStorage struct{}

func (brokenStorage) GetAllProducts(context.Context) ([]models.Product, error) {
	return nil, errors.New("disk on fire")
}

func (brokenStorage) DeleteProduct(context.Context, models.ProductID) error {
	return errors.New("disk on fire")
}

func TestBaseController(t *testing.T) {
	log := logger.NewNop()
	store := storage.NewMemoryStorage([]models.Product{{ID: "3", Name: "Product C"}}, log)
	router := NewBaseController(store, log).Route()

	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
		wantBody   string
	}{
		{name: "list", method: http.MethodGet, path: "/products", wantStatus: http.StatusOK, wantBody: `[{"id":3,"name":"Product C"}]`},
		{name: "delete", method: http.MethodDelete, path: "/products/3", wantStatus: http.StatusNoContent},
		{name: "delete again", method: http.MethodDelete, path: "/products/3", wantStatus: http.StatusNotFound},
		{name: "list after delete", method: http.MethodGet, path: "/products", wantStatus: http.StatusOK, wantBody: `[]`},
		{name: "unknown route", method: http.MethodGet, path: "/orders", wantStatus: http.StatusNotFound},
		{name: "wrong method", method: http.MethodPost, path: "/products", wantStatus: http.StatusMethodNotAllowed},
	}

	// Cases run in order against the same store.
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))

			require.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantBody != "" {
				assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
				assert.JSONEq(t, tt.wantBody, rec.Body.String())
			}
		})
	}
}

func TestBaseController_StorageErrors(t *testing.T) {
	router := NewBaseController(brokenStorage{}, logger.NewNop()).Route()

	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		path := "/products"
		if method == http.MethodDelete {
			path = "/products/1"
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
		assert.Equal(t, http.StatusInternalServerError, rec.Code, method)
	}
}
