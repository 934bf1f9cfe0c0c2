package storage

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/drstein77/productpruner/internal/models"
	"go.uber.org/zap"
)

// ErrConflict indicates a data conflict in the store.
var (
	ErrConflict = errors.New("data conflict")
	ErrNotFound = errors.New("not found")
)

type Log interface {
	Info(string, ...zap.Field)
}

// MemoryStorage represents an in-memory product store with locking mechanisms.
// Products keep their insertion order.
type MemoryStorage struct {
	mx       sync.RWMutex
	products []models.Product

	log Log
}

// SeedProducts is the catalogue the stub service starts with.
func SeedProducts() []models.Product {
	return []models.Product{
		{ID: "1", Name: "Product A"},
		{ID: "2", Name: "Product B"},
		{ID: "3", Name: "Product C"},
		{ID: "4", Name: "Product D"},
	}
}

// NewMemoryStorage creates a new MemoryStorage instance loaded with products.
// Products repeating an already loaded id are skipped.
func NewMemoryStorage(products []models.Product, log Log) *MemoryStorage {
	s := &MemoryStorage{
		products: make([]models.Product, 0, len(products)),
		log:      log,
	}

	for _, product := range products {
		if err := s.AddProduct(context.Background(), product); err != nil {
			log.Info("cannot load product: ", zap.String("id", product.ID.String()), zap.Error(err))
		}
	}
	log.Info("Loaded products", zap.Int("count", len(s.products)))

	return s
}

func (s *MemoryStorage) GetAllProducts(ctx context.Context) ([]models.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mx.RLock()
	defer s.mx.RUnlock()

	products := make([]models.Product, len(s.products))
	copy(products, s.products)
	return products, nil
}

func (s *MemoryStorage) AddProduct(ctx context.Context, product models.Product) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mx.Lock()
	defer s.mx.Unlock()

	if slices.ContainsFunc(s.products, func(p models.Product) bool { return p.ID == product.ID }) {
		return ErrConflict
	}
	s.products = append(s.products, product)
	return nil
}

func (s *MemoryStorage) DeleteProduct(ctx context.Context, id models.ProductID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mx.Lock()
	defer s.mx.Unlock()

	idx := slices.IndexFunc(s.products, func(p models.Product) bool { return p.ID == id })
	if idx < 0 {
		return ErrNotFound
	}
	s.products = slices.Delete(s.products, idx, idx+1)
	s.log.Info("Product removed", zap.String("id", id.String()))
	return nil
}
