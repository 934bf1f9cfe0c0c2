// Package pruner removes products whose names are in a target set from the
// product service and reports what it did on an operator-facing writer.
package pruner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/drstein77/productpruner/internal/catalog"
	"github.com/drstein77/productpruner/internal/models"
	"go.uber.org/zap"
)

// Catalog is the product service as seen by the pruner.
type Catalog interface {
	ListProducts(context.Context) ([]models.Product, error)
	DeleteProduct(context.Context, models.ProductID) (int, error)
}

// Journal records delete attempts. Optional.
type Journal interface {
	RecordDeletion(context.Context, models.Deletion) error
}

type Log interface {
	Info(string, ...zap.Field)
	Warn(string, ...zap.Field)
	Error(string, ...zap.Field)
}

type Pruner struct {
	catalog Catalog
	journal Journal
	targets []string
	lookup  map[string]struct{}
	out     io.Writer
	log     Log
}

type Option func(*Pruner)

// WithJournal makes the pruner record every delete attempt.
func WithJournal(j Journal) Option {
	return func(p *Pruner) {
		p.journal = j
	}
}

func NewPruner(c Catalog, targets []string, out io.Writer, log Log, opts ...Option) *Pruner {
	p := &Pruner{
		catalog: c,
		targets: targets,
		lookup:  make(map[string]struct{}, len(targets)),
		out:     out,
		log:     log,
	}
	for _, name := range targets {
		p.lookup[name] = struct{}{}
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ListProducts never fails: any error is reported and yields an empty list,
// so a failed fetch looks the same as an empty catalogue.
func (p *Pruner) ListProducts(ctx context.Context) []models.Product {
	products, err := p.catalog.ListProducts(ctx)
	if err != nil {
		p.printf("Error fetching products: %v\n", err)
		p.log.Error("Failed to fetch products", zap.Error(err))
		return []models.Product{}
	}
	return products
}

// DeleteProduct reports whether the product service confirmed the delete.
func (p *Pruner) DeleteProduct(ctx context.Context, id models.ProductID) bool {
	ok, _ := p.deleteProduct(ctx, models.Product{ID: id})
	return ok
}

func (p *Pruner) deleteProduct(ctx context.Context, product models.Product) (bool, models.Deletion) {
	id := product.ID
	d := models.Deletion{ProductID: id, ProductName: product.Name}

	code, err := p.catalog.DeleteProduct(ctx, id)
	d.StatusCode = code
	d.DeletedAt = time.Now().UTC()

	var statusErr *catalog.StatusError
	switch {
	case err == nil:
		d.Success = true
		p.printf("✅ Successfully deleted Product ID: %s\n", id)
	case errors.As(err, &statusErr) && statusErr.Code >= http.StatusMultipleChoices:
		d.Reason = statusErr.Reason
		p.printf("❌ Failed to delete Product ID: %s. Status: %d, Reason: %s\n", id, statusErr.Code, statusErr.Reason)
	case errors.As(err, &statusErr):
		d.Reason = statusErr.Reason
		p.printf("❌ Failed to delete Product ID: %s. Status: %d\n", id, statusErr.Code)
	default:
		d.Reason = err.Error()
		p.printf("Error deleting product %s: %v\n", id, err)
		p.log.Warn("Delete request failed", zap.String("id", id.String()), zap.Error(err))
	}

	return d.Success, d
}

// Run lists the products, deletes every product whose name is exactly one
// of the targets, in service order, and prints the total.
func (p *Pruner) Run(ctx context.Context) models.Report {
	var report models.Report

	products := p.ListProducts(ctx)
	if len(products) == 0 {
		p.printf("No products found.\n")
		return report
	}
	report.Fetched = len(products)

	p.printf("Searching for products: %q\n", p.targets)

	for _, product := range products {
		if ctx.Err() != nil {
			p.log.Warn("Pruning interrupted", zap.Error(ctx.Err()))
			break
		}
		if _, ok := p.lookup[product.Name]; !ok {
			continue
		}
		report.Matched++

		p.printf("Found target: %s (ID: %s)\n", product.Name, product.ID)
		ok, d := p.deleteProduct(ctx, product)
		if ok {
			report.Deleted++
		} else {
			report.Failed++
		}
		p.record(ctx, d)
	}

	p.printf("Total deleted: %d\n", report.Deleted)
	p.log.Info("Pruning finished",
		zap.Int("fetched", report.Fetched),
		zap.Int("matched", report.Matched),
		zap.Int("deleted", report.Deleted),
		zap.Int("failed", report.Failed),
	)
	return report
}

func (p *Pruner) record(ctx context.Context, d models.Deletion) {
	if p.journal == nil {
		return
	}
	if err := p.journal.RecordDeletion(context.WithoutCancel(ctx), d); err != nil {
		p.log.Warn("Deletion not journaled", zap.String("id", d.ProductID.String()), zap.Error(err))
	}
}

func (p *Pruner) printf(format string, args ...any) {
	if _, err := fmt.Fprintf(p.out, format, args...); err != nil {
		p.log.Error("Failed to write report", zap.Error(err))
	}
}
