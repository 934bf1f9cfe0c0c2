package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/drstein77/productpruner/internal/catalog"
	"github.com/drstein77/productpruner/internal/config"
	"github.com/drstein77/productpruner/internal/controllers"
	"github.com/drstein77/productpruner/internal/dbkeeper"
	"github.com/drstein77/productpruner/internal/logger"
	"github.com/drstein77/productpruner/internal/models"
	"github.com/drstein77/productpruner/internal/pruner"
	"github.com/drstein77/productpruner/internal/storage"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

// Prune parses args, connects the optional journal and runs one pruning
// pass, writing the operator report to out.
func Prune(ctx context.Context, args []string, out io.Writer) (models.Report, error) {
	option := config.NewOptions()
	if err := option.ParseFlags("productpruner", args); err != nil {
		return models.Report{}, err
	}

	nLogger, err := logger.NewLogger(option.LogLevel())
	if err != nil {
		return models.Report{}, err
	}
	defer nLogger.Sync()

	var opts []pruner.Option
	if option.DataBaseDSN() != "" {
		keeper, err := dbkeeper.NewDBKeeper(ctx, option.DataBaseDSN, nLogger)
		switch {
		case err != nil:
			nLogger.Warn("Deletion journal disabled", zap.Error(err))
		case !keeper.Ping(ctx):
			nLogger.Warn("Deletion journal disabled, database is unreachable")
			keeper.Close()
		default:
			defer keeper.Close()
			opts = append(opts, pruner.WithJournal(keeper))
		}
	}

	client := catalog.NewClient(option.BaseURL(), option.Timeout(), nLogger)
	p := pruner.NewPruner(client, option.Targets(), out, nLogger, opts...)

	nLogger.Info("Pruning products",
		zap.String("base_url", option.BaseURL()),
		zap.Strings("targets", option.Targets()),
	)
	return p.Run(ctx), nil
}

type Server struct {
	srv *http.Server
	log *logger.Logger
}

// NewServer creates the stub product service seeded with products.
func NewServer(addr string, products []models.Product, log *logger.Logger) *Server {
	store := storage.NewMemoryStorage(products, log)
	basecontr := controllers.NewBaseController(store, log)

	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           basecontr.Route(),
			ReadHeaderTimeout: 10 * time.Second,
		},
		log: log,
	}
}

// Serve blocks until ctx is cancelled or the listener fails, then shuts the
// server down gracefully.
func (server *Server) Serve(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		server.log.Info("Product service listening", zap.String("addr", server.srv.Addr))
		if err := server.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		return server.Shutdown(shutdownTimeout)
	})

	return g.Wait()
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (server *Server) Shutdown(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.srv.Shutdown(ctx); err != nil {
		server.log.Error("Server shutdown failed", zap.Error(err))
		return err
	}
	server.log.Info("Server stopped")
	return nil
}

// ServeStub parses args and runs the stub product service until ctx ends.
func ServeStub(ctx context.Context, args []string) error {
	option := config.NewOptions()
	if err := option.ParseFlags("productstub", args); err != nil {
		return err
	}

	nLogger, err := logger.NewLogger(option.LogLevel())
	if err != nil {
		return err
	}
	defer nLogger.Sync()

	return NewServer(option.RunAddr(), storage.SeedProducts(), nLogger).Serve(ctx)
}
