package app

import (
	"bytes"
	"context"
	"flag"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/drstein77/productpruner/internal/controllers"
	"github.com/drstein77/productpruner/internal/logger"
	"github.com/drstein77/productpruner/internal/models"
	"github.com/drstein77/productpruner/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"PRODUCTS_BASE_URL", "TARGET_PRODUCTS", "LOG_LEVEL", "DATABASE_URI", "RUN_ADDRESS", "REQUEST_TIMEOUT"} {
		t.Setenv(key, "")
	}
}

func TestPrune(t *testing.T) {
	clearEnv(t)
	log := logger.NewNop()
	store := storage.NewMemoryStorage(storage.SeedProducts(), log)
	srv := httptest.NewServer(controllers.NewBaseController(store, log).Route())
	defer srv.Close()

	out := &bytes.Buffer{}
	report, err := Prune(context.Background(), []string{"-u", srv.URL, "-l", "error", "-t", "Product A,Product D"}, out)
	require.NoError(t, err)

	assert.Equal(t, models.Report{Fetched: 4, Matched: 2, Deleted: 2}, report)
	assert.Contains(t, out.String(), "Searching for products: [\"Product A\" \"Product D\"]\n")
	assert.Contains(t, out.String(), "Total deleted: 2\n")
}

func TestPrune_JournalUnavailable(t *testing.T) {
	clearEnv(t)
	log := logger.NewNop()
	store := storage.NewMemoryStorage(storage.SeedProducts(), log)
	srv := httptest.NewServer(controllers.NewBaseController(store, log).Route())
	defer srv.Close()

	// A journal that cannot be reached must not stop the run.
	out := &bytes.Buffer{}
	report, err := Prune(context.Background(), []string{"-u", srv.URL, "-l", "error", "-d", "postgres://%zz"}, out)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Deleted)
}

func TestPrune_InvalidOptions(t *testing.T) {
	clearEnv(t)

	_, err := Prune(context.Background(), []string{"-u", "not a url"}, &bytes.Buffer{})
	assert.Error(t, err)

	_, err = Prune(context.Background(), []string{"-l", "chatty"}, &bytes.Buffer{})
	assert.Error(t, err)

	out := &bytes.Buffer{}
	_, err = Prune(context.Background(), []string{"-h"}, out)
	assert.ErrorIs(t, err, flag.ErrHelp)
	assert.Empty(t, out.String())
}

func TestServer_ServeStopsOnCancel(t *testing.T) {
	server := NewServer("127.0.0.1:0", storage.SeedProducts(), logger.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- server.Serve(ctx)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(shutdownTimeout + time.Second):
		t.Fatal("server did not stop")
	}
}
