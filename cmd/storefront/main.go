package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/batuhanyalcin/storefront/internal/api"
	cartapp "github.com/batuhanyalcin/storefront/internal/cart/app"
	cartsync "github.com/batuhanyalcin/storefront/internal/cart/sync"
	"github.com/batuhanyalcin/storefront/internal/catalog"
	checkoutapp "github.com/batuhanyalcin/storefront/internal/checkout/app"
	"github.com/batuhanyalcin/storefront/internal/checkout/infra/adapter"
	cartdomain "github.com/batuhanyalcin/storefront/internal/cart/domain"
	"github.com/batuhanyalcin/storefront/internal/keyval"
	filestore "github.com/batuhanyalcin/storefront/internal/keyval/file"
	memstore "github.com/batuhanyalcin/storefront/internal/keyval/memory"
	redisstore "github.com/batuhanyalcin/storefront/internal/keyval/redis"
	"github.com/batuhanyalcin/storefront/internal/metrics"
	"github.com/batuhanyalcin/storefront/internal/order"
	"github.com/batuhanyalcin/storefront/internal/session"
	"github.com/batuhanyalcin/storefront/internal/web"
	"github.com/batuhanyalcin/storefront/pkg/config"
	"github.com/batuhanyalcin/storefront/pkg/logger"
	"github.com/batuhanyalcin/storefront/pkg/shutdown"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log := logger.New(logger.Options{
		Service: "storefront",
		Env:     cfg.AppEnv,
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
	})

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	store, err := openStore(ctx, cfg)
	if err != nil {
		log.Error("store init failed", slog.Any("err", err))
		os.Exit(1)
	}
	log.Info("record store ready",
		slog.String("backend", cfg.StoreBackend),
		slog.String("origin", store.Origin()),
	)

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	// Login is anonymous by definition, so the auth collaborator gets a
	// client with no token source.
	authAPI := api.NewClient(api.Options{
		BaseURL:   cfg.APIBaseURL,
		Timeout:   cfg.APITimeout,
		RateLimit: cfg.APIRateLimit,
		Metrics:   m,
		Log:       log,
	})
	gate := session.NewGate(store, api.NewAuthClient(authAPI), log)

	apiClient := api.NewClient(api.Options{
		BaseURL:   cfg.APIBaseURL,
		Timeout:   cfg.APITimeout,
		RateLimit: cfg.APIRateLimit,
		Tokens:    gate,
		Session:   gate,
		Metrics:   m,
		Log:       log,
	})

	cart := cartapp.NewService(store)
	checkout := checkoutapp.NewService(
		cart,
		adapter.NewCatalogReader(catalog.NewClient(apiClient)),
		adapter.NewOrderPlacer(order.NewClient(apiClient)),
		gate,
		cfg.CheckoutConcurrency,
		log,
	)

	syncer := cartsync.New(store, cfg.SyncInterval, log)
	syncer.OnChange(func(c cartdomain.Cart) {
		m.CartItems.Set(float64(c.ItemCount()))
		log.Debug("cart view refreshed", slog.Int("items", c.ItemCount()))
	})

	router := web.NewRouter(web.Deps{
		Cart:      cart,
		Checkout:  checkout,
		Gate:      gate,
		Metrics:   m,
		Registry:  registry,
		Log:       log,
		RateLimit: cfg.HTTPRateLimit,
	})

	addr := fmt.Sprintf(":%d", cfg.HTTPPort)
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		syncer.Run(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info("http server starting", slog.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("http server error", slog.Any("err", err))
			cancel()
		}
	}()

	<-ctx.Done()
	log.Info("shutdown requested")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown error", slog.Any("err", err))
	}

	wg.Wait()
	log.Info("bye")
}

func openStore(ctx context.Context, cfg config.Config) (keyval.Store, error) {
	switch cfg.StoreBackend {
	case "redis":
		s := redisstore.New(cfg.RedisAddr)
		if err := s.Ping(ctx); err != nil {
			return nil, err
		}
		return s, nil
	case "memory":
		return memstore.NewHub().Open(), nil
	default:
		return filestore.New(cfg.StateDir)
	}
}
