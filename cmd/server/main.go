package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/GerardGarroo/Web-Taxis-Bcn/internal/account"
	"github.com/GerardGarroo/Web-Taxis-Bcn/internal/config"
	"github.com/GerardGarroo/Web-Taxis-Bcn/internal/httpapi"
	"github.com/GerardGarroo/Web-Taxis-Bcn/internal/identity"
	"github.com/GerardGarroo/Web-Taxis-Bcn/internal/logging"
	"github.com/GerardGarroo/Web-Taxis-Bcn/internal/metrics"
	"github.com/GerardGarroo/Web-Taxis-Bcn/internal/profile"
	"github.com/GerardGarroo/Web-Taxis-Bcn/internal/server"
	"github.com/GerardGarroo/Web-Taxis-Bcn/internal/session"
)

func main() {
	ctx := context.Background()
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Errorf("config error: %w", err))
	}

	logger := logging.NewLogger("taxis-bcn-auth")

	var store profile.Repository
	if cfg.DataStore == "firestore" {
		client, err := firestore.NewClient(ctx, cfg.GCPProjectID)
		if err != nil {
			panic(fmt.Errorf("firestore client: %w", err))
		}
		defer client.Close()
		store = profile.NewFirestoreRepository(client, cfg.AppID)
	} else {
		store = profile.NewMemoryRepository()
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	recorder := metrics.NewCollector(registry)

	provider := identity.NewClient(cfg.Identity.APIKey, cfg.Identity.Endpoint)
	sessions := identity.NewSessions()

	synchronizer := session.New(provider, sessions, store, logger, recorder)
	accounts := account.NewService(provider, sessions, store, logger, recorder)

	router := server.NewRouter("taxis-bcn-auth", func(r chi.Router) {
		r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		httpapi.RegisterRoutes(r, accounts, synchronizer, store, logger)
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		synchronizer.Start(ctx, cfg.Identity.BootstrapToken)
		return nil
	})
	g.Go(func() error {
		return server.Run(ctx, srv, logger)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		panic(err)
	}
	synchronizer.Stop()
}
