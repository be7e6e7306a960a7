package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"pourpass/internal/config"
	"pourpass/internal/httpapi"
	"pourpass/internal/identity"
	"pourpass/internal/logging"
	"pourpass/internal/metrics"
	"pourpass/internal/order"
	"pourpass/internal/store/postgres"
	"pourpass/internal/token"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", "err", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging)

	db, err := sql.Open("pgx", cfg.DBURL)
	if err != nil {
		logger.Error("open db", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	err = db.PingContext(pingCtx)
	cancel()
	if err != nil {
		logger.Error("db ping", "err", err)
		os.Exit(1)
	}

	store := postgres.NewStore(db)
	issuer := token.NewIssuer(cfg.TokenSecret, cfg.TokenTTL)
	orderSvc := order.NewService(store, store, store, store, issuer, logger)
	identitySvc := identity.NewService(store, store, logger)

	metrics.Register()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", healthHandler())
	mux.HandleFunc("/readyz", httpapi.ReadyzHandler(db))
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/webhooks/payments", httpapi.PaymentWebhookHandler(cfg.PaymentWebhookSecret, nil, orderSvc))
	mux.HandleFunc("/webhooks/identity", httpapi.IdentityWebhookHandler(cfg.IdentityWebhookSecret, identitySvc))
	mux.HandleFunc("/pour", httpapi.PourHandler(cfg.DeviceSecret, orderSvc))
	mux.HandleFunc("/orders/", httpapi.GetOrderHandler(orderSvc))

	handler := httpapi.WithRequestID()(
		httpapi.Logging(logger)(
			mux,
		),
	)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server", "err", err)
			os.Exit(1)
		}
	}()

	<-rootCtx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", "err", err)
	}
	logger.Info("bye")
}

func healthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}
