package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"

	"github.com/Trojanhorse7/VeGate/internal/api"
	"github.com/Trojanhorse7/VeGate/internal/config"
	"github.com/Trojanhorse7/VeGate/internal/reconcile"
	"github.com/Trojanhorse7/VeGate/internal/storage"
	"github.com/Trojanhorse7/VeGate/pkg/bridge"
	"github.com/Trojanhorse7/VeGate/pkg/contract"
	"github.com/Trojanhorse7/VeGate/pkg/logging"
	"github.com/Trojanhorse7/VeGate/pkg/thor"
)

func main() {
	_ = godotenv.Load()

	log := logging.Setup()
	log.Info("starting vegate")

	cfg := config.Load()

	if !common.IsHexAddress(cfg.ContractAddr) {
		log.Error("invalid contract address", "addr", cfg.ContractAddr)
		os.Exit(1)
	}

	store, err := storage.New(cfg.DBPath)
	if err != nil {
		log.Error("open storage", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	thorClient := thor.NewClient(cfg.ThorBaseURL)
	thorClient.SetReceiptPolling(cfg.ReceiptPollInterval, cfg.ReceiptMaxAttempts)

	bridgeClient := bridge.NewClient(cfg.BridgeBaseURL, cfg.BridgePartner)

	vegate := contract.New(common.HexToAddress(cfg.ContractAddr), thorClient)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reconciler := reconcile.New(store, vegate, log.With("component", "reconciler"))
	go reconciler.Run(ctx, cfg.ReconcileInterval)

	poller := reconcile.NewBridgePoller(store, bridgeClient, log.With("component", "bridge_poller"))
	go poller.Run(ctx, cfg.BridgePollInterval)

	server := api.NewServer(store, bridgeClient, cfg.PublicBaseURL, log.With("component", "api"))
	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("http server listening", "addr", cfg.ListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server", "error", err)
			cancel()
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("shutting down", "signal", sig.String())
	case <-ctx.Done():
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown", "error", err)
	}

	log.Info("stopped")
}
