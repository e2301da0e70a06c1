package reconcile

import (
	"context"
	"log/slog"
	"time"

	"github.com/Trojanhorse7/VeGate/internal/storage"
	"github.com/Trojanhorse7/VeGate/pkg/bridge"
)

const pollBatchSize = 50

// BridgeStatusReader reads transfer status from the bridge partner.
type BridgeStatusReader interface {
	GetStatus(ctx context.Context, txHash string) (*bridge.Status, error)
}

// BridgePoller advances open bridge_transactions rows by polling the partner
// status endpoint: pending -> confirmed -> completed, or failed.
type BridgePoller struct {
	storage *storage.Storage
	bridge  BridgeStatusReader
	log     *slog.Logger
}

// NewBridgePoller creates a BridgePoller.
func NewBridgePoller(store *storage.Storage, br BridgeStatusReader, log *slog.Logger) *BridgePoller {
	return &BridgePoller{storage: store, bridge: br, log: log}
}

// Run polls at the given interval until ctx is cancelled.
func (p *BridgePoller) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	p.log.Info("bridge poller started", "interval", interval)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.Poll(ctx); err != nil {
				p.log.Error("bridge poll", "error", err)
			}
		}
	}
}

// Poll refreshes every open transfer once.
func (p *BridgePoller) Poll(ctx context.Context) error {
	open, err := p.storage.ListOpenBridgeTxs(pollBatchSize)
	if err != nil {
		return err
	}

	for _, bt := range open {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		status, err := p.bridge.GetStatus(ctx, bt.BridgeID)
		if err != nil {
			p.log.Warn("bridge status", "bridge_id", bt.BridgeID, "error", err)
			continue
		}

		mirrored := bridge.MirrorStatus(status.Status)
		if mirrored == bt.Status {
			continue
		}

		if err := p.storage.UpdateBridgeTxStatus(bt.BridgeID, mirrored, status.TxHash); err != nil {
			p.log.Error("update bridge tx", "bridge_id", bt.BridgeID, "error", err)
			continue
		}
		p.log.Info("bridge transfer advanced",
			"bridge_id", bt.BridgeID,
			"bill_id", bt.BillID,
			"status", mirrored,
		)
	}

	return nil
}
