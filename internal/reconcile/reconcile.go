// Package reconcile keeps the sqlite mirror converging toward on-chain truth.
//
// The mirror write that follows a client-side payment is best effort; when it
// is lost, the bill shows unpaid while the chain holds it paid. The sweeper
// periodically reads unpaid mirror rows back from the contract and repairs
// divergence with the chain's own b3trReward, never the client's estimate.
package reconcile

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/Trojanhorse7/VeGate/internal/storage"
	"github.com/Trojanhorse7/VeGate/pkg/contract"
)

const sweepBatchSize = 100

// ChainReader reads authoritative bill state from the chain.
type ChainReader interface {
	GetBill(ctx context.Context, billID [32]byte) (*contract.Bill, error)
}

// Reconciler runs the periodic chain-vs-mirror diff.
type Reconciler struct {
	storage *storage.Storage
	chain   ChainReader
	log     *slog.Logger
}

// New creates a Reconciler.
func New(store *storage.Storage, chain ChainReader, log *slog.Logger) *Reconciler {
	return &Reconciler{storage: store, chain: chain, log: log}
}

// Run sweeps at the given interval until ctx is cancelled.
func (r *Reconciler) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	r.log.Info("reconciler started", "interval", interval)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if repaired, err := r.Sweep(ctx); err != nil {
				r.log.Error("reconcile sweep", "error", err)
			} else if repaired > 0 {
				r.log.Info("reconcile sweep repaired bills", "count", repaired)
			}
		}
	}
}

// Sweep checks every unpaid mirror bill against the chain and repairs rows
// the chain already holds as paid. Returns the number of repaired bills.
func (r *Reconciler) Sweep(ctx context.Context) (int, error) {
	unpaid, err := r.storage.ListUnpaidBills(sweepBatchSize)
	if err != nil {
		return 0, err
	}

	repaired := 0
	for _, bill := range unpaid {
		if ctx.Err() != nil {
			return repaired, ctx.Err()
		}

		id, err := contract.ParseBillID(bill.BillID)
		if err != nil {
			r.log.Warn("skipping malformed bill id", "bill_id", bill.BillID, "error", err)
			continue
		}

		onChain, err := r.chain.GetBill(ctx, id)
		if err != nil {
			r.log.Warn("read bill from chain", "bill_id", bill.BillID, "error", err)
			continue
		}
		if !onChain.Paid {
			continue
		}

		err = r.storage.MarkBillPaid(bill.BillID, onChain.Payer.Hex(), bill.TxHash, onChain.B3trReward.String())
		if err != nil && !errors.Is(err, storage.ErrAlreadyPaid) {
			r.log.Error("repair paid bill", "bill_id", bill.BillID, "error", err)
			continue
		}
		if err == nil {
			repaired++
			r.log.Info("repaired diverged bill",
				"bill_id", bill.BillID,
				"payer", onChain.Payer.Hex(),
				"b3tr_reward", onChain.B3trReward.String(),
			)
		}
	}

	return repaired, nil
}
