package reconcile

import (
	"context"
	"log/slog"
	"math/big"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Trojanhorse7/VeGate/internal/storage"
	"github.com/Trojanhorse7/VeGate/pkg/bridge"
	"github.com/Trojanhorse7/VeGate/pkg/contract"
)

var (
	receiverAddr = "0xf077b491b355E64048cE21E3A6Fc4751eEeA77fa"
	payerAddr    = common.HexToAddress("0x435933c8064b4Ae76bE665428e0307eF2cCFBD68")
)

type fakeChain struct {
	bills map[[32]byte]*contract.Bill
}

func (f *fakeChain) GetBill(ctx context.Context, billID [32]byte) (*contract.Bill, error) {
	if b, ok := f.bills[billID]; ok {
		return b, nil
	}
	return &contract.Bill{Paid: false}, nil
}

func newTestStorage(t *testing.T) *storage.Storage {
	t.Helper()
	s, err := storage.New(filepath.Join(t.TempDir(), "vegate.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func seedBill(t *testing.T, s *storage.Storage, suffix string) *storage.Bill {
	t.Helper()
	b := &storage.Bill{
		BillID:      "0x" + strings.Repeat("0", 64-len(suffix)) + suffix,
		ShortBillID: "short" + suffix,
		Receiver:    receiverAddr,
		Token:       "0x0000000000000000000000000000000000000000",
		Amount:      "1000000000000000000",
		Category:    "Utility",
		CreatedBy:   receiverAddr,
	}
	require.NoError(t, s.CreateBill(b))
	return b
}

func TestSweepRepairsDivergedBill(t *testing.T) {
	s := newTestStorage(t)
	diverged := seedBill(t, s, "a1")
	stillUnpaid := seedBill(t, s, "a2")

	id, err := contract.ParseBillID(diverged.BillID)
	require.NoError(t, err)

	chain := &fakeChain{bills: map[[32]byte]*contract.Bill{
		id: {
			Paid:       true,
			Payer:      payerAddr,
			B3trReward: big.NewInt(10000000000000000),
		},
	}}

	r := New(s, chain, slog.Default())
	repaired, err := r.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, repaired)

	got, err := s.GetBill(diverged.BillID)
	require.NoError(t, err)
	assert.True(t, got.Paid)
	assert.Equal(t, payerAddr.Hex(), got.Payer)
	assert.Equal(t, "10000000000000000", got.B3trReward)

	user, err := s.GetUser(payerAddr.Hex())
	require.NoError(t, err)
	assert.Equal(t, int64(1), user.BillsPaid)
	assert.Equal(t, "10000000000000000", user.TotalRewards)

	unpaid, err := s.GetBill(stillUnpaid.BillID)
	require.NoError(t, err)
	assert.False(t, unpaid.Paid)
}

func TestSweepNoDivergence(t *testing.T) {
	s := newTestStorage(t)
	seedBill(t, s, "b1")

	r := New(s, &fakeChain{}, slog.Default())
	repaired, err := r.Sweep(context.Background())
	require.NoError(t, err)
	assert.Zero(t, repaired)
}

type fakeBridge struct {
	statuses map[string]*bridge.Status
}

func (f *fakeBridge) GetStatus(ctx context.Context, txHash string) (*bridge.Status, error) {
	if st, ok := f.statuses[txHash]; ok {
		return st, nil
	}
	return &bridge.Status{Status: bridge.StatusPending}, nil
}

func TestBridgePollerAdvancesTransfers(t *testing.T) {
	s := newTestStorage(t)
	b := seedBill(t, s, "c1")

	require.NoError(t, s.CreateBridgeTx(&storage.BridgeTx{
		BridgeID:     "bridge-1",
		BillID:       b.BillID,
		SourceChain:  "ethereum",
		SourceToken:  "ETH",
		SourceAmount: "1000",
		TargetChain:  "vechain",
		TargetToken:  "VET",
	}))

	fb := &fakeBridge{statuses: map[string]*bridge.Status{
		"bridge-1": {TxHash: "0xsrc", Status: bridge.StatusProcessing},
	}}
	p := NewBridgePoller(s, fb, slog.Default())

	require.NoError(t, p.Poll(context.Background()))
	got, err := s.GetBridgeTx("bridge-1")
	require.NoError(t, err)
	assert.Equal(t, "confirmed", got.Status)
	assert.Equal(t, "0xsrc", got.SourceTxHash)

	fb.statuses["bridge-1"].Status = bridge.StatusSuccess
	require.NoError(t, p.Poll(context.Background()))
	got, err = s.GetBridgeTx("bridge-1")
	require.NoError(t, err)
	assert.Equal(t, "completed", got.Status)
	require.NotNil(t, got.CompletedAt)

	// Terminal rows leave the polling set.
	require.NoError(t, p.Poll(context.Background()))
	open, err := s.ListOpenBridgeTxs(10)
	require.NoError(t, err)
	assert.Empty(t, open)
}
