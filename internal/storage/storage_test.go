package storage

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	receiverAddr = "0xf077b491b355E64048cE21E3A6Fc4751eEeA77fa"
	payerAddr    = "0x435933c8064b4Ae76bE665428e0307eF2cCFBD68"
	zeroAddr     = "0x0000000000000000000000000000000000000000"
	payTxHash    = "0x9bcc6526a76ae560244f698805cc001977246cb92c2b4f1e2b7a204e445409ea"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "vegate.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testBill(suffix string) *Bill {
	id := "0x" + strings.Repeat("0", 64-len(suffix)) + suffix
	return &Bill{
		BillID:       id,
		ShortBillID:  "short" + suffix,
		Receiver:     receiverAddr,
		Token:        zeroAddr,
		Amount:       "1000000000000000000",
		SocialImpact: false,
		Category:     "E-commerce",
		CreatedBy:    receiverAddr,
	}
}

func TestCreateAndGetBill(t *testing.T) {
	s := newTestStorage(t)

	b := testBill("a1")
	b.QRCode = "data:image/png;base64,AAAA"
	require.NoError(t, s.CreateBill(b))

	got, err := s.GetBill(b.BillID)
	require.NoError(t, err)
	assert.Equal(t, b.BillID, got.BillID)
	assert.Equal(t, b.ShortBillID, got.ShortBillID)
	assert.Equal(t, "1000000000000000000", got.Amount)
	assert.False(t, got.Paid)
	assert.Equal(t, "0", got.B3trReward)
	assert.Equal(t, b.QRCode, got.QRCode)
	assert.Nil(t, got.PaidAt)

	byShort, err := s.GetBillByShortID(b.ShortBillID)
	require.NoError(t, err)
	assert.Equal(t, b.BillID, byShort.BillID)

	user, err := s.GetUser(receiverAddr)
	require.NoError(t, err)
	assert.Equal(t, int64(1), user.BillsCreated)
}

func TestCreateBillDuplicates(t *testing.T) {
	s := newTestStorage(t)

	b := testBill("b1")
	require.NoError(t, s.CreateBill(b))

	dupShort := testBill("b2")
	dupShort.ShortBillID = b.ShortBillID
	assert.ErrorIs(t, s.CreateBill(dupShort), ErrDuplicateShortID)

	dupID := testBill("b3")
	dupID.BillID = b.BillID
	assert.ErrorIs(t, s.CreateBill(dupID), ErrDuplicateBillID)
}

func TestGetBillNotFound(t *testing.T) {
	s := newTestStorage(t)

	_, err := s.GetBill("0x" + strings.Repeat("f", 64))
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.GetBillByShortID("ffffffff")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMarkBillPaid(t *testing.T) {
	s := newTestStorage(t)

	b := testBill("c1")
	require.NoError(t, s.CreateBill(b))

	require.NoError(t, s.MarkBillPaid(b.BillID, payerAddr, payTxHash, "10000000000000000"))

	got, err := s.GetBill(b.BillID)
	require.NoError(t, err)
	assert.True(t, got.Paid)
	assert.Equal(t, payerAddr, got.Payer)
	assert.Equal(t, payTxHash, got.TxHash)
	assert.Equal(t, "10000000000000000", got.B3trReward)
	require.NotNil(t, got.PaidAt)

	payment, err := s.GetPayment(b.BillID)
	require.NoError(t, err)
	assert.Equal(t, payerAddr, payment.Payer)
	assert.Equal(t, b.Amount, payment.Amount)

	user, err := s.GetUser(payerAddr)
	require.NoError(t, err)
	assert.Equal(t, int64(1), user.BillsPaid)
	assert.Equal(t, "10000000000000000", user.TotalRewards)
	assert.Equal(t, int64(0), user.SocialImpactBills)
}

func TestMarkBillPaidAccumulatesRewards(t *testing.T) {
	s := newTestStorage(t)

	b1 := testBill("d1")
	b2 := testBill("d2")
	b2.SocialImpact = true
	require.NoError(t, s.CreateBill(b1))
	require.NoError(t, s.CreateBill(b2))

	require.NoError(t, s.MarkBillPaid(b1.BillID, payerAddr, payTxHash, "10000000000000000"))
	require.NoError(t, s.MarkBillPaid(b2.BillID, payerAddr, payTxHash+"0", "20000000000000000"))

	user, err := s.GetUser(payerAddr)
	require.NoError(t, err)
	assert.Equal(t, int64(2), user.BillsPaid)
	assert.Equal(t, "30000000000000000", user.TotalRewards)
	assert.Equal(t, int64(1), user.SocialImpactBills)
}

func TestMarkBillPaidIdempotentRetry(t *testing.T) {
	s := newTestStorage(t)

	b := testBill("e1")
	require.NoError(t, s.CreateBill(b))
	require.NoError(t, s.MarkBillPaid(b.BillID, payerAddr, payTxHash, "5"))

	// Retried reconciliation write with the same tx hash is a no-op.
	require.NoError(t, s.MarkBillPaid(b.BillID, payerAddr, payTxHash, "5"))

	user, err := s.GetUser(payerAddr)
	require.NoError(t, err)
	assert.Equal(t, int64(1), user.BillsPaid)
	assert.Equal(t, "5", user.TotalRewards)
}

func TestMarkBillPaidBackfillsTxHash(t *testing.T) {
	s := newTestStorage(t)

	b := testBill("e2")
	require.NoError(t, s.CreateBill(b))

	// The repair sweep marks a diverged bill paid without a tx hash.
	require.NoError(t, s.MarkBillPaid(b.BillID, payerAddr, "", "5"))

	// The client's own reconciliation write arrives later with the real
	// hash and must land as a backfill, not a conflict.
	require.NoError(t, s.MarkBillPaid(b.BillID, payerAddr, payTxHash, "5"))

	got, err := s.GetBill(b.BillID)
	require.NoError(t, err)
	assert.Equal(t, payTxHash, got.TxHash)

	p, err := s.GetPayment(b.BillID)
	require.NoError(t, err)
	assert.Equal(t, payTxHash, p.TxHash)

	user, err := s.GetUser(payerAddr)
	require.NoError(t, err)
	assert.Equal(t, int64(1), user.BillsPaid)
	assert.Equal(t, "5", user.TotalRewards)

	// A second distinct hash is still a conflict.
	assert.ErrorIs(t, s.MarkBillPaid(b.BillID, payerAddr, "0xother", "5"), ErrAlreadyPaid)
}

func TestMarkBillPaidConflicts(t *testing.T) {
	s := newTestStorage(t)

	b := testBill("f1")
	require.NoError(t, s.CreateBill(b))
	require.NoError(t, s.MarkBillPaid(b.BillID, payerAddr, payTxHash, "5"))

	assert.ErrorIs(t, s.MarkBillPaid(b.BillID, payerAddr, "0xother", "5"), ErrAlreadyPaid)
	assert.ErrorIs(t, s.MarkBillPaid("0x"+strings.Repeat("9", 64), payerAddr, payTxHash, "5"), ErrNotFound)
	assert.Error(t, s.MarkBillPaid(b.BillID, payerAddr, payTxHash, "not-a-number"))
}

func TestListHistory(t *testing.T) {
	s := newTestStorage(t)

	donation := testBill("a1")
	donation.Category = "Donation"
	donation.SocialImpact = true
	utility := testBill("a2")
	utility.Category = "Utility"
	require.NoError(t, s.CreateBill(donation))
	require.NoError(t, s.CreateBill(utility))
	require.NoError(t, s.MarkBillPaid(utility.BillID, payerAddr, payTxHash, "0"))

	all, err := s.ListHistory(HistoryFilter{Wallet: receiverAddr})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	paid, err := s.ListHistory(HistoryFilter{Wallet: receiverAddr, Status: "paid"})
	require.NoError(t, err)
	require.Len(t, paid, 1)
	assert.Equal(t, utility.BillID, paid[0].BillID)

	asPayer, err := s.ListHistory(HistoryFilter{Wallet: payerAddr})
	require.NoError(t, err)
	require.Len(t, asPayer, 1)
	assert.Equal(t, utility.BillID, asPayer[0].BillID)

	social := true
	socialOnly, err := s.ListHistory(HistoryFilter{Wallet: receiverAddr, SocialImpact: &social})
	require.NoError(t, err)
	require.Len(t, socialOnly, 1)
	assert.Equal(t, donation.BillID, socialOnly[0].BillID)

	byCat, err := s.ListHistory(HistoryFilter{Wallet: receiverAddr, Category: "Utility"})
	require.NoError(t, err)
	require.Len(t, byCat, 1)
	assert.Equal(t, utility.BillID, byCat[0].BillID)
}

func TestListUnpaidBills(t *testing.T) {
	s := newTestStorage(t)

	b1 := testBill("b1")
	b2 := testBill("b2")
	require.NoError(t, s.CreateBill(b1))
	require.NoError(t, s.CreateBill(b2))
	require.NoError(t, s.MarkBillPaid(b1.BillID, payerAddr, payTxHash, "0"))

	unpaid, err := s.ListUnpaidBills(10)
	require.NoError(t, err)
	require.Len(t, unpaid, 1)
	assert.Equal(t, b2.BillID, unpaid[0].BillID)
}

func TestBridgeTxLifecycle(t *testing.T) {
	s := newTestStorage(t)

	b := testBill("c1")
	require.NoError(t, s.CreateBill(b))

	bt := &BridgeTx{
		BridgeID:     "bridge-1",
		BillID:       b.BillID,
		SourceChain:  "ethereum",
		SourceToken:  "ETH",
		SourceAmount: "1000",
		TargetChain:  "vechain",
		TargetToken:  "VET",
	}
	require.NoError(t, s.CreateBridgeTx(bt))

	got, err := s.GetBridgeTx("bridge-1")
	require.NoError(t, err)
	assert.Equal(t, "pending", got.Status)
	assert.Nil(t, got.CompletedAt)

	open, err := s.ListOpenBridgeTxs(10)
	require.NoError(t, err)
	assert.Len(t, open, 1)

	require.NoError(t, s.UpdateBridgeTxStatus("bridge-1", "confirmed", "0xsrc"))
	got, err = s.GetBridgeTx("bridge-1")
	require.NoError(t, err)
	assert.Equal(t, "confirmed", got.Status)
	assert.Equal(t, "0xsrc", got.SourceTxHash)

	require.NoError(t, s.UpdateBridgeTxStatus("bridge-1", "completed", ""))
	got, err = s.GetBridgeTx("bridge-1")
	require.NoError(t, err)
	assert.Equal(t, "completed", got.Status)
	assert.Equal(t, "0xsrc", got.SourceTxHash)
	require.NotNil(t, got.CompletedAt)

	open, err = s.ListOpenBridgeTxs(10)
	require.NoError(t, err)
	assert.Empty(t, open)

	assert.ErrorIs(t, s.UpdateBridgeTxStatus("missing", "failed", ""), ErrNotFound)
}
