package thor

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTxID = "0x9bcc6526a76ae560244f698805cc001977246cb92c2b4f1e2b7a204e445409ea"

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL)
	c.SetReceiptPolling(time.Millisecond, 5)
	return c
}

func TestWaitForReceiptTimeout(t *testing.T) {
	var calls atomic.Int64
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte("null"))
	}))

	_, err := c.WaitForReceipt(context.Background(), testTxID)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrReceiptTimeout)
	assert.Equal(t, int64(5), calls.Load())
}

func TestWaitForReceiptEventualSuccess(t *testing.T) {
	var calls atomic.Int64
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.Write([]byte("null"))
			return
		}
		json.NewEncoder(w).Encode(Receipt{
			Reverted: false,
			Meta:     ReceiptMeta{TxID: testTxID},
		})
	}))

	receipt, err := c.WaitForReceipt(context.Background(), testTxID)
	require.NoError(t, err)
	assert.False(t, receipt.Reverted)
	assert.Equal(t, testTxID, receipt.Meta.TxID)
	assert.Equal(t, int64(3), calls.Load())
}

func TestWaitForReceiptContextCancel(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("null"))
	}))
	c.SetReceiptPolling(time.Minute, 5)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.WaitForReceipt(ctx, testTxID)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCall(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/accounts/*", r.URL.Path)
		json.NewEncoder(w).Encode([]callResult{{Data: "0x0102"}})
	}))

	out, err := c.Call(context.Background(), Clause{To: "0x0", Value: "0x0", Data: "0x"})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x02}, out)
}

func TestCallReverted(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]callResult{{Reverted: true, VMError: "execution reverted"}})
	}))

	_, err := c.Call(context.Background(), Clause{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reverted")
}

type fakeSigner struct {
	txID string
	err  error
}

func (f *fakeSigner) SignAndSend(ctx context.Context, clauses []Clause, origin string) (string, error) {
	return f.txID, f.err
}

func TestSubmitSuccess(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(Receipt{Meta: ReceiptMeta{TxID: testTxID}})
	}))

	res, err := c.Submit(context.Background(), &fakeSigner{txID: testTxID}, []Clause{{To: "0x0"}}, "0xabc")
	require.NoError(t, err)
	assert.Equal(t, testTxID, res.TxID)
}

func TestSubmitNoSigner(t *testing.T) {
	c := newTestClient(t, http.NotFoundHandler())

	_, err := c.Submit(context.Background(), nil, []Clause{{To: "0x0"}}, "0xabc")
	var werr *WalletError
	require.ErrorAs(t, err, &werr)
	assert.Equal(t, KindNotConnected, werr.Kind)
}

func TestSubmitRejected(t *testing.T) {
	c := newTestClient(t, http.NotFoundHandler())

	_, err := c.Submit(context.Background(), &fakeSigner{txID: ""}, []Clause{{To: "0x0"}}, "0xabc")
	var werr *WalletError
	require.ErrorAs(t, err, &werr)
	assert.Equal(t, KindRejected, werr.Kind)
}

func TestSubmitReverted(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(Receipt{Reverted: true})
	}))

	_, err := c.Submit(context.Background(), &fakeSigner{txID: testTxID}, []Clause{{To: "0x0"}}, "0xabc")
	var werr *WalletError
	require.ErrorAs(t, err, &werr)
	assert.Equal(t, KindReverted, werr.Kind)
}

func TestClassify(t *testing.T) {
	cases := []struct {
		msg  string
		want ErrorKind
	}{
		{"user rejected the request", KindRejected},
		{"request denied by user", KindRejected},
		{"insufficient energy for gas", KindInsufficientBalance},
		{"connex not available", KindNotConnected},
		{"wallet not connected", KindNotConnected},
		{"something odd", KindUnknown},
	}
	for _, tc := range cases {
		got := Classify(errors.New(tc.msg))
		assert.Equal(t, tc.want, got.Kind, tc.msg)
	}

	timeoutErr := Classify(ErrReceiptTimeout)
	assert.Equal(t, KindTimeout, timeoutErr.Kind)
}
