package thor

import (
	"context"
	"fmt"
)

// Signer hands clauses to a wallet for signing and broadcast. Implementations
// wrap an injected browser wallet or a fee-delegation sponsor; the returned
// id identifies the broadcast transaction, which is not yet confirmed.
type Signer interface {
	SignAndSend(ctx context.Context, clauses []Clause, origin string) (string, error)
}

// SubmitResult is the outcome of a confirmed submission.
type SubmitResult struct {
	TxID    string
	Receipt *Receipt
}

// Submit signs and broadcasts the clauses through the wallet, then polls until
// the receipt appears. A reverted receipt is returned as a KindReverted error:
// inclusion without effect must never be mistaken for success.
func (c *Client) Submit(ctx context.Context, signer Signer, clauses []Clause, origin string) (*SubmitResult, error) {
	if signer == nil {
		return nil, &WalletError{Kind: KindNotConnected, Err: fmt.Errorf("no signer available")}
	}
	if len(clauses) == 0 {
		return nil, fmt.Errorf("no clauses to submit")
	}

	txID, err := signer.SignAndSend(ctx, clauses, origin)
	if err != nil {
		return nil, Classify(err)
	}
	if txID == "" {
		return nil, &WalletError{Kind: KindRejected, Err: fmt.Errorf("wallet returned no transaction id")}
	}

	receipt, err := c.WaitForReceipt(ctx, txID)
	if err != nil {
		return nil, Classify(err)
	}
	if receipt.Reverted {
		return nil, &WalletError{Kind: KindReverted, Err: fmt.Errorf("transaction %s reverted", txID)}
	}

	return &SubmitResult{TxID: txID, Receipt: receipt}, nil
}
