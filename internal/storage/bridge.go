package storage

import (
	"database/sql"
	"time"
)

// CreateBridgeTx records a newly initiated cross-chain transfer.
func (s *Storage) CreateBridgeTx(bt *BridgeTx) error {
	now := time.Now().Unix()
	if bt.Status == "" {
		bt.Status = "pending"
	}
	_, err := s.db.Exec(
		`INSERT INTO bridge_transactions (bridge_id, bill_id, source_chain, source_token,
			source_amount, target_chain, target_token, source_tx_hash, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		bt.BridgeID, bt.BillID, bt.SourceChain, bt.SourceToken,
		bt.SourceAmount, bt.TargetChain, bt.TargetToken, nullable(bt.SourceTxHash), bt.Status, now,
	)
	if err != nil {
		return err
	}
	bt.CreatedAt = time.Unix(now, 0)
	return nil
}

// GetBridgeTx returns a bridge transfer by its bridge id.
func (s *Storage) GetBridgeTx(bridgeID string) (*BridgeTx, error) {
	row := s.db.QueryRow(
		`SELECT bridge_id, bill_id, source_chain, source_token, source_amount, target_chain,
			target_token, source_tx_hash, status, created_at, completed_at
		 FROM bridge_transactions WHERE bridge_id = ?`, bridgeID,
	)
	return scanBridgeTx(row)
}

// ListOpenBridgeTxs returns transfers that have not reached a terminal state,
// oldest first, for the bridge poller.
func (s *Storage) ListOpenBridgeTxs(limit int) ([]BridgeTx, error) {
	rows, err := s.db.Query(
		`SELECT bridge_id, bill_id, source_chain, source_token, source_amount, target_chain,
			target_token, source_tx_hash, status, created_at, completed_at
		 FROM bridge_transactions
		 WHERE status IN ('pending', 'confirmed')
		 ORDER BY created_at ASC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []BridgeTx
	for rows.Next() {
		bt, err := scanBridgeTx(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, *bt)
	}
	return txs, rows.Err()
}

// UpdateBridgeTxStatus advances a transfer's state. Terminal states stamp
// completed_at; the source tx hash is recorded once known.
func (s *Storage) UpdateBridgeTxStatus(bridgeID, status, sourceTxHash string) error {
	var completedAt interface{}
	if status == "completed" || status == "failed" {
		completedAt = time.Now().Unix()
	}

	res, err := s.db.Exec(
		`UPDATE bridge_transactions SET
			status = ?,
			source_tx_hash = COALESCE(?, source_tx_hash),
			completed_at = COALESCE(?, completed_at)
		 WHERE bridge_id = ?`,
		status, nullable(sourceTxHash), completedAt, bridgeID,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func scanBridgeTx(row rowScanner) (*BridgeTx, error) {
	var bt BridgeTx
	var sourceTxHash sql.NullString
	var createdAt int64
	var completedAt sql.NullInt64

	err := row.Scan(
		&bt.BridgeID, &bt.BillID, &bt.SourceChain, &bt.SourceToken, &bt.SourceAmount,
		&bt.TargetChain, &bt.TargetToken, &sourceTxHash, &bt.Status, &createdAt, &completedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	bt.SourceTxHash = sourceTxHash.String
	bt.CreatedAt = time.Unix(createdAt, 0)
	if completedAt.Valid {
		t := time.Unix(completedAt.Int64, 0)
		bt.CompletedAt = &t
	}
	return &bt, nil
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
