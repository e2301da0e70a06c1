package storage

import (
	"database/sql"
	"fmt"
	"math/big"
	"strings"
	"time"
)

const billColumns = `bill_id, short_bill_id, receiver, token, amount, paid, social_impact,
	category, created_by, payer, tx_hash, b3tr_reward, qr_code, created_at, paid_at`

// CreateBill inserts a mirror row for a freshly created on-chain bill and
// bumps the creator's billsCreated counter in the same transaction.
// Returns ErrDuplicateBillID or ErrDuplicateShortID on conflicts so the
// caller can regenerate and retry.
func (s *Storage) CreateBill(b *Bill) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now().Unix()
	if !b.CreatedAt.IsZero() {
		now = b.CreatedAt.Unix()
	}

	_, err = tx.Exec(
		`INSERT INTO bills (bill_id, short_bill_id, receiver, token, amount, paid, social_impact,
			category, created_by, b3tr_reward, qr_code, created_at)
		 VALUES (?, ?, ?, ?, ?, 0, ?, ?, ?, '0', ?, ?)`,
		b.BillID, b.ShortBillID, b.Receiver, b.Token, b.Amount,
		boolToInt(b.SocialImpact), b.Category, b.CreatedBy, b.QRCode, now,
	)
	if err != nil {
		if isUniqueViolation(err, "short_bill_id") {
			return ErrDuplicateShortID
		}
		if isUniqueViolation(err, "bill_id") {
			return ErrDuplicateBillID
		}
		return err
	}

	_, err = tx.Exec(
		`INSERT INTO users (wallet, bills_created, last_active) VALUES (?, 1, ?)
		 ON CONFLICT(wallet) DO UPDATE SET
			bills_created = bills_created + 1,
			last_active = excluded.last_active`,
		b.CreatedBy, now,
	)
	if err != nil {
		return err
	}

	b.CreatedAt = time.Unix(now, 0)
	return tx.Commit()
}

// GetBill returns a bill by its full id.
func (s *Storage) GetBill(billID string) (*Bill, error) {
	row := s.db.QueryRow(`SELECT `+billColumns+` FROM bills WHERE bill_id = ?`, billID)
	return scanBill(row)
}

// GetBillByShortID resolves a short id to its bill. This lookup is the only
// way back from a short id: the digest is one way.
func (s *Storage) GetBillByShortID(shortID string) (*Bill, error) {
	row := s.db.QueryRow(`SELECT `+billColumns+` FROM bills WHERE short_bill_id = ?`, shortID)
	return scanBill(row)
}

// MarkBillPaid records a confirmed on-chain payment: flips the bill to paid,
// appends the payment row, and bumps the payer's aggregates, all in one
// transaction. Replaying the same txHash is a no-op so the reconciliation
// write can be retried safely; a different txHash against a paid bill returns
// ErrAlreadyPaid.
func (s *Storage) MarkBillPaid(billID, payer, txHash, b3trReward string) error {
	if b3trReward == "" {
		b3trReward = "0"
	}
	reward, ok := new(big.Int).SetString(b3trReward, 10)
	if !ok || reward.Sign() < 0 {
		return fmt.Errorf("invalid b3tr reward %q", b3trReward)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var amount, token string
	var socialImpact int
	err = tx.QueryRow(
		`SELECT amount, token, social_impact FROM bills WHERE bill_id = ?`, billID,
	).Scan(&amount, &token, &socialImpact)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	now := time.Now().Unix()
	res, err := tx.Exec(
		`UPDATE bills SET paid = 1, payer = ?, tx_hash = ?, b3tr_reward = ?, paid_at = ?
		 WHERE bill_id = ? AND paid = 0`,
		payer, txHash, reward.String(), now, billID,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		// Paid already. Same tx hash means a retried reconciliation write.
		var existing sql.NullString
		if err := tx.QueryRow(`SELECT tx_hash FROM bills WHERE bill_id = ?`, billID).Scan(&existing); err != nil {
			return err
		}
		if existing.Valid && strings.EqualFold(existing.String, txHash) {
			return nil
		}
		if !existing.Valid || existing.String == "" {
			// The repair sweep marks bills paid without knowing the
			// paying transaction; the first real hash backfills it.
			if _, err := tx.Exec(`UPDATE bills SET tx_hash = ? WHERE bill_id = ?`, txHash, billID); err != nil {
				return err
			}
			if _, err := tx.Exec(`UPDATE payments SET tx_hash = ? WHERE bill_id = ? AND tx_hash = ''`, txHash, billID); err != nil {
				return err
			}
			return tx.Commit()
		}
		return ErrAlreadyPaid
	}

	_, err = tx.Exec(
		`INSERT INTO payments (bill_id, payer, tx_hash, amount, token, b3tr_reward, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		billID, payer, txHash, amount, token, reward.String(), now,
	)
	if err != nil {
		return err
	}

	// Rewards accumulate as big integers; sqlite arithmetic would go through
	// floats and lose precision at 18 decimals.
	var currentRewards string
	err = tx.QueryRow(`SELECT total_rewards FROM users WHERE wallet = ?`, payer).Scan(&currentRewards)
	if err != nil && err != sql.ErrNoRows {
		return err
	}
	total := new(big.Int).Set(reward)
	if currentRewards != "" {
		current, ok := new(big.Int).SetString(currentRewards, 10)
		if !ok {
			return fmt.Errorf("corrupt total_rewards %q for wallet %s", currentRewards, payer)
		}
		total.Add(total, current)
	}

	socialBump := 0
	if socialImpact != 0 {
		socialBump = 1
	}
	_, err = tx.Exec(
		`INSERT INTO users (wallet, bills_paid, total_rewards, social_impact_bills, last_active)
		 VALUES (?, 1, ?, ?, ?)
		 ON CONFLICT(wallet) DO UPDATE SET
			bills_paid = bills_paid + 1,
			total_rewards = ?,
			social_impact_bills = social_impact_bills + ?,
			last_active = excluded.last_active`,
		payer, total.String(), socialBump, now, total.String(), socialBump,
	)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// ListUnpaidBills returns unpaid mirror rows, oldest first, for the
// chain-vs-mirror reconciliation sweep.
func (s *Storage) ListUnpaidBills(limit int) ([]Bill, error) {
	rows, err := s.db.Query(
		`SELECT `+billColumns+` FROM bills WHERE paid = 0 ORDER BY created_at ASC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBills(rows)
}

// ListHistory returns bills where the wallet is creator or payer, newest
// first, narrowed by the optional filters.
func (s *Storage) ListHistory(f HistoryFilter) ([]Bill, error) {
	query := `SELECT ` + billColumns + ` FROM bills WHERE (created_by = ? OR payer = ?)`
	args := []interface{}{f.Wallet, f.Wallet}

	switch f.Status {
	case "paid":
		query += ` AND paid = 1`
	case "unpaid":
		query += ` AND paid = 0`
	}
	if f.Category != "" {
		query += ` AND category = ?`
		args = append(args, f.Category)
	}
	if f.SocialImpact != nil {
		query += ` AND social_impact = ?`
		args = append(args, boolToInt(*f.SocialImpact))
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBills(rows)
}

// GetPayment returns the payment record for a bill, if any.
func (s *Storage) GetPayment(billID string) (*Payment, error) {
	var p Payment
	var createdAt int64
	err := s.db.QueryRow(
		`SELECT id, bill_id, payer, tx_hash, amount, token, b3tr_reward, created_at
		 FROM payments WHERE bill_id = ?`, billID,
	).Scan(&p.ID, &p.BillID, &p.Payer, &p.TxHash, &p.Amount, &p.Token, &p.B3trReward, &createdAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	p.CreatedAt = time.Unix(createdAt, 0)
	return &p, nil
}

// GetUser returns the aggregate counters for a wallet.
func (s *Storage) GetUser(wallet string) (*User, error) {
	var u User
	var lastActive int64
	err := s.db.QueryRow(
		`SELECT wallet, bills_created, bills_paid, total_rewards, social_impact_bills, last_active
		 FROM users WHERE wallet = ?`, wallet,
	).Scan(&u.Wallet, &u.BillsCreated, &u.BillsPaid, &u.TotalRewards, &u.SocialImpactBills, &lastActive)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	u.LastActive = time.Unix(lastActive, 0)
	return &u, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBill(row rowScanner) (*Bill, error) {
	var b Bill
	var paid, socialImpact int
	var payer, txHash, qrCode sql.NullString
	var createdAt int64
	var paidAt sql.NullInt64

	err := row.Scan(
		&b.BillID, &b.ShortBillID, &b.Receiver, &b.Token, &b.Amount, &paid, &socialImpact,
		&b.Category, &b.CreatedBy, &payer, &txHash, &b.B3trReward, &qrCode, &createdAt, &paidAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	b.Paid = paid != 0
	b.SocialImpact = socialImpact != 0
	b.Payer = payer.String
	b.TxHash = txHash.String
	b.QRCode = qrCode.String
	b.CreatedAt = time.Unix(createdAt, 0)
	if paidAt.Valid {
		t := time.Unix(paidAt.Int64, 0)
		b.PaidAt = &t
	}
	return &b, nil
}

func collectBills(rows *sql.Rows) ([]Bill, error) {
	var bills []Bill
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, err
		}
		bills = append(bills, *b)
	}
	return bills, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
