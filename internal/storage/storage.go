// Package storage is the sqlite mirror of on-chain bill, payment and user
// state. It is a read cache plus short-id registry; the chain holds the truth.
package storage

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/mattn/go-sqlite3"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrAlreadyPaid      = errors.New("bill already paid")
	ErrDuplicateShortID = errors.New("short bill id already exists")
	ErrDuplicateBillID  = errors.New("bill id already exists")
)

// Storage handles all database operations.
type Storage struct {
	db *sql.DB
}

// New creates a Storage instance and initializes the schema.
func New(dbPath string) (*Storage, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, err
	}

	s := &Storage{db: db}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// Close closes the database connection.
func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) init() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS bills (
			bill_id TEXT PRIMARY KEY,
			short_bill_id TEXT NOT NULL UNIQUE,
			receiver TEXT NOT NULL,
			token TEXT NOT NULL,
			amount TEXT NOT NULL,
			paid INTEGER NOT NULL DEFAULT 0,
			social_impact INTEGER NOT NULL DEFAULT 0,
			category TEXT NOT NULL,
			created_by TEXT NOT NULL,
			payer TEXT,
			tx_hash TEXT,
			b3tr_reward TEXT NOT NULL DEFAULT '0',
			qr_code TEXT,
			created_at INTEGER NOT NULL,
			paid_at INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_bills_created_by ON bills(created_by)`,
		`CREATE INDEX IF NOT EXISTS idx_bills_payer ON bills(payer)`,

		`CREATE TABLE IF NOT EXISTS payments (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			bill_id TEXT NOT NULL UNIQUE REFERENCES bills(bill_id),
			payer TEXT NOT NULL,
			tx_hash TEXT NOT NULL,
			amount TEXT NOT NULL,
			token TEXT NOT NULL,
			b3tr_reward TEXT NOT NULL DEFAULT '0',
			created_at INTEGER NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS users (
			wallet TEXT PRIMARY KEY,
			bills_created INTEGER NOT NULL DEFAULT 0,
			bills_paid INTEGER NOT NULL DEFAULT 0,
			total_rewards TEXT NOT NULL DEFAULT '0',
			social_impact_bills INTEGER NOT NULL DEFAULT 0,
			last_active INTEGER NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS bridge_transactions (
			bridge_id TEXT PRIMARY KEY,
			bill_id TEXT NOT NULL REFERENCES bills(bill_id),
			source_chain TEXT NOT NULL,
			source_token TEXT NOT NULL,
			source_amount TEXT NOT NULL,
			target_chain TEXT NOT NULL,
			target_token TEXT NOT NULL,
			source_tx_hash TEXT,
			status TEXT NOT NULL DEFAULT 'pending',
			created_at INTEGER NOT NULL,
			completed_at INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_bridge_status ON bridge_transactions(status)`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}

	return nil
}

// isUniqueViolation reports whether err is a sqlite unique-constraint failure
// on the given column.
func isUniqueViolation(err error, column string) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	if sqliteErr.ExtendedCode != sqlite3.ErrConstraintUnique && sqliteErr.ExtendedCode != sqlite3.ErrConstraintPrimaryKey {
		return false
	}
	return column == "" || strings.Contains(sqliteErr.Error(), column)
}
