package storage

import "time"

// Bill mirrors an on-chain bill. The chain is authoritative; this row exists
// for fast queries and short-id resolution. Amounts are smallest-unit integer
// strings, never decimals, so the mirror stays bit-exact with the chain.
type Bill struct {
	BillID       string     `json:"billId"`
	ShortBillID  string     `json:"shortBillId"`
	Receiver     string     `json:"receiver"`
	Token        string     `json:"token"`
	Amount       string     `json:"amount"`
	Paid         bool       `json:"paid"`
	SocialImpact bool       `json:"socialImpact"`
	Category     string     `json:"category"`
	CreatedBy    string     `json:"createdBy"`
	Payer        string     `json:"payer,omitempty"`
	TxHash       string     `json:"txHash,omitempty"`
	B3trReward   string     `json:"b3trReward"`
	QRCode       string     `json:"qrCode,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	PaidAt       *time.Time `json:"paidAt,omitempty"`
}

// Payment is the append-only record of a successful pay action, one per bill.
type Payment struct {
	ID         int64     `json:"id"`
	BillID     string    `json:"billId"`
	Payer      string    `json:"payer"`
	TxHash     string    `json:"txHash"`
	Amount     string    `json:"amount"`
	Token      string    `json:"token"`
	B3trReward string    `json:"b3trReward"`
	CreatedAt  time.Time `json:"createdAt"`
}

// User aggregates per-wallet counters. Not authoritative: rebuildable from
// bill and payment history.
type User struct {
	Wallet            string    `json:"wallet"`
	BillsCreated      int64     `json:"billsCreated"`
	BillsPaid         int64     `json:"billsPaid"`
	TotalRewards      string    `json:"totalRewards"`
	SocialImpactBills int64     `json:"socialImpactBills"`
	LastActive        time.Time `json:"lastActive"`
}

// BridgeTx tracks an in-flight cross-chain transfer tied to a bill.
// Status moves pending -> confirmed -> completed, or to failed.
type BridgeTx struct {
	BridgeID     string     `json:"bridgeId"`
	BillID       string     `json:"billId"`
	SourceChain  string     `json:"sourceChain"`
	SourceToken  string     `json:"sourceToken"`
	SourceAmount string     `json:"sourceAmount"`
	TargetChain  string     `json:"targetChain"`
	TargetToken  string     `json:"targetToken"`
	SourceTxHash string     `json:"sourceTxHash,omitempty"`
	Status       string     `json:"status"`
	CreatedAt    time.Time  `json:"createdAt"`
	CompletedAt  *time.Time `json:"completedAt,omitempty"`
}

// HistoryFilter narrows ListHistory results. Wallet is required and matches
// either side of a bill; the rest are optional.
type HistoryFilter struct {
	Wallet       string
	Status       string // "paid" or "unpaid"
	Category     string
	SocialImpact *bool
}
