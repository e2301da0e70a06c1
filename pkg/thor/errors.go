package thor

import (
	"errors"
	"fmt"
	"strings"
)

// ErrReceiptTimeout is returned when the receipt polling ceiling is reached
// without observing a receipt.
var ErrReceiptTimeout = errors.New("transaction receipt not found")

// ErrorKind classifies wallet and submission failures. Provider errors arrive
// as free-form strings; they are mapped onto this closed set at the boundary
// so callers never pattern-match messages themselves.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindNotConnected
	KindRejected
	KindInsufficientBalance
	KindReverted
	KindTimeout
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotConnected:
		return "Wallet Not Connected"
	case KindRejected:
		return "Transaction Rejected"
	case KindInsufficientBalance:
		return "Insufficient Balance"
	case KindReverted:
		return "Transaction Reverted"
	case KindTimeout:
		return "Transaction Timeout"
	default:
		return "Transaction Failed"
	}
}

// WalletError carries an ErrorKind alongside the underlying provider error.
type WalletError struct {
	Kind ErrorKind
	Err  error
}

func (e *WalletError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return e.Kind.String()
}

func (e *WalletError) Unwrap() error { return e.Err }

// Classify maps a provider error onto a WalletError. Matching on message
// substrings is fragile but is the only signal wallet providers give.
func Classify(err error) *WalletError {
	var werr *WalletError
	if errors.As(err, &werr) {
		return werr
	}
	if errors.Is(err, ErrReceiptTimeout) {
		return &WalletError{Kind: KindTimeout, Err: err}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "rejected") || strings.Contains(msg, "denied"):
		return &WalletError{Kind: KindRejected, Err: err}
	case strings.Contains(msg, "insufficient"):
		return &WalletError{Kind: KindInsufficientBalance, Err: err}
	case strings.Contains(msg, "not connected") || strings.Contains(msg, "no signer") || strings.Contains(msg, "connex"):
		return &WalletError{Kind: KindNotConnected, Err: err}
	default:
		return &WalletError{Kind: KindUnknown, Err: err}
	}
}
