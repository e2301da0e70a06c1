package contract

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/Trojanhorse7/VeGate/pkg/thor"
)

// Caller runs a read-only clause against a chain node.
type Caller interface {
	Call(ctx context.Context, clause thor.Clause) ([]byte, error)
}

// VeGate binds the contract at a fixed address to a chain node for view calls
// and builds clauses for the two mutating operations.
type VeGate struct {
	addr   common.Address
	caller Caller
}

// New binds the VeGate contract at addr.
func New(addr common.Address, caller Caller) *VeGate {
	return &VeGate{addr: addr, caller: caller}
}

// Address returns the bound contract address.
func (v *VeGate) Address() common.Address { return v.addr }

// CreateBillClause builds the clause for createBill. The token must be the
// zero-address sentinel; the builder does not enforce that, the caller does.
func (v *VeGate) CreateBillClause(billID [32]byte, token common.Address, amount *big.Int, socialImpact bool, category string) (thor.Clause, error) {
	data, err := PackCreateBill(billID, token, amount, socialImpact, category)
	if err != nil {
		return thor.Clause{}, fmt.Errorf("pack createBill: %w", err)
	}
	return thor.Clause{
		To:    v.addr.Hex(),
		Value: "0x0",
		Data:  hexutil.Encode(data),
	}, nil
}

// PayBillClause builds the clause for payBill. The bill amount rides along as
// the clause value: payBill is payable and settles in the native asset.
func (v *VeGate) PayBillClause(billID [32]byte, amount *big.Int) (thor.Clause, error) {
	data, err := PackPayBill(billID)
	if err != nil {
		return thor.Clause{}, fmt.Errorf("pack payBill: %w", err)
	}
	return thor.Clause{
		To:    v.addr.Hex(),
		Value: hexutil.EncodeBig(amount),
		Data:  hexutil.Encode(data),
	}, nil
}

// GetBill reads the authoritative bill record from the chain.
func (v *VeGate) GetBill(ctx context.Context, billID [32]byte) (*Bill, error) {
	data, err := PackGetBill(billID)
	if err != nil {
		return nil, fmt.Errorf("pack getBill: %w", err)
	}
	out, err := v.caller.Call(ctx, thor.Clause{To: v.addr.Hex(), Value: "0x0", Data: hexutil.Encode(data)})
	if err != nil {
		return nil, fmt.Errorf("call getBill: %w", err)
	}
	return UnpackBill(out)
}

// GetUserRewards reads the user's accumulated B3TR rewards from the chain.
func (v *VeGate) GetUserRewards(ctx context.Context, user common.Address) (*big.Int, error) {
	data, err := PackGetUserRewards(user)
	if err != nil {
		return nil, fmt.Errorf("pack getUserRewards: %w", err)
	}
	out, err := v.caller.Call(ctx, thor.Clause{To: v.addr.Hex(), Value: "0x0", Data: hexutil.Encode(data)})
	if err != nil {
		return nil, fmt.Errorf("call getUserRewards: %w", err)
	}
	return UnpackUserRewards(out)
}

// UserCreatedBills lists the bill ids created by a user.
func (v *VeGate) UserCreatedBills(ctx context.Context, user common.Address) ([][32]byte, error) {
	return v.userBills(ctx, "getUserCreatedBills", user)
}

// UserPaidBills lists the bill ids paid by a user.
func (v *VeGate) UserPaidBills(ctx context.Context, user common.Address) ([][32]byte, error) {
	return v.userBills(ctx, "getUserPaidBills", user)
}

func (v *VeGate) userBills(ctx context.Context, method string, user common.Address) ([][32]byte, error) {
	data, err := vegateABI.Pack(method, user)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	out, err := v.caller.Call(ctx, thor.Clause{To: v.addr.Hex(), Value: "0x0", Data: hexutil.Encode(data)})
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	return UnpackBillIDs(method, out)
}
