// Package contract encodes and decodes calls to the deployed VeGate contract.
//
// The ABI here must match the deployed contract byte-exactly; clause builders
// produce payloads in the fixed positional order the contract expects.
package contract

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ZeroAddress is the native-asset sentinel. The deployed contract accepts only
// the chain's native asset, so every bill's token field holds this value.
var ZeroAddress = common.Address{}

// Categories visible to the contract and the mirror.
var Categories = []string{"Donation", "Subscription", "E-commerce", "Utility"}

// ValidCategory reports whether s is one of the fixed bill categories.
func ValidCategory(s string) bool {
	for _, c := range Categories {
		if s == c {
			return true
		}
	}
	return false
}

const rawABI = `[
	{"type":"function","name":"createBill","stateMutability":"nonpayable","inputs":[
		{"name":"billId","type":"bytes32"},
		{"name":"token","type":"address"},
		{"name":"amount","type":"uint256"},
		{"name":"socialImpact","type":"bool"},
		{"name":"category","type":"string"}],"outputs":[]},
	{"type":"function","name":"payBill","stateMutability":"payable","inputs":[
		{"name":"billId","type":"bytes32"}],"outputs":[]},
	{"type":"function","name":"getBill","stateMutability":"view","inputs":[
		{"name":"billId","type":"bytes32"}],"outputs":[
		{"name":"","type":"tuple","components":[
			{"name":"receiver","type":"address"},
			{"name":"token","type":"address"},
			{"name":"amount","type":"uint256"},
			{"name":"paid","type":"bool"},
			{"name":"socialImpact","type":"bool"},
			{"name":"category","type":"string"},
			{"name":"createdAt","type":"uint256"},
			{"name":"paidAt","type":"uint256"},
			{"name":"payer","type":"address"},
			{"name":"b3trReward","type":"uint256"},
			{"name":"bridgeId","type":"bytes32"}]}]},
	{"type":"function","name":"getUserRewards","stateMutability":"view","inputs":[
		{"name":"user","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"getUserCreatedBills","stateMutability":"view","inputs":[
		{"name":"user","type":"address"}],"outputs":[{"name":"","type":"bytes32[]"}]},
	{"type":"function","name":"getUserPaidBills","stateMutability":"view","inputs":[
		{"name":"user","type":"address"}],"outputs":[{"name":"","type":"bytes32[]"}]}
]`

var vegateABI = mustParseABI()

func mustParseABI() abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(rawABI))
	if err != nil {
		panic(fmt.Sprintf("parse vegate abi: %v", err))
	}
	return parsed
}

// ABI exposes the parsed contract ABI for log decoding and tests.
func ABI() abi.ABI { return vegateABI }

// ParseBillID decodes a 0x-prefixed 64-hex-char bill id into its bytes32 form.
func ParseBillID(s string) ([32]byte, error) {
	var id [32]byte
	raw, err := hexutil.Decode(s)
	if err != nil {
		return id, fmt.Errorf("decode bill id %q: %w", s, err)
	}
	if len(raw) != 32 {
		return id, fmt.Errorf("bill id must be 32 bytes, got %d", len(raw))
	}
	copy(id[:], raw)
	return id, nil
}

// FormatBillID renders a bytes32 bill id in its canonical 0x-hex form.
func FormatBillID(id [32]byte) string {
	return hexutil.Encode(id[:])
}

// PackCreateBill encodes a createBill call.
func PackCreateBill(billID [32]byte, token common.Address, amount *big.Int, socialImpact bool, category string) ([]byte, error) {
	return vegateABI.Pack("createBill", billID, token, amount, socialImpact, category)
}

// PackPayBill encodes a payBill call.
func PackPayBill(billID [32]byte) ([]byte, error) {
	return vegateABI.Pack("payBill", billID)
}

// PackGetBill encodes a getBill view call.
func PackGetBill(billID [32]byte) ([]byte, error) {
	return vegateABI.Pack("getBill", billID)
}

// PackGetUserRewards encodes a getUserRewards view call.
func PackGetUserRewards(user common.Address) ([]byte, error) {
	return vegateABI.Pack("getUserRewards", user)
}

// Bill is the on-chain bill record as returned by getBill.
type Bill struct {
	Receiver     common.Address `abi:"receiver"`
	Token        common.Address `abi:"token"`
	Amount       *big.Int       `abi:"amount"`
	Paid         bool           `abi:"paid"`
	SocialImpact bool           `abi:"socialImpact"`
	Category     string         `abi:"category"`
	CreatedAt    *big.Int       `abi:"createdAt"`
	PaidAt       *big.Int       `abi:"paidAt"`
	Payer        common.Address `abi:"payer"`
	B3trReward   *big.Int       `abi:"b3trReward"`
	BridgeId     [32]byte       `abi:"bridgeId"`
}

// UnpackBill decodes getBill return data.
func UnpackBill(data []byte) (*Bill, error) {
	out, err := vegateABI.Unpack("getBill", data)
	if err != nil {
		return nil, fmt.Errorf("unpack getBill: %w", err)
	}
	if len(out) != 1 {
		return nil, fmt.Errorf("unexpected getBill output length %d", len(out))
	}
	bill := abi.ConvertType(out[0], new(Bill)).(*Bill)
	return bill, nil
}

// UnpackUserRewards decodes getUserRewards return data.
func UnpackUserRewards(data []byte) (*big.Int, error) {
	out, err := vegateABI.Unpack("getUserRewards", data)
	if err != nil {
		return nil, fmt.Errorf("unpack getUserRewards: %w", err)
	}
	if len(out) != 1 {
		return nil, fmt.Errorf("unexpected getUserRewards output length %d", len(out))
	}
	reward, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected getUserRewards output type %T", out[0])
	}
	return reward, nil
}

// UnpackBillIDs decodes a bytes32[] result from the user bill list views.
func UnpackBillIDs(method string, data []byte) ([][32]byte, error) {
	out, err := vegateABI.Unpack(method, data)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	if len(out) != 1 {
		return nil, fmt.Errorf("unexpected %s output length %d", method, len(out))
	}
	ids, ok := out[0].([][32]byte)
	if !ok {
		return nil, fmt.Errorf("unexpected %s output type %T", method, out[0])
	}
	return ids, nil
}
