package thor

// Clause is a single VeChain transaction clause: destination, value in wei
// (0x-hex) and ABI-encoded call data.
type Clause struct {
	To    string `json:"to"`
	Value string `json:"value"`
	Data  string `json:"data"`
}

// Receipt is a mined transaction receipt. Reverted means the transaction was
// included but its effects were rolled back; callers must treat that as
// failure.
type Receipt struct {
	GasUsed  uint64      `json:"gasUsed"`
	GasPayer string      `json:"gasPayer"`
	Paid     string      `json:"paid"`
	Reward   string      `json:"reward"`
	Reverted bool        `json:"reverted"`
	Meta     ReceiptMeta `json:"meta"`
	Outputs  []Output    `json:"outputs"`
}

// ReceiptMeta locates the receipt in the chain.
type ReceiptMeta struct {
	BlockID        string `json:"blockID"`
	BlockNumber    uint64 `json:"blockNumber"`
	BlockTimestamp uint64 `json:"blockTimestamp"`
	TxID           string `json:"txID"`
	TxOrigin       string `json:"txOrigin"`
}

// Output is the result of one clause within a receipt.
type Output struct {
	ContractAddress *string    `json:"contractAddress"`
	Events          []Event    `json:"events"`
	Transfers       []Transfer `json:"transfers"`
}

// Event is a contract log entry.
type Event struct {
	Address string   `json:"address"`
	Topics  []string `json:"topics"`
	Data    string   `json:"data"`
}

// Transfer is a native-asset movement recorded in a receipt.
type Transfer struct {
	Sender    string `json:"sender"`
	Recipient string `json:"recipient"`
	Amount    string `json:"amount"`
}

// Account holds the balance state of an address.
type Account struct {
	Balance string `json:"balance"`
	Energy  string `json:"energy"`
	HasCode bool   `json:"hasCode"`
}

// callRequest is the body of a read-only clause simulation.
type callRequest struct {
	Clauses []Clause `json:"clauses"`
	Caller  string   `json:"caller,omitempty"`
}

// callResult is the per-clause outcome of a simulation.
type callResult struct {
	Data     string `json:"data"`
	GasUsed  uint64 `json:"gasUsed"`
	Reverted bool   `json:"reverted"`
	VMError  string `json:"vmError"`
}
