package bridge

// Partner-side status strings. The casing is the partner's, not ours.
const (
	StatusPending    = "pending"
	StatusProcessing = "Processing"
	StatusSuccess    = "Success"
	StatusFailed     = "Failed"
)

// TxParams describes a cross-chain transfer to create.
type TxParams struct {
	FromChain   string `json:"fromChain"`
	ToChain     string `json:"toChain"`
	FromAccount string `json:"fromAccount"`
	ToAccount   string `json:"toAccount"`
	FromToken   string `json:"fromToken"`
	ToToken     string `json:"toToken"`
	Amount      string `json:"amount"`
	Partner     string `json:"partner,omitempty"`
}

// TxData is the transaction the user must submit on the source chain.
type TxData struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Value string `json:"value"`
	Data  string `json:"data"`
}

// FeeValue is a single fee component, absolute or percentage.
type FeeValue struct {
	Value     string `json:"value"`
	IsPercent bool   `json:"isPercent"`
}

// FeeAndQuota summarizes the cost of a transfer.
type FeeAndQuota struct {
	Symbol       string   `json:"symbol"`
	NetworkFee   FeeValue `json:"networkFee"`
	OperationFee FeeValue `json:"operationFee"`
}

// CreateTxResult is the payload of a successful createTx call.
type CreateTxResult struct {
	Tx            TxData      `json:"tx"`
	ReceiveAmount string      `json:"receiveAmount"`
	ChainID       string      `json:"chainId"`
	FeeAndQuota   FeeAndQuota `json:"feeAndQuota"`
}

// Status is a point-in-time view of an in-flight transfer.
type Status struct {
	TxHash        string `json:"txHash"`
	Status        string `json:"status"`
	Timestamp     int64  `json:"timestamp"`
	TokenPair     string `json:"tokenPair"`
	SendAmount    string `json:"sendAmount"`
	ReceiveAmount string `json:"receiveAmount"`
}

// Terminal reports whether the transfer has reached a final state.
func (s *Status) Terminal() bool {
	return s.Status == StatusSuccess || s.Status == StatusFailed
}

// envelope wraps every partner response.
type envelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

type createTxResponse struct {
	envelope
	Data CreateTxResult `json:"data"`
}

type quoteResponse struct {
	envelope
	Data FeeAndQuota `json:"data"`
}
