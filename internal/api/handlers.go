package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Trojanhorse7/VeGate/internal/storage"
	"github.com/Trojanhorse7/VeGate/pkg/billid"
	"github.com/Trojanhorse7/VeGate/pkg/bridge"
	"github.com/Trojanhorse7/VeGate/pkg/contract"
	"github.com/Trojanhorse7/VeGate/pkg/qr"
	"github.com/Trojanhorse7/VeGate/pkg/units"
)

// shortIDRetries bounds regeneration when a generated bill id collides on its
// short form.
const shortIDRetries = 5

type createBillRequest struct {
	BillID       string `json:"billId"`
	Receiver     string `json:"receiver"`
	Token        string `json:"token"`
	Amount       string `json:"amount"`
	SocialImpact bool   `json:"socialImpact"`
	Category     string `json:"category"`
	CreatedBy    string `json:"createdBy"`
}

func (s *Server) handleCreateBill(w http.ResponseWriter, r *http.Request) {
	var req createBillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if req.Receiver == "" || req.Amount == "" || req.Category == "" || req.CreatedBy == "" {
		respondError(w, http.StatusBadRequest, "receiver, amount, category and createdBy are required")
		return
	}
	if !units.IsSmallestUnit(req.Amount) || strings.Trim(req.Amount, "0") == "" {
		respondError(w, http.StatusBadRequest, "amount must be a positive integer in the smallest unit")
		return
	}
	if !contract.ValidCategory(req.Category) {
		respondError(w, http.StatusBadRequest, "unknown category")
		return
	}
	token := req.Token
	if token == "" {
		token = contract.ZeroAddress.Hex()
	}
	if !strings.EqualFold(token, contract.ZeroAddress.Hex()) {
		respondError(w, http.StatusBadRequest, "only the native asset is supported")
		return
	}
	if req.BillID != "" && !billid.Valid(req.BillID) {
		respondError(w, http.StatusBadRequest, "billId must be a 0x-prefixed 32-byte hex string")
		return
	}

	bill, err := s.createWithRetry(&req, token)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrDuplicateBillID):
			respondError(w, http.StatusConflict, "bill already exists")
		case errors.Is(err, storage.ErrDuplicateShortID):
			respondError(w, http.StatusConflict, "short id collision, retry")
		default:
			s.log.Error("create bill", "error", err)
			respondError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	billsCreated.Inc()
	respond(w, http.StatusCreated, map[string]interface{}{"bill": bill})
}

// createWithRetry inserts the bill, regenerating the id when its short form
// collides with an existing row. Caller-supplied ids are never regenerated;
// a collision there is the caller's to resolve.
func (s *Server) createWithRetry(req *createBillRequest, token string) (*storage.Bill, error) {
	callerID := req.BillID != ""

	var lastErr error
	for attempt := 0; attempt < shortIDRetries; attempt++ {
		id := req.BillID
		if !callerID {
			var err error
			id, err = billid.Generate(req.CreatedBy)
			if err != nil {
				return nil, err
			}
		}
		short := billid.Short(id)

		qrData, err := qr.DataURL(short, s.publicBaseURL, qr.DefaultSize)
		if err != nil {
			return nil, err
		}

		bill := &storage.Bill{
			BillID:       id,
			ShortBillID:  short,
			Receiver:     req.Receiver,
			Token:        token,
			Amount:       req.Amount,
			SocialImpact: req.SocialImpact,
			Category:     req.Category,
			CreatedBy:    req.CreatedBy,
			B3trReward:   "0",
			QRCode:       qrData,
			CreatedAt:    time.Now().UTC(),
		}

		err = s.storage.CreateBill(bill)
		if err == nil {
			return bill, nil
		}
		if callerID || !errors.Is(err, storage.ErrDuplicateShortID) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

func (s *Server) handleGetBill(w http.ResponseWriter, r *http.Request) {
	bill, err := s.storage.GetBill(chi.URLParam(r, "billID"))
	if err != nil {
		s.respondStorageError(w, err, "get bill")
		return
	}
	respond(w, http.StatusOK, map[string]interface{}{"bill": bill})
}

func (s *Server) handleGetBillByShort(w http.ResponseWriter, r *http.Request) {
	bill, err := s.storage.GetBillByShortID(chi.URLParam(r, "shortID"))
	if err != nil {
		s.respondStorageError(w, err, "get bill by short id")
		return
	}
	respond(w, http.StatusOK, map[string]interface{}{"bill": bill})
}

type payBillRequest struct {
	Payer      string `json:"payer"`
	TxHash     string `json:"txHash"`
	B3trReward string `json:"b3trReward"`
}

func (s *Server) handlePayBill(w http.ResponseWriter, r *http.Request) {
	billID := chi.URLParam(r, "billID")

	var req payBillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Payer == "" || req.TxHash == "" {
		respondError(w, http.StatusBadRequest, "payer and txHash are required")
		return
	}
	reward := req.B3trReward
	if reward == "" {
		reward = "0"
	}

	// MarkBillPaid is idempotent on txHash, so a short retry against
	// transient sqlite contention is safe.
	var err error
	for attempt := 0; attempt < 3; attempt++ {
		err = s.storage.MarkBillPaid(billID, req.Payer, req.TxHash, reward)
		if err == nil || errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrAlreadyPaid) {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			respondError(w, http.StatusNotFound, "bill not found")
		case errors.Is(err, storage.ErrAlreadyPaid):
			respondError(w, http.StatusConflict, "bill already paid")
		default:
			s.log.Error("mark bill paid", "bill_id", billID, "error", err)
			respondError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	bill, err := s.storage.GetBill(billID)
	if err != nil {
		s.respondStorageError(w, err, "get bill after pay")
		return
	}

	billsPaid.Inc()
	respond(w, http.StatusOK, map[string]interface{}{"bill": bill})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	wallet := q.Get("wallet")
	if wallet == "" {
		respondError(w, http.StatusBadRequest, "wallet is required")
		return
	}

	filter := storage.HistoryFilter{
		Wallet:   wallet,
		Status:   q.Get("status"),
		Category: q.Get("category"),
	}
	if v := q.Get("socialImpact"); v != "" {
		b := v == "true" || v == "1"
		filter.SocialImpact = &b
	}
	if filter.Status != "" && filter.Status != "paid" && filter.Status != "unpaid" {
		respondError(w, http.StatusBadRequest, "status must be paid or unpaid")
		return
	}

	bills, err := s.storage.ListHistory(filter)
	if err != nil {
		s.log.Error("list history", "wallet", wallet, "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respond(w, http.StatusOK, map[string]interface{}{"bills": bills})
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	user, err := s.storage.GetUser(chi.URLParam(r, "wallet"))
	if err != nil {
		s.respondStorageError(w, err, "get user")
		return
	}
	respond(w, http.StatusOK, map[string]interface{}{"user": user})
}

type bridgeCreateRequest struct {
	BillID string `json:"billId"`
	bridge.TxParams
}

func (s *Server) handleBridgeCreate(w http.ResponseWriter, r *http.Request) {
	var req bridgeCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.BillID == "" || req.FromChain == "" || req.ToChain == "" ||
		req.FromAccount == "" || req.ToAccount == "" || req.Amount == "" {
		respondError(w, http.StatusBadRequest, "billId, fromChain, toChain, fromAccount, toAccount and amount are required")
		return
	}
	if _, err := s.storage.GetBill(req.BillID); err != nil {
		s.respondStorageError(w, err, "get bill for bridge create")
		return
	}

	result, err := s.bridge.CreateTx(r.Context(), req.TxParams)
	if err != nil {
		s.log.Error("bridge create tx", "error", err)
		respondError(w, http.StatusBadGateway, "bridge partner error")
		return
	}

	respond(w, http.StatusOK, map[string]interface{}{"result": result})
}

func (s *Server) handleBridgeQuote(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := bridge.TxParams{
		FromChain: q.Get("fromChain"),
		ToChain:   q.Get("toChain"),
		FromToken: q.Get("fromToken"),
		ToToken:   q.Get("toToken"),
		Amount:    q.Get("amount"),
	}
	if params.FromChain == "" || params.ToChain == "" || params.Amount == "" {
		respondError(w, http.StatusBadRequest, "fromChain, toChain and amount are required")
		return
	}

	quote, err := s.bridge.Quote(r.Context(), params)
	if err != nil {
		s.log.Error("bridge quote", "error", err)
		respondError(w, http.StatusBadGateway, "bridge partner error")
		return
	}
	respond(w, http.StatusOK, map[string]interface{}{"quote": quote})
}

type bridgeTrackRequest struct {
	TxHash       string `json:"txHash"`
	BillID       string `json:"billId"`
	SourceChain  string `json:"sourceChain"`
	SourceToken  string `json:"sourceToken"`
	SourceAmount string `json:"sourceAmount"`
	TargetChain  string `json:"targetChain"`
	TargetToken  string `json:"targetToken"`
}

// handleBridgeTrack registers a submitted source-chain transaction so the
// poller can follow it to completion.
func (s *Server) handleBridgeTrack(w http.ResponseWriter, r *http.Request) {
	var req bridgeTrackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.TxHash == "" || req.BillID == "" {
		respondError(w, http.StatusBadRequest, "txHash and billId are required")
		return
	}

	// The transfer row references the bill, so an unknown bill is the
	// caller's error, not a constraint failure.
	if _, err := s.storage.GetBill(req.BillID); err != nil {
		s.respondStorageError(w, err, "get bill for bridge track")
		return
	}

	bt := &storage.BridgeTx{
		BridgeID:     req.TxHash,
		BillID:       req.BillID,
		SourceChain:  req.SourceChain,
		SourceToken:  req.SourceToken,
		SourceAmount: req.SourceAmount,
		TargetChain:  req.TargetChain,
		TargetToken:  req.TargetToken,
		SourceTxHash: req.TxHash,
		Status:       "pending",
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.storage.CreateBridgeTx(bt); err != nil {
		s.log.Error("create bridge tx", "tx_hash", req.TxHash, "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	bridgeTransfers.Inc()
	respond(w, http.StatusCreated, map[string]interface{}{"transfer": bt})
}

func (s *Server) handleBridgeStatus(w http.ResponseWriter, r *http.Request) {
	txHash := chi.URLParam(r, "txHash")

	status, err := s.bridge.GetStatus(r.Context(), txHash)
	if err != nil {
		s.log.Error("bridge status", "tx_hash", txHash, "error", err)
		respondError(w, http.StatusBadGateway, "bridge partner error")
		return
	}

	// Refresh the mirror row opportunistically; transfers we are not
	// tracking are still reported.
	mirrored := bridge.MirrorStatus(status.Status)
	if err := s.storage.UpdateBridgeTxStatus(txHash, mirrored, status.TxHash); err != nil && !errors.Is(err, storage.ErrNotFound) {
		s.log.Warn("refresh bridge tx", "tx_hash", txHash, "error", err)
	}

	respond(w, http.StatusOK, map[string]interface{}{
		"status": status,
		"state":  mirrored,
	})
}

func (s *Server) respondStorageError(w http.ResponseWriter, err error, op string) {
	if errors.Is(err, storage.ErrNotFound) {
		respondError(w, http.StatusNotFound, "not found")
		return
	}
	s.log.Error(op, "error", err)
	respondError(w, http.StatusInternalServerError, "internal error")
}
