package api

import (
	"encoding/json"
	"errors"
	"net/http"

	historydb "github.com/chainmark-io/chainmark/internal/database"
	"github.com/chainmark-io/chainmark/internal/wallet"
	"github.com/chainmark-io/chainmark/lib/transaction"
)

type sendRequest struct {
	Message string `json:"message"`
	Network string `json:"network,omitempty"`
}

type sendResponse struct {
	TxID    string `json:"txid,omitempty"`
	Outcome string `json:"outcome"`
	Error   string `json:"error,omitempty"`
}

func (a *API) handleSend(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	network := req.Network
	if network == "" {
		network = a.Service.DefaultNetwork
	}

	txid, err := a.Service.Send(r.Context(), []byte(req.Message), network, nil)
	resp := sendResponse{}
	status := http.StatusOK
	switch {
	case err == nil:
		resp.TxID = txid.String()
		resp.Outcome = "success"
	case errors.Is(err, wallet.ErrInvalidArguments):
		resp.Outcome = "error"
		resp.Error = err.Error()
		status = http.StatusBadRequest
	case errors.Is(err, wallet.ErrServiceNotReady):
		resp.Outcome = "error"
		resp.Error = err.Error()
		status = http.StatusServiceUnavailable
	case errors.Is(err, transaction.ErrBroadcastTimeout):
		resp.TxID = txid.String()
		resp.Outcome = "timeout"
		resp.Error = err.Error()
		status = http.StatusGatewayTimeout
	default:
		resp.Outcome = "error"
		resp.Error = err.Error()
		status = http.StatusInternalServerError
	}

	writeJSON(w, status, resp)
}

func (a *API) handleBalance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	network := r.URL.Query().Get("network")
	if network == "" {
		network = a.Service.DefaultNetwork
	}

	balance, err := a.Service.Balance(r.Context(), network)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, wallet.ErrServiceNotReady) {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"network":  network,
		"satoshis": int64(balance),
		"balance":  balance.String(),
	})
}

func (a *API) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"networks": a.Service.Registry.Networks(),
	})
}

func (a *API) handleMessages(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	records, err := historydb.ListMessageRecords(50)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
