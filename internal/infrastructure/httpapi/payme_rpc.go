package httpapi

import (
	"encoding/json"
	"net/http"

	dompayme "github.com/shopmini/paycore/internal/domain/payme"
)

// rpcRequest is the envelope every Payme method call arrives in (§6).
type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

type rpcErrorMessage struct {
	RU string `json:"ru"`
}

type rpcErrorBody struct {
	Code    int             `json:"code"`
	Message rpcErrorMessage `json:"message"`
	Data    string          `json:"data,omitempty"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *rpcErrorBody   `json:"error,omitempty"`
}

func rpcErrBody(e *dompayme.RPCError) *rpcErrorBody {
	return &rpcErrorBody{Code: int(e.Code), Message: rpcErrorMessage{RU: e.Message}, Data: e.Data}
}

func (h *Handler) writeRPCError(w http.ResponseWriter, id json.RawMessage, e *dompayme.RPCError) {
	writeJSON(w, http.StatusOK, rpcResponse{JSONRPC: "2.0", ID: id, Error: rpcErrBody(e)})
}

func (h *Handler) writeRPCResult(w http.ResponseWriter, id json.RawMessage, result any) {
	writeJSON(w, http.StatusOK, rpcResponse{JSONRPC: "2.0", ID: id, Result: result})
}

// handlePayme dispatches the six-method Payme JSON-RPC state machine over a
// single endpoint, per §4.3 and §6.
func (h *Handler) handlePayme(w http.ResponseWriter, r *http.Request) {
	user, pass, ok := r.BasicAuth()
	if !ok || user != paymeBasicAuthUser || pass != h.cfg.PaymeKey {
		h.writeRPCError(w, nil, dompayme.ErrAuth)
		return
	}

	var req rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeRPCError(w, nil, dompayme.ErrParse)
		return
	}

	ctx := r.Context()
	switch req.Method {
	case "CheckPerformTransaction":
		var p struct {
			Amount  int64             `json:"amount"`
			Account map[string]string `json:"account"`
		}
		if err := json.Unmarshal(req.Params, &p); err != nil {
			h.writeRPCError(w, req.ID, dompayme.ErrParse)
			return
		}
		res, rerr := h.payme.CheckPerformTransaction(ctx, p.Amount, p.Account)
		if rerr != nil {
			h.writeRPCError(w, req.ID, rerr)
			return
		}
		h.writeRPCResult(w, req.ID, res)

	case "CreateTransaction":
		var p struct {
			ID      string            `json:"id"`
			Time    int64             `json:"time"`
			Amount  int64             `json:"amount"`
			Account map[string]string `json:"account"`
		}
		if err := json.Unmarshal(req.Params, &p); err != nil {
			h.writeRPCError(w, req.ID, dompayme.ErrParse)
			return
		}
		res, rerr := h.payme.CreateTransaction(ctx, p.ID, p.Time, p.Amount, p.Account)
		if rerr != nil {
			h.writeRPCError(w, req.ID, rerr)
			return
		}
		h.writeRPCResult(w, req.ID, res)

	case "PerformTransaction":
		var p struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(req.Params, &p); err != nil {
			h.writeRPCError(w, req.ID, dompayme.ErrParse)
			return
		}
		res, rerr := h.payme.PerformTransaction(ctx, p.ID)
		if rerr != nil {
			h.writeRPCError(w, req.ID, rerr)
			return
		}
		h.writeRPCResult(w, req.ID, res)

	case "CancelTransaction":
		var p struct {
			ID     string `json:"id"`
			Reason int    `json:"reason"`
		}
		if err := json.Unmarshal(req.Params, &p); err != nil {
			h.writeRPCError(w, req.ID, dompayme.ErrParse)
			return
		}
		res, rerr := h.payme.CancelTransaction(ctx, p.ID, p.Reason)
		if rerr != nil {
			h.writeRPCError(w, req.ID, rerr)
			return
		}
		h.writeRPCResult(w, req.ID, res)

	case "CheckTransaction":
		var p struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(req.Params, &p); err != nil {
			h.writeRPCError(w, req.ID, dompayme.ErrParse)
			return
		}
		res, rerr := h.payme.CheckTransaction(ctx, p.ID)
		if rerr != nil {
			h.writeRPCError(w, req.ID, rerr)
			return
		}
		h.writeRPCResult(w, req.ID, res)

	case "GetStatement":
		var p struct {
			From int64 `json:"from"`
			To   int64 `json:"to"`
		}
		if err := json.Unmarshal(req.Params, &p); err != nil {
			h.writeRPCError(w, req.ID, dompayme.ErrParse)
			return
		}
		entries, rerr := h.payme.GetStatement(ctx, p.From, p.To)
		if rerr != nil {
			h.writeRPCError(w, req.ID, rerr)
			return
		}
		h.writeRPCResult(w, req.ID, struct {
			Transactions any `json:"transactions"`
		}{Transactions: entries})

	default:
		h.writeRPCError(w, req.ID, dompayme.ErrMethodNotFound)
	}
}
