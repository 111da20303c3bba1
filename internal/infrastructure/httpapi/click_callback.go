package httpapi

import (
	"net/http"
	"strconv"

	"github.com/shopmini/paycore/internal/application/click"
)

// parseClickRequest decodes Click's form-urlencoded callback body (§6) into
// the shape both Prepare and Complete share.
func parseClickRequest(r *http.Request) (click.CallbackRequest, bool) {
	if err := r.ParseForm(); err != nil {
		return click.CallbackRequest{}, false
	}
	clickTransID, err1 := strconv.ParseInt(r.FormValue("click_trans_id"), 10, 64)
	clickPaydocID, _ := strconv.ParseInt(r.FormValue("click_paydoc_id"), 10, 64)
	action, err2 := strconv.Atoi(r.FormValue("action"))
	errField, _ := strconv.Atoi(r.FormValue("error"))
	if err1 != nil || err2 != nil {
		return click.CallbackRequest{}, false
	}
	return click.CallbackRequest{
		ClickTransID:    clickTransID,
		ServiceID:       r.FormValue("service_id"),
		ClickPaydocID:   clickPaydocID,
		MerchantTransID: r.FormValue("merchant_trans_id"),
		Amount:          r.FormValue("amount"),
		Action:          action,
		Error:           errField,
		ErrorNote:       r.FormValue("error_note"),
		SignTime:        r.FormValue("sign_time"),
		SignString:      r.FormValue("sign_string"),
	}, true
}

func (h *Handler) handleClickPrepare(w http.ResponseWriter, r *http.Request) {
	req, ok := parseClickRequest(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed request"})
		return
	}
	res := h.click.Prepare(r.Context(), req)
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) handleClickComplete(w http.ResponseWriter, r *http.Request) {
	req, ok := parseClickRequest(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed request"})
		return
	}
	res := h.click.Complete(r.Context(), req)
	writeJSON(w, http.StatusOK, res)
}
