package click

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
)

// CallbackRequest is the decoded form body common to /prepare and /complete
// (§6 External Interfaces).
type CallbackRequest struct {
	ClickTransID    int64
	ServiceID       string
	ClickPaydocID   int64
	MerchantTransID string
	Amount          string // raw field, used verbatim in the signature
	Action          int
	Error           int
	ErrorNote       string
	SignTime        string
	SignString      string
}

// verifySign recomputes md5(click_trans_id||service_id||SECRET||merchant_trans_id||amount||action||sign_time)
// and compares it byte-for-byte (case-sensitive) against the provider-supplied hex digest.
func verifySign(req CallbackRequest, secret string) bool {
	raw := fmt.Sprintf("%d%s%s%s%s%d%s",
		req.ClickTransID, req.ServiceID, secret, req.MerchantTransID, req.Amount, req.Action, req.SignTime)
	sum := md5.Sum([]byte(raw))
	expected := hex.EncodeToString(sum[:])
	return expected == req.SignString
}
