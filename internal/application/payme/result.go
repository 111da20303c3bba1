package payme

// Snapshot is the common {createTime, performTime, cancelTime, transaction,
// state, reason} envelope every Payme method echoes back.
type Snapshot struct {
	CreateTime  int64  `json:"create_time"`
	PerformTime *int64 `json:"perform_time"`
	CancelTime  *int64 `json:"cancel_time"`
	Transaction string `json:"transaction"`
	State       int    `json:"state"`
	Reason      *int   `json:"reason,omitempty"`
}

// AllowResult is CheckPerformTransaction's success payload.
type AllowResult struct {
	Allow bool `json:"allow"`
}

// ReceiptItem is one line of CreateTransaction's detail.items array.
type ReceiptItem struct {
	Title      string `json:"title"`
	Price      int64  `json:"price"` // tiyin
	Count      int    `json:"count"`
	Code       string `json:"code"`
	Units      int    `json:"units"`
	VATPercent int    `json:"vat_percent"`
	Package    string `json:"package_code"`
}

const receiptUnitPiece = 241092

// ReceiptDetail wraps the items array under the key Payme expects.
type ReceiptDetail struct {
	ReceiptType int           `json:"receipt_type"`
	Items       []ReceiptItem `json:"items"`
}

// CreateResult is CreateTransaction's success payload: the snapshot plus the
// receipt detail, present only on first creation per §4.3.2.
type CreateResult struct {
	Snapshot
	Detail *ReceiptDetail `json:"detail,omitempty"`
}

// StatementEntry is one row of GetStatement's result.
type StatementEntry struct {
	ID          string `json:"id"`
	Time        int64  `json:"time"`
	Amount      int64  `json:"amount"`
	Account     map[string]string `json:"account"`
	CreateTime  int64  `json:"create_time"`
	PerformTime *int64 `json:"perform_time"`
	CancelTime  *int64 `json:"cancel_time"`
	Transaction string `json:"transaction"`
	State       int    `json:"state"`
	Reason      *int   `json:"reason,omitempty"`
}
