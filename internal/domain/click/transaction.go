// Package click models Click's two-phase prepare/complete callback protocol
// (§4.4): signed form posts, an error taxonomy, and a ClickTransaction row
// used for Complete idempotency.
package click

import "time"

type Status string

const (
	StatusInput     Status = "input"
	StatusCanceled  Status = "canceled"
	StatusConfirmed Status = "confirmed"
)

type Action int

const (
	ActionPrepare  Action = 0
	ActionComplete Action = 1
)

// Transaction is one Click transaction row, keyed by the provider's own
// click_trans_id for idempotent Complete replay.
type Transaction struct {
	ID              int64
	ClickTransID    int64
	MerchantTransID string // == order id, as a string
	Amount          int64  // sum, not tiyin
	Action          Action
	Status          Status
	SignTime        time.Time
	SignString      string
}
