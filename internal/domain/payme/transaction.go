// Package payme models the Payme JSON-RPC transaction state machine
// (§4.3): CheckPerformTransaction, CreateTransaction, PerformTransaction,
// CancelTransaction, CheckTransaction, GetStatement.
package payme

import "time"

// State is Payme's own transaction-state numbering; it is the wire value
// returned to the provider, not a Go-idiomatic iota, so the literal values
// are load-bearing.
type State int

const (
	StateCreated   State = 1
	StatePerformed State = 2
	StateCancelled State = -1 // cancelled before perform
	StateRefunded  State = -2 // cancelled after perform (reachable in type only, see CancelTransaction)
)

// CancelReason mirrors Payme's reason codes; 4 ("cancelled by timeout /
// superseded") is the only one this core produces itself.
const ReasonTimeoutOrSuperseded = 4

// Transaction is one Payme transaction row, keyed by the provider's own
// paymeId for idempotent replay.
type Transaction struct {
	ID          int64
	PaymeID     string
	OrderID     int64
	Amount      int64 // tiyin
	Time        int64 // provider-supplied ms since epoch
	State       State
	Reason      *int
	CreateTime  int64 // ms since epoch, set by this core
	PerformTime *int64
	CancelTime  *int64
}

// IsActive reports whether this is the at-most-one-per-order active
// transaction (invariant 3).
func (t *Transaction) IsActive() bool { return t.State == StateCreated }

func (t *Transaction) IsTerminal() bool {
	return t.State == StatePerformed || t.State == StateCancelled || t.State == StateRefunded
}

// NowMillis returns the current time in Payme's epoch-millisecond wire format.
func NowMillis() int64 { return time.Now().UTC().UnixMilli() }
