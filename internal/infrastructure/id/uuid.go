// Package id provides uuid-based id generation independent of any
// database-assigned integer primary key. No other package imports it: the
// HTTP middleware calls uuid directly for request ids, and Click's
// merchant_prepare_id is the order id.
package id

import "github.com/google/uuid"

type Generator struct{}

func NewGenerator() Generator { return Generator{} }

func (Generator) NewID() string { return uuid.NewString() }
