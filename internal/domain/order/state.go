package order

// orderState implements the state pattern for order-lifecycle transitions,
// generalized from a single-path pending/reserved/completed flow into the
// five-status lifecycle this domain needs: new -> paid -> delivery -> done,
// with cancelled reachable from any non-terminal state.
type orderState interface {
	Status() Status
	OnPay(o *Order, method PaymentMethod) (orderState, error)
	OnDeliver(o *Order) (orderState, error)
	OnComplete(o *Order) (orderState, error)
	OnCancel(o *Order) (orderState, error)
}

func stateFor(s Status) orderState {
	switch s {
	case StatusPaid:
		return paidState{}
	case StatusDelivery:
		return deliveryState{}
	case StatusDone:
		return doneState{}
	case StatusCancelled:
		return cancelledState{}
	default:
		return newState{}
	}
}

type newState struct{}

func (newState) Status() Status { return StatusNew }
func (newState) OnPay(o *Order, method PaymentMethod) (orderState, error) {
	o.PaymentMethod = method
	return paidState{}, nil
}
func (newState) OnDeliver(*Order) (orderState, error)  { return nil, ErrInvalidTransition }
func (newState) OnComplete(*Order) (orderState, error) { return nil, ErrInvalidTransition }
func (newState) OnCancel(*Order) (orderState, error)   { return cancelledState{}, nil }

type paidState struct{}

func (paidState) Status() Status { return StatusPaid }
func (paidState) OnPay(*Order, PaymentMethod) (orderState, error) {
	return nil, ErrInvalidTransition
}
func (paidState) OnDeliver(*Order) (orderState, error)  { return deliveryState{}, nil }
func (paidState) OnComplete(*Order) (orderState, error) { return doneState{}, nil }
func (paidState) OnCancel(*Order) (orderState, error)   { return cancelledState{}, nil }

type deliveryState struct{}

func (deliveryState) Status() Status { return StatusDelivery }
func (deliveryState) OnPay(*Order, PaymentMethod) (orderState, error) {
	return nil, ErrInvalidTransition
}
func (deliveryState) OnDeliver(*Order) (orderState, error)  { return deliveryState{}, nil }
func (deliveryState) OnComplete(*Order) (orderState, error) { return doneState{}, nil }
func (deliveryState) OnCancel(*Order) (orderState, error)   { return cancelledState{}, nil }

type doneState struct{}

func (doneState) Status() Status { return StatusDone }
func (doneState) OnPay(*Order, PaymentMethod) (orderState, error) {
	return nil, ErrInvalidTransition
}
func (doneState) OnDeliver(*Order) (orderState, error)  { return nil, ErrInvalidTransition }
func (doneState) OnComplete(*Order) (orderState, error) { return doneState{}, nil }
func (doneState) OnCancel(*Order) (orderState, error)   { return nil, ErrInvalidTransition }

type cancelledState struct{}

func (cancelledState) Status() Status { return StatusCancelled }
func (cancelledState) OnPay(*Order, PaymentMethod) (orderState, error) {
	return nil, ErrInvalidTransition
}
func (cancelledState) OnDeliver(*Order) (orderState, error)  { return nil, ErrInvalidTransition }
func (cancelledState) OnComplete(*Order) (orderState, error) { return nil, ErrInvalidTransition }
func (cancelledState) OnCancel(*Order) (orderState, error)   { return cancelledState{}, nil }
