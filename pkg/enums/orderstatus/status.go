package orderstatus

// Status is the lifecycle state of an order. The server is the sole
// arbiter of transition legality; clients use the same rules to decide
// which moves may be applied optimistically.
type Status string

const (
	Pending       Status = "PENDING"
	Processing    Status = "PROCESSING"
	Ready         Status = "READY"
	Paid          Status = "PAID"
	Completed     Status = "COMPLETED"
	Cancelled     Status = "CANCELLED"
	PaymentFailed Status = "PAYMENT_FAILED"
)

var All = []Status{
	Pending,
	Processing,
	Ready,
	Paid,
	Completed,
	Cancelled,
	PaymentFailed,
}

// rank orders the happy-path chain PENDING -> PROCESSING -> READY ->
// PAID -> COMPLETED. Branch states are not ranked.
var rank = map[Status]int{
	Pending:    0,
	Processing: 1,
	Ready:      2,
	Paid:       3,
	Completed:  4,
}

func Valid(s Status) bool {
	for _, known := range All {
		if s == known {
			return true
		}
	}
	return false
}

// CanTransitionTo reports whether moving from s to next is legal.
// Forward moves along the chain may skip states; CANCELLED and
// PAYMENT_FAILED branch off PENDING only, and PAYMENT_FAILED may return
// to PENDING when the customer retries payment.
func (s Status) CanTransitionTo(next Status) bool {
	if s == next {
		return false
	}
	if s.Terminal() {
		return false
	}
	if s == PaymentFailed {
		return next == Pending
	}
	switch next {
	case Cancelled, PaymentFailed:
		return s == Pending
	}
	from, okFrom := rank[s]
	to, okTo := rank[next]
	return okFrom && okTo && to > from
}

// Terminal reports whether no further transitions are possible.
func (s Status) Terminal() bool {
	return s == Completed || s == Cancelled
}

// Settled reports whether the order has been paid in full, online
// (PAID) or at the counter (COMPLETED).
func (s Status) Settled() bool {
	return s == Paid || s == Completed
}

// Active reports whether the order still represents an open tab for
// its table. A table may hold at most one active order.
func (s Status) Active() bool {
	switch s {
	case Pending, Processing, Ready, PaymentFailed:
		return true
	}
	return false
}

// Appendable reports whether new items may still be added.
func (s Status) Appendable() bool {
	switch s {
	case Pending, Processing, Ready:
		return true
	}
	return false
}
