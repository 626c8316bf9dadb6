package itemstatus

// Status is the kitchen workflow state of a single order item. It is
// independent of the order status: an order can be PROCESSING while
// some items are READY and others still NEEDS_PREPARATION.
type Status string

const (
	NeedsPreparation Status = "NEEDS_PREPARATION"
	InProgress       Status = "IN_PROGRESS"
	Ready            Status = "READY"
	Delivered        Status = "DELIVERED"
)

var All = []Status{
	NeedsPreparation,
	InProgress,
	Ready,
	Delivered,
}

var rank = map[Status]int{
	NeedsPreparation: 0,
	InProgress:       1,
	Ready:            2,
	Delivered:        3,
}

func Valid(s Status) bool {
	_, ok := rank[s]
	return ok
}

// CanTransitionTo reports whether moving from s to next is legal.
// Item moves are strictly forward.
func (s Status) CanTransitionTo(next Status) bool {
	from, okFrom := rank[s]
	to, okTo := rank[next]
	return okFrom && okTo && to > from
}

// Open reports whether kitchen work remains for the item.
func (s Status) Open() bool {
	return s == NeedsPreparation || s == InProgress
}
