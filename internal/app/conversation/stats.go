package conversation

import "sync/atomic"

// Stats counts what the engine does, including the events it deliberately
// ignores. Silent no-ops stay silent toward the customer but observable here.
type Stats struct {
	EventsHandled   atomic.Int64
	EventsIgnored   atomic.Int64
	OrdersSubmitted atomic.Int64
	OrdersAccepted  atomic.Int64
	OrdersRejected  atomic.Int64
}

func (s *Stats) Snapshot() map[string]int64 {
	return map[string]int64{
		"events_handled":   s.EventsHandled.Load(),
		"events_ignored":   s.EventsIgnored.Load(),
		"orders_submitted": s.OrdersSubmitted.Load(),
		"orders_accepted":  s.OrdersAccepted.Load(),
		"orders_rejected":  s.OrdersRejected.Load(),
	}
}
