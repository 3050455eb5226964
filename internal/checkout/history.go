package checkout

import (
	"slices"
	"time"
)

// RecentWindow is how long a finished order still counts as active.
const RecentWindow = 3 * 24 * time.Hour

var (
	inFlightStatuses = []string{"PENDING", "CONFIRMED", "PREPARING", "OUT_FOR_DELIVERY"}
	finishedStatuses = []string{"DELIVERED", "CANCELLED"}
)

// History is a user's orders split into active and past.
type History struct {
	Active []Order `json:"active"`
	Past   []Order `json:"past"`
}

// SplitOrders partitions orders relative to now. An order is active when it
// is in flight or was placed within RecentWindow. It is past when it is
// delivered or cancelled and older than the window. Orders matching neither
// rule appear in neither list. Both lists are newest first.
func SplitOrders(orders []Order, now time.Time) History {
	cutoff := now.Add(-RecentWindow)
	h := History{Active: []Order{}, Past: []Order{}}

	for _, o := range orders {
		recent := o.OrderDate.After(cutoff)
		if slices.Contains(inFlightStatuses, o.Status) || recent {
			h.Active = append(h.Active, o)
		}
		if slices.Contains(finishedStatuses, o.Status) && !recent {
			h.Past = append(h.Past, o)
		}
	}

	newestFirst := func(a, b Order) int { return b.OrderDate.Compare(a.OrderDate) }
	slices.SortStableFunc(h.Active, newestFirst)
	slices.SortStableFunc(h.Past, newestFirst)

	return h
}
