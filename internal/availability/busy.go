package availability

import (
	"time"

	"radiantbloom/internal/models"
)

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether two half-open intervals intersect. Back-to-back
// intervals do not overlap.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start.Before(other.End) && iv.End.After(other.Start)
}

// BusyIndex maps a staff id to the intervals during which that staff
// member cannot be scheduled. No ordering guarantee: the generator does
// a linear scan against the overlap predicate.
type BusyIndex map[int64][]Interval

// BuildBusyIndex merges non-cancelled bookings and break/away blocks
// into a per-staff interval set. Shift blocks and bookings without a
// staff assignment are ignored.
func BuildBusyIndex(bookings []*models.Booking, blocks []models.AvailabilityBlock) BusyIndex {
	index := make(BusyIndex)

	for _, b := range bookings {
		if b.StaffID == 0 || !b.CountsAsBusy() {
			continue
		}
		index[b.StaffID] = append(index[b.StaffID], Interval{Start: b.StartTime, End: b.EndTime})
	}

	for _, block := range blocks {
		if block.Kind != models.BlockKindBreak && block.Kind != models.BlockKindAway {
			continue
		}
		index[block.StaffID] = append(index[block.StaffID], Interval{Start: block.StartsAt, End: block.EndsAt})
	}

	return index
}

// Busy reports whether the candidate interval overlaps any busy interval
// of the given staff member.
func (idx BusyIndex) Busy(staffID int64, candidate Interval) bool {
	for _, iv := range idx[staffID] {
		if candidate.Overlaps(iv) {
			return true
		}
	}
	return false
}
