package availability

import (
	"time"

	"radiantbloom/internal/schedule"
)

// Slot is one candidate appointment window aligned to the business day.
type Slot struct {
	Start time.Time
	End   time.Time
}

// GenerateSlots walks the open-to-close window in fixed steps equal to
// the service duration and emits every slot that does not overlap any of
// the staff member's busy intervals. The cursor starts at window open
// and advances by exactly one step, so the grid is duration-aligned; a
// slot ending exactly at close is valid, one extending past is not.
// Slots are never clipped: any overlap disqualifies the whole slot.
func GenerateSlots(window schedule.Window, step time.Duration, busy []Interval) []Slot {
	if step <= 0 {
		return nil
	}

	var slots []Slot
	for cursor := window.Open; !cursor.Add(step).After(window.Close); cursor = cursor.Add(step) {
		candidate := Interval{Start: cursor, End: cursor.Add(step)}

		conflict := false
		for _, iv := range busy {
			if candidate.Overlaps(iv) {
				conflict = true
				break
			}
		}
		if conflict {
			continue
		}

		slots = append(slots, Slot{Start: candidate.Start, End: candidate.End})
	}
	return slots
}
