// Package booking implements the appointment-availability selection flow:
// provider directory, per-day availability, morning/afternoon slot
// partitioning, hour selection and submission.
package booking

import (
	"fmt"

	"github.com/wolfman30/salon-booking/internal/salonapi"
)

// noonHour splits the day: hours below it are morning, the rest afternoon.
const noonHour = 12

// Slot is an availability entry ready for display.
type Slot struct {
	Hour          int    `json:"hour"`
	FormattedHour string `json:"formattedHour"`
	Available     bool   `json:"available"`
}

// FormatHour renders an hour as a zero-padded 24-hour label with minutes
// fixed at "00": 9 -> "09:00", 14 -> "14:00".
func FormatHour(hour int) string {
	return fmt.Sprintf("%02d:00", hour)
}

// Partition splits an availability table into morning and afternoon slots,
// keeping the table's order within each half. It has no state and does not
// filter unavailable slots; callers decide whether those are selectable.
func Partition(table []salonapi.AvailabilitySlot) (morning, afternoon []Slot) {
	morning = make([]Slot, 0, len(table))
	afternoon = make([]Slot, 0, len(table))
	for _, entry := range table {
		slot := Slot{
			Hour:          entry.Hour,
			FormattedHour: FormatHour(entry.Hour),
			Available:     entry.Available,
		}
		if entry.Hour < noonHour {
			morning = append(morning, slot)
		} else {
			afternoon = append(afternoon, slot)
		}
	}
	return morning, afternoon
}

// ValidateTable rejects tables with hours outside 0..23 or repeated hours.
func ValidateTable(table []salonapi.AvailabilitySlot) error {
	seen := make(map[int]struct{}, len(table))
	for _, entry := range table {
		if !validHour(entry.Hour) {
			return fmt.Errorf("%w: %d", ErrInvalidHour, entry.Hour)
		}
		if _, dup := seen[entry.Hour]; dup {
			return fmt.Errorf("duplicate hour %d in availability table", entry.Hour)
		}
		seen[entry.Hour] = struct{}{}
	}
	return nil
}

func validHour(hour int) bool {
	return hour >= 0 && hour <= 23
}

func findSlot(table []salonapi.AvailabilitySlot, hour int) (salonapi.AvailabilitySlot, bool) {
	for _, entry := range table {
		if entry.Hour == hour {
			return entry, true
		}
	}
	return salonapi.AvailabilitySlot{}, false
}
