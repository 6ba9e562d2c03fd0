package booking

import "errors"

var (
	ErrNoProvider        = errors.New("booking: no provider selected")
	ErrNoHour            = errors.New("booking: no hour selected")
	ErrInvalidHour       = errors.New("booking: hour out of range")
	ErrSlotUnavailable   = errors.New("booking: slot is not available")
	ErrInvalidTransition = errors.New("booking: action not allowed in current state")
	ErrSuperseded        = errors.New("booking: availability query superseded by a newer one")
	ErrSubmitThrottled   = errors.New("booking: too many submissions, try again later")

	// ErrAvailabilityPending means the shown table does not belong to the
	// current provider and day yet.
	ErrAvailabilityPending = errors.New("booking: availability for the current selection is still loading")
)

// Alert text shown once per failed submission. Every failure cause maps to
// the same message.
const (
	SubmitFailedTitle   = "Error creating appointment"
	SubmitFailedMessage = "An error occurred while creating the appointment, please try again later."
)
