package salonapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ListProviders returns every bookable provider.
func (c *Client) ListProviders(ctx context.Context) ([]Provider, error) {
	var providers []Provider
	if err := c.doJSON(ctx, "list_providers", http.MethodGet, "/providers", nil, nil, &providers); err != nil {
		return nil, fmt.Errorf("list providers: %w", err)
	}
	return providers, nil
}

// DayAvailability returns the per-hour table for one provider on the calendar
// day of date. Only the date's year, month and day are sent; its clock is ignored.
func (c *Client) DayAvailability(ctx context.Context, providerID string, date time.Time) ([]AvailabilitySlot, error) {
	if strings.TrimSpace(providerID) == "" {
		return nil, fmt.Errorf("day availability: provider id is required")
	}
	q := url.Values{}
	q.Set("year", strconv.Itoa(date.Year()))
	q.Set("month", strconv.Itoa(int(date.Month())))
	q.Set("day", strconv.Itoa(date.Day()))

	path := fmt.Sprintf("/providers/%s/day-availability", url.PathEscape(providerID))

	var slots []AvailabilitySlot
	if err := c.doJSON(ctx, "day_availability", http.MethodGet, path, q, nil, &slots); err != nil {
		return nil, fmt.Errorf("day availability: %w", err)
	}
	return slots, nil
}

// CreateAppointment books providerID at the given timestamp.
func (c *Client) CreateAppointment(ctx context.Context, req AppointmentRequest) (*Appointment, error) {
	var appt Appointment
	if err := c.doJSON(ctx, "create_appointment", http.MethodPost, "/appointments", nil, req, &appt); err != nil {
		return nil, fmt.Errorf("create appointment: %w", err)
	}
	return &appt, nil
}

// ListAppointments returns the signed-in user's bookings.
func (c *Client) ListAppointments(ctx context.Context) ([]Appointment, error) {
	var appts []Appointment
	if err := c.doJSON(ctx, "list_appointments", http.MethodGet, "/appointments", nil, nil, &appts); err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return appts, nil
}
