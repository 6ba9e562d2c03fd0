// Package salonapi is the HTTP/JSON client for the salon booking backend.
package salonapi

import "time"

// Provider is a bookable service professional.
type Provider struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatarUrl"`
}

// AvailabilitySlot is one hour of a provider's day.
type AvailabilitySlot struct {
	Hour      int  `json:"hour"`
	Available bool `json:"available"`
}

// AppointmentRequest is the body of POST /appointments.
type AppointmentRequest struct {
	ProviderID string    `json:"providerId"`
	Date       time.Time `json:"date"`
}

// Appointment is the backend's record of a created booking.
type Appointment struct {
	ID         string    `json:"id"`
	ProviderID string    `json:"providerId"`
	UserID     string    `json:"userId,omitempty"`
	Date       time.Time `json:"date"`
}

// User is the signed-in customer.
type User struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

// CreateUserRequest is the body of POST /users.
type CreateUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SessionRequest is the body of POST /sessions.
type SessionRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SessionResponse carries the bearer token issued on sign-in.
type SessionResponse struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

// UpdateProfileRequest is the body of PUT /profile. Password fields are only
// sent when the user is changing their password.
type UpdateProfileRequest struct {
	Name                 string `json:"name"`
	Email                string `json:"email"`
	OldPassword          string `json:"oldPassword,omitempty"`
	Password             string `json:"password,omitempty"`
	PasswordConfirmation string `json:"passwordConfirmation,omitempty"`
}
