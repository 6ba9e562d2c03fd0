// Package mockapi is an in-memory salon backend speaking the same HTTP/JSON
// contract as the production API. It backs local development and the
// end-to-end tests of the booking client.
package mockapi

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/wolfman30/salon-booking/internal/salonapi"
)

// Business hours offered by every provider, inclusive.
const (
	OpeningHour = 8
	ClosingHour = 17
)

var (
	ErrEmailTaken          = errors.New("email address already used")
	ErrInvalidCredentials  = errors.New("incorrect email/password combination")
	ErrUserNotFound        = errors.New("user not found")
	ErrProviderNotFound    = errors.New("provider not found")
	ErrOldPasswordRequired = errors.New("old password is required to set a new password")
	ErrOldPasswordMismatch = errors.New("old password does not match")
	ErrPastDate            = errors.New("appointments cannot be created in the past")
	ErrSelfBooking         = errors.New("appointments cannot be created with yourself")
	ErrOutsideHours        = errors.New("appointments are only available between 8am and 5pm")
	ErrAlreadyBooked       = errors.New("this appointment slot is already booked")
)

type userRecord struct {
	user         salonapi.User
	passwordHash string
}

// Store holds users, providers and appointments. Safe for concurrent use.
type Store struct {
	mu           sync.RWMutex
	users        map[string]*userRecord
	emails       map[string]string
	providers    []salonapi.Provider
	appointments []salonapi.Appointment
	files        map[string][]byte
	loc          *time.Location
}

// NewStore returns an empty store that evaluates business hours in loc.
func NewStore(loc *time.Location) *Store {
	if loc == nil {
		loc = time.Local
	}
	return &Store{
		users:  make(map[string]*userRecord),
		emails: make(map[string]string),
		files:  make(map[string][]byte),
		loc:    loc,
	}
}

// SeedProviders adds the given providers, assigning ids when missing.
func (s *Store) SeedProviders(providers ...salonapi.Provider) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range providers {
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		s.providers = append(s.providers, p)
	}
}

// DefaultProviders is the directory served by a fresh mock backend.
func DefaultProviders() []salonapi.Provider {
	return []salonapi.Provider{
		{ID: "p1", Name: "Carla Souza"},
		{ID: "p2", Name: "Diego Martins"},
		{ID: "p3", Name: "Helena Costa"},
	}
}

// CreateUser registers a customer. Emails are unique, case-insensitively.
func (s *Store) CreateUser(name, email, password string) (salonapi.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.emails[email]; taken {
		return salonapi.User{}, ErrEmailTaken
	}
	hash, err := hashPassword(password)
	if err != nil {
		return salonapi.User{}, err
	}
	user := salonapi.User{ID: uuid.NewString(), Name: strings.TrimSpace(name), Email: email}
	s.users[user.ID] = &userRecord{user: user, passwordHash: hash}
	s.emails[email] = user.ID
	return user, nil
}

// Authenticate checks credentials and returns the matching user.
func (s *Store) Authenticate(email, password string) (salonapi.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.emails[email]
	if !ok {
		return salonapi.User{}, ErrInvalidCredentials
	}
	rec := s.users[id]
	if !passwordMatches(rec.passwordHash, password) {
		return salonapi.User{}, ErrInvalidCredentials
	}
	return rec.user, nil
}

// User looks a user up by id.
func (s *Store) User(id string) (salonapi.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.users[id]
	if !ok {
		return salonapi.User{}, ErrUserNotFound
	}
	return rec.user, nil
}

// UpdateProfile changes name and email, and the password when req carries one.
func (s *Store) UpdateProfile(id string, req salonapi.UpdateProfileRequest) (salonapi.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.users[id]
	if !ok {
		return salonapi.User{}, ErrUserNotFound
	}
	if owner, taken := s.emails[email]; taken && owner != id {
		return salonapi.User{}, ErrEmailTaken
	}
	if req.Password != "" {
		if req.OldPassword == "" {
			return salonapi.User{}, ErrOldPasswordRequired
		}
		if !passwordMatches(rec.passwordHash, req.OldPassword) {
			return salonapi.User{}, ErrOldPasswordMismatch
		}
		hash, err := hashPassword(req.Password)
		if err != nil {
			return salonapi.User{}, err
		}
		rec.passwordHash = hash
	}
	delete(s.emails, rec.user.Email)
	rec.user.Name = strings.TrimSpace(req.Name)
	rec.user.Email = email
	s.emails[email] = id
	return rec.user, nil
}

// SetAvatar stores content under a fresh file name and points the user's
// avatar at baseURL/files/<name>.
func (s *Store) SetAvatar(id, filename string, content []byte, baseURL string) (salonapi.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.users[id]
	if !ok {
		return salonapi.User{}, ErrUserNotFound
	}
	name := uuid.NewString() + "-" + sanitizeFilename(filename)
	s.files[name] = content
	rec.user.AvatarURL = strings.TrimRight(baseURL, "/") + "/files/" + name
	return rec.user, nil
}

// File returns a previously uploaded avatar.
func (s *Store) File(name string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	content, ok := s.files[name]
	return content, ok
}

// Providers lists the directory sorted by name.
func (s *Store) Providers() []salonapi.Provider {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := append([]salonapi.Provider(nil), s.providers...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (s *Store) providerExists(id string) bool {
	for _, p := range s.providers {
		if p.ID == id {
			return true
		}
	}
	return false
}

// DayAvailability returns one slot per business hour of the given day. A slot
// is available when it is not booked and has not started yet at now.
func (s *Store) DayAvailability(providerID string, year int, month time.Month, day int, now time.Time) ([]salonapi.AvailabilitySlot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.providerExists(providerID) {
		return nil, ErrProviderNotFound
	}
	slots := make([]salonapi.AvailabilitySlot, 0, ClosingHour-OpeningHour+1)
	for hour := OpeningHour; hour <= ClosingHour; hour++ {
		start := time.Date(year, month, day, hour, 0, 0, 0, s.loc)
		slots = append(slots, salonapi.AvailabilitySlot{
			Hour:      hour,
			Available: start.After(now) && !s.bookedLocked(providerID, start),
		})
	}
	return slots, nil
}

func (s *Store) bookedLocked(providerID string, start time.Time) bool {
	for _, a := range s.appointments {
		if a.ProviderID == providerID && a.Date.Equal(start) {
			return true
		}
	}
	return false
}

// CreateAppointment books providerID at date, truncated to the hour in the
// store's zone.
func (s *Store) CreateAppointment(userID, providerID string, date, now time.Time) (salonapi.Appointment, error) {
	local := date.In(s.loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), local.Hour(), 0, 0, 0, s.loc)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.providerExists(providerID) {
		return salonapi.Appointment{}, ErrProviderNotFound
	}
	if userID == providerID {
		return salonapi.Appointment{}, ErrSelfBooking
	}
	if !start.After(now) {
		return salonapi.Appointment{}, ErrPastDate
	}
	if start.Hour() < OpeningHour || start.Hour() > ClosingHour {
		return salonapi.Appointment{}, ErrOutsideHours
	}
	if s.bookedLocked(providerID, start) {
		return salonapi.Appointment{}, ErrAlreadyBooked
	}
	appt := salonapi.Appointment{
		ID:         uuid.NewString(),
		ProviderID: providerID,
		UserID:     userID,
		Date:       start,
	}
	s.appointments = append(s.appointments, appt)
	return appt, nil
}

// Appointments lists the bookings made by userID in chronological order.
func (s *Store) Appointments(userID string) []salonapi.Appointment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []salonapi.Appointment
	for _, a := range s.appointments {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func passwordMatches(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func sanitizeFilename(name string) string {
	name = strings.TrimSpace(name)
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	if name == "" {
		return "avatar.jpg"
	}
	return name
}
