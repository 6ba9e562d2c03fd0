package booking

import (
	"context"
	"sync"
	"time"

	"github.com/wolfman30/salon-booking/internal/salonapi"
	"github.com/wolfman30/salon-booking/internal/session"
)

type availabilityCall struct {
	providerID string
	date       time.Time
}

type fakeAPI struct {
	mu sync.Mutex

	providers    []salonapi.Provider
	providersErr error

	availability    func(ctx context.Context, providerID string, date time.Time) ([]salonapi.AvailabilitySlot, error)
	availabilityLog []availabilityCall

	createErr error
	created   []salonapi.AppointmentRequest
	// beforeCreate runs ahead of every CreateAppointment, outside the lock.
	beforeCreate func()
}

func (f *fakeAPI) ListProviders(ctx context.Context) ([]salonapi.Provider, error) {
	if f.providersErr != nil {
		return nil, f.providersErr
	}
	return f.providers, nil
}

func (f *fakeAPI) DayAvailability(ctx context.Context, providerID string, date time.Time) ([]salonapi.AvailabilitySlot, error) {
	f.mu.Lock()
	f.availabilityLog = append(f.availabilityLog, availabilityCall{providerID: providerID, date: date})
	fn := f.availability
	f.mu.Unlock()
	if fn == nil {
		return nil, nil
	}
	return fn(ctx, providerID, date)
}

func (f *fakeAPI) CreateAppointment(ctx context.Context, req salonapi.AppointmentRequest) (*salonapi.Appointment, error) {
	if f.beforeCreate != nil {
		f.beforeCreate()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, req)
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &salonapi.Appointment{ID: "appt-1", ProviderID: req.ProviderID, Date: req.Date}, nil
}

func (f *fakeAPI) createdRequests() []salonapi.AppointmentRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]salonapi.AppointmentRequest(nil), f.created...)
}

type alertRecorder struct {
	mu     sync.Mutex
	alerts []string
}

func (a *alertRecorder) Alert(title, message string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.alerts = append(a.alerts, title+": "+message)
}

func (a *alertRecorder) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.alerts)
}

// staticTable serves the same table regardless of provider/date.
func staticTable(table ...salonapi.AvailabilitySlot) func(context.Context, string, time.Time) ([]salonapi.AvailabilitySlot, error) {
	return func(context.Context, string, time.Time) ([]salonapi.AvailabilitySlot, error) {
		return table, nil
	}
}

func sessionFor(user salonapi.User) *session.Session {
	sess := session.New()
	sess.SignIn("tok-"+user.ID, user)
	return sess
}
