package booking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/wolfman30/salon-booking/internal/observability/metrics"
	"github.com/wolfman30/salon-booking/internal/salonapi"
	"github.com/wolfman30/salon-booking/internal/session"
	"github.com/wolfman30/salon-booking/pkg/logging"
)

// State is the booking screen's position in its lifecycle.
type State int

const (
	StateIdle State = iota
	StateProvidersLoaded
	StateAvailabilityLoaded
	StateSubmitting
	StateSubmitted
	StateSubmissionFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateProvidersLoaded:
		return "providers_loaded"
	case StateAvailabilityLoaded:
		return "availability_loaded"
	case StateSubmitting:
		return "submitting"
	case StateSubmitted:
		return "submitted"
	case StateSubmissionFailed:
		return "submission_failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

var transitions = map[State][]State{
	StateIdle:               {StateProvidersLoaded, StateAvailabilityLoaded},
	StateProvidersLoaded:    {StateProvidersLoaded, StateAvailabilityLoaded},
	StateAvailabilityLoaded: {StateAvailabilityLoaded, StateProvidersLoaded, StateSubmitting},
	StateSubmitting:         {StateSubmitted, StateSubmissionFailed},
	StateSubmissionFailed:   {StateAvailabilityLoaded},
	StateSubmitted:          nil,
}

func canTransition(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// API is the subset of the salon backend the booking screen talks to.
type API interface {
	ListProviders(ctx context.Context) ([]salonapi.Provider, error)
	DayAvailability(ctx context.Context, providerID string, date time.Time) ([]salonapi.AvailabilitySlot, error)
	CreateAppointment(ctx context.Context, req salonapi.AppointmentRequest) (*salonapi.Appointment, error)
}

// Alerter shows a blocking message to the user.
type Alerter interface {
	Alert(title, message string)
}

// AlertFunc adapts a function to Alerter.
type AlertFunc func(title, message string)

func (f AlertFunc) Alert(title, message string) { f(title, message) }

// Options configures a Screen.
type Options struct {
	// InitialProviderID preselects a provider, e.g. when the screen is opened
	// from a provider card.
	InitialProviderID string
	// Date is the initial calendar day. Defaults to today in Location.
	Date     time.Time
	Location *time.Location
	Clock    func() time.Time

	Alerter Alerter
	Guard   *SubmitGuard
	Metrics *metrics.ClientMetrics
	Logger  *logging.Logger
}

// Confirmation is what the screen carries to the confirmation view.
type Confirmation struct {
	Appointment salonapi.Appointment
	ProviderID  string
	Date        time.Time
}

// ViewStatus separates "nothing to show" from "could not fetch".
type ViewStatus string

const (
	StatusLoading            ViewStatus = "loading"
	StatusReady              ViewStatus = "ready"
	StatusNoAvailability     ViewStatus = "no_availability"
	StatusDirectoryFailed    ViewStatus = "directory_failed"
	StatusAvailabilityFailed ViewStatus = "availability_failed"
)

// View is a snapshot of everything a renderer needs.
type View struct {
	State              State
	Status             ViewStatus
	Providers          []salonapi.Provider
	SelectedProviderID string
	Date               time.Time
	Hour               int
	HourSelected       bool
	Morning            []Slot
	Afternoon          []Slot
	DirectoryErr       error
	AvailabilityErr    error
	Confirmation       *Confirmation
}

// Screen drives one booking flow. It is safe for concurrent use; the
// availability table is only replaced by the response to the latest query.
type Screen struct {
	api     API
	session *session.Session
	loc     *time.Location
	alerter Alerter
	guard   *SubmitGuard
	metrics *metrics.ClientMetrics
	logger  *logging.Logger

	mu                 sync.Mutex
	state              State
	providers          []salonapi.Provider
	directoryErr       error
	directoryLoaded    bool
	table              []salonapi.AvailabilitySlot
	tableKey           queryKey
	availabilityErr    error
	availabilityLoaded bool
	sel                Selection
	seq                uint64
	cancelInflight     context.CancelFunc
	confirmation       *Confirmation
}

// NewScreen builds a booking screen bound to an explicit session.
func NewScreen(api API, sess *session.Session, opts Options) *Screen {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Default()
	}
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	date := opts.Date
	if date.IsZero() {
		date = clock().In(loc)
	}
	if sess == nil {
		sess = session.New()
	}
	return &Screen{
		api:     api,
		session: sess,
		loc:     loc,
		alerter: opts.Alerter,
		guard:   opts.Guard,
		metrics: opts.Metrics,
		logger:  logger,
		state:   StateIdle,
		sel:     NewSelection(opts.InitialProviderID, date, loc),
	}
}

// Load fetches the provider directory and, when a provider is already
// selected, that provider's availability. A directory failure does not stop
// the availability fetch; both errors are kept on the screen.
func (s *Screen) Load(ctx context.Context) error {
	dirErr := s.LoadProviders(ctx)

	s.mu.Lock()
	hasProvider := s.sel.ProviderID != ""
	s.mu.Unlock()

	var availErr error
	if hasProvider {
		availErr = s.refresh(ctx)
	}
	return errors.Join(dirErr, availErr)
}

// LoadProviders (re)fetches the directory. The result replaces the previous list.
func (s *Screen) LoadProviders(ctx context.Context) error {
	providers, err := s.api.ListProviders(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.directoryLoaded = true
	if err != nil {
		s.providers = nil
		s.directoryErr = err
		s.logger.Warn("provider directory fetch failed", "error", err)
		return fmt.Errorf("load providers: %w", err)
	}
	s.providers = providers
	s.directoryErr = nil
	if s.state == StateIdle {
		s.setState(StateProvidersLoaded)
	}
	return nil
}

// SelectProvider switches the provider and fetches its availability for the
// selected day.
func (s *Screen) SelectProvider(ctx context.Context, providerID string) error {
	if providerID == "" {
		return ErrNoProvider
	}
	s.mu.Lock()
	if !s.editable() {
		s.mu.Unlock()
		return ErrInvalidTransition
	}
	s.sel.ProviderID = providerID
	s.mu.Unlock()
	return s.refresh(ctx)
}

// SelectDate switches the calendar day. The selected hour is cleared before
// the new availability request is issued.
func (s *Screen) SelectDate(ctx context.Context, date time.Time) error {
	s.mu.Lock()
	if !s.editable() {
		s.mu.Unlock()
		return ErrInvalidTransition
	}
	s.sel.SetDate(date, s.loc)
	hasProvider := s.sel.ProviderID != ""
	s.mu.Unlock()

	if !hasProvider {
		return nil
	}
	return s.refresh(ctx)
}

// SelectHour chooses a slot from the current table. Unknown or unavailable
// hours are rejected.
func (s *Screen) SelectHour(hour int) error {
	if !validHour(hour) {
		return ErrInvalidHour
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.editable() {
		return ErrInvalidTransition
	}
	if !s.tableCurrent() {
		return ErrAvailabilityPending
	}
	slot, ok := findSlot(s.table, hour)
	if !ok || !slot.Available {
		return fmt.Errorf("%w: %s", ErrSlotUnavailable, FormatHour(hour))
	}
	s.sel.SetHour(hour)
	return nil
}

// ClearHour drops the selected hour.
func (s *Screen) ClearHour() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.editable() {
		s.sel.ClearHour()
	}
}

// Selection returns a copy of the current selection.
func (s *Screen) Selection() Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sel
}

func (s *Screen) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// View returns a consistent snapshot for rendering.
func (s *Screen) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	morning, afternoon := Partition(s.table)
	hour, hasHour := s.sel.Hour()
	v := View{
		State:              s.state,
		Providers:          append([]salonapi.Provider(nil), s.providers...),
		SelectedProviderID: s.sel.ProviderID,
		Date:               s.sel.Date,
		Hour:               hour,
		HourSelected:       hasHour,
		Morning:            morning,
		Afternoon:          afternoon,
		DirectoryErr:       s.directoryErr,
		AvailabilityErr:    s.availabilityErr,
		Confirmation:       s.confirmation,
	}
	switch {
	case s.directoryErr != nil:
		v.Status = StatusDirectoryFailed
	case s.availabilityErr != nil:
		v.Status = StatusAvailabilityFailed
	case !s.directoryLoaded || (s.sel.ProviderID != "" && !s.availabilityLoaded):
		v.Status = StatusLoading
	case s.sel.ProviderID != "" && len(s.table) == 0:
		v.Status = StatusNoAvailability
	default:
		v.Status = StatusReady
	}
	return v
}

// refresh issues one availability query for the current selection. Only the
// newest query may write the table; older in-flight queries are cancelled
// and their responses discarded with ErrSuperseded. Nothing is written while
// a submission is pending or done.
func (s *Screen) refresh(ctx context.Context) error {
	s.mu.Lock()
	if !s.editable() {
		s.mu.Unlock()
		return ErrInvalidTransition
	}
	key := s.sel.key()
	if key.providerID == "" {
		s.mu.Unlock()
		return ErrNoProvider
	}
	s.seq++
	seq := s.seq
	if s.cancelInflight != nil {
		s.cancelInflight()
	}
	reqCtx, cancel := context.WithCancel(ctx)
	s.cancelInflight = cancel
	s.mu.Unlock()
	defer cancel()

	table, err := s.api.DayAvailability(reqCtx, key.providerID, key.date)
	if err == nil {
		err = ValidateTable(table)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq == s.seq {
		s.cancelInflight = nil
	}
	if seq != s.seq || !key.matches(s.sel.key()) || !s.editable() {
		s.metrics.ObserveStaleAvailability()
		s.logger.Debug("discarding stale availability response",
			"provider_id", key.providerID,
			"date", key.date.Format("2006-01-02"),
			"seq", seq,
			"latest_seq", s.seq,
			"state", s.state.String(),
		)
		return ErrSuperseded
	}
	s.availabilityLoaded = true
	s.tableKey = key

	if err != nil {
		s.table = nil
		s.availabilityErr = err
		s.sel.ClearHour()
		if s.state == StateAvailabilityLoaded {
			s.setState(StateProvidersLoaded)
		}
		s.logger.Warn("availability fetch failed",
			"provider_id", key.providerID,
			"date", key.date.Format("2006-01-02"),
			"error", err,
		)
		return fmt.Errorf("load availability: %w", err)
	}

	s.table = table
	s.availabilityErr = nil
	if hour, ok := s.sel.Hour(); ok {
		if slot, found := findSlot(table, hour); !found || !slot.Available {
			s.sel.ClearHour()
		}
	}
	s.setState(StateAvailabilityLoaded)
	return nil
}

// Confirm submits the current selection. On success the screen becomes
// Submitted and returns the confirmation. On failure the alert is shown
// exactly once, the selection is left untouched and the screen goes back to
// AvailabilityLoaded so the user can retry.
func (s *Screen) Confirm(ctx context.Context) (*Confirmation, error) {
	s.mu.Lock()
	if s.state != StateAvailabilityLoaded {
		state := s.state
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: confirm from %s", ErrInvalidTransition, state)
	}
	sel := s.sel
	if sel.ProviderID == "" {
		s.mu.Unlock()
		return nil, ErrNoProvider
	}
	hour, ok := sel.Hour()
	if !ok {
		s.mu.Unlock()
		return nil, ErrNoHour
	}
	if !s.tableCurrent() {
		s.mu.Unlock()
		return nil, ErrAvailabilityPending
	}
	if slot, found := findSlot(s.table, hour); !found || !slot.Available {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrSlotUnavailable, FormatHour(hour))
	}
	when, err := sel.AppointmentTime()
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.setState(StateSubmitting)
	s.mu.Unlock()

	appt, err := s.submit(ctx, sel.ProviderID, when)

	s.mu.Lock()
	if err != nil {
		s.setState(StateSubmissionFailed)
		s.setState(StateAvailabilityLoaded)
		s.mu.Unlock()

		s.metrics.ObserveSubmission("failed")
		s.logger.Warn("appointment submission failed",
			"provider_id", sel.ProviderID,
			"date", when.Format(time.RFC3339),
			"error", err,
		)
		if s.alerter != nil {
			s.alerter.Alert(SubmitFailedTitle, SubmitFailedMessage)
		}
		return nil, fmt.Errorf("submit appointment: %w", err)
	}

	confirmation := &Confirmation{Appointment: *appt, ProviderID: sel.ProviderID, Date: when}
	s.confirmation = confirmation
	s.setState(StateSubmitted)
	s.mu.Unlock()

	s.metrics.ObserveSubmission("submitted")
	s.logger.Info("appointment submitted",
		"appointment_id", appt.ID,
		"provider_id", sel.ProviderID,
		"date", when.Format(time.RFC3339),
	)
	return confirmation, nil
}

func (s *Screen) submit(ctx context.Context, providerID string, when time.Time) (*salonapi.Appointment, error) {
	if s.guard != nil {
		userID := ""
		if user, ok := s.session.User(); ok {
			userID = user.ID
		}
		result, err := s.guard.Check(ctx, userID)
		if err != nil {
			return nil, err
		}
		if !result.Allowed {
			return nil, fmt.Errorf("%w: %s", ErrSubmitThrottled, result.Message)
		}
	}
	appt, err := s.api.CreateAppointment(ctx, salonapi.AppointmentRequest{
		ProviderID: providerID,
		Date:       when,
	})
	if err != nil {
		return nil, err
	}
	if appt == nil {
		appt = &salonapi.Appointment{ProviderID: providerID, Date: when}
	}
	return appt, nil
}

// editable reports whether the selection may still change. Callers hold mu.
func (s *Screen) editable() bool {
	return s.state != StateSubmitting && s.state != StateSubmitted
}

// tableCurrent reports whether the table was loaded for the current
// selection and no newer query is in flight. Callers hold mu.
func (s *Screen) tableCurrent() bool {
	return s.cancelInflight == nil && s.tableKey.matches(s.sel.key())
}

// setState applies a transition. Callers hold mu.
func (s *Screen) setState(next State) {
	if !canTransition(s.state, next) {
		s.logger.Error("invalid booking state transition", "from", s.state.String(), "to", next.String())
		return
	}
	s.state = next
}
