package mockapi_test

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/salon-booking/internal/account"
	"github.com/wolfman30/salon-booking/internal/booking"
	"github.com/wolfman30/salon-booking/internal/mockapi"
	"github.com/wolfman30/salon-booking/internal/salonapi"
	"github.com/wolfman30/salon-booking/internal/session"
	"github.com/wolfman30/salon-booking/pkg/logging"
)

var now = time.Date(2026, 3, 10, 10, 30, 0, 0, time.UTC)

func clock() time.Time { return now }

func startServer(t *testing.T) *httptest.Server {
	t.Helper()
	store := mockapi.NewStore(time.UTC)
	store.SeedProviders(mockapi.DefaultProviders()...)
	srv := mockapi.NewServer(store, mockapi.Config{
		Logger:    logging.Discard(),
		JWTSecret: "test-secret",
		TokenTTL:  time.Hour,
		Clock:     clock,
	})
	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(ts.Close)
	return ts
}

type alerts struct {
	mu   sync.Mutex
	seen []string
}

func (a *alerts) Alert(title, message string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.seen = append(a.seen, title)
}

func (a *alerts) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.seen)
}

// signedIn registers and signs in a fresh user against ts.
func signedIn(t *testing.T, ts *httptest.Server, email string) (*salonapi.Client, *session.Session) {
	t.Helper()
	sess := session.New()
	client := salonapi.NewClient(ts.URL, logging.Discard(), salonapi.WithTokenSource(sess))
	svc := account.NewService(client, sess, logging.Discard())
	ctx := context.Background()

	_, err := svc.SignUp(ctx, account.SignUpForm{Name: "Ana", Email: email, Password: "secret"})
	require.NoError(t, err)
	_, err = svc.SignIn(ctx, account.SignInForm{Email: email, Password: "secret"})
	require.NoError(t, err)
	require.True(t, sess.Authenticated())
	return client, sess
}

func newScreen(client *salonapi.Client, sess *session.Session, rec *alerts) *booking.Screen {
	return booking.NewScreen(client, sess, booking.Options{
		InitialProviderID: "p2",
		Location:          time.UTC,
		Clock:             clock,
		Alerter:           rec,
		Logger:            logging.Discard(),
	})
}

func hours(slots []booking.Slot, available bool) []string {
	var out []string
	for _, s := range slots {
		if s.Available == available {
			out = append(out, s.FormattedHour)
		}
	}
	return out
}

func TestBookingFlowAgainstMockBackend(t *testing.T) {
	ts := startServer(t)
	client, sess := signedIn(t, ts, "ana@example.com")
	ctx := context.Background()

	rec := &alerts{}
	screen := newScreen(client, sess, rec)
	require.NoError(t, screen.Load(ctx))

	view := screen.View()
	assert.Equal(t, booking.StatusReady, view.Status)
	assert.Len(t, view.Providers, 3)
	assert.Equal(t, []string{"11:00"}, hours(view.Morning, true))
	assert.Equal(t, []string{"08:00", "09:00", "10:00"}, hours(view.Morning, false))
	assert.Equal(t, []string{"12:00", "13:00", "14:00", "15:00", "16:00", "17:00"}, hours(view.Afternoon, true))

	require.NoError(t, screen.SelectHour(14))
	confirmation, err := screen.Confirm(ctx)
	require.NoError(t, err)
	assert.Equal(t, booking.StateSubmitted, screen.State())
	assert.True(t, confirmation.Date.Equal(time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)))
	assert.NotEmpty(t, confirmation.Appointment.ID)
	assert.Zero(t, rec.count())

	again := newScreen(client, sess, rec)
	require.NoError(t, again.Load(ctx))
	assert.ErrorIs(t, again.SelectHour(14), booking.ErrSlotUnavailable)

	mine, err := client.ListAppointments(ctx)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "p2", mine[0].ProviderID)
}

func TestBookingRejectedWhenSlotTakenMeanwhile(t *testing.T) {
	ts := startServer(t)
	anaClient, anaSess := signedIn(t, ts, "ana@example.com")
	biaClient, biaSess := signedIn(t, ts, "bia@example.com")
	ctx := context.Background()

	anaAlerts := &alerts{}
	ana := newScreen(anaClient, anaSess, anaAlerts)
	require.NoError(t, ana.Load(ctx))
	require.NoError(t, ana.SelectHour(15))

	bia := newScreen(biaClient, biaSess, &alerts{})
	require.NoError(t, bia.Load(ctx))
	require.NoError(t, bia.SelectHour(15))
	_, err := bia.Confirm(ctx)
	require.NoError(t, err)

	_, err = ana.Confirm(ctx)
	require.Error(t, err)
	assert.True(t, salonapi.IsValidation(err))
	assert.Equal(t, 1, anaAlerts.count())
	assert.Equal(t, booking.StateAvailabilityLoaded, ana.State())
	hour, ok := ana.Selection().Hour()
	assert.True(t, ok)
	assert.Equal(t, 15, hour)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	ts := startServer(t)
	client := salonapi.NewClient(ts.URL, logging.Discard())

	_, err := client.ListProviders(context.Background())
	require.Error(t, err)
	assert.True(t, salonapi.IsUnauthorized(err))

	_, err = client.CreateSession(context.Background(), salonapi.SessionRequest{Email: "x@example.com", Password: "nope"})
	require.Error(t, err)
	assert.True(t, salonapi.IsUnauthorized(err))
}

func TestProfileAndAvatar(t *testing.T) {
	ts := startServer(t)
	client, sess := signedIn(t, ts, "ana@example.com")
	svc := account.NewService(client, sess, logging.Discard())
	ctx := context.Background()

	_, err := svc.UpdateProfile(ctx, account.ProfileForm{
		Name:                 "Ana Maria",
		Email:                "ana@example.com",
		OldPassword:          "wrong-one",
		Password:             "new-secret",
		PasswordConfirmation: "new-secret",
	})
	require.Error(t, err)
	assert.True(t, salonapi.IsValidation(err))

	user, err := svc.UpdateProfile(ctx, account.ProfileForm{
		Name:                 "Ana Maria",
		Email:                "ana@example.com",
		OldPassword:          "secret",
		Password:             "new-secret",
		PasswordConfirmation: "new-secret",
	})
	require.NoError(t, err)
	assert.Equal(t, "Ana Maria", user.Name)

	withAvatar, err := svc.UpdateAvatar(ctx, "", "image/jpeg", strings.NewReader("\xff\xd8\xff fake jpeg"))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(withAvatar.AvatarURL, ts.URL+"/files/"))
	assert.True(t, strings.HasSuffix(withAvatar.AvatarURL, withAvatar.ID+".jpg"))

	resp, err := http.Get(withAvatar.AvatarURL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "\xff\xd8\xff fake jpeg", string(body))

	current, _ := sess.User()
	assert.Equal(t, withAvatar.AvatarURL, current.AvatarURL)
}

func TestAvatarRequiresFileField(t *testing.T) {
	ts := startServer(t)
	_, sess := signedIn(t, ts, "ana@example.com")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("name", "not-a-file"))
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPatch, ts.URL+"/users/avatar", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+sess.Token())

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDayAvailabilityValidatesQuery(t *testing.T) {
	ts := startServer(t)
	_, sess := signedIn(t, ts, "ana@example.com")

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/providers/p1/day-availability?year=2026&month=13&day=1", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+sess.Token())
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHealth(t *testing.T) {
	ts := startServer(t)
	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestRateLimitedServer(t *testing.T) {
	store := mockapi.NewStore(time.UTC)
	srv := mockapi.NewServer(store, mockapi.Config{
		Logger:         logging.Discard(),
		JWTSecret:      "test-secret",
		RateLimitRPS:   0.001,
		RateLimitBurst: 1,
	})
	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(ts.Close)

	first, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	first.Body.Close()
	assert.Equal(t, http.StatusOK, first.StatusCode)

	second, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	second.Body.Close()
	assert.Equal(t, http.StatusTooManyRequests, second.StatusCode)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/health", nil)
	require.NoError(t, err)
	req.Header.Set("X-Real-Ip", "203.0.113.7")
	spoofed, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	spoofed.Body.Close()
	assert.Equal(t, http.StatusTooManyRequests, spoofed.StatusCode, "a forged header does not open a new bucket")
}
