package booking

import (
	"context"
	"fmt"

	"github.com/wolfman30/salon-booking/internal/salonapi"
	"github.com/wolfman30/salon-booking/internal/session"
	"github.com/wolfman30/salon-booking/pkg/logging"
)

// ProviderLister lists bookable providers.
type ProviderLister interface {
	ListProviders(ctx context.Context) ([]salonapi.Provider, error)
}

// Dashboard is the signed-in landing view: a greeting plus the provider list.
type Dashboard struct {
	api     ProviderLister
	session *session.Session
	logger  *logging.Logger
}

func NewDashboard(api ProviderLister, sess *session.Session, logger *logging.Logger) *Dashboard {
	if logger == nil {
		logger = logging.Default()
	}
	if sess == nil {
		sess = session.New()
	}
	return &Dashboard{api: api, session: sess, logger: logger}
}

// Greeting welcomes the current user by name.
func (d *Dashboard) Greeting() string {
	user, ok := d.session.User()
	if !ok || user.Name == "" {
		return "Welcome"
	}
	return fmt.Sprintf("Welcome, %s", user.Name)
}

// Providers fetches the provider list. Unlike the booking screen, a failure
// here is returned to the caller as-is.
func (d *Dashboard) Providers(ctx context.Context) ([]salonapi.Provider, error) {
	providers, err := d.api.ListProviders(ctx)
	if err != nil {
		d.logger.Warn("dashboard provider fetch failed", "error", err)
		return nil, fmt.Errorf("dashboard providers: %w", err)
	}
	return providers, nil
}

// SignOut ends the session.
func (d *Dashboard) SignOut() {
	d.session.SignOut()
	d.logger.Info("signed out")
}
