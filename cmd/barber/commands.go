package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/wolfman30/salon-booking/internal/account"
	"github.com/wolfman30/salon-booking/internal/booking"
	appconfig "github.com/wolfman30/salon-booking/internal/config"
	"github.com/wolfman30/salon-booking/internal/observability/metrics"
	"github.com/wolfman30/salon-booking/internal/salonapi"
	"github.com/wolfman30/salon-booking/internal/session"
	"github.com/wolfman30/salon-booking/pkg/logging"
)

const (
	dateLayout  = "2006-01-02"
	metricsJob  = "barber"
	pushTimeout = 5 * time.Second
)

type app struct {
	cfg    *appconfig.Config
	logger *logging.Logger
	clock  func() time.Time

	sessionPath string

	loc      *time.Location
	sess     *session.Session
	client   *salonapi.Client
	accounts *account.Service
	guard    *booking.SubmitGuard
	redis    *redis.Client

	registry *prometheus.Registry
	metrics  *metrics.ClientMetrics
}

func newApp(cfg *appconfig.Config, logger *logging.Logger, clock func() time.Time) *app {
	if logger == nil {
		logger = logging.Default()
	}
	return &app{cfg: cfg, logger: logger, clock: clock}
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "barber",
		Short:         "Book salon appointments from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfg.APIBaseURL, "api-url", a.cfg.APIBaseURL, "salon API base URL")
	flags.StringVar(&a.cfg.BookingTimezone, "timezone", a.cfg.BookingTimezone, "IANA zone used for dates and hours")
	flags.StringVar(&a.sessionPath, "session-file", a.cfg.SessionFile, "where the signed-in session is kept")

	root.AddCommand(
		a.signUpCmd(),
		a.signInCmd(),
		a.signOutCmd(),
		a.providersCmd(),
		a.availabilityCmd(),
		a.bookCmd(),
		a.appointmentsCmd(),
		a.profileCmd(),
		a.avatarCmd(),
	)
	return root
}

// execute runs cmd and tears the app down afterwards, also when the command
// failed, so failed submissions still reach the metrics.
func (a *app) execute(ctx context.Context, cmd *cobra.Command) error {
	err := cmd.ExecuteContext(ctx)
	if tdErr := a.teardown(); err == nil {
		err = tdErr
	}
	return err
}

func (a *app) setup() error {
	if a.sessionPath == "" {
		a.sessionPath = defaultSessionPath()
	}
	sess, err := loadSession(a.sessionPath)
	if err != nil {
		return err
	}
	if !sess.Authenticated() && a.cfg.APIToken != "" {
		sess = session.NewWithToken(a.cfg.APIToken)
	}
	sess.OnChange(func(*salonapi.User) {
		if err := saveSession(a.sessionPath, sess); err != nil {
			a.logger.Warn("failed to persist session", "path", a.sessionPath, "error", err)
		}
	})
	a.sess = sess
	a.loc = a.cfg.Location()
	a.registry = prometheus.NewRegistry()
	a.metrics = metrics.NewClientMetrics(a.registry)
	a.client = salonapi.NewClient(strings.TrimRight(a.cfg.APIBaseURL, "/"), a.logger,
		salonapi.WithTimeout(a.cfg.HTTPTimeout),
		salonapi.WithTokenSource(sess),
		salonapi.WithMetrics(a.metrics),
	)
	a.accounts = account.NewService(a.client, sess, a.logger)

	if a.cfg.SubmitGuardEnabled && a.cfg.RedisAddr != "" {
		a.redis = redis.NewClient(&redis.Options{Addr: a.cfg.RedisAddr, Password: a.cfg.RedisPassword})
		a.guard = booking.NewSubmitGuard(a.redis, booking.GuardConfig{
			MaxPerWindow: a.cfg.SubmitMaxPerWindow,
			Window:       a.cfg.SubmitWindow,
		}, a.logger)
	}
	return nil
}

func (a *app) teardown() error {
	a.pushMetrics()
	if a.redis != nil {
		return a.redis.Close()
	}
	return nil
}

// pushMetrics sends this invocation's client metrics to the Pushgateway.
// Failures are logged and never fail the command.
func (a *app) pushMetrics() {
	if a.cfg.MetricsPushURL == "" || a.registry == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), pushTimeout)
	defer cancel()
	err := push.New(a.cfg.MetricsPushURL, metricsJob).Gatherer(a.registry).PushContext(ctx)
	if err != nil {
		a.logger.Warn("failed to push metrics", "url", a.cfg.MetricsPushURL, "error", err)
	}
}

func (a *app) signUpCmd() *cobra.Command {
	var form account.SignUpForm
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := a.accounts.SignUp(cmd.Context(), form)
			if err != nil {
				return describeAccountError(err, account.SignUpFailedTitle, account.SignUpFailedMessage)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Account created for %s. You can now sign in.\n", user.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&form.Name, "name", "", "your name")
	cmd.Flags().StringVar(&form.Email, "email", "", "your email")
	cmd.Flags().StringVar(&form.Password, "password", "", "a password with at least 6 characters")
	return cmd
}

func (a *app) signInCmd() *cobra.Command {
	var form account.SignInForm
	cmd := &cobra.Command{
		Use:   "signin",
		Short: "Sign in and remember the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := a.accounts.SignIn(cmd.Context(), form)
			if err != nil {
				return describeAccountError(err, account.SignInFailedTitle, account.SignInFailedMessage)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n", booking.NewDashboard(a.client, a.sess, a.logger).Greeting())
			a.logger.Debug("session saved", "path", a.sessionPath, "user_id", user.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&form.Email, "email", "", "your email")
	cmd.Flags().StringVar(&form.Password, "password", "", "your password")
	return cmd
}

func (a *app) signOutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "signout",
		Short: "Forget the saved session",
		RunE: func(cmd *cobra.Command, args []string) error {
			booking.NewDashboard(a.client, a.sess, a.logger).SignOut()
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
			return nil
		},
	}
}

func (a *app) providersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List bookable providers",
		RunE: func(cmd *cobra.Command, args []string) error {
			dash := booking.NewDashboard(a.client, a.sess, a.logger)
			providers, err := dash.Providers(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, dash.Greeting())
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME")
			for _, p := range providers {
				fmt.Fprintf(tw, "%s\t%s\n", p.ID, p.Name)
			}
			return tw.Flush()
		},
	}
}

func (a *app) availabilityCmd() *cobra.Command {
	var providerID, date string
	cmd := &cobra.Command{
		Use:   "availability",
		Short: "Show a provider's morning and afternoon hours for a day",
		RunE: func(cmd *cobra.Command, args []string) error {
			screen, err := a.loadScreen(cmd, providerID, date)
			if err != nil {
				return err
			}
			printAvailability(cmd.OutOrStdout(), screen.View(), a.loc)
			return nil
		},
	}
	cmd.Flags().StringVar(&providerID, "provider", "", "provider id")
	cmd.Flags().StringVar(&date, "date", "", "day as YYYY-MM-DD (default today)")
	_ = cmd.MarkFlagRequired("provider")
	return cmd
}

func (a *app) bookCmd() *cobra.Command {
	var providerID, date string
	var hour int
	cmd := &cobra.Command{
		Use:   "book",
		Short: "Book an hour with a provider",
		RunE: func(cmd *cobra.Command, args []string) error {
			screen, err := a.loadScreen(cmd, providerID, date)
			if err != nil {
				return err
			}
			if err := screen.SelectHour(hour); err != nil {
				return fmt.Errorf("%s is not bookable: %w", booking.FormatHour(hour), err)
			}
			confirmation, err := screen.Confirm(cmd.Context())
			if err != nil {
				return err
			}
			view := screen.View()
			fmt.Fprintf(cmd.OutOrStdout(), "Appointment confirmed with %s on %s\n",
				providerName(view.Providers, confirmation.ProviderID),
				confirmation.Date.In(a.loc).Format("Monday, January 2 2006 at 15:04"),
			)
			return nil
		},
	}
	cmd.Flags().StringVar(&providerID, "provider", "", "provider id")
	cmd.Flags().StringVar(&date, "date", "", "day as YYYY-MM-DD (default today)")
	cmd.Flags().IntVar(&hour, "hour", -1, "hour of day, 0-23")
	_ = cmd.MarkFlagRequired("provider")
	_ = cmd.MarkFlagRequired("hour")
	return cmd
}

func (a *app) appointmentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "appointments",
		Short: "List your appointments",
		RunE: func(cmd *cobra.Command, args []string) error {
			appts, err := a.client.ListAppointments(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(appts) == 0 {
				fmt.Fprintln(out, "No appointments yet.")
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tPROVIDER\tDATE")
			for _, appt := range appts {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", appt.ID, appt.ProviderID, appt.Date.In(a.loc).Format("2006-01-02 15:04"))
			}
			return tw.Flush()
		},
	}
}

func (a *app) profileCmd() *cobra.Command {
	var form account.ProfileForm
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Update your name, email or password",
		RunE: func(cmd *cobra.Command, args []string) error {
			if current, ok := a.sess.User(); ok {
				if form.Name == "" {
					form.Name = current.Name
				}
				if form.Email == "" {
					form.Email = current.Email
				}
			}
			user, err := a.accounts.UpdateProfile(cmd.Context(), form)
			if err != nil {
				return describeAccountError(err, account.ProfileFailedTitle, account.ProfileFailedMessage)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Profile updated: %s <%s>\n", user.Name, user.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&form.Name, "name", "", "new name (default current)")
	cmd.Flags().StringVar(&form.Email, "email", "", "new email (default current)")
	cmd.Flags().StringVar(&form.OldPassword, "old-password", "", "current password, required to change it")
	cmd.Flags().StringVar(&form.Password, "password", "", "new password")
	cmd.Flags().StringVar(&form.PasswordConfirmation, "password-confirmation", "", "new password again")
	return cmd
}

func (a *app) avatarCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "avatar <image>",
		Short: "Upload a new avatar",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			contentType := mime.TypeByExtension(strings.ToLower(filepath.Ext(args[0])))
			user, err := a.accounts.UpdateAvatar(cmd.Context(), "", contentType, f)
			if err != nil {
				return describeAccountError(err, account.AvatarFailedTitle, account.AvatarFailedMessage)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Avatar updated: %s\n", user.AvatarURL)
			return nil
		},
	}
}

// loadScreen opens a booking screen for providerID on date and loads it.
// Directory failures are tolerated; availability failures are not.
func (a *app) loadScreen(cmd *cobra.Command, providerID, date string) (*booking.Screen, error) {
	day, err := parseDate(date, a.loc)
	if err != nil {
		return nil, err
	}
	screen := booking.NewScreen(a.client, a.sess, booking.Options{
		InitialProviderID: providerID,
		Date:              day,
		Location:          a.loc,
		Clock:             a.clock,
		Guard:             a.guard,
		Metrics:           a.metrics,
		Logger:            a.logger,
		Alerter:           cliAlerter(cmd.ErrOrStderr()),
	})
	_ = screen.Load(cmd.Context())
	view := screen.View()
	if view.AvailabilityErr != nil {
		return nil, fmt.Errorf("load availability: %w", view.AvailabilityErr)
	}
	return screen, nil
}

func cliAlerter(w io.Writer) booking.AlertFunc {
	return func(title, message string) {
		fmt.Fprintf(w, "%s: %s\n", title, message)
	}
}

func parseDate(value string, loc *time.Location) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	day, err := time.ParseInLocation(dateLayout, value, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --date %q, want YYYY-MM-DD", value)
	}
	return day, nil
}

func printAvailability(w io.Writer, view booking.View, loc *time.Location) {
	fmt.Fprintf(w, "%s on %s\n", providerName(view.Providers, view.SelectedProviderID), view.Date.In(loc).Format("Monday, January 2 2006"))
	if view.Status == booking.StatusNoAvailability {
		fmt.Fprintln(w, "No hours available on this day.")
		return
	}
	printPeriod(w, "Morning", view.Morning)
	printPeriod(w, "Afternoon", view.Afternoon)
}

func printPeriod(w io.Writer, label string, slots []booking.Slot) {
	fmt.Fprintf(w, "%s:\n", label)
	if len(slots) == 0 {
		fmt.Fprintln(w, "  -")
		return
	}
	for _, slot := range slots {
		status := "unavailable"
		if slot.Available {
			status = "available"
		}
		fmt.Fprintf(w, "  %s  %s\n", slot.FormattedHour, status)
	}
}

func providerName(providers []salonapi.Provider, id string) string {
	for _, p := range providers {
		if p.ID == id {
			return p.Name
		}
	}
	return id
}

// describeAccountError keeps field-level validation messages and replaces
// backend failures with the user-facing alert copy.
func describeAccountError(err error, title, message string) error {
	var verrs account.ValidationErrors
	if errors.As(err, &verrs) || errors.Is(err, account.ErrNotSignedIn) {
		return err
	}
	return fmt.Errorf("%s: %s (%w)", title, message, err)
}
