package mockapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	httpmiddleware "github.com/wolfman30/salon-booking/internal/http/middleware"
	"github.com/wolfman30/salon-booking/internal/salonapi"
	"github.com/wolfman30/salon-booking/pkg/logging"
)

const maxAvatarBytes = 5 << 20

// Config holds server configuration.
type Config struct {
	Logger         *logging.Logger
	JWTSecret      string
	TokenTTL       time.Duration
	RateLimitRPS   float64
	RateLimitBurst int
	// TrustProxy honours X-Forwarded-For / X-Real-IP for client addresses.
	// Enable only behind a proxy that overwrites them.
	TrustProxy bool
	// Clock decides which hours are in the past. Defaults to time.Now.
	Clock          func() time.Time
	MetricsHandler http.Handler
}

// Server exposes a Store over HTTP.
type Server struct {
	store  *Store
	cfg    Config
	logger *logging.Logger
}

// NewServer wraps store.
func NewServer(store *Store, cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	return &Server{store: store, cfg: cfg, logger: cfg.Logger}
}

type errorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Routes builds the chi router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	if s.cfg.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(chimw.Recoverer)
	r.Use(httpmiddleware.RequestLogger(s.logger))
	if s.cfg.RateLimitRPS > 0 {
		r.Use(httpmiddleware.RateLimit(httpmiddleware.NewRateLimiter(s.cfg.RateLimitRPS, s.cfg.RateLimitBurst)))
	}

	r.Group(func(public chi.Router) {
		public.Get("/health", s.health)
		public.Post("/users", s.createUser)
		public.Post("/sessions", s.createSession)
		public.Get("/files/{name}", s.serveFile)
		if s.cfg.MetricsHandler != nil {
			public.Handle("/metrics", s.cfg.MetricsHandler)
		}
	})

	r.Group(func(private chi.Router) {
		private.Use(httpmiddleware.UserJWT(s.cfg.JWTSecret))
		private.Get("/providers", s.listProviders)
		private.Get("/providers/{providerID}/day-availability", s.dayAvailability)
		private.Get("/appointments", s.listAppointments)
		private.Post("/appointments", s.createAppointment)
		private.Put("/profile", s.updateProfile)
		private.Patch("/users/avatar", s.updateAvatar)
	})
	return r
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	var req salonapi.CreateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "name, email and password are required")
		return
	}
	user, err := s.store.CreateUser(req.Name, req.Email, req.Password)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.logger.Info("user created", "user_id", user.ID)
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	var req salonapi.SessionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	user, err := s.store.Authenticate(req.Email, req.Password)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	token, err := httpmiddleware.IssueUserToken(s.cfg.JWTSecret, user.ID, s.cfg.TokenTTL, s.cfg.Clock())
	if err != nil {
		s.logger.Error("failed to issue token", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, salonapi.SessionResponse{User: user, Token: token})
}

func (s *Server) listProviders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Providers())
}

func (s *Server) dayAvailability(w http.ResponseWriter, r *http.Request) {
	providerID := chi.URLParam(r, "providerID")
	q := r.URL.Query()
	year, errY := strconv.Atoi(q.Get("year"))
	month, errM := strconv.Atoi(q.Get("month"))
	day, errD := strconv.Atoi(q.Get("day"))
	if errY != nil || errM != nil || errD != nil || month < 1 || month > 12 || day < 1 || day > 31 {
		writeError(w, http.StatusBadRequest, "year, month and day query parameters are required")
		return
	}
	slots, err := s.store.DayAvailability(providerID, year, time.Month(month), day, s.cfg.Clock())
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, slots)
}

func (s *Server) listAppointments(w http.ResponseWriter, r *http.Request) {
	userID, _ := httpmiddleware.UserIDFromContext(r.Context())
	appts := s.store.Appointments(userID)
	if appts == nil {
		appts = []salonapi.Appointment{}
	}
	writeJSON(w, http.StatusOK, appts)
}

func (s *Server) createAppointment(w http.ResponseWriter, r *http.Request) {
	userID, _ := httpmiddleware.UserIDFromContext(r.Context())
	var req salonapi.AppointmentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ProviderID == "" || req.Date.IsZero() {
		writeError(w, http.StatusBadRequest, "providerId and date are required")
		return
	}
	appt, err := s.store.CreateAppointment(userID, req.ProviderID, req.Date, s.cfg.Clock())
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.logger.Info("appointment created",
		"appointment_id", appt.ID,
		"provider_id", appt.ProviderID,
		"user_id", userID,
		"date", appt.Date,
	)
	writeJSON(w, http.StatusOK, appt)
}

func (s *Server) updateProfile(w http.ResponseWriter, r *http.Request) {
	userID, _ := httpmiddleware.UserIDFromContext(r.Context())
	var req salonapi.UpdateProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Name == "" || req.Email == "" {
		writeError(w, http.StatusBadRequest, "name and email are required")
		return
	}
	user, err := s.store.UpdateProfile(userID, req)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) updateAvatar(w http.ResponseWriter, r *http.Request) {
	userID, _ := httpmiddleware.UserIDFromContext(r.Context())
	r.Body = http.MaxBytesReader(w, r.Body, maxAvatarBytes)
	file, header, err := r.FormFile("avatar")
	if err != nil {
		writeError(w, http.StatusBadRequest, "avatar file is required")
		return
	}
	defer file.Close()
	content, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not read avatar")
		return
	}
	user, err := s.store.SetAvatar(userID, header.Filename, content, baseURL(r))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) serveFile(w http.ResponseWriter, r *http.Request) {
	content, ok := s.store.File(chi.URLParam(r, "name"))
	if !ok {
		writeError(w, http.StatusNotFound, "file not found")
		return
	}
	w.Header().Set("Content-Type", http.DetectContentType(content))
	_, _ = w.Write(content)
}

func (s *Server) writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, ErrUserNotFound), errors.Is(err, ErrProviderNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrEmailTaken),
		errors.Is(err, ErrOldPasswordRequired),
		errors.Is(err, ErrOldPasswordMismatch),
		errors.Is(err, ErrPastDate),
		errors.Is(err, ErrSelfBooking),
		errors.Is(err, ErrOutsideHours),
		errors.Is(err, ErrAlreadyBooked):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error("mock store failure", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func baseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Status: "error", Message: message})
}
