package account

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/wolfman30/salon-booking/internal/salonapi"
	"github.com/wolfman30/salon-booking/internal/session"
	"github.com/wolfman30/salon-booking/pkg/logging"
)

// Alert copy shown when the backend rejects an account operation.
const (
	SignUpFailedTitle    = "Registration error"
	SignUpFailedMessage  = "An error occurred while creating your account, please try again."
	SignInFailedTitle    = "Authentication error"
	SignInFailedMessage  = "An error occurred while signing in, check your credentials."
	ProfileFailedTitle   = "Profile update error"
	ProfileFailedMessage = "An error occurred while updating your profile, please try again."
	AvatarFailedTitle    = "Avatar update error"
	AvatarFailedMessage  = "An error occurred while updating your avatar, please try again."
)

// ErrNotSignedIn is returned by operations that need a signed-in user.
var ErrNotSignedIn = errors.New("account: not signed in")

// API is the subset of the salon backend used by Service.
type API interface {
	CreateUser(ctx context.Context, req salonapi.CreateUserRequest) (*salonapi.User, error)
	CreateSession(ctx context.Context, req salonapi.SessionRequest) (*salonapi.SessionResponse, error)
	UpdateProfile(ctx context.Context, req salonapi.UpdateProfileRequest) (*salonapi.User, error)
	UpdateAvatar(ctx context.Context, upload salonapi.AvatarUpload) (*salonapi.User, error)
}

// Service validates account forms and keeps the session in sync with the
// backend's answers.
type Service struct {
	api      API
	session  *session.Session
	validate *validator.Validate
	logger   *logging.Logger
}

// NewService wires a Service. sess must not be nil.
func NewService(api API, sess *session.Session, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		api:      api,
		session:  sess,
		validate: newValidator(),
		logger:   logger,
	}
}

// SignUp creates an account. It does not sign the user in.
func (s *Service) SignUp(ctx context.Context, form SignUpForm) (*salonapi.User, error) {
	form.Email = normalizeEmail(form.Email)
	if err := validateForm(s.validate, form); err != nil {
		return nil, err
	}
	user, err := s.api.CreateUser(ctx, salonapi.CreateUserRequest{
		Name:     strings.TrimSpace(form.Name),
		Email:    form.Email,
		Password: form.Password,
	})
	if err != nil {
		s.logger.Warn("sign up failed", "email", form.Email, "error", err)
		return nil, fmt.Errorf("sign up: %w", err)
	}
	s.logger.Info("account created", "user_id", user.ID)
	return user, nil
}

// SignIn exchanges credentials for a token and stores both in the session.
func (s *Service) SignIn(ctx context.Context, form SignInForm) (*salonapi.User, error) {
	form.Email = normalizeEmail(form.Email)
	if err := validateForm(s.validate, form); err != nil {
		return nil, err
	}
	resp, err := s.api.CreateSession(ctx, salonapi.SessionRequest{Email: form.Email, Password: form.Password})
	if err != nil {
		s.logger.Warn("sign in failed", "email", form.Email, "error", err)
		return nil, fmt.Errorf("sign in: %w", err)
	}
	if resp.Token == "" {
		return nil, fmt.Errorf("sign in: backend returned an empty token")
	}
	s.session.SignIn(resp.Token, resp.User)
	s.logger.Info("signed in", "user_id", resp.User.ID)
	user := resp.User
	return &user, nil
}

// UpdateProfile saves name and email, and the password when OldPassword is
// set. The session's user is replaced with the backend's answer.
func (s *Service) UpdateProfile(ctx context.Context, form ProfileForm) (*salonapi.User, error) {
	if !s.session.Authenticated() {
		return nil, ErrNotSignedIn
	}
	form.Email = normalizeEmail(form.Email)
	if err := validateForm(s.validate, form); err != nil {
		return nil, err
	}
	req := salonapi.UpdateProfileRequest{
		Name:  strings.TrimSpace(form.Name),
		Email: form.Email,
	}
	if form.ChangesPassword() {
		req.OldPassword = form.OldPassword
		req.Password = form.Password
		req.PasswordConfirmation = form.PasswordConfirmation
	}
	user, err := s.api.UpdateProfile(ctx, req)
	if err != nil {
		s.logger.Warn("profile update failed", "error", err)
		return nil, fmt.Errorf("update profile: %w", err)
	}
	s.session.UpdateUser(*user)
	return user, nil
}

// UpdateAvatar uploads a new avatar. An empty filename becomes
// "<user id>.jpg".
func (s *Service) UpdateAvatar(ctx context.Context, filename, contentType string, content io.Reader) (*salonapi.User, error) {
	current, ok := s.session.User()
	if !ok || !s.session.Authenticated() {
		return nil, ErrNotSignedIn
	}
	if filename == "" {
		filename = current.ID + ".jpg"
	}
	user, err := s.api.UpdateAvatar(ctx, salonapi.AvatarUpload{
		Filename:    filename,
		ContentType: contentType,
		Content:     content,
	})
	if err != nil {
		s.logger.Warn("avatar update failed", "user_id", current.ID, "error", err)
		return nil, fmt.Errorf("update avatar: %w", err)
	}
	s.session.UpdateUser(*user)
	return user, nil
}

// SignOut forgets the token and user.
func (s *Service) SignOut() {
	s.session.SignOut()
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
