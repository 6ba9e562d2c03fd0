// Package account implements sign-up, sign-in, profile and avatar updates.
package account

import (
	"errors"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// SignUpForm is the payload of the sign-up screen.
type SignUpForm struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// SignInForm is the payload of the sign-in screen.
type SignInForm struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ProfileForm is the payload of the profile screen. The password fields only
// matter when OldPassword is filled in.
type ProfileForm struct {
	Name                 string `json:"name" validate:"required"`
	Email                string `json:"email" validate:"required,email"`
	OldPassword          string `json:"oldPassword"`
	Password             string `json:"password" validate:"omitempty,min=6"`
	PasswordConfirmation string `json:"passwordConfirmation" validate:"omitempty,min=6"`
}

// ChangesPassword reports whether the form asks for a password change.
func (f ProfileForm) ChangesPassword() bool {
	return f.OldPassword != ""
}

// ValidationErrors maps a form field (by its JSON name) to the first message
// that applies to it.
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	fields := make([]string, 0, len(v))
	for field := range v {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, field+": "+v[field])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

var messages = map[string]string{
	"name.required":                 "Name is required",
	"email.required":                "Email is required",
	"email.email":                   "Enter a valid email",
	"password.required":             "Password is required",
	"password.min":                  "Password must have at least 6 characters",
	"passwordConfirmation.required": "Password is required",
	"passwordConfirmation.min":      "Password must have at least 6 characters",
	"passwordConfirmation.eqfield":  "Password confirmation does not match the new password",
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
	v.RegisterStructValidation(validateProfilePasswords, ProfileForm{})
	return v
}

// validateProfilePasswords makes the new password required when the old one
// is given, and always requires the confirmation to match.
func validateProfilePasswords(sl validator.StructLevel) {
	form := sl.Current().Interface().(ProfileForm)
	if form.ChangesPassword() {
		if form.Password == "" {
			sl.ReportError(form.Password, "password", "Password", "required", "")
		}
		if form.PasswordConfirmation == "" {
			sl.ReportError(form.PasswordConfirmation, "passwordConfirmation", "PasswordConfirmation", "required", "")
		}
	}
	if form.PasswordConfirmation != "" && form.PasswordConfirmation != form.Password {
		sl.ReportError(form.PasswordConfirmation, "passwordConfirmation", "PasswordConfirmation", "eqfield", "Password")
	}
}

// validateForm runs struct validation and converts failures into
// ValidationErrors. It returns nil when the form is valid.
func validateForm(v *validator.Validate, form any) error {
	err := v.Struct(form)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	out := ValidationErrors{}
	for _, fe := range fieldErrs {
		field := fe.Field()
		if _, exists := out[field]; exists {
			continue
		}
		msg, ok := messages[field+"."+fe.Tag()]
		if !ok {
			msg = "is invalid"
		}
		out[field] = msg
	}
	return out
}
