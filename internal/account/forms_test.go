package account

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateSignUpForm(t *testing.T) {
	v := newValidator()
	tests := []struct {
		name string
		form SignUpForm
		want ValidationErrors
	}{
		{
			name: "valid",
			form: SignUpForm{Name: "Ana", Email: "ana@example.com", Password: "secret"},
		},
		{
			name: "all missing",
			form: SignUpForm{},
			want: ValidationErrors{
				"name":     "Name is required",
				"email":    "Email is required",
				"password": "Password is required",
			},
		},
		{
			name: "bad email and short password",
			form: SignUpForm{Name: "Ana", Email: "not-an-email", Password: "12345"},
			want: ValidationErrors{
				"email":    "Enter a valid email",
				"password": "Password must have at least 6 characters",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateForm(v, tt.form)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			var verrs ValidationErrors
			require.True(t, errors.As(err, &verrs), "got %v", err)
			assert.Equal(t, tt.want, verrs)
		})
	}
}

func TestValidateProfileForm(t *testing.T) {
	v := newValidator()
	base := ProfileForm{Name: "Ana", Email: "ana@example.com"}

	t.Run("name and email only", func(t *testing.T) {
		assert.NoError(t, validateForm(v, base))
	})

	t.Run("old password requires new password and confirmation", func(t *testing.T) {
		form := base
		form.OldPassword = "old-secret"
		var verrs ValidationErrors
		require.True(t, errors.As(validateForm(v, form), &verrs))
		assert.Equal(t, "Password is required", verrs["password"])
		assert.Equal(t, "Password is required", verrs["passwordConfirmation"])
	})

	t.Run("confirmation must match", func(t *testing.T) {
		form := base
		form.OldPassword = "old-secret"
		form.Password = "new-secret"
		form.PasswordConfirmation = "new-secreT"
		var verrs ValidationErrors
		require.True(t, errors.As(validateForm(v, form), &verrs))
		assert.Equal(t, ValidationErrors{
			"passwordConfirmation": "Password confirmation does not match the new password",
		}, verrs)
	})

	t.Run("short new password", func(t *testing.T) {
		form := base
		form.OldPassword = "old-secret"
		form.Password = "abc"
		form.PasswordConfirmation = "abc"
		var verrs ValidationErrors
		require.True(t, errors.As(validateForm(v, form), &verrs))
		assert.Equal(t, "Password must have at least 6 characters", verrs["password"])
	})

	t.Run("full password change", func(t *testing.T) {
		form := base
		form.OldPassword = "old-secret"
		form.Password = "new-secret"
		form.PasswordConfirmation = "new-secret"
		assert.NoError(t, validateForm(v, form))
	})
}

func TestValidationErrorsMessageIsSorted(t *testing.T) {
	err := ValidationErrors{"password": "p", "email": "e"}
	assert.Equal(t, "validation failed: email: e; password: p", err.Error())
}
