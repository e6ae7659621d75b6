package validation

import (
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signUpForm struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,password"`
	Name     string `validate:"omitempty,min=2"`
}

func newValidator(t *testing.T) *validator.Validate {
	t.Helper()
	v := validator.New()
	require.NoError(t, RegisterCustomRules(v))
	return v
}

func TestPasswordRule(t *testing.T) {
	v := newValidator(t)

	tests := []struct {
		password string
		valid    bool
	}{
		{"abc12345", true},
		{"pässwörd1", true},
		{"short1", false},
		{"allletters", false},
		{"1234567890", false},
		{string(make([]byte, 129)), false},
	}

	for _, tt := range tests {
		err := v.Struct(signUpForm{Email: "a@x.io", Password: tt.password})
		if tt.valid {
			assert.NoError(t, err, "password %q", tt.password)
		} else {
			assert.Error(t, err, "password %q", tt.password)
		}
	}
}

func TestMessages(t *testing.T) {
	v := newValidator(t)

	err := v.Struct(signUpForm{Email: "not-an-email", Password: "weak", Name: "x"})
	require.Error(t, err)

	msgs := Messages(err)
	assert.ElementsMatch(t, []string{
		"email is not a valid address",
		"password must be 8 to 128 characters and contain a letter and a digit",
		"name must be at least 2 characters",
	}, msgs)
}

func TestMessages_FallsBackToDefault(t *testing.T) {
	type form struct {
		Website string `validate:"url"`
	}
	v := newValidator(t)

	msgs := Messages(v.Struct(form{Website: "nope"}))
	assert.Equal(t, []string{"website must be a valid URL"}, msgs)
}

func TestMessages_NonValidationError(t *testing.T) {
	assert.Nil(t, Messages(errors.New("unexpected EOF")))
}

func TestRegisterWithGin(t *testing.T) {
	// Registering twice only replaces the rule.
	require.NoError(t, RegisterWithGin())
	require.NoError(t, RegisterWithGin())
}
