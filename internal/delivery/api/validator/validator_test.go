package validator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signupForm struct {
	Name     string   `json:"name" validate:"required,min=2"`
	Email    string   `form:"email" validate:"required,email"`
	Password string   `json:"password" validate:"required,min=8" msg:"Password must be at least 8 characters"`
	Role     string   `json:"role" validate:"oneof=donor ngo"`
	Latitude *float64 `json:"latitude" validate:"omitempty,latitude"`
	Ignored  string   `json:"-"`
}

func TestFieldErrors(t *testing.T) {
	lat := 123.0
	form := &signupForm{Name: "A", Email: "nope", Password: "short", Role: "admin", Latitude: &lat}

	err := New().Validate(form)
	require.Error(t, err)

	fields := FieldErrors(form, err)
	assert.Equal(t, []string{"name must be at least 2 characters"}, fields["name"])
	assert.Equal(t, []string{"Please enter a valid email address"}, fields["email"])
	assert.Equal(t, []string{"Password must be at least 8 characters"}, fields["password"])
	assert.Equal(t, []string{"role must be one of: donor ngo"}, fields["role"])
	assert.Equal(t, []string{"latitude is out of range"}, fields["latitude"])
}

func TestFieldErrors_ValidInput(t *testing.T) {
	form := &signupForm{Name: "Asha", Email: "asha@example.com", Password: "long-enough", Role: "ngo"}

	assert.NoError(t, New().Validate(form))
	assert.Nil(t, FieldErrors(form, nil))
}

func TestFieldErrors_NonValidationError(t *testing.T) {
	fields := FieldErrors(&signupForm{}, assert.AnError)

	assert.Equal(t, []string{assert.AnError.Error()}, fields[FormKey])
}

func TestSummary(t *testing.T) {
	summary := Summary(map[string][]string{"email": {"Please enter a valid email address"}})
	assert.Equal(t, "email: Please enter a valid email address", summary)

	summary = Summary(map[string][]string{"a": {"x"}, "b": {"y", "z"}})
	assert.True(t, strings.Contains(summary, "b: y, z"))
	assert.Contains(t, summary, "a: x")
}
