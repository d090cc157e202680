package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateSignup(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		errs := ValidateSignup(SignupInput{
			Email:    "ada@example.com",
			Password: "hunter2hunter2",
			FullName: "Ada Lovelace",
		})
		assert.Empty(t, errs)
	})

	t.Run("collects every field error", func(t *testing.T) {
		errs := ValidateSignup(SignupInput{
			Email:    "not-an-email",
			Password: "short",
			FullName: "   ",
		})
		assert.Len(t, errs, 3)
		assert.Contains(t, errs, "email")
		assert.Contains(t, errs, "password")
		assert.Contains(t, errs, "full_name")
	})

	t.Run("password exactly at minimum", func(t *testing.T) {
		errs := ValidateSignup(SignupInput{
			Email:    "ada@example.com",
			Password: "12345678",
			FullName: "Ada",
		})
		assert.Empty(t, errs)
	})
}
