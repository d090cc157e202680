package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGreetingFor(t *testing.T) {
	cases := []struct {
		name     string
		fullName string
		hour     int
		want     string
	}{
		{"morning with first name", "Ada Lovelace", 8, "Good morning, Ada"},
		{"afternoon", "Ada Lovelace", 13, "Good afternoon, Ada"},
		{"evening", "Ada Lovelace", 21, "Good evening, Ada"},
		{"midnight counts as morning", "Ada Lovelace", 0, "Good morning, Ada"},
		{"empty name drops the suffix", "", 8, "Good morning"},
		{"whitespace name drops the suffix", "   ", 8, "Good morning"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, greetingFor(tc.fullName, tc.hour))
		})
	}
}
