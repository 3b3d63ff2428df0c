package gate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecideAttempt(t *testing.T) {
	cases := []struct {
		name      string
		attempts  int
		max       int
		remaining int
		exhausted bool
	}{
		{"first wrong answer of three", 1, 3, 2, false},
		{"second wrong answer of three", 2, 3, 1, false},
		{"limit reached", 3, 3, 0, true},
		{"past the limit after a live decrease", 5, 3, -2, true},
		{"single attempt limit", 1, 1, 0, true},
		{"generous limit", 1, 10, 9, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := DecideAttempt(tc.attempts, tc.max)
			assert.Equal(t, tc.remaining, got.Remaining)
			assert.Equal(t, tc.exhausted, got.Exhausted)
		})
	}
}
