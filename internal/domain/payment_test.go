package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCheckAmount(t *testing.T) {
	cases := []struct {
		in string
		ok bool
	}{
		{"0.01", true},
		{"0.005", true}, // rounds up to a cent
		{"0.004", false},
		{"0", false},
		{"-1", false},
		{"9999999999.99", true},
		{"9999999999.995", false},
		{"10000000000", false},
		{"1e20", false},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			err := CheckAmount(decimal.RequireFromString(tc.in))
			if tc.ok {
				assert.NoError(t, err)
				return
			}
			assert.True(t, IsValidation(err), "got %v", err)
		})
	}
}
