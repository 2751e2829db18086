package middlewares

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCustomRate(t *testing.T) {
	t.Run("ValidFormats", func(t *testing.T) {
		cases := []struct {
			in     string
			limit  int64
			period time.Duration
		}{
			{"10-2m", 10, 2 * time.Minute},
			{"5-1h", 5, time.Hour},
			{"20-10s", 20, 10 * time.Second},
			{"1-30m", 1, 30 * time.Minute},
		}
		for _, tc := range cases {
			rate, err := ParseCustomRate(tc.in)
			require.NoError(t, err, tc.in)
			assert.Equal(t, tc.limit, rate.Limit)
			assert.Equal(t, tc.period, rate.Period)
		}
	})

	t.Run("InvalidFormats", func(t *testing.T) {
		for _, in := range []string{"", "10", "10-", "-2m", "ten-2m", "10-2d", "10-m"} {
			_, err := ParseCustomRate(in)
			assert.Error(t, err, in)
		}
	})
}
