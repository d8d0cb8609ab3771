package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		ms   int64
		want string
	}{
		{0, "0s"},
		{999, "0s"},
		{1500, "1s"},
		{59999, "59s"},
		{60000, "1m 0s"},
		{61000, "1m 1s"},
		{185400, "3m 5s"},
		{3600000, "60m 0s"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, FormatDuration(tc.ms), "ms=%d", tc.ms)
	}
}

func TestDuration_RoundTrip(t *testing.T) {
	for _, ms := range []int64{0, 1000, 42000, 59999, 60000, 61234, 599999, 7265000} {
		s := FormatDuration(ms)
		secs, err := ParseDurationSeconds(s)
		require.NoError(t, err, s)
		assert.Equal(t, s, FormatDuration(secs*1000), "round trip for %s", s)
	}
}

func TestParseDurationSeconds_Invalid(t *testing.T) {
	for _, s := range []string{"", "abc", "5h", "m", "-3s"} {
		_, err := ParseDurationSeconds(s)
		assert.Error(t, err, s)
	}
}
