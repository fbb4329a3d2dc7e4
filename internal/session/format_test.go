package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseMinutes(t *testing.T) {
	for in, want := range map[string]int{
		"25":      25,
		"  45 ":   45,
		"90min":   90,
		"+12":     12,
		"-5":      0,
		"":        0,
		"abc":     0,
		"3.5":     3,
		"0":       0,
		"007 bar": 7,
	} {
		require.Equal(t, want, ParseMinutes(in), "input %q", in)
	}
}

func TestFormatRemaining(t *testing.T) {
	for seconds, want := range map[int]string{
		3600: "1:00",
		3599: "0:59",
		600:  "0:10",
		61:   "0:01",
		60:   "60",
		59:   "59",
		1:    "1",
		0:    "",
		-3:   "",
		7260: "2:01",
	} {
		require.Equal(t, want, FormatRemaining(seconds), "seconds %d", seconds)
	}
}

func TestFormatWallClock(t *testing.T) {
	ts := time.Date(2026, 1, 2, 9, 5, 7, 0, time.UTC)
	require.Equal(t, "9 : 05 : 07", FormatWallClock(ts))
	ts = time.Date(2026, 1, 2, 23, 59, 0, 0, time.UTC)
	require.Equal(t, "23 : 59 : 00", FormatWallClock(ts))
}
