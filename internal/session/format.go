package session

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseMinutes reads the leading integer of s, ignoring surrounding
// space. Anything unparsable, and anything negative, is 0.
func ParseMinutes(s string) int {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// FormatDuration renders whole seconds as H:MM, dropping the seconds.
func FormatDuration(seconds int) string {
	seconds = max(0, seconds)
	mins := (seconds / 60) % 60
	hours := seconds / 3600
	return fmt.Sprintf("%d:%02d", hours, mins)
}

// FormatRemaining is the countdown text: H:MM above one minute, bare
// seconds in the final minute, and nothing once time is up.
func FormatRemaining(seconds int) string {
	switch {
	case seconds <= 0:
		return ""
	case seconds <= 60:
		return strconv.Itoa(seconds)
	default:
		return FormatDuration(seconds)
	}
}

// FormatWallClock renders t as "H : MM : SS".
func FormatWallClock(t time.Time) string {
	return fmt.Sprintf("%d : %02d : %02d", t.Hour(), t.Minute(), t.Second())
}
