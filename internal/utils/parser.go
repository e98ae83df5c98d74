package utils

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ParseDuration parses a duration string supporting multiple formats:
//   - Go duration: "2h", "30m", "1h30m", "90s"
//   - HH:MM:SS format: "02:00:00", "2:30:00", "0:30:00"
//   - H:MM format: "2:30" (interpreted as hours:minutes)
//   - D-HH:MM:SS format: "1-12:00:00" (SLURM style)
//
// Returns the duration in time.Duration format.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty duration string")
	}

	var days time.Duration
	if idx := strings.Index(s, "-"); idx > 0 && strings.Contains(s, ":") {
		d, err := strconv.Atoi(s[:idx])
		if err != nil || d < 0 {
			return 0, fmt.Errorf("invalid days: %s", s[:idx])
		}
		days = time.Duration(d) * 24 * time.Hour
		s = s[idx+1:]
	}

	// Try HH:MM:SS or H:MM:SS or HH:MM format first
	if strings.Contains(s, ":") {
		parts := strings.Split(s, ":")
		nums := make([]int, len(parts))
		for i, p := range parts {
			n, err := strconv.Atoi(p)
			if err != nil || n < 0 {
				return 0, fmt.Errorf("invalid time component %q in %s", p, s)
			}
			nums[i] = n
		}
		switch len(nums) {
		case 2:
			return days + time.Duration(nums[0])*time.Hour + time.Duration(nums[1])*time.Minute, nil
		case 3:
			return days + time.Duration(nums[0])*time.Hour +
				time.Duration(nums[1])*time.Minute +
				time.Duration(nums[2])*time.Second, nil
		default:
			return 0, fmt.Errorf("invalid time format: %s (use HH:MM:SS or HH:MM)", s)
		}
	}

	// Try Go duration format (2h, 30m, 1h30m, etc.)
	dur, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration: %s (use '2h', '30m', '1h30m', or '02:00:00')", s)
	}
	return dur, nil
}

// FormatHMS formats a duration as HH:MM:SS, letting hours grow past 24.
func FormatHMS(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, total%3600/60, total%60)
}

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SafeName turns an arbitrary identifier into something usable inside a
// filename or a scheduler directive. "/" becomes "--" and every other
// character outside [A-Za-z0-9._-] becomes "_".
func SafeName(name string) string {
	s := strings.ReplaceAll(strings.TrimSpace(name), "/", "--")
	s = unsafeNameChars.ReplaceAllString(s, "_")
	s = strings.TrimLeft(s, ".")
	if s == "" {
		return "unnamed"
	}
	return s
}
