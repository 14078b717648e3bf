package elapse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

type unit struct {
	name    string
	seconds int64
	pattern *regexp.Regexp
}

var units = []unit{
	{name: "day", seconds: 24 * 60 * 60, pattern: regexp.MustCompile(`(\d+)\s*[Dd]`)},
	{name: "hour", seconds: 60 * 60, pattern: regexp.MustCompile(`(\d+)\s*[Hh]`)},
	{name: "minute", seconds: 60, pattern: regexp.MustCompile(`(\d+)\s*[Mm]`)},
	{name: "second", seconds: 1, pattern: regexp.MustCompile(`(\d+)\s*[Ss]`)},
}

// ParseSeconds sums every "<n><unit>" token in s, e.g. "5d2h15m45s" or "1h 30m". Text that is not a token
// is ignored and repeated units accumulate. Input without tokens yields zero; callers decide whether a
// result is long enough.
func ParseSeconds(s string) int64 {
	var total int64
	for _, u := range units {
		for _, m := range u.pattern.FindAllStringSubmatch(s, -1) {
			n, err := strconv.ParseInt(m[1], 10, 64)
			if err != nil {
				continue
			}
			total += n * u.seconds
		}
	}
	return total
}

func ParseDuration(s string) time.Duration {
	return time.Duration(ParseSeconds(s)) * time.Second
}

// FormatSeconds describes secs as "1 day, 0 hours and 5 seconds". Leading and trailing zero units are
// dropped, inner ones are kept.
func FormatSeconds(secs int64) string {
	if secs < 0 {
		secs = 0
	}

	values := []int64{
		secs / units[0].seconds,
		secs % units[0].seconds / units[1].seconds,
		secs % units[1].seconds / units[2].seconds,
		secs % units[2].seconds,
	}

	first, last := 0, len(values)-1
	for first <= last && values[first] == 0 {
		first++
	}
	for last >= first && values[last] == 0 {
		last--
	}

	if first > last {
		return "0 seconds"
	}

	parts := make([]string, 0, last-first+1)
	for i := first; i <= last; i++ {
		parts = append(parts, Pluralize(values[i], units[i].name))
	}

	if len(parts) == 1 {
		return parts[0]
	}

	return fmt.Sprintf("%s and %s", strings.Join(parts[:len(parts)-1], ", "), parts[len(parts)-1])
}

func FormatDuration(d time.Duration) string {
	return FormatSeconds(int64(d / time.Second))
}

// Pluralize renders "1 day" or "3 days".
func Pluralize(n int64, noun string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
