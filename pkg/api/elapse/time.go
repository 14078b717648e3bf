package elapse

import (
	"fmt"
	"math"
	"time"
)

type span struct {
	length       time.Duration
	name         string
	pastSingle   string
	futureSingle string
}

var spans = []span{
	{length: time.Hour * 24 * 365, name: "year", pastSingle: "last year", futureSingle: "next year"},
	{length: time.Hour * 24 * 30, name: "month", pastSingle: "last month", futureSingle: "next month"},
	{length: time.Hour * 24 * 7, name: "week", pastSingle: "last week", futureSingle: "next week"},
	{length: time.Hour * 24, name: "day", pastSingle: "yesterday", futureSingle: "tomorrow"},
	{length: time.Hour, name: "hour", pastSingle: "an hour ago", futureSingle: "an hour from now"},
	{length: time.Minute, name: "minute", pastSingle: "a minute ago", futureSingle: "a minute from now"},
}

func TimeDescription(t time.Time) string {
	if t.Before(time.Now()) {
		return PastTimeDescription(t)
	}
	return FutureTimeDescription(t)
}

func PastTimeDescription(t time.Time) string {
	elapsed := time.Since(t)

	for _, s := range spans {
		if elapsed >= s.length {
			n := int(math.Round(float64(elapsed) / float64(s.length)))
			if n == 1 {
				return s.pastSingle
			}
			return fmt.Sprintf("%d %ss ago", n, s.name)
		}
	}

	seconds := int(math.Round(elapsed.Seconds()))
	if seconds < 5 {
		return "just now"
	}
	if seconds < 30 {
		return "a few seconds ago"
	}
	return fmt.Sprintf("%d seconds ago", seconds)
}

func FutureTimeDescription(t time.Time) string {
	remaining := time.Until(t)

	for _, s := range spans {
		if remaining >= s.length {
			n := int(math.Round(float64(remaining) / float64(s.length)))
			if n == 1 {
				return s.futureSingle
			}
			return fmt.Sprintf("%d %ss from now", n, s.name)
		}
	}

	seconds := int(math.Round(remaining.Seconds()))
	if seconds == 1 {
		return "a second from now"
	}
	return fmt.Sprintf("%d seconds from now", seconds)
}
