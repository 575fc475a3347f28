package utils

import (
	"fmt"
	"time"
)

const dateOnlyLayout = "2006-01-02"

func PrettyDate(date time.Time) string {
	return fmt.Sprintf("%02d %s %d - %02d:%02d UTC",
		date.Day(),
		date.Month().String()[:3],
		date.Year(),
		date.Hour(),
		date.Minute(),
	)
}

// ParseDate parses a YYYY-MM-DD string as midnight UTC.
func ParseDate(value string) (time.Time, error) {
	return time.ParseInLocation(dateOnlyLayout, value, time.UTC)
}
