package client

import (
	"strconv"
	"time"
)

var dateLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

// ParseDate reads the date formats the backend emits (ISO timestamps or plain dates).
func ParseDate(s string) (time.Time, error) {
	var err error
	for _, layout := range dateLayouts {
		var t time.Time
		if t, err = time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}

// FormatDate renders a backend date as day/month/year without padding (1/5/2024),
// the way Spanish-locale pages show it. The calendar day is taken in UTC, where the
// backend stores dates. Unparseable input is returned unchanged.
func FormatDate(s string) string {
	t, err := ParseDate(s)
	if err != nil {
		return s
	}
	return t.UTC().Format("2/1/2006")
}

// FormatPrice renders an amount with two decimals and a dollar sign.
func FormatPrice(amount float64) string {
	return "$" + strconv.FormatFloat(amount, 'f', 2, 64)
}

// formatNumber renders a number the way form fields carry it: no trailing zeros.
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
