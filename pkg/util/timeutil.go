package util

import "time"

// ISOMillis is the millisecond precision UTC layout clients already parse, e.g. 2025-08-02T10:00:00.000Z.
const ISOMillis = "2006-01-02T15:04:05.000Z07:00"

// NowUTC exposes time.Now for deterministic testing.
func NowUTC() time.Time {
	return time.Now().UTC()
}

// FormatISO renders t in UTC with millisecond precision.
func FormatISO(t time.Time) string {
	return t.UTC().Format(ISOMillis)
}
