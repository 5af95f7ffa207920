package book

import "time"

// Clock abstracts time.Now() to allow deterministic testing.
// It is used to compute the days left until a birthday.
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using the standard time package.
type RealClock struct{}

// Now returns the current local time.
func (RealClock) Now() time.Time {
	return time.Now()
}

// NextOccurrence determines the next anniversary of birthDate relative to now,
// today included, in now's location.
// Go's time.Date normalizes Feb 29 to March 1st in non-leap years.
func NextOccurrence(now, birthDate time.Time) time.Time {
	loc := now.Location()
	candidate := time.Date(now.Year(), birthDate.Month(), birthDate.Day(), 0, 0, 0, 0, loc)
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)

	if candidate.Before(todayStart) {
		candidate = time.Date(now.Year()+1, birthDate.Month(), birthDate.Day(), 0, 0, 0, 0, loc)
	}
	return candidate
}

// DaysUntil counts whole calendar days from the start of now's day to the
// next anniversary of birthDate. It is 0 on the birthday itself.
func DaysUntil(now, birthDate time.Time) int {
	next := NextOccurrence(now, birthDate)
	// Day arithmetic in UTC so DST shifts do not skew the count.
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	to := time.Date(next.Year(), next.Month(), next.Day(), 0, 0, 0, 0, time.UTC)
	return int(to.Sub(from).Hours() / 24)
}
