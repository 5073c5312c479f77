// Package clock abstracts time for components that schedule or stamp work.
package clock

import "time"

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}
