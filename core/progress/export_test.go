package progress

import "time"

// SetNow pins the service clock to now and returns the function restoring it.
func SetNow(now time.Time) (restore func()) {
	prev := nowFunc
	nowFunc = func() time.Time { return now }
	return func() { nowFunc = prev }
}
