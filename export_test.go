package sh1106

import "time"

// SetSleep replaces the reset delay and returns a function restoring it.
func SetSleep(f func(time.Duration)) (restore func()) {
	old := sleep
	sleep = f
	return func() { sleep = old }
}
