package timer

import (
	"sync/atomic"
	"time"
)

// Time contains the unix-time in milliseconds updated every [Resolution] milliseconds
var Time = new(atomic.Int64)

// date holds Time rendered in the HTTP-date format (RFC 9110, 5.6.7)
var date = new(atomic.Pointer[string])

// Resolution is the frequency at which time is updated. Default 500ms are
// precise enough for setting I/O deadlines and rendering the Date header
const Resolution = 500 * time.Millisecond

func Now() time.Time {
	millis := Time.Load()
	return time.Unix(millis/1000, (millis%1000)*1e6)
}

// Date returns the current time formatted for the Date response header.
func Date() string {
	return *date.Load()
}

// Deadline returns the moment timeout from now. Zero timeout means no deadline at all.
func Deadline(timeout time.Duration) time.Time {
	if timeout <= 0 {
		return time.Time{}
	}

	return Now().Add(timeout)
}

func store(now time.Time) {
	Time.Store(now.UnixMilli())
	formatted := now.UTC().Format(time.RFC1123)
	// time.RFC1123 renders the zone as UTC, but HTTP-date demands GMT
	formatted = formatted[:len(formatted)-3] + "GMT"
	date.Store(&formatted)
}

func init() {
	// there is no guarantee that the goroutine will be started immediately. If it won't,
	// some rapid usage of the timer will result in zero-time, which isn't great actually
	store(time.Now())

	go func() {
		for {
			time.Sleep(Resolution)
			store(time.Now())
		}
	}()
}
