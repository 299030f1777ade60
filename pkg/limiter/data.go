package limiter

import (
	"time"

	"github.com/rohmanhakim/stream-harvester/pkg/timeutil"
)

// timing-related data used to track when a host may be requested again.
// lastFetchAt may lie in the future: it is the latest slot booked by Wait.
type hostTiming struct {
	lastFetchAt time.Time
	hostDelay   time.Duration
}

func (h hostTiming) delay(baseDelay time.Duration) time.Duration {
	return timeutil.MaxDuration([]time.Duration{baseDelay, h.hostDelay})
}
