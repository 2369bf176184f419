package fetch

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// RateLimiter manages request timing per domain for politeness. It
// enforces a minimum gap between successive requests to the same domain
// rather than a fixed sleep before every request.
type RateLimiter struct {
	domainLastRequest   map[string]time.Time // domain -> last request attempt time
	domainLastRequestMu sync.Mutex
	defaultDelay        time.Duration // Fallback delay if specific delay is invalid
	log                 *logrus.Entry
}

// NewRateLimiter creates a RateLimiter
func NewRateLimiter(defaultDelay time.Duration, log *logrus.Entry) *RateLimiter {
	return &RateLimiter{
		domainLastRequest: make(map[string]time.Time),
		defaultDelay:      defaultDelay,
		log:               log,
	}
}

// ApplyDelay sleeps if the time since the last request to the domain is
// less than minDelay. Includes jitter (+/- 10%) to desynchronize requests.
// The sleep is cut short if ctx is cancelled.
func (rl *RateLimiter) ApplyDelay(ctx context.Context, domain string, minDelay time.Duration) {
	if minDelay <= 0 {
		minDelay = rl.defaultDelay
	}
	if minDelay <= 0 {
		return
	}

	// Read last request time safely; never hold the lock across the sleep
	rl.domainLastRequestMu.Lock()
	lastReqTime, exists := rl.domainLastRequest[domain]
	rl.domainLastRequestMu.Unlock()

	if !exists {
		return
	}

	elapsed := time.Since(lastReqTime)
	if elapsed >= minDelay {
		return
	}
	sleepDuration := minDelay - elapsed

	// Add jitter: +/- 10% of sleepDuration
	var jitter time.Duration
	jitterRange := int64(sleepDuration) / 5 // 20% range width for +/-10%
	if jitterRange > 0 {                    // Avoid Int63n(0)
		jitter = time.Duration(rand.Int63n(jitterRange)) - (sleepDuration / 10)
	}
	finalSleep := sleepDuration + jitter
	if finalSleep <= 0 {
		return
	}

	rl.log.WithFields(logrus.Fields{
		"domain": domain, "sleep": finalSleep, "required_delay": minDelay, "elapsed": elapsed,
	}).Debug("Rate limit applying sleep")

	timer := time.NewTimer(finalSleep)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

// UpdateLastRequestTime records the current time as the last request
// attempt time for the domain. Call this *after* an HTTP request attempt.
func (rl *RateLimiter) UpdateLastRequestTime(domain string) {
	rl.domainLastRequestMu.Lock()
	rl.domainLastRequest[domain] = time.Now()
	rl.domainLastRequestMu.Unlock()
}
