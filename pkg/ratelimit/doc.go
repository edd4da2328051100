// Package ratelimit throttles requests to the Tumblr API and its image hosts.
//
// PerMinute builds the limiter from the configured requests-per-minute value:
// a sliding window over the last minute, or Unlimited when the value is zero.
// Wait honours context cancellation so an interrupt is never stuck behind the limiter.
//
//	limiter := ratelimit.PerMinute(cfg.RateLimit.RequestsPerMinute)
//	if err := limiter.Wait(ctx); err != nil {
//	    return err
//	}
package ratelimit
