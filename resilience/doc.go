// Package resilience provides retry and rate limiting primitives for API clients.
//
// Retry runs on github.com/cenkalti/backoff/v5 and RateLimiter on
// golang.org/x/time/rate. They compose:
//
//	rl := resilience.NewRateLimiter(resilience.RateLimiterConfig{Rate: 10, Burst: 20})
//	resp, err := resilience.Retry(ctx, resilience.DefaultRetryConfig(), func() (*Response, error) {
//	    if err := rl.Wait(ctx); err != nil {
//	        return nil, resilience.Permanent(err)
//	    }
//	    return client.Do(ctx, req)
//	})
//
// Errors wrapped with Permanent stop retrying immediately. Errors wrapped with
// RetryAfter replace the computed delay with a server-provided one.
package resilience
