// Package ratelimit paces requests to the GitHub API.
//
// Two limiters are provided. FixedWindow hands out a budget of requests
// that is restored in full once the window that began with the first
// request has passed. This is the default and matches 30 calls per
// minute. SlidingWindow counts requests within a moving window and so
// never lets a burst straddle two windows.
//
//	limiter, _ := ratelimit.New(ratelimit.StrategyFixed, 30, time.Minute)
//	if err := limiter.Wait(ctx); err != nil {
//	    return err
//	}
//	// issue the request
package ratelimit
