// Package retry runs an operation a bounded number of times.
//
// It mirrors how the collector treats a single GitHub request: a failed
// attempt is retried if its error is retryable, after either the wait the
// server asked for (see errors.RetryAfter) or the next backoff delay.
//
//	user, err := retry.DoWithResult(ctx, func() (*github.User, error) {
//		return c.fetchUser(ctx, login)
//	}, cfg)
package retry
