// Package collector drives a collection run: user search, profile details,
// repository listing, then the aggregate and the output files.
//
// The run is strictly sequential. Every request goes through the GitHub
// client, which owns rate limiting and retries. A failed profile fetch
// skips that user. A failed repository listing keeps the pages already
// fetched. A failed search aborts the run.
//
// Usage:
//
//	client, _ := github.NewClient(cfg, log)
//	c, _ := collector.New(cfg, client, log)
//	result, err := c.Run(ctx, collector.Options{Resume: true})
package collector
