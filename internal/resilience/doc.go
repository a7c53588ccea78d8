// Package resilience groups the fault-tolerance helpers wrapped around the
// bot's outbound calls: a circuit breaker per remote (feed host, PDS) and a
// bounded retry helper whose default is a single attempt.
//
// Usage Example:
//
//	cb := circuitbreaker.New(circuitbreaker.FeedFetchConfig())
//	err := retry.WithBackoff(ctx, retry.FeedFetchConfig(1), func() error {
//	    _, err := cb.Execute(func() (interface{}, error) {
//	        return fetchFeed(ctx)
//	    })
//	    return err
//	})
package resilience
