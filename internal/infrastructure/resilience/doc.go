/*
Package resilience provides a circuit breaker for calls to the port directory.

The panel polls the open-ports endpoint every few seconds. When the endpoint
is down, every tick would otherwise wait out a full request timeout. The
breaker short-circuits those calls until the endpoint has had time to recover.

# Usage

	breaker := resilience.New("open-ports", resilience.Settings{
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	})

	ports, err := resilience.Do(breaker, func() ([]types.PortEntry, error) {
		return fetch(ctx)
	})

# States

	Closed --[failures]-> Open --[timeout]-> Half-Open --[successes]-> Closed
	                                           |
	                                       [failure]
	                                           v
	                                          Open
*/
package resilience
