/*
Package resilience provides circuit breaker implementation for graceful degradation.

# Overview

This package implements the circuit breaker pattern for host command
handlers. A handler that keeps failing is short-circuited so the page gets
an immediate error reply instead of waiting on a broken backend.

# Features

- Three-state circuit breaker (Closed, Open, Half-Open)
- Configurable failure thresholds and timeouts
- Automatic state transitions
- Concurrent request handling
- State change callbacks for monitoring
- Per-command breakers via Group
- Injectable clock for tests

# Usage

	group := resilience.NewGroup(resilience.Settings{
		Timeout:     30 * time.Second,
		ReadyToTrip: resilience.ConsecutiveFailures(5),
		OnStateChange: func(name string, from, to resilience.State) {
			logger.Warn("breaker", zap.String("command", name), zap.Stringer("to", to))
		},
	})

	err := group.Get("save").Execute(func() error {
		out, err = handler.Invoke(ctx, "save", args)
		return err
	})

# States

- Closed: Normal operation, requests pass through
- Open: Handler is failing, calls are rejected immediately
- Half-Open: A limited number of trial calls are admitted

# Pattern

The circuit breaker transitions between states based on success/failure rates:

	Closed --[failures]-> Open --[timeout]-> Half-Open --[successes]-> Closed
	                                           |
	                                    [failure]
	                                           |
	                                           v
	                                         Open
*/
package resilience
