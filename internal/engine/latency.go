package engine

import (
	"context"
	"log"
	"time"
)

// StartLatencyTest asks the engine to begin a loopback measurement. The
// engine refuses while a test is already running.
func (e *Engine) StartLatencyTest() error {
	return e.command("start latency test", e.b.StartLatencyTest)
}

// StopLatencyTest aborts a running measurement. The test returns to idle
// with no result.
func (e *Engine) StopLatencyTest() error {
	return e.command("stop latency test", e.b.StopLatencyTest)
}

// LatencyTestStatus reports the current test state and the measured
// roundtrip in milliseconds. The result is NoLatencyResult until a
// measurement completes.
func (e *Engine) LatencyTestStatus() (state LatencyTestState, resultMs float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			log.Printf("engine: latency test status: native call panicked, using fallback: %v", r)
			state, resultMs = LatencyTestIdle, NoLatencyResult
		}
	}()
	code, result := e.b.LatencyTestStatus()
	return LatencyTestState(code), float64(result)
}

// LatencyTestError reports the failure message of the last test, if any.
func (e *Engine) LatencyTestError() (msg string, ok bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			log.Printf("engine: latency test error: native call panicked: %v", r)
			msg, ok = "", false
		}
	}()
	return e.b.LatencyTestError()
}

// RunLatencyTest drives a full loopback measurement: start the test, poll
// its status until it settles, and return the measured roundtrip in
// milliseconds. ok is false when the test errored, was stopped elsewhere,
// timed out, or the context was cancelled; in the latter two cases the test
// is stopped explicitly before returning. Only the calling goroutine blocks.
func (e *Engine) RunLatencyTest(ctx context.Context) (resultMs float64, ok bool) {
	if err := e.StartLatencyTest(); err != nil {
		log.Printf("engine: latency test not started: %v", err)
		return 0, false
	}
	log.Printf("engine: latency test started")

	timer := time.NewTimer(e.latencyTestTimeout)
	defer timer.Stop()

	ticker := time.NewTicker(e.latencyPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Printf("engine: latency test cancelled")
			if err := e.StopLatencyTest(); err != nil {
				log.Printf("engine: failed to stop latency test: %v", err)
			}
			return 0, false

		case <-timer.C:
			log.Printf("engine: latency test timed out after %v", e.latencyTestTimeout)
			if err := e.StopLatencyTest(); err != nil {
				log.Printf("engine: failed to stop latency test: %v", err)
			}
			return 0, false

		case <-ticker.C:
			state, result := e.LatencyTestStatus()
			switch state {
			case LatencyTestDone:
				log.Printf("engine: latency test done: %.2f ms", result)
				return result, true
			case LatencyTestError:
				if msg, found := e.LatencyTestError(); found {
					log.Printf("engine: latency test failed: %s", msg)
				} else {
					log.Printf("engine: latency test failed")
				}
				return 0, false
			case LatencyTestIdle:
				// Stopped from elsewhere before settling.
				log.Printf("engine: latency test stopped")
				return 0, false
			}
		}
	}
}
