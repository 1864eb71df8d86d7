package app

import (
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/neustart-io/neustart/internal/models"
)

const (
	// StableUptime is how long a process must run before its crash stops
	// counting as a failed restart.
	StableUptime = 10 * time.Second

	// MaxRestartInterval caps the exponential restart delay.
	MaxRestartInterval = time.Minute

	// MinRestartInterval is the backoff base for a policy without a delay.
	// Only the first attempt after a healthy run is immediate.
	MinRestartInterval = time.Second
)

// restartTracker holds the restart bookkeeping of one app.
type restartTracker struct {
	bo        *backoff.ExponentialBackOff
	delay     time.Duration
	failures  int
	restarts  int
	nextAt    time.Time
	exhausted bool
	auto      bool // the current run is an automatic relaunch
}

func newRestartTracker() *restartTracker {
	return &restartTracker{}
}

// configure rebuilds the backoff when the policy's initial delay changed.
func (r *restartTracker) configure(policy models.RestartPolicy) {
	delay := policy.Delay()
	if r.bo != nil && r.delay == delay {
		return
	}
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = max(delay, MinRestartInterval)
	bo.RandomizationFactor = 0
	bo.Multiplier = 2
	bo.MaxInterval = MaxRestartInterval
	bo.MaxElapsedTime = 0
	bo.Reset()
	r.bo = bo
	r.delay = delay
}

func (r *restartTracker) next() time.Duration {
	if r.delay == 0 && r.failures == 0 {
		return 0
	}
	d := r.bo.NextBackOff()
	if d == backoff.Stop {
		return MaxRestartInterval
	}
	return d
}

// onCrash schedules the first attempt after an unexpected exit. Only a
// short-lived automatic relaunch counts as a failure; a manual start that
// crashes early still gets its full budget of restarts.
func (r *restartTracker) onCrash(now time.Time, uptime time.Duration, policy models.RestartPolicy) {
	r.configure(policy)
	switch {
	case uptime >= StableUptime:
		r.failures = 0
		r.exhausted = false
		r.bo.Reset()
	case r.auto:
		r.fail(policy)
	}
	r.nextAt = now.Add(r.next())
}

// onSpawnFailure schedules the next attempt after a failed relaunch.
func (r *restartTracker) onSpawnFailure(now time.Time, policy models.RestartPolicy) {
	r.configure(policy)
	r.fail(policy)
	r.nextAt = now.Add(r.next())
}

func (r *restartTracker) fail(policy models.RestartPolicy) {
	r.failures++
	if policy.MaxRestarts > 0 && r.failures >= policy.MaxRestarts {
		r.exhausted = true
	}
}

// onRestarted records a successful automatic relaunch.
func (r *restartTracker) onRestarted() {
	r.restarts++
	r.auto = true
	r.nextAt = time.Time{}
}

// due reports whether the scheduled attempt time has been reached.
func (r *restartTracker) due(now time.Time) bool {
	return !now.Before(r.nextAt)
}

// reset clears failure state after a manual start or stop. The
// restart counter is kept for display.
func (r *restartTracker) reset() {
	r.failures = 0
	r.auto = false
	r.exhausted = false
	r.nextAt = time.Time{}
	if r.bo != nil {
		r.bo.Reset()
	}
}
