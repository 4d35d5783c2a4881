package agent

import (
	"context"
	"log"
	"time"
)

// Loop drives the orchestrator: one cycle per interval tick plus manual
// triggers. Cycles never overlap; triggers arriving while a cycle runs
// coalesce into at most one pending run.
type Loop struct {
	orch     *Orchestrator
	interval time.Duration
	trigger  chan struct{}
}

func NewLoop(orch *Orchestrator, interval time.Duration) *Loop {
	return &Loop{
		orch:     orch,
		interval: interval,
		trigger:  make(chan struct{}, 1),
	}
}

// Trigger requests an extra cycle. Never blocks; a trigger that arrives
// while one is already pending is dropped.
func (l *Loop) Trigger() {
	select {
	case l.trigger <- struct{}{}:
	default:
	}
}

// Run blocks until the context is cancelled or a cycle fails to persist.
// An interval of zero disables the timer and runs only manual triggers.
func (l *Loop) Run(ctx context.Context) error {
	var tick <-chan time.Time
	if l.interval > 0 {
		ticker := time.NewTicker(l.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick:
		case <-l.trigger:
		}

		if _, err := l.orch.RunCycle(ctx); err != nil {
			log.Printf("ERROR: stopping loop: %v", err)
			return err
		}
	}
}
