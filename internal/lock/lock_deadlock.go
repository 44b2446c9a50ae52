//go:build deadlock_test

package lock

import (
	"time"

	"github.com/sasha-s/go-deadlock"
)

func init() {
	// a mirror job can legitimately hold the queue for minutes but
	// the queue lock itself must never be held across a job
	deadlock.Opts.DeadlockTimeout = 30 * time.Second
}

type Mutex struct {
	deadlock.Mutex
}

type RWMutex struct {
	deadlock.RWMutex
}
