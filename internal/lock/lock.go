//go:build !deadlock_test

// Package lock provides the mutex types used across lohr. Build with the
// `deadlock_test` tag to swap them for go-deadlock implementations which
// report lock-order violations and long waits.
package lock

import "sync"

type Mutex struct {
	sync.Mutex
}

type RWMutex struct {
	sync.RWMutex
}
