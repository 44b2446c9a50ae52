// Package queue runs mirror jobs one at a time in the order they were
// queued.
//
// Enqueue never blocks, so it can be called directly from HTTP handlers.
// A single worker started with Start consumes the queue, failed jobs are
// logged and dropped, they are never retried. The queue is in memory only
// and jobs still waiting when the worker stops are discarded.
//
// # Usages
//
//	q := queue.New(logger)
//	go q.Start(ctx)
//
//	q.Enqueue(mirror.NewJob(repo, conf))
//
//	// on shutdown
//	cancel()
//	<-q.Stopped
package queue
