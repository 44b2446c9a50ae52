package queue

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/utilitywarehouse/lohr/internal/lock"
)

var ErrStopped = errors.New("queue has been stopped")

// Job is a unit of work executed by the queue worker
type Job interface {
	// Name is used for logging
	Name() string
	Run(ctx context.Context) error
}

// Queue is an unbounded FIFO of jobs consumed by a single worker, so at
// most one job is running at any time and jobs are run in the order they
// were enqueued.
// A Queue is safe for concurrent use by multiple goroutines.
type Queue struct {
	lock    lock.Mutex
	log     *slog.Logger
	jobs    []Job
	notify  chan struct{}
	started bool
	stopped bool
	Stopped chan bool
}

// New returns an empty queue. Jobs will not run until Start is called
func New(log *slog.Logger) *Queue {
	if log == nil {
		log = slog.Default()
	}
	return &Queue{
		log:     log,
		notify:  make(chan struct{}, 1),
		Stopped: make(chan bool),
	}
}

// Enqueue adds job to the end of the queue. It never blocks on the
// worker.
func (q *Queue) Enqueue(job Job) error {
	q.lock.Lock()
	if q.stopped {
		q.lock.Unlock()
		return ErrStopped
	}
	q.jobs = append(q.jobs, job)
	length := len(q.jobs)
	q.lock.Unlock()

	setQueueLength(length)
	q.log.Debug("job queued", "job", job.Name(), "queued", length)

	// wake worker up if its waiting
	select {
	case q.notify <- struct{}{}:
	default:
	}
	return nil
}

// Len returns number of jobs waiting to be run
func (q *Queue) Len() int {
	q.lock.Lock()
	defer q.lock.Unlock()
	return len(q.jobs)
}

// Start runs the worker loop in foreground till ctx is cancelled.
// in-flight job is not cancelled and allowed to finish, all jobs still
// waiting in the queue are discarded. Stopped is closed on return.
func (q *Queue) Start(ctx context.Context) {
	q.lock.Lock()
	if q.started {
		q.lock.Unlock()
		q.log.Error("queue worker has already been started")
		return
	}
	q.started = true
	q.lock.Unlock()

	q.log.Info("started queue worker")

	defer func() {
		q.lock.Lock()
		q.stopped = true
		discarded := len(q.jobs)
		q.jobs = nil
		q.lock.Unlock()

		setQueueLength(0)
		if discarded > 0 {
			q.log.Warn("queue worker stopped, discarding queued jobs", "discarded", discarded)
		} else {
			q.log.Info("queue worker stopped")
		}
		close(q.Stopped)
	}()

	for {
		// check for shutdown before starting next job
		if ctx.Err() != nil {
			return
		}

		job, ok := q.next()
		if !ok {
			select {
			case <-q.notify:
			case <-ctx.Done():
				return
			}
			continue
		}

		q.run(context.WithoutCancel(ctx), job)
	}
}

// next pops the job at the head of the queue
func (q *Queue) next() (Job, bool) {
	q.lock.Lock()
	defer q.lock.Unlock()

	if len(q.jobs) == 0 {
		return nil, false
	}
	job := q.jobs[0]
	q.jobs[0] = nil
	q.jobs = q.jobs[1:]

	setQueueLength(len(q.jobs))
	return job, true
}

// run runs the job, failures are logged and never stop the worker
func (q *Queue) run(ctx context.Context, job Job) {
	start := time.Now()
	q.log.Debug("job started", "job", job.Name())

	err := job.Run(ctx)
	if err == nil {
		q.log.Debug("job finished", "job", job.Name(), "time", time.Since(start))
		return
	}

	attrs := []any{"job", job.Name(), "time", time.Since(start), "err", err}
	var la interface{ LogAttrs() []any }
	if errors.As(err, &la) {
		attrs = append(attrs, la.LogAttrs()...)
	}
	q.log.Error("job failed", attrs...)
}
