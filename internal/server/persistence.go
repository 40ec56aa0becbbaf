package server

import (
	"context"
	"sync"
	"time"

	"quiz-arena/internal/sink"

	"github.com/rs/zerolog/log"
)

type sinkJob struct {
	name   string
	code   string
	userID string
	run    func(ctx context.Context, s sink.Sink) error
}

// sinkDispatcher runs sink calls on a fixed worker pool so the orchestrator
// loop never waits on storage or the message bus.
type sinkDispatcher struct {
	sink    sink.Sink
	jobs    chan sinkJob
	workers int
	timeout time.Duration

	mu      sync.RWMutex
	closed  bool
	started bool
	wg      sync.WaitGroup
}

func newSinkDispatcher(s sink.Sink, workers, queueSize int, timeout time.Duration) *sinkDispatcher {
	if s == nil {
		s = sink.Nop{}
	}
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 1
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &sinkDispatcher{
		sink:    s,
		jobs:    make(chan sinkJob, queueSize),
		workers: workers,
		timeout: timeout,
	}
}

func (d *sinkDispatcher) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started || d.closed {
		return
	}
	d.started = true
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker(i)
	}
	log.Info().Int("workers", d.workers).Msg("sink dispatcher started")
}

func (d *sinkDispatcher) worker(id int) {
	defer d.wg.Done()
	for job := range d.jobs {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		err := job.run(ctx, d.sink)
		cancel()
		if err != nil {
			log.Error().
				Err(err).
				Int("worker", id).
				Str("job", job.name).
				Str("session_code", job.code).
				Str("user_id", job.userID).
				Msg("sink call failed")
		}
	}
}

// Enqueue never blocks. A full queue drops the job.
func (d *sinkDispatcher) Enqueue(job sinkJob) bool {
	if d == nil {
		return false
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return false
	}
	select {
	case d.jobs <- job:
		return true
	default:
		log.Warn().
			Str("job", job.name).
			Str("session_code", job.code).
			Str("user_id", job.userID).
			Msg("sink queue full, dropping job")
		return false
	}
}

// Close stops accepting jobs and waits for queued ones until ctx expires.
func (d *sinkDispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.jobs)
	started := d.started
	d.mu.Unlock()
	if !started {
		return nil
	}

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func resultJob(result sink.Result) sinkJob {
	return sinkJob{
		name:   "record_result",
		code:   result.SessionCode,
		userID: result.UserID,
		run: func(ctx context.Context, s sink.Sink) error {
			return s.RecordResult(ctx, result)
		},
	}
}

func currencyJob(code, userID string, amount int) sinkJob {
	return sinkJob{
		name:   "add_currency",
		code:   code,
		userID: userID,
		run: func(ctx context.Context, s sink.Sink) error {
			return s.AddCurrency(ctx, userID, amount)
		},
	}
}

func eventJob(event sink.Event) sinkJob {
	return sinkJob{
		name:   "record_event",
		code:   event.SessionCode,
		userID: event.UserID,
		run: func(ctx context.Context, s sink.Sink) error {
			return s.RecordEvent(ctx, event)
		},
	}
}
