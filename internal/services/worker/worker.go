// Package worker runs text-generation calls on a fixed pool of goroutines.
//
// Go Pattern: a buffered channel is the job queue and N worker goroutines
// read from it. Handlers submit a job and wait on its result channel, so the
// number of concurrent calls to the hosted service is capped at N no matter
// how many sessions are active.
package worker

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"
)

// ErrQueueFull is returned when the job queue has no room. The call was not
// made.
var ErrQueueFull = errors.New("generation queue is full, try again shortly")

// ErrStopped is returned for jobs submitted after Stop.
var ErrStopped = errors.New("generation pool is stopped")

// Generator is the call the pool runs. It matches study.Generator.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// job is one queued generation call.
type job struct {
	ctx      context.Context
	prompt   string
	queuedAt time.Time
	result   chan result // buffered(1) so a worker never blocks on a gone caller
}

type result struct {
	text string
	err  error
}

// Pool manages the worker goroutines.
type Pool struct {
	jobs    chan job
	workers int
	gen     Generator

	// Go Pattern: sync.WaitGroup tracks running goroutines for shutdown.
	wg sync.WaitGroup

	mu      sync.RWMutex // guards stopped against Submit racing Stop
	stopped bool
}

// NewPool creates a pool of workers goroutines with room for queueSize
// waiting jobs. Call Start before use.
func NewPool(workers, queueSize int, gen Generator) *Pool {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}
	return &Pool{
		jobs:    make(chan job, queueSize),
		workers: workers,
		gen:     gen,
	}
}

// Start launches the worker goroutines.
func (p *Pool) Start() {
	log.Printf("🚀 Starting %d generation workers", p.workers)
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Stop lets queued jobs finish, then stops the workers.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	close(p.jobs)
	p.mu.Unlock()

	log.Println("⏹️  Stopping generation workers...")
	p.wg.Wait()
	log.Println("✅ All generation workers stopped")
}

// WorkerCount returns the number of workers.
func (p *Pool) WorkerCount() int { return p.workers }

// Generate queues prompt and waits for its result. It satisfies the same
// interface as the wrapped generator, so the pool can sit in front of it
// transparently. Each job is run exactly once.
func (p *Pool) Generate(ctx context.Context, prompt string) (string, error) {
	j := job{ctx: ctx, prompt: prompt, queuedAt: time.Now(), result: make(chan result, 1)}
	if err := p.submit(j); err != nil {
		return "", err
	}

	select {
	case r := <-j.result:
		return r.text, r.err
	case <-ctx.Done():
		// The worker sees the cancelled context and drops the job.
		return "", ctx.Err()
	}
}

func (p *Pool) submit(j job) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.stopped {
		return ErrStopped
	}

	// Go Pattern: `select` with `default` makes the send non-blocking, so a
	// full queue fails fast instead of holding the HTTP handler.
	select {
	case p.jobs <- j:
		return nil
	default:
		log.Printf("⚠️  Generation queue full (%d waiting)", cap(p.jobs))
		return ErrQueueFull
	}
}

// worker processes jobs until the channel is closed.
func (p *Pool) worker(id int) {
	defer p.wg.Done()

	for j := range p.jobs {
		if err := j.ctx.Err(); err != nil {
			j.result <- result{err: err}
			continue
		}

		if wait := time.Since(j.queuedAt); wait > time.Second {
			log.Printf("⏳ Worker %d: job waited %s in queue", id, wait.Round(time.Millisecond))
		}

		text, err := p.gen.Generate(j.ctx, j.prompt)
		j.result <- result{text: text, err: err}
	}
}
