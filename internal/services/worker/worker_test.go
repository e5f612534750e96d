package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// echoGenerator returns the prompt, optionally blocking on gate.
type echoGenerator struct {
	calls   atomic.Int32
	gate    chan struct{}
	entered chan struct{}
	err     error
}

func (g *echoGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	g.calls.Add(1)
	if g.entered != nil {
		g.entered <- struct{}{}
	}
	if g.gate != nil {
		<-g.gate
	}
	if g.err != nil {
		return "", g.err
	}
	return "echo: " + prompt, nil
}

func TestPool_Generate(t *testing.T) {
	gen := &echoGenerator{}
	p := NewPool(2, 4, gen)
	p.Start()
	defer p.Stop()

	out, err := p.Generate(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "echo: hello", out)
	assert.EqualValues(t, 1, gen.calls.Load())
}

func TestPool_PassesErrorsThrough(t *testing.T) {
	boom := errors.New("service down")
	p := NewPool(1, 1, &echoGenerator{err: boom})
	p.Start()
	defer p.Stop()

	_, err := p.Generate(context.Background(), "x")
	assert.ErrorIs(t, err, boom)
}

func TestPool_ConcurrentCallers(t *testing.T) {
	gen := &echoGenerator{}
	p := NewPool(3, 20, gen)
	p.Start()
	defer p.Stop()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := p.Generate(context.Background(), "p")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 10, gen.calls.Load(), "each job runs exactly once")
}

func TestPool_QueueFull(t *testing.T) {
	gen := &echoGenerator{gate: make(chan struct{}), entered: make(chan struct{}, 2)}
	p := NewPool(1, 1, gen)
	p.Start()

	done := make(chan error, 2)
	go func() {
		_, err := p.Generate(context.Background(), "first")
		done <- err
	}()
	<-gen.entered // the only worker is busy

	go func() {
		_, err := p.Generate(context.Background(), "second")
		done <- err
	}()
	// Wait until the second job occupies the single queue slot.
	require.Eventually(t, func() bool { return len(p.jobs) == 1 }, time.Second, time.Millisecond)

	_, err := p.Generate(context.Background(), "third")
	assert.ErrorIs(t, err, ErrQueueFull)

	close(gen.gate)
	assert.NoError(t, <-done)
	assert.NoError(t, <-done)
	p.Stop()

	_, err = p.Generate(context.Background(), "late")
	assert.ErrorIs(t, err, ErrStopped)
	assert.EqualValues(t, 2, gen.calls.Load())
}

func TestPool_CancelledBeforeRun(t *testing.T) {
	gen := &echoGenerator{}
	p := NewPool(1, 1, gen)
	p.Start()
	defer p.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.Generate(ctx, "x")
	assert.ErrorIs(t, err, context.Canceled)
}
