package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"idea-relay/internal/domain"
)

// ErrClosed is returned by Dispatch after Close has been called.
var ErrClosed = errors.New("worker: pool is closed")

// HandlerFunc processes one dispatched turn.
type HandlerFunc func(ctx context.Context, ev domain.TurnEvent) error

type threadLock struct {
	mu   sync.Mutex
	refs int
}

// Pool runs dispatched turns on background goroutines. Turns for the same
// thread run one at a time so their session writes cannot interleave.
type Pool struct {
	handle HandlerFunc
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	closed  bool
	threads map[string]*threadLock
}

func New(handle HandlerFunc) (*Pool, error) {
	if handle == nil {
		return nil, errors.New("worker: handler must not be nil")
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		handle:  handle,
		ctx:     ctx,
		cancel:  cancel,
		threads: make(map[string]*threadLock),
	}, nil
}

// Dispatch schedules ev and returns immediately. The turn is not bound to
// ctx: it keeps running after the triggering request has been answered.
func (p *Pool) Dispatch(_ context.Context, ev domain.TurnEvent) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	p.wg.Add(1)
	p.mu.Unlock()

	go p.run(ev)
	return nil
}

func (p *Pool) run(ev domain.TurnEvent) {
	defer p.wg.Done()

	l := p.acquire(ev.ThreadTS)
	defer p.release(ev.ThreadTS, l)

	if err := p.handle(p.ctx, ev); err != nil {
		slog.Error("turn failed", "thread_ts", ev.ThreadTS, "err", err)
	}
}

func (p *Pool) acquire(key string) *threadLock {
	p.mu.Lock()
	l, ok := p.threads[key]
	if !ok {
		l = &threadLock{}
		p.threads[key] = l
	}
	l.refs++
	p.mu.Unlock()

	l.mu.Lock()
	return l
}

func (p *Pool) release(key string, l *threadLock) {
	l.mu.Unlock()

	p.mu.Lock()
	l.refs--
	if l.refs == 0 {
		delete(p.threads, key)
	}
	p.mu.Unlock()
}

// Close stops accepting turns and waits for running ones. If ctx ends first
// the remaining turns are cancelled and ctx's error is returned.
func (p *Pool) Close(ctx context.Context) error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.cancel()
		return nil
	case <-ctx.Done():
		p.cancel()
		return ctx.Err()
	}
}
