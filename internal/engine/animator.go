package engine

import (
	"context"
	"sync"
	"time"
)

// Animator drives a frame loop: at each tick it asks step for the next frame
// and hands it to sink. At most one loop runs at a time.
type Animator struct {
	interval time.Duration
	step     func() Frame
	sink     func(Frame)

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewAnimator(fps int, step func() Frame, sink func(Frame)) *Animator {
	if fps <= 0 {
		fps = 30
	}
	return &Animator{
		interval: time.Second / time.Duration(fps),
		step:     step,
		sink:     sink,
	}
}

// Start launches the loop unless one is already running. The loop ends when
// ctx is done or Stop is called.
func (a *Animator) Start(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.alive() {
		return
	}
	a.halt()
	a.launch(ctx)
}

// Stop cancels the running loop and waits for it to exit.
func (a *Animator) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.halt()
}

// Restart replaces the running loop with a fresh one, so a loop started with
// stale inputs never overlaps its successor.
func (a *Animator) Restart(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.halt()
	a.launch(ctx)
}

func (a *Animator) Running() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.alive()
}

// alive reports whether the last launched loop is still running; a loop
// whose parent context ended has exited on its own.
func (a *Animator) alive() bool {
	if a.done == nil {
		return false
	}
	select {
	case <-a.done:
		return false
	default:
		return true
	}
}

// Step produces and delivers a single frame outside the loop.
func (a *Animator) Step() Frame {
	f := a.step()
	if a.sink != nil {
		a.sink(f)
	}
	return f
}

func (a *Animator) launch(parent context.Context) {
	ctx, cancel := context.WithCancel(parent)
	done := make(chan struct{})
	a.cancel = cancel
	a.done = done
	go a.run(ctx, done)
}

func (a *Animator) halt() {
	if a.cancel == nil {
		return
	}
	a.cancel()
	<-a.done
	a.cancel = nil
	a.done = nil
}

func (a *Animator) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.Step()
		}
	}
}
