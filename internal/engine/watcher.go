package engine

import (
	"context"
	"sync"
	"time"

	"github.com/jonathan/form-autofill/internal/types"
	"go.uber.org/zap"
)

// DebounceDelay is how long newly observed fields accumulate before a pass.
const DebounceDelay = 300 * time.Millisecond

// PassFunc runs one pass over a batch of newly observed fields.
type PassFunc func(ctx context.Context, fields []types.FieldDescriptor)

// Watcher coalesces field observations into debounced passes. Fields observed
// within DebounceDelay of the first unflushed observation share one pass.
// Passes run one at a time off the watcher goroutine, so Observe never waits
// for a running pass; a window that closes during a pass runs right after it.
type Watcher struct {
	run    PassFunc
	delay  time.Duration
	events chan []types.FieldDescriptor
	stop   chan struct{}
	done   chan struct{}
	cancel context.CancelFunc
	once   sync.Once
}

// NewWatcher starts a watcher goroutine. Stop must be called to release it.
func NewWatcher(ctx context.Context, run PassFunc, delay time.Duration) *Watcher {
	if delay <= 0 {
		delay = DebounceDelay
	}
	ctx, cancel := context.WithCancel(ctx)
	w := &Watcher{
		run:    run,
		delay:  delay,
		events: make(chan []types.FieldDescriptor),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
		cancel: cancel,
	}
	go w.loop(ctx)
	return w
}

// Observe queues fields for the next pass. It is a no-op after Stop.
func (w *Watcher) Observe(fields ...types.FieldDescriptor) {
	if len(fields) == 0 {
		return
	}
	select {
	case w.events <- fields:
	case <-w.done:
	}
}

// Stop cancels any running pass, drops pending fields and waits for the
// watcher goroutine and its pass to exit.
func (w *Watcher) Stop() {
	w.once.Do(func() {
		w.cancel()
		close(w.stop)
	})
	<-w.done
}

func (w *Watcher) loop(ctx context.Context) {
	defer close(w.done)

	var (
		pending []types.FieldDescriptor
		timer   *time.Timer
		fire    <-chan time.Time
		due     bool
		running chan struct{}
	)
	stopTimer := func() {
		if timer != nil {
			timer.Stop()
			timer, fire = nil, nil
		}
	}
	start := func() {
		batch := pending
		pending, due = nil, false
		finished := make(chan struct{})
		running = finished
		go func() {
			defer close(finished)
			w.run(ctx, batch)
		}()
	}
	shutdown := func() {
		stopTimer()
		if running != nil {
			<-running
		}
	}

	for {
		select {
		case <-w.stop:
			shutdown()
			return
		case <-ctx.Done():
			shutdown()
			return
		case fields := <-w.events:
			pending = append(pending, fields...)
			if timer == nil && !due {
				timer = time.NewTimer(w.delay)
				fire = timer.C
			}
		case <-fire:
			timer, fire = nil, nil
			if running != nil {
				due = true
				continue
			}
			start()
		case <-running:
			running = nil
			if due {
				start()
			}
		}
	}
}

// Watch returns a watcher whose passes run the engine against each batch.
func (e *Engine) Watch(ctx context.Context, page *types.PageContext, delay time.Duration) *Watcher {
	return NewWatcher(ctx, func(ctx context.Context, fields []types.FieldDescriptor) {
		if _, _, err := e.Run(ctx, fields, page); err != nil && ctx.Err() == nil {
			e.logger.Warn("debounced pass failed", zap.Error(err))
		}
	}, delay)
}
