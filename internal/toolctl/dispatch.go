package toolctl

import (
	"runtime/debug"
	"sync"

	"github.com/Iron-Ham/tandem/internal/logging"
)

// Dispatcher runs callbacks one at a time on a single goroutine, in the
// order they were posted. Backends use it to honor the callback contract.
// Post never blocks, so callbacks may post further callbacks.
type Dispatcher struct {
	mu      sync.Mutex
	queue   []func()
	closed  bool
	wake    chan struct{}
	stopped chan struct{}
	logger  *logging.Logger
}

// NewDispatcher starts a dispatch goroutine. A nil logger discards panics.
func NewDispatcher(logger *logging.Logger) *Dispatcher {
	if logger == nil {
		logger = logging.NopLogger()
	}
	d := &Dispatcher{
		wake:    make(chan struct{}, 1),
		stopped: make(chan struct{}),
		logger:  logger,
	}
	go d.loop()
	return d
}

// Post queues fn. It returns false if the dispatcher is closed.
func (d *Dispatcher) Post(fn func()) bool {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return false
	}
	d.queue = append(d.queue, fn)
	d.mu.Unlock()

	d.signal()
	return true
}

// Flush blocks until every callback posted before the call has run.
// It must not be called from the dispatch goroutine.
func (d *Dispatcher) Flush() {
	done := make(chan struct{})
	if !d.Post(func() { close(done) }) {
		return
	}
	<-done
}

// Close stops accepting callbacks, runs what is already queued, and waits
// for the dispatch goroutine to exit. It must not be called from the
// dispatch goroutine.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		<-d.stopped
		return
	}
	d.closed = true
	d.mu.Unlock()

	d.signal()
	<-d.stopped
}

func (d *Dispatcher) signal() {
	select {
	case d.wake <- struct{}{}:
	default:
	}
}

func (d *Dispatcher) loop() {
	defer close(d.stopped)
	for {
		d.mu.Lock()
		for len(d.queue) == 0 && !d.closed {
			d.mu.Unlock()
			<-d.wake
			d.mu.Lock()
		}
		if len(d.queue) == 0 {
			d.mu.Unlock()
			return
		}
		fn := d.queue[0]
		d.queue[0] = nil
		d.queue = d.queue[1:]
		d.mu.Unlock()

		d.run(fn)
	}
}

// run invokes fn and recovers from any panic so one bad callback cannot
// stop delivery of the rest.
func (d *Dispatcher) run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("tool callback panicked",
				"panic", r,
				"stack", string(debug.Stack()))
		}
	}()
	fn()
}
