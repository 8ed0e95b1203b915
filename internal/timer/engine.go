package timer

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/ngenohkevin/racetime_clock/internal/clock"
	"github.com/ngenohkevin/racetime_clock/internal/instant"
)

// Result is the outcome of refreshing one target
type Result struct {
	ID       uuid.UUID
	Duration Duration
	Err      error
}

// OK reports whether the target was updated
func (r Result) OK() bool {
	return r.Err == nil
}

// Engine keeps every registered target's displayed duration in sync with
// the clock, once per frame.
type Engine struct {
	registry *Registry
	clock    clock.Clock
	frames   FrameSource
	location *time.Location
	logger   *log.Logger

	mu          sync.Mutex
	subscribers map[int]chan []Result
	nextSub     int
}

// Option configures an Engine
type Option func(*Engine)

// WithClock sets the time source
func WithClock(c clock.Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithFrames sets the frame source. Without one, Run paces itself at
// DefaultFrameRate.
func WithFrames(f FrameSource) Option {
	return func(e *Engine) { e.frames = f }
}

// WithLocation sets the location offset-less reference instants are read in
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) { e.location = loc }
}

// WithLogger sets the logger
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// NewEngine creates an engine over registry
func NewEngine(registry *Registry, opts ...Option) *Engine {
	e := &Engine{
		registry:    registry,
		clock:       clock.Real{},
		location:    time.Local,
		subscribers: make(map[int]chan []Result),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = log.New(io.Discard)
	}
	return e
}

// Registry returns the engine's target registry
func (e *Engine) Registry() *Registry {
	return e.registry
}

// RefreshAll re-renders every target present in the registry at the start
// of the call. A failing target is reported in its result and never stops
// the others.
func (e *Engine) RefreshAll(now time.Time) []Result {
	entries := e.registry.Snapshot()
	results := make([]Result, 0, len(entries))

	for _, entry := range entries {
		res := e.refreshOne(now, entry)
		if res.Err != nil {
			e.logger.Debug("timer skipped", "id", entry.ID, "err", res.Err)
		}
		results = append(results, res)
	}

	return results
}

func (e *Engine) refreshOne(now time.Time, entry Entry) (res Result) {
	res.ID = entry.ID

	defer func() {
		if r := recover(); r != nil {
			res.Err = errors.Newf("render panicked: %v", r)
		}
	}()

	annotations, err := entry.Target.Annotations()
	if err != nil {
		res.Err = err
		return res
	}

	reference, err := instant.Parse(annotations.Datetime, e.location)
	if err != nil {
		res.Err = err
		return res
	}

	latency, err := annotations.LatencyOffset()
	if err != nil {
		res.Err = err
		return res
	}

	res.Duration, err = Format(now, reference, latency)
	if err != nil {
		res.Err = err
		return res
	}
	if err := entry.Target.Render(res.Duration); err != nil {
		res.Err = errors.Wrap(err, "render")
	}

	return res
}

// Run refreshes all targets, then waits for the next frame, until ctx is
// done. It returns the context's error.
func (e *Engine) Run(ctx context.Context) error {
	frames := e.frames
	if frames == nil {
		ticker := NewTickerFrames(DefaultFrameRate)
		defer ticker.Stop()
		frames = ticker
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		results := e.RefreshAll(e.clock.Now())
		e.publish(results)

		if _, err := frames.Next(ctx); err != nil {
			return err
		}
	}
}

// Handle controls a loop started with Start
type Handle struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Stop ends the loop and waits for it to exit
func (h *Handle) Stop() {
	h.cancel()
	<-h.done
}

// Done is closed once the loop has exited
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Start runs the loop in its own goroutine. It keeps running until Stop is
// called or ctx is done.
func (e *Engine) Start(ctx context.Context) *Handle {
	ctx, cancel := context.WithCancel(ctx)
	h := &Handle{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(h.done)
		err := e.Run(ctx)
		e.logger.Debug("tick loop stopped", "reason", err)
	}()

	return h
}

// Subscribe registers an observer of each refresh cycle's results. Cycles
// are dropped for a subscriber whose buffer is full. The returned function
// unsubscribes and closes the channel. Result slices are shared and must
// not be modified.
func (e *Engine) Subscribe(buffer int) (<-chan []Result, func()) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ch := make(chan []Result, buffer)
	id := e.nextSub
	e.nextSub++
	e.subscribers[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			e.mu.Lock()
			defer e.mu.Unlock()
			delete(e.subscribers, id)
			close(ch)
		})
	}
}

func (e *Engine) publish(results []Result) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, ch := range e.subscribers {
		select {
		case ch <- results:
		default:
		}
	}
}
