// Package driver provides the two periodic callbacks a session runs on: a
// coarse countdown tick and a per-refresh animation frame.
package driver

import (
	"context"
	"time"
)

// Scheduler is what a session needs from its host.
type Scheduler interface {
	// OnTick runs fn roughly once per second until stop is called.
	// Registering again replaces the previous callback.
	OnTick(fn func(now time.Time)) (stop func())
	// OnFrame runs fn on every display refresh for as long as it returns
	// true.
	OnFrame(fn func(now time.Time) bool)
}

const (
	DefaultTickInterval  = time.Second
	DefaultFrameInterval = time.Second / 60
)

// Loop is a Scheduler that runs every callback on the goroutine calling
// Run. OnTick and OnFrame must be called before Run or from inside a
// callback; other goroutines hand work over with Post.
type Loop struct {
	tickInterval  time.Duration
	frameInterval time.Duration

	// AfterEach, when set, runs after every tick, frame and posted
	// function, on the loop goroutine.
	AfterEach func(now time.Time)

	tickFn   func(time.Time)
	tickGen  int
	ticker   *time.Ticker
	frameFn  func(time.Time) bool
	frameTkr *time.Ticker
	posted   chan func(time.Time)
	done     chan struct{}
}

var _ Scheduler = (*Loop)(nil)

// NewLoop creates a loop. Non-positive intervals take the defaults.
func NewLoop(tickInterval, frameInterval time.Duration) *Loop {
	if tickInterval <= 0 {
		tickInterval = DefaultTickInterval
	}
	if frameInterval <= 0 {
		frameInterval = DefaultFrameInterval
	}
	return &Loop{
		tickInterval:  tickInterval,
		frameInterval: frameInterval,
		posted:        make(chan func(time.Time), 64),
		done:          make(chan struct{}),
	}
}

func (l *Loop) OnTick(fn func(now time.Time)) (stop func()) {
	l.stopTicker()
	l.tickGen++
	gen := l.tickGen
	l.tickFn = fn
	l.ticker = time.NewTicker(l.tickInterval)
	return func() {
		if l.tickGen == gen {
			l.stopTicker()
		}
	}
}

func (l *Loop) stopTicker() {
	if l.ticker != nil {
		l.ticker.Stop()
	}
	l.ticker = nil
	l.tickFn = nil
}

func (l *Loop) OnFrame(fn func(now time.Time) bool) {
	l.frameFn = fn
	if l.frameTkr == nil {
		l.frameTkr = time.NewTicker(l.frameInterval)
	}
}

func (l *Loop) stopFrames() {
	if l.frameTkr != nil {
		l.frameTkr.Stop()
	}
	l.frameTkr = nil
	l.frameFn = nil
}

// Post queues fn to run on the loop goroutine. It is safe to call from
// any goroutine and blocks while 64 functions are waiting. Once Run has
// returned, fn is dropped and Post reports false.
func (l *Loop) Post(fn func(now time.Time)) bool {
	select {
	case <-l.done:
		return false
	default:
	}
	select {
	case l.posted <- fn:
		return true
	case <-l.done:
		return false
	}
}

// Ticking reports whether a tick callback is registered.
func (l *Loop) Ticking() bool { return l.tickFn != nil }

// Animating reports whether a frame callback is registered.
func (l *Loop) Animating() bool { return l.frameFn != nil }

// Run dispatches callbacks until ctx is done. A loop runs once.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.done)
	defer l.stopTicker()
	defer l.stopFrames()
	for {
		var tickC, frameC <-chan time.Time
		if l.ticker != nil {
			tickC = l.ticker.C
		}
		if l.frameTkr != nil {
			frameC = l.frameTkr.C
		}

		var now time.Time
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now = <-tickC:
			if l.tickFn != nil {
				l.tickFn(now)
			}
		case now = <-frameC:
			if l.frameFn != nil && !l.frameFn(now) {
				l.stopFrames()
			}
		case fn := <-l.posted:
			now = time.Now()
			fn(now)
		}
		if l.AfterEach != nil {
			l.AfterEach(now)
		}
	}
}

// Manual is a Scheduler driven by explicit calls, for tests and for hosts
// that own their update loop.
type Manual struct {
	tickFn  func(time.Time)
	tickGen int
	frameFn func(time.Time) bool
}

var _ Scheduler = (*Manual)(nil)

func (m *Manual) OnTick(fn func(now time.Time)) (stop func()) {
	m.tickGen++
	gen := m.tickGen
	m.tickFn = fn
	return func() {
		if m.tickGen == gen {
			m.tickFn = nil
		}
	}
}

func (m *Manual) OnFrame(fn func(now time.Time) bool) {
	m.frameFn = fn
}

// Tick runs the tick callback, if any, and reports whether it ran.
func (m *Manual) Tick(now time.Time) bool {
	if m.tickFn == nil {
		return false
	}
	m.tickFn(now)
	return true
}

// Frame runs the frame callback, if any, and reports whether it ran.
func (m *Manual) Frame(now time.Time) bool {
	if m.frameFn == nil {
		return false
	}
	if !m.frameFn(now) {
		m.frameFn = nil
	}
	return true
}

func (m *Manual) Ticking() bool   { return m.tickFn != nil }
func (m *Manual) Animating() bool { return m.frameFn != nil }
