// Package carousel implements the slide state machine behind a case's
// image carousel: wrap-around navigation, shortest-path selection, a
// short-lived transition phase and an owned auto-advance ticker.
package carousel

import (
	"context"
	"sync"
	"time"
)

// Default timings.
const (
	DefaultInterval        = 5 * time.Second
	DefaultTransitionDelay = 400 * time.Millisecond
)

// Phase is the transition state of the carousel.
type Phase int

const (
	Steady Phase = iota
	Forward
	Backward
)

func (p Phase) String() string {
	switch p {
	case Forward:
		return "forward"
	case Backward:
		return "backward"
	}
	return "steady"
}

// Image is one slide.
type Image struct {
	Src     string `json:"src"`
	Alt     string `json:"alt"`
	Caption string `json:"caption,omitempty"`
}

// State is an immutable view of the carousel.
type State struct {
	Images   []Image
	Index    int
	Previous int // -1 when no transition is in progress
	Phase    Phase
}

// Empty reports whether there is nothing to show.
func (s State) Empty() bool { return len(s.Images) == 0 }

// Navigable reports whether navigation controls apply.
func (s State) Navigable() bool { return len(s.Images) > 1 }

// Active returns the current slide. ok is false for an empty carousel.
func (s State) Active() (img Image, ok bool) {
	if len(s.Images) == 0 {
		return Image{}, false
	}
	return s.Images[s.Index], true
}

// Option configures a Carousel.
type Option func(*Carousel)

// WithInterval sets the auto-advance period.
func WithInterval(d time.Duration) Option {
	return func(c *Carousel) {
		if d > 0 {
			c.interval = d
		}
	}
}

// WithTransitionDelay sets how long the previous slide is retained.
func WithTransitionDelay(d time.Duration) Option {
	return func(c *Carousel) {
		if d > 0 {
			c.delay = d
		}
	}
}

// WithOnChange registers a callback invoked after every state change.
// It runs outside the carousel's lock, possibly on a timer goroutine.
func WithOnChange(fn func(State)) Option {
	return func(c *Carousel) { c.onChange = fn }
}

// Carousel is safe for concurrent use.
type Carousel struct {
	mu       sync.Mutex
	images   []Image
	index    int
	previous int
	phase    Phase

	interval time.Duration
	delay    time.Duration
	onChange func(State)

	parent     context.Context
	stopTicker context.CancelFunc
	transition *time.Timer
	wg         sync.WaitGroup
	closed     bool
}

// New creates a carousel positioned on the first image. Auto-advance does
// not run until Start is called.
func New(images []Image, opts ...Option) *Carousel {
	c := &Carousel{
		images:   compact(images),
		previous: -1,
		interval: DefaultInterval,
		delay:    DefaultTransitionDelay,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Start enables auto-advance for as long as ctx is alive and the carousel
// has more than one image. Calling Start again is a no-op.
func (c *Carousel) Start(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.parent != nil {
		return
	}
	c.parent = ctx
	c.syncTickerLocked()
}

// Close stops the ticker and any pending transition timer and waits for
// the ticker goroutine to exit. Afterwards the carousel is frozen: Snapshot
// keeps answering with the last state and navigation calls do nothing.
func (c *Carousel) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.stopTickerLocked()
	if c.transition != nil {
		c.transition.Stop()
		c.transition = nil
	}
	c.mu.Unlock()
	c.wg.Wait()
}

// Snapshot returns the current state.
func (c *Carousel) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Next moves forward one slide, wrapping at the end.
func (c *Carousel) Next() {
	c.step(1)
}

// Prev moves back one slide, wrapping at the start.
func (c *Carousel) Prev() {
	c.step(-1)
}

func (c *Carousel) step(delta int) {
	c.mu.Lock()
	n := len(c.images)
	if c.closed || n <= 1 {
		c.mu.Unlock()
		return
	}
	phase := Forward
	if delta < 0 {
		phase = Backward
	}
	c.moveLocked((c.index+delta+n)%n, phase)
	s := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(s)
}

// Select jumps to index i, animating in the direction with fewer steps
// (forward on a tie). Selecting the current slide or an index out of
// range does nothing, as does any call after Close.
func (c *Carousel) Select(i int) {
	c.mu.Lock()
	n := len(c.images)
	if c.closed || i == c.index || i < 0 || i >= n {
		c.mu.Unlock()
		return
	}
	forward := (i - c.index + n) % n
	backward := (c.index - i + n) % n
	phase := Forward
	if forward > backward {
		phase = Backward
	}
	c.moveLocked(i, phase)
	s := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(s)
}

// SetImages replaces the slide list. Empty entries are dropped, the active
// index is clamped into the new range and auto-advance follows the new
// length. It is ignored once the carousel is closed.
func (c *Carousel) SetImages(images []Image) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.images = compact(images)
	n := len(c.images)
	switch {
	case n == 0:
		c.index = 0
	case c.index > n-1:
		c.index = n - 1
	}
	if c.previous >= n || c.previous == c.index {
		c.clearTransitionLocked()
	}
	if c.parent != nil {
		c.stopTickerLocked()
		c.syncTickerLocked()
	}
	s := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(s)
}

// moveLocked records the outgoing slide and (re)arms the transition timer.
// A newer move replaces the pending previous slide.
func (c *Carousel) moveLocked(to int, phase Phase) {
	c.previous = c.index
	c.index = to
	c.phase = phase
	if c.transition != nil {
		c.transition.Stop()
	}
	var t *time.Timer
	t = time.AfterFunc(c.delay, func() {
		c.mu.Lock()
		if c.transition != t {
			c.mu.Unlock()
			return
		}
		c.transition = nil
		c.previous = -1
		c.phase = Steady
		s := c.snapshotLocked()
		c.mu.Unlock()
		c.notify(s)
	})
	c.transition = t
}

func (c *Carousel) clearTransitionLocked() {
	if c.transition != nil {
		c.transition.Stop()
		c.transition = nil
	}
	c.previous = -1
	c.phase = Steady
}

func (c *Carousel) syncTickerLocked() {
	if len(c.images) <= 1 || c.stopTicker != nil {
		return
	}
	ctx, cancel := context.WithCancel(c.parent)
	c.stopTicker = cancel
	interval := c.interval
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.Next()
			}
		}
	}()
}

func (c *Carousel) stopTickerLocked() {
	if c.stopTicker != nil {
		c.stopTicker()
		c.stopTicker = nil
	}
}

func (c *Carousel) snapshotLocked() State {
	imgs := make([]Image, len(c.images))
	copy(imgs, c.images)
	return State{Images: imgs, Index: c.index, Previous: c.previous, Phase: c.phase}
}

func (c *Carousel) notify(s State) {
	if c.onChange != nil {
		c.onChange(s)
	}
}

func compact(images []Image) []Image {
	out := make([]Image, 0, len(images))
	for _, img := range images {
		if img.Src != "" {
			out = append(out, img)
		}
	}
	return out
}
