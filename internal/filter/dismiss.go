package filter

import "sync"

// Rect is a panel's bounds in whatever coordinate space the UI uses
// (cells in the terminal browser).
type Rect struct {
	X, Y, W, H int
}

// Contains reports whether (x, y) lies inside r.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}

// Panel is an open dismissable surface.
type Panel interface {
	Bounds() Rect
	Close()
}

// Dismisser closes open panels when a pointer event lands outside them.
// Panels register with Subscribe while open; the returned func removes
// the registration and must be called when the panel is torn down.
type Dismisser struct {
	mu     sync.Mutex
	nextID int
	panels map[int]Panel
}

// NewDismisser returns an empty registry.
func NewDismisser() *Dismisser {
	return &Dismisser{panels: make(map[int]Panel)}
}

// Subscribe registers p. Calling the returned func more than once is safe.
func (d *Dismisser) Subscribe(p Panel) (unsubscribe func()) {
	d.mu.Lock()
	id := d.nextID
	d.nextID++
	d.panels[id] = p
	d.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			d.mu.Lock()
			delete(d.panels, id)
			d.mu.Unlock()
		})
	}
}

// Len returns the number of live subscriptions.
func (d *Dismisser) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.panels)
}

// Dispatch handles a pointer press at (x, y). Every subscribed panel whose
// bounds do not contain the point is closed and unsubscribed. It returns
// the number of panels closed.
func (d *Dismisser) Dispatch(x, y int) int {
	d.mu.Lock()
	var outside []Panel
	for id, p := range d.panels {
		if !p.Bounds().Contains(x, y) {
			outside = append(outside, p)
			delete(d.panels, id)
		}
	}
	d.mu.Unlock()

	// Close outside the lock so a panel may resubscribe from Close.
	for _, p := range outside {
		p.Close()
	}
	return len(outside)
}
