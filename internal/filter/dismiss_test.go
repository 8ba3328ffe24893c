package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakePanel struct {
	bounds Rect
	closed int
}

func (p *fakePanel) Bounds() Rect { return p.bounds }
func (p *fakePanel) Close()       { p.closed++ }

func TestDismisser_OutsideCloses(t *testing.T) {
	d := NewDismisser()
	p := &fakePanel{bounds: Rect{X: 0, Y: 0, W: 10, H: 5}}
	unsub := d.Subscribe(p)
	defer unsub()

	assert.Equal(t, 0, d.Dispatch(3, 2))
	assert.Equal(t, 0, p.closed)

	assert.Equal(t, 1, d.Dispatch(20, 2))
	assert.Equal(t, 1, p.closed)
	assert.Equal(t, 0, d.Len(), "closed panel must be unsubscribed")

	d.Dispatch(30, 30)
	assert.Equal(t, 1, p.closed)
}

func TestDismisser_IndependentPanels(t *testing.T) {
	d := NewDismisser()
	left := &fakePanel{bounds: Rect{X: 0, Y: 0, W: 10, H: 10}}
	right := &fakePanel{bounds: Rect{X: 20, Y: 0, W: 10, H: 10}}
	d.Subscribe(left)
	d.Subscribe(right)

	d.Dispatch(5, 5)
	assert.Equal(t, 0, left.closed)
	assert.Equal(t, 1, right.closed)
	assert.Equal(t, 1, d.Len())
}

func TestDismisser_UnsubscribeIsIdempotent(t *testing.T) {
	d := NewDismisser()
	p := &fakePanel{bounds: Rect{W: 1, H: 1}}
	unsub := d.Subscribe(p)
	unsub()
	unsub()
	assert.Equal(t, 0, d.Len())

	d.Dispatch(50, 50)
	assert.Equal(t, 0, p.closed, "torn-down panel must not receive events")
}

func TestRectContainsEdges(t *testing.T) {
	r := Rect{X: 2, Y: 2, W: 3, H: 3}
	assert.True(t, r.Contains(2, 2))
	assert.True(t, r.Contains(4, 4))
	assert.False(t, r.Contains(5, 4))
	assert.False(t, r.Contains(1, 3))
}
