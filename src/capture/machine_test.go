package capture

import (
	"fmt"
	"testing"
)

// fakeGrabber returns a synthetic BGRA frame matching the requested box.
type fakeGrabber struct {
	calls int
	fail  bool
	panik bool
}

func (g *fakeGrabber) Grab(box Box) (Frame, error) {
	g.calls++
	if g.panik {
		panic("grabber exploded")
	}
	if g.fail {
		return Frame{}, fmt.Errorf("simulated platform capture failure")
	}
	w, h := box.Width(), box.Height()
	pix := make([]byte, w*h*4)
	return Frame{Width: w, Height: h, Stride: w * 4, Order: OrderBGRA, Pix: pix}, nil
}

func drag(m *Machine, from, to Point) Output {
	m.Handle(PointerDown{Pos: from})
	m.Handle(PointerMove{Pos: Point{X: (from.X + to.X) / 2, Y: (from.Y + to.Y) / 2}})
	m.Handle(PointerMove{Pos: to})
	return m.Handle(PointerUp{Pos: to})
}

func TestDragDirectionsNormalizeToSameBox(t *testing.T) {
	want := Box{X1: 10, Y1: 20, X2: 110, Y2: 80}
	corners := []struct {
		name     string
		from, to Point
	}{
		{"top-left to bottom-right", Point{10, 20}, Point{110, 80}},
		{"bottom-right to top-left", Point{110, 80}, Point{10, 20}},
		{"top-right to bottom-left", Point{110, 20}, Point{10, 80}},
		{"bottom-left to top-right", Point{10, 80}, Point{110, 20}},
	}

	for _, tt := range corners {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMachine(&fakeGrabber{}, Options{})
			out := drag(m, tt.from, tt.to)
			if out.State != StateCompleting {
				t.Fatalf("expected completing state, got %s", out.State)
			}
			if out.Result == nil {
				t.Fatal("expected a capture result")
			}
			if out.Result.Box != want {
				t.Errorf("box = %s, want %s", out.Result.Box, want)
			}
			if out.Result.Box.X1 >= out.Result.Box.X2 || out.Result.Box.Y1 >= out.Result.Box.Y2 {
				t.Errorf("box invariant violated: %s", out.Result.Box)
			}
		})
	}
}

func TestMinimumSelectionBoundary(t *testing.T) {
	tests := []struct {
		name   string
		to     Point
		expect bool
	}{
		{"9px wide drops", Point{9, 50}, false},
		{"9px tall drops", Point{50, 9}, false},
		{"exactly 10px keeps", Point{10, 10}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMachine(&fakeGrabber{}, Options{})
			out := drag(m, Point{0, 0}, tt.to)
			got := out.Result != nil
			if got != tt.expect {
				t.Errorf("result emitted = %v, want %v", got, tt.expect)
			}
			if tt.expect && out.State != StateCompleting {
				t.Errorf("state = %s, want completing", out.State)
			}
			if !tt.expect && out.State != StateCancelled {
				t.Errorf("state = %s, want cancelled", out.State)
			}
		})
	}
}

func TestEscapeCancelsFromIdleAndDragging(t *testing.T) {
	m := NewMachine(&fakeGrabber{}, Options{})
	out := m.Handle(KeyCancel{})
	if out.State != StateCancelled || out.Result != nil {
		t.Fatalf("escape in idle: state=%s result=%v", out.State, out.Result)
	}

	m = NewMachine(&fakeGrabber{}, Options{})
	m.Handle(PointerDown{Pos: Point{0, 0}})
	m.Handle(PointerMove{Pos: Point{200, 200}})
	out = m.Handle(KeyCancel{})
	if out.State != StateCancelled || out.Result != nil {
		t.Fatalf("escape in dragging: state=%s result=%v", out.State, out.Result)
	}

	// Terminal: a later pointer-up must not resurrect the gesture.
	out = m.Handle(PointerUp{Pos: Point{200, 200}})
	if out.State != StateCancelled || out.Result != nil {
		t.Fatalf("cancelled machine accepted pointer-up: state=%s", out.State)
	}
}

func TestBitmapDimensionsMatchBox(t *testing.T) {
	m := NewMachine(&fakeGrabber{}, Options{})
	out := drag(m, Point{5, 7}, Point{105, 207})
	if out.Result == nil {
		t.Fatal("expected a capture result")
	}
	box := out.Result.Box
	bm := out.Result.Bitmap
	if bm.Width != box.X2-box.X1 || bm.Height != box.Y2-box.Y1 {
		t.Errorf("bitmap %dx%d does not match box %s", bm.Width, bm.Height, box)
	}
	if len(bm.Pix) != bm.Width*bm.Height*3 {
		t.Errorf("bitmap buffer length %d, want %d", len(bm.Pix), bm.Width*bm.Height*3)
	}
}

func TestGrabFailureAbortsWithoutEmission(t *testing.T) {
	g := &fakeGrabber{fail: true}
	m := NewMachine(g, Options{})
	out := drag(m, Point{0, 0}, Point{100, 100})
	if out.Result != nil {
		t.Fatal("failed grab must not emit a result")
	}
	if out.State != StateCancelled {
		t.Errorf("state = %s, want cancelled", out.State)
	}
	if g.calls != 1 {
		t.Errorf("grab retried %d times, failures are non-recoverable", g.calls)
	}
}

func TestGrabPanicIsContained(t *testing.T) {
	m := NewMachine(&fakeGrabber{panik: true}, Options{})
	out := drag(m, Point{0, 0}, Point{100, 100})
	if out.Result != nil || out.State != StateCancelled {
		t.Fatalf("panicking grab: state=%s result=%v", out.State, out.Result)
	}
}

func TestSingleEmissionPerMachine(t *testing.T) {
	m := NewMachine(&fakeGrabber{}, Options{})
	out := drag(m, Point{0, 0}, Point{50, 50})
	if out.Result == nil {
		t.Fatal("expected a capture result")
	}
	// Replaying the gesture on a terminal machine emits nothing.
	out = drag(m, Point{0, 0}, Point{60, 60})
	if out.Result != nil {
		t.Fatal("terminal machine emitted a second result")
	}
	if out.State != StateCompleting {
		t.Errorf("terminal state changed to %s", out.State)
	}
}

func TestPointerMoveInIdleRequestsNoRedraw(t *testing.T) {
	m := NewMachine(&fakeGrabber{}, Options{})
	out := m.Handle(PointerMove{Pos: Point{10, 10}})
	if out.Redraw {
		t.Error("idle hover must not request redraws")
	}
	if _, active := m.Selection(); active {
		t.Error("no selection should be active in idle")
	}
}

func TestConfigurableMinimumSpan(t *testing.T) {
	m := NewMachine(&fakeGrabber{}, Options{MinSelectionPx: 30})
	out := drag(m, Point{0, 0}, Point{29, 29})
	if out.Result != nil {
		t.Fatal("29px selection should drop under a 30px minimum")
	}
	m = NewMachine(&fakeGrabber{}, Options{MinSelectionPx: 30})
	out = drag(m, Point{0, 0}, Point{30, 30})
	if out.Result == nil {
		t.Fatal("30px selection should be kept under a 30px minimum")
	}
}
