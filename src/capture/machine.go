package capture

import (
	"fmt"
	"log"
)

// DefaultMinSelectionPx is the minimum selection span per dimension.
// Selections smaller than this are treated as accidental and dropped.
const DefaultMinSelectionPx = 10

// State is the gesture state of one overlay instance.
type State int

const (
	StateIdle State = iota
	StateDragging
	StateCompleting
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDragging:
		return "dragging"
	case StateCompleting:
		return "completing"
	case StateCancelled:
		return "cancelled"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Event is a toolkit-independent input event. The platform overlay
// translates its native messages into these before calling Handle.
type Event interface{ isEvent() }

// PointerDown is a primary-button press at a position.
type PointerDown struct{ Pos Point }

// PointerMove is pointer motion while the button may be held.
type PointerMove struct{ Pos Point }

// PointerUp is the primary-button release ending a drag.
type PointerUp struct{ Pos Point }

// KeyCancel is the explicit cancel key (escape).
type KeyCancel struct{}

func (PointerDown) isEvent() {}
func (PointerMove) isEvent() {}
func (PointerUp) isEvent()   {}
func (KeyCancel) isEvent()   {}

// Grabber performs the platform pixel grab for an absolute screen box.
// The call is synchronous and may block; it runs on the overlay thread at
// gesture end.
type Grabber interface {
	Grab(box Box) (Frame, error)
}

// GrabberFunc adapts a function to the Grabber interface.
type GrabberFunc func(box Box) (Frame, error)

func (f GrabberFunc) Grab(box Box) (Frame, error) { return f(box) }

// Options tunes presentation-policy constants of the machine.
type Options struct {
	// MinSelectionPx is the minimum width and height of a kept selection,
	// in device pixels. Zero means DefaultMinSelectionPx.
	MinSelectionPx int
}

// Output is what one Handle call produced: the state after the event, a
// Result when (and only when) the gesture completed successfully, and
// whether the overlay should repaint.
type Output struct {
	State  State
	Result *Result
	Redraw bool
}

// Machine is the single-use selection state machine of one overlay
// instance: Idle -> Dragging -> (Completing | Cancelled). It owns no
// toolkit state; the overlay feeds it events and acts on its outputs.
// Once a terminal state is reached the machine ignores further events;
// a new gesture requires a new machine.
type Machine struct {
	state   State
	sel     SelectionRect
	minSpan int
	grabber Grabber
	emitted bool
}

// NewMachine creates a machine around the given pixel grabber.
func NewMachine(grabber Grabber, opts Options) *Machine {
	minSpan := opts.MinSelectionPx
	if minSpan <= 0 {
		minSpan = DefaultMinSelectionPx
	}
	return &Machine{state: StateIdle, minSpan: minSpan, grabber: grabber}
}

// State returns the current gesture state.
func (m *Machine) State() State { return m.state }

// Done reports whether the machine reached a terminal state.
func (m *Machine) Done() bool {
	return m.state == StateCompleting || m.state == StateCancelled
}

// Selection returns the active rubber-band rectangle. ok is false outside
// of a drag.
func (m *Machine) Selection() (SelectionRect, bool) {
	return m.sel, m.state == StateDragging
}

// Handle advances the machine by one event.
func (m *Machine) Handle(ev Event) Output {
	if m.Done() {
		return Output{State: m.state}
	}

	switch e := ev.(type) {
	case KeyCancel:
		log.Printf("Selection cancelled by escape in state %s", m.state)
		m.state = StateCancelled
		return Output{State: m.state}

	case PointerDown:
		if m.state != StateIdle {
			return Output{State: m.state}
		}
		m.sel = SelectionRect{Start: e.Pos, End: e.Pos}
		m.state = StateDragging
		return Output{State: m.state, Redraw: true}

	case PointerMove:
		if m.state != StateDragging {
			return Output{State: m.state}
		}
		m.sel.End = e.Pos
		return Output{State: m.state, Redraw: true}

	case PointerUp:
		if m.state != StateDragging {
			return Output{State: m.state}
		}
		m.sel.End = e.Pos
		return m.complete()
	}

	return Output{State: m.state}
}

// complete runs the normalize/grab/convert pipeline at gesture end. Every
// failure path ends in StateCancelled with no emission; a Result is emitted
// at most once per machine.
func (m *Machine) complete() Output {
	x1, y1, x2, y2 := m.sel.Normalize()
	width := x2 - x1
	height := y2 - y1

	if width < m.minSpan || height < m.minSpan {
		log.Printf("WARNING: selection %dx%d below %dpx minimum, dropping gesture", width, height, m.minSpan)
		m.state = StateCancelled
		return Output{State: m.state}
	}

	// Overlay-local coordinates are screen-absolute (single primary
	// display at its reported origin), so the box needs no translation.
	box := Box{X1: x1, Y1: y1, X2: x2, Y2: y2}
	if err := box.Validate(); err != nil {
		log.Printf("ERROR: normalized selection produced invalid box: %v", err)
		m.state = StateCancelled
		return Output{State: m.state}
	}

	res, err := m.grab(box)
	if err != nil {
		log.Printf("ERROR: screen capture failed for %s: %v", box, err)
		m.state = StateCancelled
		return Output{State: m.state}
	}

	m.state = StateCompleting
	m.emitted = true
	log.Printf("Capture complete: box=%s bitmap=%dx%d", box, res.Bitmap.Width, res.Bitmap.Height)
	return Output{State: m.state, Result: res}
}

func (m *Machine) grab(box Box) (res *Result, err error) {
	// A panicking platform grab must abort the gesture, not the process.
	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = fmt.Errorf("panic during grab: %v", r)
		}
	}()

	if m.grabber == nil {
		return nil, fmt.Errorf("no grabber configured")
	}

	frame, err := m.grabber.Grab(box)
	if err != nil {
		return nil, err
	}
	if frame.Width != box.Width() || frame.Height != box.Height() {
		return nil, fmt.Errorf("grab returned %dx%d for %dx%d box",
			frame.Width, frame.Height, box.Width(), box.Height())
	}

	bm, err := frame.ToBitmap()
	if err != nil {
		return nil, fmt.Errorf("frame conversion: %w", err)
	}
	return &Result{Box: box, Bitmap: bm}, nil
}
