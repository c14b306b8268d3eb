package capture

import (
	"encoding/json"
	"fmt"
)

// Point is a pointer position in overlay-local coordinates. The overlay
// covers the primary display at its reported origin, so local coordinates
// are also absolute screen coordinates.
type Point struct {
	X int
	Y int
}

// SelectionRect is the transient rubber-band rectangle of an active drag
// gesture, stored as the two raw corner points in the order the user
// produced them. It exists only between pointer-down and pointer-up.
type SelectionRect struct {
	Start Point
	End   Point
}

// Normalize returns the rectangle as (xMin, yMin, xMax, yMax) regardless of
// which corner the drag started from. The result may be degenerate
// (zero width and/or height) at drag start.
func (r SelectionRect) Normalize() (x1, y1, x2, y2 int) {
	x1, x2 = minMax(r.Start.X, r.End.X)
	y1, y2 = minMax(r.Start.Y, r.End.Y)
	return x1, y1, x2, y2
}

// Width returns the normalized selection width.
func (r SelectionRect) Width() int {
	x1, _, x2, _ := r.Normalize()
	return x2 - x1
}

// Height returns the normalized selection height.
func (r SelectionRect) Height() int {
	_, y1, _, y2 := r.Normalize()
	return y2 - y1
}

// Box is an absolute screen-space bounding box. Every box produced by a
// completed gesture satisfies X1 < X2 and Y1 < Y2. It serializes as the
// four-integer array [x1, y1, x2, y2].
type Box struct {
	X1 int
	Y1 int
	X2 int
	Y2 int
}

func (b Box) Width() int  { return b.X2 - b.X1 }
func (b Box) Height() int { return b.Y2 - b.Y1 }

// Validate checks the emitted-box invariant.
func (b Box) Validate() error {
	if b.X1 < 0 || b.Y1 < 0 {
		return fmt.Errorf("box origin must be non-negative, got (%d,%d)", b.X1, b.Y1)
	}
	if b.X1 >= b.X2 || b.Y1 >= b.Y2 {
		return fmt.Errorf("box must satisfy x1<x2 and y1<y2, got [%d,%d,%d,%d]", b.X1, b.Y1, b.X2, b.Y2)
	}
	return nil
}

func (b Box) String() string {
	return fmt.Sprintf("[%d,%d,%d,%d]", b.X1, b.Y1, b.X2, b.Y2)
}

// MarshalJSON writes the box as a bare 4-integer array.
func (b Box) MarshalJSON() ([]byte, error) {
	return json.Marshal([4]int{b.X1, b.Y1, b.X2, b.Y2})
}

// UnmarshalJSON accepts the 4-integer array form.
func (b *Box) UnmarshalJSON(data []byte) error {
	var arr []int
	if err := json.Unmarshal(data, &arr); err != nil {
		return err
	}
	if len(arr) != 4 {
		return fmt.Errorf("bounding box must be an array of 4 integers, got %d", len(arr))
	}
	b.X1, b.Y1, b.X2, b.Y2 = arr[0], arr[1], arr[2], arr[3]
	return nil
}

func minMax(a, b int) (int, int) {
	if a < b {
		return a, b
	}
	return b, a
}
