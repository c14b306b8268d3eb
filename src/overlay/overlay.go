package overlay

import (
	"context"
	"fmt"
	"image"

	"element-digitizer/src/capture"
)

// Selector is the synchronous region-capture API owned by the event loop.
// Select blocks until the gesture ends and MUST be invoked only from the
// single event-loop goroutine. It returns (result, cancelled, error): on
// cancellation (escape, too-small selection, failed grab, forced teardown)
// result is nil and err is nil. Teardown may be called from any goroutine
// to dismiss an in-flight overlay; at most one overlay exists at a time.
type Selector interface {
	Select(ctx context.Context) (*capture.Result, bool, error)
	Teardown()
}

// Options carries the presentation constants of the overlay. Zero values
// fall back to the package defaults.
type Options struct {
	MinSelectionPx int
	DimAlpha       int // 0..255 backdrop dim, default 51 (20%)
	FillAlpha      int // 0..255 selection tint, default 25 (10%)
}

func (o Options) withDefaults() Options {
	if o.MinSelectionPx <= 0 {
		o.MinSelectionPx = capture.DefaultMinSelectionPx
	}
	if o.DimAlpha <= 0 {
		o.DimAlpha = 51
	}
	if o.FillAlpha <= 0 {
		o.FillAlpha = 25
	}
	return o
}

// NewSelector returns the platform implementation (Windows in this
// project). Implementation is provided in a platform-specific file.
func NewSelector(opts Options) Selector {
	return newPlatformSelector(opts.withDefaults())
}

// snapshotGrabber serves grabs out of the full-display snapshot taken when
// the overlay opened. Cropping the snapshot instead of re-grabbing the live
// screen keeps the overlay's own dim/tint pixels out of the result.
type snapshotGrabber struct {
	img    *image.RGBA
	origin image.Point // absolute screen position of img's (0,0)
}

func (g snapshotGrabber) Grab(box capture.Box) (capture.Frame, error) {
	if g.img == nil {
		return capture.Frame{}, fmt.Errorf("no snapshot available")
	}
	local := image.Rect(box.X1-g.origin.X, box.Y1-g.origin.Y, box.X2-g.origin.X, box.Y2-g.origin.Y)
	if !local.In(g.img.Bounds()) {
		return capture.Frame{}, fmt.Errorf("box %s outside snapshot bounds %v", box, g.img.Bounds())
	}
	sub := g.img.SubImage(local).(*image.RGBA)
	return capture.FrameFromRGBA(sub), nil
}
