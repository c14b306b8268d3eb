package overlay

import (
	"image"
	"testing"

	"element-digitizer/src/capture"
)

func testSnapshot(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := img.PixOffset(x, y)
			img.Pix[i] = byte(x)
			img.Pix[i+1] = byte(y)
			img.Pix[i+2] = byte(x + y)
			img.Pix[i+3] = 0xff
		}
	}
	return img
}

func TestSnapshotGrabberCropsExactBox(t *testing.T) {
	g := snapshotGrabber{img: testSnapshot(64, 48)}
	box := capture.Box{X1: 10, Y1: 12, X2: 30, Y2: 40}

	frame, err := g.Grab(box)
	if err != nil {
		t.Fatalf("Grab failed: %v", err)
	}
	if frame.Width != 20 || frame.Height != 28 {
		t.Fatalf("frame %dx%d, want 20x28", frame.Width, frame.Height)
	}

	bm, err := frame.ToBitmap()
	if err != nil {
		t.Fatalf("ToBitmap failed: %v", err)
	}
	// top-left pixel of the crop is snapshot pixel (10,12)
	if bm.Pix[0] != 10 || bm.Pix[1] != 12 || bm.Pix[2] != 22 {
		t.Errorf("first pixel = %v, want [10 12 22]", bm.Pix[:3])
	}
}

func TestSnapshotGrabberHonorsOrigin(t *testing.T) {
	// Display whose origin is not (0,0): absolute boxes must be shifted
	// into snapshot-local coordinates.
	g := snapshotGrabber{img: testSnapshot(32, 32), origin: image.Pt(100, 200)}

	frame, err := g.Grab(capture.Box{X1: 105, Y1: 210, X2: 115, Y2: 220})
	if err != nil {
		t.Fatalf("Grab failed: %v", err)
	}
	bm, err := frame.ToBitmap()
	if err != nil {
		t.Fatalf("ToBitmap failed: %v", err)
	}
	if bm.Pix[0] != 5 || bm.Pix[1] != 10 {
		t.Errorf("first pixel = %v, want snapshot pixel (5,10)", bm.Pix[:2])
	}
}

func TestSnapshotGrabberRejectsOutOfBounds(t *testing.T) {
	g := snapshotGrabber{img: testSnapshot(16, 16)}
	if _, err := g.Grab(capture.Box{X1: 8, Y1: 8, X2: 32, Y2: 32}); err == nil {
		t.Error("expected error for box outside snapshot")
	}
	if _, err := (snapshotGrabber{}).Grab(capture.Box{X1: 0, Y1: 0, X2: 4, Y2: 4}); err == nil {
		t.Error("expected error for missing snapshot")
	}
}

func TestOptionsDefaults(t *testing.T) {
	o := Options{}.withDefaults()
	if o.MinSelectionPx != capture.DefaultMinSelectionPx {
		t.Errorf("MinSelectionPx default = %d", o.MinSelectionPx)
	}
	if o.DimAlpha != 51 || o.FillAlpha != 25 {
		t.Errorf("alpha defaults = %d/%d, want 51/25", o.DimAlpha, o.FillAlpha)
	}

	o = Options{MinSelectionPx: 5, DimAlpha: 80, FillAlpha: 40}.withDefaults()
	if o.MinSelectionPx != 5 || o.DimAlpha != 80 || o.FillAlpha != 40 {
		t.Error("explicit options must not be overridden")
	}
}
