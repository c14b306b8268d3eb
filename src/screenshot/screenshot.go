package screenshot

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/kbinani/screenshot"

	"element-digitizer/src/capture"
)

func Init() {
	// Initialize screenshot package if needed
}

// PrimaryDisplayBounds returns the bounds of the primary display. The
// overlay is sized to exactly this rectangle so that window-local pointer
// coordinates equal screen-absolute coordinates.
func PrimaryDisplayBounds() (image.Rectangle, error) {
	if screenshot.NumActiveDisplays() == 0 {
		return image.Rectangle{}, fmt.Errorf("no active displays found")
	}
	return screenshot.GetDisplayBounds(0), nil
}

// CapturePrimary captures the entire primary display, used as the overlay
// backdrop snapshot.
func CapturePrimary() (*image.RGBA, error) {
	bounds, err := PrimaryDisplayBounds()
	if err != nil {
		return nil, err
	}
	img, err := screenshot.CaptureRect(bounds)
	if err != nil {
		return nil, fmt.Errorf("failed to capture primary display: %v", err)
	}
	return img, nil
}

// Grab captures the pixels of an absolute screen box as a raw frame.
// The kbinani screenshot library swaps the platform's native BGRA into
// Go-native RGBA internally, so frames from here carry OrderRGBA; raw GDI
// paths must tag OrderBGRA instead.
func Grab(box capture.Box) (capture.Frame, error) {
	if err := box.Validate(); err != nil {
		return capture.Frame{}, fmt.Errorf("invalid capture box: %w", err)
	}
	img, err := screenshot.CaptureRect(image.Rect(box.X1, box.Y1, box.X2, box.Y2))
	if err != nil {
		return capture.Frame{}, fmt.Errorf("failed to capture region: %v", err)
	}
	return capture.FrameFromRGBA(img), nil
}

// Grabber returns the platform grabber backed by this package.
func Grabber() capture.Grabber {
	return capture.GrabberFunc(Grab)
}

// EncodePNG encodes an image as PNG bytes.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image as PNG: %v", err)
	}
	return buf.Bytes(), nil
}
