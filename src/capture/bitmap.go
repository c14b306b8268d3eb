package capture

import (
	"fmt"
	"image"
)

// ChannelOrder identifies the byte order of a raw platform capture buffer.
// Win32 DIB sections hand back BGRA/BGRX; the kbinani screenshot library
// returns Go-native RGBA. Either way the buffer must be explicitly
// reinterpreted into the canonical RGB bitmap, never assumed to match.
type ChannelOrder int

const (
	OrderRGBA ChannelOrder = iota
	OrderBGRA
)

func (o ChannelOrder) String() string {
	if o == OrderBGRA {
		return "BGRA"
	}
	return "RGBA"
}

// Frame is a raw 4-byte-per-pixel capture buffer in the platform's native
// channel order, before conversion to the canonical bitmap format.
type Frame struct {
	Width  int
	Height int
	Stride int // bytes per row, >= Width*4
	Order  ChannelOrder
	Pix    []byte
}

// FrameFromRGBA wraps an *image.RGBA as a Frame without copying.
func FrameFromRGBA(img *image.RGBA) Frame {
	return Frame{
		Width:  img.Bounds().Dx(),
		Height: img.Bounds().Dy(),
		Stride: img.Stride,
		Order:  OrderRGBA,
		Pix:    img.Pix,
	}
}

// Bitmap is the canonical capture format: tightly packed 8-bit-per-channel
// RGB, len(Pix) == Width*Height*3. It encodes losslessly as PNG via ToRGBA.
type Bitmap struct {
	Width  int
	Height int
	Pix    []byte
}

// ToBitmap converts the raw frame into the canonical RGB bitmap, reordering
// channels and dropping alpha. This is the required BGRA->RGB step for
// win32-sourced frames.
func (f Frame) ToBitmap() (Bitmap, error) {
	if f.Width <= 0 || f.Height <= 0 {
		return Bitmap{}, fmt.Errorf("invalid frame dimensions %dx%d", f.Width, f.Height)
	}
	stride := f.Stride
	if stride == 0 {
		stride = f.Width * 4
	}
	if stride < f.Width*4 {
		return Bitmap{}, fmt.Errorf("frame stride %d too small for width %d", stride, f.Width)
	}
	if len(f.Pix) < (f.Height-1)*stride+f.Width*4 {
		return Bitmap{}, fmt.Errorf("frame buffer too short: have %d bytes for %dx%d stride %d",
			len(f.Pix), f.Width, f.Height, stride)
	}

	out := make([]byte, f.Width*f.Height*3)
	for y := 0; y < f.Height; y++ {
		row := f.Pix[y*stride:]
		dst := out[y*f.Width*3:]
		for x := 0; x < f.Width; x++ {
			s := x * 4
			d := x * 3
			switch f.Order {
			case OrderBGRA:
				dst[d] = row[s+2]
				dst[d+1] = row[s+1]
				dst[d+2] = row[s]
			default:
				dst[d] = row[s]
				dst[d+1] = row[s+1]
				dst[d+2] = row[s+2]
			}
		}
	}
	return Bitmap{Width: f.Width, Height: f.Height, Pix: out}, nil
}

// ToRGBA expands the bitmap back into an opaque *image.RGBA for PNG
// encoding and preview rendering.
func (b Bitmap) ToRGBA() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, b.Width, b.Height))
	for y := 0; y < b.Height; y++ {
		src := b.Pix[y*b.Width*3:]
		dst := img.Pix[y*img.Stride:]
		for x := 0; x < b.Width; x++ {
			s := x * 3
			d := x * 4
			dst[d] = src[s]
			dst[d+1] = src[s+1]
			dst[d+2] = src[s+2]
			dst[d+3] = 0xff
		}
	}
	return img
}

// Result is the immutable output of one successful capture gesture: the
// absolute bounding box and the pixels of exactly that box. It is created
// once, handed off by value, and never mutated afterwards.
type Result struct {
	Box    Box
	Bitmap Bitmap
}
