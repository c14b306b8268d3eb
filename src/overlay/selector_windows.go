//go:build windows

package overlay

import (
	"context"
	"fmt"
	"image"
	"log"
	"os"
	"runtime"
	"sync/atomic"
	"syscall"
	"time"
	"unsafe"

	"github.com/lxn/win"

	"element-digitizer/src/capture"
	"element-digitizer/src/screenshot"
)

// Package state for the overlay window. Only one overlay exists at a time;
// the wndproc callback cannot carry instance state, so the active gesture
// lives here, guarded by the single-Select-at-a-time contract.
var (
	ovHwnd         win.HWND
	ovMachine      *capture.Machine
	ovOutcome      chan *capture.Result
	ovDone         bool
	ovEscapeDown   bool
	ovCrossCursor  win.HCURSOR
	ovOpts         Options
	ovOrigin       image.Point
	ovWidth        int32
	ovHeight       int32
	ovBackdropBGRA []byte // dimmed snapshot, ready for the DIB blit
	ovOriginalBGRA []byte // undimmed snapshot for the selection interior
)

const (
	overlayKeyPollTimerID    = 1
	overlayKeyPollIntervalMs = 25
	wmAppTeardown            = win.WM_APP + 1
)

var (
	user32DLL                    = syscall.NewLazyDLL("user32.dll")
	procAllowSetForegroundWindow = user32DLL.NewProc("AllowSetForegroundWindow")
	procGetAsyncKeyState         = user32DLL.NewProc("GetAsyncKeyState")
)

type windowsSelector struct {
	opts   Options
	active atomic.Uintptr
}

func newPlatformSelector(opts Options) Selector {
	return &windowsSelector{opts: opts}
}

// Teardown dismisses an in-flight overlay. Safe from any goroutine:
// PostMessage hands the cancel to the overlay's own message loop.
func (s *windowsSelector) Teardown() {
	if h := s.active.Load(); h != 0 {
		log.Printf("OVERLAY: teardown requested for active overlay")
		win.PostMessage(win.HWND(h), wmAppTeardown, 0, 0)
	}
}

func (s *windowsSelector) Select(ctx context.Context) (*capture.Result, bool, error) {
	// The window and its message pump must share one OS thread.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	bounds, err := screenshot.PrimaryDisplayBounds()
	if err != nil {
		return nil, false, fmt.Errorf("failed to query primary display: %w", err)
	}
	log.Printf("Primary display: %v", bounds)

	snapshot, err := screenshot.CapturePrimary()
	if err != nil {
		return nil, false, fmt.Errorf("failed to snapshot primary display: %w", err)
	}

	ovOpts = s.opts
	ovOrigin = bounds.Min
	ovWidth = int32(bounds.Dx())
	ovHeight = int32(bounds.Dy())
	ovMachine = capture.NewMachine(
		snapshotGrabber{img: snapshot, origin: bounds.Min},
		capture.Options{MinSelectionPx: s.opts.MinSelectionPx},
	)
	ovOutcome = make(chan *capture.Result, 1)
	ovDone = false
	ovEscapeDown = false
	prepareBackdrop(snapshot)

	ovCrossCursor = win.LoadCursor(0, win.MAKEINTRESOURCE(win.IDC_CROSS))
	if ovCrossCursor == 0 {
		log.Printf("OVERLAY: Failed to load cross cursor")
	}

	// Unique class name per overlay instance to avoid re-registration
	// conflicts between gestures.
	classNameStr := fmt.Sprintf("ElementDigitizerOverlay_%d", time.Now().UnixNano())
	className := syscall.StringToUTF16Ptr(classNameStr)
	wndClass := win.WNDCLASSEX{
		CbSize:        uint32(unsafe.Sizeof(win.WNDCLASSEX{})),
		Style:         win.CS_HREDRAW | win.CS_VREDRAW,
		LpfnWndProc:   syscall.NewCallback(overlayWndProc),
		HInstance:     win.GetModuleHandle(nil),
		HCursor:       ovCrossCursor,
		HbrBackground: 0, // painted entirely by WM_PAINT
		LpszClassName: className,
	}
	if atom := win.RegisterClassEx(&wndClass); atom == 0 {
		return nil, false, fmt.Errorf("failed to register overlay window class")
	}
	defer win.UnregisterClass(className)

	ovHwnd = win.CreateWindowEx(
		win.WS_EX_TOPMOST,
		className,
		syscall.StringToUTF16Ptr("Capture Element - drag to select, ESC cancels"),
		win.WS_POPUP|win.WS_VISIBLE,
		int32(bounds.Min.X), int32(bounds.Min.Y), ovWidth, ovHeight,
		0, 0, win.GetModuleHandle(nil), nil,
	)
	if ovHwnd == 0 {
		return nil, false, fmt.Errorf("failed to create overlay window")
	}
	s.active.Store(uintptr(ovHwnd))
	defer func() {
		s.active.Store(0)
		win.DestroyWindow(ovHwnd)
		ovHwnd = 0
		releaseBackdrop()
	}()

	win.ShowWindow(ovHwnd, win.SW_SHOW)
	procAllowSetForegroundWindow.Call(uintptr(os.Getpid()))
	win.SetForegroundWindow(ovHwnd)
	win.BringWindowToTop(ovHwnd)
	win.SetFocus(ovHwnd)
	win.UpdateWindow(ovHwnd)

	// Poll escape as a fallback for lost keyboard focus.
	if timerID := win.SetTimer(ovHwnd, overlayKeyPollTimerID, overlayKeyPollIntervalMs, 0); timerID == 0 {
		log.Printf("OVERLAY: Failed to start keyboard poll timer")
	}

	var msg win.MSG
	for {
		ret := win.GetMessage(&msg, 0, 0, 0)
		if ret == 0 || ret == -1 {
			log.Printf("OVERLAY: message loop ended (ret=%d)", ret)
			return nil, true, nil
		}

		win.TranslateMessage(&msg)
		win.DispatchMessage(&msg)

		// The wndproc posts the outcome when the machine reaches a
		// terminal state; no WM_QUIT is involved, so no stale quit
		// message can leak into the next gesture's loop.
		select {
		case res := <-ovOutcome:
			if err := ctx.Err(); err != nil {
				return nil, false, err
			}
			if res == nil {
				return nil, true, nil
			}
			log.Printf("Selection completed: %s", res.Box)
			return res, false, nil
		default:
		}
	}
}

func overlayWndProc(hwnd win.HWND, msg uint32, wParam, lParam uintptr) uintptr {
	switch msg {
	case win.WM_LBUTTONDOWN:
		win.SetCapture(hwnd)
		applyOutput(hwnd, ovMachine.Handle(capture.PointerDown{Pos: pointFromLParam(lParam)}))
		return 0

	case win.WM_MOUSEMOVE:
		applyOutput(hwnd, ovMachine.Handle(capture.PointerMove{Pos: pointFromLParam(lParam)}))
		return 0

	case win.WM_LBUTTONUP:
		win.ReleaseCapture()
		// The pixel grab runs synchronously here, on the overlay thread,
		// against the snapshot taken when the overlay opened.
		applyOutput(hwnd, ovMachine.Handle(capture.PointerUp{Pos: pointFromLParam(lParam)}))
		return 0

	case win.WM_KEYDOWN:
		if wParam == win.VK_ESCAPE {
			ovEscapeDown = true
			applyOutput(hwnd, ovMachine.Handle(capture.KeyCancel{}))
		}
		return 0

	case win.WM_KEYUP, win.WM_SYSKEYUP:
		if wParam == win.VK_ESCAPE {
			ovEscapeDown = false
		}
		return 0

	case win.WM_TIMER:
		if wParam == overlayKeyPollTimerID {
			pollEscapeKey(hwnd)
		}
		return 0

	case wmAppTeardown:
		log.Printf("OVERLAY: teardown message received")
		applyOutput(hwnd, ovMachine.Handle(capture.KeyCancel{}))
		return 0

	case win.WM_PAINT:
		var ps win.PAINTSTRUCT
		hdc := win.BeginPaint(hwnd, &ps)
		paintOverlay(hdc)
		win.EndPaint(hwnd, &ps)
		return 0

	case win.WM_SETCURSOR:
		if ovCrossCursor != 0 {
			win.SetCursor(ovCrossCursor)
		}
		return 1

	case win.WM_NCHITTEST:
		// Force all points to be client area so the window receives mouse events
		return uintptr(win.HTCLIENT)

	case win.WM_DESTROY:
		win.KillTimer(hwnd, overlayKeyPollTimerID)
		return 0
	}

	return win.DefWindowProc(hwnd, msg, wParam, lParam)
}

// applyOutput translates machine outputs back into toolkit actions.
func applyOutput(hwnd win.HWND, out capture.Output) {
	if out.Redraw {
		win.InvalidateRect(hwnd, nil, false)
		win.UpdateWindow(hwnd)
	}
	if ovMachine.Done() && !ovDone {
		ovDone = true
		ovOutcome <- out.Result
	}
}

func pointFromLParam(lParam uintptr) capture.Point {
	x := int(int16(win.LOWORD(uint32(lParam))))
	y := int(int16(win.HIWORD(uint32(lParam))))
	// Window-local equals screen-absolute only when the overlay sits at
	// the display origin; fold the origin in for displays placed elsewhere.
	return capture.Point{X: x + ovOrigin.X, Y: y + ovOrigin.Y}
}

func pollEscapeKey(hwnd win.HWND) {
	state, _, _ := procGetAsyncKeyState.Call(uintptr(win.VK_ESCAPE))
	s := uint16(state)
	isDown := s&0x8000 != 0
	pressed := s&0x0001 != 0
	if !ovEscapeDown && (isDown || pressed) {
		log.Printf("Escape detected via async polling")
		applyOutput(hwnd, ovMachine.Handle(capture.KeyCancel{}))
	}
	ovEscapeDown = isDown
}

// prepareBackdrop converts the snapshot to two BGRA buffers: the dimmed
// backdrop and the untouched original used for the selection interior.
func prepareBackdrop(snapshot *image.RGBA) {
	w, h := int(ovWidth), int(ovHeight)
	dim := ovOpts.DimAlpha
	ovBackdropBGRA = make([]byte, w*h*4)
	ovOriginalBGRA = make([]byte, w*h*4)
	for y := 0; y < h; y++ {
		src := snapshot.Pix[y*snapshot.Stride:]
		dstDim := ovBackdropBGRA[y*w*4:]
		dstOrig := ovOriginalBGRA[y*w*4:]
		for x := 0; x < w; x++ {
			s := x * 4
			r, g, b := src[s], src[s+1], src[s+2]
			dstOrig[s] = b
			dstOrig[s+1] = g
			dstOrig[s+2] = r
			dstOrig[s+3] = 0xff
			// blend towards mid-grey by the configured dim alpha
			dstDim[s] = blendByte(b, 128, dim)
			dstDim[s+1] = blendByte(g, 128, dim)
			dstDim[s+2] = blendByte(r, 128, dim)
			dstDim[s+3] = 0xff
		}
	}
}

func releaseBackdrop() {
	ovBackdropBGRA = nil
	ovOriginalBGRA = nil
}

func blendByte(base, over byte, alpha int) byte {
	return byte((int(base)*(255-alpha) + int(over)*alpha) / 255)
}

// paintOverlay composes the frame in a DIB section and blits it: dimmed
// backdrop everywhere, the original pixels lightly tinted red inside the
// active selection, then a red outline on top.
func paintOverlay(hdc win.HDC) {
	if ovBackdropBGRA == nil {
		return
	}
	w, h := int(ovWidth), int(ovHeight)

	memDC := win.CreateCompatibleDC(hdc)
	defer win.DeleteDC(memDC)

	bitmapInfo := win.BITMAPINFO{
		BmiHeader: win.BITMAPINFOHEADER{
			BiSize:        uint32(unsafe.Sizeof(win.BITMAPINFOHEADER{})),
			BiWidth:       ovWidth,
			BiHeight:      -ovHeight, // top-down
			BiPlanes:      1,
			BiBitCount:    32,
			BiCompression: win.BI_RGB,
		},
	}
	var pBits unsafe.Pointer
	hBitmap := win.CreateDIBSection(memDC, &bitmapInfo.BmiHeader, win.DIB_RGB_COLORS, &pBits, 0, 0)
	if hBitmap == 0 {
		return
	}
	defer win.DeleteObject(win.HGDIOBJ(hBitmap))
	oldBitmap := win.SelectObject(memDC, win.HGDIOBJ(hBitmap))
	defer win.SelectObject(memDC, oldBitmap)

	dst := unsafe.Slice((*byte)(pBits), w*h*4)
	copy(dst, ovBackdropBGRA)

	sel, active := ovMachine.Selection()
	if active {
		x1, y1, x2, y2 := sel.Normalize()
		lx1, ly1 := clampInt(x1-ovOrigin.X, 0, w), clampInt(y1-ovOrigin.Y, 0, h)
		lx2, ly2 := clampInt(x2-ovOrigin.X, 0, w), clampInt(y2-ovOrigin.Y, 0, h)
		tint := ovOpts.FillAlpha
		for y := ly1; y < ly2; y++ {
			row := y * w * 4
			for x := lx1; x < lx2; x++ {
				s := row + x*4
				// original pixels with a light red tint (BGRA order)
				dst[s] = blendByte(ovOriginalBGRA[s], 0, tint)
				dst[s+1] = blendByte(ovOriginalBGRA[s+1], 0, tint)
				dst[s+2] = blendByte(ovOriginalBGRA[s+2], 255, tint)
				dst[s+3] = 0xff
			}
		}
	}

	win.BitBlt(hdc, 0, 0, ovWidth, ovHeight, memDC, 0, 0, win.SRCCOPY)

	if active {
		x1, y1, x2, y2 := sel.Normalize()
		drawSelectionOutline(hdc,
			int32(x1-ovOrigin.X), int32(y1-ovOrigin.Y),
			int32(x2-ovOrigin.X), int32(y2-ovOrigin.Y))
	}
	drawSelectionHints(hdc)
}

func drawSelectionOutline(hdc win.HDC, left, top, right, bottom int32) {
	gdi32 := syscall.NewLazyDLL("gdi32.dll")
	createPen := gdi32.NewProc("CreatePen")
	rectangle := gdi32.NewProc("Rectangle")

	redPen, _, _ := createPen.Call(0, 2, 0x0000FF)
	oldPen := win.SelectObject(hdc, win.HGDIOBJ(redPen))
	oldBrush := win.SelectObject(hdc, win.GetStockObject(win.NULL_BRUSH))

	rectangle.Call(uintptr(hdc), uintptr(left), uintptr(top), uintptr(right), uintptr(bottom))

	win.SelectObject(hdc, oldPen)
	win.SelectObject(hdc, oldBrush)
	win.DeleteObject(win.HGDIOBJ(redPen))
}

func drawSelectionHints(hdc win.HDC) {
	line := "Drag to select a UI element   ESC cancels"
	win.SetBkMode(hdc, win.TRANSPARENT)
	win.SetTextColor(hdc, win.COLORREF(0x00FFFF))
	win.TextOut(hdc, 16, 16, syscall.StringToUTF16Ptr(line), int32(len(line)))
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
