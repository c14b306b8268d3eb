package eventloop

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"fyne.io/fyne/v2"

	"element-digitizer/src/annotation"
	"element-digitizer/src/capture"
	"element-digitizer/src/clipboard"
	"element-digitizer/src/config"
	"element-digitizer/src/gui"
	"element-digitizer/src/hotkey"
	"element-digitizer/src/notification"
	"element-digitizer/src/overlay"
	"element-digitizer/src/store"
	"element-digitizer/src/tray"
	"element-digitizer/src/worker"
)

// Loop is the single-threaded coordinator for capture requests. Hotkey and
// tray triggers feed it, the overlay and annotation window run from it, and
// save results post back into it.
type Loop struct {
	selector overlay.Selector
	pool     *worker.Pool

	// annotate and updateTooltip are indirected so tests can run headless.
	annotate      func(res *capture.Result, opts gui.AnnotationOptions)
	updateTooltip func(text string)

	softwareVersion string
	author          string
	defaultTooltip  string
	deadline        time.Duration

	busy      bool
	selecting atomic.Bool
	triggerCh chan struct{}
	results   chan result
}

type result struct {
	cancelled bool
	elementID string
	paths     store.SavedPaths
	err       error
	cancel    context.CancelFunc
	done      func(error)
}

// New creates an event loop wired to the real overlay, GUI and save pool.
// If cfg is nil, defaults are used.
func New(cfg *config.Config, app fyne.App, st *store.Store) *Loop {
	if cfg == nil {
		cfg = &config.Config{}
	}
	deadlineSec := cfg.SaveDeadlineSec
	if deadlineSec <= 0 {
		deadlineSec = config.DefaultSaveDeadlineSec
	}

	l := &Loop{
		selector: overlay.NewSelector(overlay.Options{
			MinSelectionPx: cfg.MinSelectionPx,
			DimAlpha:       cfg.DimAlpha,
			FillAlpha:      cfg.FillAlpha,
		}),
		pool:            worker.New(0, st),
		updateTooltip:   tray.UpdateTooltip,
		softwareVersion: cfg.SoftwareVersion,
		author:          cfg.Author,
		defaultTooltip:  "Element Digitizer",
		deadline:        time.Duration(deadlineSec) * time.Second,
		triggerCh:       make(chan struct{}, 4),
		results:         make(chan result, 1),
	}
	l.annotate = func(res *capture.Result, opts gui.AnnotationOptions) {
		gui.ShowAnnotationWindow(app, res, opts)
	}
	return l
}

// SetDefaultTooltip optionally sets the tray tooltip base text.
func (l *Loop) SetDefaultTooltip(tt string) { l.defaultTooltip = tt }

// Trigger requests a capture. Safe to call from any goroutine. If a selection
// overlay is already up, it is torn down first and the request starts a fresh
// one.
func (l *Loop) Trigger() {
	if l.selecting.Load() {
		log.Printf("Trigger: selection in progress, tearing down overlay")
		l.selector.Teardown()
	}
	select {
	case l.triggerCh <- struct{}{}:
	default:
	}
}

// StartHotkey registers a global hotkey and posts triggers into the loop.
func (l *Loop) StartHotkey(combo string) {
	if combo == "" {
		return
	}
	hotkey.Listen(combo, l.Trigger)
}

func (l *Loop) setBusy(b bool) {
	l.busy = b
	if b {
		l.updateTooltip("Element Digitizer: annotating...")
	} else {
		l.updateTooltip(l.defaultTooltip)
	}
}

// Run processes triggers and save results until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	defer l.pool.Close()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.triggerCh:
			l.handleTrigger(ctx)
		case res := <-l.results:
			l.handleResult(res)
		}
	}
}

func (l *Loop) handleTrigger(ctx context.Context) {
	log.Printf("handleTrigger: called")
	if l.busy {
		log.Printf("handleTrigger: busy, skipping")
		notification.ShowSaveError("An annotation is already in progress")
		return
	}

	l.updateTooltip("Element Digitizer: selecting...")
	l.selecting.Store(true)
	res, cancelled, err := l.selector.Select(ctx)
	l.selecting.Store(false)

	if err != nil {
		log.Printf("handleTrigger: selection error: %v", err)
		l.updateTooltip(l.defaultTooltip)
		notification.ShowSaveError("Selection failed")
		return
	}
	if cancelled {
		log.Printf("handleTrigger: selection cancelled")
		l.updateTooltip(l.defaultTooltip)
		return
	}

	log.Printf("handleTrigger: captured %s", res.Box)
	l.setBusy(true)
	l.annotate(res, gui.AnnotationOptions{
		SoftwareVersion: l.softwareVersion,
		Author:          l.author,
		OnSave:          l.saveFunc(ctx),
		OnCancel: func() {
			l.results <- result{cancelled: true}
		},
	})
}

// saveFunc bridges the GUI save button to the worker pool. It runs on the
// fyne main thread; the callback posts back into the loop.
func (l *Loop) saveFunc(ctx context.Context) gui.SaveFunc {
	return func(module string, rec annotation.Record, bm capture.Bitmap, done func(error)) {
		jobCtx, cancel := context.WithTimeout(ctx, l.deadline)
		job := worker.SaveJob{Module: module, Record: rec, Bitmap: bm}
		submitted := l.pool.Submit(jobCtx, job, func(paths store.SavedPaths, err error) {
			l.results <- result{
				elementID: rec.ElementID,
				paths:     paths,
				err:       err,
				cancel:    cancel,
				done:      done,
			}
		})
		if !submitted {
			cancel()
			done(fmt.Errorf("save queue is full"))
		}
	}
}

func (l *Loop) handleResult(res result) {
	if res.cancel != nil {
		defer res.cancel()
	}

	if res.cancelled {
		log.Printf("handleResult: annotation cancelled")
		l.setBusy(false)
		return
	}

	if res.err != nil {
		log.Printf("handleResult: save error: %v", res.err)
		// The window stays open for a retry, so the loop stays busy.
		if res.done != nil {
			res.done(res.err)
		}
		return
	}

	log.Printf("handleResult: saved %s", res.paths.JSONPath)
	if res.done != nil {
		res.done(nil)
	}
	if err := clipboard.Write(res.paths.JSONPath); err != nil {
		log.Printf("handleResult: clipboard write failed: %v", err)
	}
	notification.ShowSaveResult(fmt.Sprintf("Saved %s\n%s", res.elementID, res.paths.JSONPath))
	l.setBusy(false)
	l.updateTooltip(fmt.Sprintf("%s (last saved: %s)", l.defaultTooltip, res.elementID))
}

// Deadline returns the configured save deadline for this loop.
func (l *Loop) Deadline() time.Duration { return l.deadline }
