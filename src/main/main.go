package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"

	"element-digitizer/src/clipboard"
	"element-digitizer/src/config"
	"element-digitizer/src/eventloop"
	"element-digitizer/src/logutil"
	"element-digitizer/src/screenshot"
	"element-digitizer/src/store"
	"element-digitizer/src/tray"
)

// normalizeFlagDashes maps GNU-style --dataset to Go's -dataset
func normalizeFlagDashes() {
	for i := 1; i < len(os.Args); i++ {
		arg := os.Args[i]
		switch {
		case arg == "--dataset":
			os.Args[i] = "-dataset"
		case strings.HasPrefix(arg, "--dataset="):
			os.Args[i] = "-dataset" + arg[len("--dataset"):]
		}
	}
}

// enableDPIAwareness attempts to set per-monitor DPI awareness on Windows to fix scaling issues
func enableDPIAwareness() {
	if runtime.GOOS != "windows" {
		return
	}
	// Prefer per-monitor DPI awareness via Shcore.SetProcessDpiAwareness (Win 8.1+)
	shcore := syscall.NewLazyDLL("Shcore.dll")
	setProcessDpiAwareness := shcore.NewProc("SetProcessDpiAwareness")
	const processPerMonitorDPIAware = 2
	if err := setProcessDpiAwareness.Find(); err == nil {
		_, _, _ = setProcessDpiAwareness.Call(uintptr(processPerMonitorDPIAware))
		return
	}
	// Fallback: user32.SetProcessDPIAware (Vista+)
	user32 := syscall.NewLazyDLL("user32.dll")
	setProcessDPIAware := user32.NewProc("SetProcessDPIAware")
	if err := setProcessDPIAware.Find(); err == nil {
		_, _, _ = setProcessDPIAware.Call()
	}
}

func main() {
	// Ensure DPI awareness before creating any windows or querying metrics
	enableDPIAwareness()

	// The GUI toolkit needs the main goroutine pinned to its OS thread.
	runtime.LockOSThread()

	normalizeFlagDashes()
	datasetFlag := flag.String("dataset", "", "Override the dataset directory")
	flag.Parse()

	cfg, err := config.LoadWithOptions(config.LoadOptions{DatasetDirOverride: *datasetFlag})
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logutil.Setup(cfg.EnableFileLogging)

	screenshot.Init()
	if err := clipboard.Init(); err != nil {
		// The saved-path copy becomes a no-op but capture still works.
		log.Printf("Clipboard unavailable: %v", err)
	}

	log.Printf("Element Digitizer initialized")
	log.Printf("Dataset directory: %s", cfg.DatasetDir)
	log.Printf("Hotkey: %s", cfg.Hotkey)
	log.Printf("Save deadline: %ds", cfg.SaveDeadlineSec)

	st := store.New(cfg.DatasetDir)
	guiApp := app.NewWithID("element-digitizer")

	loop := eventloop.New(cfg, guiApp, st)
	tooltip := fmt.Sprintf("Element Digitizer - Press %s to capture", cfg.Hotkey)
	loop.SetDefaultTooltip(tooltip)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdown := func() {
		cancel()
		tray.Quit()
		fyne.Do(guiApp.Quit)
	}

	go func() {
		runtime.LockOSThread()
		tray.Run(tray.Config{
			Title:     "Element Digitizer",
			Tooltip:   tooltip,
			OnCapture: loop.Trigger,
			OnExit:    shutdown,
		})
	}()

	loop.StartHotkey(cfg.Hotkey)

	// Handle SIGINT/SIGTERM
	go func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
		<-ch
		shutdown()
	}()

	go func() {
		if err := loop.Run(ctx); err != nil && ctx.Err() == nil {
			log.Printf("event loop stopped: %v", err)
		}
	}()

	// Blocks until Quit; annotation windows are created on this thread.
	guiApp.Run()
}
