package tray

import (
	"log"

	"github.com/getlantern/systray"
)

// Config wires tray menu actions back into the application.
type Config struct {
	Title     string
	Tooltip   string
	OnCapture func()
	OnExit    func()
}

var cfg Config

// Run starts the system tray and blocks until Quit is called.
func Run(c Config) {
	cfg = c
	if cfg.Title == "" {
		cfg.Title = "Element Digitizer"
	}
	if cfg.Tooltip == "" {
		cfg.Tooltip = cfg.Title
	}
	systray.Run(onReady, onExit)
}

// Quit tears the tray down and unblocks Run.
func Quit() {
	systray.Quit()
}

// UpdateTooltip refreshes the hover text, e.g. with the last saved element.
func UpdateTooltip(text string) {
	systray.SetTooltip(text)
}

func onReady() {
	systray.SetIcon(getIcon())
	systray.SetTitle(cfg.Title)
	systray.SetTooltip(cfg.Tooltip)

	mCapture := systray.AddMenuItem("Capture Element", "Select a screen region to label")
	systray.AddSeparator()
	mQuit := systray.AddMenuItem("Quit", "Quit the application")

	go func() {
		for {
			select {
			case <-mCapture.ClickedCh:
				log.Printf("Tray: capture requested")
				if cfg.OnCapture != nil {
					cfg.OnCapture()
				}
			case <-mQuit.ClickedCh:
				systray.Quit()
				return
			}
		}
	}()
}

func onExit() {
	if cfg.OnExit != nil {
		cfg.OnExit()
	}
}
