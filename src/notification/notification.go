package notification

import (
	"log"
	"runtime"
)

// ShowSaveResult displays a short popup confirming where an element was saved.
func ShowSaveResult(text string) {
	displayText := text
	if len(text) > 200 {
		displayText = text[:200] + "..."
	}

	if runtime.GOOS == "windows" {
		go func() {
			if err := showWindowsPopup("Element Saved", displayText); err != nil {
				log.Printf("Failed to show notification: %v", err)
			}
		}()
		return
	}
	log.Printf("Element saved: %s", displayText)
}

// ShowSaveError reports a failed save without blocking the event loop.
func ShowSaveError(text string) {
	if runtime.GOOS == "windows" {
		go func() {
			if err := showWindowsPopup("Save Failed", text); err != nil {
				log.Printf("Failed to show notification: %v", err)
			}
		}()
		return
	}
	log.Printf("Save failed: %s", text)
}
