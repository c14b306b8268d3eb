package clipboard

import (
	"testing"
)

func TestWriteRequiresInit(t *testing.T) {
	if err := Write("saved path"); err == nil {
		t.Error("Write before Init should fail")
	}
}

func TestInitAndWrite(t *testing.T) {
	// Clipboard access needs a display; tolerate failure in headless runs.
	if err := Init(); err != nil {
		t.Logf("clipboard unavailable: %v", err)
		return
	}
	if err := Write("database/ui_elements/login/submit_btn.json"); err != nil {
		t.Errorf("Write after Init failed: %v", err)
	}
}
