package clipboard

import (
	"fmt"
	"sync"

	"golang.design/x/clipboard"
)

var (
	mu    sync.Mutex
	ready bool
)

func Init() error {
	mu.Lock()
	defer mu.Unlock()
	if err := clipboard.Init(); err != nil {
		return err
	}
	ready = true
	return nil
}

// Write performs a mutex-guarded clipboard write to prevent corruption under parallel writes.
func Write(text string) error {
	mu.Lock()
	defer mu.Unlock()
	if !ready {
		return fmt.Errorf("clipboard not initialized")
	}
	clipboard.Write(clipboard.FmtText, []byte(text))
	return nil
}
