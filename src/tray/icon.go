package tray

import (
	_ "embed"
)

// Embedded tray icon (16x16 ICO, selection-rectangle glyph).
//
//go:embed icon.ico
var iconData []byte

func getIcon() []byte {
	return iconData
}
