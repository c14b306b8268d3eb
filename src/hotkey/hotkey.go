package hotkey

import (
	"fmt"
	"log"
	"strings"
	"sync"

	gohook "github.com/robotn/gohook"
)

// Listen registers a global hotkey combination and invokes callback from
// the listener goroutine each time all keys of the combination are down.
// The callback must not touch UI state directly; it should post a token
// into the event loop's channel.
func Listen(hotkeyConfig string, callback func()) {
	keys := parseHotkey(hotkeyConfig)
	log.Printf("Parsed hotkey configuration: %v", keys)

	type keyState struct {
		name     string
		rawcodes []uint16
		pressed  bool
	}

	var keyStates []keyState
	for _, keyName := range keys {
		rawcodes := keyNameToRawcodes(keyName)
		if len(rawcodes) == 0 {
			log.Printf("ERROR: Cannot map key '%s' to rawcodes, hotkey may not work correctly", keyName)
			continue
		}
		keyStates = append(keyStates, keyState{name: keyName, rawcodes: rawcodes})
	}

	if len(keyStates) == 0 {
		log.Printf("ERROR: No valid keys in hotkey configuration '%s'", hotkeyConfig)
		return
	}

	log.Printf("Hotkey listener configured for: %s", hotkeyConfig)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("PANIC in hotkey goroutine: %v", r)
			}
		}()

		evChan := gohook.Start()
		if evChan == nil {
			log.Printf("ERROR: gohook.Start() returned nil channel")
			return
		}

		var mu sync.Mutex
		matches := func(i int, rawcode uint16) bool {
			for _, rc := range keyStates[i].rawcodes {
				if rc == rawcode {
					return true
				}
			}
			return false
		}

		for ev := range evChan {
			switch ev.Kind {
			case gohook.KeyDown:
				mu.Lock()
				for i := range keyStates {
					if matches(i, ev.Rawcode) {
						keyStates[i].pressed = true
					}
				}
				allPressed := true
				for i := range keyStates {
					if !keyStates[i].pressed {
						allPressed = false
						break
					}
				}
				if allPressed {
					log.Printf("Hotkey activated: %s", hotkeyConfig)
					for i := range keyStates {
						keyStates[i].pressed = false
					}
					mu.Unlock()
					if callback != nil {
						callback()
					}
					continue
				}
				mu.Unlock()

			case gohook.KeyUp:
				mu.Lock()
				for i := range keyStates {
					if matches(i, ev.Rawcode) {
						keyStates[i].pressed = false
					}
				}
				mu.Unlock()
			}
		}
		log.Printf("Hotkey event channel closed")
	}()
}

// parseHotkey converts a hotkey string like "Ctrl+Shift+c" to normalized key names
func parseHotkey(hotkeyConfig string) []string {
	parts := strings.Split(strings.ToLower(hotkeyConfig), "+")
	var keys []string
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		switch part {
		case "win", "cmd", "super":
			keys = append(keys, "cmd")
		default:
			keys = append(keys, part)
		}
	}
	return keys
}

// rawcodeAliases maps key names to Windows virtual-key rawcodes; modifiers
// list both left and right variants.
var rawcodeAliases = map[string][]uint16{
	"ctrl":  {162, 163}, // VK_LCONTROL, VK_RCONTROL
	"alt":   {164, 165}, // VK_LMENU, VK_RMENU
	"shift": {160, 161}, // VK_LSHIFT, VK_RSHIFT
	"cmd":   {91, 92},   // VK_LWIN, VK_RWIN

	"space":     {32},
	"enter":     {13},
	"return":    {13},
	"esc":       {27},
	"escape":    {27},
	"tab":       {9},
	"backspace": {8},
	"delete":    {46},
	"del":       {46},
	"insert":    {45},
	"ins":       {45},
	"home":      {36},
	"end":       {35},
	"pageup":    {33},
	"pgup":      {33},
	"pagedown":  {34},
	"pgdn":      {34},
	"left":      {37},
	"up":        {38},
	"right":     {39},
	"down":      {40},
}

// keyNameToRawcodes maps a key name to its Windows virtual key code rawcodes.
func keyNameToRawcodes(keyName string) []uint16 {
	keyName = strings.ToLower(strings.TrimSpace(keyName))

	if codes, ok := rawcodeAliases[keyName]; ok {
		return codes
	}

	// Letters a-z: VK 0x41-0x5A
	if len(keyName) == 1 && keyName[0] >= 'a' && keyName[0] <= 'z' {
		return []uint16{uint16(keyName[0] - 'a' + 65)}
	}
	// Digits 0-9: VK 0x30-0x39
	if len(keyName) == 1 && keyName[0] >= '0' && keyName[0] <= '9' {
		return []uint16{uint16(keyName[0] - '0' + 48)}
	}
	// Function keys F1-F24: VK 112-135
	if strings.HasPrefix(keyName, "f") {
		var n int
		if _, err := fmt.Sscanf(keyName, "f%d", &n); err == nil && n >= 1 && n <= 24 {
			return []uint16{uint16(111 + n)}
		}
	}

	log.Printf("WARNING: Unknown key name '%s', cannot map to rawcode", keyName)
	return nil
}
