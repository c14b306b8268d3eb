package hotkey

import (
	"reflect"
	"testing"
)

func TestKeyNameToRawcodes(t *testing.T) {
	tests := []struct {
		keyName  string
		expected []uint16
	}{
		// Modifier keys
		{"ctrl", []uint16{162, 163}},
		{"alt", []uint16{164, 165}},
		{"shift", []uint16{160, 161}},
		{"cmd", []uint16{91, 92}},

		// Letter keys
		{"c", []uint16{67}},
		{"q", []uint16{81}},
		{"z", []uint16{90}},

		// Number keys
		{"0", []uint16{48}},
		{"9", []uint16{57}},

		// Function keys
		{"f1", []uint16{112}},
		{"f12", []uint16{123}},
		{"f24", []uint16{135}},

		// Special keys
		{"space", []uint16{32}},
		{"enter", []uint16{13}},
		{"esc", []uint16{27}},

		// Unknown keys
		{"f25", nil},
		{"unknown", nil},
	}

	for _, tt := range tests {
		t.Run(tt.keyName, func(t *testing.T) {
			result := keyNameToRawcodes(tt.keyName)
			if !reflect.DeepEqual(result, tt.expected) {
				t.Errorf("keyNameToRawcodes(%q) = %v, expected %v", tt.keyName, result, tt.expected)
			}
		})
	}
}

func TestParseHotkey(t *testing.T) {
	tests := []struct {
		config   string
		expected []string
	}{
		{"Ctrl+Shift+C", []string{"ctrl", "shift", "c"}},
		{"Ctrl+Alt+Q", []string{"ctrl", "alt", "q"}},
		{"Win+F5", []string{"cmd", "f5"}},
		{" ctrl + shift + c ", []string{"ctrl", "shift", "c"}},
	}

	for _, tt := range tests {
		t.Run(tt.config, func(t *testing.T) {
			result := parseHotkey(tt.config)
			if !reflect.DeepEqual(result, tt.expected) {
				t.Errorf("parseHotkey(%q) = %v, expected %v", tt.config, result, tt.expected)
			}
		})
	}
}
