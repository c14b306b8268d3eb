package annotation

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"element-digitizer/src/capture"
)

// SchemaVersion is the UI Element Schema revision written into every record.
const SchemaVersion = "1.0"

// DefaultModule is the dataset subdirectory used when no module is given.
const DefaultModule = "default"

// ElementTypes are the accepted element_type values.
var ElementTypes = []string{
	"button", "input_field", "textarea", "dropdown",
	"checkbox", "radio_button", "menu_item", "tab",
	"dialog", "window", "icon", "label",
}

// DefaultActions are the accepted default_action values.
var DefaultActions = []string{
	"click", "double_click", "right_click",
	"hover", "input_text", "select_option",
}

var elementIDPattern = regexp.MustCompile(`^[a-z0-9_]+$`)

// LocationInfo ties a record to its screenshot and screen position.
type LocationInfo struct {
	ScreenshotPath string      `json:"screenshot_path"`
	BoundingBox    capture.Box `json:"bounding_box"`
	AnchorID       string      `json:"anchor_id,omitempty"`
}

// StateInfo captures the observable state of the element at annotation time.
type StateInfo struct {
	IsEnabled bool   `json:"is_enabled"`
	IsVisible bool   `json:"is_visible"`
	Tooltip   string `json:"tooltip,omitempty"`
}

// ActionInfo describes how an automation agent interacts with the element.
type ActionInfo struct {
	DefaultAction       string `json:"default_action"`
	ExpectedOutcomeDesc string `json:"expected_outcome_desc,omitempty"`
}

// Metadata is the provenance block of a record.
type Metadata struct {
	SoftwareVersion string `json:"software_version"`
	Author          string `json:"author"`
	CreatedAt       string `json:"created_at"`
	UpdatedAt       string `json:"updated_at"`
}

// Record is one labeled UI element, UI Element Schema v1.0.
type Record struct {
	SchemaVersion   string       `json:"schema_version"`
	ElementID       string       `json:"element_id"`
	ElementName     string       `json:"element_name"`
	ElementType     string       `json:"element_type"`
	ParentElementID *string      `json:"parent_element_id"`
	LocationInfo    LocationInfo `json:"location_info"`
	StateInfo       StateInfo    `json:"state_info"`
	ActionInfo      ActionInfo   `json:"action_info"`
	Metadata        Metadata     `json:"metadata"`
}

// New returns a record with schema version and defaults applied.
func New(elementID string) Record {
	return Record{
		SchemaVersion: SchemaVersion,
		ElementID:     elementID,
		ElementName:   elementID,
		ElementType:   ElementTypes[0],
		StateInfo:     StateInfo{IsEnabled: true, IsVisible: true},
		ActionInfo:    ActionInfo{DefaultAction: DefaultActions[0]},
	}
}

// Normalize fills derivable fields: element_name falls back to element_id,
// timestamps are stamped when empty.
func (r *Record) Normalize(now time.Time) {
	if r.SchemaVersion == "" {
		r.SchemaVersion = SchemaVersion
	}
	if strings.TrimSpace(r.ElementName) == "" {
		r.ElementName = r.ElementID
	}
	ts := now.Format(time.RFC3339)
	if r.Metadata.CreatedAt == "" {
		r.Metadata.CreatedAt = ts
	}
	if r.Metadata.UpdatedAt == "" {
		r.Metadata.UpdatedAt = ts
	}
}

// Validate checks the form-level rules before a record may be persisted.
// It returns every problem found, not just the first.
func (r Record) Validate() []error {
	var errs []error

	id := strings.TrimSpace(r.ElementID)
	if id == "" {
		errs = append(errs, fmt.Errorf("element_id is required"))
	} else if !elementIDPattern.MatchString(id) {
		errs = append(errs, fmt.Errorf("element_id may only contain lowercase letters, digits and underscores"))
	}

	if !contains(ElementTypes, r.ElementType) {
		errs = append(errs, fmt.Errorf("unknown element_type %q", r.ElementType))
	}
	if !contains(DefaultActions, r.ActionInfo.DefaultAction) {
		errs = append(errs, fmt.Errorf("unknown default_action %q", r.ActionInfo.DefaultAction))
	}

	if strings.TrimSpace(r.Metadata.SoftwareVersion) == "" {
		errs = append(errs, fmt.Errorf("software_version is required"))
	}
	if strings.TrimSpace(r.Metadata.Author) == "" {
		errs = append(errs, fmt.Errorf("author is required"))
	}

	if err := r.LocationInfo.BoundingBox.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("bounding_box: %w", err))
	}

	return errs
}

// ValidateRaw structurally checks a serialized record without trusting the
// Go struct round trip: required keys present, bounding_box a bare array of
// 4 integers. Used by the dataset CLI against on-disk files.
func ValidateRaw(data []byte) []error {
	var errs []error

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return []error{fmt.Errorf("not a JSON object: %w", err)}
	}

	for _, field := range []string{
		"schema_version", "element_id", "element_name", "element_type",
		"location_info", "state_info", "action_info", "metadata",
	} {
		if _, ok := doc[field]; !ok {
			errs = append(errs, fmt.Errorf("missing required field: %s", field))
		}
	}

	if raw, ok := doc["location_info"]; ok {
		var loc map[string]json.RawMessage
		if err := json.Unmarshal(raw, &loc); err != nil {
			errs = append(errs, fmt.Errorf("location_info: %w", err))
		} else {
			for _, field := range []string{"screenshot_path", "bounding_box"} {
				if _, ok := loc[field]; !ok {
					errs = append(errs, fmt.Errorf("location_info missing required field: %s", field))
				}
			}
			if rawBox, ok := loc["bounding_box"]; ok {
				var box []int
				if err := json.Unmarshal(rawBox, &box); err != nil || len(box) != 4 {
					errs = append(errs, fmt.Errorf("bounding_box must be an array of 4 integers"))
				} else if box[0] >= box[2] || box[1] >= box[3] {
					errs = append(errs, fmt.Errorf("bounding_box must satisfy x1<x2 and y1<y2"))
				}
			}
		}
	}

	if raw, ok := doc["state_info"]; ok {
		var st map[string]json.RawMessage
		if err := json.Unmarshal(raw, &st); err == nil {
			for _, field := range []string{"is_enabled", "is_visible"} {
				if _, ok := st[field]; !ok {
					errs = append(errs, fmt.Errorf("state_info missing required field: %s", field))
				}
			}
		}
	}

	if raw, ok := doc["action_info"]; ok {
		var act map[string]json.RawMessage
		if err := json.Unmarshal(raw, &act); err == nil {
			if _, ok := act["default_action"]; !ok {
				errs = append(errs, fmt.Errorf("action_info missing required field: default_action"))
			}
		}
	}

	if raw, ok := doc["metadata"]; ok {
		var md map[string]json.RawMessage
		if err := json.Unmarshal(raw, &md); err == nil {
			for _, field := range []string{"software_version", "author", "created_at", "updated_at"} {
				if _, ok := md[field]; !ok {
					errs = append(errs, fmt.Errorf("metadata missing required field: %s", field))
				}
			}
		}
	}

	return errs
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
