package annotation

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"element-digitizer/src/capture"
)

func validRecord() Record {
	r := New("main_menu_button")
	r.LocationInfo = LocationInfo{
		ScreenshotPath: "database/ui_elements/screenshots/main_menu_button.png",
		BoundingBox:    capture.Box{X1: 10, Y1: 20, X2: 110, Y2: 60},
	}
	r.Metadata.SoftwareVersion = "v1.2.3"
	r.Metadata.Author = "annotator"
	return r
}

func TestValidateAcceptsCompleteRecord(t *testing.T) {
	if errs := validRecord().Validate(); len(errs) != 0 {
		t.Errorf("valid record rejected: %v", errs)
	}
}

func TestValidateRequiredFields(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Record)
		keyword string
	}{
		{"missing element_id", func(r *Record) { r.ElementID = "" }, "element_id is required"},
		{"bad element_id charset", func(r *Record) { r.ElementID = "Main-Button" }, "lowercase"},
		{"missing software_version", func(r *Record) { r.Metadata.SoftwareVersion = " " }, "software_version"},
		{"missing author", func(r *Record) { r.Metadata.Author = "" }, "author"},
		{"unknown element_type", func(r *Record) { r.ElementType = "widget" }, "element_type"},
		{"unknown default_action", func(r *Record) { r.ActionInfo.DefaultAction = "drag" }, "default_action"},
		{"inverted box", func(r *Record) { r.LocationInfo.BoundingBox = capture.Box{X1: 50, Y1: 0, X2: 10, Y2: 40} }, "bounding_box"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validRecord()
			tt.mutate(&r)
			errs := r.Validate()
			if len(errs) == 0 {
				t.Fatal("expected validation errors, got none")
			}
			found := false
			for _, err := range errs {
				if strings.Contains(err.Error(), tt.keyword) {
					found = true
				}
			}
			if !found {
				t.Errorf("no error mentioning %q in %v", tt.keyword, errs)
			}
		})
	}
}

func TestNormalizeFillsDerivedFields(t *testing.T) {
	r := Record{ElementID: "save_button"}
	now := time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)
	r.Normalize(now)

	if r.SchemaVersion != SchemaVersion {
		t.Errorf("schema_version = %q", r.SchemaVersion)
	}
	if r.ElementName != "save_button" {
		t.Errorf("element_name should fall back to element_id, got %q", r.ElementName)
	}
	want := now.Format(time.RFC3339)
	if r.Metadata.CreatedAt != want || r.Metadata.UpdatedAt != want {
		t.Errorf("timestamps = %q/%q, want %q", r.Metadata.CreatedAt, r.Metadata.UpdatedAt, want)
	}

	// Explicit values survive.
	r2 := Record{ElementID: "x", ElementName: "The X", Metadata: Metadata{CreatedAt: "earlier"}}
	r2.Normalize(now)
	if r2.ElementName != "The X" || r2.Metadata.CreatedAt != "earlier" {
		t.Error("Normalize overwrote explicit fields")
	}
}

func TestRecordJSONShape(t *testing.T) {
	r := validRecord()
	r.Normalize(time.Now())
	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	if !strings.Contains(string(data), `"bounding_box":[10,20,110,60]`) {
		t.Errorf("bounding_box not serialized as 4-int array: %s", data)
	}
	// parent_element_id is always present, null when unset
	if !strings.Contains(string(data), `"parent_element_id":null`) {
		t.Errorf("parent_element_id should serialize as null when unset: %s", data)
	}
	// optional fields are omitted when empty
	if strings.Contains(string(data), "anchor_id") || strings.Contains(string(data), "tooltip") {
		t.Errorf("empty optional fields should be omitted: %s", data)
	}

	if errs := ValidateRaw(data); len(errs) != 0 {
		t.Errorf("serialized record fails raw validation: %v", errs)
	}
}

func TestValidateRaw(t *testing.T) {
	if errs := ValidateRaw([]byte(`not json`)); len(errs) == 0 {
		t.Error("expected error for malformed JSON")
	}

	if errs := ValidateRaw([]byte(`{"schema_version":"1.0"}`)); len(errs) == 0 {
		t.Error("expected errors for missing required fields")
	}

	bad := `{
		"schema_version":"1.0","element_id":"x","element_name":"x","element_type":"button",
		"location_info":{"screenshot_path":"p.png","bounding_box":[10,10,10,40]},
		"state_info":{"is_enabled":true,"is_visible":true},
		"action_info":{"default_action":"click"},
		"metadata":{"software_version":"1","author":"a","created_at":"t","updated_at":"t"}
	}`
	errs := ValidateRaw([]byte(bad))
	found := false
	for _, err := range errs {
		if strings.Contains(err.Error(), "x1<x2") {
			found = true
		}
	}
	if !found {
		t.Errorf("degenerate bounding box not flagged: %v", errs)
	}
}
