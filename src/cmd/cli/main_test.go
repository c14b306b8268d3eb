package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"element-digitizer/src/annotation"
	"element-digitizer/src/capture"
	"element-digitizer/src/store"
)

func TestNormalizeLegacyArgs(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		out  []string
	}{
		{
			name: "Normalizes long single dash flags",
			in:   []string{"element-digitizer-cli", "-validate", "-dataset", "/tmp/ds"},
			out:  []string{"element-digitizer-cli", "--validate", "--dataset", "/tmp/ds"},
		},
		{
			name: "Normalizes equals form",
			in:   []string{"element-digitizer-cli", "-list=true", "-module=login"},
			out:  []string{"element-digitizer-cli", "--list=true", "--module=login"},
		},
		{
			name: "Leaves double dash flags unchanged",
			in:   []string{"element-digitizer-cli", "--validate", "--other"},
			out:  []string{"element-digitizer-cli", "--validate", "--other"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizeLegacyArgs(tt.in)
			if len(got) != len(tt.out) {
				t.Fatalf("Expected len=%d, got %d", len(tt.out), len(got))
			}
			for i := range got {
				if got[i] != tt.out[i] {
					t.Fatalf("Expected arg[%d]=%q, got %q", i, tt.out[i], got[i])
				}
			}
		})
	}
}

func TestNewRootCmdParsesFlags(t *testing.T) {
	opts := &cliOptions{}
	cmd := newRootCmd(opts)
	if err := cmd.ParseFlags([]string{"--validate", "--module", "login", "--dataset", "/tmp/ds"}); err != nil {
		t.Fatalf("ParseFlags failed: %v", err)
	}
	if !opts.validate {
		t.Fatal("Expected validate=true")
	}
	if opts.module != "login" {
		t.Fatalf("Expected module=login, got %q", opts.module)
	}
	if opts.datasetDir != "/tmp/ds" {
		t.Fatalf("Expected dataset=/tmp/ds, got %q", opts.datasetDir)
	}
}

func seedDataset(t *testing.T) *store.Store {
	t.Helper()
	st := store.New(t.TempDir())

	rec := annotation.New("submit_btn")
	rec.ElementType = "button"
	rec.LocationInfo.BoundingBox = capture.Box{X1: 10, Y1: 20, X2: 110, Y2: 80}
	rec.ActionInfo.DefaultAction = "click"
	rec.Metadata.SoftwareVersion = "1.0.0"
	rec.Metadata.Author = "tester"
	bm := capture.Bitmap{Width: 100, Height: 60, Pix: make([]uint8, 100*60*3)}
	if _, err := st.Save("login", rec, bm); err != nil {
		t.Fatalf("seed Save failed: %v", err)
	}
	return st
}

func TestValidateCleanDataset(t *testing.T) {
	st := seedDataset(t)

	var out bytes.Buffer
	err := validateDataset(&out, st, cliOptions{})
	if err != nil {
		t.Fatalf("validate reported error: %v\noutput: %s", err, out.String())
	}
	if !strings.Contains(out.String(), "1 records checked, 0 problems") {
		t.Errorf("unexpected output: %s", out.String())
	}
}

func TestValidateFlagsMissingScreenshot(t *testing.T) {
	st := seedDataset(t)

	// Break the dataset by removing the screenshot.
	if err := os.Remove(filepath.Join(st.Root(), "screenshots", "submit_btn.png")); err != nil {
		t.Fatalf("failed to remove screenshot: %v", err)
	}

	var out bytes.Buffer
	err := validateDataset(&out, st, cliOptions{})
	if err == nil {
		t.Fatalf("expected validation failure, output: %s", out.String())
	}
	if !strings.Contains(out.String(), "screenshot missing") {
		t.Errorf("missing-screenshot problem not reported: %s", out.String())
	}
}

func TestListFiltersByModule(t *testing.T) {
	st := seedDataset(t)

	var out bytes.Buffer
	if err := listDataset(&out, st, cliOptions{module: "login"}); err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if !strings.Contains(out.String(), "login/submit_btn") {
		t.Errorf("record not listed: %s", out.String())
	}

	out.Reset()
	if err := listDataset(&out, st, cliOptions{module: "settings"}); err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if !strings.Contains(out.String(), "0 records") {
		t.Errorf("empty module should list nothing: %s", out.String())
	}
}
