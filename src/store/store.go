package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/disintegration/imaging"

	"element-digitizer/src/annotation"
	"element-digitizer/src/capture"
)

const screenshotsDir = "screenshots"

// Store persists labeled UI elements under a dataset root:
//
//	<root>/screenshots/<element_id>.png
//	<root>/<module>/<element_id>.json
type Store struct {
	root string
}

func New(root string) *Store {
	return &Store{root: root}
}

func (s *Store) Root() string { return s.root }

// SavedPaths reports where one record landed on disk.
type SavedPaths struct {
	JSONPath       string
	ScreenshotPath string
}

// Save validates and persists one record with its screenshot. The record's
// screenshot_path is filled from the dataset layout; timestamps are stamped
// when missing. The PNG is written first so a half-saved record never
// references a missing image.
func (s *Store) Save(module string, rec annotation.Record, bm capture.Bitmap) (SavedPaths, error) {
	module = normalizeModule(module)

	rec.Normalize(time.Now())
	rec.LocationInfo.ScreenshotPath = filepath.ToSlash(filepath.Join(s.root, screenshotsDir, rec.ElementID+".png"))
	if errs := rec.Validate(); len(errs) != 0 {
		return SavedPaths{}, fmt.Errorf("record validation failed: %s", joinErrors(errs))
	}

	box := rec.LocationInfo.BoundingBox
	if bm.Width != box.Width() || bm.Height != box.Height() {
		return SavedPaths{}, fmt.Errorf("bitmap %dx%d does not match bounding box %s", bm.Width, bm.Height, box)
	}

	shotPath := filepath.Join(s.root, screenshotsDir, rec.ElementID+".png")
	if err := os.MkdirAll(filepath.Dir(shotPath), 0755); err != nil {
		return SavedPaths{}, fmt.Errorf("failed to create screenshots dir: %w", err)
	}
	if err := imaging.Save(bm.ToRGBA(), shotPath); err != nil {
		return SavedPaths{}, fmt.Errorf("failed to save screenshot: %w", err)
	}

	jsonPath := filepath.Join(s.root, module, rec.ElementID+".json")
	if err := os.MkdirAll(filepath.Dir(jsonPath), 0755); err != nil {
		return SavedPaths{}, fmt.Errorf("failed to create module dir: %w", err)
	}
	if err := writeRecord(jsonPath, rec); err != nil {
		return SavedPaths{}, err
	}

	return SavedPaths{JSONPath: jsonPath, ScreenshotPath: shotPath}, nil
}

// Load reads one record file.
func (s *Store) Load(jsonPath string) (annotation.Record, error) {
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return annotation.Record{}, fmt.Errorf("failed to read record: %w", err)
	}
	var rec annotation.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return annotation.Record{}, fmt.Errorf("failed to parse record %s: %w", jsonPath, err)
	}
	return rec, nil
}

// Update re-reads an existing record, applies mutate, bumps
// metadata.updated_at and writes it back.
func (s *Store) Update(jsonPath string, mutate func(*annotation.Record) error) error {
	rec, err := s.Load(jsonPath)
	if err != nil {
		return err
	}
	if mutate != nil {
		if err := mutate(&rec); err != nil {
			return err
		}
	}
	rec.Metadata.UpdatedAt = time.Now().Format(time.RFC3339)
	if errs := rec.Validate(); len(errs) != 0 {
		return fmt.Errorf("updated record invalid: %s", joinErrors(errs))
	}
	return writeRecord(jsonPath, rec)
}

// Modules lists the dataset's module directories.
func (s *Store) Modules() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read dataset root: %w", err)
	}
	var modules []string
	for _, e := range entries {
		if e.IsDir() && e.Name() != screenshotsDir {
			modules = append(modules, e.Name())
		}
	}
	sort.Strings(modules)
	return modules, nil
}

// List returns all records of one module, sorted by element_id.
func (s *Store) List(module string) ([]annotation.Record, error) {
	module = normalizeModule(module)
	dir := filepath.Join(s.root, module)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read module dir: %w", err)
	}

	var records []annotation.Record
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		rec, err := s.Load(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].ElementID < records[j].ElementID })
	return records, nil
}

// Walk visits every record file in the dataset.
func (s *Store) Walk(fn func(module, jsonPath string, rec annotation.Record) error) error {
	modules, err := s.Modules()
	if err != nil {
		return err
	}
	for _, module := range modules {
		dir := filepath.Join(s.root, module)
		entries, err := os.ReadDir(dir)
		if err != nil {
			return fmt.Errorf("failed to read module dir: %w", err)
		}
		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
				continue
			}
			jsonPath := filepath.Join(dir, e.Name())
			rec, err := s.Load(jsonPath)
			if err != nil {
				return err
			}
			if err := fn(module, jsonPath, rec); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeRecord(jsonPath string, rec annotation.Record) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(jsonPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	return nil
}

func normalizeModule(module string) string {
	module = strings.TrimSpace(module)
	if module == "" {
		return annotation.DefaultModule
	}
	return module
}

func joinErrors(errs []error) string {
	parts := make([]string, len(errs))
	for i, err := range errs {
		parts[i] = err.Error()
	}
	return strings.Join(parts, "; ")
}
