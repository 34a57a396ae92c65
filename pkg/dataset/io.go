package dataset

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// SaveRecord writes a record to disk as JSON.
func SaveRecord(path string, r *Record) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory for record: %w", err)
	}

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling record: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing record: %w", err)
	}

	return nil
}

// LoadRecord reads a record from disk.
func LoadRecord(path string) (*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading record: %w", err)
	}
	return DecodeRecord(data)
}

// DecodeRecord parses a JSON record and checks it names its project.
func DecodeRecord(data []byte) (*Record, error) {
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("unmarshaling record: %w", err)
	}
	if r.ProjectName == "" {
		return nil, fmt.Errorf("record has no project name")
	}
	return &r, nil
}

// LoadRecords reads every path; directories contribute their *.json files
// in name order.
func LoadRecords(paths ...string) ([]*Record, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", p, err)
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		matches, err := filepath.Glob(filepath.Join(p, "*.json"))
		if err != nil {
			return nil, fmt.Errorf("listing %s: %w", p, err)
		}
		sort.Strings(matches)
		files = append(files, matches...)
	}

	records := make([]*Record, 0, len(files))
	for _, f := range files {
		r, err := LoadRecord(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f, err)
		}
		records = append(records, r)
	}
	return records, nil
}
