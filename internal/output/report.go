// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package output

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"
)

// Report is the on-disk YAML summary of one processing run. The
// researcher can keep it next to the output CSV as a record of what
// produced the file.
type Report struct {
	Input      string `yaml:"input"`
	Output     string `yaml:"output"`
	Retrieve   bool   `yaml:"retrieve"`
	Resolve    bool   `yaml:"resolve"`
	SampleSize int    `yaml:"sample_size,omitempty"`

	Rows         int            `yaml:"rows"`
	StatusCounts map[string]int `yaml:"status_counts"`
	Timestamp    time.Time      `yaml:"timestamp"`
}

// WriteReport saves the run summary to a YAML file.
func WriteReport(path string, r Report) error {
	data, err := yaml.Marshal(&r)
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadReport loads a previously written run summary.
func ReadReport(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading report: %w", err)
	}
	var r Report
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parsing report: %w", err)
	}
	return &r, nil
}
