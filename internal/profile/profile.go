// Package profile defines the reusable column schema inferred from a trial
// image and the rules for accepting one from model output.
package profile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Profile is the structural schema shared by every image in a batch.
// A Profile is never updated in place; refinement produces a new value.
type Profile struct {
	Headers     []string `json:"headers" yaml:"headers"`
	ColumnCount int      `json:"column_count" yaml:"column_count"`
	ColumnNotes []string `json:"column_notes" yaml:"column_notes"`
	RowRules    []string `json:"row_rules" yaml:"row_rules"`
	OutputRules []string `json:"output_rules" yaml:"output_rules"`
}

// Validate checks the structural invariants: at least one header and
// ColumnCount == len(Headers).
func (p *Profile) Validate() error {
	if p == nil {
		return &SchemaError{Reason: "profile is nil"}
	}
	if len(p.Headers) == 0 {
		return &SchemaError{Reason: "headers missing or empty"}
	}
	if p.ColumnCount != len(p.Headers) {
		return &SchemaError{Reason: fmt.Sprintf("column_count %d does not match %d headers", p.ColumnCount, len(p.Headers))}
	}
	return nil
}

// Clone returns a deep copy.
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	return &Profile{
		Headers:     append([]string(nil), p.Headers...),
		ColumnCount: p.ColumnCount,
		ColumnNotes: append([]string(nil), p.ColumnNotes...),
		RowRules:    append([]string(nil), p.RowRules...),
		OutputRules: append([]string(nil), p.OutputRules...),
	}
}

// JSON returns the indented JSON form sent back to the model during refinement.
func (p *Profile) JSON() (string, error) {
	b, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal profile: %w", err)
	}
	return string(b), nil
}

// Load reads a profile from a YAML or JSON file and validates it.
func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}

	// YAML is a superset of JSON, so one decoder covers both.
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to decode profile %s: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid profile %s: %w", path, err)
	}
	return &p, nil
}

// Save writes the profile to path. Files ending in .json are written as
// JSON, anything else as YAML.
func Save(path string, p *Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}

	var data []byte
	var err error
	if strings.EqualFold(filepath.Ext(path), ".json") {
		data, err = json.MarshalIndent(p, "", "  ")
	} else {
		data, err = yaml.Marshal(p)
	}
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create profile directory: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
