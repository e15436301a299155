package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/piwi3910/slabcam/internal/model"
	"github.com/piwi3910/slabcam/internal/nest"
)

// RunVersion is written into every run bundle.
const RunVersion = "1.0.0"

// Run is a saved nesting run: the settings used and everything produced.
type Run struct {
	Version   string                    `json:"version"`
	ID        string                    `json:"id"`
	CreatedAt string                    `json:"created_at"`
	Settings  model.JobSettings         `json:"settings"`
	Layouts   []nest.SheetLayout        `json:"layouts,omitempty"`
	Boards    []nest.LinearBoard        `json:"boards,omitempty"`
	Offcuts   []model.Offcut            `json:"offcuts,omitempty"`
	Summary   nest.UtilizationBreakdown `json:"summary"`
}

// NewRun stamps a run with a fresh ID and the current UTC time.
func NewRun(settings model.JobSettings) Run {
	return Run{
		Version:   RunVersion,
		ID:        uuid.New().String(),
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Settings:  settings,
	}
}

// ExportRun writes a run to a single JSON file at the specified path.
func ExportRun(exportPath string, run Run) error {
	if run.Version == "" {
		run.Version = RunVersion
	}
	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal run: %w", err)
	}

	dir := filepath.Dir(exportPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}

	if err := os.WriteFile(exportPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write run file: %w", err)
	}
	return nil
}

// ImportRun reads a run bundle written by ExportRun.
func ImportRun(importPath string) (Run, error) {
	data, err := os.ReadFile(importPath)
	if err != nil {
		return Run{}, fmt.Errorf("failed to read run file: %w", err)
	}
	var run Run
	if err := json.Unmarshal(data, &run); err != nil {
		return Run{}, fmt.Errorf("failed to parse run file: %w", err)
	}
	if run.Version == "" {
		return Run{}, fmt.Errorf("invalid run file: missing version field")
	}
	if _, err := time.Parse(time.RFC3339, run.CreatedAt); err != nil {
		return Run{}, fmt.Errorf("invalid run file: bad created_at: %w", err)
	}
	return run, nil
}
