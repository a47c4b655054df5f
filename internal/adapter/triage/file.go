// Package triage persists the ids of stations that need a human decision.
package triage

import (
	"context"
	"fmt"
	"os"
	"strconv"
)

// File appends station ids to a text file, one per line.
type File struct {
	path string
}

// NewFile creates a triage file writer. The file is created on first record.
func NewFile(path string) *File {
	return &File{path: path}
}

// Path returns the file location.
func (f *File) Path() string { return f.path }

// Reset empties the list left by a previous run.
func (f *File) Reset() error {
	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("reset triage file: %w", err)
	}
	return nil
}

// Record appends a station id.
func (f *File) Record(_ context.Context, stationID int) error {
	fh, err := os.OpenFile(f.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open triage file: %w", err)
	}
	if _, err := fh.WriteString(strconv.Itoa(stationID) + "\n"); err != nil {
		fh.Close()
		return fmt.Errorf("write triage file: %w", err)
	}
	if err := fh.Close(); err != nil {
		return fmt.Errorf("close triage file: %w", err)
	}
	return nil
}
