// =============================================================================
// Revenue XML - File Manager Utility
// =============================================================================
//
// This module provides output file utilities for the generator:
//   - Output directory management
//   - Document writes (never overwriting an existing file)
//   - Run summary log generation
//
// OUTPUT STRATEGY:
//   - Each document is written as soon as it is rendered
//   - Files of earlier days stay on disk when a later day fails
//   - The summary log lists every requested day with its outcome
//
// =============================================================================

package utils

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// =============================================================================
// FILE MANAGER
// =============================================================================

// FileManager handles output file operations.
type FileManager struct {
	// OutputDir is the directory where generated files are placed.
	OutputDir string
}

// NewFileManager creates a new FileManager for the output directory.
func NewFileManager(outputDir string) *FileManager {
	return &FileManager{OutputDir: outputDir}
}

// =============================================================================
// DIRECTORY MANAGEMENT
// =============================================================================

// EnsureDirectories creates the output directory if it doesn't exist.
func (fm *FileManager) EnsureDirectories() error {
	if fm.OutputDir == "" {
		return errors.New("output directory is not set")
	}
	if err := os.MkdirAll(fm.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", fm.OutputDir, err)
	}
	return nil
}

// =============================================================================
// DOCUMENT WRITES
// =============================================================================

// WriteOutput writes one generated file.
//
// PARAMETERS:
//   - name: The file name (no directory part).
//   - data: The encoded document.
//
// RETURNS:
//   - The full path of the written file.
//   - An error if the file already exists or cannot be written. A file that
//     fails midway is removed so a rerun can create it again.
func (fm *FileManager) WriteOutput(name string, data []byte) (string, error) {
	if name == "" || name != filepath.Base(name) {
		return "", fmt.Errorf("invalid output file name %q", name)
	}
	path := filepath.Join(fm.OutputDir, name)

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return "", fmt.Errorf("failed to create output file: %w", err)
	}
	if _, err := writeData(file, data); err != nil {
		file.Close()
		os.Remove(path)
		return "", fmt.Errorf("failed to write output file: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to close output file: %w", err)
	}
	return path, nil
}

// writeData is replaced in tests to simulate a failing disk.
var writeData = func(f *os.File, data []byte) (int, error) { return f.Write(data) }

// =============================================================================
// PROCESSING SUMMARY
// =============================================================================

// ProcessingSummary contains summary information about a generation run.
type ProcessingSummary struct {
	StartTime  time.Time
	EndTime    time.Time
	InputFile  string
	Outlet     string
	Status     string
	Days       []DayInfo
	TotalFiles int
}

// DayInfo is the outcome of one requested day.
type DayInfo struct {
	Day          time.Time
	Files        []string
	ErrorMessage string
}

// WriteSummaryLog writes a processing summary to a log file.
//
// PARAMETERS:
//   - summary: The processing summary.
//   - outputDir: The directory to write the summary file.
//
// RETURNS:
//   - The path to the summary file.
//   - An error if writing fails.
func WriteSummaryLog(summary ProcessingSummary, outputDir string) (string, error) {
	timestamp := summary.EndTime.Format("20060102_150405")
	summaryPath := filepath.Join(outputDir, fmt.Sprintf("generation_summary_%s.txt", timestamp))

	file, err := os.Create(summaryPath)
	if err != nil {
		return "", fmt.Errorf("failed to create summary file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)

	failed := 0
	for _, d := range summary.Days {
		if d.ErrorMessage != "" {
			failed++
		}
	}

	rule := strings.Repeat("=", 80) + "\n"
	fmt.Fprintf(writer, "Revenue XML - Generation Summary\n"+
		rule+"\n"+
		"Run Information:\n"+
		"  Input:          %s\n"+
		"  Outlet:         %s\n"+
		"  Start Time:     %s\n"+
		"  End Time:       %s\n"+
		"  Duration:       %s\n\n"+
		"Statistics:\n"+
		"  Status:         %s\n"+
		"  Days Requested: %d\n"+
		"  Days Failed:    %d\n"+
		"  Files Written:  %d\n\n",
		summary.InputFile,
		summary.Outlet,
		summary.StartTime.Format("2006-01-02 15:04:05"),
		summary.EndTime.Format("2006-01-02 15:04:05"),
		summary.EndTime.Sub(summary.StartTime).String(),
		summary.Status,
		len(summary.Days),
		failed,
		summary.TotalFiles)

	if len(summary.Days) > 0 {
		writer.WriteString("Days:\n")
		writer.WriteString(strings.Repeat("-", 80) + "\n")
		for _, d := range summary.Days {
			fmt.Fprintf(writer, "  %s\n", d.Day.Format("02.01.2006"))
			if d.ErrorMessage != "" {
				fmt.Fprintf(writer, "    Error: %s\n", d.ErrorMessage)
			}
			if len(d.Files) == 0 && d.ErrorMessage == "" {
				writer.WriteString("    (no revenue)\n")
			}
			for _, f := range d.Files {
				fmt.Fprintf(writer, "    %s\n", filepath.Base(f))
			}
		}
		writer.WriteString("\n")
	}

	writer.WriteString(rule + "End of Summary\n")

	if err := writer.Flush(); err != nil {
		return "", fmt.Errorf("failed to flush summary file: %w", err)
	}

	return summaryPath, nil
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// FileExists checks if a regular file exists at path.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
