package utils

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestWriteOutput(t *testing.T) {
	fm := NewFileManager(filepath.Join(t.TempDir(), "out", "nested"))
	if err := fm.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}

	path, err := fm.WriteOutput("Pokladna 3.6.2025 - Bistro - 1.xml", []byte("<x/>"))
	if err != nil {
		t.Fatalf("WriteOutput: %v", err)
	}
	if !FileExists(path) {
		t.Fatalf("file not written: %s", path)
	}

	if _, err := fm.WriteOutput("Pokladna 3.6.2025 - Bistro - 1.xml", []byte("<y/>")); err == nil {
		t.Errorf("existing file overwritten")
	}
	data, _ := os.ReadFile(path)
	if string(data) != "<x/>" {
		t.Errorf("content = %q", data)
	}

	if _, err := fm.WriteOutput("../escape.xml", nil); err == nil {
		t.Errorf("name with directory accepted")
	}
}

func TestWriteOutputRemovesPartialFile(t *testing.T) {
	fm := NewFileManager(t.TempDir())
	name := "Pokladna 3.6.2025 - Bistro - 1.xml"

	orig := writeData
	defer func() { writeData = orig }()
	writeData = func(f *os.File, data []byte) (int, error) {
		n, _ := f.Write(data[:2])
		return n, errors.New("no space left on device")
	}

	if _, err := fm.WriteOutput(name, []byte("<x/>")); err == nil {
		t.Fatal("expected a write error")
	}
	if _, err := os.Stat(filepath.Join(fm.OutputDir, name)); !os.IsNotExist(err) {
		t.Fatalf("partial file left behind: %v", err)
	}

	writeData = orig
	if _, err := fm.WriteOutput(name, []byte("<x/>")); err != nil {
		t.Errorf("rerun: %v", err)
	}
}

func TestEnsureDirectoriesRequiresDir(t *testing.T) {
	if err := NewFileManager("").EnsureDirectories(); err == nil {
		t.Error("empty output dir accepted")
	}
}

func TestWriteSummaryLog(t *testing.T) {
	dir := t.TempDir()
	start := time.Date(2025, time.June, 20, 14, 0, 0, 0, time.Local)

	path, err := WriteSummaryLog(ProcessingSummary{
		StartTime: start,
		EndTime:   start.Add(2 * time.Second),
		InputFile: "Tržby 6_2025.xlsx",
		Outlet:    "Bistro",
		Status:    "partial",
		Days: []DayInfo{
			{Day: time.Date(2025, time.June, 1, 0, 0, 0, 0, time.Local), Files: []string{filepath.Join(dir, "a.xml")}},
			{Day: time.Date(2025, time.June, 2, 0, 0, 0, 0, time.Local), ErrorMessage: "no row for day 2.6."},
			{Day: time.Date(2025, time.June, 3, 0, 0, 0, 0, time.Local)},
		},
		TotalFiles: 1,
	}, dir)
	if err != nil {
		t.Fatalf("WriteSummaryLog: %v", err)
	}
	if filepath.Base(path) != "generation_summary_20250620_140002.txt" {
		t.Errorf("path = %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	out := string(data)
	for _, want := range []string{
		"Status:         partial",
		"Days Requested: 3",
		"Days Failed:    1",
		"    a.xml",
		"    Error: no row for day 2.6.",
		"    (no revenue)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary lacks %q:\n%s", want, out)
		}
	}
}
