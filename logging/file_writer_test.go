package logging

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRotation_Defaults(t *testing.T) {
	lj := Rotation{MaxSizeMB: 5}.lumberjack("x.log")
	if lj.Filename != "x.log" || lj.MaxSize != 5 {
		t.Errorf("name/size = %q/%d, want x.log/5", lj.Filename, lj.MaxSize)
	}
	if lj.MaxBackups != DefaultRotation.MaxBackups || lj.MaxAge != DefaultRotation.MaxAgeDays {
		t.Errorf("backups/age = %d/%d, want defaults", lj.MaxBackups, lj.MaxAge)
	}
	if lj.Compress {
		t.Error("Compress is taken as given")
	}
}

func TestRotatingFile_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "nested", "summarizer.log")
	w, err := RotatingFile(path, DefaultRotation)
	if err != nil {
		t.Fatalf("RotatingFile() error = %v", err)
	}
	if _, err := w.Write([]byte("{}\n")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("log file not created: %v", err)
	}
}
