package errlog

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestFileSinkAppendsTimestampedEntries(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	sink, err := NewFileSink(dir, nil)
	if err != nil {
		t.Fatalf("new sink: %v", err)
	}
	fixed := time.Date(2026, 10, 15, 7, 0, 0, 0, time.UTC)
	sink.now = func() time.Time { return fixed }

	sink.Record(errors.New("disk full"))
	sink.Record(errors.New("constraint failed"))
	sink.Record(nil)
	if err := sink.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "error_2026-10-15.log"))
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	got := string(data)
	for _, want := range []string{"disk full", "constraint failed", "2026-10-15T07:00:00Z"} {
		if !strings.Contains(got, want) {
			t.Errorf("log missing %q:\n%s", want, got)
		}
	}
	if n := strings.Count(got, "==="); n != 4 {
		t.Errorf("expected 2 entries, got header markers %d", n)
	}
}

func TestFileSinkRecordAfterCloseIsIgnored(t *testing.T) {
	t.Parallel()

	sink, err := NewFileSink(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("new sink: %v", err)
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	sink.Record(errors.New("late"))
	if err := sink.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}

func TestNewFileSinkRequiresDir(t *testing.T) {
	t.Parallel()

	if _, err := NewFileSink("", nil); err == nil {
		t.Fatal("expected error for empty directory")
	}
}
