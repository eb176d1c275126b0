package utils

import (
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"
)

func TestOutputFileName(t *testing.T) {
	law := regexp.MustCompile(`^E\d{5}\.dat$`)
	tests := map[string]string{
		"42":     "E00042.dat",
		"00042":  "E00042.dat",
		"12345":  "E12345.dat",
		"EMP-7":  "E00007.dat",
		"":       "E00000.dat",
		"123456": "E12345.dat",
	}
	for code, want := range tests {
		got := OutputFileName(code)
		if got != want {
			t.Errorf("OutputFileName(%q) = %q, want %q", code, got, want)
		}
		if !law.MatchString(got) {
			t.Errorf("OutputFileName(%q) = %q breaks the naming law", code, got)
		}
	}
}

func TestOutputPath(t *testing.T) {
	dir := t.TempDir()
	fm := NewFileManager(dir, "", false)
	if got := fm.OutputPath("", "42"); got != filepath.Join(dir, "E00042.dat") {
		t.Errorf("default = %q", got)
	}
	other := t.TempDir()
	if got := fm.OutputPath(other, "42"); got != filepath.Join(other, "E00042.dat") {
		t.Errorf("directory = %q", got)
	}
	explicit := filepath.Join(other, "custom.dat")
	if got := fm.OutputPath(explicit, "42"); got != explicit {
		t.Errorf("explicit = %q", got)
	}
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out", "E00042.dat")
	fm := NewFileManager(dir, "", false)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("old"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := fm.WriteFileAtomic(path, []byte("new contents")); err != nil {
		t.Fatalf("WriteFileAtomic() = %v", err)
	}
	got, _ := os.ReadFile(path)
	if string(got) != "new contents" {
		t.Errorf("contents = %q", got)
	}
	assertNoTempFiles(t, filepath.Dir(path))
}

func TestWriteFileAtomicRetriesRename(t *testing.T) {
	dir := t.TempDir()
	fm := NewFileManager(dir, "", false)
	fm.RetryDelay = time.Millisecond

	calls := 0
	rename = func(from, to string) error {
		calls++
		if calls < 3 {
			return errors.New("sharing violation")
		}
		return os.Rename(from, to)
	}
	t.Cleanup(func() { rename = os.Rename })

	path := filepath.Join(dir, "E00001.dat")
	if err := fm.WriteFileAtomic(path, []byte("x")); err != nil {
		t.Fatalf("WriteFileAtomic() = %v", err)
	}
	if calls != 3 {
		t.Errorf("rename calls = %d, want 3", calls)
	}

	calls = 0
	rename = func(string, string) error {
		calls++
		return errors.New("locked")
	}
	err := fm.WriteFileAtomic(filepath.Join(dir, "E00002.dat"), []byte("x"))
	if err == nil || !strings.Contains(err.Error(), "locked") {
		t.Fatalf("err = %v", err)
	}
	if calls != DefaultWriteRetries+1 {
		t.Errorf("rename calls = %d, want %d", calls, DefaultWriteRetries+1)
	}
	assertNoTempFiles(t, dir)
}

func TestArchiveOutputFile(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "archive")
	fm := NewFileManager(dir, archive, true)
	fm.Now = func() time.Time { return time.Date(2025, 3, 9, 8, 0, 0, 0, time.UTC) }

	src := filepath.Join(dir, "E00042.dat")
	os.WriteFile(src, []byte("data"), 0644)

	got, err := fm.ArchiveOutputFile(src)
	if err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(archive, "2025", "03", "09", "E00042.dat")
	if got != want {
		t.Errorf("archive path = %q, want %q", got, want)
	}
	if !FileExists(want) || !FileExists(src) {
		t.Error("archive must copy, not move")
	}

	fm.ArchiveOutputs = false
	if got, err := fm.ArchiveOutputFile(src); got != "" || err != nil {
		t.Errorf("disabled archive = %q, %v", got, err)
	}
}

func TestWriteAdvisoryLog(t *testing.T) {
	dir := t.TempDir()
	fm := NewFileManager(dir, "", false)
	out := filepath.Join(dir, "E00042.dat")

	if p, err := fm.WriteAdvisoryLog(out, nil); p != "" || err != nil {
		t.Errorf("empty log = %q, %v", p, err)
	}
	p, err := fm.WriteAdvisoryLog(out, []string{"Row 1: invalid date nope. Movement skipped."})
	if err != nil {
		t.Fatal(err)
	}
	if p != filepath.Join(dir, "E00042_advisories.txt") {
		t.Errorf("log path = %q", p)
	}
	data, _ := os.ReadFile(p)
	if !strings.Contains(string(data), "Row 1: invalid date nope. Movement skipped.\n") {
		t.Errorf("log = %q", data)
	}
}

func assertNoTempFiles(t *testing.T, dir string) {
	t.Helper()
	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Errorf("temporary file left behind: %s", e.Name())
		}
	}
}
