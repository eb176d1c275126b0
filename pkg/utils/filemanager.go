// =============================================================================
// Suenlace Generator - File Manager Utility
// =============================================================================
//
// This module provides file management utilities for the generator:
//   - Atomic write-and-rename of posting files
//   - Output file naming (Exxxxx.dat)
//   - Archive copies of produced files
//   - Advisory logs next to the output
//
// ATOMIC WRITES:
//   The posting file is written to a temporary file in the destination
//   directory, flushed to disk, then renamed over the target. A reader
//   either sees the previous file or the complete new one. On Windows the
//   accounting package may hold the target open while it imports, so the
//   rename is retried (10 times, 50 ms apart by default).
//
// ARCHIVAL STRATEGY:
//   - Output files are copied to archive_dir/YYYY/MM/DD/ when enabled
//   - The output directory always keeps the latest file
//
// =============================================================================

package utils

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ginjaninja78/suenlace/internal/codec"
	"github.com/google/uuid"
)

// Defaults for the rename retry loop.
const (
	DefaultWriteRetries    = 10
	DefaultWriteRetryDelay = 50 * time.Millisecond
)

// rename is swapped in tests to simulate a contended target.
var rename = os.Rename

// =============================================================================
// FILE MANAGER
// =============================================================================

// FileManager handles file operations for the generator.
type FileManager struct {
	// OutputDir is where posting files are written when no explicit path is given.
	OutputDir string

	// ArchiveDir receives dated copies of produced files.
	ArchiveDir string

	// ArchiveOutputs enables archive copies.
	ArchiveOutputs bool

	// Retries is how many times a failed rename is attempted again.
	Retries int

	// RetryDelay separates rename attempts.
	RetryDelay time.Duration

	// Now returns the current time (archive subdirectories, log headers).
	Now func() time.Time
}

// NewFileManager creates a FileManager with the default retry policy.
func NewFileManager(outputDir, archiveDir string, archiveOutputs bool) *FileManager {
	return &FileManager{
		OutputDir:      outputDir,
		ArchiveDir:     archiveDir,
		ArchiveOutputs: archiveOutputs,
		Retries:        DefaultWriteRetries,
		RetryDelay:     DefaultWriteRetryDelay,
		Now:            time.Now,
	}
}

// =============================================================================
// DIRECTORY MANAGEMENT
// =============================================================================

// EnsureDirectories creates the output directory and, when archiving is
// enabled, the archive directory.
func (fm *FileManager) EnsureDirectories() error {
	dirs := []string{fm.OutputDir}
	if fm.ArchiveOutputs {
		dirs = append(dirs, fm.ArchiveDir)
	}
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// =============================================================================
// OUTPUT FILE NAMING
// =============================================================================

// OutputFileName returns "E" followed by the five-digit company code, as
// written in every record, and ".dat".
func OutputFileName(companyCode string) string {
	return "E" + codec.Empresa5(companyCode) + ".dat"
}

// OutputPath resolves where a batch is written: out when given (a directory
// gets the conventional name appended), otherwise OutputDir.
func (fm *FileManager) OutputPath(out, companyCode string) string {
	if out == "" {
		return filepath.Join(fm.OutputDir, OutputFileName(companyCode))
	}
	if info, err := os.Stat(out); err == nil && info.IsDir() {
		return filepath.Join(out, OutputFileName(companyCode))
	}
	return out
}

// =============================================================================
// ATOMIC WRITE
// =============================================================================

// WriteFileAtomic writes data to path through a temporary sibling file and
// a rename. The temporary file is removed on failure.
func (fm *FileManager) WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp := filepath.Join(dir, "."+filepath.Base(path)+"."+uuid.NewString()+".tmp")
	if err := writeSynced(tmp, data); err != nil {
		os.Remove(tmp)
		return err
	}

	var err error
	for attempt := 0; attempt <= fm.Retries; attempt++ {
		if attempt > 0 {
			time.Sleep(fm.RetryDelay)
		}
		if err = rename(tmp, path); err == nil {
			return nil
		}
	}
	os.Remove(tmp)
	return fmt.Errorf("failed to replace %s after %d attempts: %w", path, fm.Retries+1, err)
}

func writeSynced(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("failed to write temporary file: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("failed to sync temporary file: %w", err)
	}
	return f.Close()
}

// =============================================================================
// FILE ARCHIVAL
// =============================================================================

// ArchiveOutputFile copies a produced file to ArchiveDir/YYYY/MM/DD/. It
// returns the archive path, or "" when archiving is disabled.
func (fm *FileManager) ArchiveOutputFile(filePath string) (string, error) {
	if !fm.ArchiveOutputs || fm.ArchiveDir == "" {
		return "", nil
	}

	now := fm.now()
	archivePath := filepath.Join(
		fm.ArchiveDir,
		fmt.Sprintf("%d", now.Year()),
		fmt.Sprintf("%02d", now.Month()),
		fmt.Sprintf("%02d", now.Day()),
		filepath.Base(filePath),
	)
	if err := os.MkdirAll(filepath.Dir(archivePath), 0755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}
	if err := copyFile(filePath, archivePath); err != nil {
		return "", fmt.Errorf("failed to copy file to archive: %w", err)
	}
	return archivePath, nil
}

// =============================================================================
// ADVISORY LOG
// =============================================================================

// AdvisoryLogPath is the log written next to outputPath.
func AdvisoryLogPath(outputPath string) string {
	base := strings.TrimSuffix(outputPath, filepath.Ext(outputPath))
	return base + "_advisories.txt"
}

// WriteAdvisoryLog writes every advisory message of a batch next to its
// output file. Nothing is written when there are no messages.
func (fm *FileManager) WriteAdvisoryLog(outputPath string, messages []string) (string, error) {
	if len(messages) == 0 {
		return "", nil
	}
	logPath := AdvisoryLogPath(outputPath)

	file, err := os.Create(logPath)
	if err != nil {
		return "", fmt.Errorf("failed to create advisory log: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	fmt.Fprintf(writer, "Posting file: %s\nGenerated:    %s\nAdvisories:   %d\n"+
		"================================================================================\n",
		filepath.Base(outputPath), fm.now().Format("2006-01-02 15:04:05"), len(messages))
	for _, m := range messages {
		writer.WriteString(m)
		writer.WriteByte('\n')
	}
	if err := writer.Flush(); err != nil {
		return "", fmt.Errorf("failed to flush advisory log: %w", err)
	}
	return logPath, nil
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

func (fm *FileManager) now() time.Time {
	if fm.Now == nil {
		return time.Now()
	}
	return fm.Now()
}

// copyFile copies a file from src to dst.
func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		return err
	}
	return destFile.Sync()
}

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
