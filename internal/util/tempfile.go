package util

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sys/unix"
)

// MinScratchSpaceMB is the minimum free space a scratch or token directory
// should have before a job starts writing two-pass stats and loudness logs
// into it.
const MinScratchSpaceMB = 100

// TempDir is a directory under a job's scratch prefix with caller-driven
// cleanup, used for work that doesn't fit the single scratch-prefix file
// naming convention in internal/claim.
type TempDir struct {
	path string
}

// Path returns the directory's path.
func (t *TempDir) Path() string {
	return t.path
}

// Cleanup removes the directory and everything under it.
func (t *TempDir) Cleanup() error {
	if t.path == "" {
		return nil
	}
	return os.RemoveAll(t.path)
}

// TempFile is a created file with caller-driven cleanup.
type TempFile struct {
	*os.File
	path string
}

// Cleanup closes and removes the file.
func (t *TempFile) Cleanup() error {
	var closeErr error
	if t.File != nil {
		closeErr = t.Close()
	}
	if t.path == "" {
		return closeErr
	}
	if err := os.Remove(t.path); err != nil {
		return err
	}
	return closeErr
}

// EnsureDirectoryWritable checks that path exists, is a directory, and
// accepts a test file write. The scheduler calls this against the
// scratch and token directories before enumerating any input (spec §4.8:
// fail fast on an unwritable shared directory rather than partway through
// a batch).
func EnsureDirectoryWritable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("directory does not exist: %s", path)
		}
		return fmt.Errorf("cannot access directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", path)
	}

	testPath := filepath.Join(path, ".distenc_write_test")
	f, err := os.Create(testPath)
	if err != nil {
		return fmt.Errorf("directory is not writable: %s", path)
	}
	_ = f.Close()
	_ = os.Remove(testPath)

	return nil
}

// GetAvailableSpace returns the available disk space in bytes for path, or
// 0 if it cannot be determined.
func GetAvailableSpace(path string) uint64 {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return 0
	}
	return stat.Bavail * uint64(stat.Bsize)
}

// CheckDiskSpace warns through logger when the free space under path falls
// below MinScratchSpaceMB. A two-pass job writes a stats file and a
// loudness log into the scratch/token directories before the final encode
// even begins, so running low there surfaces well before the eventual
// ffmpeg ENOSPC. Returns false only when low space was actually detected;
// an undeterminable free-space reading is treated as fine.
func CheckDiskSpace(path string, logger func(format string, args ...any)) bool {
	available := GetAvailableSpace(path)
	if available == 0 {
		return true
	}

	availableMB := available / (1024 * 1024)
	if availableMB < MinScratchSpaceMB {
		if logger != nil {
			logger("low disk space in %s: %d MB available (minimum recommended: %d MB)",
				path, availableMB, MinScratchSpaceMB)
		}
		return false
	}
	return true
}

// CreateTempDir creates a uniquely-named directory under baseDir. The
// caller must call Cleanup when done with it.
func CreateTempDir(baseDir, prefix string) (*TempDir, error) {
	if err := EnsureDirectoryWritable(baseDir); err != nil {
		return nil, fmt.Errorf("create temp directory: %w", err)
	}
	CheckDiskSpace(baseDir, nil)

	suffix, err := generateRandomString(8)
	if err != nil {
		return nil, fmt.Errorf("create temp directory: %w", err)
	}

	dirPath := filepath.Join(baseDir, fmt.Sprintf("%s_%s", prefix, suffix))
	if err := os.MkdirAll(dirPath, 0o755); err != nil {
		return nil, fmt.Errorf("create temp directory in %s: %w", baseDir, err)
	}
	return &TempDir{path: dirPath}, nil
}

// CreateTempFile creates a uniquely-named file under dir. The caller must
// call Cleanup when done with it.
func CreateTempFile(dir, prefix, extension string) (*TempFile, error) {
	if err := EnsureDirectoryWritable(dir); err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}

	suffix, err := generateRandomString(8)
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("%s_%s.%s", prefix, suffix, extension))
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create temp file in %s: %w", dir, err)
	}
	return &TempFile{File: f, path: path}, nil
}

// CreateTempFilePath returns a uniquely-named path under dir without
// creating the file, retrying on the vanishingly unlikely chance of a
// collision.
func CreateTempFilePath(dir, prefix, extension string) (string, error) {
	if err := EnsureDirectoryWritable(dir); err != nil {
		return "", fmt.Errorf("create temp file path: %w", err)
	}

	suffix, err := generateRandomString(8)
	if err != nil {
		return "", fmt.Errorf("create temp file path: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("%s_%s.%s", prefix, suffix, extension))
	if _, err := os.Stat(path); err == nil {
		return CreateTempFilePath(dir, prefix, extension)
	}
	return path, nil
}

// CleanupStaleTempFiles removes top-level files under dir whose name
// starts with prefix+"_" and whose modification time is older than
// maxAgeHours. It reports how many files it removed. A worker that was
// interrupted mid-batch can leave scratch files behind; a later run with
// the same scratch directory sweeps them before claiming new work.
func CleanupStaleTempFiles(dir, prefix string, maxAgeHours uint64) (int, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return 0, nil
	}

	cleaned := 0
	maxAge := time.Duration(maxAgeHours) * time.Hour
	now := time.Now()
	prefixMatch := prefix + "_"

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != dir {
				return fs.SkipDir
			}
			return nil
		}
		if !strings.HasPrefix(d.Name(), prefixMatch) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if now.Sub(info.ModTime()) > maxAge {
			if err := os.Remove(path); err == nil {
				cleaned++
			}
		}
		return nil
	})
	if err != nil {
		return cleaned, fmt.Errorf("read %s for stale-file cleanup: %w", dir, err)
	}
	return cleaned, nil
}

func generateRandomString(length int) (string, error) {
	b := make([]byte, (length+1)/2)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b)[:length], nil
}
