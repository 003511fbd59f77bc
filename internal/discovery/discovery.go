// Package discovery resolves the -i/--inputs command-line paths into a
// concrete, ordered list of input files for the batch scheduler (spec §4.8:
// "enumerate input paths, dropping non-files with a warning").
package discovery

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/five82/distenc/internal/util"
)

// ErrNoInputFiles indicates every -i/--inputs path was dropped, or none
// resolved to a video file.
var ErrNoInputFiles = errors.New("no video files found among the given -i/--inputs paths")

// Logger receives one warning per dropped input path.
type Logger interface {
	Warn(format string, args ...any)
}

// Result is the enumerated input set plus a record of what was dropped.
type Result struct {
	Files   []string
	Dropped []string
}

// Enumerate resolves each raw -i/--inputs argument to an input file.
// A directory argument contributes every video file directly inside it
// (non-recursive); a file argument contributes itself if it exists and is
// a file. Anything else — a missing path, a non-video file given
// explicitly, a path that is neither file nor directory — is dropped and
// logged as a warning rather than failing the batch. The returned file
// list is sorted alphabetically by filename and deduplicated.
func Enumerate(paths []string, logger Logger) Result {
	seen := make(map[string]bool)
	var result Result

	for _, raw := range paths {
		switch {
		case util.DirectoryExists(raw):
			for _, f := range filesInDir(raw) {
				addUnique(&result, seen, f)
			}
		case util.FileExists(raw):
			if util.IsVideoFile(raw) {
				addUnique(&result, seen, raw)
			} else {
				result.Dropped = append(result.Dropped, raw)
				warn(logger, "skipping %s: not a recognized video file", raw)
			}
		default:
			result.Dropped = append(result.Dropped, raw)
			warn(logger, "skipping %s: not a file or directory", raw)
		}
	}

	sort.Slice(result.Files, func(i, j int) bool {
		return strings.ToLower(filepath.Base(result.Files[i])) < strings.ToLower(filepath.Base(result.Files[j]))
	})

	return result
}

func filesInDir(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		full := filepath.Join(dir, entry.Name())
		if util.IsVideoFile(full) {
			files = append(files, full)
		}
	}
	return files
}

func addUnique(result *Result, seen map[string]bool, path string) {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	if seen[abs] {
		return
	}
	seen[abs] = true
	result.Files = append(result.Files, path)
}

func warn(logger Logger, format string, args ...any) {
	if logger != nil {
		logger.Warn(format, args...)
	}
}
