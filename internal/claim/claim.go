// Package claim implements the filesystem token registry that lets
// concurrent, uncoordinated workers agree on which of them encodes a given
// input without a central broker (spec §4.7). Exclusivity rests entirely on
// O_EXCL file creation; a best-effort gofrs/flock lock layers on top as
// defense-in-depth on filesystems where O_EXCL's atomicity is less trusted
// (the spindle manifest's rationale for the same library, DESIGN.md).
package claim

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	drerrors "github.com/five82/distenc/internal/errors"
	"github.com/five82/distenc/internal/util"
)

// Outcome is the result of an Attempt.
type Outcome int

const (
	NotClaimed Outcome = iota
	Claimed
)

// Claim is an owned token: an open handle on the token file plus the
// scratch prefix the encoder driver will write its two-pass statistics
// files under.
type Claim struct {
	TokenPath     string
	ScratchPrefix string

	file *os.File
	lock *flock.Flock
}

// TokenPath computes the token file path for one input (spec §4.7 step 1).
func TokenPath(tokenDir, inputPath string) string {
	return filepath.Join(tokenDir, filepath.Base(inputPath)+".token")
}

// Attempt runs the claim protocol for one input (spec §4.7 steps 2-3):
// if the output already exists, it idempotently touches the token and
// returns NotClaimed without creating a scratch file; otherwise it tries
// an exclusive token create and, on success, stakes out a scratch prefix
// and writes the claim header line.
func Attempt(tokenDir, scratchDir, outputPath, inputPath string) (*Claim, Outcome, error) {
	tokenPath := TokenPath(tokenDir, inputPath)

	if util.FileExists(outputPath) {
		if err := touchToken(tokenPath); err != nil {
			return nil, NotClaimed, err
		}
		return nil, NotClaimed, nil
	}

	f, err := os.OpenFile(tokenPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return nil, NotClaimed, drerrors.NewClaimLostError(inputPath)
		}
		return nil, NotClaimed, drerrors.NewIOError(fmt.Sprintf("creating token %s", tokenPath), err)
	}

	lock := flock.New(tokenPath + ".lock")
	_, _ = lock.TryLock() // best-effort; O_EXCL above is the real protocol

	if _, err := fmt.Fprintf(f, "Claimed by PID %d at %d\n", os.Getpid(), time.Now().Unix()); err != nil {
		_ = f.Close()
		_ = lock.Unlock()
		return nil, NotClaimed, drerrors.NewIOError("writing claim header", err)
	}

	scratchPrefix := filepath.Join(scratchDir, uuid.NewString())
	scratchFile, err := os.Create(scratchPrefix)
	if err != nil {
		_ = f.Close()
		_ = lock.Unlock()
		return nil, NotClaimed, drerrors.NewIOError(fmt.Sprintf("creating scratch prefix %s", scratchPrefix), err)
	}
	_ = scratchFile.Close()

	return &Claim{TokenPath: tokenPath, ScratchPrefix: scratchPrefix, file: f, lock: lock}, Claimed, nil
}

// touchToken creates an empty token file if one does not already exist,
// the idempotent "output already exists" mark-done path (spec §4.7 step 2).
func touchToken(tokenPath string) error {
	f, err := os.OpenFile(tokenPath, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return drerrors.NewIOError(fmt.Sprintf("touching token %s", tokenPath), err)
	}
	return f.Close()
}

// Writer returns the open token file so the encoder driver can stream pass
// output directly into it, making the token double as the audit log.
func (c *Claim) Writer() *os.File {
	return c.file
}

// Complete releases the claim on success: the token stays at TokenPath,
// carrying the captured log as its own done-marker (spec §4.7 release
// protocol, "on COMPLETED"). Scratch files are always removed.
func (c *Claim) Complete() error {
	closeErr := c.file.Close()
	_ = c.lock.Unlock()
	cleanupErr := c.CleanupScratch()
	if closeErr != nil {
		return closeErr
	}
	return cleanupErr
}

// Fail releases the claim on failure: the token is renamed to the
// ".error_log" suffix to preserve the forensic record and free the claim
// name for a future retry (spec §4.7 release protocol, "on FAILED"). If the
// rename itself fails, the token is deleted outright so the name is still
// freed. Scratch files are always removed.
func (c *Claim) Fail() error {
	_ = c.file.Close()
	_ = c.lock.Unlock()

	errLogPath := c.TokenPath + ".error_log"
	renameErr := os.Rename(c.TokenPath, errLogPath)
	if renameErr != nil {
		_ = os.Remove(c.TokenPath)
	}
	cleanupErr := c.CleanupScratch()
	if cleanupErr != nil {
		return cleanupErr
	}
	return nil
}

// CleanupScratch removes every file matching "<ScratchPrefix>*" (spec §4.7
// "scratch files", the stats/stats.cutree files the encoder writes next to
// the prefix), run unconditionally regardless of outcome.
func (c *Claim) CleanupScratch() error {
	matches, err := filepath.Glob(c.ScratchPrefix + "*")
	if err != nil {
		return err
	}
	for _, m := range matches {
		if err := os.Remove(m); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}
