package claim

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	drerrors "github.com/five82/distenc/internal/errors"
)

func TestAttempt_ClaimedCreatesTokenAndScratch(t *testing.T) {
	tokenDir := t.TempDir()
	scratchDir := t.TempDir()
	outDir := t.TempDir()

	c, outcome, err := Attempt(tokenDir, scratchDir, filepath.Join(outDir, "missing.mkv"), "input.mkv")
	if err != nil {
		t.Fatalf("Attempt() error = %v", err)
	}
	if outcome != Claimed {
		t.Fatalf("Attempt() outcome = %v, want Claimed", outcome)
	}
	defer c.Complete()

	if _, err := os.Stat(c.TokenPath); err != nil {
		t.Errorf("token file not created: %v", err)
	}
	if _, err := os.Stat(c.ScratchPrefix); err != nil {
		t.Errorf("scratch prefix not created: %v", err)
	}
}

func TestAttempt_OutputExistsShortCircuits(t *testing.T) {
	tokenDir := t.TempDir()
	scratchDir := t.TempDir()
	outDir := t.TempDir()

	outputPath := filepath.Join(outDir, "done.mkv")
	if err := os.WriteFile(outputPath, []byte("already encoded"), 0o644); err != nil {
		t.Fatal(err)
	}

	c, outcome, err := Attempt(tokenDir, scratchDir, outputPath, "input.mkv")
	if err != nil {
		t.Fatalf("Attempt() error = %v", err)
	}
	if outcome != NotClaimed {
		t.Fatalf("Attempt() outcome = %v, want NotClaimed", outcome)
	}
	if c != nil {
		t.Error("Attempt() with existing output should not return a Claim")
	}

	tokenPath := TokenPath(tokenDir, "input.mkv")
	if _, err := os.Stat(tokenPath); err != nil {
		t.Errorf("idempotent touch did not create the token: %v", err)
	}

	// A second attempt must stay idempotent: no error, still NotClaimed.
	if _, outcome2, err := Attempt(tokenDir, scratchDir, outputPath, "input.mkv"); err != nil || outcome2 != NotClaimed {
		t.Errorf("second Attempt() = (%v, %v), want (NotClaimed, nil)", outcome2, err)
	}
}

func TestAttempt_LostRaceReportsClaimLost(t *testing.T) {
	tokenDir := t.TempDir()
	scratchDir := t.TempDir()
	outDir := t.TempDir()
	outputPath := filepath.Join(outDir, "missing.mkv")

	first, outcome, err := Attempt(tokenDir, scratchDir, outputPath, "contested.mkv")
	if err != nil || outcome != Claimed {
		t.Fatalf("first Attempt() = (%v, %v), want (Claimed, nil)", outcome, err)
	}
	defer first.Complete()

	_, outcome2, err := Attempt(tokenDir, scratchDir, outputPath, "contested.mkv")
	if outcome2 != NotClaimed {
		t.Errorf("second Attempt() outcome = %v, want NotClaimed", outcome2)
	}
	if !drerrors.IsClaimLost(err) {
		t.Errorf("second Attempt() error = %v, want a ClaimLost error", err)
	}
}

func TestAttempt_ClaimExclusivity(t *testing.T) {
	// spec §8 "Claim exclusivity": K concurrent workers over the same token
	// directory and input, exactly one claims it.
	tokenDir := t.TempDir()
	scratchDir := t.TempDir()
	outDir := t.TempDir()
	outputPath := filepath.Join(outDir, "missing.mkv")

	const workers = 8
	var wg sync.WaitGroup
	var mu sync.Mutex
	claimed := 0

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c, outcome, err := Attempt(tokenDir, scratchDir, outputPath, "race.mkv")
			if err != nil && !drerrors.IsClaimLost(err) {
				t.Errorf("Attempt() error = %v", err)
				return
			}
			if outcome == Claimed {
				mu.Lock()
				claimed++
				mu.Unlock()
				_ = c.Complete()
			}
		}()
	}
	wg.Wait()

	if claimed != 1 {
		t.Errorf("claimed = %d, want exactly 1 of %d workers", claimed, workers)
	}
}

func TestClaim_FailRenamesToErrorLog(t *testing.T) {
	tokenDir := t.TempDir()
	scratchDir := t.TempDir()
	outDir := t.TempDir()

	c, outcome, err := Attempt(tokenDir, scratchDir, filepath.Join(outDir, "missing.mkv"), "input.mkv")
	if err != nil || outcome != Claimed {
		t.Fatalf("Attempt() = (%v, %v, %v), want Claimed", c, outcome, err)
	}

	tokenPath := c.TokenPath
	if err := c.Fail(); err != nil {
		t.Fatalf("Fail() error = %v", err)
	}

	if _, err := os.Stat(tokenPath); !os.IsNotExist(err) {
		t.Error("original token path should no longer exist after Fail()")
	}
	if _, err := os.Stat(tokenPath + ".error_log"); err != nil {
		t.Errorf(".error_log file not found: %v", err)
	}
}

func TestClaim_CompleteCleansUpScratchButKeepsToken(t *testing.T) {
	tokenDir := t.TempDir()
	scratchDir := t.TempDir()
	outDir := t.TempDir()

	c, outcome, err := Attempt(tokenDir, scratchDir, filepath.Join(outDir, "missing.mkv"), "input.mkv")
	if err != nil || outcome != Claimed {
		t.Fatalf("Attempt() = (%v, %v, %v), want Claimed", c, outcome, err)
	}

	// Simulate the encoder leaving stats files behind the scratch prefix.
	if err := os.WriteFile(c.ScratchPrefix+".stats", []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(c.ScratchPrefix+".stats.cutree", []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	tokenPath := c.TokenPath
	if err := c.Complete(); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}

	if _, err := os.Stat(tokenPath); err != nil {
		t.Errorf("token should remain after Complete(): %v", err)
	}
	matches, _ := filepath.Glob(c.ScratchPrefix + "*")
	if len(matches) != 0 {
		t.Errorf("scratch files not cleaned up: %v", matches)
	}
}

func TestTokenPath_UsesInputBasename(t *testing.T) {
	got := TokenPath("/tokens", "/videos/Show.S01E01.mkv")
	if !strings.HasSuffix(got, "Show.S01E01.mkv.token") {
		t.Errorf("TokenPath() = %q, want suffix Show.S01E01.mkv.token", got)
	}
}
