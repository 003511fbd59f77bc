package ffmpeg

import (
	"context"
	"io"
	"time"

	"github.com/five82/distenc/internal/process"
)

// RunPass executes one transcoder invocation built by BuildOnePassArgs,
// BuildAnalysisPassArgs, or BuildTwoPassArgs, streaming combined
// stdout+stderr to sink as it runs. The encoder driver passes the job's
// token file as sink so the pass's own diagnostic output becomes part of
// the audit trail (spec §4.6, §4.7).
func RunPass(ctx context.Context, timeout time.Duration, ffmpegPath string, args []string, sink io.Writer) (*process.Result, error) {
	return process.RunStreaming(ctx, timeout, sink, sink, ffmpegPath, args...)
}
