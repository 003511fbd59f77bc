package validation

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/five82/distenc/internal/process"
)

// defaultAnalyzerTimeout bounds the one-shot ffprobe call validation makes
// against the committed output.
const defaultAnalyzerTimeout = 60 * time.Second

// hdrColorTransfers lists the color_transfer tag values ffprobe reports for
// PQ and HLG content, mirroring the Dolby Vision/HDR check the encode
// pipeline runs before committing (spec §4.2's HasHDRDV detection covers
// the DOVI side-data case; this covers the plain HDR10/HLG case on output).
var hdrColorTransfers = map[string]bool{
	"smpte2084":    true,
	"arib-std-b67": true,
}

// DefaultAnalyzer implements MediaAnalyzer with a single ffprobe call.
type DefaultAnalyzer struct {
	FFprobePath string
}

// NewDefaultAnalyzer creates a DefaultAnalyzer that invokes the named
// ffprobe binary.
func NewDefaultAnalyzer(ffprobePath string) *DefaultAnalyzer {
	return &DefaultAnalyzer{FFprobePath: ffprobePath}
}

type analyzerProbeOutput struct {
	Format  analyzerProbeFormat   `json:"format"`
	Streams []analyzerProbeStream `json:"streams"`
}

type analyzerProbeFormat struct {
	Duration string `json:"duration"`
}

type analyzerProbeStream struct {
	CodecType        string `json:"codec_type"`
	CodecName        string `json:"codec_name"`
	Width            uint32 `json:"width"`
	Height           uint32 `json:"height"`
	PixFmt           string `json:"pix_fmt"`
	BitsPerRawSample string `json:"bits_per_raw_sample"`
	ColorTransfer    string `json:"color_transfer"`
	Channels         int    `json:"channels"`
}

func (a *DefaultAnalyzer) probe(path string) (*analyzerProbeOutput, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultAnalyzerTimeout)
	defer cancel()
	res, err := process.Run(ctx, defaultAnalyzerTimeout, a.FFprobePath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)
	if err != nil {
		return nil, err
	}
	var out analyzerProbeOutput
	if err := json.Unmarshal(res.Stdout, &out); err != nil {
		return nil, fmt.Errorf("parse ffprobe output for %s: %w", path, err)
	}
	return &out, nil
}

func (a *DefaultAnalyzer) primaryVideoStream(out *analyzerProbeOutput) *analyzerProbeStream {
	for i := range out.Streams {
		if out.Streams[i].CodecType == "video" {
			return &out.Streams[i]
		}
	}
	return nil
}

// GetVideoProperties returns video stream properties using ffprobe.
func (a *DefaultAnalyzer) GetVideoProperties(path string) (*AnalyzerVideoProperties, error) {
	out, err := a.probe(path)
	if err != nil {
		return nil, err
	}
	v := a.primaryVideoStream(out)
	if v == nil {
		return nil, fmt.Errorf("no video stream in %s", path)
	}
	props := &AnalyzerVideoProperties{Width: v.Width, Height: v.Height}
	if d, err := strconv.ParseFloat(out.Format.Duration, 64); err == nil {
		props.DurationSecs = d
	}
	if depth, ok := bitDepthFromStream(v); ok {
		props.BitDepth = &depth
	}
	return props, nil
}

func bitDepthFromStream(v *analyzerProbeStream) (uint8, bool) {
	if v.BitsPerRawSample != "" {
		if n, err := strconv.Atoi(v.BitsPerRawSample); err == nil {
			return uint8(n), true
		}
	}
	return 0, false
}

// GetAudioStreams returns audio stream information using ffprobe.
func (a *DefaultAnalyzer) GetAudioStreams(path string) ([]AnalyzerAudioStream, error) {
	out, err := a.probe(path)
	if err != nil {
		return nil, err
	}
	var result []AnalyzerAudioStream
	for _, s := range out.Streams {
		if s.CodecType != "audio" {
			continue
		}
		result = append(result, AnalyzerAudioStream{Codec: s.CodecName, Channels: s.Channels})
	}
	return result, nil
}

// GetVideoCodec returns the video codec name using ffprobe.
func (a *DefaultAnalyzer) GetVideoCodec(path string) (string, error) {
	out, err := a.probe(path)
	if err != nil {
		return "", err
	}
	v := a.primaryVideoStream(out)
	if v == nil {
		return "", fmt.Errorf("no video stream in %s", path)
	}
	return v.CodecName, nil
}

// GetHDRInfo returns HDR detection information derived from the video
// stream's color_transfer tag.
func (a *DefaultAnalyzer) GetHDRInfo(path string) (*AnalyzerHDRInfo, error) {
	out, err := a.probe(path)
	if err != nil {
		return nil, err
	}
	v := a.primaryVideoStream(out)
	if v == nil {
		return nil, fmt.Errorf("no video stream in %s", path)
	}
	info := &AnalyzerHDRInfo{IsHDR: hdrColorTransfers[v.ColorTransfer]}
	if depth, ok := bitDepthFromStream(v); ok {
		info.BitDepth = &depth
	}
	return info, nil
}

// IsHDRDetectionAvailable always returns true: HDR is read from the same
// ffprobe call as everything else, with no optional external tool.
func (a *DefaultAnalyzer) IsHDRDetectionAvailable() bool {
	return true
}
