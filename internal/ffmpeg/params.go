// Package ffmpeg builds and executes the transcoder's pass invocations
// (spec §4.5, §4.6).
package ffmpeg

import (
	"fmt"
	"strings"
)

// paramKV is one key=value pair from an x265-params string, order-preserved.
type paramKV struct {
	key   string
	value string
}

// parseX265Params splits a colon-separated key=value list, preserving
// first-seen order. Entries without "=" are kept as bare flags (value "").
func parseX265Params(s string) []paramKV {
	if s == "" {
		return nil
	}
	var out []paramKV
	for _, part := range strings.Split(s, ":") {
		if part == "" {
			continue
		}
		key, value, _ := strings.Cut(part, "=")
		out = append(out, paramKV{key: key, value: value})
	}
	return out
}

// MergeX265Params combines a preset's base x265_params with its
// add_x265_params override list (spec §4.5): both are parsed as
// colon-separated key=value pairs, and add's value wins on key collision,
// keeping the base's position for overridden keys (so a key appears exactly
// once in the result, per the preset-override invariant). zones, if
// non-empty, is prepended as the zones= entry.
func MergeX265Params(baseParams, addParams, zones string) string {
	base := parseX265Params(baseParams)
	add := parseX265Params(addParams)

	index := make(map[string]int, len(base))
	merged := make([]paramKV, 0, len(base)+len(add))
	for _, p := range base {
		index[p.key] = len(merged)
		merged = append(merged, p)
	}
	for _, p := range add {
		if i, ok := index[p.key]; ok {
			merged[i].value = p.value
			continue
		}
		index[p.key] = len(merged)
		merged = append(merged, p)
	}

	parts := make([]string, 0, len(merged)+1)
	if zones != "" {
		parts = append(parts, fmt.Sprintf("zones=%s", zones))
	}
	for _, p := range merged {
		if p.value == "" {
			parts = append(parts, p.key)
			continue
		}
		parts = append(parts, fmt.Sprintf("%s=%s", p.key, p.value))
	}
	return strings.Join(parts, ":")
}
