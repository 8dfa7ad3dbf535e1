package audio

import (
	"fmt"
	"sort"
)

// Span is a time range to redact, in integer milliseconds from the start of
// the clip.
type Span struct {
	StartMS int
	EndMS   int
}

// Splice returns a copy of src in which every span is replaced by beep
// content of exactly the same length, leaving the total duration untouched.
//
// Spans are sorted by start time and overlapping or touching spans are merged
// before splicing; an out-of-order or overlapping transcript therefore cannot
// produce a corrupted splice. Spans are clamped to the clip bounds. A beep
// shorter than a span is looped until the span is covered.
func Splice(src, beep *Clip, spans []Span) (*Clip, error) {
	if src.SampleRate != beep.SampleRate || src.NumChannels != beep.NumChannels {
		return nil, fmt.Errorf("splice: beep format %dHz/%dch does not match source %dHz/%dch",
			beep.SampleRate, beep.NumChannels, src.SampleRate, src.NumChannels)
	}
	if len(beep.samples) == 0 {
		return nil, fmt.Errorf("splice: beep clip is empty")
	}

	merged := normalizeSpans(spans, src.DurationMS())

	out := make([]int, 0, len(src.samples))
	prev := 0
	for _, sp := range merged {
		start := src.sampleOffset(sp.StartMS)
		end := src.sampleOffset(sp.EndMS)
		out = append(out, src.samples[prev:start]...)
		out = appendBeep(out, beep.samples, end-start)
		prev = end
	}
	out = append(out, src.samples[prev:]...)

	return &Clip{
		SampleRate:  src.SampleRate,
		NumChannels: src.NumChannels,
		BitDepth:    src.BitDepth,
		samples:     out,
	}, nil
}

// normalizeSpans clamps spans to [0, durationMS], drops empty ones, sorts by
// start time, and merges any that overlap or touch.
func normalizeSpans(spans []Span, durationMS int) []Span {
	cleaned := make([]Span, 0, len(spans))
	for _, sp := range spans {
		if sp.StartMS < 0 {
			sp.StartMS = 0
		}
		if sp.EndMS > durationMS {
			sp.EndMS = durationMS
		}
		if sp.EndMS <= sp.StartMS {
			continue
		}
		cleaned = append(cleaned, sp)
	}
	sort.Slice(cleaned, func(i, j int) bool { return cleaned[i].StartMS < cleaned[j].StartMS })

	var merged []Span
	for _, sp := range cleaned {
		if n := len(merged); n > 0 && sp.StartMS <= merged[n-1].EndMS {
			if sp.EndMS > merged[n-1].EndMS {
				merged[n-1].EndMS = sp.EndMS
			}
			continue
		}
		merged = append(merged, sp)
	}
	return merged
}

// appendBeep appends exactly n samples of beep content, looping the beep as
// many times as needed.
func appendBeep(dst, beep []int, n int) []int {
	for n > 0 {
		take := n
		if take > len(beep) {
			take = len(beep)
		}
		dst = append(dst, beep[:take]...)
		n -= take
	}
	return dst
}
