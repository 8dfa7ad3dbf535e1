// Package transcript models the Amazon Transcribe output document and
// extracts the masked-word time spans the redaction stage splices over.
package transcript

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// MaskToken is the literal the Transcribe vocabulary filter substitutes for a
// filtered word when the filter method is "mask".
const MaskToken = "***"

// ItemPronunciation marks a spoken-word item; punctuation items carry no
// timestamps and are never masked.
const ItemPronunciation = "pronunciation"

// Document is the top-level Transcribe output JSON.
type Document struct {
	JobName string  `json:"jobName"`
	Results Results `json:"results"`
}

// Results holds the transcript text and the word-level item list.
type Results struct {
	Transcripts []Text `json:"transcripts"`
	Items       []Item `json:"items"`
}

// Text is one full-transcript string.
type Text struct {
	Transcript string `json:"transcript"`
}

// Item is a single timed transcript entry. Timestamps are decimal-second
// strings ("12.34"), present only on pronunciation items.
type Item struct {
	Type         string        `json:"type"`
	StartTime    string        `json:"start_time"`
	EndTime      string        `json:"end_time"`
	Alternatives []Alternative `json:"alternatives"`
}

// Alternative is one candidate reading of an item. Transcribe puts the chosen
// one first.
type Alternative struct {
	Confidence string `json:"confidence"`
	Content    string `json:"content"`
}

// Span is a masked time range in integer milliseconds.
type Span struct {
	StartMS int
	EndMS   int
}

// ContainsMask reports whether the raw transcript document mentions the mask
// token anywhere. The redaction stage uses this on the undecoded bytes as its
// fast path: a clean transcript means the proxy audio can be reused untouched.
func ContainsMask(raw []byte) bool {
	return bytes.Contains(raw, []byte(MaskToken))
}

// Parse decodes a raw Transcribe output document.
func Parse(raw []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse transcript: %w", err)
	}
	return &doc, nil
}

// MaskedSpans returns the time span of every masked pronunciation item, in
// document order. Seconds are converted to milliseconds by truncation, which
// matches Transcribe's own millisecond granularity.
func (d *Document) MaskedSpans() ([]Span, error) {
	var spans []Span
	for _, item := range d.Results.Items {
		if item.Type != ItemPronunciation {
			continue
		}
		if len(item.Alternatives) == 0 || item.Alternatives[0].Content != MaskToken {
			continue
		}
		start, err := millis(item.StartTime)
		if err != nil {
			return nil, fmt.Errorf("masked item start_time: %w", err)
		}
		end, err := millis(item.EndTime)
		if err != nil {
			return nil, fmt.Errorf("masked item end_time: %w", err)
		}
		spans = append(spans, Span{StartMS: start, EndMS: end})
	}
	return spans, nil
}

// millis converts a decimal-second string to truncated integer milliseconds.
func millis(sec string) (int, error) {
	f, err := strconv.ParseFloat(sec, 64)
	if err != nil {
		return 0, fmt.Errorf("timestamp %q: %w", sec, err)
	}
	return int(f * 1000), nil
}
