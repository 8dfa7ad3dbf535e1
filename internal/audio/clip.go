// Package audio implements the in-process waveform surgery for the redaction
// stage: decoding WAV files into sample buffers, splicing beep content over
// masked time spans, and encoding the result back to WAV.
package audio

import (
	"fmt"
	"io"
	"os"

	gaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Clip is a fully decoded PCM waveform. Samples are interleaved by channel,
// as stored in the WAV data chunk.
type Clip struct {
	SampleRate  int
	NumChannels int
	BitDepth    int
	samples     []int
}

// NewClip builds a clip from interleaved samples.
func NewClip(sampleRate, numChannels, bitDepth int, samples []int) *Clip {
	return &Clip{
		SampleRate:  sampleRate,
		NumChannels: numChannels,
		BitDepth:    bitDepth,
		samples:     samples,
	}
}

// Samples exposes the interleaved sample data. The slice is shared, not copied.
func (c *Clip) Samples() []int {
	return c.samples
}

// DecodeWAV reads an entire WAV stream into memory. The redaction stage works
// on full-length proxy audio, so the whole waveform is decoded at once; the
// Lambda is sized accordingly.
func DecodeWAV(r io.ReadSeeker) (*Clip, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("decode wav: not a valid WAV stream")
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decode wav: %w", err)
	}
	if buf.Format == nil || buf.Format.SampleRate <= 0 || buf.Format.NumChannels <= 0 {
		return nil, fmt.Errorf("decode wav: missing format information")
	}
	return &Clip{
		SampleRate:  buf.Format.SampleRate,
		NumChannels: buf.Format.NumChannels,
		BitDepth:    int(dec.BitDepth),
		samples:     buf.Data,
	}, nil
}

// DecodeWAVFile decodes a WAV file from disk.
func DecodeWAVFile(path string) (*Clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return DecodeWAV(f)
}

// EncodeWAV writes the clip as a PCM WAV stream. The encoder seeks back to
// patch chunk sizes, hence the WriteSeeker requirement; callers encode to a
// scratch file, never directly to a network stream.
func (c *Clip) EncodeWAV(w io.WriteSeeker) error {
	enc := wav.NewEncoder(w, c.SampleRate, c.BitDepth, c.NumChannels, 1)
	buf := &gaudio.IntBuffer{
		Format:         &gaudio.Format{NumChannels: c.NumChannels, SampleRate: c.SampleRate},
		SourceBitDepth: c.BitDepth,
		Data:           c.samples,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("encode wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finalize wav: %w", err)
	}
	return nil
}

// EncodeWAVFile writes the clip to a WAV file on disk.
func (c *Clip) EncodeWAVFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return c.EncodeWAV(f)
}

// DurationMS is the clip length in truncated milliseconds.
func (c *Clip) DurationMS() int {
	if c.NumChannels == 0 || c.SampleRate == 0 {
		return 0
	}
	frames := len(c.samples) / c.NumChannels
	return frames * 1000 / c.SampleRate
}

// NumSamples is the total interleaved sample count.
func (c *Clip) NumSamples() int {
	return len(c.samples)
}

// sampleOffset converts a millisecond position to an interleaved sample
// offset, clamped to the clip length and aligned to a frame boundary.
func (c *Clip) sampleOffset(ms int) int {
	off := ms * c.SampleRate / 1000 * c.NumChannels
	if off > len(c.samples) {
		return len(c.samples)
	}
	return off
}
