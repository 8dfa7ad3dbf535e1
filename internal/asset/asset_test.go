package asset

import (
	"errors"
	"strings"
	"testing"
)

func TestNewID_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := NewID()
		if id == "" {
			t.Fatal("empty asset ID")
		}
		if strings.Contains(id, JobKeySeparator) {
			t.Fatalf("asset ID %q contains the job key separator", id)
		}
		if seen[id] {
			t.Fatalf("duplicate asset ID %q", id)
		}
		seen[id] = true
	}
}

func TestJobKey_RoundTrip(t *testing.T) {
	cases := []struct {
		assetID string
		jobID   string
	}{
		{"7f1c9f0e-9f1d-4a7e-8f44-2f1b9a5d1c11", "1671234567890-abc12d"},
		{"asset", "job"},
		{"a_b", "c_d"}, // single underscores are fine, only the triple is reserved
	}
	for _, tc := range cases {
		key, err := EncodeJobKey(tc.assetID, tc.jobID)
		if err != nil {
			t.Fatalf("EncodeJobKey(%q, %q): %v", tc.assetID, tc.jobID, err)
		}
		gotAsset, gotJob, err := DecodeJobKey(key)
		if err != nil {
			t.Fatalf("DecodeJobKey(%q): %v", key, err)
		}
		if gotAsset != tc.assetID || gotJob != tc.jobID {
			t.Errorf("round trip of (%q, %q) = (%q, %q)", tc.assetID, tc.jobID, gotAsset, gotJob)
		}
	}
}

func TestEncodeJobKey_RejectsSeparatorInComponents(t *testing.T) {
	if _, err := EncodeJobKey("asset___x", "job"); !errors.Is(err, ErrMalformedJobKey) {
		t.Errorf("separator inside asset ID: got err %v, want ErrMalformedJobKey", err)
	}
	if _, err := EncodeJobKey("asset", "job___x"); !errors.Is(err, ErrMalformedJobKey) {
		t.Errorf("separator inside job ID: got err %v, want ErrMalformedJobKey", err)
	}
	if _, err := EncodeJobKey("", "job"); !errors.Is(err, ErrMalformedJobKey) {
		t.Errorf("empty asset ID: got err %v, want ErrMalformedJobKey", err)
	}
}

func TestDecodeJobKey_Malformed(t *testing.T) {
	cases := []string{
		"no-separator-at-all",
		"a___b___c", // two separators: ambiguous, must not best-effort split
		"___trailing-only",
		"leading-only___",
		"",
	}
	for _, key := range cases {
		if _, _, err := DecodeJobKey(key); !errors.Is(err, ErrMalformedJobKey) {
			t.Errorf("DecodeJobKey(%q): got err %v, want ErrMalformedJobKey", key, err)
		}
	}
}

func TestKeyLayout(t *testing.T) {
	const id = "f00dcafe-0000-4000-8000-000000000001"
	cases := []struct {
		got  string
		want string
	}{
		{ProxyAudioBase(id), "audio_proxy/" + id + "/audio"},
		{ProxyAudioKey(id), "audio_proxy/" + id + "/audio.wav"},
		{RedactedAudioKey(id), "audio_proxy/" + id + "/audio_redacted.wav"},
		{TranscriptKey(id), "transcriptions/" + id + "/transcription.json"},
		{SubtitleKey(id), "transcriptions/" + id + "/transcription.vtt"},
		{HLSDestination(id), id + "/hls/index"},
	}
	for _, tc := range cases {
		if tc.got != tc.want {
			t.Errorf("key layout: got %q, want %q", tc.got, tc.want)
		}
	}
}
