package asset

// S3 key layout for per-asset artifacts. These paths are the inter-stage
// contract: MediaConvert writes the proxy where ProxyAudioKey points (it
// appends the .wav extension itself, so the job destination uses
// ProxyAudioBase), and Transcribe writes the transcript and subtitle files to
// the keys the transcription stage passes as OutputKey.
const (
	proxyPrefix         = "audio_proxy/"
	transcriptionPrefix = "transcriptions/"
)

// ProxyAudioBase is the extensionless MediaConvert file-group destination for
// the audio proxy of the given asset.
func ProxyAudioBase(assetID string) string {
	return proxyPrefix + assetID + "/audio"
}

// ProxyAudioKey is the key of the extracted WAV proxy.
func ProxyAudioKey(assetID string) string {
	return proxyPrefix + assetID + "/audio.wav"
}

// RedactedAudioKey is the key of the beep-spliced WAV produced by the
// redaction stage.
func RedactedAudioKey(assetID string) string {
	return proxyPrefix + assetID + "/audio_redacted.wav"
}

// TranscriptKey is the key of the machine-readable Transcribe output.
func TranscriptKey(assetID string) string {
	return transcriptionPrefix + assetID + "/transcription.json"
}

// SubtitleKey is the key of the WebVTT subtitle file Transcribe writes
// alongside the transcript.
func SubtitleKey(assetID string) string {
	return transcriptionPrefix + assetID + "/transcription.vtt"
}

// HLSDestination is the extensionless MediaConvert HLS-group destination for
// the final packaged asset in the destination bucket.
func HLSDestination(assetID string) string {
	return assetID + "/hls/index"
}
