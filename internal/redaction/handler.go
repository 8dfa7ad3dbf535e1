// Package redaction implements the pipeline's third stage, the algorithmic
// heart: reacting to a completed transcription by splicing beep audio over
// every masked word in the proxy waveform, then dispatching the final HLS
// packaging job.
package redaction

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/mediaconvert"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/fpang/video-bleep-pipeline/internal/asset"
	"github.com/fpang/video-bleep-pipeline/internal/audio"
	"github.com/fpang/video-bleep-pipeline/internal/emc"
	"github.com/fpang/video-bleep-pipeline/internal/metrics"
	"github.com/fpang/video-bleep-pipeline/internal/s3util"
	"github.com/fpang/video-bleep-pipeline/internal/transcript"
)

// BeepKey is the fixed location of the beep tone in the resources bucket.
const BeepKey = "Audio/beep.wav"

// JobStateChangeEvent is the EventBridge envelope of a Transcribe
// "Transcribe Job State Change" notification. The job name is the compound
// key; it is the only correlation data this stage receives.
type JobStateChangeEvent struct {
	Detail JobStateChangeDetail `json:"detail"`
}

// JobStateChangeDetail carries the transcription job's name and status.
type JobStateChangeDetail struct {
	TranscriptionJobName   string `json:"TranscriptionJobName"`
	TranscriptionJobStatus string `json:"TranscriptionJobStatus"`
}

// JobAPI is the subset of the MediaConvert client used by this stage: GetJob
// to recover the ingest job's metadata, CreateJob to submit the packaging job.
type JobAPI interface {
	GetJob(ctx context.Context, in *mediaconvert.GetJobInput, optFns ...func(*mediaconvert.Options)) (*mediaconvert.GetJobOutput, error)
	CreateJob(ctx context.Context, in *mediaconvert.CreateJobInput, optFns ...func(*mediaconvert.Options)) (*mediaconvert.CreateJobOutput, error)
}

// Config carries the stage's static configuration.
type Config struct {
	ProxyBucket       string
	DestinationBucket string
	ResourcesBucket   string
	RoleARN           string

	// ScratchDir holds downloaded and assembled waveforms during a splice.
	// Empty means the system temp dir (/tmp on Lambda).
	ScratchDir string
}

// Handler performs the splice-and-beep redaction and final job dispatch.
type Handler struct {
	s3  s3util.API
	mc  JobAPI
	cfg Config
}

// NewHandler creates the stage handler.
func NewHandler(s3Client s3util.API, mc JobAPI, cfg Config) *Handler {
	return &Handler{s3: s3Client, mc: mc, cfg: cfg}
}

// Handle processes one transcription completion. It returns the recovered
// AssetID for logging and failure reporting.
func (h *Handler) Handle(ctx context.Context, event JobStateChangeEvent) (string, error) {
	detail := event.Detail
	if detail.TranscriptionJobStatus != "COMPLETED" {
		log.Info().Str("status", detail.TranscriptionJobStatus).
			Str("jobName", detail.TranscriptionJobName).
			Msg("Ignoring non-completed transcription event")
		return "", nil
	}

	assetID, emcJobID, err := asset.DecodeJobKey(detail.TranscriptionJobName)
	if err != nil {
		return "", fmt.Errorf("redaction: %w", err)
	}
	logger := log.With().Str("assetId", assetID).Str("emcJobId", emcJobID).Logger()

	// The ingest job's metadata carries the original source reference; no
	// other persisted mapping exists.
	sourceURI, err := h.lookupSource(ctx, emcJobID)
	if err != nil {
		return assetID, err
	}

	rawTranscript, err := s3util.GetObjectBytes(ctx, h.s3, h.cfg.ProxyBucket, asset.TranscriptKey(assetID))
	if err != nil {
		return assetID, fmt.Errorf("redaction: load transcript: %w", err)
	}

	rec := metrics.ForStage("redaction").Property("assetId", assetID)

	var redactedKey string
	if !transcript.ContainsMask(rawTranscript) {
		// Fast path: clean transcript, reuse the proxy untouched. This skips
		// the decode/encode entirely, which is the expected-common case.
		logger.Info().Msg("No masked words in transcript, reusing original audio")
		redactedKey = asset.ProxyAudioKey(assetID)
		rec.Count("FastPath", 1)
	} else {
		doc, err := transcript.Parse(rawTranscript)
		if err != nil {
			return assetID, fmt.Errorf("redaction: %w", err)
		}
		spans, err := doc.MaskedSpans()
		if err != nil {
			return assetID, fmt.Errorf("redaction: %w", err)
		}
		logger.Info().Int("maskedWords", len(spans)).Msg("Splicing beep over masked words")

		spliceStart := time.Now()
		redactedKey, err = h.spliceAndUpload(ctx, assetID, spans)
		if err != nil {
			return assetID, err
		}
		rec.Count("MaskedWords", len(spans)).Duration("SpliceDuration", time.Since(spliceStart))
	}

	if err := h.submitPackagingJob(ctx, assetID, sourceURI, redactedKey, logger); err != nil {
		return assetID, err
	}

	rec.Count("JobSubmitted", 1).Flush()
	return assetID, nil
}

// lookupSource re-fetches the ingest MediaConvert job and reads the original
// source URI from its metadata.
func (h *Handler) lookupSource(ctx context.Context, emcJobID string) (string, error) {
	job, err := h.mc.GetJob(ctx, &mediaconvert.GetJobInput{Id: aws.String(emcJobID)})
	if err != nil {
		return "", fmt.Errorf("redaction: get ingest job %s: %w", emcJobID, err)
	}
	if job.Job == nil || job.Job.UserMetadata[emc.MetaSource] == "" {
		return "", fmt.Errorf("redaction: ingest job %s metadata missing %s", emcJobID, emc.MetaSource)
	}
	return job.Job.UserMetadata[emc.MetaSource], nil
}

// spliceAndUpload downloads the proxy and beep waveforms, replaces every
// masked span with beep content, and uploads the assembled WAV to the
// redacted-audio key.
func (h *Handler) spliceAndUpload(ctx context.Context, assetID string, spans []transcript.Span) (string, error) {
	dir, err := os.MkdirTemp(h.cfg.ScratchDir, "redact-")
	if err != nil {
		return "", fmt.Errorf("redaction: scratch dir: %w", err)
	}
	defer os.RemoveAll(dir)

	srcPath := filepath.Join(dir, "source.wav")
	beepPath := filepath.Join(dir, "beep.wav")
	outPath := filepath.Join(dir, "audio_redacted.wav")

	if err := s3util.DownloadToFile(ctx, h.s3, h.cfg.ProxyBucket, asset.ProxyAudioKey(assetID), srcPath); err != nil {
		return "", fmt.Errorf("redaction: fetch proxy audio: %w", err)
	}
	if err := s3util.DownloadToFile(ctx, h.s3, h.cfg.ResourcesBucket, BeepKey, beepPath); err != nil {
		return "", fmt.Errorf("redaction: fetch beep resource: %w", err)
	}

	proxy, err := audio.DecodeWAVFile(srcPath)
	if err != nil {
		return "", fmt.Errorf("redaction: proxy audio: %w", err)
	}
	beep, err := audio.DecodeWAVFile(beepPath)
	if err != nil {
		return "", fmt.Errorf("redaction: beep resource: %w", err)
	}

	audioSpans := make([]audio.Span, len(spans))
	for i, sp := range spans {
		audioSpans[i] = audio.Span{StartMS: sp.StartMS, EndMS: sp.EndMS}
	}
	redacted, err := audio.Splice(proxy, beep, audioSpans)
	if err != nil {
		return "", fmt.Errorf("redaction: %w", err)
	}

	if err := redacted.EncodeWAVFile(outPath); err != nil {
		return "", fmt.Errorf("redaction: %w", err)
	}
	key := asset.RedactedAudioKey(assetID)
	if err := s3util.UploadFile(ctx, h.s3, h.cfg.ProxyBucket, key, outPath, "audio/wav"); err != nil {
		return "", fmt.Errorf("redaction: upload redacted audio: %w", err)
	}
	return key, nil
}

// submitPackagingJob dispatches the final MediaConvert job that muxes the
// source video with the redacted audio and captions into the HLS package.
func (h *Handler) submitPackagingJob(ctx context.Context, assetID, sourceURI, redactedKey string, logger zerolog.Logger) error {
	destination := "s3://" + h.cfg.DestinationBucket + "/" + asset.HLSDestination(assetID)
	audioURI := "s3://" + h.cfg.ProxyBucket + "/" + redactedKey
	captionURI := "s3://" + h.cfg.ProxyBucket + "/" + asset.SubtitleKey(assetID)

	job, err := h.mc.CreateJob(ctx, &mediaconvert.CreateJobInput{
		Role:     aws.String(h.cfg.RoleARN),
		Settings: emc.PackageJobSettings(sourceURI, audioURI, captionURI, destination),
		UserMetadata: map[string]string{
			emc.MetaAssetID:     assetID,
			emc.MetaDestination: destination,
		},
	})
	if err != nil {
		return fmt.Errorf("redaction: submit packaging job: %w", err)
	}

	status := ""
	if job.Job != nil {
		status = string(job.Job.Status)
	}
	logger.Info().Str("destination", destination).Str("status", status).Msg("MediaConvert packaging job created")
	return nil
}
