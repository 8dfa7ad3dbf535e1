// Package ingest implements the pipeline's first stage: reacting to a new
// upload in the ingest bucket by minting an AssetID and submitting the
// MediaConvert job that extracts the audio-only WAV proxy.
package ingest

import (
	"context"
	"fmt"
	"net/url"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/mediaconvert"
	"github.com/rs/zerolog/log"

	"github.com/fpang/video-bleep-pipeline/internal/asset"
	"github.com/fpang/video-bleep-pipeline/internal/emc"
	"github.com/fpang/video-bleep-pipeline/internal/metrics"
)

// JobSubmitter is the subset of the MediaConvert client used by this stage.
type JobSubmitter interface {
	CreateJob(ctx context.Context, in *mediaconvert.CreateJobInput, optFns ...func(*mediaconvert.Options)) (*mediaconvert.CreateJobOutput, error)
}

// Config carries the stage's static configuration.
type Config struct {
	ProxyBucket  string
	RoleARN      string
	WorkloadName string
	StageName    string

	// MintID overrides AssetID generation in tests. Nil means asset.NewID.
	MintID func() string
}

// Handler dispatches proxy-extraction jobs for uploaded sources.
type Handler struct {
	mc  JobSubmitter
	cfg Config
}

// NewHandler creates the stage handler.
func NewHandler(mc JobSubmitter, cfg Config) *Handler {
	if cfg.MintID == nil {
		cfg.MintID = asset.NewID
	}
	return &Handler{mc: mc, cfg: cfg}
}

// Handle processes one object-created notification. It returns the minted
// AssetID for logging; nothing downstream consumes the return value — the
// submitted job's completion event carries all forward context.
func (h *Handler) Handle(ctx context.Context, event events.S3Event) (string, error) {
	if len(event.Records) == 0 {
		return "", fmt.Errorf("ingest: event contains no S3 records")
	}
	record := event.Records[0]
	bucket := record.S3.Bucket.Name
	key := record.S3.Object.Key
	if bucket == "" || key == "" {
		return "", fmt.Errorf("ingest: event record missing bucket or key")
	}
	// S3 notifications URL-encode object keys.
	if decoded, err := url.QueryUnescape(key); err == nil {
		key = decoded
	}

	assetID := h.cfg.MintID()
	sourceURI := "s3://" + bucket + "/" + key
	destination := "s3://" + h.cfg.ProxyBucket + "/" + asset.ProxyAudioBase(assetID)

	logger := log.With().Str("assetId", assetID).Str("source", sourceURI).Logger()
	logger.Info().Msg("Dispatching audio proxy extraction")

	job, err := h.mc.CreateJob(ctx, &mediaconvert.CreateJobInput{
		Role:     aws.String(h.cfg.RoleARN),
		Settings: emc.ProxyJobSettings(sourceURI, destination),
		UserMetadata: map[string]string{
			emc.MetaAssetID:      assetID,
			emc.MetaSource:       sourceURI,
			emc.MetaSourceBucket: bucket,
			emc.MetaSourceKey:    key,
			emc.MetaDestination:  destination,
			emc.MetaStage:        h.cfg.StageName,
			emc.MetaWorkload:     h.cfg.WorkloadName,
		},
	})
	if err != nil {
		return assetID, fmt.Errorf("ingest: submit proxy job: %w", err)
	}

	status := ""
	jobID := ""
	if job.Job != nil {
		status = string(job.Job.Status)
		if job.Job.Id != nil {
			jobID = *job.Job.Id
		}
	}
	logger.Info().Str("jobId", jobID).Str("status", status).Msg("MediaConvert proxy job created")

	metrics.ForStage("ingest").
		Count("JobSubmitted", 1).
		Property("assetId", assetID).
		Flush()

	return assetID, nil
}
