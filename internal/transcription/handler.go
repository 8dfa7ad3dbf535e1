// Package transcription implements the pipeline's second stage: reacting to
// the proxy-extraction completion by starting the Amazon Transcribe job that
// produces the word-level transcript and subtitle file.
package transcription

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/transcribe"
	"github.com/aws/aws-sdk-go-v2/service/transcribe/types"
	"github.com/rs/zerolog/log"

	"github.com/fpang/video-bleep-pipeline/internal/asset"
	"github.com/fpang/video-bleep-pipeline/internal/emc"
	"github.com/fpang/video-bleep-pipeline/internal/langconfig"
	"github.com/fpang/video-bleep-pipeline/internal/metrics"
	"github.com/fpang/video-bleep-pipeline/internal/s3util"
)

// JobStateChangeEvent is the EventBridge envelope of a MediaConvert
// "Job State Change" notification, reduced to the fields this stage consumes.
type JobStateChangeEvent struct {
	Detail JobStateChangeDetail `json:"detail"`
}

// JobStateChangeDetail carries the completed job's identity, its caller
// metadata (echoed back verbatim from submission), and its output locations.
type JobStateChangeDetail struct {
	Status             string              `json:"status"`
	JobID              string              `json:"jobId"`
	UserMetadata       map[string]string   `json:"userMetadata"`
	OutputGroupDetails []OutputGroupDetail `json:"outputGroupDetails"`
}

// OutputGroupDetail lists the outputs of one job output group.
type OutputGroupDetail struct {
	OutputDetails []OutputDetail `json:"outputDetails"`
}

// OutputDetail lists the file paths one output produced.
type OutputDetail struct {
	OutputFilePaths []string `json:"outputFilePaths"`
}

// TranscriptionStarter is the subset of the Transcribe client used by this stage.
type TranscriptionStarter interface {
	StartTranscriptionJob(ctx context.Context, in *transcribe.StartTranscriptionJobInput, optFns ...func(*transcribe.Options)) (*transcribe.StartTranscriptionJobOutput, error)
}

// Config carries the stage's static configuration.
type Config struct {
	ProxyBucket     string
	ResourcesBucket string
	AccessRoleARN   string
	WorkloadName    string
	IngestStageName string
}

// Handler dispatches transcription jobs for completed audio proxies.
type Handler struct {
	s3  s3util.API
	tr  TranscriptionStarter
	cfg Config
}

// NewHandler creates the stage handler.
func NewHandler(s3Client s3util.API, tr TranscriptionStarter, cfg Config) *Handler {
	return &Handler{s3: s3Client, tr: tr, cfg: cfg}
}

// Handle processes one MediaConvert completion notification. The EventBridge
// rule already filters on status and metadata tags; the handler re-checks
// both so a misconfigured rule cannot route a foreign workload's completion
// into this pipeline.
func (h *Handler) Handle(ctx context.Context, event JobStateChangeEvent) (string, error) {
	detail := event.Detail
	if detail.Status != "COMPLETE" {
		log.Info().Str("status", detail.Status).Str("jobId", detail.JobID).Msg("Ignoring non-complete MediaConvert event")
		return "", nil
	}
	if detail.UserMetadata[emc.MetaWorkload] != h.cfg.WorkloadName ||
		detail.UserMetadata[emc.MetaStage] != h.cfg.IngestStageName {
		log.Info().Str("jobId", detail.JobID).
			Str("workload", detail.UserMetadata[emc.MetaWorkload]).
			Str("stage", detail.UserMetadata[emc.MetaStage]).
			Msg("Ignoring completion from another workload")
		return "", nil
	}

	assetID := detail.UserMetadata[emc.MetaAssetID]
	if assetID == "" {
		return "", fmt.Errorf("transcription: event metadata missing %s", emc.MetaAssetID)
	}
	if detail.JobID == "" {
		return assetID, fmt.Errorf("transcription: event missing jobId")
	}
	proxyURI, err := firstOutputPath(detail)
	if err != nil {
		return assetID, err
	}

	logger := log.With().Str("assetId", assetID).Str("emcJobId", detail.JobID).Logger()
	logger.Info().Str("proxy", proxyURI).Msg("Audio proxy ready, dispatching transcription")

	cfg, err := h.loadLanguageConfig(ctx)
	if err != nil {
		return assetID, err
	}

	// The job name is the only channel carrying the MediaConvert job ID
	// forward to the redaction stage.
	jobName, err := asset.EncodeJobKey(assetID, detail.JobID)
	if err != nil {
		return assetID, fmt.Errorf("transcription: %w", err)
	}

	input := &transcribe.StartTranscriptionJobInput{
		TranscriptionJobName: aws.String(jobName),
		MediaFormat:          types.MediaFormatWav,
		Media:                &types.Media{MediaFileUri: aws.String(proxyURI)},
		OutputBucketName:     aws.String(h.cfg.ProxyBucket),
		OutputKey:            aws.String(asset.TranscriptKey(assetID)),
		JobExecutionSettings: &types.JobExecutionSettings{
			AllowDeferredExecution: aws.Bool(true),
			DataAccessRoleArn:      aws.String(h.cfg.AccessRoleARN),
		},
		Subtitles: &types.Subtitles{
			Formats: []types.SubtitleFormat{types.SubtitleFormatVtt},
		},
	}
	cfg.Apply(input)

	job, err := h.tr.StartTranscriptionJob(ctx, input)
	if err != nil {
		return assetID, fmt.Errorf("transcription: start job %s: %w", jobName, err)
	}

	status := ""
	if job.TranscriptionJob != nil {
		status = string(job.TranscriptionJob.TranscriptionJobStatus)
	}
	logger.Info().Str("jobName", jobName).Str("status", status).Msg("Transcription job created")

	metrics.ForStage("transcription").
		Count("JobSubmitted", 1).
		Property("assetId", assetID).
		Flush()

	return assetID, nil
}

// loadLanguageConfig fetches the language document from the resources bucket.
// A missing document is not an error: it means the default language with no
// vocabulary filter.
func (h *Handler) loadLanguageConfig(ctx context.Context) (*langconfig.Config, error) {
	raw, err := s3util.GetObjectBytes(ctx, h.s3, h.cfg.ResourcesBucket, langconfig.Key)
	if err != nil {
		if s3util.IsNotFound(err) {
			log.Info().Msg("No language config document, using defaults")
			return langconfig.Default(), nil
		}
		return nil, fmt.Errorf("transcription: load language config: %w", err)
	}
	cfg, err := langconfig.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("transcription: %w", err)
	}
	return cfg, nil
}

func firstOutputPath(detail JobStateChangeDetail) (string, error) {
	if len(detail.OutputGroupDetails) == 0 ||
		len(detail.OutputGroupDetails[0].OutputDetails) == 0 ||
		len(detail.OutputGroupDetails[0].OutputDetails[0].OutputFilePaths) == 0 {
		return "", fmt.Errorf("transcription: event missing output file path")
	}
	return detail.OutputGroupDetails[0].OutputDetails[0].OutputFilePaths[0], nil
}
