// Package main provides the Lambda entry point for the pipeline's third
// stage: redaction and final packaging.
//
// This Lambda is triggered by EventBridge on Transcribe "Transcribe Job
// State Change" COMPLETED events. It decodes the compound job name back into
// the AssetID and ingest job id, splices the beep tone over every masked word
// in the audio proxy (or reuses the proxy untouched when the transcript is
// clean), and submits the MediaConvert job that packages the source video
// with the redacted audio and subtitles into the final HLS rendition.
//
// Memory: 1 GB (whole waveforms are held in memory during the splice)
// Timeout: 5 minutes
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/rs/zerolog/log"

	"github.com/fpang/video-bleep-pipeline/internal/lambdaboot"
	"github.com/fpang/video-bleep-pipeline/internal/logging"
	"github.com/fpang/video-bleep-pipeline/internal/pipeline"
	"github.com/fpang/video-bleep-pipeline/internal/redaction"
)

const stageName = "redaction"

var coldStart = true

// Initialized at cold start.
var (
	stageHandler *redaction.Handler
	errorPolicy  pipeline.ErrorPolicy
	reporter     *pipeline.FailureReporter
)

func init() {
	initStart := time.Now()
	logging.Init()

	awsClients := lambdaboot.InitAWS()
	s3Client := lambdaboot.InitS3(awsClients.Config)
	mcClient := lambdaboot.InitMediaConvert(awsClients.Config)

	proxyBucket := lambdaboot.RequireEnv("PROXY_BUCKET")
	destinationBucket := lambdaboot.RequireEnv("DESTINATION_BUCKET")
	resourcesBucket := lambdaboot.RequireEnv("RESOURCES_BUCKET")
	roleARN := lambdaboot.RoleARN(awsClients.SSM, "EMC_ROLE_ARN", "EMC_ROLE_PARAM")

	stageHandler = redaction.NewHandler(s3Client, mcClient, redaction.Config{
		ProxyBucket:       proxyBucket,
		DestinationBucket: destinationBucket,
		ResourcesBucket:   resourcesBucket,
		RoleARN:           roleARN,
	})

	errorPolicy = pipeline.PolicyFromEnv()
	if bus := os.Getenv("PIPELINE_EVENT_BUS"); bus != "" {
		reporter = pipeline.NewFailureReporter(eventbridge.NewFromConfig(awsClients.Config), bus)
	}

	lambdaboot.StartupLog("redact-lambda", initStart).
		S3Bucket("proxyBucket", proxyBucket).
		S3Bucket("destinationBucket", destinationBucket).
		S3Bucket("resourcesBucket", resourcesBucket).
		Role("mediaConvert", roleARN).
		Config("errorPolicy", fmt.Sprint(errorPolicy)).
		Log()
}

func main() {
	lambda.Start(handler)
}

func handler(ctx context.Context, event redaction.JobStateChangeEvent) (pipeline.Response, error) {
	if coldStart {
		coldStart = false
		log.Info().Str("function", "redact-lambda").Msg("Cold start — first invocation")
	}

	assetID, err := stageHandler.Handle(ctx, event)
	if err := pipeline.Finish(ctx, stageName, assetID, err, errorPolicy, reporter); err != nil {
		return pipeline.Response{}, err
	}
	return pipeline.OK("Redaction complete, packaging job submitted"), nil
}
