// Package main provides the Lambda entry point for the pipeline's second
// stage: dispatching transcription.
//
// This Lambda is triggered by EventBridge on MediaConvert "Job State Change"
// COMPLETE events. It filters for this workload's ingest jobs, then starts
// the Amazon Transcribe job against the extracted audio proxy. The Transcribe
// job name is the compound {AssetID}___{jobId} key that carries correlation
// forward to the redaction stage.
//
// Memory: 128 MB
// Timeout: 30 seconds
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
	"github.com/fpang/video-bleep-pipeline/internal/transcription"
)

const stageName = "transcription"

var coldStart = true

// Initialized at cold start.
var (
	stageHandler *transcription.Handler
	errorPolicy  pipeline.ErrorPolicy
	reporter     *pipeline.FailureReporter
)

func init() {
	initStart := time.Now()
	logging.Init()

	awsClients := lambdaboot.InitAWS()
	s3Client := lambdaboot.InitS3(awsClients.Config)
	trClient := lambdaboot.InitTranscribe(awsClients.Config)

	proxyBucket := lambdaboot.RequireEnv("PROXY_BUCKET")
	resourcesBucket := lambdaboot.RequireEnv("RESOURCES_BUCKET")
	accessRoleARN := lambdaboot.RoleARN(awsClients.SSM, "TRANSCRIBE_ROLE_ARN", "TRANSCRIBE_ROLE_PARAM")
	workload := logging.EnvOrDefault("WORKLOAD_NAME", "VideoBleeping")
	ingestStage := logging.EnvOrDefault("WORKLOAD_STAGE", "INGEST")

	stageHandler = transcription.NewHandler(s3Client, trClient, transcription.Config{
		ProxyBucket:     proxyBucket,
		ResourcesBucket: resourcesBucket,
		AccessRoleARN:   accessRoleARN,
		WorkloadName:    workload,
		IngestStageName: ingestStage,
	})

	errorPolicy = pipeline.PolicyFromEnv()
	if bus := os.Getenv("PIPELINE_EVENT_BUS"); bus != "" {
		reporter = pipeline.NewFailureReporter(eventbridge.NewFromConfig(awsClients.Config), bus)
	}

	lambdaboot.StartupLog("transcribe-lambda", initStart).
		S3Bucket("proxyBucket", proxyBucket).
		S3Bucket("resourcesBucket", resourcesBucket).
		Role("transcribe", accessRoleARN).
		Config("workload", workload).
		Config("errorPolicy", fmt.Sprint(errorPolicy)).
		Log()
}

func main() {
	lambda.Start(handler)
}

func handler(ctx context.Context, event transcription.JobStateChangeEvent) (pipeline.Response, error) {
	if coldStart {
		coldStart = false
		log.Info().Str("function", "transcribe-lambda").Msg("Cold start — first invocation")
	}

	assetID, err := stageHandler.Handle(ctx, event)
	if err := pipeline.Finish(ctx, stageName, assetID, err, errorPolicy, reporter); err != nil {
		return pipeline.Response{}, err
	}
	return pipeline.OK("Transcription job dispatched"), nil
}
