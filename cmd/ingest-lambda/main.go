// Package main provides the Lambda entry point for the pipeline's first
// stage: reacting to a source video upload.
//
// This Lambda is triggered by S3 ObjectCreated events on the ingest bucket.
// For each upload it mints a fresh AssetID and submits the MediaConvert job
// that extracts the stereo WAV audio proxy into the proxy bucket. All context
// the later stages need travels in the job's user metadata and the proxy key
// layout; nothing is persisted anywhere else.
//
// Memory: 128 MB
// Timeout: 30 seconds
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/rs/zerolog/log"

	"github.com/fpang/video-bleep-pipeline/internal/ingest"
	"github.com/fpang/video-bleep-pipeline/internal/lambdaboot"
	"github.com/fpang/video-bleep-pipeline/internal/logging"
	"github.com/fpang/video-bleep-pipeline/internal/pipeline"
)

const stageName = "ingest"

var coldStart = true

// Initialized at cold start.
var (
	stageHandler *ingest.Handler
	errorPolicy  pipeline.ErrorPolicy
	reporter     *pipeline.FailureReporter
)

func init() {
	initStart := time.Now()
	logging.Init()

	awsClients := lambdaboot.InitAWS()
	mcClient := lambdaboot.InitMediaConvert(awsClients.Config)

	proxyBucket := lambdaboot.RequireEnv("PROXY_BUCKET")
	roleARN := lambdaboot.RoleARN(awsClients.SSM, "EMC_ROLE_ARN", "EMC_ROLE_PARAM")
	workload := logging.EnvOrDefault("WORKLOAD_NAME", "VideoBleeping")
	stage := logging.EnvOrDefault("WORKLOAD_STAGE", "INGEST")

	stageHandler = ingest.NewHandler(mcClient, ingest.Config{
		ProxyBucket:  proxyBucket,
		RoleARN:      roleARN,
		WorkloadName: workload,
		StageName:    stage,
	})

	errorPolicy = pipeline.PolicyFromEnv()
	if bus := os.Getenv("PIPELINE_EVENT_BUS"); bus != "" {
		reporter = pipeline.NewFailureReporter(eventbridge.NewFromConfig(awsClients.Config), bus)
	}

	lambdaboot.StartupLog("ingest-lambda", initStart).
		S3Bucket("proxyBucket", proxyBucket).
		Role("mediaConvert", roleARN).
		Config("workload", workload).
		Config("errorPolicy", fmt.Sprint(errorPolicy)).
		Log()
}

func main() {
	lambda.Start(handler)
}

func handler(ctx context.Context, event events.S3Event) (pipeline.Response, error) {
	if coldStart {
		coldStart = false
		log.Info().Str("function", "ingest-lambda").Msg("Cold start — first invocation")
	}

	assetID, err := stageHandler.Handle(ctx, event)
	if err := pipeline.Finish(ctx, stageName, assetID, err, errorPolicy, reporter); err != nil {
		return pipeline.Response{}, err
	}
	return pipeline.OK("Audio proxy job submitted"), nil
}
