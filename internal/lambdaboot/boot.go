// Package lambdaboot provides shared Lambda cold-start bootstrap logic.
//
// Every stage handler needs some subset of: AWS config, S3, MediaConvert,
// Transcribe, role-ARN resolution, and startup logging. This package extracts
// the common init patterns so each Lambda's init() is a short composition of
// helpers.
package lambdaboot

import (
	"context"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/mediaconvert"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/transcribe"
	"github.com/rs/zerolog/log"

	"github.com/fpang/video-bleep-pipeline/internal/logging"
)

// AWSClients holds the core AWS SDK clients shared across stage handlers.
type AWSClients struct {
	Config aws.Config
	SSM    *ssm.Client
}

// InitAWS loads the default AWS config and returns it along with common clients.
func InitAWS() AWSClients {
	cfg, err := awsconfig.LoadDefaultConfig(context.Background())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load AWS config")
	}
	log.Debug().Str("region", cfg.Region).Msg("AWS config loaded")
	return AWSClients{
		Config: cfg,
		SSM:    ssm.NewFromConfig(cfg),
	}
}

// InitS3 creates an S3 client from the given config.
func InitS3(cfg aws.Config) *s3.Client {
	return s3.NewFromConfig(cfg)
}

// InitMediaConvert creates a MediaConvert client. The v2 SDK resolves the
// account endpoint itself, so no DescribeEndpoints round trip is needed.
func InitMediaConvert(cfg aws.Config) *mediaconvert.Client {
	return mediaconvert.NewFromConfig(cfg)
}

// InitTranscribe creates an Amazon Transcribe client.
func InitTranscribe(cfg aws.Config) *transcribe.Client {
	return transcribe.NewFromConfig(cfg)
}

// RequireEnv returns the value of the named environment variable.
// Fatals if the variable is empty or unset.
func RequireEnv(envVar string) string {
	v := os.Getenv(envVar)
	if v == "" {
		log.Fatal().Str("envVar", envVar).Msg("Environment variable is required")
	}
	return v
}

// RoleARN resolves an IAM role ARN from an environment variable, falling back
// to an SSM parameter when the env var is unset and a parameter path is
// configured via paramEnvVar. Fatals if neither source yields a value.
func RoleARN(ssmClient *ssm.Client, envVar, paramEnvVar string) string {
	if v := os.Getenv(envVar); v != "" {
		return v
	}
	paramName := os.Getenv(paramEnvVar)
	if paramName == "" {
		log.Fatal().Str("envVar", envVar).Str("paramEnvVar", paramEnvVar).
			Msg("Role ARN not configured via environment or SSM")
	}
	ssmStart := time.Now()
	result, err := ssmClient.GetParameter(context.Background(), &ssm.GetParameterInput{
		Name: &paramName,
	})
	if err != nil {
		log.Fatal().Err(err).Str("param", paramName).Msg("Failed to read role ARN from SSM")
	}
	log.Debug().Str("param", paramName).Dur("elapsed", time.Since(ssmStart)).Msg("Role ARN loaded from SSM")
	return *result.Parameter.Value
}

// StartupLog is a convenience wrapper for the startup logger.
func StartupLog(name string, initStart time.Time) *logging.StartupLogger {
	return logging.NewStartupLogger(name).InitDuration(time.Since(initStart))
}
