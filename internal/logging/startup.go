package logging

import (
	"os"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// StartupLogger collects Lambda identity, bucket configuration, IAM roles,
// and pipeline settings, then emits a single structured zerolog event
// summarising the cold-start state. Each stage handler logs one of these so
// the exact configuration of a misbehaving invocation can be read straight
// out of CloudWatch.
type StartupLogger struct {
	name         string
	initDuration time.Duration

	s3Buckets map[string]string
	roles     map[string]string
	config    map[string]string
}

// NewStartupLogger creates a StartupLogger for the given Lambda name
// (e.g. "ingest-lambda", "redact-lambda").
func NewStartupLogger(name string) *StartupLogger {
	return &StartupLogger{
		name:      name,
		s3Buckets: make(map[string]string),
		roles:     make(map[string]string),
		config:    make(map[string]string),
	}
}

// S3Bucket registers an S3 bucket used by this Lambda.
func (s *StartupLogger) S3Bucket(label, name string) *StartupLogger {
	s.s3Buckets[label] = name
	return s
}

// Role registers an IAM role ARN passed to a collaborator service.
func (s *StartupLogger) Role(label, arn string) *StartupLogger {
	s.roles[label] = arn
	return s
}

// Config registers a non-sensitive configuration key-value pair.
func (s *StartupLogger) Config(key, value string) *StartupLogger {
	s.config[key] = value
	return s
}

// InitDuration records how long the init() function took to complete.
func (s *StartupLogger) InitDuration(d time.Duration) *StartupLogger {
	s.initDuration = d
	return s
}

// EnvOrDefault returns the value of the named environment variable, or
// defaultVal if the variable is empty or unset.
func EnvOrDefault(envVar, defaultVal string) string {
	if v := os.Getenv(envVar); v != "" {
		return v
	}
	return defaultVal
}

// Log emits a single structured INFO log event with all collected information.
func (s *StartupLogger) Log() {
	evt := log.Info()

	// Lambda identity — auto-collected from the runtime environment.
	evt = evt.Dict("lambda", zerolog.Dict().
		Str("name", s.name).
		Str("functionName", os.Getenv("AWS_LAMBDA_FUNCTION_NAME")).
		Str("version", os.Getenv("AWS_LAMBDA_FUNCTION_VERSION")).
		Str("region", os.Getenv("AWS_REGION")).
		Str("memoryMB", os.Getenv("AWS_LAMBDA_FUNCTION_MEMORY_SIZE")).
		Str("goVersion", runtime.Version()).
		Str("arch", runtime.GOARCH).
		Str("logLevel", os.Getenv("BLEEP_LOG_LEVEL")))

	if len(s.s3Buckets) > 0 {
		evt = evt.Dict("s3Buckets", dictFromMap(s.s3Buckets))
	}
	if len(s.roles) > 0 {
		evt = evt.Dict("roles", dictFromMap(s.roles))
	}
	if len(s.config) > 0 {
		evt = evt.Dict("config", dictFromMap(s.config))
	}
	if s.initDuration > 0 {
		evt = evt.Dur("initDuration", s.initDuration)
	}

	evt.Msg("Lambda cold start complete")
}

// dictFromMap converts a map[string]string into a zerolog.Event (Dict).
func dictFromMap(m map[string]string) *zerolog.Event {
	d := zerolog.Dict()
	for k, v := range m {
		d = d.Str(k, v)
	}
	return d
}
