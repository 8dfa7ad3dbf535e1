// Package pipeline holds the cross-stage error-handling policy.
//
// Every stage handler traps errors at its top level. The default policy
// swallows them after logging, so the trigger mechanism never redelivers the
// event; a transient collaborator failure then halts that asset's pipeline
// rather than causing a redelivery storm. The policy is configurable:
// PIPELINE_ERROR_POLICY=propagate returns the error to the Lambda runtime
// and opts back into its normal retry behaviour. Independently, swallowed
// failures can be republished to an EventBridge bus so permanent failures
// surface somewhere other than the logs.
package pipeline

import (
	"context"
	"encoding/json"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	ebtypes "github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"github.com/rs/zerolog/log"
)

// ErrorPolicy controls what a stage handler returns after a trapped failure.
type ErrorPolicy int

const (
	// PolicySwallow logs the failure and returns a success-shaped result, so
	// the trigger does not redeliver. This is the default.
	PolicySwallow ErrorPolicy = iota
	// PolicyPropagate returns the error to the Lambda runtime.
	PolicyPropagate
)

// PolicyFromEnv reads PIPELINE_ERROR_POLICY ("swallow" or "propagate").
// Unset or unrecognized values mean PolicySwallow.
func PolicyFromEnv() ErrorPolicy {
	if os.Getenv("PIPELINE_ERROR_POLICY") == "propagate" {
		return PolicyPropagate
	}
	return PolicySwallow
}

// FailureEventSource and FailureEventDetailType identify republished stage
// failures on the configured EventBridge bus.
const (
	FailureEventSource     = "redaction.pipeline"
	FailureEventDetailType = "Pipeline Stage Failed"
)

// EventPublisher is the subset of the EventBridge client used to republish
// failures.
type EventPublisher interface {
	PutEvents(ctx context.Context, in *eventbridge.PutEventsInput, optFns ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error)
}

// FailureReporter republishes swallowed stage failures to an EventBridge bus.
// A reporter with an empty bus name is a no-op, which is the default
// deployment shape.
type FailureReporter struct {
	publisher EventPublisher
	bus       string
}

// NewFailureReporter builds a reporter for the given bus. bus comes from
// PIPELINE_EVENT_BUS and may be empty.
func NewFailureReporter(publisher EventPublisher, bus string) *FailureReporter {
	return &FailureReporter{publisher: publisher, bus: bus}
}

type failureDetail struct {
	Stage   string `json:"stage"`
	AssetID string `json:"assetId,omitempty"`
	Error   string `json:"error"`
}

// Report publishes one failure event. Publishing errors are logged and
// dropped; failure reporting must never take down the handler.
func (r *FailureReporter) Report(ctx context.Context, stage, assetID string, cause error) {
	if r == nil || r.bus == "" || r.publisher == nil {
		return
	}
	detail, err := json.Marshal(failureDetail{Stage: stage, AssetID: assetID, Error: cause.Error()})
	if err != nil {
		log.Error().Err(err).Msg("Failed to encode failure event detail")
		return
	}
	_, err = r.publisher.PutEvents(ctx, &eventbridge.PutEventsInput{
		Entries: []ebtypes.PutEventsRequestEntry{{
			EventBusName: aws.String(r.bus),
			Source:       aws.String(FailureEventSource),
			DetailType:   aws.String(FailureEventDetailType),
			Detail:       aws.String(string(detail)),
		}},
	})
	if err != nil {
		log.Error().Err(err).Str("bus", r.bus).Msg("Failed to republish stage failure")
	}
}

// Finish applies the error policy to a completed handler invocation. It logs
// the failure, reports it, and returns the error the handler should hand back
// to the runtime: nil under PolicySwallow, the original error under
// PolicyPropagate.
func Finish(ctx context.Context, stage, assetID string, err error, policy ErrorPolicy, reporter *FailureReporter) error {
	if err == nil {
		return nil
	}
	log.Error().Err(err).Str("stage", stage).Str("assetId", assetID).Msg("Stage failed")
	if policy == PolicyPropagate {
		return err
	}
	reporter.Report(ctx, stage, assetID, err)
	return nil
}
