package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
)

type fakePublisher struct {
	inputs []*eventbridge.PutEventsInput
	err    error
}

func (f *fakePublisher) PutEvents(ctx context.Context, in *eventbridge.PutEventsInput, _ ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error) {
	f.inputs = append(f.inputs, in)
	return &eventbridge.PutEventsOutput{}, f.err
}

func TestPolicyFromEnv(t *testing.T) {
	t.Setenv("PIPELINE_ERROR_POLICY", "")
	if PolicyFromEnv() != PolicySwallow {
		t.Error("unset policy must default to swallow")
	}
	t.Setenv("PIPELINE_ERROR_POLICY", "propagate")
	if PolicyFromEnv() != PolicyPropagate {
		t.Error("propagate policy not recognized")
	}
	t.Setenv("PIPELINE_ERROR_POLICY", "nonsense")
	if PolicyFromEnv() != PolicySwallow {
		t.Error("unknown policy must fall back to swallow")
	}
}

func TestFinish_SwallowReturnsNilAndReports(t *testing.T) {
	pub := &fakePublisher{}
	reporter := NewFailureReporter(pub, "pipeline-bus")
	cause := errors.New("transcribe rejected the job")

	got := Finish(context.Background(), "transcription", "asset-1", cause, PolicySwallow, reporter)
	if got != nil {
		t.Errorf("swallow policy returned %v, want nil", got)
	}
	if len(pub.inputs) != 1 {
		t.Fatalf("expected one republished event, got %d", len(pub.inputs))
	}
	entry := pub.inputs[0].Entries[0]
	if *entry.EventBusName != "pipeline-bus" || *entry.Source != FailureEventSource {
		t.Errorf("unexpected entry routing: bus=%q source=%q", *entry.EventBusName, *entry.Source)
	}
	if !strings.Contains(*entry.Detail, "transcribe rejected the job") || !strings.Contains(*entry.Detail, "asset-1") {
		t.Errorf("detail missing context: %s", *entry.Detail)
	}
}

func TestFinish_PropagateReturnsError(t *testing.T) {
	pub := &fakePublisher{}
	reporter := NewFailureReporter(pub, "pipeline-bus")
	cause := errors.New("boom")

	got := Finish(context.Background(), "ingest", "", cause, PolicyPropagate, reporter)
	if !errors.Is(got, cause) {
		t.Errorf("propagate policy returned %v, want original error", got)
	}
	if len(pub.inputs) != 0 {
		t.Error("propagated errors must not be republished; the runtime will retry")
	}
}

func TestFinish_NilError(t *testing.T) {
	if got := Finish(context.Background(), "ingest", "a", nil, PolicySwallow, nil); got != nil {
		t.Errorf("nil error must stay nil, got %v", got)
	}
}

func TestReport_NoBusIsNoop(t *testing.T) {
	pub := &fakePublisher{}
	NewFailureReporter(pub, "").Report(context.Background(), "ingest", "a", errors.New("x"))
	if len(pub.inputs) != 0 {
		t.Error("reporter without a bus must not publish")
	}
	var nilReporter *FailureReporter
	nilReporter.Report(context.Background(), "ingest", "a", errors.New("x")) // must not panic
}

func TestReport_PublishErrorIsDropped(t *testing.T) {
	pub := &fakePublisher{err: errors.New("throttled")}
	reporter := NewFailureReporter(pub, "bus")
	reporter.Report(context.Background(), "redaction", "a", errors.New("x")) // must not panic or return
	if len(pub.inputs) != 1 {
		t.Error("publish should still have been attempted")
	}
}
