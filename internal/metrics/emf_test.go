package metrics

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"
)

func TestForStage_Dimensions(t *testing.T) {
	t.Setenv("AWS_LAMBDA_FUNCTION_NAME", "redact-fn")
	r := ForStage("redaction")
	if r.dimensions["Stage"] != "redaction" {
		t.Errorf("Stage dimension: got %q", r.dimensions["Stage"])
	}
	if r.dimensions["FunctionName"] != "redact-fn" {
		t.Errorf("FunctionName dimension: got %q", r.dimensions["FunctionName"])
	}
}

func TestRecorder_FlushOutput(t *testing.T) {
	t.Setenv("AWS_LAMBDA_FUNCTION_NAME", "")

	var buf bytes.Buffer
	rec := ForStage("redaction")
	rec.out = &buf
	rec.Count("MaskedWords", 3)
	rec.Duration("SpliceDuration", 1234*time.Millisecond)
	rec.Property("assetId", "abc-123")
	rec.Flush()

	var doc map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("failed to parse EMF output as JSON: %v\nOutput: %s", err, buf.String())
	}

	awsDir, ok := doc["_aws"].(map[string]interface{})
	if !ok {
		t.Fatal("missing _aws directive in EMF output")
	}
	cw, ok := awsDir["CloudWatchMetrics"].([]interface{})
	if !ok || len(cw) != 1 {
		t.Fatal("missing CloudWatchMetrics block")
	}
	block := cw[0].(map[string]interface{})
	if block["Namespace"] != Namespace {
		t.Errorf("namespace: got %v, want %s", block["Namespace"], Namespace)
	}

	if doc["Stage"] != "redaction" {
		t.Errorf("Stage dimension value missing: %v", doc["Stage"])
	}
	if doc["MaskedWords"] != float64(3) {
		t.Errorf("MaskedWords: got %v", doc["MaskedWords"])
	}
	if doc["SpliceDuration"] != float64(1234) {
		t.Errorf("SpliceDuration: got %v", doc["SpliceDuration"])
	}
	if doc["assetId"] != "abc-123" {
		t.Errorf("assetId property: got %v", doc["assetId"])
	}
}

func TestRecorder_FlushEmpty(t *testing.T) {
	var buf bytes.Buffer
	rec := ForStage("ingest")
	rec.out = &buf
	rec.Property("assetId", "abc") // properties alone must not emit
	rec.Flush()
	if buf.Len() != 0 {
		t.Errorf("empty recorder must not emit, got %q", buf.String())
	}
}
