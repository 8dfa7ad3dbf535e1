package transcription

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/aws-sdk-go-v2/service/transcribe"
	trtypes "github.com/aws/aws-sdk-go-v2/service/transcribe/types"
)

type fakeS3 struct {
	objects map[string][]byte // "bucket/key" -> body
	err     error
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	body, ok := f.objects[*in.Bucket+"/"+*in.Key]
	if !ok {
		return nil, &s3types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(body))}, nil
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	return &s3.PutObjectOutput{}, nil
}

type fakeTranscribe struct {
	inputs []*transcribe.StartTranscriptionJobInput
	err    error
}

func (f *fakeTranscribe) StartTranscriptionJob(ctx context.Context, in *transcribe.StartTranscriptionJobInput, _ ...func(*transcribe.Options)) (*transcribe.StartTranscriptionJobOutput, error) {
	f.inputs = append(f.inputs, in)
	if f.err != nil {
		return nil, f.err
	}
	return &transcribe.StartTranscriptionJobOutput{
		TranscriptionJob: &trtypes.TranscriptionJob{
			TranscriptionJobStatus: trtypes.TranscriptionJobStatusInProgress,
		},
	}, nil
}

func testConfig() Config {
	return Config{
		ProxyBucket:     "proxy-bucket",
		ResourcesBucket: "resources-bucket",
		AccessRoleARN:   "arn:aws:iam::123456789012:role/transcribe-access",
		WorkloadName:    "VideoBleeping",
		IngestStageName: "INGEST",
	}
}

func completionEvent(assetID, jobID string) JobStateChangeEvent {
	return JobStateChangeEvent{Detail: JobStateChangeDetail{
		Status: "COMPLETE",
		JobID:  jobID,
		UserMetadata: map[string]string{
			"AssetID":  assetID,
			"Source":   "s3://ingest/video1.mp4",
			"Stage":    "INGEST",
			"Workload": "VideoBleeping",
		},
		OutputGroupDetails: []OutputGroupDetail{{
			OutputDetails: []OutputDetail{{
				OutputFilePaths: []string{"s3://proxy-bucket/audio_proxy/" + assetID + "/audio.wav"},
			}},
		}},
	}}
}

func TestHandle_StartsTranscriptionJob(t *testing.T) {
	s3c := &fakeS3{}
	tr := &fakeTranscribe{}
	h := NewHandler(s3c, tr, testConfig())

	assetID, err := h.Handle(context.Background(), completionEvent("asset-1", "job-9"))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if assetID != "asset-1" {
		t.Errorf("assetID: got %q", assetID)
	}
	if len(tr.inputs) != 1 {
		t.Fatalf("expected one StartTranscriptionJob call, got %d", len(tr.inputs))
	}

	in := tr.inputs[0]
	if got := *in.TranscriptionJobName; got != "asset-1___job-9" {
		t.Errorf("job name: got %q, want asset-1___job-9", got)
	}
	if in.MediaFormat != trtypes.MediaFormatWav {
		t.Errorf("media format: got %v", in.MediaFormat)
	}
	if got := *in.Media.MediaFileUri; got != "s3://proxy-bucket/audio_proxy/asset-1/audio.wav" {
		t.Errorf("media URI: got %q", got)
	}
	if got := *in.OutputBucketName; got != "proxy-bucket" {
		t.Errorf("output bucket: got %q", got)
	}
	if got := *in.OutputKey; got != "transcriptions/asset-1/transcription.json" {
		t.Errorf("output key: got %q", got)
	}
	if len(in.Subtitles.Formats) != 1 || in.Subtitles.Formats[0] != trtypes.SubtitleFormatVtt {
		t.Errorf("subtitles: got %v, want vtt", in.Subtitles.Formats)
	}
	// No config document: default fixed language, no identification.
	if in.LanguageCode != trtypes.LanguageCode("en-US") {
		t.Errorf("language code: got %q", in.LanguageCode)
	}
	if in.IdentifyLanguage != nil {
		t.Error("IdentifyLanguage must not be set with a single default language")
	}
	if in.Settings.VocabularyFilterMethod != trtypes.VocabularyFilterMethodMask {
		t.Error("vocabulary filter method must be mask")
	}
}

func TestHandle_LanguageConfigDocument(t *testing.T) {
	s3c := &fakeS3{objects: map[string][]byte{
		"resources-bucket/Config/config.json": []byte(`{
			"Transcribe Language Codes": ["en-US", "fr-FR"],
			"Transcribe Language Settings": {"fr-FR": {"VocabularyFilterName": "gros-mots"}}
		}`),
	}}
	tr := &fakeTranscribe{}
	h := NewHandler(s3c, tr, testConfig())

	if _, err := h.Handle(context.Background(), completionEvent("asset-1", "job-9")); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	in := tr.inputs[0]
	if in.IdentifyLanguage == nil || !*in.IdentifyLanguage {
		t.Error("two configured codes must enable language identification")
	}
	if len(in.LanguageOptions) != 2 {
		t.Errorf("language options: got %v", in.LanguageOptions)
	}
	if got := in.LanguageIdSettings["fr-FR"].VocabularyFilterName; got == nil || *got != "gros-mots" {
		t.Errorf("fr-FR filter registration: got %v", got)
	}
}

func TestHandle_IgnoresForeignCompletions(t *testing.T) {
	tr := &fakeTranscribe{}
	h := NewHandler(&fakeS3{}, tr, testConfig())

	ev := completionEvent("asset-1", "job-9")
	ev.Detail.UserMetadata["Workload"] = "SomeOtherWorkload"
	if _, err := h.Handle(context.Background(), ev); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	ev = completionEvent("asset-1", "job-9")
	ev.Detail.UserMetadata["Stage"] = "PACKAGING"
	if _, err := h.Handle(context.Background(), ev); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	ev = completionEvent("asset-1", "job-9")
	ev.Detail.Status = "ERROR"
	if _, err := h.Handle(context.Background(), ev); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	if len(tr.inputs) != 0 {
		t.Errorf("foreign or failed completions must not start transcriptions, got %d", len(tr.inputs))
	}
}

func TestHandle_MalformedEvent(t *testing.T) {
	h := NewHandler(&fakeS3{}, &fakeTranscribe{}, testConfig())

	ev := completionEvent("", "job-9")
	ev.Detail.UserMetadata["AssetID"] = ""
	if _, err := h.Handle(context.Background(), ev); err == nil {
		t.Error("expected error for missing AssetID")
	}

	ev = completionEvent("asset-1", "job-9")
	ev.Detail.OutputGroupDetails = nil
	if _, err := h.Handle(context.Background(), ev); err == nil {
		t.Error("expected error for missing output path")
	}
}

func TestHandle_ConfigLoadFailure(t *testing.T) {
	s3c := &fakeS3{err: errors.New("permission denied")}
	h := NewHandler(s3c, &fakeTranscribe{}, testConfig())
	if _, err := h.Handle(context.Background(), completionEvent("asset-1", "job-9")); err == nil {
		t.Error("expected error when config load fails for a reason other than absence")
	}
}

func TestHandle_StartFailure(t *testing.T) {
	tr := &fakeTranscribe{err: errors.New("throttled")}
	h := NewHandler(&fakeS3{}, tr, testConfig())
	if _, err := h.Handle(context.Background(), completionEvent("asset-1", "job-9")); err == nil {
		t.Error("expected submission error to surface to the policy layer")
	}
}
