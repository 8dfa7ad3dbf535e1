// Package asset defines the identity and correlation scheme shared by every
// pipeline stage.
//
// One AssetID is minted per source upload and never changes afterwards. All
// intermediate artifacts live under deterministic S3 keys derived from it, so
// stages can find each other's output without a shared database. The only
// other piece of cross-stage state is the compound job key: the transcription
// job is named "{AssetID}___{mediaConvertJobID}" so the redaction stage,
// which only sees the transcription completion event, can recover both
// identifiers by splitting the name.
package asset

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// JobKeySeparator joins an AssetID and a MediaConvert job ID into a
// transcription job name. Neither component may contain it; a UUID cannot,
// and MediaConvert job IDs are numeric dash-separated strings.
const JobKeySeparator = "___"

// ErrMalformedJobKey is returned by DecodeJobKey when the input does not
// contain exactly one separator. A best-effort split here would corrupt
// correlation for the rest of the pipeline, so decoding fails loudly instead.
var ErrMalformedJobKey = errors.New("malformed compound job key")

// NewID mints a fresh AssetID. Uniqueness is the only correctness
// requirement: two concurrent uploads sharing an ID would write their
// artifacts to the same keys.
func NewID() string {
	return uuid.NewString()
}

// EncodeJobKey builds the compound transcription job name from an AssetID and
// the proxy-extraction MediaConvert job ID. It refuses components containing
// the separator, since DecodeJobKey could not split the result unambiguously.
func EncodeJobKey(assetID, jobID string) (string, error) {
	if assetID == "" || jobID == "" {
		return "", fmt.Errorf("%w: empty component", ErrMalformedJobKey)
	}
	if strings.Contains(assetID, JobKeySeparator) || strings.Contains(jobID, JobKeySeparator) {
		return "", fmt.Errorf("%w: component contains separator %q", ErrMalformedJobKey, JobKeySeparator)
	}
	return assetID + JobKeySeparator + jobID, nil
}

// DecodeJobKey is the exact inverse of EncodeJobKey. It fails with
// ErrMalformedJobKey when the separator is absent or occurs more than once.
func DecodeJobKey(key string) (assetID, jobID string, err error) {
	parts := strings.Split(key, JobKeySeparator)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("%w: %q", ErrMalformedJobKey, key)
	}
	return parts[0], parts[1], nil
}
