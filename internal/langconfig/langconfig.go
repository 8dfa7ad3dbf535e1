// Package langconfig loads the pipeline's language configuration document and
// translates it into Amazon Transcribe job settings.
//
// The document lives at Config/config.json in the resources bucket. An absent
// document means a single default language (en-US) with the mask filter method
// but no vocabulary filter registered.
package langconfig

import (
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/transcribe"
	"github.com/aws/aws-sdk-go-v2/service/transcribe/types"
)

// Key is the S3 key of the configuration document in the resources bucket.
const Key = "Config/config.json"

// DefaultLanguageCode is used when the document lists no language codes.
const DefaultLanguageCode = "en-US"

// Config is the language configuration document. The JSON field names follow
// the document format the operators maintain, which mirrors the Transcribe
// API vocabulary.
type Config struct {
	LanguageCodes    []string                   `json:"Transcribe Language Codes"`
	LanguageSettings map[string]LanguageSetting `json:"Transcribe Language Settings"`
}

// LanguageSetting carries the per-language vocabulary filter registration.
type LanguageSetting struct {
	VocabularyFilterName string `json:"VocabularyFilterName"`
}

// Parse decodes a configuration document.
func Parse(raw []byte) (*Config, error) {
	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse language config: %w", err)
	}
	return &cfg, nil
}

// Default returns the configuration used when no document exists.
func Default() *Config {
	return &Config{}
}

// Apply fills the language-related fields of a Transcribe job request:
//
//   - no codes configured: fixed default language, mask method, no filter;
//   - exactly one code: fixed-language mode with that code, plus the
//     registered vocabulary filter if one exists;
//   - two or more codes: automatic language identification offering every
//     code as a candidate, with per-code filter registrations applied after
//     detection.
func (c *Config) Apply(in *transcribe.StartTranscriptionJobInput) {
	in.Settings = &types.Settings{
		VocabularyFilterMethod: types.VocabularyFilterMethodMask,
	}

	if len(c.LanguageCodes) >= 2 {
		in.IdentifyLanguage = aws.Bool(true)
		in.LanguageOptions = make([]types.LanguageCode, 0, len(c.LanguageCodes))
		for _, lc := range c.LanguageCodes {
			in.LanguageOptions = append(in.LanguageOptions, types.LanguageCode(lc))
		}
		if len(c.LanguageSettings) > 0 {
			in.LanguageIdSettings = make(map[string]types.LanguageIdSettings, len(c.LanguageSettings))
			for lc, ls := range c.LanguageSettings {
				in.LanguageIdSettings[lc] = types.LanguageIdSettings{
					VocabularyFilterName: aws.String(ls.VocabularyFilterName),
				}
			}
		}
		return
	}

	code := DefaultLanguageCode
	if len(c.LanguageCodes) == 1 {
		code = c.LanguageCodes[0]
	}
	in.LanguageCode = types.LanguageCode(code)
	if ls, ok := c.LanguageSettings[code]; ok && ls.VocabularyFilterName != "" {
		in.Settings.VocabularyFilterName = aws.String(ls.VocabularyFilterName)
	}
}
