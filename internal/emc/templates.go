// Package emc builds the declarative AWS Elemental MediaConvert job settings
// submitted by the ingest and redaction stages.
//
// Two templates exist: an audio-only WAV proxy extraction, and the final HLS
// packaging of the source video with the redacted audio and WebVTT captions.
// Codec and container parameters are fixed configuration; the builders only
// fill in input and output references.
package emc

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/mediaconvert/types"
)

// UserMetadata keys attached to every MediaConvert job. EventBridge rules
// filter completions on Stage and Workload so a shared account can run other
// MediaConvert workloads without triggering this pipeline, and the redaction
// stage reads Source back out of the ingest job's metadata.
const (
	MetaAssetID      = "AssetID"
	MetaSource       = "Source"
	MetaSourceBucket = "SourceBucket"
	MetaSourceKey    = "SourceKey"
	MetaDestination  = "Destination"
	MetaStage        = "Stage"
	MetaWorkload     = "Workload"
)

const (
	audioSelector   = "Audio Selector 1"
	captionSelector = "Captions Selector 1"
)

// ProxyJobSettings builds the Stage-1 job: extract the default audio track of
// sourceURI into a 2-channel WAV at destination (MediaConvert appends the
// .wav extension).
func ProxyJobSettings(sourceURI, destination string) *types.JobSettings {
	return &types.JobSettings{
		TimecodeConfig: &types.TimecodeConfig{
			Source: types.TimecodeSourceZerobased,
		},
		Inputs: []types.Input{{
			FileInput: aws.String(sourceURI),
			AudioSelectors: map[string]types.AudioSelector{
				audioSelector: {
					DefaultSelection: types.AudioDefaultSelectionDefault,
				},
			},
			VideoSelector:  &types.VideoSelector{},
			TimecodeSource: types.InputTimecodeSourceZerobased,
		}},
		OutputGroups: []types.OutputGroup{{
			Name: aws.String("File Group"),
			Outputs: []types.Output{{
				ContainerSettings: &types.ContainerSettings{
					Container: types.ContainerTypeRaw,
				},
				AudioDescriptions: []types.AudioDescription{{
					AudioSourceName: aws.String(audioSelector),
					CodecSettings: &types.AudioCodecSettings{
						Codec: types.AudioCodecWav,
						WavSettings: &types.WavSettings{
							Channels: aws.Int32(2),
						},
					},
				}},
				Extension: aws.String("wav"),
			}},
			OutputGroupSettings: &types.OutputGroupSettings{
				Type: types.OutputGroupTypeFileGroupSettings,
				FileGroupSettings: &types.FileGroupSettings{
					Destination: aws.String(destination),
				},
			},
		}},
	}
}

// PackageJobSettings builds the Stage-3 job: mux the video track of sourceURI
// with the external redacted audio file and the WebVTT subtitle file into a
// single-rendition HLS package at destination, plus a caption-only rendition.
func PackageJobSettings(sourceURI, audioURI, captionURI, destination string) *types.JobSettings {
	return &types.JobSettings{
		TimecodeConfig: &types.TimecodeConfig{
			Source: types.TimecodeSourceZerobased,
		},
		Inputs: []types.Input{{
			FileInput: aws.String(sourceURI),
			AudioSelectors: map[string]types.AudioSelector{
				audioSelector: {
					DefaultSelection:       types.AudioDefaultSelectionDefault,
					ExternalAudioFileInput: aws.String(audioURI),
				},
			},
			CaptionSelectors: map[string]types.CaptionSelector{
				captionSelector: {
					SourceSettings: &types.CaptionSourceSettings{
						SourceType: types.CaptionSourceTypeWebvtt,
						FileSourceSettings: &types.FileSourceSettings{
							SourceFile: aws.String(captionURI),
						},
					},
				},
			},
			VideoSelector:  &types.VideoSelector{},
			TimecodeSource: types.InputTimecodeSourceZerobased,
		}},
		OutputGroups: []types.OutputGroup{{
			Name: aws.String("Apple HLS"),
			Outputs: []types.Output{
				{
					ContainerSettings: &types.ContainerSettings{
						Container:    types.ContainerTypeM3u8,
						M3u8Settings: &types.M3u8Settings{},
					},
					VideoDescription: &types.VideoDescription{
						Width:  aws.Int32(960),
						Height: aws.Int32(540),
						CodecSettings: &types.VideoCodecSettings{
							Codec: types.VideoCodecH264,
							H264Settings: &types.H264Settings{
								FramerateControl:     types.H264FramerateControlSpecified,
								FramerateNumerator:   aws.Int32(30000),
								FramerateDenominator: aws.Int32(1001),
								RateControlMode:      types.H264RateControlModeQvbr,
								MaxBitrate:           aws.Int32(2_000_000),
								GopSize:              aws.Float64(2),
								GopSizeUnits:         types.H264GopSizeUnitsSeconds,
								SceneChangeDetect:    types.H264SceneChangeDetectTransitionDetection,
							},
						},
					},
					AudioDescriptions: []types.AudioDescription{{
						CodecSettings: &types.AudioCodecSettings{
							Codec: types.AudioCodecAac,
							AacSettings: &types.AacSettings{
								Bitrate:    aws.Int32(96_000),
								CodingMode: types.AacCodingModeCodingMode20,
								SampleRate: aws.Int32(48_000),
							},
						},
					}},
					OutputSettings: &types.OutputSettings{
						HlsSettings: &types.HlsSettings{},
					},
					NameModifier: aws.String("_av"),
				},
				{
					ContainerSettings: &types.ContainerSettings{
						Container:    types.ContainerTypeM3u8,
						M3u8Settings: &types.M3u8Settings{},
					},
					OutputSettings: &types.OutputSettings{
						HlsSettings: &types.HlsSettings{},
					},
					NameModifier: aws.String("_vtt"),
					CaptionDescriptions: []types.CaptionDescription{{
						CaptionSelectorName: aws.String(captionSelector),
						DestinationSettings: &types.CaptionDestinationSettings{
							DestinationType:           types.CaptionDestinationTypeWebvtt,
							WebvttDestinationSettings: &types.WebvttDestinationSettings{},
						},
						LanguageCode: types.LanguageCodeEng,
					}},
				},
			},
			OutputGroupSettings: &types.OutputGroupSettings{
				Type: types.OutputGroupTypeHlsGroupSettings,
				HlsGroupSettings: &types.HlsGroupSettings{
					SegmentLength:    aws.Int32(6),
					MinSegmentLength: aws.Int32(0),
					Destination:      aws.String(destination),
				},
			},
		}},
	}
}
