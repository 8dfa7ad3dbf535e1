// Package main provides bleep-cli, a local harness for the splice engine.
//
// It runs the same redaction algorithm the Lambda pipeline uses, but against
// files on disk: a source WAV, a beep WAV, and a word-level transcript JSON.
// Useful for tuning beep tones and verifying transcripts without deploying
// anything.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fpang/video-bleep-pipeline/internal/audio"
	"github.com/fpang/video-bleep-pipeline/internal/logging"
	"github.com/fpang/video-bleep-pipeline/internal/transcript"
)

// CLI flags
var (
	inputFlag      string
	beepFlag       string
	transcriptFlag string
	outputFlag     string
	dryRunFlag     bool
)

// rootCmd is the main Cobra command for the CLI.
var rootCmd = &cobra.Command{
	Use:   "bleep-cli",
	Short: "Splice a beep tone over masked words in a WAV file",
	Long: `bleep-cli reads a word-level transcript and replaces every masked (***)
word's time range in the source audio with a beep tone, writing the
redacted waveform to a new WAV file.

The transcript must be a vocabulary-filtered transcription document with
per-word start and end times. Words whose content is *** are bleeped;
everything else passes through untouched.

Examples:
  bleep-cli -i audio.wav -b beep.wav -t transcription.json -o redacted.wav
  bleep-cli -i audio.wav -t transcription.json --dry-run`,
	Run: runMain,
}

func init() {
	rootCmd.Flags().StringVarP(&inputFlag, "input", "i", "", "Source WAV file (required)")
	rootCmd.Flags().StringVarP(&beepFlag, "beep", "b", "", "Beep tone WAV file (required unless --dry-run)")
	rootCmd.Flags().StringVarP(&transcriptFlag, "transcript", "t", "", "Transcript JSON with word timings (required)")
	rootCmd.Flags().StringVarP(&outputFlag, "output", "o", "redacted.wav", "Output WAV file")
	rootCmd.Flags().BoolVar(&dryRunFlag, "dry-run", false, "List masked spans without writing audio")
	rootCmd.MarkFlagRequired("input")
	rootCmd.MarkFlagRequired("transcript")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// runMain is the main execution logic called by Cobra.
func runMain(cmd *cobra.Command, args []string) {
	logging.Init()

	raw, err := os.ReadFile(transcriptFlag)
	if err != nil {
		log.Fatal().Err(err).Str("path", transcriptFlag).Msg("Cannot read transcript")
	}

	if !transcript.ContainsMask(raw) {
		fmt.Println("Transcript contains no masked words — nothing to redact.")
		return
	}

	doc, err := transcript.Parse(raw)
	if err != nil {
		log.Fatal().Err(err).Msg("Malformed transcript")
	}
	spans, err := doc.MaskedSpans()
	if err != nil {
		log.Fatal().Err(err).Msg("Malformed word timings")
	}

	fmt.Printf("Found %d masked word(s):\n", len(spans))
	for _, sp := range spans {
		fmt.Printf("  %8.3fs - %8.3fs\n", float64(sp.StartMS)/1000, float64(sp.EndMS)/1000)
	}
	if dryRunFlag {
		return
	}
	if beepFlag == "" {
		log.Fatal().Msg("--beep is required unless --dry-run is set")
	}

	src, err := audio.DecodeWAVFile(inputFlag)
	if err != nil {
		log.Fatal().Err(err).Str("path", inputFlag).Msg("Cannot decode source audio")
	}
	beep, err := audio.DecodeWAVFile(beepFlag)
	if err != nil {
		log.Fatal().Err(err).Str("path", beepFlag).Msg("Cannot decode beep audio")
	}

	audioSpans := make([]audio.Span, len(spans))
	for i, sp := range spans {
		audioSpans[i] = audio.Span{StartMS: sp.StartMS, EndMS: sp.EndMS}
	}

	spliceStart := time.Now()
	redacted, err := audio.Splice(src, beep, audioSpans)
	if err != nil {
		log.Fatal().Err(err).Msg("Splice failed")
	}
	if err := redacted.EncodeWAVFile(outputFlag); err != nil {
		log.Fatal().Err(err).Str("path", outputFlag).Msg("Cannot write output")
	}

	fmt.Printf("Wrote %s (%d ms of audio, %d span(s) bleeped) in %s\n",
		outputFlag, redacted.DurationMS(), len(spans), time.Since(spliceStart).Round(time.Millisecond))
}
