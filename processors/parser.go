package processors

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"videoindex/core"
)

// ParserConfig carries everything the orchestrator needs, resolved by the
// caller. The parser never loads configuration files itself.
type ParserConfig struct {
	APIKey          string
	BaseURL         string
	VisionModel     string
	TranscribeModel string
	// FrameSampleRate is the default stride; -1 disables captioning.
	FrameSampleRate int
}

// VideoParser sequences one video's ingestion: transcription, then frame
// captioning (which consumes the completed transcript), then assembly of
// the result. Any stage failure is fatal for the whole video; there are no
// retries and no partial results at this level. Independent parser runs may
// process different videos concurrently; a single run is sequential.
type VideoParser struct {
	cfg         ParserConfig
	transcriber TranscriptionProvider
	vision      VisionClient
	// probe reads fps/frame count; swapped out in tests.
	probe func(ctx context.Context, path string) (float64, int, error)
	// open is handed to the frame captioner; swapped out in tests.
	open func(ctx context.Context, path string) (VideoSource, error)
}

// NewVideoParser wires the production providers from the config.
func NewVideoParser(cfg ParserConfig) *VideoParser {
	cli := newOpenAIClient(cfg.APIKey, cfg.BaseURL)
	return &VideoParser{
		cfg:         cfg,
		transcriber: NewWhisperTranscriber(cli, cfg.TranscribeModel),
		vision:      NewOpenAIVisionClient(cli, cfg.VisionModel),
		probe:       ProbeVideo,
		open:        OpenVideo,
	}
}

// ProcessVideo runs the full pipeline for one video. sampleRateOverride
// takes precedence over the configured stride when non-zero; pass 0 to use
// the config default, or -1 to disable captioning for this video.
func (p *VideoParser) ProcessVideo(ctx context.Context, videoPath string, sampleRateOverride int) (*core.ParseVideoResult, error) {
	sampleRate := ResolveSampleRate(sampleRateOverride, p.cfg.FrameSampleRate)
	log := logrus.WithFields(logrus.Fields{"video": videoPath, "frame_sample_rate": sampleRate})

	fps, totalFrames, err := p.probe(ctx, videoPath)
	if err != nil {
		return nil, err
	}
	duration := float64(totalFrames) / fps
	log.WithFields(logrus.Fields{"duration": duration, "fps": fps}).Info("video loaded")

	log.Info("starting video transcription")
	utterances, err := p.transcriber.Transcribe(ctx, videoPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrTranscription, err)
	}
	transcript := BuildTranscriptIndex(utterances)

	log.Info("starting frame description generation")
	captioner := &FrameCaptioner{vision: p.vision, sampleRate: sampleRate, open: p.open}
	frameDescriptions, err := captioner.Run(ctx, videoPath, transcript)
	if err != nil {
		return nil, err
	}

	log.Info("video processing completed")
	return &core.ParseVideoResult{
		Metadata: core.VideoMetadata{
			Duration:        duration,
			FPS:             fps,
			TotalFrames:     totalFrames,
			FrameSampleRate: sampleRate,
		},
		Transcript:        transcript,
		FrameDescriptions: frameDescriptions,
	}, nil
}
