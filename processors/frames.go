package processors

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/sirupsen/logrus"

	"videoindex/config"
	"videoindex/core"
)

// transcriptPadding is the ± window (seconds) of transcript context included
// in each frame description prompt.
const transcriptPadding = 10.0

const noPreviousDescription = "No previous frame description available, this is the first frame"

// FrameCaptioner samples a video's frames at a fixed stride and generates a
// description for each sampled frame. The chain is sequential by
// construction: every prompt embeds the immediately preceding description,
// so frames cannot be captioned in parallel without losing that context.
type FrameCaptioner struct {
	vision     VisionClient
	sampleRate int
	// open is the video decoder factory; swapped out in tests.
	open func(ctx context.Context, path string) (VideoSource, error)
}

func NewFrameCaptioner(vision VisionClient, sampleRate int) *FrameCaptioner {
	return &FrameCaptioner{
		vision:     vision,
		sampleRate: sampleRate,
		open:       OpenVideo,
	}
}

// ResolveSampleRate picks the effective stride: explicit request value
// first, then the configured default, then the package default. Zero means
// "not set" at each level; config.FrameSampleRateDisabled (-1) passes
// through and disables captioning.
func ResolveSampleRate(explicit, configured int) int {
	if explicit != 0 {
		return explicit
	}
	if configured != 0 {
		return configured
	}
	return config.DefaultFrameSampleRate
}

// Run walks the video's frame stream and returns the frame-description
// timeline. With the stride sentinel -1 it returns an empty index without
// opening the video or calling the vision service. The decoder is released
// exactly once on every exit path.
func (fc *FrameCaptioner) Run(ctx context.Context, videoPath string, transcript *core.TimeSeriesIndex) (*core.TimeSeriesIndex, error) {
	descriptions := core.NewTimeSeriesIndex()

	if fc.sampleRate == config.FrameSampleRateDisabled {
		logrus.Info("frame captioning is disabled (frame_sample_rate = -1)")
		return descriptions, nil
	}
	if fc.sampleRate <= 0 {
		return nil, fmt.Errorf("invalid frame sample rate %d", fc.sampleRate)
	}

	src, err := fc.open(ctx, videoPath)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	fps, _ := src.Metadata()
	prevDescription := ""
	frameIndex := 0
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		frame, ok := src.ReadFrame()
		if !ok {
			// End of stream, or a decode failure treated as such: frame
			// count metadata can be approximate.
			break
		}
		if frameIndex%fc.sampleRate == 0 {
			timestamp := float64(frameIndex) / fps
			description, err := fc.describeFrame(ctx, frame, timestamp, transcript, prevDescription)
			if err != nil {
				return nil, err
			}
			descriptions.Insert(timestamp, description)
			prevDescription = description
		}
		frameIndex++
	}

	logrus.WithField("descriptions", descriptions.Len()).Info("frame description generation completed")
	return descriptions, nil
}

// describeFrame is one step of the caption fold: it consumes the previous
// description as the accumulator and produces the next one.
func (fc *FrameCaptioner) describeFrame(ctx context.Context, frame []byte, timestamp float64, transcript *core.TimeSeriesIndex, prevDescription string) (string, error) {
	imageBase64, err := frameToBase64(frame)
	if err != nil {
		return "", fmt.Errorf("%w at %.2fs: %v", core.ErrFrameEncode, timestamp, err)
	}

	prompt := buildFramePrompt(transcript.At(timestamp, transcriptPadding), prevDescription)
	description, err := fc.vision.Describe(ctx, imageBase64, prompt)
	if err != nil {
		return "", fmt.Errorf("%w at %.2fs: %v", core.ErrVisionService, timestamp, err)
	}
	return description, nil
}

func frameToBase64(frame []byte) (string, error) {
	if len(frame) == 0 {
		return "", fmt.Errorf("empty frame buffer")
	}
	return base64.StdEncoding.EncodeToString(frame), nil
}

func buildFramePrompt(transcriptWindow, prevDescription string) string {
	if prevDescription == "" {
		prevDescription = noPreviousDescription
	}
	return fmt.Sprintf(`Describe this frame from a video. Focus on the main elements, actions, and any notable details. Here is the transcript around the time of the frame:
---
%s
---

Here is a description of the previous frame:
---
%s
---

In your response, only provide the description of the current frame, using the above information as context.`, transcriptWindow, prevDescription)
}
