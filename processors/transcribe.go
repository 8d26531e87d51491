package processors

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"

	"videoindex/core"
)

// TranscriptionProvider submits a media file to a speech-to-text service and
// blocks until a terminal status. Utterance start times are in the service's
// native milliseconds. Implementations own any retry policy; a returned
// error is terminal for the video.
type TranscriptionProvider interface {
	Transcribe(ctx context.Context, mediaPath string) ([]core.Utterance, error)
}

// WhisperTranscriber transcribes through an OpenAI-compatible audio
// transcription endpoint.
type WhisperTranscriber struct {
	cli   *openai.Client
	model string
}

func NewWhisperTranscriber(cli *openai.Client, model string) *WhisperTranscriber {
	return &WhisperTranscriber{cli: cli, model: model}
}

func (t *WhisperTranscriber) Transcribe(ctx context.Context, mediaPath string) ([]core.Utterance, error) {
	resp, err := t.cli.CreateTranscription(ctx, openai.AudioRequest{
		Model:    t.model,
		FilePath: mediaPath,
		Format:   openai.AudioResponseFormatVerboseJSON,
	})
	if err != nil {
		return nil, fmt.Errorf("transcription request: %w", err)
	}

	utterances := make([]core.Utterance, 0, len(resp.Segments))
	for _, seg := range resp.Segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		utterances = append(utterances, core.Utterance{
			StartMs: int64(seg.Start * 1000),
			Text:    text,
		})
	}
	return utterances, nil
}

// BuildTranscriptIndex converts utterances into a transcript timeline,
// dividing start times by 1000 because the service reports milliseconds.
// Zero utterances is not an error: a video may legitimately have no speech,
// so an empty index is returned with a warning.
func BuildTranscriptIndex(utterances []core.Utterance) *core.TimeSeriesIndex {
	index := core.NewTimeSeriesIndex()
	if len(utterances) == 0 {
		logrus.Warn("no utterances found in transcript, continuing with empty transcript index")
		return index
	}
	for _, u := range utterances {
		index.Insert(float64(u.StartMs)/1000.0, u.Text)
	}
	logrus.WithField("utterances", index.Len()).Info("transcript index built")
	return index
}
