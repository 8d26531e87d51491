package core

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
)

// DefaultAugmentPadding is the ± window (seconds) used when rendering the
// frame/transcript context around a matched timestamp during augmentation.
const DefaultAugmentPadding = 5.0

// VideoOrigin tags a chunk whose content was produced from a sampled video
// instant. The hint is informational: augmentation recovers the candidate
// instants from the content itself via the reverse index, because the same
// rendered text can occur at several timestamps.
type VideoOrigin struct {
	TimestampHint float64 `json:"timestamp_hint"`
}

// Chunk is a retrieval unit of text produced by an upstream splitter.
type Chunk struct {
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata,omitempty"`
	Video    *VideoOrigin   `json:"video_origin,omitempty"`
}

// ChunkFromMetadata builds a chunk from raw content and a metadata map,
// promoting a "timestamp" key into the tagged VideoOrigin variant. Documents
// ingested by older writers carry only the key.
func ChunkFromMetadata(content string, metadata map[string]any) Chunk {
	chunk := Chunk{Content: content, Metadata: metadata}
	if ts, ok := metadata["timestamp"]; ok {
		origin := &VideoOrigin{}
		switch v := ts.(type) {
		case float64:
			origin.TimestampHint = v
		case int:
			origin.TimestampHint = float64(v)
		}
		chunk.Video = origin
	}
	return chunk
}

// AugmentChunk reconstructs the multi-modal context for a video-derived
// chunk. For every timestamp at which the chunk's content occurred in either
// timeline it renders a labeled block of the frame description and the
// transcript window around that instant, joined by blank lines.
//
// Augmentation is read-only and never fails: a chunk without a video origin,
// a missing index, or a content string with no timestamp match all fall back
// to the raw content.
func AugmentChunk(chunk Chunk, frames, transcript *TimeSeriesIndex) string {
	if chunk.Video == nil {
		return chunk.Content
	}
	if frames == nil || transcript == nil {
		logrus.Warn("missing frame description or transcript index, returning raw chunk content")
		return chunk.Content
	}

	times := append(frames.TimesFor(chunk.Content), transcript.TimesFor(chunk.Content)...)
	if len(times) == 0 {
		return chunk.Content
	}
	sort.Float64s(times)

	blocks := make([]string, 0, len(times))
	var last float64
	for i, t := range times {
		if i > 0 && t == last {
			continue
		}
		last = t
		blocks = append(blocks, fmt.Sprintf(
			"Frame description: %s\n\nTranscript: %s",
			frames.At(t, DefaultAugmentPadding),
			transcript.At(t, DefaultAugmentPadding),
		))
	}
	return strings.Join(blocks, "\n\n")
}
