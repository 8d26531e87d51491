package core

// Utterance is one speech-to-text segment as returned by the transcription
// service. Start times are in the service's native unit, milliseconds; the
// transcript index builder converts them to seconds.
type Utterance struct {
	StartMs int64  `json:"start_ms"`
	Text    string `json:"text"`
}

// VideoMetadata describes a processed video file.
type VideoMetadata struct {
	Duration        float64 `json:"duration"`
	FPS             float64 `json:"fps"`
	TotalFrames     int     `json:"total_frames"`
	FrameSampleRate int     `json:"frame_sample_rate"`
}

// ParseVideoResult is the outcome of one full video ingestion run: the video
// metadata plus the two timelines produced by transcription and frame
// captioning. FrameDescriptions is empty when captioning is disabled.
// The result is immutable once returned by the orchestrator.
type ParseVideoResult struct {
	Metadata          VideoMetadata    `json:"metadata"`
	Transcript        *TimeSeriesIndex `json:"transcript"`
	FrameDescriptions *TimeSeriesIndex `json:"frame_descriptions"`
}
