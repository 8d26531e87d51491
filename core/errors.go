package core

import "errors"

// Fatal pipeline errors. Each one aborts the whole video's processing; the
// orchestrator wraps stage failures so callers can identify the failed stage
// with errors.Is. An empty transcript and a failed chunk augmentation are
// deliberately not represented here: both degrade gracefully.
var (
	// ErrVideoOpen means the video file could not be opened or probed.
	ErrVideoOpen = errors.New("could not open video")

	// ErrTranscription means the transcription service reported a terminal
	// error status. Captioning depends on transcript context, so this blocks
	// the frame loop too.
	ErrTranscription = errors.New("transcription failed")

	// ErrFrameEncode means a sampled frame could not be encoded for
	// transport. A broken encode indicates a systemic codec problem, so the
	// run fails rather than skipping the frame.
	ErrFrameEncode = errors.New("failed to encode frame")

	// ErrVisionService means the vision description service failed for a
	// sampled frame. Retries, if any, belong to the external client.
	ErrVisionService = errors.New("vision description failed")
)
