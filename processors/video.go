package processors

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"videoindex/core"
)

// VideoSource yields a video's frames sequentially, already encoded for
// transport. Close releases the underlying decoder and is safe to call more
// than once; callers must call it on every exit path.
type VideoSource interface {
	// Metadata returns the frame rate and the total frame count. The count
	// may be approximate; ReadFrame is the source of truth for the stream.
	Metadata() (fps float64, totalFrames int)
	// ReadFrame returns the next JPEG-encoded frame, or ok=false at end of
	// stream. A mid-stream decode failure is reported as end of stream.
	ReadFrame() (frame []byte, ok bool)
	Close() error
}

// ProbeVideo reads fps and frame count from the container via ffprobe.
// Failures wrap core.ErrVideoOpen: a video that cannot be probed cannot be
// processed at all.
func ProbeVideo(ctx context.Context, path string) (fps float64, totalFrames int, err error) {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=r_frame_rate,nb_frames",
		"-show_entries", "format=duration",
		"-of", "json",
		path)
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return 0, 0, fmt.Errorf("%w: ffprobe %s: %v", core.ErrVideoOpen, path, err)
	}

	var probe struct {
		Streams []struct {
			RFrameRate string `json:"r_frame_rate"`
			NbFrames   string `json:"nb_frames"`
		} `json:"streams"`
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if err := json.Unmarshal(out.Bytes(), &probe); err != nil || len(probe.Streams) == 0 {
		return 0, 0, fmt.Errorf("%w: no video stream in %s", core.ErrVideoOpen, path)
	}

	fps, err = parseFrameRate(probe.Streams[0].RFrameRate)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", core.ErrVideoOpen, err)
	}

	if n, err := strconv.Atoi(probe.Streams[0].NbFrames); err == nil && n > 0 {
		totalFrames = n
	} else if d, err := strconv.ParseFloat(probe.Format.Duration, 64); err == nil {
		// Some containers omit nb_frames; estimate from duration.
		totalFrames = int(d * fps)
	}
	if totalFrames <= 0 {
		return 0, 0, fmt.Errorf("%w: could not determine frame count for %s", core.ErrVideoOpen, path)
	}
	return fps, totalFrames, nil
}

// parseFrameRate parses an ffprobe rational such as "30000/1001".
func parseFrameRate(raw string) (float64, error) {
	num, den, found := strings.Cut(raw, "/")
	if !found {
		return strconv.ParseFloat(raw, 64)
	}
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, fmt.Errorf("bad frame rate %q: %v", raw, err)
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0, fmt.Errorf("bad frame rate %q", raw)
	}
	return n / d, nil
}

// ffmpegSource streams MJPEG frames from an ffmpeg child process.
type ffmpegSource struct {
	fps         float64
	totalFrames int
	cmd         *exec.Cmd
	stdout      io.ReadCloser
	reader      *bufio.Reader
	closed      bool
}

// OpenVideo probes the file and starts a sequential frame decode.
func OpenVideo(ctx context.Context, path string) (VideoSource, error) {
	fps, totalFrames, err := ProbeVideo(ctx, path)
	if err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-v", "error",
		"-i", path,
		"-f", "image2pipe",
		"-vcodec", "mjpeg",
		"-q:v", "5",
		"-")
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrVideoOpen, err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: start ffmpeg: %v", core.ErrVideoOpen, err)
	}

	return &ffmpegSource{
		fps:         fps,
		totalFrames: totalFrames,
		cmd:         cmd,
		stdout:      stdout,
		reader:      bufio.NewReaderSize(stdout, 1<<20),
	}, nil
}

func (s *ffmpegSource) Metadata() (float64, int) {
	return s.fps, s.totalFrames
}

func (s *ffmpegSource) ReadFrame() ([]byte, bool) {
	if s.closed {
		return nil, false
	}
	frame, err := readJPEGFrame(s.reader)
	if err != nil {
		if err != io.EOF {
			logrus.WithError(err).Debug("frame stream ended early, treating as end of stream")
		}
		return nil, false
	}
	return frame, true
}

// Close terminates the decoder. Releasing twice is a no-op so every exit
// path of the caller can close unconditionally.
func (s *ffmpegSource) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.stdout.Close()
	if s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
	}
	_ = s.cmd.Wait()
	return nil
}

// readJPEGFrame extracts the next JPEG image from an MJPEG byte stream by
// scanning for the SOI/EOI markers. Inside entropy-coded data 0xFFD9 only
// appears as the end-of-image marker, so marker scanning is sufficient.
func readJPEGFrame(r *bufio.Reader) ([]byte, error) {
	// Find start of image (0xFFD8).
	for {
		b, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		if b != 0xff {
			continue
		}
		next, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		if next == 0xd8 {
			break
		}
	}

	frame := []byte{0xff, 0xd8}
	prev := byte(0)
	for {
		b, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		frame = append(frame, b)
		if prev == 0xff && b == 0xd9 {
			return frame, nil
		}
		prev = b
	}
}
