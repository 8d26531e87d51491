package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"videoindex/core"
	"videoindex/storage"
)

// VideoProcessor runs the ingestion pipeline for one video.
type VideoProcessor interface {
	ProcessVideo(ctx context.Context, videoPath string, sampleRateOverride int) (*core.ParseVideoResult, error)
}

// Server exposes the pipeline and the chunk augmentor over HTTP. The
// metadata repository is optional; without it processing results are
// returned but not persisted, and augmentation falls back to raw content.
type Server struct {
	processor VideoProcessor
	repo      storage.MetadataRepository
	validate  *validator.Validate
}

func NewServer(processor VideoProcessor, repo storage.MetadataRepository) *Server {
	return &Server{
		processor: processor,
		repo:      repo,
		validate:  validator.New(),
	}
}

// Routes registers all handlers on a fresh mux.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/process-video", s.ProcessVideoHandler)
	mux.HandleFunc("/augment-chunk", s.AugmentChunkHandler)
	mux.HandleFunc("/health", s.HealthHandler)
	return mux
}

type ProcessVideoRequest struct {
	VideoPath  string `json:"video_path" validate:"required"`
	DocumentID string `json:"document_id"`
	// FrameSampleRate overrides the configured stride; -1 disables
	// captioning for this video, 0 keeps the configured default.
	FrameSampleRate int `json:"frame_sample_rate" validate:"omitempty,min=-1"`
}

type ProcessVideoResponse struct {
	DocumentID       string             `json:"document_id"`
	Metadata         core.VideoMetadata `json:"metadata"`
	TranscriptCount  int                `json:"transcript_count"`
	DescriptionCount int                `json:"description_count"`
	Persisted        bool               `json:"persisted"`
}

func (s *Server) ProcessVideoHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	var req ProcessVideoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	documentID := req.DocumentID
	if documentID == "" {
		documentID = uuid.NewString()
	}
	log := logrus.WithFields(logrus.Fields{"document_id": documentID, "video": req.VideoPath})

	result, err := s.processor.ProcessVideo(r.Context(), req.VideoPath, req.FrameSampleRate)
	if err != nil {
		log.WithError(err).Error("video processing failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	persisted := false
	if s.repo != nil {
		if err := s.repo.Save(r.Context(), documentID, result); err != nil {
			log.WithError(err).Error("failed to persist video metadata")
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		persisted = true
	}

	writeJSON(w, http.StatusOK, ProcessVideoResponse{
		DocumentID:       documentID,
		Metadata:         result.Metadata,
		TranscriptCount:  result.Transcript.Len(),
		DescriptionCount: result.FrameDescriptions.Len(),
		Persisted:        persisted,
	})
}

type AugmentChunkRequest struct {
	DocumentID string `json:"document_id" validate:"required"`
	Content    string `json:"content" validate:"required"`
	// Timestamp marks the chunk as video-derived; without it augmentation
	// is a no-op and the raw content is returned.
	Timestamp *float64 `json:"timestamp"`
}

type AugmentChunkResponse struct {
	DocumentID string `json:"document_id"`
	Content    string `json:"content"`
	Augmented  bool   `json:"augmented"`
}

func (s *Server) AugmentChunkHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	var req AugmentChunkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	chunk := core.Chunk{Content: req.Content}
	if req.Timestamp != nil {
		chunk.Video = &core.VideoOrigin{TimestampHint: *req.Timestamp}
	}

	var frames, transcript *core.TimeSeriesIndex
	if s.repo != nil && chunk.Video != nil {
		var err error
		frames, transcript, err = s.repo.Load(r.Context(), req.DocumentID)
		if err != nil {
			// Augmentation degrades gracefully, it never fails the request.
			logrus.WithError(err).WithField("document_id", req.DocumentID).
				Warn("could not load indices, returning raw chunk content")
			frames, transcript = nil, nil
		}
	}

	augmented := core.AugmentChunk(chunk, frames, transcript)
	writeJSON(w, http.StatusOK, AugmentChunkResponse{
		DocumentID: req.DocumentID,
		Content:    augmented,
		Augmented:  augmented != req.Content,
	})
}

func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}
