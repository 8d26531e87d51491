package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// DefaultFrameSampleRate samples every nth frame for captioning when neither
// the request nor the configuration provides a stride.
const DefaultFrameSampleRate = 120

// FrameSampleRateDisabled is the only recognized sentinel for "captioning
// disabled": the frame loop is skipped entirely and no vision calls happen.
const FrameSampleRateDisabled = -1

// Config holds the process configuration. It is loaded once by the entry
// point; the processing core receives an explicit ParserConfig built from it
// and never reads files on its own.
type Config struct {
	APIKey          string `json:"api_key"`
	BaseURL         string `json:"base_url"`
	VisionModel     string `json:"vision_model"`
	TranscribeModel string `json:"transcribe_model"`
	FrameSampleRate int    `json:"frame_sample_rate"`
	PostgresURL     string `json:"postgres_url"`
}

// LoadConfig reads the JSON config file at path (ignored when missing) and
// applies environment variable overrides on top.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{
		BaseURL:         "https://api.openai.com/v1",
		VisionModel:     "gpt-4o-mini",
		TranscribeModel: "whisper-1",
		FrameSampleRate: DefaultFrameSampleRate,
	}

	if data, err := os.ReadFile(path); err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}

	if key := os.Getenv("API_KEY"); key != "" {
		cfg.APIKey = key
	}
	if url := os.Getenv("BASE_URL"); url != "" {
		cfg.BaseURL = url
	}
	if model := os.Getenv("VISION_MODEL"); model != "" {
		cfg.VisionModel = model
	}
	if model := os.Getenv("TRANSCRIBE_MODEL"); model != "" {
		cfg.TranscribeModel = model
	}
	if rate := os.Getenv("FRAME_SAMPLE_RATE"); rate != "" {
		if n, err := strconv.Atoi(rate); err == nil {
			cfg.FrameSampleRate = n
		}
	}
	if url := os.Getenv("POSTGRES_URL"); url != "" {
		cfg.PostgresURL = url
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.APIKey) == "" {
		problems = append(problems, "api_key is required")
	}
	if strings.TrimSpace(c.BaseURL) == "" {
		problems = append(problems, "base_url is required")
	}
	if strings.TrimSpace(c.VisionModel) == "" {
		problems = append(problems, "vision_model is required")
	}
	if strings.TrimSpace(c.TranscribeModel) == "" {
		problems = append(problems, "transcribe_model is required")
	}
	if c.FrameSampleRate == 0 || c.FrameSampleRate < FrameSampleRateDisabled {
		problems = append(problems, "frame_sample_rate must be a positive stride or -1 to disable captioning")
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(problems, "; "))
	}
	return nil
}

// HasDatabase reports whether a metadata store connection is configured.
func (c *Config) HasDatabase() bool {
	return strings.TrimSpace(c.PostgresURL) != ""
}
