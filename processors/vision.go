package processors

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

const visionSystemPrompt = "You are a video frame description assistant. Describe the frame clearly and concisely."

// visionMaxTokens caps each frame description completion.
const visionMaxTokens = 300

// VisionClient produces a textual description for a single frame image.
type VisionClient interface {
	Describe(ctx context.Context, imageBase64, prompt string) (string, error)
}

// OpenAIVisionClient calls a vision-capable chat completion model with the
// frame attached as a data-URI image part.
type OpenAIVisionClient struct {
	cli   *openai.Client
	model string
}

func NewOpenAIVisionClient(cli *openai.Client, model string) *OpenAIVisionClient {
	return &OpenAIVisionClient{cli: cli, model: model}
}

func (c *OpenAIVisionClient) Describe(ctx context.Context, imageBase64, prompt string) (string, error) {
	resp, err := c.cli.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     c.model,
		MaxTokens: visionMaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: visionSystemPrompt,
			},
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeText,
						Text: prompt,
					},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL: fmt.Sprintf("data:image/jpeg;base64,%s", imageBase64),
						},
					},
				},
			},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("vision model returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// newOpenAIClient builds a client against an OpenAI-compatible endpoint.
func newOpenAIClient(apiKey, baseURL string) *openai.Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return openai.NewClientWithConfig(cfg)
}
