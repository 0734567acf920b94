package vision

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/wb-go/wbf/zlog"

	"github.com/templify/templify/internal/config"
	"github.com/templify/templify/internal/domain"
)

// Client calls the external vision model with a fixed instruction prompt and
// the image inlined as a base64 data URL. One request per Analyze, no
// retries; the context deadline bounds the call.
type Client struct {
	api            *openai.Client
	model          string
	maxTokens      int
	temperature    float32
	requestTimeout time.Duration
}

func NewClient(cfg *config.VisionConfig) *Client {
	apiCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = cfg.BaseURL
	}
	return &Client{
		api:            openai.NewClientWithConfig(apiCfg),
		model:          cfg.Model,
		maxTokens:      cfg.MaxTokens,
		temperature:    cfg.Temperature,
		requestTimeout: time.Duration(cfg.RequestTimeoutSec) * time.Second,
	}
}

func (c *Client) Analyze(ctx context.Context, asset *domain.ImageAsset, raw []byte) (*domain.RawAnalysis, error) {
	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	dataURL := fmt.Sprintf("data:%s;base64,%s", asset.MimeType, base64.StdEncoding.EncodeToString(raw))

	req := openai.ChatCompletionRequest{
		Model:       c.model,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeText,
						Text: analysisPrompt,
					},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    dataURL,
							Detail: openai.ImageURLDetailAuto,
						},
					},
				},
			},
		},
	}

	started := time.Now()
	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		zlog.Logger.Error().
			Err(err).
			Str("image_id", asset.ID).
			Str("model", c.model).
			Dur("elapsed", time.Since(started)).
			Msg("vision model call failed")
		// Transport, auth, quota and deadline errors all surface here;
		// a malformed payload is a different failure class.
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: request timed out after %s", domain.ErrModelUnavailable, c.requestTimeout)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrModelUnavailable, err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: response contains no choices", domain.ErrModelMalformed)
	}

	analysis, err := ParseResponse(resp.Choices[0].Message.Content)
	if err != nil {
		zlog.Logger.Warn().
			Err(err).
			Str("image_id", asset.ID).
			Msg("vision model returned unparsable payload")
		return nil, err
	}

	zlog.Logger.Info().
		Str("image_id", asset.ID).
		Str("model", c.model).
		Int("fonts", len(analysis.Fonts)).
		Int("colors", len(analysis.Colors)).
		Dur("elapsed", time.Since(started)).
		Msg("vision analysis completed")

	return analysis, nil
}
