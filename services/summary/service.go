package summary

import (
	"context"
	"strings"

	"github.com/nijaru/vi-transcript/config"
	"github.com/nijaru/vi-transcript/errors"
	"github.com/nijaru/vi-transcript/models"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/sirupsen/logrus"
)

const (
	MsgMissingInput = "Please pass a 'prompt' query parameter and the text in the request body."
	MsgFailed       = "Failed to generate summary"
)

type service struct {
	client openai.Client
	config Config
	logger *logrus.Logger
}

// NewClient builds a chat completion client for any OpenAI-compatible
// endpoint. SDK retries are disabled; a failed call fails the request.
func NewClient(cfg config.OpenAIConfig) openai.Client {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}
	return openai.NewClient(opts...)
}

func NewService(client openai.Client, cfg Config, logger *logrus.Logger) Service {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &service{
		client: client,
		config: cfg,
		logger: logger,
	}
}

func (s *service) Summarize(ctx context.Context, req models.SummaryRequest) (string, error) {
	const op = "SummaryService.Summarize"
	logger := s.logger.WithContext(ctx).WithFields(logrus.Fields{
		"operation":   op,
		"model":       s.config.Model,
		"text_length": len(req.Text),
	})

	if strings.TrimSpace(req.Instruction) == "" || strings.TrimSpace(req.Text) == "" {
		return "", errors.InvalidInput(op, nil, MsgMissingInput)
	}

	resp, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(s.config.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(req.Prompt()),
		},
		Temperature: openai.Float(s.config.Temperature),
	})
	if err != nil {
		logger.WithError(err).Error("Chat completion failed")
		return "", errors.Internal(op, err, MsgFailed)
	}

	if len(resp.Choices) == 0 {
		logger.Error("Chat completion returned no choices")
		return "", errors.Internal(op, nil, MsgFailed)
	}

	logger.WithFields(logrus.Fields{
		"finish_reason":     resp.Choices[0].FinishReason,
		"completion_tokens": resp.Usage.CompletionTokens,
	}).Info("Summary generated")

	return resp.Choices[0].Message.Content, nil
}
