package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"

	domai "github.com/calicode24/calicode/internal/domain/ai"
	"github.com/calicode24/calicode/internal/domain/documents"
	"github.com/calicode24/calicode/internal/infra/ai/prompt"
)

const (
	maxTokens    = 4096
	defaultModel = "gpt-4o"
)

// Client classifies documents with an OpenAI chat model. Images go in as data
// URLs; PDFs go in as their extracted text.
type Client struct {
	*openai.Client
	apiKey string
	model  string
	text   documents.TextExtractor
}

func NewClient(apiKey, model string, text documents.TextExtractor) *Client {
	if model == "" {
		model = defaultModel
	}
	return &Client{Client: openai.NewClient(apiKey), apiKey: apiKey, model: model, text: text}
}

func (c *Client) Model() string { return c.model }

func (c *Client) Classify(ctx context.Context, req domai.Request) (domai.Response, error) {
	if c.apiKey == "" {
		return domai.Response{}, domai.ErrNotConfigured
	}

	userParts, err := c.userParts(req)
	if err != nil {
		return domai.Response{}, err
	}

	chat := openai.ChatCompletionRequest{
		Model: c.model,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt.GetSystemPrompt()},
			{Role: openai.ChatMessageRoleUser, MultiContent: userParts},
		},
	}
	// reasoning models (o1/o3/o4/gpt-5*) take MaxCompletionTokens instead of MaxTokens
	if isReasoningModel(c.model) {
		chat.MaxCompletionTokens = maxTokens
	} else {
		chat.MaxTokens = maxTokens
		chat.Temperature = 0.2
	}

	resp, err := c.CreateChatCompletion(ctx, chat)
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusTooManyRequests {
			return domai.Response{}, domai.ErrQuotaExceeded
		}
		return domai.Response{}, fmt.Errorf("failed to create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return domai.Response{}, domai.ErrEmptyResponse
	}

	raw, err := json.Marshal(resp)
	if err != nil {
		raw = nil
	}
	return domai.Response{Text: resp.Choices[0].Message.Content, Raw: raw}, nil
}

func (c *Client) userParts(req domai.Request) ([]openai.ChatMessagePart, error) {
	instruction := "Classify the attached document and respond with the JSON object."
	if req.Context != "" {
		instruction += prompt.ContextSuffix + req.Context
	}
	parts := []openai.ChatMessagePart{{Type: openai.ChatMessagePartTypeText, Text: instruction}}

	doc := req.Document
	if strings.HasPrefix(doc.MediaType, "image/") {
		parts = append(parts, openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{
				URL:    "data:" + doc.MediaType + ";base64," + doc.Data,
				Detail: openai.ImageURLDetailHigh,
			},
		})
		return parts, nil
	}

	if c.text == nil {
		return nil, fmt.Errorf("no text extractor for %s", doc.MediaType)
	}
	text, err := c.text.Extract(doc.Raw, doc.MediaType)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", doc.Name, err)
	}
	parts = append(parts, openai.ChatMessagePart{
		Type: openai.ChatMessagePartTypeText,
		Text: "Document text (" + doc.Name + "):\n" + text,
	})
	return parts, nil
}

func isReasoningModel(model string) bool {
	for _, p := range []string{"o1", "o3", "o4", "gpt-5"} {
		if strings.HasPrefix(model, p) {
			return true
		}
	}
	return false
}
