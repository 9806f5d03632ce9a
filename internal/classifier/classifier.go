// Package classifier implements the external categorization collaborator:
// a batch of images goes out to an OpenAI-compatible vision endpoint, a
// category → image-index mapping comes back.
package classifier

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/dmitrijs2005/photovault/internal/common"
	"github.com/dmitrijs2005/photovault/internal/logging"
)

const classificationPrompt = `Analyze the content of these images and sort them into suitable collections.
Return JSON in the form: {"categories": {"Landscape": [0,2], "Food": [1,3]}}
where each number is the zero-based index of an image in the order given.
Suggested categories: People, Landscape, Food, Pets, Documents, Screenshots.
Create a new category when none of these fits.
Return only the JSON, no other text.`

// Client calls the classification endpoint. The zero value is not usable;
// construct with New.
type Client struct {
	api   *openai.Client
	model string
	log   logging.Logger
}

// New builds a client for an OpenAI-compatible endpoint. baseURL may be
// empty for the default host.
func New(apiKey, baseURL, model string, log logging.Logger) *Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &Client{api: openai.NewClientWithConfig(cfg), model: model, log: log}
}

// Classify sends all images in one vision request followed by the
// classification prompt and parses the mapping out of the reply.
//
// Every failure mode — transport, API error, missing choices, reply text
// without a parseable mapping — is reported as common.ErrClassifier so
// the ingestion pipeline can treat the call as its single all-or-nothing
// boundary.
func (c *Client) Classify(ctx context.Context, images [][]byte) (map[string][]int, error) {
	parts := make([]openai.ChatMessagePart, 0, len(images)+1)
	for _, img := range images {
		parts = append(parts, openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{
				URL:    "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(img),
				Detail: openai.ImageURLDetailAuto,
			},
		})
	}
	parts = append(parts, openai.ChatMessagePart{
		Type: openai.ChatMessagePartTypeText,
		Text: classificationPrompt,
	})

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, MultiContent: parts},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrClassifier, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices in response", common.ErrClassifier)
	}

	mapping, err := ParseMapping(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}

	c.log.Debug(ctx, "images classified", "images", len(images), "categories", len(mapping))
	return mapping, nil
}

// ParseMapping extracts the {"categories": {...}} object from reply text
// that may wrap the JSON in prose or code fences.
func ParseMapping(text string) (map[string][]int, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("%w: no JSON object in reply", common.ErrClassifier)
	}

	var parsed struct {
		Categories map[string][]int `json:"categories"`
	}
	if err := json.Unmarshal([]byte(text[start:end+1]), &parsed); err != nil {
		return nil, fmt.Errorf("%w: decode mapping: %v", common.ErrClassifier, err)
	}
	if parsed.Categories == nil {
		return nil, fmt.Errorf("%w: reply has no categories", common.ErrClassifier)
	}
	return parsed.Categories, nil
}
