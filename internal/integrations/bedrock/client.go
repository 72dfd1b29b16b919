package bedrock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	"idea-relay/internal/domain"
)

const anthropicVersion = "bedrock-2023-05-31"

// runtimeAPI is the minimal Bedrock runtime interface required by Client.
// *bedrockruntime.Client satisfies it.
type runtimeAPI interface {
	InvokeModel(ctx context.Context, in *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// messagesRequest is the Anthropic messages body accepted by InvokeModel.
type messagesRequest struct {
	AnthropicVersion string               `json:"anthropic_version"`
	MaxTokens        int                  `json:"max_tokens"`
	Messages         []domain.ChatMessage `json:"messages"`
	System           string               `json:"system,omitempty"`
	Temperature      float64              `json:"temperature"`
	TopK             int                  `json:"top_k,omitempty"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

// Params are the fixed generation parameters sent with every request.
type Params struct {
	MaxTokens   int
	Temperature float64
	TopK        int
}

// Client invokes an Anthropic model hosted on Bedrock.
type Client struct {
	api     runtimeAPI
	modelID string
	params  Params
}

func New(api runtimeAPI, modelID string, params Params) (*Client, error) {
	if api == nil {
		return nil, errors.New("bedrock: api must not be nil")
	}
	modelID = strings.TrimSpace(modelID)
	if modelID == "" {
		return nil, errors.New("bedrock: model id must not be empty")
	}
	if params.MaxTokens <= 0 {
		return nil, errors.New("bedrock: max tokens must be positive")
	}
	return &Client{api: api, modelID: modelID, params: params}, nil
}

// Complete sends the system prompt and conversation to the model and returns
// the text of the first content block.
func (c *Client) Complete(ctx context.Context, system string, history []domain.ChatMessage) (string, error) {
	body, err := json.Marshal(messagesRequest{
		AnthropicVersion: anthropicVersion,
		MaxTokens:        c.params.MaxTokens,
		Messages:         history,
		System:           system,
		Temperature:      c.params.Temperature,
		TopK:             c.params.TopK,
	})
	if err != nil {
		return "", fmt.Errorf("bedrock: marshal request: %w", err)
	}

	out, err := c.api.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(c.modelID),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		return "", fmt.Errorf("bedrock: invoke model %s: %w", c.modelID, err)
	}
	if out == nil {
		return "", errors.New("bedrock: empty invoke output")
	}

	var payload messagesResponse
	if err := json.Unmarshal(out.Body, &payload); err != nil {
		return "", fmt.Errorf("bedrock: decode response: %w", err)
	}
	if len(payload.Content) == 0 {
		return "", errors.New("bedrock: no content in response")
	}
	return payload.Content[0].Text, nil
}
