package prompt

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const enhanceSystemPrompt = `You rewrite short photo descriptions into rich, concrete prompts for an
image generation model. Keep the subject's identity, add lighting, styling
and composition detail, and answer with the prompt text only.`

const chatSystemPrompt = `You are a friendly photo styling assistant inside a portrait generation
app. Answer briefly and concretely.`

// OpenAIEnhancer enriches prompts through the chat completions API.
type OpenAIEnhancer struct {
	client *openai.Client
	model  string
}

func NewOpenAIEnhancer(apiKey, baseURL, model string) *OpenAIEnhancer {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAIEnhancer{client: openai.NewClientWithConfig(cfg), model: model}
}

func (e *OpenAIEnhancer) Enhance(ctx context.Context, req EnhanceRequest) (*EnhanceResponse, error) {
	user := req.Description
	if req.Mode != "" {
		user = fmt.Sprintf("[mode: %s] %s", req.Mode, user)
	}
	content, err := e.complete(ctx, enhanceSystemPrompt, user)
	if err != nil {
		return nil, fmt.Errorf("prompt enhance: %w", err)
	}
	return &EnhanceResponse{
		Prompt:   content,
		Keywords: extractKeywords(content),
		Metadata: map[string]string{"locale": req.Locale, "model": e.model},
		Provider: "openai",
	}, nil
}

func (e *OpenAIEnhancer) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	content, err := e.complete(ctx, chatSystemPrompt, req.Message)
	if err != nil {
		return nil, fmt.Errorf("chat: %w", err)
	}
	return &ChatResponse{Reply: content, Provider: "openai"}, nil
}

func (e *OpenAIEnhancer) complete(ctx context.Context, system, user string) (string, error) {
	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: e.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty completion")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func extractKeywords(prompt string) []string {
	var keywords []string
	for _, word := range strings.Fields(strings.ToLower(prompt)) {
		word = strings.Trim(word, ".,;:!?\"'")
		if len(word) > 6 && len(keywords) < 5 {
			keywords = append(keywords, word)
		}
	}
	return keywords
}

var _ Enhancer = (*OpenAIEnhancer)(nil)
