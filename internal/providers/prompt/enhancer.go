// Package prompt turns short user descriptions into richer generation
// prompts and answers styling questions in chat.
package prompt

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const staticProviderName = "static"

// EnhanceRequest carries the user's raw description.
type EnhanceRequest struct {
	Description string
	Mode        string
	Locale      string
}

// EnhanceResponse is the enriched prompt returned to the caller.
type EnhanceResponse struct {
	Prompt   string            `json:"prompt"`
	Keywords []string          `json:"keywords"`
	Metadata map[string]string `json:"metadata"`
	Provider string            `json:"-"`
}

// ChatRequest is a free-form styling question.
type ChatRequest struct {
	Message string
	Locale  string
}

// ChatResponse is the assistant's reply.
type ChatResponse struct {
	Reply    string `json:"reply"`
	Provider string `json:"-"`
}

type Enhancer interface {
	Enhance(ctx context.Context, req EnhanceRequest) (*EnhanceResponse, error)
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

// StaticEnhancer is the deterministic fallback used when no LLM provider is
// configured.
type StaticEnhancer struct{}

func NewStaticEnhancer() *StaticEnhancer {
	return &StaticEnhancer{}
}

func (s *StaticEnhancer) Enhance(ctx context.Context, req EnhanceRequest) (*EnhanceResponse, error) {
	c := cases.Title(language.Und)
	description := strings.TrimSpace(req.Description)
	if description == "" {
		description = "a studio portrait"
	}
	styled := fmt.Sprintf(
		"%s. Professional studio lighting, sharp focus on the subject, natural skin tones, clean background.",
		c.String(description),
	)
	if req.Mode == "multi" {
		styled += " Keep every person's face true to the reference photos."
	}
	return &EnhanceResponse{
		Prompt:   styled,
		Keywords: []string{"portrait", "studio", "high detail"},
		Metadata: map[string]string{"locale": req.Locale},
		Provider: staticProviderName,
	}, nil
}

func (s *StaticEnhancer) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	return &ChatResponse{
		Reply:    "Try describing the outfit, backdrop and mood you want, for example: \"business portrait, charcoal suit, soft grey backdrop, confident smile\".",
		Provider: staticProviderName,
	}, nil
}

var _ Enhancer = (*StaticEnhancer)(nil)
