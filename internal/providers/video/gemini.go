package video

import (
	"context"

	"snapforge/internal/providers/genai"
)

// Source is the uploaded reference image the video animates.
type Source struct {
	MIME string
	Data []byte
}

type GenerateRequest struct {
	Prompt    string
	Source    *Source
	RequestID string
}

// Asset is one generated video, addressed by URL.
type Asset struct {
	URL    string
	Format string
	Length int
}

type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (*Asset, error)
}

type GeminiGenerator struct {
	client *genai.Client
}

func NewGeminiGenerator(client *genai.Client) *GeminiGenerator {
	return &GeminiGenerator{client: client}
}

func (g *GeminiGenerator) Generate(ctx context.Context, req GenerateRequest) (*Asset, error) {
	var source *genai.SourcePart
	if req.Source != nil {
		source = &genai.SourcePart{MIME: req.Source.MIME, Data: req.Source.Data}
	}
	asset, err := g.client.GenerateVideo(ctx, genai.VideoRequest{
		Prompt:    req.Prompt,
		Source:    source,
		RequestID: req.RequestID,
	})
	if err != nil {
		return nil, err
	}
	return &Asset{URL: asset.URL, Format: asset.Format, Length: asset.Length}, nil
}

var _ Generator = (*GeminiGenerator)(nil)
