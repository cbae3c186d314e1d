package image

import (
	"context"
	"encoding/base64"
	"fmt"

	"snapforge/internal/providers/genai"
)

// Source is an uploaded reference image.
type Source struct {
	MIME string
	Data []byte
}

// GenerateRequest carries one image transformation.
type GenerateRequest struct {
	Prompt      string
	Sources     []Source
	Quantity    int
	AspectRatio string
	Size        string
	Fidelity    string
	RequestID   string
}

// Asset is one generated image.
type Asset struct {
	Data   []byte
	Format string
	Width  int
	Height int
}

// DataURI renders the asset as a data URI for direct display.
func (a Asset) DataURI() string {
	return fmt.Sprintf("data:%s;base64,%s", a.Format, base64.StdEncoding.EncodeToString(a.Data))
}

type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) ([]Asset, error)
}

type GeminiGenerator struct {
	client *genai.Client
}

func NewGeminiGenerator(client *genai.Client) *GeminiGenerator {
	return &GeminiGenerator{client: client}
}

func (g *GeminiGenerator) Generate(ctx context.Context, req GenerateRequest) ([]Asset, error) {
	sources := make([]genai.SourcePart, len(req.Sources))
	for i, src := range req.Sources {
		sources[i] = genai.SourcePart{MIME: src.MIME, Data: src.Data}
	}
	assets, err := g.client.GenerateImages(ctx, genai.ImageRequest{
		Prompt:      req.Prompt,
		Sources:     sources,
		Quantity:    req.Quantity,
		AspectRatio: req.AspectRatio,
		Size:        req.Size,
		Fidelity:    req.Fidelity,
		RequestID:   req.RequestID,
	})
	if err != nil {
		return nil, err
	}
	out := make([]Asset, len(assets))
	for i, asset := range assets {
		out[i] = Asset{
			Data:   asset.Data,
			Format: asset.Format,
			Width:  asset.Width,
			Height: asset.Height,
		}
	}
	return out, nil
}

var _ Generator = (*GeminiGenerator)(nil)
