// Package genai wraps the Gemini generateContent API for photo and video
// transformations. When no API key is configured the client produces
// deterministic synthetic artifacts so the rest of the pipeline stays
// exercisable in local and CI environments.
package genai

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Options controls how the Gemini client is configured.
type Options struct {
	APIKey       string
	BaseURL      string
	Model        string
	VideoModel   string
	HTTPClient   *http.Client
	Logger       *zerolog.Logger
	PollInterval time.Duration
}

// Client is a lightweight facade over Gemini. Providers translate domain
// requests into these calls.
type Client struct {
	apiKey       string
	baseURL      string
	model        string
	videoModel   string
	httpClient   *http.Client
	logger       zerolog.Logger
	pollInterval time.Duration
}

// SourcePart is an uploaded reference image sent alongside the prompt.
type SourcePart struct {
	MIME string
	Data []byte
}

// ImageRequest represents the information required to transform images.
type ImageRequest struct {
	Prompt      string
	Sources     []SourcePart
	Quantity    int
	AspectRatio string
	Size        string
	Fidelity    string
	RequestID   string
}

// VideoRequest represents the information required to generate a video.
type VideoRequest struct {
	Prompt    string
	Source    *SourcePart
	RequestID string
}

// ImageAsset is the normalized representation of a generated image.
type ImageAsset struct {
	Data   []byte
	Format string
	Width  int
	Height int
}

// VideoAsset is the normalized representation of a generated video.
type VideoAsset struct {
	URL    string
	Format string
	Length int
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts,omitempty"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mimeType,omitempty"`
	Data     string `json:"data,omitempty"`
}

type geminiGenerationConfig struct {
	CandidateCount     int      `json:"candidateCount,omitempty"`
	ResponseModalities []string `json:"responseModalities,omitempty"`
}

type geminiGenerateContentRequest struct {
	Contents         []geminiContent         `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiCandidate struct {
	Content      geminiContent `json:"content"`
	FinishReason string        `json:"finishReason,omitempty"`
}

type geminiGenerateContentResponse struct {
	Candidates []geminiCandidate `json:"candidates"`
}

type geminiOperation struct {
	Name  string `json:"name"`
	Done  bool   `json:"done"`
	Error *struct {
		Code    int    `json:"code,omitempty"`
		Message string `json:"message,omitempty"`
	} `json:"error,omitempty"`
	Response struct {
		GenerateVideoResponse struct {
			GeneratedSamples []struct {
				Video struct {
					URI      string `json:"uri"`
					MimeType string `json:"mimeType,omitempty"`
				} `json:"video"`
			} `json:"generatedSamples"`
		} `json:"generateVideoResponse"`
	} `json:"response"`
}

type geminiErrorResponse struct {
	Error struct {
		Code    int    `json:"code,omitempty"`
		Message string `json:"message,omitempty"`
	} `json:"error"`
}

// NewClient constructs a Gemini client with sane defaults. Callers may
// provide a nil HTTP client; a reusable one with sensible timeouts will be
// created.
func NewClient(opts Options) (*Client, error) {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1beta"
	}

	model := opts.Model
	if model == "" {
		model = "gemini-2.5-flash-image"
	}
	videoModel := opts.VideoModel
	if videoModel == "" {
		videoModel = "veo-3.0-generate-001"
	}

	logger := zerolog.New(io.Discard)
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	pollInterval := opts.PollInterval
	if pollInterval <= 0 {
		pollInterval = 5 * time.Second
	}

	return &Client{
		apiKey:       strings.TrimSpace(opts.APIKey),
		baseURL:      baseURL,
		model:        model,
		videoModel:   videoModel,
		httpClient:   client,
		logger:       logger,
		pollInterval: pollInterval,
	}, nil
}

// Model returns the configured image model identifier.
func (c *Client) Model() string {
	return c.model
}

// GenerateImages runs one image transformation. Falls back to deterministic
// synthetic assets when no API key is configured.
func (c *Client) GenerateImages(ctx context.Context, req ImageRequest) ([]ImageAsset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.apiKey == "" {
		return c.syntheticImages(req), nil
	}
	assets, err := c.remoteGenerateImages(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(assets) == 0 {
		return nil, fmt.Errorf("no image content returned")
	}
	return assets, nil
}

// GenerateVideo starts a long-running video generation and polls the
// operation until done. Falls back to a synthetic asset when no API key is
// configured.
func (c *Client) GenerateVideo(ctx context.Context, req VideoRequest) (*VideoAsset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.apiKey == "" {
		return c.syntheticVideo(req), nil
	}
	return c.remoteGenerateVideo(ctx, req)
}

func (c *Client) remoteGenerateImages(ctx context.Context, req ImageRequest) ([]ImageAsset, error) {
	quantity := clampQuantity(req.Quantity)
	parts := []geminiPart{{Text: buildImagePrompt(req)}}
	for _, src := range req.Sources {
		parts = append(parts, geminiPart{InlineData: &geminiInlineData{
			MimeType: src.MIME,
			Data:     base64.StdEncoding.EncodeToString(src.Data),
		}})
	}
	payload := geminiGenerateContentRequest{
		Contents: []geminiContent{{Role: "user", Parts: parts}},
		GenerationConfig: &geminiGenerationConfig{
			CandidateCount:     quantity,
			ResponseModalities: []string{"IMAGE"},
		},
	}

	var response geminiGenerateContentResponse
	path := fmt.Sprintf("/models/%s:generateContent", url.PathEscape(c.model))
	if err := c.invoke(ctx, http.MethodPost, path, payload, &response); err != nil {
		return nil, err
	}

	width, height := sizeFor(req.AspectRatio, req.Size)
	var assets []ImageAsset
	for _, candidate := range response.Candidates {
		for _, part := range candidate.Content.Parts {
			if part.InlineData == nil || part.InlineData.Data == "" {
				continue
			}
			data, err := base64.StdEncoding.DecodeString(part.InlineData.Data)
			if err != nil || len(data) == 0 {
				continue
			}
			format := part.InlineData.MimeType
			if format == "" {
				format = "image/png"
			}
			w, h := decodeImageDimensions(data)
			if w == 0 || h == 0 {
				w, h = width, height
			}
			assets = append(assets, ImageAsset{Data: data, Format: format, Width: w, Height: h})
			if len(assets) >= quantity {
				break
			}
		}
		if len(assets) >= quantity {
			break
		}
	}

	c.logger.Debug().
		Str("request_id", req.RequestID).
		Str("model", c.model).
		Int("quantity", len(assets)).
		Msg("genai: generated remote image assets")

	return assets, nil
}

func (c *Client) remoteGenerateVideo(ctx context.Context, req VideoRequest) (*VideoAsset, error) {
	parts := []geminiPart{{Text: req.Prompt}}
	if req.Source != nil {
		parts = append(parts, geminiPart{InlineData: &geminiInlineData{
			MimeType: req.Source.MIME,
			Data:     base64.StdEncoding.EncodeToString(req.Source.Data),
		}})
	}
	payload := geminiGenerateContentRequest{
		Contents: []geminiContent{{Role: "user", Parts: parts}},
	}

	var op geminiOperation
	path := fmt.Sprintf("/models/%s:predictLongRunning", url.PathEscape(c.videoModel))
	if err := c.invoke(ctx, http.MethodPost, path, payload, &op); err != nil {
		return nil, err
	}
	if op.Name == "" {
		return nil, fmt.Errorf("video operation not started")
	}

	// Completion is polled; the only deadline is ctx plus the HTTP client's
	// own timeout per poll.
	for !op.Done {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.pollInterval):
		}
		var polled geminiOperation
		if err := c.invoke(ctx, http.MethodGet, "/"+strings.TrimLeft(op.Name, "/"), nil, &polled); err != nil {
			return nil, err
		}
		op = polled
	}

	if op.Error != nil {
		return nil, fmt.Errorf("video generation failed: %s", op.Error.Message)
	}
	samples := op.Response.GenerateVideoResponse.GeneratedSamples
	if len(samples) == 0 || samples[0].Video.URI == "" {
		return nil, fmt.Errorf("no video content returned")
	}

	format := samples[0].Video.MimeType
	if format == "" {
		format = "video/mp4"
	}
	c.logger.Debug().
		Str("request_id", req.RequestID).
		Str("model", c.videoModel).
		Msg("genai: generated remote video asset")

	return &VideoAsset{URL: samples[0].Video.URI, Format: format, Length: estimateVideoLength(req.Prompt)}, nil
}

func (c *Client) invoke(ctx context.Context, method, path string, payload any, out any) error {
	endpoint := c.baseURL + path
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(raw)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("invoke gemini: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		var apiErr geminiErrorResponse
		if err := json.Unmarshal(raw, &apiErr); err == nil && apiErr.Error.Message != "" {
			return fmt.Errorf("gemini: %s", apiErr.Error.Message)
		}
		return fmt.Errorf("gemini: unexpected status %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) syntheticImages(req ImageRequest) []ImageAsset {
	quantity := clampQuantity(req.Quantity)
	width, height := sizeFor(req.AspectRatio, req.Size)
	assets := make([]ImageAsset, quantity)
	for i := 0; i < quantity; i++ {
		seed := deterministicSeed(req.RequestID, req.Prompt, req.Fidelity, i)
		assets[i] = ImageAsset{
			Data:   renderSyntheticImage(width, height, seed),
			Format: "image/png",
			Width:  width,
			Height: height,
		}
	}
	c.logger.Debug().
		Str("request_id", req.RequestID).
		Int("quantity", quantity).
		Msg("genai: generated synthetic image assets")
	return assets
}

func (c *Client) syntheticVideo(req VideoRequest) *VideoAsset {
	seed := deterministicSeed(req.RequestID, req.Prompt, c.videoModel, 0)
	return &VideoAsset{
		URL:    fmt.Sprintf("https://storage.example.com/videos/%s.mp4", hex.EncodeToString(seed[:8])),
		Format: "video/mp4",
		Length: estimateVideoLength(req.Prompt),
	}
}

func buildImagePrompt(req ImageRequest) string {
	var b strings.Builder
	b.WriteString(req.Prompt)
	if req.AspectRatio != "" {
		fmt.Fprintf(&b, "\nAspect ratio: %s.", req.AspectRatio)
	}
	if req.Size != "" {
		fmt.Fprintf(&b, " Output size: %s.", req.Size)
	}
	if req.Fidelity != "" {
		fmt.Fprintf(&b, " Fidelity: %s.", req.Fidelity)
	}
	if len(req.Sources) > 1 {
		b.WriteString(" Compose all provided people into one coherent scene.")
	}
	return b.String()
}

func clampQuantity(quantity int) int {
	if quantity <= 0 {
		return 1
	}
	if quantity > 4 {
		return 4
	}
	return quantity
}

func sizeFor(aspectRatio, size string) (int, int) {
	base := 1024
	if strings.EqualFold(size, "2K") {
		base = 2048
	}
	switch aspectRatio {
	case "16:9":
		return base, base * 9 / 16
	case "9:16":
		return base * 9 / 16, base
	case "4:3":
		return base, base * 3 / 4
	case "3:4":
		return base * 3 / 4, base
	default:
		return base, base
	}
}

func decodeImageDimensions(data []byte) (int, int) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0
	}
	return cfg.Width, cfg.Height
}

func deterministicSeed(parts ...any) [32]byte {
	h := sha256.New()
	for _, part := range parts {
		fmt.Fprintf(h, "%v|", part)
	}
	var seed [32]byte
	copy(seed[:], h.Sum(nil))
	return seed
}

func renderSyntheticImage(width, height int, seed [32]byte) []byte {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	r := seed[0]
	g := seed[1]
	b := seed[2]
	for y := 0; y < height; y++ {
		shade := uint8(uint32(y) * 96 / uint32(height))
		row := color.RGBA{R: r/2 + shade, G: g/2 + shade, B: b/2 + shade, A: 255}
		for x := 0; x < width; x++ {
			img.SetRGBA(x, y, row)
		}
	}
	// Seed-derived accent block so distinct requests are visually distinct.
	bx := int(binary.BigEndian.Uint16(seed[4:6])) % (width / 2)
	by := int(binary.BigEndian.Uint16(seed[6:8])) % (height / 2)
	accent := color.RGBA{R: 255 - r, G: 255 - g, B: 255 - b, A: 255}
	for y := by; y < by+height/8 && y < height; y++ {
		for x := bx; x < bx+width/8 && x < width; x++ {
			img.SetRGBA(x, y, accent)
		}
	}
	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}

func estimateVideoLength(prompt string) int {
	words := len(strings.Fields(prompt))
	switch {
	case words > 40:
		return 16
	case words > 15:
		return 8
	default:
		return 4
	}
}
