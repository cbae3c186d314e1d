package handlers

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"snapforge/internal/domain"
	"snapforge/internal/engine"
	"snapforge/internal/middleware"
	pkgzip "snapforge/pkg/zip"
)

type imagePayload struct {
	// Data is base64 in JSON.
	Data []byte `json:"data"`
	MIME string `json:"mime"`
}

type generateRequest struct {
	Prompt      string         `json:"prompt"`
	Mode        string         `json:"mode,omitempty"`
	Size        string         `json:"size,omitempty"`
	AspectRatio string         `json:"aspect_ratio,omitempty"`
	Images      []imagePayload `json:"images,omitempty"`
}

type artifactPayload struct {
	URI       string    `json:"uri"`
	MIME      string    `json:"mime"`
	Width     int       `json:"width,omitempty"`
	Height    int       `json:"height,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func newArtifactPayloads(artifacts []domain.Artifact) []artifactPayload {
	out := make([]artifactPayload, len(artifacts))
	for i, art := range artifacts {
		out[i] = artifactPayload{URI: art.URI, MIME: art.MIME, Width: art.Width, Height: art.Height, CreatedAt: art.CreatedAt}
	}
	return out
}

// Generate runs an image generation for the caller's session. Queued
// admissions answer 202; direct runs answer 200 with artifacts.
func (a *App) Generate(w http.ResponseWriter, r *http.Request) {
	a.generate(w, r, false)
}

// GenerateVideo runs an admin-gated video generation.
func (a *App) GenerateVideo(w http.ResponseWriter, r *http.Request) {
	a.generate(w, r, true)
}

func (a *App) generate(w http.ResponseWriter, r *http.Request, video bool) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		a.error(w, http.StatusUnauthorized, "unauthorized", "identity required")
		return
	}
	var body generateRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}

	mode := domain.Mode(body.Mode)
	if video {
		mode = domain.ModeVideo
	} else if mode != domain.ModeMulti {
		mode = domain.ModeSingle
	}
	req := domain.Request{
		Prompt:      body.Prompt,
		Size:        domain.OutputSize(body.Size),
		AspectRatio: body.AspectRatio,
		Mode:        mode,
	}
	for _, img := range body.Images {
		req.Images = append(req.Images, domain.SourceImage{Data: img.Data, MIME: img.MIME})
	}

	event := "image_generation"
	if video {
		event = "video_generation"
	}
	started := time.Now()
	decision := a.Engine.Session(id).Request(r.Context(), req)
	a.recordUsage(r, id.ID, event, decision.State == domain.StateSuccess, started)

	if decision.State == domain.StateSuccess {
		a.persistArtifacts(r, id.ID, decision.Artifacts)
	}
	a.writeDecision(w, decision)
}

type switchModeRequest struct {
	Mode string `json:"mode"`
}

// SwitchMode resets the caller's session to IDLE for the selected mode,
// discarding output, error and any pending payload. An empty mode keeps the
// current one, which makes the endpoint a plain session reset.
func (a *App) SwitchMode(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		a.error(w, http.StatusUnauthorized, "unauthorized", "identity required")
		return
	}
	var body switchModeRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	sess := a.Engine.Session(id)
	sess.SwitchMode(domain.Mode(body.Mode))
	a.json(w, http.StatusOK, sess.Status())
}

func (a *App) writeDecision(w http.ResponseWriter, d engine.Decision) {
	switch {
	case d.Accepted && d.State == domain.StateSuccess:
		a.json(w, http.StatusOK, map[string]any{
			"state":     d.State,
			"artifacts": newArtifactPayloads(d.Artifacts),
			"balance":   d.Balance,
		})
	case d.Accepted && d.State == domain.StateQueued:
		a.json(w, http.StatusAccepted, map[string]any{
			"state":    d.State,
			"message":  d.Message,
			"position": d.Position,
		})
	case d.Accepted && d.State == domain.StateError:
		a.json(w, http.StatusBadGateway, map[string]any{
			"state":   d.State,
			"message": d.Message,
		})
	default:
		// Guarded decline: the session keeps its state, the caller gets the
		// reason.
		a.json(w, http.StatusConflict, map[string]any{
			"state":   d.State,
			"message": d.Message,
		})
	}
}

// persistArtifacts writes data-URI artifacts to the file store, best effort.
func (a *App) persistArtifacts(r *http.Request, actorID string, artifacts []domain.Artifact) {
	if a.Files == nil {
		return
	}
	for _, art := range artifacts {
		data, ok := decodeDataURI(art.URI)
		if !ok {
			continue
		}
		key := fmt.Sprintf("artifacts/%s/%s%s", actorID, uuid.NewString(), extensionFor(art.MIME))
		if _, err := a.Files.Write(r.Context(), key, data); err != nil {
			a.Logger.Warn().Err(err).Str("key", key).Msg("artifact persist failed")
		}
	}
}

// History returns the session's artifacts, most recent first.
func (a *App) History(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		a.error(w, http.StatusUnauthorized, "unauthorized", "identity required")
		return
	}
	artifacts := a.Engine.Session(id).History()
	a.json(w, http.StatusOK, map[string]any{"artifacts": newArtifactPayloads(artifacts)})
}

// HistoryZip bundles the session's data-URI artifacts into a zip download.
// Video artifacts reference remote URLs and are skipped.
func (a *App) HistoryZip(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		a.error(w, http.StatusUnauthorized, "unauthorized", "identity required")
		return
	}
	var assets []pkgzip.Asset
	for i, art := range a.Engine.Session(id).History() {
		data, ok := decodeDataURI(art.URI)
		if !ok {
			continue
		}
		assets = append(assets, pkgzip.Asset{
			Filename: fmt.Sprintf("artifact_%03d%s", i+1, extensionFor(art.MIME)),
			MIME:     art.MIME,
			Data:     data,
		})
	}
	if len(assets) == 0 {
		a.error(w, http.StatusNotFound, "not_found", "no downloadable artifacts")
		return
	}
	archive, err := pkgzip.ArchiveAssets(assets)
	if err != nil {
		a.Logger.Error().Err(err).Msg("history archive failed")
		a.error(w, http.StatusInternalServerError, "internal", "could not build archive")
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="generations.zip"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(archive)
}

func decodeDataURI(uri string) ([]byte, bool) {
	if !strings.HasPrefix(uri, "data:") {
		return nil, false
	}
	_, encoded, ok := strings.Cut(uri, ",")
	if !ok {
		return nil, false
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, false
	}
	return data, true
}

func extensionFor(mime string) string {
	switch mime {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "video/mp4":
		return ".mp4"
	default:
		return ".bin"
	}
}
