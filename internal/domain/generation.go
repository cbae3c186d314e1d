package domain

import (
	"strings"
	"time"
)

// Mode enumerates generation modes. Switching modes resets a session to idle.
type Mode string

const (
	ModeSingle Mode = "single"
	ModeMulti  Mode = "multi"
	ModeVideo  Mode = "video"
)

// OutputSize enumerates supported output resolutions. HD is pro-gated.
type OutputSize string

const (
	SizeStandard OutputSize = "1K"
	SizeHD       OutputSize = "2K"
)

// DefaultAspectRatio is the only aspect ratio available on the free plan.
const DefaultAspectRatio = "1:1"

// SourceImage is an uploaded reference image.
type SourceImage struct {
	Data []byte
	MIME string
}

// Request is the transient payload of one generation action. It is built per
// user action and discarded once the remote operation resolves.
type Request struct {
	Prompt      string
	Images      []SourceImage
	Size        OutputSize
	AspectRatio string
	Mode        Mode
}

// Normalize fills defaulted fields in place and canonicalizes the size token,
// so every later comparison against the enum values holds. A size that names
// no known resolution falls back to standard.
func (r *Request) Normalize() {
	switch strings.ToUpper(strings.TrimSpace(string(r.Size))) {
	case string(SizeHD):
		r.Size = SizeHD
	default:
		r.Size = SizeStandard
	}
	if r.AspectRatio == "" {
		r.AspectRatio = DefaultAspectRatio
	}
	if r.Mode == "" {
		r.Mode = ModeSingle
	}
}

// Artifact is one generated output: an image delivered as a data URI or a
// video addressed by URL.
type Artifact struct {
	URI       string    `json:"uri"`
	MIME      string    `json:"mime"`
	Width     int       `json:"width,omitempty"`
	Height    int       `json:"height,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// State enumerates the per-session generation states.
type State string

const (
	StateIdle            State = "IDLE"
	StateQueued          State = "QUEUED"
	StateLoading         State = "LOADING"
	StateGeneratingVideo State = "GENERATING_VIDEO"
	StateSuccess         State = "SUCCESS"
	StateError           State = "ERROR"
)

// InFlight reports whether the state forbids starting another generation.
func (s State) InFlight() bool {
	return s == StateQueued || s == StateLoading || s == StateGeneratingVideo
}
