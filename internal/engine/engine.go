// Package engine holds the per-session generation state machine: which
// states a session may move through, which requests are admitted, and how
// credits and the visitor queue gate each transition.
package engine

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"snapforge/internal/domain"
	"snapforge/internal/ledger"
	imageprovider "snapforge/internal/providers/image"
	videoprovider "snapforge/internal/providers/video"
	"snapforge/internal/queue"
)

// Slot is the serialized generation slot shared by anonymous sessions.
type Slot interface {
	TryAcquire() bool
	Release()
	Notify()
	Busy() bool
}

// Engine owns every live session and dispatches queued turns.
type Engine struct {
	mu       sync.Mutex
	sessions map[string]*Session

	queue  *queue.Queue
	slot   Slot
	ledger *ledger.Ledger
	images imageprovider.Generator
	videos videoprovider.Generator
	logger zerolog.Logger
}

func New(q *queue.Queue, l *ledger.Ledger, images imageprovider.Generator, videos videoprovider.Generator, logger zerolog.Logger) *Engine {
	return &Engine{
		sessions: make(map[string]*Session),
		queue:    q,
		ledger:   l,
		images:   images,
		videos:   videos,
		logger:   logger,
	}
}

// AttachSlot wires the queue runner in after construction; the runner needs
// the engine as its executor, so the two are built in sequence.
func (e *Engine) AttachSlot(s Slot) {
	e.slot = s
}

// Session returns the live session for identity, creating one in IDLE if
// absent. Identity attributes (plan, role) are refreshed on every lookup so
// upgrades take effect immediately.
func (e *Engine) Session(identity domain.Identity) *Session {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.sessions[identity.ID]
	if !ok {
		s = &Session{engine: e, identity: identity, state: domain.StateIdle, mode: domain.ModeSingle}
		e.sessions[identity.ID] = s
		return s
	}
	s.mu.Lock()
	s.identity = identity
	s.mu.Unlock()
	return s
}

// Drop destroys a session and removes it from the queue. Invoked when a
// visitor signs in and their anonymous identity is cleared.
func (e *Engine) Drop(id string) {
	e.queue.Leave(id)
	e.mu.Lock()
	delete(e.sessions, id)
	e.mu.Unlock()
}

func (e *Engine) lookup(id string) *Session {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sessions[id]
}

// Owns reports whether a session for id lives in this process.
func (e *Engine) Owns(id string) bool {
	return e.lookup(id) != nil
}

// Pending reports whether id's session is queued with its payload intact.
func (e *Engine) Pending(id string) bool {
	s := e.lookup(id)
	if s == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == domain.StateQueued && s.pending != nil
}

// Execute runs id's queued generation when its turn arrives.
func (e *Engine) Execute(ctx context.Context, id string) {
	s := e.lookup(id)
	if s == nil {
		return
	}
	s.runTurn(ctx)
}

// Session is one identity's generation state machine. All transitions out of
// a guarded state are declined no-ops with a user-facing message; nothing
// here panics or returns an error to the caller.
type Session struct {
	mu       sync.Mutex
	engine   *Engine
	identity domain.Identity
	state    domain.State
	mode     domain.Mode
	// seq tags the latest issued request; a resolution is applied only when
	// its tag still matches, so stale completions are dropped.
	seq     uint64
	pending *domain.Request
	errMsg  string
	history []domain.Artifact
}

// Decision is the observable outcome of a request: either admitted (queued
// or executed) or declined with a message.
type Decision struct {
	Accepted  bool
	State     domain.State
	Message   string
	Artifacts []domain.Artifact
	Position  int
	// Balance is the post-debit balance; meaningful only on SUCCESS.
	Balance int
}

const (
	msgBusy          = "A generation is already in progress. Hang tight!"
	msgQueued        = "The studio is busy right now. You're in line."
	msgAdminOnly     = "Video generation is in limited preview for administrators."
	msgUpgrade       = "HD output and custom aspect ratios are available on the Pro plan."
	msgSignUp        = "You've used all your free credits. Create an account to keep generating."
	msgOutOfCredits  = "You're out of credits. Upgrade your plan to keep generating."
	msgSuperseded    = "This request was superseded by a newer one."
	msgMissingPrompt = "Describe the transformation you want first."
	msgMissingImage  = "Upload at least one photo first."
)

// Request asks the machine to run one generation. Guard violations keep the
// current state and surface a message instead of failing.
func (s *Session) Request(ctx context.Context, req domain.Request) Decision {
	req.Normalize()

	s.mu.Lock()
	if s.state.InFlight() {
		d := Decision{State: s.state, Message: msgBusy, Position: s.engine.queue.PositionOf(s.identity.ID), Balance: -1}
		s.mu.Unlock()
		return d
	}
	if msg := s.guard(ctx, req); msg != "" {
		d := Decision{State: s.state, Message: msg, Balance: -1}
		s.mu.Unlock()
		return d
	}

	if s.identity.Anonymous {
		return s.admitVisitor(ctx, req)
	}

	// Authenticated identities never wait on the visitor queue.
	seq := s.begin(req.Mode)
	s.mu.Unlock()
	return s.execute(ctx, req, seq)
}

// guard checks preconditions with s.mu held.
func (s *Session) guard(ctx context.Context, req domain.Request) string {
	if strings.TrimSpace(req.Prompt) == "" {
		return msgMissingPrompt
	}
	if req.Mode != domain.ModeVideo && len(req.Images) == 0 {
		return msgMissingImage
	}
	if req.Mode == domain.ModeVideo && !s.identity.IsAdmin() {
		return msgAdminOnly
	}
	if (req.Size == domain.SizeHD || req.AspectRatio != domain.DefaultAspectRatio) && !s.identity.IsPro() {
		return msgUpgrade
	}
	op := domain.OpImage
	if req.Mode == domain.ModeVideo {
		op = domain.OpVideo
	}
	// Unknown balances fail closed.
	if !s.engine.ledger.HasSufficient(ctx, s.identity, s.engine.ledger.Cost(op)) {
		if s.identity.Anonymous {
			return msgSignUp
		}
		return msgOutOfCredits
	}
	return ""
}

// admitVisitor is called with s.mu held and releases it.
func (s *Session) admitVisitor(ctx context.Context, req domain.Request) Decision {
	// An idle slot with an empty line executes immediately, without formally
	// entering the queue.
	if s.engine.slot.TryAcquire() {
		if s.engine.queue.Len() == 0 {
			seq := s.begin(req.Mode)
			s.mu.Unlock()
			d := s.execute(ctx, req, seq)
			s.engine.slot.Release()
			return d
		}
		s.engine.slot.Release()
	}

	payload := req
	s.pending = &payload
	s.state = domain.StateQueued
	s.errMsg = ""
	s.engine.queue.Join(s.identity.ID)
	position := s.engine.queue.PositionOf(s.identity.ID)
	s.mu.Unlock()
	s.engine.slot.Notify()
	return Decision{Accepted: true, State: domain.StateQueued, Message: msgQueued, Position: position, Balance: -1}
}

// begin transitions into an executing state with s.mu held and returns the
// request's sequence tag.
func (s *Session) begin(mode domain.Mode) uint64 {
	s.seq++
	s.mode = mode
	s.pending = nil
	s.errMsg = ""
	if mode == domain.ModeVideo {
		s.state = domain.StateGeneratingVideo
	} else {
		s.state = domain.StateLoading
	}
	return s.seq
}

// execute runs the remote operation without holding s.mu; the operation can
// take seconds to minutes and is never cancelled once started.
func (s *Session) execute(ctx context.Context, req domain.Request, seq uint64) Decision {
	requestID := uuid.NewString()
	op := domain.OpImage
	var artifacts []domain.Artifact
	var err error
	if req.Mode == domain.ModeVideo {
		op = domain.OpVideo
		artifacts, err = s.generateVideo(ctx, req, requestID)
	} else {
		artifacts, err = s.generateImages(ctx, req, requestID)
	}
	return s.finish(ctx, seq, op, artifacts, err)
}

func (s *Session) generateImages(ctx context.Context, req domain.Request, requestID string) ([]domain.Artifact, error) {
	sources := make([]imageprovider.Source, len(req.Images))
	for i, img := range req.Images {
		sources[i] = imageprovider.Source{MIME: img.MIME, Data: img.Data}
	}
	fidelity := ""
	if req.Mode == domain.ModeMulti {
		fidelity = "identity-preserving"
	}
	assets, err := s.engine.images.Generate(ctx, imageprovider.GenerateRequest{
		Prompt:      req.Prompt,
		Sources:     sources,
		Quantity:    1,
		AspectRatio: req.AspectRatio,
		Size:        string(req.Size),
		Fidelity:    fidelity,
		RequestID:   requestID,
	})
	if err != nil {
		return nil, err
	}
	now := time.Now()
	artifacts := make([]domain.Artifact, len(assets))
	for i, asset := range assets {
		artifacts[i] = domain.Artifact{
			URI:       asset.DataURI(),
			MIME:      asset.Format,
			Width:     asset.Width,
			Height:    asset.Height,
			CreatedAt: now,
		}
	}
	return artifacts, nil
}

func (s *Session) generateVideo(ctx context.Context, req domain.Request, requestID string) ([]domain.Artifact, error) {
	var source *videoprovider.Source
	if len(req.Images) > 0 {
		source = &videoprovider.Source{MIME: req.Images[0].MIME, Data: req.Images[0].Data}
	}
	asset, err := s.engine.videos.Generate(ctx, videoprovider.GenerateRequest{
		Prompt:    req.Prompt,
		Source:    source,
		RequestID: requestID,
	})
	if err != nil {
		return nil, err
	}
	return []domain.Artifact{{URI: asset.URL, MIME: asset.Format, CreatedAt: time.Now()}}, nil
}

// finish applies the remote operation's resolution: debit and SUCCESS on
// artifacts, ERROR with the raw message otherwise. A resolution whose
// sequence tag no longer matches is discarded outright.
func (s *Session) finish(ctx context.Context, seq uint64, op domain.Operation, artifacts []domain.Artifact, err error) Decision {
	s.mu.Lock()
	defer s.mu.Unlock()

	if seq != s.seq {
		s.engine.logger.Debug().
			Str("session_id", s.identity.ID).
			Uint64("seq", seq).
			Msg("engine: dropping stale generation result")
		return Decision{State: s.state, Message: msgSuperseded, Balance: -1}
	}

	if err != nil {
		s.state = domain.StateError
		s.errMsg = err.Error()
		s.engine.logger.Warn().
			Err(err).
			Str("session_id", s.identity.ID).
			Str("operation", string(op)).
			Msg("engine: generation failed")
		return Decision{Accepted: true, State: domain.StateError, Message: s.errMsg, Balance: -1}
	}

	s.state = domain.StateSuccess
	balance := s.engine.ledger.Debit(ctx, s.identity, s.engine.ledger.Cost(op))
	s.history = append(append([]domain.Artifact{}, artifacts...), s.history...)
	s.engine.logger.Info().
		Str("session_id", s.identity.ID).
		Str("operation", string(op)).
		Int("artifacts", len(artifacts)).
		Int("balance", balance).
		Msg("engine: generation succeeded")
	return Decision{Accepted: true, State: domain.StateSuccess, Artifacts: artifacts, Balance: balance}
}

// runTurn executes the queued payload when this session reaches the head.
func (s *Session) runTurn(ctx context.Context) {
	s.mu.Lock()
	if s.state != domain.StateQueued || s.pending == nil {
		s.mu.Unlock()
		return
	}
	req := *s.pending
	seq := s.begin(req.Mode)
	s.mu.Unlock()
	s.execute(ctx, req, seq)
}

// LeaveQueue removes the session from the line and returns it to IDLE.
// Idempotent: leaving while not queued changes nothing, the queue included.
// In particular a session whose own turn is already executing stays at the
// head, so the runner's identity-matched advance pops the right entry.
func (s *Session) LeaveQueue() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != domain.StateQueued {
		return
	}
	s.engine.queue.Leave(s.identity.ID)
	s.state = domain.StateIdle
	s.pending = nil
}

// SwitchMode records the newly selected mode and resets the machine to IDLE,
// clearing output, error and any pending payload. An empty mode keeps the
// current one, so the call doubles as a plain session reset. Queue membership
// is deliberately left alone; a head entry without a payload is skipped by
// the runner's failsafe.
func (s *Session) SwitchMode(mode domain.Mode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if mode != "" {
		s.mode = mode
	}
	s.seq++ // invalidates any in-flight resolution
	s.pending = nil
	s.errMsg = ""
	s.state = domain.StateIdle
}

// Status is the session's externally observable state.
type Status struct {
	State       domain.State `json:"state"`
	Mode        domain.Mode  `json:"mode"`
	Error       string       `json:"error,omitempty"`
	Position    int          `json:"position,omitempty"`
	QueueLength int          `json:"queue_length"`
	SlotBusy    bool         `json:"slot_busy"`
}

func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{
		State:       s.state,
		Mode:        s.mode,
		Error:       s.errMsg,
		Position:    s.engine.queue.PositionOf(s.identity.ID),
		QueueLength: s.engine.queue.Len(),
		SlotBusy:    s.engine.slot.Busy(),
	}
}

// History returns the artifact history, most recent first.
func (s *Session) History() []domain.Artifact {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Artifact, len(s.history))
	copy(out, s.history)
	return out
}

// Identity returns the session's current identity.
func (s *Session) Identity() domain.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity
}
