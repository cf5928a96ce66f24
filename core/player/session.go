package player

import (
	"MacanFM/logger"
	"MacanFM/model"
)

// State is the transport state of the session.
type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StatePlaying State = "playing"
	StatePaused  State = "paused"
	StateEnded   State = "ended"
)

// transitions is the single table every state change goes through.
var transitions = map[State][]State{
	StateIdle:    {StateLoading},
	StateLoading: {StateLoading, StatePlaying, StatePaused, StateIdle},
	StatePlaying: {StatePaused, StateEnded, StateLoading, StateIdle},
	StatePaused:  {StatePlaying, StateLoading, StateIdle},
	StateEnded:   {StateLoading, StateIdle},
}

func canTransition(from, to State) bool {
	if from == to {
		return true
	}
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// pendingKind identifies a deferred restoration marker.
type pendingKind int

const (
	pendingSeek pendingKind = iota
	pendingEQ
)

// pendingRestoration is a value read from the persisted snapshot that could
// not be applied yet because its prerequisite (device context, media
// metadata) did not exist at restore time. Each marker is consumed exactly
// once: consumePending removes it atomically with returning it.
type pendingRestoration struct {
	kind   pendingKind
	seek   float64
	bands  []float64
	preset string
}

// Session is the single source of truth for "what should be playing".
// It is mutated only from the engine's command loop.
type Session struct {
	Playlist     []*model.Track
	CurrentIndex int // -1 = nothing loaded
	State        State
	IsShuffle    bool
	Repeat       model.RepeatMode
	Volume       int // 0-100
	IsMuted      bool
	Duration     float64 // cached from the active media source

	FadeEnabled          bool
	FadeDurationMs       int
	NormalizationEnabled bool
	TargetLoudnessDb     float64

	pending         map[pendingKind]*pendingRestoration
	restoreComplete bool
}

// NewSession returns an empty session with the given defaults.
func NewSession(volume, fadeDurationMs int, targetLoudnessDb float64) *Session {
	return &Session{
		CurrentIndex:         -1,
		State:                StateIdle,
		Repeat:               model.RepeatOff,
		Volume:               volume,
		FadeEnabled:          true,
		FadeDurationMs:       fadeDurationMs,
		NormalizationEnabled: true,
		TargetLoudnessDb:     targetLoudnessDb,
		pending:              make(map[pendingKind]*pendingRestoration),
	}
}

// validIndex reports whether i addresses a playlist entry.
func (s *Session) validIndex(i int) bool {
	return i >= 0 && i < len(s.Playlist)
}

// CurrentTrack returns the active track, nil when nothing is loaded.
func (s *Session) CurrentTrack() *model.Track {
	if !s.validIndex(s.CurrentIndex) {
		return nil
	}
	return s.Playlist[s.CurrentIndex]
}

// IsPlaying reports whether the transport is in the playing state.
func (s *Session) IsPlaying() bool {
	return s.State == StatePlaying
}

// setState runs a state change through the transition table. Changes the
// table does not allow are refused.
func (s *Session) setState(to State) bool {
	if !canTransition(s.State, to) {
		logger.Warn("refused state transition",
			logger.String("from", string(s.State)),
			logger.String("to", string(to)))
		return false
	}
	s.State = to
	return true
}

// setPending stores a restoration marker, replacing any previous one of the
// same kind.
func (s *Session) setPending(p *pendingRestoration) {
	s.pending[p.kind] = p
}

// consumePending removes and returns a marker, nil if none is set. A second
// call for the same kind observes nothing.
func (s *Session) consumePending(kind pendingKind) *pendingRestoration {
	p := s.pending[kind]
	if p != nil {
		delete(s.pending, kind)
	}
	return p
}

// Status is the read-only session view served to the UI.
type Status struct {
	Playlist     []*model.Track   `json:"playlist"`
	CurrentIndex int              `json:"currentIndex"`
	State        State            `json:"state"`
	IsPlaying    bool             `json:"isPlaying"`
	IsShuffle    bool             `json:"isShuffle"`
	RepeatMode   model.RepeatMode `json:"repeatMode"`
	Volume       int              `json:"volume"`
	IsMuted      bool             `json:"isMuted"`
	Position     float64          `json:"position"`
	Duration     float64          `json:"duration"`

	FadeEnabled          bool    `json:"fadeEnabled"`
	FadeDurationMs       int     `json:"fadeDurationMs"`
	NormalizationEnabled bool    `json:"normalizationEnabled"`
	TargetLoudnessDb     float64 `json:"targetLoudnessDb"`
	RestoreComplete      bool    `json:"restoreComplete"`
}
