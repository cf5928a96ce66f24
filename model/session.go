package model

// RepeatMode controls what happens when the end of a track or of the
// playlist is reached.
type RepeatMode string

const (
	RepeatOff RepeatMode = "none"
	RepeatAll RepeatMode = "all"
	RepeatOne RepeatMode = "one"
)

// Next cycles none → all → one → none.
func (m RepeatMode) Next() RepeatMode {
	switch m {
	case RepeatOff:
		return RepeatAll
	case RepeatAll:
		return RepeatOne
	default:
		return RepeatOff
	}
}

// ParseRepeatMode maps a persisted string onto a RepeatMode, falling back to
// RepeatOff for anything unrecognized.
func ParseRepeatMode(s string) RepeatMode {
	switch RepeatMode(s) {
	case RepeatAll:
		return RepeatAll
	case RepeatOne:
		return RepeatOne
	default:
		return RepeatOff
	}
}

// EQBandCount is the number of equalizer bands carried in a snapshot.
const EQBandCount = 10

// PlaybackSnapshot is the persisted session record. It is versionless JSON
// written in a single call per write; unknown fields are ignored on read.
type PlaybackSnapshot struct {
	CurrentIndex         int       `json:"currentIndex"`
	SeekPosition         float64   `json:"seekPosition"`
	Volume               int       `json:"volume"`
	IsShuffle            bool      `json:"isShuffle"`
	RepeatMode           string    `json:"repeatMode"`
	FadeEnabled          bool      `json:"fadeEnabled"`
	FadeDurationMs       int       `json:"fadeDurationMs"`
	NormalizationEnabled bool      `json:"normalizationEnabled"`
	EQBands              []float64 `json:"eqBands"`
	EQPreset             string    `json:"eqPreset"`
}
