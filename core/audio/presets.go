package audio

import "sync"

// Preset names. PresetCustom is the one mutable slot; everything else is
// fixed.
const (
	PresetFlat        = "Flat"
	PresetRock        = "Rock"
	PresetPop         = "Pop"
	PresetJazz        = "Jazz"
	PresetClassical   = "Classical"
	PresetDance       = "Dance"
	PresetBassBoost   = "Bass Boost"
	PresetTrebleBoost = "Treble Boost"
	PresetVocal       = "Vocal"
	PresetCustom      = "Custom"
)

var presetMu sync.RWMutex

// presetTable maps preset names to their ten band gains in dB.
var presetTable = map[string][BandCount]float64{
	PresetFlat:        {0, 0, 0, 0, 0, 0, 0, 0, 0, 0},
	PresetRock:        {5, 4, 3, 1, -1, -1, 1, 3, 4, 5},
	PresetPop:         {-1, 1, 3, 4, 3, 1, 0, -1, -1, -2},
	PresetJazz:        {3, 2, 1, 2, -2, -2, 0, 1, 2, 3},
	PresetClassical:   {4, 3, 2, 0, 0, 0, -2, -2, 0, 2},
	PresetDance:       {6, 5, 2, 0, 0, -2, -4, -4, 0, 0},
	PresetBassBoost:   {6, 5, 4, 2, 0, 0, 0, 0, 0, 0},
	PresetTrebleBoost: {0, 0, 0, 0, 0, 0, 2, 4, 5, 6},
	PresetVocal:       {-2, -1, 0, 2, 4, 4, 3, 1, 0, -1},
	PresetCustom:      {0, 0, 0, 0, 0, 0, 0, 0, 0, 0},
}

// PresetNames returns all known preset names, Custom last.
func PresetNames() []string {
	return []string{
		PresetFlat, PresetRock, PresetPop, PresetJazz, PresetClassical,
		PresetDance, PresetBassBoost, PresetTrebleBoost, PresetVocal,
		PresetCustom,
	}
}

// LookupPreset returns the band gains for a preset name.
func LookupPreset(name string) ([]float64, bool) {
	presetMu.RLock()
	defer presetMu.RUnlock()
	values, ok := presetTable[name]
	if !ok {
		return nil, false
	}
	out := make([]float64, BandCount)
	copy(out, values[:])
	return out, true
}

// SeedCustomPreset loads a previously persisted Custom slot. Wrong-length
// input is ignored.
func SeedCustomPreset(values []float64) {
	if len(values) != BandCount {
		return
	}
	presetMu.Lock()
	defer presetMu.Unlock()
	var v [BandCount]float64
	copy(v[:], values)
	presetTable[PresetCustom] = v
}

// ApplyPreset looks a preset up and applies all ten bands atomically.
// Returns the applied values, or false if the name is unknown.
func (e *Equalizer) ApplyPreset(name string) ([]float64, bool) {
	values, ok := LookupPreset(name)
	if !ok {
		return nil, false
	}
	e.SetBands(values)
	e.setPreset(name)
	return values, true
}

// SaveCustomPreset stores values under the reserved Custom slot and applies
// them. The caller persists the slot to external storage.
func (e *Equalizer) SaveCustomPreset(values []float64) bool {
	if len(values) != BandCount {
		return false
	}
	SeedCustomPreset(values)
	e.SetBands(values)
	e.setPreset(PresetCustom)
	return true
}
