package server

import (
	"context"
	"net/http"
	"time"

	"MacanFM/cache"
	"MacanFM/core/audio"
	"MacanFM/logger"
	"MacanFM/model"
)

// GetEqualizerHandler returns the current band gains, active preset and the
// names of every available preset.
func (h *APIHandler) GetEqualizerHandler(w http.ResponseWriter, r *http.Request) {
	eq := h.engine.Equalizer()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"bands":       eq.Bands(),
		"preset":      eq.Preset(),
		"presets":     audio.PresetNames(),
		"frequencies": audio.BandFrequencies,
	})
}

// SetEQBandHandler adjusts a single band gain.
func (h *APIHandler) SetEQBandHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Band int     `json:"band"`
		Gain float64 `json:"gain"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	h.engine.SetEQBand(req.Band, req.Gain)
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ApplyEQPresetHandler switches to a named preset.
func (h *APIHandler) ApplyEQPresetHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if _, ok := audio.LookupPreset(req.Name); !ok {
		http.Error(w, "Unknown preset", http.StatusBadRequest)
		return
	}
	h.engine.ApplyEQPreset(req.Name)
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// SaveCustomPresetHandler stores the given band gains as the custom preset,
// both in the running equalizer and in redis.
func (h *APIHandler) SaveCustomPresetHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Bands []float64 `json:"bands"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.Bands) != model.EQBandCount {
		http.Error(w, "Exactly 10 band gains required", http.StatusBadRequest)
		return
	}
	h.engine.SetEQBands(req.Bands)
	audio.SeedCustomPreset(req.Bands)

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	if err := cache.SaveCustomPreset(ctx, req.Bands); err != nil {
		logger.Warn("[EQ] 保存自定义预设失败", logger.ErrorField(err))
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
