package server

import (
	"net/http"

	"MacanFM/logger"
)

// PlayTrackHandler starts playback of a queue entry.
func (h *APIHandler) PlayTrackHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Index int `json:"index"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	h.engine.PlayTrack(req.Index)
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// TogglePlayPauseHandler flips between playing and paused.
func (h *APIHandler) TogglePlayPauseHandler(w http.ResponseWriter, r *http.Request) {
	h.engine.TogglePlayPause()
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// NextTrackHandler skips forward.
func (h *APIHandler) NextTrackHandler(w http.ResponseWriter, r *http.Request) {
	h.engine.NextTrack()
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// PrevTrackHandler skips backward or restarts the current track.
func (h *APIHandler) PrevTrackHandler(w http.ResponseWriter, r *http.Request) {
	h.engine.PrevTrack()
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// SeekHandler moves the playhead to an absolute position in seconds.
func (h *APIHandler) SeekHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Position float64 `json:"position"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	h.engine.Seek(req.Position)
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// SetVolumeHandler sets the 0-100 volume.
func (h *APIHandler) SetVolumeHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Volume int `json:"volume"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	h.engine.SetVolume(req.Volume)
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ToggleMuteHandler flips the mute flag without losing the volume value.
func (h *APIHandler) ToggleMuteHandler(w http.ResponseWriter, r *http.Request) {
	h.engine.ToggleMute()
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ToggleShuffleHandler flips shuffle mode.
func (h *APIHandler) ToggleShuffleHandler(w http.ResponseWriter, r *http.Request) {
	h.engine.ToggleShuffle()
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// CycleRepeatHandler steps the repeat mode none -> all -> one.
func (h *APIHandler) CycleRepeatHandler(w http.ResponseWriter, r *http.Request) {
	h.engine.CycleRepeat()
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// SetFadeHandler configures the fade stage.
func (h *APIHandler) SetFadeHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Enabled    *bool `json:"enabled"`
		DurationMs *int  `json:"durationMs"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Enabled != nil {
		h.engine.SetFadeEnabled(*req.Enabled)
	}
	if req.DurationMs != nil {
		h.engine.SetFadeDuration(*req.DurationMs)
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// SetNormalizationHandler enables or disables loudness normalization.
func (h *APIHandler) SetNormalizationHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Enabled bool `json:"enabled"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	h.engine.SetNormalizationEnabled(req.Enabled)
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// PlayerStatusHandler returns the full session view.
func (h *APIHandler) PlayerStatusHandler(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.engine.Status())
}

// MediaEventHandler receives playback events from the UI for tracks that
// play through the remote (video) output.
func (h *APIHandler) MediaEventHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Event    string  `json:"event"`
		Duration float64 `json:"duration"`
		Position float64 `json:"position"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	switch req.Event {
	case "metadata":
		h.hub.VideoOut().ReportMetadata(req.Duration)
	case "timeupdate":
		h.hub.VideoOut().ReportTime(req.Position)
	case "ended":
		h.hub.VideoOut().ReportEnded()
	default:
		logger.Warn("unknown media event", logger.String("event", req.Event))
		http.Error(w, "Unknown media event", http.StatusBadRequest)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
