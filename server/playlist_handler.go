package server

import (
	"net/http"
	"strconv"

	"MacanFM/logger"
	"MacanFM/model"
)

// PlaylistHandler serves the queue: GET returns it, POST appends a track,
// DELETE removes one entry or clears the queue.
func (h *APIHandler) PlaylistHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"playlist": h.engine.Playlist(),
		})
	case http.MethodPost:
		h.addToPlaylist(w, r)
	case http.MethodDelete:
		h.removeFromPlaylist(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *APIHandler) addToPlaylist(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Path string `json:"path"`
		ID   int64  `json:"id"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	var track *model.Track
	var err error
	if req.Path != "" {
		track, err = h.trackRepo.GetTrackByPath(req.Path)
	} else if req.ID > 0 {
		track, err = h.trackRepo.GetTrackByID(req.ID)
	} else {
		http.Error(w, "Track path or id required", http.StatusBadRequest)
		return
	}
	if err != nil {
		logger.Error("[Playlist] 查询曲目失败", logger.ErrorField(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if track == nil {
		http.Error(w, "Track not found", http.StatusNotFound)
		return
	}

	h.engine.AddTracks([]*model.Track{track})
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *APIHandler) removeFromPlaylist(w http.ResponseWriter, r *http.Request) {
	indexParam := r.URL.Query().Get("index")
	if indexParam == "" {
		h.engine.ClearPlaylist()
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}
	index, err := strconv.Atoi(indexParam)
	if err != nil {
		http.Error(w, "Invalid index", http.StatusBadRequest)
		return
	}
	h.engine.RemoveTrack(index)
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// MoveTrackHandler reorders the queue by position.
func (h *APIHandler) MoveTrackHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		From int `json:"from"`
		To   int `json:"to"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	h.engine.MoveTrack(req.From, req.To)
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// AddAllTracksToPlaylistHandler replaces the queue with the whole library.
func (h *APIHandler) AddAllTracksToPlaylistHandler(w http.ResponseWriter, r *http.Request) {
	tracks, err := h.trackRepo.GetAllTracks()
	if err != nil {
		logger.Error("[Playlist] 查询曲库失败", logger.ErrorField(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	h.engine.SetPlaylist(tracks)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"count":  len(tracks),
	})
}
