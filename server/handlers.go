package server

import (
	"encoding/json"
	"net/http"

	"MacanFM/cache"
	"MacanFM/config"
	"MacanFM/core/player"
	"MacanFM/logger"
	"MacanFM/repository"
)

// APIHandler 处理所有API请求
type APIHandler struct {
	engine       *player.Engine
	bus          *player.Bus
	trackRepo    repository.TrackRepository
	userRepo     repository.UserRepository
	historyRepo  *repository.HistoryRepository
	sessionStore *cache.SessionStore
	hub          *EventHub
	cfg          *config.Config
}

// NewAPIHandler 创建新的API处理器
func NewAPIHandler(
	engine *player.Engine,
	bus *player.Bus,
	trackRepo repository.TrackRepository,
	userRepo repository.UserRepository,
	historyRepo *repository.HistoryRepository,
	sessionStore *cache.SessionStore,
	hub *EventHub,
	cfg *config.Config,
) *APIHandler {
	return &APIHandler{
		engine:       engine,
		bus:          bus,
		trackRepo:    trackRepo,
		userRepo:     userRepo,
		historyRepo:  historyRepo,
		sessionStore: sessionStore,
		hub:          hub,
		cfg:          cfg,
	}
}

// respondJSON writes a JSON response with the given status code.
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("failed to encode response", logger.ErrorField(err))
	}
}

// decodeJSON reads the request body into dst, answering 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		logger.Warn("invalid request body", logger.ErrorField(err))
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

// GetTracksHandler returns the whole track library.
func (h *APIHandler) GetTracksHandler(w http.ResponseWriter, r *http.Request) {
	tracks, err := h.trackRepo.GetAllTracks()
	if err != nil {
		logger.Error("[Tracks] 查询曲库失败", logger.ErrorField(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"tracks": tracks})
}

// GetHistoryHandler returns recent playback history.
func (h *APIHandler) GetHistoryHandler(w http.ResponseWriter, r *http.Request) {
	entries, err := h.historyRepo.Recent(50)
	if err != nil {
		logger.Error("[History] 查询播放历史失败", logger.ErrorField(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"history": entries})
}
