package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"MacanFM/cache"
	"MacanFM/config"
	"MacanFM/core/analyze"
	"MacanFM/core/audio"
	"MacanFM/core/auth"
	"MacanFM/core/library"
	"MacanFM/core/persist"
	"MacanFM/core/player"
	"MacanFM/db"
	"MacanFM/logger"
	"MacanFM/model"
	"MacanFM/repository"
	"MacanFM/storage"

	"github.com/gorilla/mux"
)

// Start wires every subsystem together and runs the HTTP server until a
// shutdown signal arrives.
func Start() {
	cfg := config.Load()

	logger.InitLogger(logger.Config{
		Level:      logger.LogLevel(cfg.LogLevel),
		OutputPath: cfg.LogPath,
		MaxSize:    100,
		MaxBackups: 5,
		MaxAge:     30,
		Compress:   true,
	})
	defer logger.Sync()

	auth.SetSecret(cfg.JWTSecret)

	// 初始化 MinIO 客户端
	if err := storage.InitMinio(cfg); err != nil {
		logger.Fatal("Failed to initialize MinIO", logger.ErrorField(err))
	}

	// Connect to the database
	if err := db.ConnectDB(cfg); err != nil {
		logger.Fatal("Failed to connect to database", logger.ErrorField(err))
	}
	defer db.DB.Close()
	if err := db.InitDB(); err != nil {
		logger.Fatal("Failed to initialize database schema", logger.ErrorField(err))
	}

	if err := db.ConnectGormDB(cfg); err != nil {
		logger.Fatal("Failed to connect gorm", logger.ErrorField(err))
	}
	defer db.CloseGormDB()
	if err := db.AutoMigrateModels(&model.PlayHistory{}); err != nil {
		logger.Fatal("Failed to migrate history table", logger.ErrorField(err))
	}

	// Connect to Redis
	if err := cache.ConnectRedis(cfg); err != nil {
		logger.Fatal("Failed to connect to Redis", logger.ErrorField(err))
	}
	defer cache.CloseRedis()

	ensureDirExists(cfg.MediaDir)
	ensureDirExists(cfg.TempDir)

	trackRepo := repository.NewMySQLTrackRepository()
	userRepo := repository.NewMySQLUserRepository(db.DB)
	historyRepo := repository.NewHistoryRepository(db.GormDB)
	sessionStore := cache.NewSessionStore(nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 装配播放引擎
	eq := audio.NewEqualizer()
	seedCustomPreset(ctx)
	graph := audio.NewGraph(eq)
	resolver := library.NewTrackResolver(trackRepo)
	bus := player.NewBus()
	sess := player.NewSession(cfg.DefaultVolume, cfg.FadeDurationMs, cfg.TargetLoudnessDb)
	engine := player.NewEngine(sess, eq, graph, resolver, bus)

	hub := NewEventHub(bus)
	audioOut := audio.NewSpeakerOutput(graph, engine, cfg.TempDir)
	videoOut := audio.NewRemoteOutput(hub, engine)
	hub.SetVideoOutput(videoOut)
	engine.SetOutputs(audioOut, videoOut)
	engine.SetHistory(historyRepo)

	gateway := persist.NewGateway(sessionStore, engine.Snapshot, engine.Playlist)
	engine.SetPersister(gateway)

	go engine.Run()
	go hub.Run()
	go gateway.StartPeriodic(ctx, engine.IsPlaying)

	// 恢复上次会话
	restoreSession(ctx, engine, sessionStore, trackRepo)

	// 媒体库扫描与监听
	scanner := library.NewScanner(trackRepo, cfg.MediaDir)
	go func() {
		if _, err := scanner.Scan(); err != nil {
			logger.Warn("media scan failed", logger.ErrorField(err))
		}
	}()
	if watcher, err := library.NewWatcher(scanner, cfg.MediaDir); err != nil {
		logger.Warn("media watcher unavailable", logger.ErrorField(err))
	} else {
		go watcher.Start(ctx)
	}
	go analyze.NewWorker(trackRepo).Start(ctx)

	apiHandler := NewAPIHandler(engine, bus, trackRepo, userRepo, historyRepo, sessionStore, hub, cfg)
	router := newRouter(apiHandler, hub)

	server := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("MacanFM 服务启动", logger.String("addr", cfg.ServerAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", logger.ErrorField(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("正在关闭服务...")

	// 先落盘会话，再停引擎
	gateway.Flush()
	engine.Shutdown()
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", logger.ErrorField(err))
	}
	logger.Info("服务已退出")
}

// newRouter registers every endpoint with its middleware.
func newRouter(h *APIHandler, hub *EventHub) *mux.Router {
	router := mux.NewRouter()

	// CORS 中间件
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, HEAD")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Max-Age", "86400")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	})

	// 账号相关
	router.HandleFunc("/api/auth/login", h.LoginHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/auth/register", h.RegisterHandler).Methods(http.MethodPost)

	// 曲库与历史
	router.HandleFunc("/api/tracks", h.AuthMiddleware(h.GetTracksHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/history", h.AuthMiddleware(h.GetHistoryHandler)).Methods(http.MethodGet)

	// 播放列表
	router.HandleFunc("/api/playlist", h.AuthMiddleware(h.PlaylistHandler)).Methods(http.MethodGet, http.MethodPost, http.MethodDelete)
	router.HandleFunc("/api/playlist/move", h.AuthMiddleware(h.MoveTrackHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/playlist/all", h.AuthMiddleware(h.AddAllTracksToPlaylistHandler)).Methods(http.MethodPost)

	// 播放控制
	router.HandleFunc("/api/player/status", h.AuthMiddleware(h.PlayerStatusHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/player/play", h.AuthMiddleware(h.PlayTrackHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/player/toggle", h.AuthMiddleware(h.TogglePlayPauseHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/player/next", h.AuthMiddleware(h.NextTrackHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/player/prev", h.AuthMiddleware(h.PrevTrackHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/player/seek", h.AuthMiddleware(h.SeekHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/player/volume", h.AuthMiddleware(h.SetVolumeHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/player/mute", h.AuthMiddleware(h.ToggleMuteHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/player/shuffle", h.AuthMiddleware(h.ToggleShuffleHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/player/repeat", h.AuthMiddleware(h.CycleRepeatHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/player/fade", h.AuthMiddleware(h.SetFadeHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/player/normalization", h.AuthMiddleware(h.SetNormalizationHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/player/media-event", h.AuthMiddleware(h.MediaEventHandler)).Methods(http.MethodPost)

	// 均衡器
	router.HandleFunc("/api/equalizer", h.AuthMiddleware(h.GetEqualizerHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/equalizer/band", h.AuthMiddleware(h.SetEQBandHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/equalizer/preset", h.AuthMiddleware(h.ApplyEQPresetHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/equalizer/custom", h.AuthMiddleware(h.SaveCustomPresetHandler)).Methods(http.MethodPost)

	// 事件推送
	router.HandleFunc("/ws/events", hub.EventsHandler)

	return router
}

// restoreSession rebuilds the previous session from redis. Failures leave
// the player in a clean idle state.
func restoreSession(ctx context.Context, engine *player.Engine, store *cache.SessionStore, trackRepo repository.TrackRepository) {
	restoreCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	restored, err := persist.Restore(restoreCtx, store, trackRepo)
	if err != nil {
		logger.Warn("session restore failed", logger.ErrorField(err))
		engine.Restore(nil, nil)
		return
	}
	if restored == nil {
		logger.Info("没有可恢复的会话")
		engine.Restore(nil, nil)
		return
	}
	logger.Info("恢复上次会话",
		logger.Int("tracks", len(restored.Playlist)))
	engine.Restore(restored.Snapshot, restored.Playlist)
}

// seedCustomPreset loads the stored custom preset so it survives restarts.
func seedCustomPreset(ctx context.Context) {
	loadCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	bands, err := cache.GetCustomPreset(loadCtx)
	if err != nil {
		logger.Warn("custom preset load failed", logger.ErrorField(err))
		return
	}
	if bands != nil {
		audio.SeedCustomPreset(bands)
	}
}

func ensureDirExists(dir string) {
	if dir == "" {
		return
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		logger.Warn("failed to create directory", logger.String("dir", dir), logger.ErrorField(err))
	}
}
