package server

import (
	"net/http"
	"sync"

	"MacanFM/core/audio"
	"MacanFM/core/player"
	"MacanFM/logger"

	"github.com/gorilla/websocket"
)

var wsUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// EventHub bridges the engine and the UI over websocket. Engine events
// fan out to every connected client, and video playback commands travel
// the same channel in the other direction's sink role.
type EventHub struct {
	bus      *player.Bus
	videoOut *audio.RemoteOutput

	mu    sync.Mutex
	conns map[*websocket.Conn]bool
}

func NewEventHub(bus *player.Bus) *EventHub {
	return &EventHub{
		bus:   bus,
		conns: make(map[*websocket.Conn]bool),
	}
}

// SetVideoOutput attaches the remote output after construction; the output
// needs the hub as its command sink.
func (h *EventHub) SetVideoOutput(out *audio.RemoteOutput) {
	h.videoOut = out
}

// VideoOut returns the remote output driven through this hub.
func (h *EventHub) VideoOut() *audio.RemoteOutput {
	return h.videoOut
}

// Run pumps bus events to every connected client. Call in its own
// goroutine.
func (h *EventHub) Run() {
	id, ch := h.bus.Subscribe()
	defer h.bus.Unsubscribe(id)
	for ev := range ch {
		h.broadcast(ev)
	}
}

func (h *EventHub) broadcast(payload interface{}) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.conns {
		if err := conn.WriteJSON(payload); err != nil {
			logger.Debug("websocket write failed, dropping client", logger.ErrorField(err))
			conn.Close()
			delete(h.conns, conn)
		}
	}
}

// SendVideoCommand pushes a playback command for the UI's media element.
func (h *EventHub) SendVideoCommand(action string, payload map[string]interface{}) {
	h.broadcast(map[string]interface{}{
		"type":    "video_command",
		"action":  action,
		"payload": payload,
	})
}

// EventsHandler upgrades the connection and registers it for pushes.
func (h *EventHub) EventsHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("websocket upgrade failed", logger.ErrorField(err))
		return
	}

	h.mu.Lock()
	h.conns[conn] = true
	h.mu.Unlock()
	logger.Info("事件推送客户端已连接", logger.String("remote", r.RemoteAddr))

	// 读循环只用于发现断开
	go func() {
		defer func() {
			h.mu.Lock()
			delete(h.conns, conn)
			h.mu.Unlock()
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
