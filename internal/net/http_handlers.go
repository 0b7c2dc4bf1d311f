package net

import (
	"encoding/json"
	"log"
	nethttp "net/http"
	"time"

	"broadphase/server/internal/hub"
	"broadphase/server/internal/net/ws"
)

type HTTPHandlerConfig struct {
	Logger *log.Logger
}

// NewHTTPHandler builds the server mux: health probe, diagnostics snapshot,
// and the websocket collision feed.
func NewHTTPHandler(h *hub.Hub, cfg HTTPHandlerConfig) nethttp.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	mux := nethttp.NewServeMux()

	mux.HandleFunc("/health", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("/diagnostics", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		diag := h.Diagnostics()
		payload := struct {
			Status      string `json:"status"`
			ServerTime  int64  `json:"serverTime"`
			Tick        uint64 `json:"tick"`
			Subscribers int    `json:"subscribers"`
			Boxes       int    `json:"boxes"`
			Stationary  int    `json:"stationary"`
			CacheValid  bool   `json:"cacheValid"`
			CachedPairs int    `json:"cachedPairs"`
		}{
			Status:      "ok",
			ServerTime:  time.Now().UnixMilli(),
			Tick:        diag.Tick,
			Subscribers: diag.Subscribers,
			Boxes:       diag.Boxes,
			Stationary:  diag.Stationary,
			CacheValid:  diag.CacheValid,
			CachedPairs: diag.CachedPairs,
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			logger.Printf("failed to encode diagnostics: %v", err)
		}
	})

	wsHandler := ws.NewHandler(h, ws.HandlerConfig{Logger: logger})
	mux.HandleFunc("/ws", wsHandler.Handle)

	return mux
}
