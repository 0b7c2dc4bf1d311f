package ws

import (
	"log"
	nethttp "net/http"

	"github.com/gorilla/websocket"
)

// Feed is the hub surface the handler needs: register a connection, get back
// its ID, and drop it when the read loop ends.
type Feed interface {
	Subscribe(conn *websocket.Conn) (string, error)
	Unsubscribe(id, reason string)
}

type HandlerConfig struct {
	Logger *log.Logger
}

type Handler struct {
	feed     Feed
	logger   *log.Logger
	upgrader websocket.Upgrader
}

func NewHandler(feed Feed, cfg HandlerConfig) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Handler{
		feed:   feed,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *nethttp.Request) bool {
				return true
			},
		},
	}
}

// Handle upgrades the request and parks in a read loop. The feed owns all
// writes; inbound frames are discarded, the loop exists to notice the close.
func (h *Handler) Handle(w nethttp.ResponseWriter, r *nethttp.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Printf("websocket upgrade failed: %v", err)
		return
	}

	id, err := h.feed.Subscribe(conn)
	if err != nil {
		h.logger.Printf("subscribe failed: %v", err)
		conn.Close()
		return
	}

	defer func() {
		h.feed.Unsubscribe(id, "connection closed")
		conn.Close()
	}()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
