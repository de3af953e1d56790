package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The status feed serves the local presentation layer; callers are not
	// authenticated anywhere else on this surface either.
	CheckOrigin: func(*http.Request) bool { return true },
}

const statusPollInterval = 2 * time.Second

// handleServersWS pushes the server status snapshot over a websocket whenever
// it changes, so the UI does not have to poll GET /servers.
func (s *Server) handleServersWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	closed := make(chan struct{})
	go func() {
		// Reads are only used to notice the peer going away.
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(statusPollInterval)
	defer ticker.Stop()

	var last []byte
	send := func() bool {
		snapshot := gin.H{"servers": s.sup.ListActive()}
		data, err := json.Marshal(snapshot)
		if err != nil {
			return true
		}
		if string(data) == string(last) {
			return true
		}
		last = data
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return false
		}
		return true
	}

	if !send() {
		return
	}
	for {
		select {
		case <-closed:
			return
		case <-c.Request.Context().Done():
			return
		case <-ticker.C:
			if !send() {
				return
			}
		}
	}
}
