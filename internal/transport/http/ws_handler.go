package http

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/zaidAlkhathlan/ramdan/internal/app"
	"github.com/zaidAlkhathlan/ramdan/internal/domain"
)

// WSHandler streams leaderboard snapshots to websocket clients so the
// scoreboard display refreshes as correct answers land.
type WSHandler struct {
	game     *app.GameService
	upgrader websocket.Upgrader
}

func NewWSHandler(game *app.GameService) *WSHandler {
	return &WSHandler{
		game: game,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type outboundMessage struct {
	Type    string             `json:"type"`
	Payload domain.Leaderboard `json:"payload"`
}

// ServeWS upgrades the request and pumps leaderboard updates until the
// client disconnects. The feed is read-only; answers go through the JSON API.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	updates, cancel, err := h.game.Subscribe(r.Context())
	if err != nil {
		log.Printf("ws subscribe failed: %v", err)
		return
	}
	defer cancel()

	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		for {
			// Clients send nothing meaningful; reading only detects close.
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case update, ok := <-updates:
			if !ok {
				return
			}
			if err := conn.WriteJSON(outboundMessage{Type: "leaderboard", Payload: update}); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		case <-readerDone:
			return
		}
	}
}
