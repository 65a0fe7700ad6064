package ws

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/kgellert/hodatay-groups/internal/groups"
	"github.com/kgellert/hodatay-groups/internal/lib/logger/sl"
	"github.com/kgellert/hodatay-groups/internal/messages"
	"github.com/kgellert/hodatay-groups/internal/ws"
	"github.com/kgellert/hodatay-groups/internal/ws/hub"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Queries are the read models a websocket client may subscribe to.
type Queries struct {
	Groups   groups.Service
	Messages messages.Service
}

func WSHandler(h *hub.Hub, q Queries, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ws.WSHandler"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Error("ws upgrade error", sl.Err(err))
			return
		}
		defer conn.Close()

		hc := hub.NewConnection(conn)
		go func() {
			if err := hc.WritePump(); err != nil {
				log.Debug("ws write pump stopped", sl.Err(err))
			}
		}()

		if err := h.Register(hc); err != nil {
			log.Warn("hub unavailable", sl.Err(err))
			hc.CloseSend()
			return
		}
		defer h.Unregister(hc)

		s := newSession(hc, h, q, log)

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.queryPump(r.Context())
		}()
		defer wg.Wait()
		defer s.stop()

		hc.Keepalive()

		s.send(ws.ServerFrame{Type: ws.FrameHello})

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Warn("ws read error", sl.Err(err))
				}
				return
			}

			var frame ws.ClientFrame
			if err := json.Unmarshal(data, &frame); err != nil {
				log.Warn("ws bad json", sl.Err(err))
				s.sendError("", "invalid_request", "malformed frame")
				continue
			}

			switch frame.Type {
			case ws.FrameSubscribe:
				s.subscribe(frame)
			case ws.FrameUnsubscribe:
				s.unsubscribe(frame.ID)
			default:
				log.Info("ws unknown message type", slog.String("message type", frame.Type))
				s.sendError(frame.ID, "invalid_request", "unknown frame type")
			}
		}
	}
}
