package coordinator

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/projam/jamrelay/pkg/com"
	"github.com/projam/jamrelay/pkg/config"
	"github.com/projam/jamrelay/pkg/logger"
	"github.com/projam/jamrelay/pkg/network/websocket"
)

var ErrInternal = errors.New("internal error")

// Hub accepts peer connections and hands them to their rooms.
type Hub struct {
	conf     config.Relay
	rooms    *Rooms
	conns    com.Map[com.PeerId, *websocket.WS]
	upgrader *websocket.Upgrader
	wsOpts   websocket.Options
	log      *logger.Logger
}

func NewHub(conf config.Relay, log *logger.Logger) *Hub {
	if log == nil {
		log = logger.Default()
	}
	return &Hub{
		conf:     conf,
		rooms:    NewRooms(conf.Room, log),
		conns:    com.NewMap[com.PeerId, *websocket.WS](),
		upgrader: websocket.NewUpgrader(conf.Origin.Allowed...),
		wsOpts: websocket.Options{
			MaxMessageSize: conf.Ws.MaxMessageSize,
			SendQueue:      conf.Ws.SendQueue,
			WriteWait:      conf.Ws.WriteWait,
			PongWait:       conf.Ws.PongWait,
			PingPong:       !conf.Ws.NoPing,
		},
		log: log,
	}
}

// ServeWs upgrades a peer connection and serves it until it closes.
func (h *Hub) ServeWs(w http.ResponseWriter, r *http.Request) {
	defer func() {
		if rc := recover(); rc != nil {
			h.log.Error().Msgf("Something wrong. Recovered in %v", rc)
		}
	}()

	if !websocket.IsUpgrade(r) {
		h.log.Debug().Str("addr", r.RemoteAddr).Msgf("Not an upgrade: %s %s", r.Method, r.URL.Path)
		http.Error(w, "WebSocket only", http.StatusBadRequest)
		return
	}

	room := h.rooms.Acquire(h.RoomId(r))
	defer h.rooms.Release(room)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Str("addr", r.RemoteAddr).Msg("Upgrade failed")
		return
	}

	ws := websocket.NewServerWithConn(conn, h.wsOpts, room.log)
	id := room.Register(ws)
	ws.OnMessage = h.messageHandler(room, id)
	h.conns.Put(id, ws)

	<-ws.Listen()

	h.conns.RemoveByKey(id)
	room.HandleDisconnect(id, ws.CloseInfo())
}

// messageHandler feeds the frames of a peer into its room.
// A panic while handling a frame is answered with an error,
// the connection and the room stay.
func (h *Hub) messageHandler(room *Room, id com.PeerId) func([]byte) {
	return func(message []byte) {
		defer func() {
			if rc := recover(); rc != nil {
				h.log.Error().Str(logger.RoomField, room.Id()).Str(logger.PeerField, id.Short()).
					Msgf("Something wrong. Recovered in message handler: %v", rc)
				room.reject(id, ErrInternal)
			}
		}()
		room.HandleMessage(id, message)
	}
}

// RoomId returns the room name from the request or the default one.
func (h *Hub) RoomId(r *http.Request) string {
	if id := r.URL.Query().Get(h.conf.Room.Param); id != "" {
		return id
	}
	return h.conf.Room.Default
}

// Health answers liveness probes.
func (h *Hub) Health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "ok rooms=%d peers=%d\n", h.rooms.Len(), h.conns.Len())
}

// CloseAll closes every peer connection.
func (h *Hub) CloseAll() {
	h.conns.ForEach(func(ws *websocket.WS) { ws.Close() })
}

func (h *Hub) Rooms() *Rooms { return h.rooms }
