package coordinator

import (
	"errors"
	"strings"
	"sync"

	"github.com/goccy/go-json"
	"github.com/projam/jamrelay/pkg/api"
	"github.com/projam/jamrelay/pkg/com"
	"github.com/projam/jamrelay/pkg/config"
	"github.com/projam/jamrelay/pkg/logger"
	"github.com/projam/jamrelay/pkg/network/websocket"
)

// Room is the single owner of the room state.
// All state changes and sends happen under its lock, sends only enqueue
// into channel queues so nothing in here waits on the network.
type Room struct {
	id   string
	conf config.Room

	mu       sync.Mutex
	conns    map[com.PeerId]Channel
	sessions map[com.PeerId]*Session

	log *logger.Logger
}

func NewRoom(id string, conf config.Room, log *logger.Logger) *Room {
	if log == nil {
		log = logger.Default()
	}
	return &Room{
		id:       id,
		conf:     conf,
		conns:    make(map[com.PeerId]Channel),
		sessions: make(map[com.PeerId]*Session),
		log:      log.Extend(log.With().Str(logger.RoomField, id)),
	}
}

func (r *Room) Id() string { return r.id }

// Len returns the number of joined peers.
func (r *Room) Len() int { r.mu.Lock(); defer r.mu.Unlock(); return len(r.sessions) }

// Connections returns the number of registered channels, joined or not.
func (r *Room) Connections() int { r.mu.Lock(); defer r.mu.Unlock(); return len(r.conns) }

// Register remembers the channel of a new connection under a fresh peer id.
// The peer has no session until it sends join.
func (r *Room) Register(ch Channel) com.PeerId {
	id := com.NewPeerId()
	r.mu.Lock()
	r.conns[id] = ch
	r.mu.Unlock()
	connectionsActive.Inc()
	r.log.Debug().Str(logger.PeerField, id.Short()).Msg("connected")
	return id
}

// HandleMessage processes one inbound frame of the peer.
func (r *Room) HandleMessage(id com.PeerId, raw []byte) {
	in, err := api.Decode(raw)
	if err != nil {
		r.reject(id, err)
		return
	}
	messagesIn.WithLabelValues(in.T.String()).Inc()
	r.log.Debug().Str(logger.PeerField, id.Short()).Str(logger.DirectionField, "←").Msg(in.T.String())

	switch in.T {
	case api.Join:
		rq, err := api.Unwrap[api.JoinRequest](in)
		if err != nil {
			r.reject(id, err)
			return
		}
		r.join(id, *rq)
	case api.Chat:
		rq, err := api.Unwrap[api.ChatRequest](in)
		if err != nil {
			r.reject(id, err)
			return
		}
		r.chat(id, rq.Message)
	}
}

// HandleDisconnect removes the session of a closed connection and
// tells the others. Peers that never joined leave silently.
func (r *Room) HandleDisconnect(id com.PeerId, info websocket.CloseInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.conns[id]; ok {
		delete(r.conns, id)
		connectionsActive.Dec()
	}
	log := r.log.Extend(r.log.With().Str(logger.PeerField, id.Short()).Str(logger.DirectionField, "x"))

	s, ok := r.sessions[id]
	if !ok {
		log.Debug().Int("code", info.Code).Bool("clean", info.WasClean).Msg("disconnected without a session")
		return
	}
	delete(r.sessions, id)
	sessionsActive.Dec()
	log.Info().Int("code", info.Code).Bool("clean", info.WasClean).Msgf("User %s left", s.Username)

	r.broadcast(api.NewUserLeft(id.String(), s.Username), com.NilPeerId)
}

// Broadcast sends the message to every joined peer except the excluded one.
func (r *Room) Broadcast(msg any, exclude com.PeerId) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.broadcast(msg, exclude)
}

func (r *Room) join(id com.PeerId, rq api.JoinRequest) {
	username := rq.Username
	if strings.TrimSpace(username) == "" {
		username = r.conf.DefaultUsername
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	ch, ok := r.conns[id]
	if !ok {
		r.log.Warn().Str(logger.PeerField, id.Short()).Msg("join from an unregistered peer")
		return
	}

	s := &Session{Id: id, Username: username, Addr: UdpAddr{Ip: rq.PublicIp, Port: rq.PublicPort}, ch: ch}
	if _, rejoin := r.sessions[id]; !rejoin {
		sessionsActive.Inc()
	}
	r.sessions[id] = s
	r.log.Info().Str(logger.PeerField, id.Short()).
		Msgf("User %s joining with UDP %s:%s", s.Username, s.Addr.Ip, s.Addr.Port)

	others := make([]api.PeerInfo, 0, len(r.sessions)-1)
	for pid, o := range r.sessions {
		if pid != id {
			others = append(others, o.Info())
		}
	}
	if len(others) > 0 && !r.unicast(s, api.NewExistingUsers(others)) {
		return
	}
	if !r.unicast(s, api.NewJoined(id.String(), len(r.sessions))) {
		return
	}
	r.broadcast(api.NewUserJoined(s.Info()), id)
}

func (r *Room) chat(id com.PeerId, message json.RawMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()

	username := r.conf.UnknownUsername
	s, joined := r.sessions[id]
	if joined {
		username = s.Username
	}
	data, err := api.Encode(api.NewChat(username, message))
	if err != nil {
		r.log.Error().Err(err).Msg("chat encode")
		return
	}
	r.deliver(data, api.Chat, com.NilPeerId)
	// the sender always gets its own message back
	if !joined {
		if ch, ok := r.conns[id]; ok {
			if err := ch.Send(data); err != nil {
				r.log.Warn().Err(err).Str(logger.PeerField, id.Short()).Msg("chat echo failed")
			} else {
				messagesOut.WithLabelValues(api.Chat.String()).Inc()
			}
		}
	}
}

// reject answers a bad frame with an error message to its sender only.
func (r *Room) reject(id com.PeerId, err error) {
	label := malformedLabel
	if errors.Is(err, api.ErrUnknownType) {
		label = unknownLabel
	}
	messagesIn.WithLabelValues(label).Inc()
	log := r.log.Extend(r.log.With().Str(logger.PeerField, id.Short()))
	log.Warn().Err(err).Msg("bad message")

	data, e := api.Encode(api.NewError(err))
	if e != nil {
		log.Error().Err(e).Msg("error encode")
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	ch, ok := r.conns[id]
	if !ok {
		return
	}
	if e := ch.Send(data); e != nil {
		log.Warn().Err(e).Msg("error reply failed")
		return
	}
	messagesOut.WithLabelValues(api.Error.String()).Inc()
}

// unicast sends the message to a joined peer and drops the peer
// if its channel doesn't take it. Must be called under the lock.
func (r *Room) unicast(s *Session, msg any) bool {
	data, err := api.Encode(msg)
	if err != nil {
		r.log.Error().Err(err).Msg("encode")
		return false
	}
	if err := s.ch.Send(data); err != nil {
		r.drop(s, err)
		return false
	}
	messagesOut.WithLabelValues(typeOf(msg)).Inc()
	r.log.Debug().Str(logger.PeerField, s.Id.Short()).Str(logger.DirectionField, "→").Msg(typeOf(msg))
	return true
}

// broadcast encodes the message once and delivers it. Must be called under the lock.
func (r *Room) broadcast(msg any, exclude com.PeerId) {
	data, err := api.Encode(msg)
	if err != nil {
		r.log.Error().Err(err).Msg("broadcast encode")
		return
	}
	r.deliver(data, api.T(typeOf(msg)), exclude)
}

func (r *Room) deliver(data []byte, t api.T, exclude com.PeerId) {
	sent := 0
	for id, s := range r.sessions {
		if id == exclude {
			continue
		}
		if err := s.ch.Send(data); err != nil {
			r.drop(s, err)
			continue
		}
		sent++
	}
	messagesOut.WithLabelValues(t.String()).Add(float64(sent))
	r.log.Debug().Str(logger.DirectionField, "→").Int("n", sent).Msgf("%v *", t)
}

// drop removes the session of a peer that can't be sent to anymore.
// Nobody is told about it, the connection is closed and
// its disconnect finds nothing to clean.
func (r *Room) drop(s *Session, err error) {
	delete(r.sessions, s.Id)
	sessionsActive.Dec()
	sendFailures.Inc()
	r.log.Warn().Err(err).Str(logger.PeerField, s.Id.Short()).Msgf("User %s dropped", s.Username)
	s.ch.Close()
}

func typeOf(msg any) string {
	switch m := msg.(type) {
	case api.ExistingUsersResponse:
		return m.T.String()
	case api.JoinedResponse:
		return m.T.String()
	case api.UserJoinedResponse:
		return m.T.String()
	case api.ChatResponse:
		return m.T.String()
	case api.UserLeftResponse:
		return m.T.String()
	case api.ErrorResponse:
		return m.T.String()
	}
	return "unknown"
}
