package coordinator

import (
	"github.com/goccy/go-json"
	"github.com/projam/jamrelay/pkg/api"
	"github.com/projam/jamrelay/pkg/com"
)

// Channel is a peer connection the room pushes messages into.
// Send must not block.
type Channel interface {
	Send(data []byte) error
	Close()
}

// UdpAddr is a peer-supplied rendezvous endpoint, never resolved or checked.
type UdpAddr struct {
	Ip   string
	Port json.Number
}

// Session is a peer that has joined a room.
type Session struct {
	Id       com.PeerId
	Username string
	Addr     UdpAddr

	ch Channel
}

func (s *Session) Info() api.PeerInfo {
	return api.PeerInfo{
		PeerId:   s.Id.String(),
		Username: s.Username,
		UdpIp:    s.Addr.Ip,
		UdpPort:  s.Addr.Port,
	}
}
