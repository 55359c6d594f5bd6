package config

import "time"

type RelayConfig struct {
	Relay Relay
}

type Relay struct {
	Debug      bool
	Monitoring Monitoring
	Origin     Origin
	Room       Room
	Server     Server
	Ws         Ws
}

// Origin is a list of allowed Origin header values for the WebSocket upgrade.
// An empty list or a single "*" allows any origin.
type Origin struct {
	Allowed []string
}

type Room struct {
	// Param is the query parameter with a room name.
	Param string `default:"room"`
	// Default is the room name when the param is absent.
	Default string `default:"default-room"`
	// DefaultUsername is assigned to peers that join without a name.
	DefaultUsername string `default:"Musician"`
	// UnknownUsername is used for chat messages from peers that never joined.
	UnknownUsername string `default:"Unknown"`
	// KeepEmpty keeps rooms without connections in memory.
	KeepEmpty bool
}

type Ws struct {
	MaxMessageSize int64         `default:"65536"`
	SendQueue      int           `default:"256"`
	WriteWait      time.Duration `default:"10s"`
	PongWait       time.Duration `default:"60s"`
	NoPing         bool
}

type Monitoring struct {
	Port             int    `default:"6601"`
	URLPrefix        string `default:"/relay"`
	MetricEnabled    bool   `fig:"metric_enabled"`
	ProfilingEnabled bool   `fig:"profiling_enabled"`
}

func (c *Monitoring) IsEnabled() bool { return c.MetricEnabled || c.ProfilingEnabled }

type Server struct {
	Address string `default:":8000"`
	Https   bool
	Tls     Tls
}

type Tls struct {
	Address   string `default:":443"`
	Domain    string
	HttpsKey  string
	HttpsCert string
}

func (s *Server) GetAddr() string {
	if s.Https {
		return s.Tls.Address
	}
	return s.Address
}
