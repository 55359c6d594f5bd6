package coordinator

import (
	"context"

	"github.com/projam/jamrelay/pkg/config"
	"github.com/projam/jamrelay/pkg/logger"
	"github.com/projam/jamrelay/pkg/monitoring"
	"github.com/projam/jamrelay/pkg/network/httpx"
	"github.com/projam/jamrelay/pkg/service"
)

type Coordinator struct {
	service.Group

	hub    *Hub
	server *httpx.Server
	log    *logger.Logger
}

func New(conf config.RelayConfig, log *logger.Logger) (*Coordinator, error) {
	c := &Coordinator{log: log}
	c.hub = NewHub(conf.Relay, log)
	srv, err := NewHTTPServer(conf.Relay, log, routes(c.hub))
	if err != nil {
		log.Error().Err(err).Msg("http init fail")
		return nil, err
	}
	c.server = srv
	c.Add(srv)
	if conf.Relay.Monitoring.IsEnabled() {
		mon, err := monitoring.New(conf.Relay.Monitoring, "relay", log)
		if err != nil {
			log.Error().Err(err).Msg("monitoring init fail")
			_ = srv.Stop()
			return nil, err
		}
		c.Add(mon)
	}
	return c, nil
}

// Addr is the address the relay listens on.
func (c *Coordinator) Addr() string { return c.server.Addr }

func (c *Coordinator) Hub() *Hub { return c.hub }

// Shutdown stops accepting new peers, then closes the connected ones.
func (c *Coordinator) Shutdown(ctx context.Context) error {
	err := c.Group.Shutdown(ctx)
	c.hub.CloseAll()
	return err
}
