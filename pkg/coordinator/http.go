package coordinator

import (
	"net/http"

	"github.com/projam/jamrelay/pkg/config"
	"github.com/projam/jamrelay/pkg/logger"
	"github.com/projam/jamrelay/pkg/network/httpx"
)

func NewHTTPServer(conf config.Relay, log *logger.Logger, fnMux func(mux *http.ServeMux)) (*httpx.Server, error) {
	return httpx.NewServer(
		conf.Server.GetAddr(),
		func(*httpx.Server) http.Handler {
			h := http.NewServeMux()
			fnMux(h)
			return h
		},
		httpx.WithServerConfig(conf.Server),
		httpx.WithLogger(log),
	)
}

// routes serves upgrades on any path except the health check.
func routes(hub *Hub) func(mux *http.ServeMux) {
	return func(mux *http.ServeMux) {
		mux.HandleFunc("/health", hub.Health)
		mux.HandleFunc("/", hub.ServeWs)
	}
}
