package main

import (
	"context"
	stdos "os"
	"time"

	"github.com/projam/jamrelay/pkg/config"
	"github.com/projam/jamrelay/pkg/coordinator"
	"github.com/projam/jamrelay/pkg/logger"
	"github.com/projam/jamrelay/pkg/os"
)

var Version = "?"

const shutdownTimeout = 10 * time.Second

func main() {
	conf, err := config.NewRelayConfig(stdos.Args[1:])
	if err != nil {
		logger.Default().Fatal().Err(err).Msg("config load fail")
	}

	log := logger.NewConsole(conf.Relay.Debug, "r", false)

	log.Info().Msgf("version %s", Version)
	if log.GetLevel() < logger.InfoLevel {
		log.Debug().Msgf("config: %+v", conf)
	}
	c, err := coordinator.New(conf, log)
	if err != nil {
		log.Fatal().Err(err).Msg("relay init fail")
	}
	c.Start()
	log.Info().Msgf("Relay is listening on %s", c.Addr())

	<-os.ExpectTermination()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := c.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("service shutdown errors")
	}
}
