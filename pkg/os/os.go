package os

import (
	"os"
	"os/signal"
	"syscall"
)

// ExpectTermination returns a channel that fires once
// on the first SIGINT or SIGTERM.
func ExpectTermination() chan struct{} {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	done := make(chan struct{}, 1)
	go func() {
		<-signals
		signal.Stop(signals)
		done <- struct{}{}
	}()
	return done
}
