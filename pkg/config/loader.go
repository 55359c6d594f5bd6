package config

import (
	"errors"
	"os"

	"github.com/kkyr/fig"
	"github.com/spf13/pflag"
)

const (
	EnvPrefix = "JAMRELAY"
	FileName  = "config.yaml"
)

// LoadConfig loads a configuration file into the given struct.
// The path param specifies a custom directory with the configuration file.
// Reads and puts environment variables with the prefix JAMRELAY_.
// Params from the config should be in uppercase separated with _,
// i.e. JAMRELAY_RELAY_ROOM_DEFAULT.
// Without any file the struct gets its defaults and the environment values.
func LoadConfig(config any, path string) error {
	dirs := []string{path}
	if path == "" {
		dirs = append(dirs, ".", "configs")
		if home, err := os.UserHomeDir(); err == nil {
			dirs = append(dirs, home+"/.jamrelay")
		}
	}
	err := fig.Load(config, fig.File(FileName), fig.Dirs(dirs...), fig.UseEnv(EnvPrefix))
	if errors.Is(err, fig.ErrFileNotFound) {
		return LoadConfigEnv(config)
	}
	return err
}

func LoadConfigEnv(config any) error {
	return fig.Load(config, fig.IgnoreFile(), fig.UseEnv(EnvPrefix))
}

// NewRelayConfig parses command line args, loads the config
// and applies the explicitly set flags on top of it.
func NewRelayConfig(args []string) (conf RelayConfig, err error) {
	fs := pflag.NewFlagSet("jamrelay", pflag.ContinueOnError)
	path := fs.StringP("conf", "c", "", "Set custom configuration file directory")
	debug := fs.Bool("debug", false, "Enable debug logs")
	address := fs.String("address", "", "HTTP server address (host:port)")
	httpsAddress := fs.String("httpsAddress", "", "HTTPS server address (host:port)")
	httpsKey := fs.String("httpsKey", "", "HTTPS key")
	httpsCert := fs.String("httpsCert", "", "HTTPS chain")
	monitoringPort := fs.Int("monitoring.port", 0, "Monitoring server port")
	if err = fs.Parse(args); err != nil {
		return
	}

	if err = LoadConfig(&conf, *path); err != nil {
		return
	}

	r := &conf.Relay
	fs.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "debug":
			r.Debug = *debug
		case "address":
			r.Server.Address = *address
		case "httpsAddress":
			r.Server.Tls.Address = *httpsAddress
		case "httpsKey":
			r.Server.Tls.HttpsKey = *httpsKey
		case "httpsCert":
			r.Server.Tls.HttpsCert = *httpsCert
		case "monitoring.port":
			r.Monitoring.Port = *monitoringPort
		}
	})
	return
}
