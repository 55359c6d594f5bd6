package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	var conf RelayConfig
	if err := LoadConfig(&conf, t.TempDir()); err != nil {
		t.Fatal(err)
	}

	room := conf.Relay.Room
	if room.Param != "room" || room.Default != "default-room" {
		t.Errorf("unexpected room routing defaults %+v", room)
	}
	if room.DefaultUsername != "Musician" || room.UnknownUsername != "Unknown" {
		t.Errorf("unexpected username defaults %+v", room)
	}
	if conf.Relay.Ws.SendQueue != 256 || conf.Relay.Ws.WriteWait != 10*time.Second {
		t.Errorf("unexpected ws defaults %+v", conf.Relay.Ws)
	}
	if conf.Relay.Server.GetAddr() != ":8000" {
		t.Errorf("unexpected address %v", conf.Relay.Server.GetAddr())
	}
}

func TestConfigEnv(t *testing.T) {
	t.Setenv("JAMRELAY_RELAY_ROOM_DEFAULT", "lobby")
	t.Setenv("JAMRELAY_RELAY_WS_SENDQUEUE", "8")

	var conf RelayConfig
	if err := LoadConfig(&conf, t.TempDir()); err != nil {
		t.Fatal(err)
	}
	if conf.Relay.Room.Default != "lobby" {
		t.Errorf("%v is not lobby", conf.Relay.Room.Default)
	}
	if conf.Relay.Ws.SendQueue != 8 {
		t.Errorf("%v is not 8", conf.Relay.Ws.SendQueue)
	}
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	data := []byte("relay:\n  debug: true\n  room:\n    defaultUsername: Anon\n  server:\n    https: true\n    tls:\n      address: \":8443\"\n")
	if err := os.WriteFile(filepath.Join(dir, FileName), data, 0644); err != nil {
		t.Fatal(err)
	}

	var conf RelayConfig
	if err := LoadConfig(&conf, dir); err != nil {
		t.Fatal(err)
	}
	if !conf.Relay.Debug {
		t.Errorf("debug should be on")
	}
	if conf.Relay.Room.DefaultUsername != "Anon" {
		t.Errorf("%v is not Anon", conf.Relay.Room.DefaultUsername)
	}
	if conf.Relay.Room.UnknownUsername != "Unknown" {
		t.Errorf("missing keys should keep defaults, got %v", conf.Relay.Room.UnknownUsername)
	}
	if conf.Relay.Server.GetAddr() != ":8443" {
		t.Errorf("https address is %v", conf.Relay.Server.GetAddr())
	}
}

func TestFlags(t *testing.T) {
	conf, err := NewRelayConfig([]string{"--conf", t.TempDir(), "--address", ":9999", "--debug", "--monitoring.port", "7000"})
	if err != nil {
		t.Fatal(err)
	}
	if conf.Relay.Server.Address != ":9999" {
		t.Errorf("address flag is ignored: %v", conf.Relay.Server.Address)
	}
	if !conf.Relay.Debug || conf.Relay.Monitoring.Port != 7000 {
		t.Errorf("flags are ignored: %+v", conf.Relay)
	}
	if conf.Relay.Server.Tls.Address != ":443" {
		t.Errorf("unset flags should not override, got %v", conf.Relay.Server.Tls.Address)
	}

	if _, err := NewRelayConfig([]string{"--no-such-flag"}); err == nil {
		t.Errorf("expected an error for unknown flags")
	}
}
