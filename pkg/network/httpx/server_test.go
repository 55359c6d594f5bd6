package httpx

import (
	"context"
	"net/http"
	"testing"

	"github.com/projam/jamrelay/pkg/config"
	"github.com/projam/jamrelay/pkg/logger"
)

func TestCertManager(t *testing.T) {
	ctx := context.Background()

	m := newCertManager("jam.example.com", t.TempDir())
	if err := m.HostPolicy(ctx, "jam.example.com"); err != nil {
		t.Errorf("the domain must be allowed, %v", err)
	}
	if err := m.HostPolicy(ctx, "evil.example.com"); err == nil {
		t.Errorf("other hosts must be refused")
	}

	if m := newCertManager("", t.TempDir()); m.HostPolicy != nil {
		t.Errorf("no domain means no host policy")
	}
}

func TestHttpsAutoCert(t *testing.T) {
	conf := config.Server{Https: true, Tls: config.Tls{Address: "127.0.0.1:0", Domain: "jam.example.com"}}
	s, err := NewServer(conf.GetAddr(), func(*Server) http.Handler { return http.NewServeMux() },
		WithServerConfig(conf), WithLogger(logger.Nop()))
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = s.Stop() }()

	if s.autoCert == nil || s.TLSConfig == nil {
		t.Fatalf("https without a key pair must use autocert")
	}
	if s.GetProtocol() != "https" {
		t.Errorf("got %v", s.GetProtocol())
	}
}
