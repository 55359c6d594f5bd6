package websocket

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/projam/jamrelay/pkg/logger"
)

func newEchoServer(t *testing.T, opts Options) (*httptest.Server, chan *WS) {
	conns := make(chan *WS, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := DefaultUpgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("no socket, %v", err)
			return
		}
		ws := NewServerWithConn(conn, opts, logger.Nop())
		ws.OnMessage = func(m []byte) { _ = ws.Send(m) }
		ws.Listen()
		conns <- ws
	}))
	t.Cleanup(srv.Close)
	return srv, conns
}

func dial(t *testing.T, srv *httptest.Server) *WS {
	u, _ := url.Parse(srv.URL)
	u.Scheme = "ws"
	ws, err := NewClient(*u, Options{PingPong: false}, logger.Nop())
	if err != nil {
		t.Fatalf("couldn't connect to %v because of %v", u, err)
	}
	return ws
}

func TestEcho(t *testing.T) {
	srv, conns := newEchoServer(t, DefaultOptions)
	client := dial(t, srv)
	got := make(chan string, 10)
	client.OnMessage = func(m []byte) { got <- string(m) }
	client.Listen()

	server := <-conns
	messages := []string{"a", "b", `{"type":"chat"}`}
	for _, m := range messages {
		if err := client.Send([]byte(m)); err != nil {
			t.Fatalf("send: %v", err)
		}
	}
	for _, want := range messages {
		select {
		case m := <-got:
			if m != want {
				t.Errorf("got %v, want %v", m, want)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("no echo for %v", want)
		}
	}

	client.Close()
	select {
	case <-server.Done:
	case <-time.After(2 * time.Second):
		t.Fatalf("server side didn't notice the close")
	}
	if info := server.CloseInfo(); info.Code != websocket.CloseNormalClosure || !info.WasClean {
		t.Errorf("unexpected close info %+v", info)
	}
	<-client.Done
	if err := client.Send([]byte("late")); !errors.Is(err, ErrClosed) {
		t.Errorf("expected %v, got %v", ErrClosed, err)
	}
}

func TestSendQueueFull(t *testing.T) {
	ws := &WS{send: make(chan []byte, 1)}
	if err := ws.Send([]byte("1")); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if err := ws.Send([]byte("2")); !errors.Is(err, ErrSendQueueFull) {
		t.Errorf("expected %v, got %v", ErrSendQueueFull, err)
	}
	ws.stop()
	ws.stop()
	if err := ws.Send([]byte("3")); !errors.Is(err, ErrClosed) {
		t.Errorf("expected %v, got %v", ErrClosed, err)
	}
}

func TestUpgraderOrigins(t *testing.T) {
	tests := []struct {
		origins []string
		origin  string
		ok      bool
	}{
		{origins: nil, origin: "http://evil.com", ok: true},
		{origins: []string{"*"}, origin: "http://evil.com", ok: true},
		{origins: []string{"https://jam.example.com/"}, origin: "https://JAM.example.com", ok: true},
		{origins: []string{"https://jam.example.com"}, origin: "http://evil.com", ok: false},
		{origins: []string{"https://jam.example.com"}, origin: "", ok: true},
	}
	for _, tt := range tests {
		u := NewUpgrader(tt.origins...)
		r := httptest.NewRequest(http.MethodGet, "/ws", nil)
		if tt.origin != "" {
			r.Header.Set("Origin", tt.origin)
		}
		ok := u.CheckOrigin == nil || u.CheckOrigin(r)
		if ok != tt.ok {
			t.Errorf("%v with %v: got %v, want %v", tt.origin, tt.origins, ok, tt.ok)
		}
	}
}

func TestCloseInfo(t *testing.T) {
	tests := []struct {
		code  int
		clean bool
	}{
		{code: websocket.CloseNormalClosure, clean: true},
		{code: websocket.CloseGoingAway, clean: true},
		{code: websocket.CloseNoStatusReceived},
		{code: websocket.CloseAbnormalClosure},
		{code: websocket.CloseTLSHandshake},
		{code: websocket.CloseProtocolError},
		{code: websocket.CloseMessageTooBig},
	}
	for _, tt := range tests {
		info := closeInfo(&websocket.CloseError{Code: tt.code, Text: "x"})
		if info.Code != tt.code || info.Reason != "x" || info.WasClean != tt.clean {
			t.Errorf("code %v: got %+v, want clean %v", tt.code, info, tt.clean)
		}
	}
}
