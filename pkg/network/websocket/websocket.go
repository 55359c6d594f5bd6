package websocket

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/projam/jamrelay/pkg/com"
	"github.com/projam/jamrelay/pkg/logger"
)

var (
	ErrClosed        = errors.New("connection closed")
	ErrSendQueueFull = errors.New("send queue is full")
)

type Options struct {
	MaxMessageSize int64
	SendQueue      int
	WriteWait      time.Duration
	PongWait       time.Duration
	PingPong       bool
}

var DefaultOptions = Options{
	MaxMessageSize: 64 * 1024,
	SendQueue:      256,
	WriteWait:      10 * time.Second,
	PongWait:       60 * time.Second,
	PingPong:       true,
}

// CloseInfo describes how a connection ended.
type CloseInfo struct {
	Code     int
	Reason   string
	WasClean bool
}

// WS is a duplex message channel over a websocket connection.
// Reads and writes are serialized by their own goroutines,
// outgoing messages wait in a bounded queue.
type WS struct {
	id   com.Uid
	conn deadlinedConn
	opts Options

	mu     sync.Mutex
	send   chan []byte
	closed bool
	info   CloseInfo

	OnMessage func(message []byte)

	shutdown sync.WaitGroup
	Done     chan struct{}
	log      *logger.Logger
}

type Upgrader = websocket.Upgrader

var DefaultUpgrader = Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	WriteBufferPool: &sync.Pool{},
}

// NewUpgrader makes an upgrader that accepts only the listed origins.
// An empty list or "*" accepts all.
func NewUpgrader(origins ...string) *Upgrader {
	u := DefaultUpgrader
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		o = strings.ToLower(strings.TrimRight(strings.TrimSpace(o), "/"))
		if o == "*" {
			return &u
		}
		if o != "" {
			allowed[o] = struct{}{}
		}
	}
	if len(allowed) == 0 {
		return &u
	}
	u.CheckOrigin = func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := allowed[strings.ToLower(origin)]
		return ok
	}
	return &u
}

// IsUpgrade tells if the request wants to switch to the websocket protocol.
func IsUpgrade(r *http.Request) bool { return websocket.IsWebSocketUpgrade(r) }

func NewServerWithConn(conn *websocket.Conn, opts Options, log *logger.Logger) *WS {
	return newSocket(conn, opts, log)
}

func NewClient(address url.URL, opts Options, log *logger.Logger) (*WS, error) {
	conn, _, err := websocket.DefaultDialer.Dial(address.String(), nil)
	if err != nil {
		return nil, err
	}
	return newSocket(conn, opts, log), nil
}

func newSocket(conn *websocket.Conn, opts Options, log *logger.Logger) *WS {
	if log == nil {
		log = logger.Default()
	}
	if opts.SendQueue < 1 {
		opts.SendQueue = DefaultOptions.SendQueue
	}
	if opts.WriteWait <= 0 {
		opts.WriteWait = DefaultOptions.WriteWait
	}
	if opts.PongWait <= 0 {
		opts.PongWait = DefaultOptions.PongWait
	}
	id := com.NewUid()
	return &WS{
		id:   id,
		conn: deadlinedConn{sock: conn, wt: opts.WriteWait},
		opts: opts,
		send: make(chan []byte, opts.SendQueue),
		info: CloseInfo{Code: websocket.CloseAbnormalClosure},
		Done: make(chan struct{}),
		log:  log.Extend(log.With().Str("ws", id.Short())),
	}
}

// Listen starts the pumps. Done closes after both of them stop.
func (ws *WS) Listen() chan struct{} {
	ws.shutdown.Add(2)
	go ws.writer()
	go ws.reader()
	go func() {
		ws.shutdown.Wait()
		_ = ws.conn.close()
		close(ws.Done)
	}()
	return ws.Done
}

// Send puts a message into the send queue without waiting.
// It fails when the queue is full or the connection is closed.
func (ws *WS) Send(data []byte) error {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	if ws.closed {
		return ErrClosed
	}
	select {
	case ws.send <- data:
		return nil
	default:
		return ErrSendQueueFull
	}
}

// Close flushes the queue, sends the close frame and drops the connection.
func (ws *WS) Close() { ws.stop() }

// CloseInfo returns the close code, reason and whether the remote side
// closed the connection properly. Valid after Done.
func (ws *WS) CloseInfo() CloseInfo { ws.mu.Lock(); defer ws.mu.Unlock(); return ws.info }

func (ws *WS) Id() com.Uid { return ws.id }

func (ws *WS) RemoteAddr() string { return ws.conn.sock.RemoteAddr().String() }

func (ws *WS) stop() {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	if !ws.closed {
		ws.closed = true
		close(ws.send)
	}
}

// reader pumps messages from the websocket connection to the OnMessage callback.
// Blocking, must be called as goroutine. Serializes all websocket reads.
func (ws *WS) reader() {
	defer func() {
		ws.stop()
		ws.shutdown.Done()
		ws.log.Debug().Str(logger.DirectionField, "x").Msg("reader closed")
	}()
	ws.conn.setup(func(conn *websocket.Conn) {
		conn.SetReadLimit(ws.opts.MaxMessageSize)
		if ws.opts.PingPong {
			_ = conn.SetReadDeadline(time.Now().Add(ws.opts.PongWait))
			conn.SetPongHandler(func(string) error { return conn.SetReadDeadline(time.Now().Add(ws.opts.PongWait)) })
		} else {
			_ = conn.SetReadDeadline(time.Time{})
		}
	})
	for {
		message, err := ws.conn.read()
		if err != nil {
			ws.setCloseInfo(err)
			return
		}
		if ws.OnMessage != nil {
			ws.OnMessage(message)
		}
	}
}

func (ws *WS) setCloseInfo(err error) {
	var ce *websocket.CloseError
	ws.mu.Lock()
	defer ws.mu.Unlock()
	if errors.As(err, &ce) {
		ws.info = closeInfo(ce)
		ws.log.Debug().Int("code", ce.Code).Str("reason", ce.Text).Msg("closed by peer")
		return
	}
	if !ws.closed {
		ws.log.Debug().Err(err).Msg("read error")
	}
}

// closeInfo treats only normal and going-away closes as clean.
func closeInfo(ce *websocket.CloseError) CloseInfo {
	clean := ce.Code == websocket.CloseNormalClosure || ce.Code == websocket.CloseGoingAway
	return CloseInfo{Code: ce.Code, Reason: ce.Text, WasClean: clean}
}

// writer pumps messages from the send queue to the websocket connection.
// Blocking, must be called as goroutine. Serializes all websocket writes.
func (ws *WS) writer() {
	var ping <-chan time.Time
	if ws.opts.PingPong {
		ticker := time.NewTicker(ws.opts.PongWait * 9 / 10)
		defer ticker.Stop()
		ping = ticker.C
	}
	defer func() {
		ws.shutdown.Done()
		// unblocks the reader
		_ = ws.conn.close()
		ws.log.Debug().Str(logger.DirectionField, "x").Msg("writer closed")
	}()
	for {
		select {
		case message, ok := <-ws.send:
			if !ok {
				_ = ws.conn.write(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := ws.conn.write(websocket.TextMessage, message); err != nil {
				ws.log.Warn().Err(err).Msg("write error")
				ws.stop()
				return
			}
		case <-ping:
			if err := ws.conn.write(websocket.PingMessage, nil); err != nil {
				ws.log.Debug().Err(err).Msg("ping error")
				ws.stop()
				return
			}
		}
	}
}
