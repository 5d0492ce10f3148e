package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/vchern/peerline/internal/app"
	"github.com/vchern/peerline/internal/config"
	"github.com/vchern/peerline/internal/core"
)

var ErrBackpressure = errors.New("backpressure")

// Controller owns the WebSocket endpoint: it upgrades connections,
// parses inbound signaling and hands everything to the relay.
type Controller struct {
	Relay      *app.Relay
	readLimit  int64
	pingPeriod time.Duration
	sendBuffer int
}

func NewController(relay *app.Relay, cfg *config.Config) *Controller {
	ctl := &Controller{
		Relay:      relay,
		readLimit:  cfg.ReadLimit,
		pingPeriod: cfg.PingPeriod,
		sendBuffer: cfg.SendBuffer,
	}
	if ctl.pingPeriod <= 0 {
		ctl.pingPeriod = 54 * time.Second
	}
	if ctl.sendBuffer <= 0 {
		ctl.sendBuffer = 32
	}
	return ctl
}

// WsSignalConn is the relay-facing view of one WebSocket: a buffered
// send queue drained by the write pump. TrySend never blocks.
type WsSignalConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *WsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *WsSignalConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (ctl *Controller) HandleSignal(ctx context.Context, c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}
	ws.SetReadLimit(ctl.readLimit)

	conn := &WsSignalConn{
		conn: ws,
		send: make(chan core.Frame, ctl.sendBuffer),
	}

	id := ctl.Relay.Connect(conn)
	log.Info().Str("module", "signal").Str("peer", string(id)).Msg("new WS connection")

	ctx, cancel := context.WithCancel(ctx)
	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, cancel, id, conn)
}
