package server

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/itarato/minignetserver/pkg/metrics"
	"github.com/itarato/minignetserver/pkg/protocol"
)

// Websocket connection parameters
const (
	pongWait       = 60 * time.Second
	pingPeriod     = 25 * time.Second
	writeWait      = 10 * time.Second
	maxMessageSize = 4096

	// Per-connection request rate limit
	requestsPerSecond = 20
	requestBurst      = 40
)

// conn wraps one gamer connection. Responses and pings share the websocket
// writer, so writes go through a mutex.
type conn struct {
	gamerID  string
	ws       *websocket.Conn
	writeMtx sync.Mutex
	limiter  *rate.Limiter
	done     chan struct{}
}

// ServeConn pumps requests from a single gamer connection until the peer
// goes away. It blocks, callers run it per upgraded websocket.
func (s *Server) ServeConn(ws *websocket.Conn, gamerID string) {
	c := &conn{
		gamerID: gamerID,
		ws:      ws,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), requestBurst),
		done:    make(chan struct{}),
	}
	metrics.ActiveConnections.Inc()
	defer metrics.ActiveConnections.Dec()

	ws.SetReadLimit(maxMessageSize)
	if err := ws.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		log.Error(err)
		return
	}
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	go c.pingHandler()
	defer close(c.done)
	defer ws.Close()

	log.Debugf("serving connection for '%s'", gamerID)
	for {
		_, msg, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Error(err)
			}
			return
		}
		var resp []byte
		if !c.limiter.Allow() {
			metrics.RateLimitHits.Inc()
			resp = protocol.Wrap(protocol.Response{
				Status: protocol.StatusError,
				Code:   protocol.CodeRateLimited,
				Error:  "too many requests",
			})
		} else {
			resp = s.HandleRequest(gamerID, msg)
		}
		if err := c.write(websocket.TextMessage, resp); err != nil {
			log.Error(err)
			return
		}
	}
}

func (c *conn) write(messageType int, b []byte) error {
	c.writeMtx.Lock()
	defer c.writeMtx.Unlock()
	c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteMessage(messageType, b)
}

// pingHandler keeps the client informed the server is still alive.
func (c *conn) pingHandler() {
	log.Debugf("started pingHandler for '%s'", c.gamerID)
	defer log.Debugf("stopped pingHandler for '%s'", c.gamerID)
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				// Assume the client disconnected, the read pump will notice too.
				return
			}
		case <-c.done:
			return
		}
	}
}
