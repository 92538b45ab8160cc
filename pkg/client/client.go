// Package client provides a Go client for the minignet session protocol.
// A Client is bound to one server, one session and one gamer identity, the
// way game clients use the service.
package client

import (
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/itarato/minignetserver/pkg/protocol"
	"github.com/itarato/minignetserver/session"
)

const dialTimeout = 10 * time.Second

// Client talks to a minignet server over a single websocket connection.
// Requests are strictly request/response, one in flight at a time; the
// client serializes callers itself so it is safe for concurrent use.
type Client struct {
	URL       string
	SessionID string
	GamerID   string

	mtx  sync.Mutex
	conn *websocket.Conn
}

// New creates a client for the given websocket URL (ws://host:port/ws),
// session and gamer. The connection is dialed lazily on the first call.
func New(url, sessionID, gamerID string) *Client {
	return &Client{
		URL:       url,
		SessionID: sessionID,
		GamerID:   gamerID,
	}
}

// Close shuts the underlying connection down.
func (c *Client) Close() error {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

func (c *Client) do(req protocol.Request) (*protocol.Response, error) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	if c.conn == nil {
		dialer := websocket.Dialer{HandshakeTimeout: dialTimeout}
		conn, _, err := dialer.Dial(c.URL, nil)
		if err != nil {
			return nil, fmt.Errorf("dialing '%s': %w", c.URL, err)
		}
		c.conn = conn
	}

	if err := c.conn.WriteJSON(&req); err != nil {
		c.conn.Close()
		c.conn = nil
		return nil, fmt.Errorf("sending '%s': %w", req.Op, err)
	}
	resp := &protocol.Response{}
	if err := c.conn.ReadJSON(resp); err != nil {
		c.conn.Close()
		c.conn = nil
		return nil, fmt.Errorf("reading '%s' response: %w", req.Op, err)
	}
	if resp.Status != protocol.StatusOK {
		if err := protocol.ErrFromCode(resp.Code); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("server rejected '%s': %s", req.Op, resp.Error)
	}
	return resp, nil
}

// JoinSession adds the client's gamer to the session and returns the
// rotation in join order. When the client was created without a session id
// the server-allocated id is captured for the follow-up calls.
func (c *Client) JoinSession() ([]string, error) {
	resp, err := c.do(protocol.Request{
		Op:        protocol.OpJoinSession,
		SessionID: c.SessionID,
		GamerID:   c.GamerID,
	})
	if err != nil {
		return nil, err
	}
	if c.SessionID == "" {
		c.SessionID = resp.SessionID
	}
	return resp.Gamers, nil
}

// ResetSession clears the session back to its joinable state.
func (c *Client) ResetSession() error {
	_, err := c.do(protocol.Request{Op: protocol.OpResetSession, SessionID: c.SessionID})
	return err
}

// StartSession activates the session.
func (c *Client) StartSession() error {
	_, err := c.do(protocol.Request{Op: protocol.OpStartSession, SessionID: c.SessionID})
	return err
}

// EndSession moves the session to its terminal state.
func (c *Client) EndSession() error {
	_, err := c.do(protocol.Request{Op: protocol.OpEndSession, SessionID: c.SessionID})
	return err
}

// IsGamerTurn reports whether it is this client's turn.
func (c *Client) IsGamerTurn() (bool, error) {
	resp, err := c.do(protocol.Request{
		Op:        protocol.OpIsGamerTurn,
		SessionID: c.SessionID,
		GamerID:   c.GamerID,
	})
	if err != nil {
		return false, err
	}
	return resp.Answer != nil && *resp.Answer, nil
}

// IsGameOn reports whether the session is active.
func (c *Client) IsGameOn() (bool, error) {
	resp, err := c.do(protocol.Request{Op: protocol.OpIsGameOn, SessionID: c.SessionID})
	if err != nil {
		return false, err
	}
	return resp.Answer != nil && *resp.Answer, nil
}

// SendUpdate records a round update and passes the turn.
func (c *Client) SendUpdate(payload []byte) error {
	_, err := c.do(protocol.Request{
		Op:        protocol.OpSendUpdate,
		SessionID: c.SessionID,
		GamerID:   c.GamerID,
		Payload:   payload,
	})
	return err
}

// PreviousRoundUpdates returns the updates of the most recently completed
// round.
func (c *Client) PreviousRoundUpdates() ([]session.RoundUpdate, error) {
	resp, err := c.do(protocol.Request{
		Op:        protocol.OpGetPreviousRoundUpdates,
		SessionID: c.SessionID,
	})
	if err != nil {
		return nil, err
	}
	return resp.Updates, nil
}

// RoundUpdates returns the updates recorded for a specific round.
func (c *Client) RoundUpdates(round int) ([]session.RoundUpdate, error) {
	resp, err := c.do(protocol.Request{
		Op:        protocol.OpGetPreviousRoundUpdates,
		SessionID: c.SessionID,
		Round:     &round,
	})
	if err != nil {
		return nil, err
	}
	return resp.Updates, nil
}

// SendMessage posts a message to the session. An empty to addresses
// everyone.
func (c *Client) SendMessage(to string, payload []byte) error {
	_, err := c.do(protocol.Request{
		Op:        protocol.OpSendMessage,
		SessionID: c.SessionID,
		GamerID:   c.GamerID,
		To:        to,
		Payload:   payload,
	})
	return err
}

// FetchAllMessages returns the session's full ordered message log.
func (c *Client) FetchAllMessages() ([]session.Message, error) {
	resp, err := c.do(protocol.Request{
		Op:        protocol.OpFetchAllMessages,
		SessionID: c.SessionID,
	})
	if err != nil {
		return nil, err
	}
	return resp.Messages, nil
}

// NextGamer passes the turn without recording an update.
func (c *Client) NextGamer() error {
	_, err := c.do(protocol.Request{Op: protocol.OpNextGamer, SessionID: c.SessionID})
	return err
}
