// Package server serves the minignet session operations over websocket
// connections. Each text message holds one protocol.Request and gets exactly
// one protocol.Response back on the same connection.
package server

import (
	"encoding/json"
	"errors"

	log "github.com/sirupsen/logrus"

	"github.com/itarato/minignetserver/pkg/metrics"
	"github.com/itarato/minignetserver/pkg/protocol"
	"github.com/itarato/minignetserver/session"
)

type Server struct {
	registry *session.Registry
}

// New will initialize a new server with required params and sane defaults.
func New(minGamers int) *Server {
	return &Server{
		registry: session.NewRegistry(minGamers),
	}
}

// Registry exposes the session table for in-process callers.
func (s *Server) Registry() *session.Registry {
	return s.registry
}

// HandleRequest decodes one request envelope from gamerID's connection,
// applies it against the registry and returns the encoded response. The
// gamer id assigned at connection time fills in for requests that omit one.
func (s *Server) HandleRequest(gamerID string, b []byte) []byte {
	req := &protocol.Request{}
	if err := json.Unmarshal(b, req); err != nil {
		log.Debugf("undecodable request from '%s': %s", gamerID, err)
		metrics.Operations.WithLabelValues("unknown", protocol.CodeBadRequest).Inc()
		return protocol.WrapError("", errors.New("undecodable request"))
	}
	if req.GamerID == "" {
		req.GamerID = gamerID
	}

	resp := s.dispatch(req)
	if resp.Status == protocol.StatusOK {
		metrics.Operations.WithLabelValues(req.Op, "ok").Inc()
	} else {
		metrics.Operations.WithLabelValues(req.Op, resp.Code).Inc()
	}
	return protocol.Wrap(resp)
}

func (s *Server) dispatch(req *protocol.Request) protocol.Response {
	log.Debugf("op '%s' session '%s' gamer '%s'", req.Op, req.SessionID, req.GamerID)
	switch req.Op {
	case protocol.OpJoinSession:
		return s.joinSession(req)
	case protocol.OpResetSession:
		return s.resetSession(req)
	case protocol.OpStartSession:
		return s.startSession(req)
	case protocol.OpEndSession:
		return s.endSession(req)
	case protocol.OpIsGamerTurn:
		return s.isGamerTurn(req)
	case protocol.OpIsGameOn:
		return s.isGameOn(req)
	case protocol.OpSendUpdate:
		return s.sendUpdate(req)
	case protocol.OpGetPreviousRoundUpdates:
		return s.getPreviousRoundUpdates(req)
	case protocol.OpSendMessage:
		return s.sendMessage(req)
	case protocol.OpFetchAllMessages:
		return s.fetchAllMessages(req)
	case protocol.OpNextGamer:
		return s.nextGamer(req)
	}
	return errorResponse(req.Op, errors.New("unknown operation"))
}

func errorResponse(op string, err error) protocol.Response {
	return protocol.Response{
		Op:     op,
		Status: protocol.StatusError,
		Code:   protocol.CodeFromErr(err),
		Error:  err.Error(),
	}
}

func okResponse(op string) protocol.Response {
	return protocol.Response{
		Op:     op,
		Status: protocol.StatusOK,
	}
}
