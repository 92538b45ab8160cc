package server

import (
	log "github.com/sirupsen/logrus"

	"github.com/itarato/minignetserver/pkg/metrics"
	"github.com/itarato/minignetserver/pkg/protocol"
)

func (s *Server) joinSession(req *protocol.Request) protocol.Response {
	sess, created := s.registry.GetOrCreate(req.SessionID)
	if created {
		metrics.SessionsCreated.Inc()
		log.Debugf("session '%s' created", sess.ID())
	}
	gamers, err := sess.Join(req.GamerID)
	if err != nil {
		return errorResponse(req.Op, err)
	}
	resp := okResponse(req.Op)
	resp.SessionID = sess.ID()
	resp.Gamers = gamers
	return resp
}

func (s *Server) resetSession(req *protocol.Request) protocol.Response {
	sess, err := s.registry.Get(req.SessionID)
	if err != nil {
		return errorResponse(req.Op, err)
	}
	sess.Reset()
	return okResponse(req.Op)
}

func (s *Server) startSession(req *protocol.Request) protocol.Response {
	sess, err := s.registry.Get(req.SessionID)
	if err != nil {
		return errorResponse(req.Op, err)
	}
	if err := sess.Start(); err != nil {
		return errorResponse(req.Op, err)
	}
	return okResponse(req.Op)
}

func (s *Server) endSession(req *protocol.Request) protocol.Response {
	sess, err := s.registry.Get(req.SessionID)
	if err != nil {
		return errorResponse(req.Op, err)
	}
	if err := sess.End(); err != nil {
		return errorResponse(req.Op, err)
	}
	return okResponse(req.Op)
}

func (s *Server) isGamerTurn(req *protocol.Request) protocol.Response {
	sess, err := s.registry.Get(req.SessionID)
	if err != nil {
		return errorResponse(req.Op, err)
	}
	answer := sess.IsGamerTurn(req.GamerID)
	resp := okResponse(req.Op)
	resp.Answer = &answer
	return resp
}

func (s *Server) isGameOn(req *protocol.Request) protocol.Response {
	sess, err := s.registry.Get(req.SessionID)
	if err != nil {
		return errorResponse(req.Op, err)
	}
	answer := sess.IsGameOn()
	resp := okResponse(req.Op)
	resp.Answer = &answer
	return resp
}

func (s *Server) sendUpdate(req *protocol.Request) protocol.Response {
	sess, err := s.registry.Get(req.SessionID)
	if err != nil {
		return errorResponse(req.Op, err)
	}
	if _, err := sess.SubmitUpdate(req.GamerID, req.Payload); err != nil {
		return errorResponse(req.Op, err)
	}
	metrics.UpdatesRecorded.Inc()
	return okResponse(req.Op)
}

func (s *Server) getPreviousRoundUpdates(req *protocol.Request) protocol.Response {
	sess, err := s.registry.Get(req.SessionID)
	if err != nil {
		return errorResponse(req.Op, err)
	}
	resp := okResponse(req.Op)
	if req.Round != nil {
		resp.Updates = sess.RoundUpdates(*req.Round)
	} else {
		resp.Updates = sess.PreviousRoundUpdates()
	}
	return resp
}

func (s *Server) sendMessage(req *protocol.Request) protocol.Response {
	sess, err := s.registry.Get(req.SessionID)
	if err != nil {
		return errorResponse(req.Op, err)
	}
	if _, err := sess.PostMessage(req.GamerID, req.To, req.Payload); err != nil {
		return errorResponse(req.Op, err)
	}
	metrics.MessagesPosted.Inc()
	return okResponse(req.Op)
}

func (s *Server) fetchAllMessages(req *protocol.Request) protocol.Response {
	sess, err := s.registry.Get(req.SessionID)
	if err != nil {
		return errorResponse(req.Op, err)
	}
	resp := okResponse(req.Op)
	resp.Messages = sess.AllMessages()
	return resp
}

func (s *Server) nextGamer(req *protocol.Request) protocol.Response {
	sess, err := s.registry.Get(req.SessionID)
	if err != nil {
		return errorResponse(req.Op, err)
	}
	if err := sess.NextGamer(); err != nil {
		return errorResponse(req.Op, err)
	}
	return okResponse(req.Op)
}
