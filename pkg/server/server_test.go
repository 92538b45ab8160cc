package server

import (
	"encoding/json"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/itarato/minignetserver/pkg/protocol"
)

func call(s *Server, gamerID string, req protocol.Request) protocol.Response {
	b, err := json.Marshal(req)
	if err != nil {
		panic(err)
	}
	resp := protocol.Response{}
	if err := json.Unmarshal(s.HandleRequest(gamerID, b), &resp); err != nil {
		panic(err)
	}
	return resp
}

func TestServerDispatch(t *testing.T) {
	Convey("HandleRequest", t, func() {
		s := New(2)

		Convey("rejects undecodable requests", func() {
			resp := protocol.Response{}
			err := json.Unmarshal(s.HandleRequest("alice", []byte("{not json")), &resp)
			So(err, ShouldBeNil)
			So(resp.Status, ShouldEqual, protocol.StatusError)
			So(resp.Code, ShouldEqual, protocol.CodeBadRequest)
		})

		Convey("rejects unknown operations", func() {
			resp := call(s, "alice", protocol.Request{Op: "TELEPORT", SessionID: "s1"})
			So(resp.Status, ShouldEqual, protocol.StatusError)
			So(resp.Code, ShouldEqual, protocol.CodeBadRequest)
		})

		Convey("JOIN_SESSION creates the session and reports the rotation", func() {
			resp := call(s, "alice", protocol.Request{Op: protocol.OpJoinSession, SessionID: "s1"})
			So(resp.Status, ShouldEqual, protocol.StatusOK)
			So(resp.SessionID, ShouldEqual, "s1")
			So(resp.Gamers, ShouldResemble, []string{"alice"})

			Convey("and allocates an id when the caller has none", func() {
				resp := call(s, "bob", protocol.Request{Op: protocol.OpJoinSession})
				So(resp.Status, ShouldEqual, protocol.StatusOK)
				So(resp.SessionID, ShouldNotBeEmpty)
				So(resp.SessionID, ShouldNotEqual, "s1")
			})

			Convey("and falls back to the connection's gamer id", func() {
				resp := call(s, "cookie-carol", protocol.Request{Op: protocol.OpJoinSession, SessionID: "s1"})
				So(resp.Gamers, ShouldResemble, []string{"alice", "cookie-carol"})
			})

			Convey("and rejects a duplicate join", func() {
				resp := call(s, "alice", protocol.Request{Op: protocol.OpJoinSession, SessionID: "s1"})
				So(resp.Status, ShouldEqual, protocol.StatusError)
				So(resp.Code, ShouldEqual, protocol.CodeDuplicatePlayer)
			})
		})

		Convey("operations against a missing session report UNKNOWN_SESSION", func() {
			for _, op := range []string{
				protocol.OpResetSession,
				protocol.OpStartSession,
				protocol.OpEndSession,
				protocol.OpIsGamerTurn,
				protocol.OpIsGameOn,
				protocol.OpSendUpdate,
				protocol.OpGetPreviousRoundUpdates,
				protocol.OpSendMessage,
				protocol.OpFetchAllMessages,
				protocol.OpNextGamer,
			} {
				resp := call(s, "alice", protocol.Request{Op: op, SessionID: "missing"})
				So(resp.Status, ShouldEqual, protocol.StatusError)
				So(resp.Code, ShouldEqual, protocol.CodeUnknownSession)
			}
		})

		Convey("a full two-gamer game over the wire", func() {
			call(s, "alice", protocol.Request{Op: protocol.OpJoinSession, SessionID: "s1"})
			call(s, "bob", protocol.Request{Op: protocol.OpJoinSession, SessionID: "s1"})

			resp := call(s, "alice", protocol.Request{Op: protocol.OpStartSession, SessionID: "s1"})
			So(resp.Status, ShouldEqual, protocol.StatusOK)

			resp = call(s, "alice", protocol.Request{Op: protocol.OpIsGameOn, SessionID: "s1"})
			So(*resp.Answer, ShouldBeTrue)
			resp = call(s, "alice", protocol.Request{Op: protocol.OpIsGamerTurn, SessionID: "s1"})
			So(*resp.Answer, ShouldBeTrue)
			resp = call(s, "bob", protocol.Request{Op: protocol.OpIsGamerTurn, SessionID: "s1"})
			So(*resp.Answer, ShouldBeFalse)

			resp = call(s, "bob", protocol.Request{Op: protocol.OpSendUpdate, SessionID: "s1", Payload: []byte("nope")})
			So(resp.Code, ShouldEqual, protocol.CodeNotYourTurn)

			resp = call(s, "alice", protocol.Request{Op: protocol.OpSendUpdate, SessionID: "s1", Payload: []byte("x")})
			So(resp.Status, ShouldEqual, protocol.StatusOK)
			resp = call(s, "bob", protocol.Request{Op: protocol.OpSendUpdate, SessionID: "s1", Payload: []byte("y")})
			So(resp.Status, ShouldEqual, protocol.StatusOK)

			Convey("previous round updates default to the completed round", func() {
				resp := call(s, "alice", protocol.Request{Op: protocol.OpGetPreviousRoundUpdates, SessionID: "s1"})
				So(resp.Status, ShouldEqual, protocol.StatusOK)
				So(resp.Updates, ShouldHaveLength, 2)
				So(resp.Updates[0].GamerID, ShouldEqual, "alice")
				So(resp.Updates[1].GamerID, ShouldEqual, "bob")
			})

			Convey("an explicit round selects that round", func() {
				round := 1
				resp := call(s, "alice", protocol.Request{Op: protocol.OpGetPreviousRoundUpdates, SessionID: "s1", Round: &round})
				So(resp.Status, ShouldEqual, protocol.StatusOK)
				So(resp.Updates, ShouldBeEmpty)
			})

			Convey("NEXT_GAMER advances without recording", func() {
				resp := call(s, "alice", protocol.Request{Op: protocol.OpNextGamer, SessionID: "s1"})
				So(resp.Status, ShouldEqual, protocol.StatusOK)
				resp = call(s, "bob", protocol.Request{Op: protocol.OpIsGamerTurn, SessionID: "s1"})
				So(*resp.Answer, ShouldBeTrue)
			})

			Convey("messages flow while the game is on and survive ending", func() {
				resp := call(s, "alice", protocol.Request{Op: protocol.OpSendMessage, SessionID: "s1", Payload: []byte("gg")})
				So(resp.Status, ShouldEqual, protocol.StatusOK)

				resp = call(s, "alice", protocol.Request{Op: protocol.OpEndSession, SessionID: "s1"})
				So(resp.Status, ShouldEqual, protocol.StatusOK)

				resp = call(s, "bob", protocol.Request{Op: protocol.OpSendMessage, SessionID: "s1", Payload: []byte("rematch?")})
				So(resp.Code, ShouldEqual, protocol.CodeInvalidPhase)

				resp = call(s, "bob", protocol.Request{Op: protocol.OpFetchAllMessages, SessionID: "s1"})
				So(resp.Status, ShouldEqual, protocol.StatusOK)
				So(resp.Messages, ShouldHaveLength, 1)
				So(resp.Messages[0].From, ShouldEqual, "alice")
			})

			Convey("RESET_SESSION empties everything", func() {
				call(s, "alice", protocol.Request{Op: protocol.OpResetSession, SessionID: "s1"})
				resp := call(s, "alice", protocol.Request{Op: protocol.OpFetchAllMessages, SessionID: "s1"})
				So(resp.Messages, ShouldBeEmpty)
				resp = call(s, "alice", protocol.Request{Op: protocol.OpGetPreviousRoundUpdates, SessionID: "s1"})
				So(resp.Updates, ShouldBeEmpty)
				resp = call(s, "alice", protocol.Request{Op: protocol.OpIsGameOn, SessionID: "s1"})
				So(*resp.Answer, ShouldBeFalse)
			})
		})

		Convey("START_SESSION without enough gamers reports INSUFFICIENT_PLAYERS", func() {
			call(s, "alice", protocol.Request{Op: protocol.OpJoinSession, SessionID: "s1"})
			resp := call(s, "alice", protocol.Request{Op: protocol.OpStartSession, SessionID: "s1"})
			So(resp.Code, ShouldEqual, protocol.CodeInsufficientPlayers)
		})
	})
}
