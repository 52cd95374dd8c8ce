package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/hailam/chessrules/internal/game"
	"github.com/hailam/chessrules/internal/storage"
)

// Websocket messages from the client:
//
//	{"type":"new","fen":"..."}   start a game, empty fen for the initial position
//	{"type":"move","move":"e4"}  play a move in coordinate text or SAN
//	{"type":"state"}             resend the current state
//	{"type":"save"}              archive the game
//
// Every message is answered with a "state", "saved" or "error" message.
type wsRequest struct {
	Type string `json:"type"`
	FEN  string `json:"fen,omitempty"`
	Move string `json:"move,omitempty"`
}

type wsReply struct {
	Type     string         `json:"type"`
	Position *PositionState `json:"position,omitempty"`
	Moves    []string       `json:"moves,omitempty"`
	Result   string         `json:"result,omitempty"`
	Method   string         `json:"method,omitempty"`
	ID       uint64         `json:"id,omitempty"`
	Error    string         `json:"error,omitempty"`
	Kind     string         `json:"kind,omitempty"`
}

const wsReadTimeout = 10 * time.Minute

func stateReply(g *game.Game) wsReply {
	st := newPositionState(g.Position())
	result, method := g.Outcome()
	return wsReply{
		Type:     "state",
		Position: &st,
		Moves:    g.MovesSAN(),
		Result:   result.String(),
		Method:   method.String(),
	}
}

func errorReply(err error) wsReply {
	kind, _ := errorKind(err)
	return wsReply{Type: "error", Error: err.Error(), Kind: kind}
}

// handleWebsocket runs one game session per connection.
func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error(err, "websocket upgrade failed")
		return
	}
	defer conn.Close()

	log := s.log.WithValues("remote", conn.RemoteAddr().String())
	log.V(1).Info("websocket session started")

	g := game.NewStandard()
	if err := conn.WriteJSON(stateReply(g)); err != nil {
		return
	}

	for {
		conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
		var req wsRequest
		if err := conn.ReadJSON(&req); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.V(1).Info("websocket read failed", "err", err.Error())
			}
			return
		}

		var reply wsReply
		switch req.Type {
		case "new":
			if ng, err := newSessionGame(req.FEN); err != nil {
				reply = errorReply(err)
			} else {
				g = ng
				reply = stateReply(g)
			}
		case "move":
			if err := g.PlayMoves(req.Move); err != nil {
				reply = errorReply(err)
			} else {
				reply = stateReply(g)
			}
		case "state":
			reply = stateReply(g)
		case "save":
			reply = s.saveSession(g)
		default:
			reply = wsReply{Type: "error", Error: "unknown message type " + req.Type, Kind: "bad_request"}
		}

		if err := conn.WriteJSON(reply); err != nil {
			log.V(1).Info("websocket write failed", "err", err.Error())
			return
		}
	}
}

func newSessionGame(fen string) (*game.Game, error) {
	pos, err := parseFENParam(fen)
	if err != nil {
		return nil, err
	}
	return game.New(pos), nil
}

func (s *Server) saveSession(g *game.Game) wsReply {
	if s.store == nil {
		return errorReply(errors.New("no store configured"))
	}
	id, err := s.store.SaveGame(storage.RecordFromGame(g))
	if err != nil {
		return errorReply(err)
	}
	return wsReply{Type: "saved", ID: id}
}
