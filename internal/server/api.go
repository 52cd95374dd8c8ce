package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gorilla/mux"

	"github.com/hailam/chessrules/internal/board"
	"github.com/hailam/chessrules/internal/game"
	"github.com/hailam/chessrules/internal/perft"
	"github.com/hailam/chessrules/internal/storage"
)

// PositionState describes a position for clients.
type PositionState struct {
	FEN            string   `json:"fen"`
	SideToMove     string   `json:"side_to_move"`
	Castling       string   `json:"castling"`
	EnPassant      string   `json:"en_passant,omitempty"`
	HalfMoveClock  int      `json:"half_move_clock"`
	FullMoveNumber int      `json:"full_move_number"`
	Check          bool     `json:"check"`
	Checkmate      bool     `json:"checkmate"`
	Stalemate      bool     `json:"stalemate"`
	FiftyMoveRule  bool     `json:"fifty_move_rule"`
	LegalMoves     []string `json:"legal_moves"`
	LegalSAN       []string `json:"legal_san"`
}

func newPositionState(pos *board.Position) PositionState {
	moves := pos.LegalMoves()
	st := PositionState{
		FEN:            pos.FEN(),
		SideToMove:     pos.SideToMove().String(),
		Castling:       pos.CastlingRights().String(),
		HalfMoveClock:  pos.HalfMoveClock(),
		FullMoveNumber: pos.FullMoveNumber(),
		Check:          pos.IsCheck(),
		Checkmate:      pos.IsCheckmate(),
		Stalemate:      pos.IsStalemate(),
		FiftyMoveRule:  pos.IsFiftyMoveRule(),
		LegalMoves:     make([]string, len(moves)),
		LegalSAN:       make([]string, len(moves)),
	}
	if ep := pos.EnPassantSquare(); ep != board.NoSquare {
		st.EnPassant = ep.String()
	}
	for i, m := range moves {
		st.LegalMoves[i] = m.String()
		st.LegalSAN[i], _ = pos.SAN(m)
	}
	return st
}

// parseFENParam treats a missing FEN as the starting position.
func parseFENParam(fen string) (*board.Position, error) {
	if fen == "" || fen == "startpos" {
		return board.StartingPosition(), nil
	}
	return board.ParseFEN(fen)
}

func (s *Server) handlePosition(w http.ResponseWriter, r *http.Request) {
	pos, err := parseFENParam(r.URL.Query().Get("fen"))
	if err != nil {
		writeError(w, err)
		return
	}

	key := "position:" + pos.FEN()
	if body, ok := s.cache.Get(key); ok {
		writeBody(w, http.StatusOK, body)
		return
	}
	s.respondCached(w, key, newPositionState(pos))
}

// respondCached encodes v, remembers the encoding under key and writes it.
func (s *Server) respondCached(w http.ResponseWriter, key string, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		writeError(w, err)
		return
	}
	s.cache.Set(key, body, int64(len(body)))
	writeBody(w, http.StatusOK, body)
}

type applyRequest struct {
	FEN  string `json:"fen"`
	Move string `json:"move"`
}

type applyResponse struct {
	Move     string        `json:"move"`
	SAN      string        `json:"san"`
	Position PositionState `json:"position"`
}

func (s *Server) handleApply(w http.ResponseWriter, r *http.Request) {
	var req applyRequest
	if !decodeBody(w, r, &req) {
		return
	}
	pos, err := parseFENParam(req.FEN)
	if err != nil {
		writeError(w, err)
		return
	}
	g := game.New(pos)
	if err := g.PlayMoves(req.Move); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, applyResponse{
		Move:     g.Moves()[0].String(),
		SAN:      g.MovesSAN()[0],
		Position: newPositionState(g.Position()),
	})
}

type perftResponse struct {
	FEN     string `json:"fen"`
	Depth   int    `json:"depth"`
	Nodes   uint64 `json:"nodes"`
	Source  string `json:"source"` // cache, store or computed
	Elapsed string `json:"elapsed,omitempty"`
}

func (s *Server) handlePerft(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	pos, err := parseFENParam(q.Get("fen"))
	if err != nil {
		writeError(w, err)
		return
	}
	depth, err := strconv.Atoi(q.Get("depth"))
	if err != nil || depth < 0 || depth > s.cfg.MaxPerftDepth {
		writeBadRequest(w, fmt.Sprintf("depth must be an integer in 0..%d", s.cfg.MaxPerftDepth))
		return
	}

	resp, err := s.perft(r.Context(), pos, depth)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// perft looks in the memory cache, then the store, and computes the count
// only when both miss.
func (s *Server) perft(ctx context.Context, pos *board.Position, depth int) (*perftResponse, error) {
	fen := pos.FEN()
	key := "perft:" + strconv.Itoa(depth) + ":" + fen
	resp := &perftResponse{FEN: fen, Depth: depth}

	if body, ok := s.cache.Get(key); ok {
		nodes, err := strconv.ParseUint(string(body), 10, 64)
		if err == nil {
			resp.Nodes, resp.Source = nodes, "cache"
			return resp, nil
		}
	}
	remember := func(nodes uint64) {
		v := []byte(strconv.FormatUint(nodes, 10))
		s.cache.Set(key, v, int64(len(v)))
	}

	if s.store != nil {
		nodes, err := s.store.GetPerft(fen, depth)
		switch {
		case err == nil:
			remember(nodes)
			resp.Nodes, resp.Source = nodes, "store"
			return resp, nil
		case !errors.Is(err, storage.ErrNotFound):
			s.log.Error(err, "perft lookup failed", "fen", fen, "depth", depth)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.PerftTimeout)
	defer cancel()
	start := time.Now()
	nodes, err := perft.Parallel(ctx, pos, depth, s.cfg.PerftWorkers)
	if err != nil {
		return nil, err
	}
	elapsed := time.Since(start)
	s.log.V(1).Info("perft computed", "fen", fen, "depth", depth,
		"nodes", humanize.Comma(int64(nodes)), "elapsed", elapsed.String())

	remember(nodes)
	if s.store != nil {
		if err := s.store.PutPerft(fen, depth, nodes); err != nil {
			s.log.Error(err, "perft store failed", "fen", fen, "depth", depth)
		}
	}
	resp.Nodes, resp.Source, resp.Elapsed = nodes, "computed", elapsed.String()
	return resp, nil
}

type createGameRequest struct {
	FEN   string   `json:"fen"`
	Moves []string `json:"moves"`
	White string   `json:"white"`
	Black string   `json:"black"`
}

func (s *Server) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "no store configured", Kind: "unavailable"})
		return
	}
	var req createGameRequest
	if !decodeBody(w, r, &req) {
		return
	}
	pos, err := parseFENParam(req.FEN)
	if err != nil {
		writeError(w, err)
		return
	}
	g := game.New(pos)
	if err := g.PlayMoves(req.Moves...); err != nil {
		writeError(w, err)
		return
	}
	if req.White != "" {
		g.SetWhitePlayer(req.White)
	}
	if req.Black != "" {
		g.SetBlackPlayer(req.Black)
	}

	rec := storage.RecordFromGame(g)
	if _, err := s.store.SaveGame(rec); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "no store configured", Kind: "unavailable"})
		return
	}
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeBadRequest(w, "bad game id")
		return
	}
	rec, err := s.store.LoadGame(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}
