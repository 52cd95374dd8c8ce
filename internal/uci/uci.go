// Package uci implements a UCI-style text protocol over the rules engine.
// It keeps the position set-up commands of UCI and replaces searching with
// rules queries: legal moves, SAN, perft and divide.
package uci

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-logr/logr"

	"github.com/hailam/chessrules/internal/board"
	"github.com/hailam/chessrules/internal/game"
	"github.com/hailam/chessrules/internal/perft"
)

// UCI reads commands line by line and writes replies.
type UCI struct {
	in  io.Reader
	out io.Writer
	log logr.Logger

	// game holds the position history for repetition detection.
	game *game.Game
}

// New creates a protocol handler reading from in and replying to out.
func New(in io.Reader, out io.Writer, log logr.Logger) *UCI {
	return &UCI{
		in:   in,
		out:  out,
		log:  log,
		game: game.NewStandard(),
	}
}

// Position returns the current position.
func (u *UCI) Position() *board.Position {
	return u.game.Position()
}

// Run processes commands until quit or end of input.
func (u *UCI) Run() error {
	scanner := bufio.NewScanner(u.in)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "uci":
			u.handleUCI()
		case "isready":
			u.println("readyok")
		case "ucinewgame":
			u.game = game.NewStandard()
		case "position":
			u.handlePosition(args)
		case "move":
			u.handleMove(args)
		case "legal":
			u.handleLegal(false)
		case "san":
			u.handleLegal(true)
		case "fen":
			u.println(u.Position().FEN())
		case "d":
			u.handleDisplay()
		case "perft":
			u.handlePerft(args)
		case "divide":
			u.handleDivide(args)
		case "quit":
			return nil
		default:
			u.println("info string unknown command " + cmd)
		}
	}
	return scanner.Err()
}

func (u *UCI) println(s string) {
	fmt.Fprintln(u.out, s)
}

func (u *UCI) handleUCI() {
	u.println("id name chessrules")
	u.println("id author chessrules")
	u.println("uciok")
}

// handlePosition parses and sets up a position.
// Formats:
//   - position startpos
//   - position startpos moves e2e4 e7e5
//   - position fen <fen>
//   - position fen <fen> moves e2e4
//
// Moves may be coordinate text or SAN. On error the previous position is
// kept.
func (u *UCI) handlePosition(args []string) {
	if len(args) == 0 {
		return
	}

	fenEnd, moveStart := len(args), len(args)
	for i, arg := range args {
		if arg == "moves" {
			fenEnd, moveStart = i, i+1
			break
		}
	}

	var g *game.Game
	switch args[0] {
	case "startpos":
		g = game.NewStandard()
	case "fen":
		var err error
		g, err = game.NewFromFEN(strings.Join(args[1:fenEnd], " "))
		if err != nil {
			u.println("info string " + err.Error())
			return
		}
	default:
		u.println("info string expected startpos or fen")
		return
	}

	if moveStart < len(args) {
		if err := g.PlayMoves(args[moveStart:]...); err != nil {
			u.println("info string " + err.Error())
			return
		}
	}
	u.game = g
}

// handleMove plays moves on top of the current position.
func (u *UCI) handleMove(args []string) {
	for _, s := range args {
		if err := u.game.PlayMoves(s); err != nil {
			u.println("info string " + err.Error())
			return
		}
	}
	if result, method := u.game.Outcome(); method != game.NoMethod {
		u.println(fmt.Sprintf("info string %s by %s", result, method))
	}
}

func (u *UCI) handleLegal(san bool) {
	var moves []string
	if san {
		moves = u.game.LegalMovesSAN()
	} else {
		for _, m := range u.game.LegalMoves() {
			moves = append(moves, m.String())
		}
	}
	sort.Strings(moves)
	u.println(strings.Join(moves, " "))
}

func (u *UCI) handleDisplay() {
	pos := u.Position()
	fmt.Fprint(u.out, pos.String())
	fmt.Fprintf(u.out, "Key: %016x\n", pos.Key())
	if pos.IsCheck() {
		u.println("Check")
	}
	if sans := u.game.MovesSAN(); len(sans) > 0 {
		u.println("Moves: " + strings.Join(sans, " "))
	}
	result, method := u.game.Outcome()
	u.println(fmt.Sprintf("Result: %s (%s)", result, method))
}

func parseDepth(args []string, def int) (int, error) {
	if len(args) == 0 {
		return def, nil
	}
	depth, err := strconv.Atoi(args[0])
	if err != nil || depth < 0 {
		return 0, fmt.Errorf("bad depth %q", args[0])
	}
	return depth, nil
}

// handlePerft runs a perft test.
func (u *UCI) handlePerft(args []string) {
	depth, err := parseDepth(args, 5)
	if err != nil {
		u.println("info string " + err.Error())
		return
	}

	start := time.Now()
	nodes := perft.Count(u.Position(), depth)
	elapsed := time.Since(start)

	u.println(fmt.Sprintf("Nodes: %d", nodes))
	u.println(fmt.Sprintf("Time: %v", elapsed.Round(time.Millisecond)))
	if elapsed > 0 {
		nps := float64(nodes) / elapsed.Seconds()
		u.println("NPS: " + humanize.Comma(int64(nps)))
	}
	u.log.V(1).Info("perft", "depth", depth, "nodes", nodes, "elapsed", elapsed.String())
}

// handleDivide prints the node count below each root move.
func (u *UCI) handleDivide(args []string) {
	depth, err := parseDepth(args, 1)
	if err != nil || depth < 1 {
		u.println("info string depth must be at least 1")
		return
	}
	entries := perft.Divide(u.Position(), depth)
	for _, e := range entries {
		u.println(fmt.Sprintf("%s: %d", e.Move, e.Nodes))
	}
	u.println(fmt.Sprintf("Nodes: %d", perft.Total(entries)))
}
