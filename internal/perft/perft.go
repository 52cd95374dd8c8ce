// Package perft counts the leaf nodes of the legal move tree, the standard
// way to check a move generator against published numbers.
package perft

import (
	"context"
	"runtime"
	"sort"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/hailam/chessrules/internal/board"
)

// Count returns the number of move sequences of exactly depth plies.
// Depth 0 counts the position itself.
func Count(pos *board.Position, depth int) uint64 {
	if depth <= 0 {
		return 1
	}
	if depth == 1 {
		return uint64(pos.NumLegalMoves())
	}
	var nodes uint64
	for _, m := range pos.LegalMoves() {
		next, err := pos.ApplyMove(m)
		if err != nil {
			panic(err) // a generated move must be legal
		}
		nodes += Count(next, depth-1)
	}
	return nodes
}

// pollInterval is how many interior nodes a counter visits between checks
// of its context.
const pollInterval = 1 << 10

// CountContext is Count that gives up with ctx.Err() once ctx is done.
func CountContext(ctx context.Context, pos *board.Position, depth int) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	c := counter{ctx: ctx}
	return c.count(pos, depth)
}

type counter struct {
	ctx   context.Context
	polls int
}

func (c *counter) count(pos *board.Position, depth int) (uint64, error) {
	if depth <= 0 {
		return 1, nil
	}
	if depth == 1 {
		return uint64(pos.NumLegalMoves()), nil
	}
	c.polls++
	if c.polls%pollInterval == 0 {
		if err := c.ctx.Err(); err != nil {
			return 0, err
		}
	}
	var nodes uint64
	for _, m := range pos.LegalMoves() {
		next, err := pos.ApplyMove(m)
		if err != nil {
			return 0, err
		}
		n, err := c.count(next, depth-1)
		if err != nil {
			return 0, err
		}
		nodes += n
	}
	return nodes, nil
}

// Entry is one root move with the size of its subtree.
type Entry struct {
	Move  board.Move
	Nodes uint64
}

// Divide splits the count of depth by root move, sorted by move text.
func Divide(pos *board.Position, depth int) []Entry {
	if depth < 1 {
		return nil
	}
	moves := pos.LegalMoves()
	entries := make([]Entry, 0, len(moves))
	for _, m := range moves {
		next, err := pos.ApplyMove(m)
		if err != nil {
			panic(err)
		}
		entries = append(entries, Entry{Move: m, Nodes: Count(next, depth-1)})
	}
	sortEntries(entries)
	return entries
}

// Total sums the nodes of a divide result.
func Total(entries []Entry) uint64 {
	var n uint64
	for _, e := range entries {
		n += e.Nodes
	}
	return n
}

// Parallel computes Count with one task per root move, at most workers at
// a time (GOMAXPROCS when workers < 1). Cancelling ctx stops queued tasks
// and interrupts running ones.
func Parallel(ctx context.Context, pos *board.Position, depth, workers int) (uint64, error) {
	entries, err := ParallelDivide(ctx, pos, depth, workers)
	if err != nil {
		return 0, err
	}
	if depth <= 0 {
		return 1, nil
	}
	return Total(entries), nil
}

// ParallelDivide is Divide with the root moves spread over workers.
func ParallelDivide(ctx context.Context, pos *board.Position, depth, workers int) ([]Entry, error) {
	if depth < 1 {
		return nil, nil
	}
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}

	moves := pos.LegalMoves()
	counts := make([]atomic.Uint64, len(moves))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, m := range moves {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			next, err := pos.ApplyMove(m)
			if err != nil {
				return err
			}
			n, err := CountContext(ctx, next, depth-1)
			if err != nil {
				return err
			}
			counts[i].Store(n)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	entries := make([]Entry, len(moves))
	for i, m := range moves {
		entries[i] = Entry{Move: m, Nodes: counts[i].Load()}
	}
	sortEntries(entries)
	return entries, nil
}

func sortEntries(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Move.String() < entries[j].Move.String()
	})
}
