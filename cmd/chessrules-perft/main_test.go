package main

import (
	"path/filepath"
	"testing"

	"github.com/hailam/chessrules/internal/board"
	"github.com/hailam/chessrules/internal/logging"
	"github.com/hailam/chessrules/internal/storage"
)

func TestRunCachesAndClosesStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "db")
	*fen, *depth, *dbPath = board.StartFEN, 2, dir
	t.Cleanup(func() { *fen, *depth, *dbPath = board.StartFEN, 5, "" })

	if err := run(logging.Discard()); err != nil {
		t.Fatalf("run: %v", err)
	}

	// Reopening fails while the previous handle still holds the directory lock.
	store, err := storage.Open(dir, logging.Discard())
	if err != nil {
		t.Fatalf("reopen after run: %v", err)
	}
	defer store.Close()
	if nodes, err := store.GetPerft(board.StartFEN, 2); err != nil || nodes != 400 {
		t.Errorf("cached perft = %d, %v; want 400", nodes, err)
	}
}

func TestRunRejectsBadFEN(t *testing.T) {
	*fen = "not a fen"
	t.Cleanup(func() { *fen = board.StartFEN })
	if err := run(logging.Discard()); err == nil {
		t.Error("expected an error for a bad FEN")
	}
}
