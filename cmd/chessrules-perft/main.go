package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime/pprof"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-logr/logr"

	"github.com/hailam/chessrules/internal/board"
	"github.com/hailam/chessrules/internal/logging"
	"github.com/hailam/chessrules/internal/perft"
	"github.com/hailam/chessrules/internal/storage"
)

var (
	fen        = flag.String("fen", board.StartFEN, "position to count from")
	depth      = flag.Int("depth", 5, "perft depth")
	divide     = flag.Bool("divide", false, "print the count below each root move")
	workers    = flag.Int("workers", 0, "parallel workers, 0 for GOMAXPROCS")
	dbPath     = flag.String("db", "", "badger directory used as a result cache (env CHESSRULES_DB)")
	cpuprofile = flag.String("cpuprofile", "", "write cpu profile to file")
	verbosity  = flag.Int("v", 0, "log verbosity")
)

func main() {
	flag.Parse()
	if err := run(logging.New(*verbosity)); err != nil {
		log.Fatal(err)
	}
}

func run(logger logr.Logger) error {
	profilePath := *cpuprofile
	if profilePath == "" {
		profilePath = os.Getenv("CPUPROFILE")
	}
	if profilePath != "" {
		f, err := os.Create(profilePath)
		if err != nil {
			return fmt.Errorf("could not create CPU profile: %w", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			return fmt.Errorf("could not start CPU profile: %w", err)
		}
		defer pprof.StopCPUProfile()
		logger.Info("CPU profiling enabled", "path", profilePath)
	}

	pos, err := board.ParseFEN(*fen)
	if err != nil {
		return err
	}

	path := *dbPath
	if path == "" {
		path = os.Getenv("CHESSRULES_DB")
	}
	var store *storage.Store
	if path != "" {
		store, err = storage.Open(path, logger)
		if err != nil {
			return err
		}
		defer store.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if *divide {
		return runDivide(ctx, pos)
	}

	if store != nil {
		if nodes, err := store.GetPerft(pos.FEN(), *depth); err == nil {
			fmt.Printf("Nodes: %s (cached)\n", humanize.Comma(int64(nodes)))
			return nil
		} else if !errors.Is(err, storage.ErrNotFound) {
			logger.Error(err, "cache lookup failed")
		}
	}

	start := time.Now()
	nodes, err := perft.Parallel(ctx, pos, *depth, *workers)
	if err != nil {
		return err
	}
	report(nodes, time.Since(start))

	if store != nil {
		if err := store.PutPerft(pos.FEN(), *depth, nodes); err != nil {
			logger.Error(err, "cache store failed")
		}
	}
	return nil
}

func runDivide(ctx context.Context, pos *board.Position) error {
	start := time.Now()
	entries, err := perft.ParallelDivide(ctx, pos, *depth, *workers)
	if err != nil {
		return err
	}
	for _, e := range entries {
		fmt.Printf("%s: %d\n", e.Move, e.Nodes)
	}
	fmt.Println()
	report(perft.Total(entries), time.Since(start))
	return nil
}

func report(nodes uint64, elapsed time.Duration) {
	fmt.Printf("Nodes: %s\n", humanize.Comma(int64(nodes)))
	fmt.Printf("Time: %v\n", elapsed.Round(time.Millisecond))
	if elapsed > 0 {
		fmt.Printf("NPS: %s\n", humanize.Comma(int64(float64(nodes)/elapsed.Seconds())))
	}
}
