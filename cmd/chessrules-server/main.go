package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-logr/logr"

	"github.com/hailam/chessrules/internal/archive"
	"github.com/hailam/chessrules/internal/logging"
	"github.com/hailam/chessrules/internal/server"
	"github.com/hailam/chessrules/internal/storage"
)

type options struct {
	addr, dbPath, export, cacheSize string
	inMemory                        bool
	maxDepth, workers, verbosity    int
}

func main() {
	cfg := server.DefaultConfig()

	var opts options
	flag.StringVar(&opts.addr, "addr", "", "listen address (env CHESSRULES_ADDR, default "+cfg.Addr+")")
	flag.StringVar(&opts.dbPath, "db", "", "badger directory (env CHESSRULES_DB, default in the user data dir)")
	flag.BoolVar(&opts.inMemory, "memory", false, "keep the store in memory only")
	flag.StringVar(&opts.export, "export", "", "write archived games to this parquet file and exit")
	flag.IntVar(&opts.maxDepth, "max-depth", cfg.MaxPerftDepth, "largest perft depth served")
	flag.IntVar(&opts.workers, "workers", 0, "perft workers, 0 for GOMAXPROCS")
	flag.StringVar(&opts.cacheSize, "cache", humanize.IBytes(uint64(cfg.CacheBytes)), "response cache size")
	flag.IntVar(&opts.verbosity, "v", 0, "log verbosity")
	flag.Parse()

	log := logging.New(opts.verbosity)
	if err := run(cfg, opts, log); err != nil {
		log.Error(err, "exiting")
		os.Exit(1)
	}
}

func run(cfg server.Config, opts options, log logr.Logger) error {
	cfg.Addr = firstNonEmpty(opts.addr, os.Getenv("CHESSRULES_ADDR"), cfg.Addr)
	cfg.MaxPerftDepth = opts.maxDepth
	cfg.PerftWorkers = opts.workers
	bytes, err := humanize.ParseBytes(opts.cacheSize)
	if err != nil {
		return fmt.Errorf("bad cache size %q: %w", opts.cacheSize, err)
	}
	cfg.CacheBytes = int64(bytes)

	dir := ""
	if !opts.inMemory {
		dir = firstNonEmpty(opts.dbPath, os.Getenv("CHESSRULES_DB"))
		if dir == "" {
			if dir, err = storage.DatabaseDir(); err != nil {
				return fmt.Errorf("no data directory: %w", err)
			}
		}
	}
	store, err := storage.Open(dir, log)
	if err != nil {
		return err
	}
	defer store.Close()

	if opts.export != "" {
		n, err := archive.Export(store, opts.export)
		if err != nil {
			return fmt.Errorf("export to %s: %w", opts.export, err)
		}
		log.Info("games exported", "count", n, "path", opts.export)
		return nil
	}

	srv, err := server.New(cfg, store, log)
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error(err, "shutdown")
		}
	}()

	log.Info("starting", "addr", cfg.Addr, "db", dir, "cache", humanize.IBytes(bytes))
	err = srv.Listen()
	stop()
	<-stopped
	return err
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
