// Package server exposes the rules engine over HTTP and websockets.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/go-logr/logr"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/hailam/chessrules/internal/board"
	"github.com/hailam/chessrules/internal/logging"
	"github.com/hailam/chessrules/internal/storage"
)

const maxJSONBodyBytes int64 = 1 << 20

// Server wires the HTTP layer to the rules engine, the response cache and
// the store.
type Server struct {
	cfg      Config
	store    *storage.Store // nil disables persistence
	cache    *ristretto.Cache[string, []byte]
	log      logr.Logger
	router   *mux.Router
	upgrader websocket.Upgrader

	srvMu sync.Mutex
	srv   *http.Server
}

// New builds a Server. store may be nil, in which case perft results are
// only cached in memory and the game endpoints answer 503.
func New(cfg Config, store *storage.Store, log logr.Logger) (*Server, error) {
	cache, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: 1e5,
		MaxCost:     cfg.CacheBytes,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:   cfg,
		store: store,
		cache: cache,
		log:   log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	access := func(next http.Handler) http.Handler {
		return handlers.LoggingHandler(logging.Writer(s.log.WithName("access")), next)
	}
	r.NotFoundHandler = access(http.HandlerFunc(notFoundHandler))
	r.Use(access)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(withJSON)
	api.HandleFunc("/position", s.handlePosition).Methods(http.MethodGet)
	api.HandleFunc("/apply", s.handleApply).Methods(http.MethodPost)
	api.HandleFunc("/perft", s.handlePerft).Methods(http.MethodGet)
	api.HandleFunc("/games", s.handleCreateGame).Methods(http.MethodPost)
	api.HandleFunc("/games/{id:[0-9]+}", s.handleGetGame).Methods(http.MethodGet)

	r.HandleFunc("/ws", s.handleWebsocket)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return r
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Listen serves until Shutdown is called.
func (s *Server) Listen() error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s,
		ReadHeaderTimeout: s.cfg.ReadHeaderTimeout,
		ReadTimeout:       s.cfg.ReadTimeout,
		WriteTimeout:      s.cfg.WriteTimeout,
		IdleTimeout:       s.cfg.IdleTimeout,
		MaxHeaderBytes:    1 << 16,
	}

	s.srvMu.Lock()
	s.srv = srv
	s.srvMu.Unlock()
	defer func() {
		s.srvMu.Lock()
		s.srv = nil
		s.srvMu.Unlock()
	}()

	s.log.Info("HTTP listening", "addr", s.cfg.Addr)
	err := srv.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the listener gracefully and releases the cache.
func (s *Server) Shutdown(ctx context.Context) error {
	s.srvMu.Lock()
	srv := s.srv
	s.srvMu.Unlock()

	var err error
	if srv != nil {
		err = srv.Shutdown(ctx)
	}
	s.cache.Close()
	return err
}

// ---- JSON helpers ----

func withJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		if r.Body != nil && r.Body != http.NoBody {
			r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "encode response", http.StatusInternalServerError)
		return
	}
	writeBody(w, status, body)
}

func writeBody(w http.ResponseWriter, status int, body []byte) {
	w.WriteHeader(status)
	_, _ = w.Write(body)
	_, _ = w.Write([]byte("\n"))
}

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// errorKind names the class of a board error for clients.
func errorKind(err error) (string, int) {
	switch {
	case errors.Is(err, board.ErrInvalidFEN):
		return "invalid_fen", http.StatusBadRequest
	case errors.Is(err, board.ErrMoveSyntax):
		return "move_syntax", http.StatusBadRequest
	case errors.Is(err, board.ErrIllegalMove):
		return "illegal_move", http.StatusUnprocessableEntity
	case errors.Is(err, board.ErrAmbiguousSAN):
		return "ambiguous_san", http.StatusUnprocessableEntity
	case errors.Is(err, storage.ErrNotFound):
		return "not_found", http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "timeout", http.StatusServiceUnavailable
	default:
		return "internal", http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	kind, status := errorKind(err)
	writeJSON(w, status, errorBody{Error: err.Error(), Kind: kind})
}

func writeBadRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorBody{Error: msg, Kind: "bad_request"})
}

func isBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if isBodyTooLarge(err) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorBody{Error: "request too large", Kind: "bad_request"})
			return false
		}
		writeBadRequest(w, "invalid json")
		return false
	}
	return true
}

func notFoundHandler(w http.ResponseWriter, r *http.Request) {
	http.Error(w, "Not Found", http.StatusNotFound)
}
