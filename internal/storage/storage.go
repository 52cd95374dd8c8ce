package storage

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/dgraph-io/badger/v4"
	"github.com/go-logr/logr"
	"github.com/klauspost/compress/zstd"

	"github.com/hailam/chessrules/internal/game"
	"github.com/hailam/chessrules/internal/logging"
)

// Key prefixes
const (
	prefixPerft   = "perft/"
	prefixGame    = "game/"
	keyGameSeq    = "seq/game"
	seqBandwidth  = 64
	maxPerftDepth = 255
)

// ErrNotFound is returned when a key is absent.
var ErrNotFound = errors.New("storage: not found")

// GameRecord is an archived game. Moves are in coordinate notation; SAN
// holds the same moves in standard algebraic notation.
type GameRecord struct {
	ID       uint64    `json:"id"`
	FEN      string    `json:"fen"`
	Moves    []string  `json:"moves"`
	SAN      []string  `json:"san"`
	FinalFEN string    `json:"final_fen"`
	Result   string    `json:"result"`
	Method   string    `json:"method"`
	White    string    `json:"white,omitempty"`
	Black    string    `json:"black,omitempty"`
	Created  time.Time `json:"created"`
}

// RecordFromGame snapshots g. The ID is assigned by SaveGame.
func RecordFromGame(g *game.Game) *GameRecord {
	moves := g.Moves()
	rec := &GameRecord{
		FEN:      g.InitialPosition().FEN(),
		Moves:    make([]string, len(moves)),
		SAN:      g.MovesSAN(),
		FinalFEN: g.Position().FEN(),
		Created:  time.Now().UTC(),
	}
	for i, m := range moves {
		rec.Moves[i] = m.String()
	}
	result, method := g.Outcome()
	rec.Result = result.String()
	rec.Method = method.String()
	rec.White, _ = g.WhitePlayer()
	rec.Black, _ = g.BlackPlayer()
	return rec
}

// Replay rebuilds the game a record describes.
func (r *GameRecord) Replay() (*game.Game, error) {
	g, err := game.NewFromFEN(r.FEN)
	if err != nil {
		return nil, err
	}
	if err := g.PlayMoves(r.Moves...); err != nil {
		return nil, fmt.Errorf("replay game %d: %w", r.ID, err)
	}
	if r.White != "" {
		g.SetWhitePlayer(r.White)
	}
	if r.Black != "" {
		g.SetBlackPlayer(r.Black)
	}
	return g, nil
}

// perftEntry is stored under the hash of the FEN, so the FEN is kept to
// detect hash collisions.
type perftEntry struct {
	FEN   string `json:"fen"`
	Depth int    `json:"depth"`
	Nodes uint64 `json:"nodes"`
}

// Store wraps BadgerDB for the perft cache and the game archive.
type Store struct {
	db  *badger.DB
	seq *badger.Sequence
	enc *zstd.Encoder
	dec *zstd.Decoder
	log logr.Logger
}

// Open opens or creates the database in dir. An empty dir keeps
// everything in memory.
func Open(dir string, log logr.Logger) (*Store, error) {
	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = logging.NewBadgerLogger(log)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %q: %w", dir, err)
	}
	seq, err := db.GetSequence([]byte(keyGameSeq), seqBandwidth)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("game sequence: %w", err)
	}
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		seq.Release()
		db.Close()
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		seq.Release()
		db.Close()
		return nil, fmt.Errorf("zstd decoder: %w", err)
	}

	log.V(1).Info("storage opened", "dir", dir)
	return &Store{db: db, seq: seq, enc: enc, dec: dec, log: log}, nil
}

// Close releases the sequence, the codecs and the database. It is safe to
// call more than once.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	s.dec.Close()
	err := s.enc.Close()
	if rerr := s.seq.Release(); err == nil {
		err = rerr
	}
	if cerr := s.db.Close(); err == nil {
		err = cerr
	}
	s.db = nil
	return err
}

func perftKey(fen string, depth int) []byte {
	key := make([]byte, 0, len(prefixPerft)+9)
	key = append(key, prefixPerft...)
	key = binary.BigEndian.AppendUint64(key, xxhash.Sum64String(fen))
	return append(key, byte(depth))
}

// PutPerft caches the node count of fen at depth.
func (s *Store) PutPerft(fen string, depth int, nodes uint64) error {
	if depth < 0 || depth > maxPerftDepth {
		return fmt.Errorf("perft depth %d out of range", depth)
	}
	data, err := json.Marshal(perftEntry{FEN: fen, Depth: depth, Nodes: nodes})
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(perftKey(fen, depth), data)
	})
}

// GetPerft returns a cached node count, or ErrNotFound.
func (s *Store) GetPerft(fen string, depth int) (uint64, error) {
	if depth < 0 || depth > maxPerftDepth {
		return 0, ErrNotFound
	}
	var entry perftEntry
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(perftKey(fen, depth))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &entry)
		})
	})
	if err != nil {
		return 0, err
	}
	if entry.FEN != fen || entry.Depth != depth {
		s.log.V(1).Info("perft key collision", "fen", fen, "stored", entry.FEN)
		return 0, ErrNotFound
	}
	return entry.Nodes, nil
}

func gameKey(id uint64) []byte {
	return binary.BigEndian.AppendUint64([]byte(prefixGame), id)
}

// SaveGame assigns rec a new ID and stores it compressed.
func (s *Store) SaveGame(rec *GameRecord) (uint64, error) {
	id, err := s.seq.Next()
	if err != nil {
		return 0, err
	}
	// Sequences start at zero; IDs start at one.
	id++
	rec.ID = id

	data, err := json.Marshal(rec)
	if err != nil {
		return 0, err
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(gameKey(id), s.enc.EncodeAll(data, nil))
	})
	if err != nil {
		return 0, err
	}
	s.log.V(1).Info("game archived", "id", id, "moves", len(rec.Moves), "bytes", len(data))
	return id, nil
}

// LoadGame returns the game with the given ID, or ErrNotFound.
func (s *Store) LoadGame(id uint64) (*GameRecord, error) {
	var rec *GameRecord
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(gameKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			rec, err = s.decodeGame(val)
			return err
		})
	})
	return rec, err
}

// Games returns every archived game in ID order.
func (s *Store) Games() ([]*GameRecord, error) {
	var recs []*GameRecord
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefixGame)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				rec, err := s.decodeGame(val)
				if err != nil {
					return err
				}
				recs = append(recs, rec)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return recs, err
}

// DeleteGame removes a game. Deleting a missing game is not an error.
func (s *Store) DeleteGame(id uint64) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(gameKey(id))
	})
}

func (s *Store) decodeGame(val []byte) (*GameRecord, error) {
	data, err := s.dec.DecodeAll(val, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress game: %w", err)
	}
	rec := new(GameRecord)
	if err := json.Unmarshal(data, rec); err != nil {
		return nil, err
	}
	return rec, nil
}
