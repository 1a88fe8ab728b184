// Package table stores the movie catalog in a directory as snapshots plus a write-ahead log.
package table

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/liznear/golden-raspberry/model"
)

var (
	// ErrNotFound is returned when no movie has the requested id.
	ErrNotFound = errors.New("table: movie not found")
	// ErrClosed is returned by operations on a closed DB.
	ErrClosed = errors.New("table: db is closed")
)

// DB is the movie catalog. All methods are safe for concurrent use.
type DB struct {
	dir     string
	cfg     *Config
	genIter *GenIter
	mem     *memTable

	// Protects gen, wal, nextID and closed. Writers hold it while logging and applying a
	// record so that the WAL order is the apply order.
	mu     sync.Mutex
	gen    Gen
	wal    *logWriter[*record]
	nextID int64
	closed bool

	wg           sync.WaitGroup
	toCheckpoint chan struct{}

	// openWAL opens the WAL of a generation for appending.
	openWAL func(dir string, gen Gen) (*logWriter[*record], error)
}

// Open opens the catalog stored in dir, recovering it from the latest snapshot and its WAL.
// dir must exist.
func Open(dir string, opts ...Option) (*DB, error) {
	cfg := &Config{
		MaxLogSize: defaultMaxLogSize,
		Logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	db := &DB{
		dir:          dir,
		cfg:          cfg,
		mem:          newMemTable(),
		toCheckpoint: make(chan struct{}, 1),
		openWAL:      newRecordLogWriter,
	}
	if err := db.restore(); err != nil {
		return nil, err
	}
	db.wg.Add(1)
	go db.loop()
	return db, nil
}

// Close stops the background checkpoint loop and closes the WAL.
func (db *DB) Close() error {
	db.mu.Lock()
	if db.closed {
		db.mu.Unlock()
		return nil
	}
	db.closed = true
	// Close the toCheckpoint channel so that the loop knows it can stop after handling the
	// in progress checkpoint if there is any.
	close(db.toCheckpoint)
	err := db.wal.Close()
	db.mu.Unlock()

	db.wg.Wait()
	if err != nil {
		return fmt.Errorf("table: fail to close wal: %w", err)
	}
	return nil
}

// loop checkpoints the catalog each time a writer reports that the WAL is too large.
func (db *DB) loop() {
	defer db.wg.Done()

	for range db.toCheckpoint {
		if err := db.Checkpoint(); err != nil && !errors.Is(err, ErrClosed) {
			db.cfg.Logger.Error("Fail to checkpoint", zap.String("dir", db.dir), zap.Error(err))
		}
	}
}

// Insert stores m as a new movie and returns it with its assigned id. m.ID is ignored.
func (db *DB) Insert(m model.Movie) (model.Movie, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.closed {
		return model.Movie{}, ErrClosed
	}
	m = m.Clone()
	m.ID = db.nextID + 1
	if err := db.writeLocked(newRecord(m)); err != nil {
		return model.Movie{}, err
	}
	db.nextID = m.ID
	return m.Clone(), nil
}

// Update applies patch to the movie with the given id and returns the updated movie.
func (db *DB) Update(id int64, patch model.MoviePatch) (model.Movie, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.closed {
		return model.Movie{}, ErrClosed
	}
	old, ok := db.mem.get(id)
	if !ok {
		return model.Movie{}, ErrNotFound
	}
	m := patch.Apply(old)
	m.ID = id
	if err := db.writeLocked(newRecord(m)); err != nil {
		return model.Movie{}, err
	}
	return m.Clone(), nil
}

// Delete removes the movie with the given id.
func (db *DB) Delete(id int64) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.closed {
		return ErrClosed
	}
	if _, ok := db.mem.get(id); !ok {
		return ErrNotFound
	}
	return db.writeLocked(newDeletedRecord(id))
}

// writeLocked logs r and applies it to the memtable. db.mu must be held.
func (db *DB) writeLocked(r *record) error {
	if err := db.wal.Write(r); err != nil {
		return fmt.Errorf("table: fail to log %s: %w", r, err)
	}
	flush := db.wal.Flush
	if db.cfg.SyncWrites {
		flush = db.wal.Sync
	}
	if err := flush(); err != nil {
		return fmt.Errorf("table: fail to flush wal: %w", err)
	}
	db.mem.apply(r)

	if db.wal.Size() >= db.cfg.MaxLogSize {
		// A pending signal already covers this write.
		select {
		case db.toCheckpoint <- struct{}{}:
		default:
		}
	}
	return nil
}

// Get returns the movie with the given id.
func (db *DB) Get(id int64) (model.Movie, error) {
	m, ok := db.mem.get(id)
	if !ok {
		return model.Movie{}, ErrNotFound
	}
	return m, nil
}

// List returns the movies matching f, ordered by id.
func (db *DB) List(f Filter) []model.Movie {
	return db.mem.list(f)
}

// Producers returns every credited producer, ordered by name.
func (db *DB) Producers() []model.ProducerSummary {
	return db.mem.producerSummaries()
}

// WinFacts returns one fact per (winning movie, credited producer) pair, read from a single
// consistent view of the catalog.
func (db *DB) WinFacts(ctx context.Context) ([]model.WinFact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := db.Ready(ctx); err != nil {
		return nil, err
	}
	return db.mem.winFacts(), nil
}

// Len returns the number of movies.
func (db *DB) Len() int {
	return db.mem.len()
}

// Ready returns ErrClosed once the DB is closed.
func (db *DB) Ready(context.Context) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.closed {
		return ErrClosed
	}
	return nil
}

const defaultMaxLogSize = 4 << 20 // 4MB

type Config struct {
	// MaxLogSize is the WAL size that triggers a background checkpoint.
	MaxLogSize int64
	// SyncWrites fsyncs the WAL after every write.
	SyncWrites bool
	Logger     *zap.Logger
}

type Option func(*Config)

func WithMaxLogSize(size int64) Option {
	return func(c *Config) {
		c.MaxLogSize = size
	}
}

func WithSyncWrites(sync bool) Option {
	return func(c *Config) {
		c.SyncWrites = sync
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Config) {
		if logger != nil {
			c.Logger = logger
		}
	}
}
