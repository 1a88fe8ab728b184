package table

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
)

// Checkpoint writes every live movie into a new snapshot and starts a new, empty WAL.
//
// The previous snapshot and WAL are removed afterwards. Writers are blocked while the snapshot
// is written, readers are not.
func (db *DB) Checkpoint() error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.closed {
		return ErrClosed
	}
	start := time.Now()

	next := db.genIter.NextGen()
	size, err := writeSnapshot(db.dir, next, db.mem.records(), db.nextID)
	if err != nil {
		return fmt.Errorf("checkpoint: fail to write snapshot %d: %w", next, err)
	}

	w, err := db.openWAL(db.dir, next)
	if err != nil {
		// A snapshot without its WAL would be picked on the next open, and the current WAL
		// removed as stale.
		if rmErr := os.Remove(snapshotFile(db.dir, next)); rmErr != nil {
			err = errors.Join(err, rmErr)
		}
		return fmt.Errorf("checkpoint: fail to open wal %d: %w", next, err)
	}
	prevGen, prevWAL := db.gen, db.wal
	db.gen, db.wal = next, w

	errs := []error{prevWAL.Close(), os.Remove(walFile(db.dir, prevGen))}
	if prevGen > 0 {
		errs = append(errs, os.Remove(snapshotFile(db.dir, prevGen)))
	}
	if err := errors.Join(errs...); err != nil {
		// The new snapshot is complete. Stale files are removed on the next open.
		db.cfg.Logger.Warn("Fail to clean up previous generation", zap.Int64("gen", int64(prevGen)), zap.Error(err))
	}

	fields := []zap.Field{
		zap.Int64("gen", int64(next)),
		zap.Int("movies", db.mem.len()),
		zap.String("size", humanize.Bytes(uint64(size))),
		zap.Duration("took", time.Since(start)),
	}
	if span := db.mem.span(); span != nil {
		fields = append(fields, zap.Stringer("years", span))
	}
	db.cfg.Logger.Info("Checkpoint done", fields...)
	return nil
}
