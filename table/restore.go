package table

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// restore rebuilds the memtable from the latest snapshot and the WAL written after it, then
// opens that WAL for appending.
//
// It is possible that the process crashed while the WAL was being written. In this case, the
// last entry of the WAL is incomplete. The write it belongs to was never acknowledged, so we
// truncate it and keep going.
//
// It is also possible that the process crashed in the middle of a checkpoint:
//
// Case 1: the new snapshot was not renamed yet. Only a ".tmp" file exists for it, so the
// previous snapshot and its WAL are still the latest ones. No data is missing.
//
// Case 2: the new snapshot was renamed but older files were not removed yet. The new snapshot
// already contains everything from the old WAL. We remove the stale files.
func (db *DB) restore() error {
	gen, err := latestGen(db.dir)
	if err != nil {
		return fmt.Errorf("table: fail to find latest snapshot: %w", err)
	}

	if gen > 0 {
		records, ft, err := loadSnapshot(db.dir, gen)
		if err != nil {
			return fmt.Errorf("table: fail to load snapshot %d: %w", gen, err)
		}
		for _, r := range records {
			db.mem.apply(r)
		}
		db.nextID = ft.maxID
		db.cfg.Logger.Info("Loaded snapshot",
			zap.Int64("gen", int64(gen)),
			zap.Uint32("movies", ft.count),
			zap.Stringer("years", &ft.span))
	}

	replayed, err := db.replay(gen)
	if err != nil {
		return err
	}
	if replayed > 0 {
		db.cfg.Logger.Info("Replayed wal", zap.Int64("gen", int64(gen)), zap.Int("records", replayed))
	}

	if err := removeStaleFiles(db.dir, gen); err != nil {
		db.cfg.Logger.Warn("Fail to remove stale files", zap.String("dir", db.dir), zap.Error(err))
	}

	w, err := db.openWAL(db.dir, gen)
	if err != nil {
		return fmt.Errorf("table: fail to open wal %d: %w", gen, err)
	}
	db.gen = gen
	db.wal = w
	db.genIter = NewGenIter(gen)
	return nil
}

// replay applies the records of the WAL of gen. It returns the number of applied records.
func (db *DB) replay(gen Gen) (int, error) {
	iter, err := newRecordLogIter(db.dir, gen)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("table: fail to open wal %d: %w", gen, err)
	}
	defer iter.Close()

	n := 0
	for iter.Next() {
		r := &record{}
		if err := iter.Read(r); err != nil {
			ierr := &incompleteLogError{}
			if errors.As(err, &ierr) {
				db.cfg.Logger.Warn("Truncating incomplete wal tail",
					zap.Int64("gen", int64(gen)),
					zap.Int("offset", ierr.valid))
				if err := os.Truncate(walFile(db.dir, gen), int64(ierr.valid)); err != nil {
					return n, fmt.Errorf("table: fail to truncate wal %d: %w", gen, err)
				}
				break
			}
			return n, fmt.Errorf("table: fail to replay wal %d: %w", gen, err)
		}
		db.mem.apply(r)
		db.nextID = max(db.nextID, r.id)
		n++
	}
	return n, nil
}

// removeStaleFiles removes snapshots and WALs older than gen, and leftovers of interrupted
// checkpoints.
func removeStaleFiles(dir string, gen Gen) error {
	var errs []error
	for _, ext := range []string{snapshotExtension, walExtension} {
		gens, err := listGens(dir, ext)
		if err != nil {
			return err
		}
		for _, g := range gens.Values() {
			if g >= gen {
				continue
			}
			if ext == snapshotExtension {
				errs = append(errs, os.Remove(snapshotFile(dir, g)))
			} else {
				errs = append(errs, os.Remove(walFile(dir, g)))
			}
		}
	}
	tmps, err := filepath.Glob(filepath.Join(dir, "*"+snapshotExtension+".tmp"))
	if err != nil {
		return err
	}
	for _, tmp := range tmps {
		errs = append(errs, os.Remove(tmp))
	}
	return errors.Join(errs...)
}
