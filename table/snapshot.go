package table

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pierrec/lz4/v4"

	"github.com/liznear/golden-raspberry/model"
	"github.com/liznear/golden-raspberry/utils"
)

const snapshotExtension = ".snap"

// writeSnapshot writes the given records to the snapshot file of gen. records must be sorted by
// id and must not contain deleted records. maxID is the highest id ever assigned, which may
// belong to a deleted movie. It returns the size of the file.
//
// # The snapshot on disk looks like this
//
// - data block, an lz4 frame of records.
// | id1 (8 bytes) | payload1 length (4 bytes) | payload1 |
// | id2 ...                                             |
//
// - footer block (has fixed size)
// | record count (4 bytes big endian uint) |
// | max id       (8 bytes big endian int)  |
// | min year     (8 bytes big endian int)  |
// | max year     (8 bytes big endian int)  |
// | data length  (4 bytes big endian uint) |
//
// The file is written under a temporary name and renamed once synced, so a snapshot file
// is either complete or absent.
func writeSnapshot(dir string, gen Gen, records []*record, maxID int64) (int64, error) {
	tmp := snapshotFile(dir, gen) + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return 0, fmt.Errorf("snapshot: fail to create file: %w", err)
	}
	defer func() {
		_ = f.Close()
		_ = os.Remove(tmp)
	}()

	counter := &countingWriter{w: bufio.NewWriter(f)}
	zw := lz4.NewWriter(counter)
	ft := footer{maxID: maxID}
	var span *model.YearSpan
	for _, r := range records {
		if _, err := r.write(zw); err != nil {
			return 0, fmt.Errorf("snapshot: fail to write record %s: %w", r, err)
		}
		ft.count++
		ft.maxID = max(ft.maxID, r.id)
		span = span.Extend(r.movie.Year)
	}
	if err := zw.Close(); err != nil {
		return 0, fmt.Errorf("snapshot: fail to close compressor: %w", err)
	}
	if span != nil {
		ft.span = *span
	}
	ft.dataLength = uint32(counter.n)
	n, err := ft.write(counter.w)
	if err != nil {
		return 0, fmt.Errorf("snapshot: fail to write footer: %w", err)
	}
	if err := counter.w.Flush(); err != nil {
		return 0, fmt.Errorf("snapshot: fail to flush: %w", err)
	}
	if err := f.Sync(); err != nil {
		return 0, fmt.Errorf("snapshot: fail to sync: %w", err)
	}
	if err := os.Rename(tmp, snapshotFile(dir, gen)); err != nil {
		return 0, fmt.Errorf("snapshot: fail to rename: %w", err)
	}
	return counter.n + int64(n), nil
}

// loadSnapshot reads all records of the snapshot file of gen.
//
// It reads the footer first to know where the data block ends, then decompresses the data block.
func loadSnapshot(dir string, gen Gen) ([]*record, footer, error) {
	data, err := os.ReadFile(snapshotFile(dir, gen))
	if err != nil {
		return nil, footer{}, fmt.Errorf("snapshot: fail to read file: %w", err)
	}
	if len(data) < footerSize {
		return nil, footer{}, fmt.Errorf("snapshot: file %d is too short: %d bytes", gen, len(data))
	}

	ft := footer{}
	if err := ft.read(bytes.NewReader(data[len(data)-footerSize:])); err != nil {
		return nil, footer{}, fmt.Errorf("snapshot: fail to read footer: %w", err)
	}
	if int(ft.dataLength) != len(data)-footerSize {
		return nil, footer{}, fmt.Errorf("snapshot: data length %d does not match file size %d", ft.dataLength, len(data))
	}

	records, err := readRecords(lz4.NewReader(bytes.NewReader(data[:ft.dataLength])))
	if err != nil {
		return nil, footer{}, fmt.Errorf("snapshot: fail to read records: %w", err)
	}
	if len(records) != int(ft.count) {
		return nil, footer{}, fmt.Errorf("snapshot: got %d records, footer says %d", len(records), ft.count)
	}
	return records, ft, nil
}

func snapshotFile(dir string, gen Gen) string {
	return filepath.Join(dir, fmt.Sprintf("%d%s", gen, snapshotExtension))
}

// footerSize is the size of footer block on disk.
const footerSize = 32

// footer represents the footer block in memory. It has fixed size on disk.
type footer struct {
	count      uint32
	maxID      int64
	span       model.YearSpan
	dataLength uint32
}

func (f *footer) write(w io.Writer) (int, error) {
	err := utils.Run(
		utils.WriteBigEndian(w, f.count),
		utils.WriteBigEndian(w, f.maxID),
		utils.WriteBigEndian(w, int64(f.span.Min)),
		utils.WriteBigEndian(w, int64(f.span.Max)),
		utils.WriteBigEndian(w, f.dataLength),
	)
	if err != nil {
		return 0, err
	}
	return footerSize, nil
}

func (f *footer) read(r io.Reader) error {
	var minYear, maxYear int64
	err := utils.Run(
		utils.ReadBigEndian(r, &f.count),
		utils.ReadBigEndian(r, &f.maxID),
		utils.ReadBigEndian(r, &minYear),
		utils.ReadBigEndian(r, &maxYear),
		utils.ReadBigEndian(r, &f.dataLength),
	)
	if err != nil {
		return err
	}
	f.span = model.YearSpan{Min: int(minYear), Max: int(maxYear)}
	return nil
}

type countingWriter struct {
	w *bufio.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
