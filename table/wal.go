package table

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// loggable is an interface to indicate that the object can be logged.
type loggable interface {
	read(io.Reader) error

	write(io.Writer) (int, error)

	sizeOnDisk() int
}

// logWriter appends loggable entries to a WAL file.
type logWriter[T loggable] struct {
	f    *os.File
	w    *bufio.Writer
	size int64
}

// newRecordLogWriter opens the WAL of seq for appending. Existing entries are kept, since the
// WAL is replayed on open and then extended.
func newRecordLogWriter(dir string, seq Gen) (*logWriter[*record], error) {
	f, err := os.OpenFile(walFile(dir, seq), os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("record log writer: fail to open file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("record log writer: fail to stat file: %w", err)
	}
	return &logWriter[*record]{f: f, w: bufio.NewWriter(f), size: info.Size()}, nil
}

// Write buffers the entry. It reaches the OS on Flush or Sync.
func (lw *logWriter[T]) Write(log T) error {
	n, err := log.write(lw.w)
	lw.size += int64(n)
	if err != nil {
		return fmt.Errorf("log writer: fail to write log data: %w", err)
	}
	return nil
}

func (lw *logWriter[T]) Flush() error {
	return lw.w.Flush()
}

// Sync flushes buffered entries and fsyncs the file.
func (lw *logWriter[T]) Sync() error {
	if err := lw.w.Flush(); err != nil {
		return err
	}
	return lw.f.Sync()
}

// Size returns the number of bytes in the WAL, including buffered ones.
func (lw *logWriter[T]) Size() int64 {
	return lw.size
}

func (lw *logWriter[T]) Close() error {
	return errors.Join(lw.Sync(), lw.f.Close())
}

type logIter[T loggable] struct {
	r     *bufio.Reader
	close func() error
	n     int
}

func newRecordLogIter(dir string, seq Gen) (*logIter[*record], error) {
	r, err := os.Open(walFile(dir, seq))
	if err != nil {
		return nil, fmt.Errorf("record log iter: fail to open file: %w", err)
	}
	return &logIter[*record]{bufio.NewReader(r), r.Close, 0}, nil
}

func (li *logIter[T]) Close() error {
	return li.close()
}

func (li *logIter[T]) Next() bool {
	_, err := li.r.Peek(1)
	return err == nil
}

func (li *logIter[T]) Read(v T) error {
	if err := v.read(li.r); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return &incompleteLogError{valid: li.n, remaining: li.r.Buffered()}
		}
		return fmt.Errorf("log reader: fail to read log data: %w", err)
	}
	li.n += v.sizeOnDisk()
	return nil
}

const walExtension = ".wal"

func walFile(dir string, seq Gen) string {
	return filepath.Join(dir, fmt.Sprintf("%d%s", seq, walExtension))
}

// parseGen extracts the generation from a file name like "12.wal".
func parseGen(name, ext string) (Gen, bool) {
	base := filepath.Base(name)
	if !strings.HasSuffix(base, ext) {
		return 0, false
	}
	g, err := strconv.ParseInt(strings.TrimSuffix(base, ext), 10, 64)
	if err != nil {
		return 0, false
	}
	return Gen(g), true
}

// incompleteLogError is returned when the tail of a WAL is cut in the middle of an entry,
// which happens if the process dies while writing.
type incompleteLogError struct {
	valid     int
	remaining int
}

func (e *incompleteLogError) Error() string {
	return fmt.Sprintf("remaining %d bytes after offset %d are incomplete", e.remaining, e.valid)
}
