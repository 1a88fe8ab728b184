package table

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/liznear/golden-raspberry/model"
	"github.com/liznear/golden-raspberry/utils"
)

// record is one movie mutation. It is the unit stored in both WAL and snapshot files.
//
// If a movie is deleted, we store a record with the deleted flag. Replaying the WAL on top of a
// snapshot would bring the movie back otherwise.
type record struct {
	id      int64
	deleted bool
	movie   model.Movie

	// size is the number of bytes of the record on disk. It is set by write and read.
	size int
}

func newRecord(m model.Movie) *record {
	return &record{
		id:    m.ID,
		movie: m,
	}
}

func newDeletedRecord(id int64) *record {
	return &record{
		id:      id,
		deleted: true,
	}
}

// write writes the record as bytes into w. It returns the number of written bytes.
//
// A record is written in this format
// | movie id       (8 bytes big endian int)  |
// | payload length (4 bytes big endian uint) | payload |
//
// A deleted record has no payload, and its length is utils.Tombstone.
func (r *record) write(w io.Writer) (int, error) {
	if err := binary.Write(w, binary.BigEndian, r.id); err != nil {
		return 0, fmt.Errorf("record: fail to write id: %w", err)
	}
	n := 8

	if r.deleted {
		if err := binary.Write(w, binary.BigEndian, uint32(utils.Tombstone)); err != nil {
			return n, fmt.Errorf("record: fail to write tombstone: %w", err)
		}
		r.size = n + 4
		return r.size, nil
	}

	payload, err := r.movie.MarshalBinary()
	if err != nil {
		return n, fmt.Errorf("record: fail to encode movie %d: %w", r.id, err)
	}
	l, err := utils.WriteWithUint32Length(w, payload)
	n += l
	if err != nil {
		return n, fmt.Errorf("record: fail to write payload: %w", err)
	}
	r.size = n
	return n, nil
}

// read reads the data from rd into r.
func (r *record) read(rd io.Reader) error {
	if err := binary.Read(rd, binary.BigEndian, &r.id); err != nil {
		// If we get EOF while reading the id, we directly propagate the EOF error.
		if errors.Is(err, io.EOF) {
			return err
		}
		return fmt.Errorf("record: fail to read id: %w", err)
	}

	payload, ok, err := utils.ReadWithUint32Length(rd)
	if err != nil {
		if errors.Is(err, io.EOF) {
			// The id is there but the payload is not, so the record is truncated.
			return io.ErrUnexpectedEOF
		}
		return fmt.Errorf("record: fail to read payload: %w", err)
	}
	if !ok {
		r.deleted = true
		r.movie = model.Movie{}
		r.size = 12
		return nil
	}

	r.deleted = false
	r.movie = model.Movie{}
	if err := r.movie.UnmarshalBinary(payload); err != nil {
		return fmt.Errorf("record: fail to decode movie %d: %w", r.id, err)
	}
	r.movie.ID = r.id
	r.size = 12 + len(payload)
	return nil
}

func (r *record) sizeOnDisk() int {
	return r.size
}

// readRecords reads a list of records from rd until it reaches the end.
func readRecords(rd io.Reader) ([]*record, error) {
	var ret []*record
	for {
		r := &record{}
		if err := r.read(rd); err != nil {
			// If we get EOF, we know we have parsed all records from the reader.
			if errors.Is(err, io.EOF) {
				return ret, nil
			}
			return nil, err
		}
		ret = append(ret, r)
	}
}

func (r *record) String() string {
	if r.deleted {
		return fmt.Sprintf("%d:deleted", r.id)
	}
	return fmt.Sprintf("%d:%q(%d)", r.id, r.movie.Title, r.movie.Year)
}
