package utils

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// Tombstone is written in place of a length to mark a missing payload.
const Tombstone = math.MaxUint32

// WriteWithUint32Length writes the length of the bytes as uint32 and then the bytes to the writer.
func WriteWithUint32Length(w io.Writer, bs []byte) (int, error) {
	if err := binary.Write(w, binary.BigEndian, uint32(len(bs))); err != nil {
		return 0, fmt.Errorf("fail to write length: %v", err)
	}
	if n, err := w.Write(bs); err != nil {
		return 4 + n, fmt.Errorf("fail to write bytes: %v", err)
	}
	return 4 + len(bs), nil
}

// ReadWithUint32Length reads the length of the bytes as uint32 first and then the bytes.
//
// If the length equals Tombstone, it returns a nil slice and ok == false.
func ReadWithUint32Length(r io.Reader) (bs []byte, ok bool, err error) {
	var l uint32
	if err := binary.Read(r, binary.BigEndian, &l); err != nil {
		// EOF while reading the length means there is no more data, which the caller
		// probably expects. EOF after the length means the data is truncated.
		if errors.Is(err, io.EOF) {
			return nil, false, err
		}
		return nil, false, fmt.Errorf("fail to read length: %w", err)
	}
	if l == Tombstone {
		return nil, false, nil
	}

	bs = make([]byte, l)
	if _, err := io.ReadFull(r, bs); err != nil {
		return nil, false, fmt.Errorf("fail to read bytes: %w", err)
	}
	return bs, true, nil
}

// WriteString writes s with a uint32 length prefix.
func WriteString(w io.Writer, s string) (int, error) {
	return WriteWithUint32Length(w, []byte(s))
}

// ReadString reads a string written by WriteString.
func ReadString(r io.Reader) (string, error) {
	bs, ok, err := ReadWithUint32Length(r)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", errors.New("unexpected tombstone")
	}
	return string(bs), nil
}
