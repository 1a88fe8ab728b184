package utils

import (
	"encoding/binary"
	"io"
)

type Runnable func() error

func ToRunnable3[T1, T2, T3 any](f func(T1, T2, T3) error, a T1, b T2, c T3) Runnable {
	return func() error {
		return f(a, b, c)
	}
}

// Run runs rs in order and stops at the first error.
func Run(rs ...Runnable) error {
	for _, r := range rs {
		if err := r(); err != nil {
			return err
		}
	}
	return nil
}

// ReadBigEndian returns a Runnable decoding a big endian value from r into v.
func ReadBigEndian(r io.Reader, v any) Runnable {
	return ToRunnable3(binary.Read, r, binary.ByteOrder(binary.BigEndian), v)
}

// WriteBigEndian returns a Runnable encoding v into w as big endian.
func WriteBigEndian(w io.Writer, v any) Runnable {
	return ToRunnable3(binary.Write, w, binary.ByteOrder(binary.BigEndian), v)
}
