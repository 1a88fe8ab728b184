package model

import (
	"bytes"
	"fmt"
	"math"

	"github.com/liznear/golden-raspberry/utils"
)

// Movie is one catalog entry.
type Movie struct {
	ID        int64    `json:"id"`
	Year      int      `json:"year"`
	Title     string   `json:"title"`
	Studios   string   `json:"studios"`
	Producers []string `json:"producers"`
	Winner    bool     `json:"winner"`
}

// Clone returns a deep copy of m.
func (m Movie) Clone() Movie {
	m.Producers = append([]string(nil), m.Producers...)
	return m
}

// MarshalBinary encodes the movie without its ID. The ID is the record key.
//
// | year      (8 bytes big endian int)  |
// | winner    (1 byte)                  |
// | title     (length prefixed)         |
// | studios   (length prefixed)         |
// | producers (4 bytes count, then each length prefixed) |
func (m *Movie) MarshalBinary() ([]byte, error) {
	if uint64(len(m.Producers)) > math.MaxUint32 {
		return nil, fmt.Errorf("movie: too many producers: %d", len(m.Producers))
	}
	buf := bytes.Buffer{}
	winner := byte(0)
	if m.Winner {
		winner = 1
	}
	err := utils.Run(
		utils.WriteBigEndian(&buf, int64(m.Year)),
		utils.WriteBigEndian(&buf, winner),
		func() error { _, err := utils.WriteString(&buf, m.Title); return err },
		func() error { _, err := utils.WriteString(&buf, m.Studios); return err },
		utils.WriteBigEndian(&buf, uint32(len(m.Producers))),
	)
	if err != nil {
		return nil, fmt.Errorf("movie: fail to encode: %w", err)
	}
	for _, p := range m.Producers {
		if _, err := utils.WriteString(&buf, p); err != nil {
			return nil, fmt.Errorf("movie: fail to encode producer %q: %w", p, err)
		}
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary decodes data produced by MarshalBinary. The ID is left untouched.
func (m *Movie) UnmarshalBinary(data []byte) error {
	r := bytes.NewReader(data)
	var (
		year   int64
		winner byte
		count  uint32
	)
	err := utils.Run(
		utils.ReadBigEndian(r, &year),
		utils.ReadBigEndian(r, &winner),
		func() (err error) { m.Title, err = utils.ReadString(r); return err },
		func() (err error) { m.Studios, err = utils.ReadString(r); return err },
		utils.ReadBigEndian(r, &count),
	)
	if err != nil {
		return fmt.Errorf("movie: fail to decode: %w", err)
	}
	m.Year = int(year)
	m.Winner = winner == 1
	// Every producer takes at least its 4 bytes length prefix.
	if uint64(count)*4 > uint64(r.Len()) {
		return fmt.Errorf("movie: %d producers do not fit in %d bytes", count, r.Len())
	}
	m.Producers = make([]string, 0, count)
	for i := 0; i < int(count); i++ {
		p, err := utils.ReadString(r)
		if err != nil {
			return fmt.Errorf("movie: fail to decode producer %d: %w", i, err)
		}
		m.Producers = append(m.Producers, p)
	}
	if r.Len() > 0 {
		return fmt.Errorf("movie: %d trailing bytes", r.Len())
	}
	return nil
}

// MoviePatch holds the fields of a partial update. Nil fields are left unchanged.
type MoviePatch struct {
	Year      *int     `json:"year,omitempty"`
	Title     *string  `json:"title,omitempty"`
	Studios   *string  `json:"studios,omitempty"`
	Producers []string `json:"producers,omitempty"`
	Winner    *bool    `json:"winner,omitempty"`
}

// Apply returns a copy of m with the patch applied.
func (p MoviePatch) Apply(m Movie) Movie {
	ret := m.Clone()
	if p.Year != nil {
		ret.Year = *p.Year
	}
	if p.Title != nil {
		ret.Title = *p.Title
	}
	if p.Studios != nil {
		ret.Studios = *p.Studios
	}
	if p.Producers != nil {
		ret.Producers = append([]string(nil), p.Producers...)
	}
	if p.Winner != nil {
		ret.Winner = *p.Winner
	}
	return ret
}
