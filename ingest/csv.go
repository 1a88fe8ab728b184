// Package ingest loads movie lists from semicolon separated CSV files.
package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"

	"github.com/liznear/golden-raspberry/model"
)

// ErrMalformedRow is returned for a row that cannot be turned into a movie.
var ErrMalformedRow = errors.New("ingest: malformed row")

// Sink receives the parsed movies.
type Sink interface {
	Insert(m model.Movie) (model.Movie, error)
}

var requiredColumns = []string{"year", "title", "studios", "producers", "winner"}

// producerSeparator splits "A, B and C" into A, B and C.
var producerSeparator = regexp.MustCompile(`,| and `)

// Loader reads CSV movie lists into a Sink.
type Loader struct {
	sink   Sink
	logger *zap.Logger
}

func NewLoader(sink Sink, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{sink: sink, logger: logger}
}

// LoadGlob loads every file matching pattern, in lexical order. pattern supports "**".
// It returns the total number of imported movies.
func (l *Loader) LoadGlob(ctx context.Context, pattern string) (int, error) {
	paths, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
	if err != nil {
		return 0, fmt.Errorf("ingest: bad pattern %q: %w", pattern, err)
	}
	if len(paths) == 0 {
		l.logger.Warn("No csv file matches pattern", zap.String("pattern", pattern))
		return 0, nil
	}

	slices.Sort(paths)
	total := 0
	for _, p := range paths {
		n, err := l.LoadFile(ctx, p)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// LoadFile loads one CSV file and returns the number of imported movies.
func (l *Loader) LoadFile(ctx context.Context, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("ingest: fail to open %q: %w", path, err)
	}
	defer f.Close()

	n, err := l.Load(ctx, f)
	if err != nil {
		return n, fmt.Errorf("ingest: %s: %w", path, err)
	}
	l.logger.Info("Imported csv", zap.String("file", path), zap.Int("movies", n))
	return n, nil
}

// Load reads movies from r. The first line must be a header naming the columns.
func (l *Loader) Load(ctx context.Context, r io.Reader) (int, error) {
	cr := csv.NewReader(r)
	cr.Comma = ';'
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return 0, nil
		}
		return 0, fmt.Errorf("fail to read header: %w", err)
	}
	columns, err := indexColumns(header)
	if err != nil {
		return 0, err
	}

	n := 0
	for {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return n, nil
		}
		if err != nil {
			return n, err
		}
		line, _ := cr.FieldPos(0)
		if isBlank(row) {
			continue
		}
		m, err := parseRow(row, columns)
		if err != nil {
			return n, fmt.Errorf("line %d: %w", line, err)
		}
		if _, err := l.sink.Insert(m); err != nil {
			return n, fmt.Errorf("line %d: fail to store movie: %w", line, err)
		}
		n++
	}
}

func indexColumns(header []string) (map[string]int, error) {
	columns := map[string]int{}
	for i, h := range header {
		// Spreadsheets like to prepend a byte order mark.
		h = strings.TrimPrefix(h, "\ufeff")
		columns[strings.ToLower(strings.TrimSpace(h))] = i
	}
	var missing []string
	for _, c := range requiredColumns {
		if _, ok := columns[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing columns %v", ErrMalformedRow, missing)
	}
	return columns, nil
}

func parseRow(row []string, columns map[string]int) (model.Movie, error) {
	field := func(name string) string {
		i := columns[name]
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	year, err := strconv.Atoi(field("year"))
	if err != nil {
		return model.Movie{}, fmt.Errorf("%w: year %q is not an integer", ErrMalformedRow, field("year"))
	}
	title := field("title")
	if title == "" {
		return model.Movie{}, fmt.Errorf("%w: empty title", ErrMalformedRow)
	}
	return model.Movie{
		Year:      year,
		Title:     title,
		Studios:   field("studios"),
		Producers: SplitProducers(field("producers")),
		Winner:    strings.EqualFold(field("winner"), "yes"),
	}, nil
}

// SplitProducers splits a producer list such as "Bo Derek, John Derek and Jim Henson".
// Empty names are dropped.
func SplitProducers(raw string) []string {
	ret := []string{}
	for _, p := range producerSeparator.Split(raw, -1) {
		if p = strings.TrimSpace(p); p != "" {
			ret = append(ret, p)
		}
	}
	return ret
}

func isBlank(row []string) bool {
	for _, f := range row {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
