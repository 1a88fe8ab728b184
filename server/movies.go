package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/liznear/golden-raspberry/interval"
	"github.com/liznear/golden-raspberry/model"
	"github.com/liznear/golden-raspberry/table"
)

const maxBodySize = 1 << 20 // 1MB

// movieRequest is the body of POST and PUT /movies. Nil fields were absent.
type movieRequest struct {
	Title     *string  `json:"title"`
	Year      *int     `json:"year"`
	Studios   *string  `json:"studios"`
	Producers []string `json:"producers"`
	Winner    *bool    `json:"winner"`
}

func (r *movieRequest) patch() model.MoviePatch {
	p := model.MoviePatch{
		Year:    r.Year,
		Title:   r.Title,
		Studios: r.Studios,
		Winner:  r.Winner,
	}
	if r.Producers != nil {
		p.Producers = cleanProducers(r.Producers)
	}
	return p
}

func cleanProducers(names []string) []string {
	ret := make([]string, 0, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			ret = append(ret, n)
		}
	}
	return ret
}

func (s *Server) listMovies(rw http.ResponseWriter, hr *http.Request) {
	f, msg := parseFilter(hr)
	if msg != "" {
		writeMessage(rw, http.StatusBadRequest, msg)
		return
	}
	writeJSON(rw, http.StatusOK, s.catalog.List(f))
}

func parseFilter(hr *http.Request) (table.Filter, string) {
	var f table.Filter
	q := hr.URL.Query()

	if v := q.Get("winner"); v != "" {
		winner, err := strconv.ParseBool(v)
		if err != nil {
			return f, "`winner` must be a boolean"
		}
		f.WinnersOnly = winner
	}

	from, to := math.MinInt, math.MaxInt
	for _, b := range []struct {
		name string
		dst  *int
	}{{"from", &from}, {"to", &to}} {
		v := q.Get(b.name)
		if v == "" {
			continue
		}
		year, err := strconv.Atoi(v)
		if err != nil {
			return f, fmt.Sprintf("`%s` must be integer", b.name)
		}
		*b.dst = year
	}
	if from > to {
		return f, "`from` must not be greater than `to`"
	}
	if q.Has("from") || q.Has("to") {
		f.Span = model.NewYearSpan(from, to)
	}
	return f, ""
}

func (s *Server) getMovie(rw http.ResponseWriter, hr *http.Request) {
	id, ok := pathID(rw, hr)
	if !ok {
		return
	}
	m, err := s.catalog.Get(id)
	if err != nil {
		s.writeError(rw, hr, err)
		return
	}
	writeJSON(rw, http.StatusOK, m)
}

func (s *Server) createMovie(rw http.ResponseWriter, hr *http.Request) {
	req, ok := decodeMovie(rw, hr, insertMovieSchema)
	if !ok {
		return
	}
	m, err := s.catalog.Insert(req.patch().Apply(model.Movie{Producers: []string{}}))
	if err != nil {
		s.writeError(rw, hr, err)
		return
	}
	writeJSON(rw, http.StatusCreated, m)
}

func (s *Server) updateMovie(rw http.ResponseWriter, hr *http.Request) {
	id, ok := pathID(rw, hr)
	if !ok {
		return
	}
	req, ok := decodeMovie(rw, hr, updateMovieSchema)
	if !ok {
		return
	}
	m, err := s.catalog.Update(id, req.patch())
	if err != nil {
		s.writeError(rw, hr, err)
		return
	}
	writeJSON(rw, http.StatusOK, m)
}

func (s *Server) deleteMovie(rw http.ResponseWriter, hr *http.Request) {
	id, ok := pathID(rw, hr)
	if !ok {
		return
	}
	if err := s.catalog.Delete(id); err != nil {
		s.writeError(rw, hr, err)
		return
	}
	rw.WriteHeader(http.StatusNoContent)
}

func (s *Server) intervals(rw http.ResponseWriter, hr *http.Request) {
	report, err := interval.Report(hr.Context(), s.catalog)
	if s.cfg.Metrics != nil {
		s.cfg.Metrics.ReportComputed(err)
	}
	if err != nil {
		s.writeError(rw, hr, err)
		return
	}
	writeJSON(rw, http.StatusOK, report)
}

func (s *Server) producers(rw http.ResponseWriter, _ *http.Request) {
	writeJSON(rw, http.StatusOK, s.catalog.Producers())
}

// pathID parses the {id} path value. It writes a 400 response and returns false when the id is
// not an integer.
func pathID(rw http.ResponseWriter, hr *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(hr.PathValue("id"), 10, 64)
	if err != nil {
		writeMessage(rw, http.StatusBadRequest, "`id` must be integer")
		return 0, false
	}
	return id, true
}

// decodeMovie reads and validates the request body. It writes a 400 response and returns false
// when the body is unreadable or violates schema.
func decodeMovie(rw http.ResponseWriter, hr *http.Request, schema *gojsonschema.Schema) (movieRequest, bool) {
	var req movieRequest

	body, err := io.ReadAll(http.MaxBytesReader(rw, hr.Body, maxBodySize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeMessage(rw, http.StatusRequestEntityTooLarge, "request body too large")
			return req, false
		}
		writeMessage(rw, http.StatusBadRequest, "fail to read request body")
		return req, false
	}
	if !json.Valid(body) {
		writeMessage(rw, http.StatusBadRequest, "request body must be valid JSON")
		return req, false
	}

	msg, err := validate(schema, body)
	if err != nil {
		writeMessage(rw, http.StatusBadRequest, err.Error())
		return req, false
	}
	if msg != "" {
		writeMessage(rw, http.StatusBadRequest, msg)
		return req, false
	}

	if err := json.Unmarshal(body, &req); err != nil {
		writeMessage(rw, http.StatusBadRequest, err.Error())
		return req, false
	}
	return req, true
}
