package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liznear/golden-raspberry/model"
	"github.com/liznear/golden-raspberry/observability"
	"github.com/liznear/golden-raspberry/table"
)

func newTestServer(t *testing.T, movies ...model.Movie) (*Server, *table.DB) {
	t.Helper()

	db, err := table.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	for _, m := range movies {
		_, err := db.Insert(m)
		require.NoError(t, err)
	}

	return New(db, WithMetrics(observability.NewMetrics(db.Len))), db
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, http.NoBody)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func winner(year int, producers ...string) model.Movie {
	return model.Movie{Year: year, Title: "Movie", Studios: "Studio", Producers: producers, Winner: true}
}

func TestIntervals(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		movies []model.Movie
		want   string
	}{
		{
			name: "Empty",
			want: `{"min":[],"max":[]}`,
		},
		{
			name:   "SingleWins",
			movies: []model.Movie{winner(2000, "A"), winner(2001, "B")},
			want:   `{"min":[],"max":[]}`,
		},
		{
			name:   "OneProducer",
			movies: []model.Movie{winner(2003, "A"), winner(2000, "A"), winner(2001, "A")},
			want: `{"min":[{"producer":"A","interval":1,"previousWin":2000,"followingWin":2001}],` +
				`"max":[{"producer":"A","interval":2,"previousWin":2001,"followingWin":2003}]}`,
		},
		{
			name:   "TieOnSingleValue",
			movies: []model.Movie{winner(2000, "A"), winner(2001, "A"), winner(2003, "B"), winner(2004, "B")},
			want: `{"min":[{"producer":"A","interval":1,"previousWin":2000,"followingWin":2001},` +
				`{"producer":"B","interval":1,"previousWin":2003,"followingWin":2004}],` +
				`"max":[{"producer":"A","interval":1,"previousWin":2000,"followingWin":2001},` +
				`{"producer":"B","interval":1,"previousWin":2003,"followingWin":2004}]}`,
		},
		{
			name: "LosersIgnored",
			movies: []model.Movie{
				winner(1990, "A"),
				{Year: 1991, Title: "Flop", Studios: "S", Producers: []string{"A"}},
				winner(1999, "A"),
			},
			want: `{"min":[{"producer":"A","interval":9,"previousWin":1990,"followingWin":1999}],` +
				`"max":[{"producer":"A","interval":9,"previousWin":1990,"followingWin":1999}]}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s, _ := newTestServer(t, tt.movies...)
			rec := do(t, s, http.MethodGet, "/movies/winners/intervals", "")

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.JSONEq(t, tt.want, rec.Body.String())
		})
	}
}

func TestIntervals_Closed(t *testing.T) {
	t.Parallel()

	s, db := newTestServer(t, winner(2000, "A"))
	require.NoError(t, db.Close())

	rec := do(t, s, http.MethodGet, "/movies/winners/intervals", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotEmpty(t, decode[map[string]string](t, rec)["error"])
}

func TestMovieLifecycle(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/movies",
		`{"title":"Can't Stop the Music","year":1980,"studios":"Associated Film","producers":["Allan Carr"],"winner":true}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[model.Movie](t, rec)
	assert.Equal(t, int64(1), created.ID)
	assert.Equal(t, []string{"Allan Carr"}, created.Producers)
	assert.True(t, created.Winner)

	rec = do(t, s, http.MethodGet, "/movies/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, created, decode[model.Movie](t, rec))

	rec = do(t, s, http.MethodPut, "/movies/1", `{"year":1981,"producers":["Allan Carr"," ","Bo Derek"]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[model.Movie](t, rec)
	assert.Equal(t, 1981, updated.Year)
	assert.Equal(t, created.Title, updated.Title)
	assert.Equal(t, []string{"Allan Carr", "Bo Derek"}, updated.Producers)

	rec = do(t, s, http.MethodDelete, "/movies/1", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, s, http.MethodGet, "/movies/1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"message":"Not Found"}`, rec.Body.String())
}

func TestMovieErrors(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t, winner(2000, "A"))

	tests := []struct {
		name    string
		method  string
		target  string
		body    string
		code    int
		message string
	}{
		{name: "GetBadID", method: http.MethodGet, target: "/movies/abc", code: http.StatusBadRequest, message: "`id` must be integer"},
		{name: "GetMissing", method: http.MethodGet, target: "/movies/42", code: http.StatusNotFound, message: "Not Found"},
		{name: "PutBadID", method: http.MethodPut, target: "/movies/x", body: `{}`, code: http.StatusBadRequest, message: "`id` must be integer"},
		{name: "PutMissing", method: http.MethodPut, target: "/movies/42", body: `{"year":2001}`, code: http.StatusNotFound, message: "Not Found"},
		{name: "DeleteBadID", method: http.MethodDelete, target: "/movies/1.5", code: http.StatusBadRequest, message: "`id` must be integer"},
		{name: "DeleteMissing", method: http.MethodDelete, target: "/movies/42", code: http.StatusNotFound, message: "Not Found"},
		{name: "InvalidJSON", method: http.MethodPost, target: "/movies", body: `{"title":`, code: http.StatusBadRequest},
		{name: "MissingTitle", method: http.MethodPost, target: "/movies", body: `{"year":2000,"studios":"S","producers":[]}`, code: http.StatusBadRequest},
		{name: "YearNotInteger", method: http.MethodPost, target: "/movies", body: `{"title":"T","year":"2000","studios":"S","producers":[]}`, code: http.StatusBadRequest},
		{name: "UnknownField", method: http.MethodPut, target: "/movies/1", body: `{"rating":5}`, code: http.StatusBadRequest},
		{name: "WinnerNotBool", method: http.MethodPut, target: "/movies/1", body: `{"winner":"yes"}`, code: http.StatusBadRequest},
		{name: "BadFrom", method: http.MethodGet, target: "/movies?from=abc", code: http.StatusBadRequest, message: "`from` must be integer"},
		{name: "InvertedSpan", method: http.MethodGet, target: "/movies?from=2001&to=2000", code: http.StatusBadRequest},
		{name: "BadWinner", method: http.MethodGet, target: "/movies?winner=maybe", code: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := do(t, s, tt.method, tt.target, tt.body)
			assert.Equal(t, tt.code, rec.Code, rec.Body.String())

			got := decode[map[string]string](t, rec)
			assert.NotEmpty(t, got["message"])
			if tt.message != "" {
				assert.Equal(t, tt.message, got["message"])
			}
		})
	}
}

func TestListMovies(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t,
		winner(1980, "A"),
		model.Movie{Year: 1985, Title: "Flop", Studios: "S", Producers: []string{"B"}},
		winner(1990, "B"),
	)

	tests := []struct {
		target string
		years  []int
	}{
		{target: "/movies", years: []int{1980, 1985, 1990}},
		{target: "/movies?winner=true", years: []int{1980, 1990}},
		{target: "/movies?from=1981", years: []int{1985, 1990}},
		{target: "/movies?to=1985", years: []int{1980, 1985}},
		{target: "/movies?from=1981&to=1989&winner=true", years: []int{}},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			t.Parallel()

			rec := do(t, s, http.MethodGet, tt.target, "")
			require.Equal(t, http.StatusOK, rec.Code)

			movies := decode[[]model.Movie](t, rec)
			years := []int{}
			for _, m := range movies {
				years = append(years, m.Year)
			}
			assert.Equal(t, tt.years, years)
		})
	}
}

func TestProducers(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t,
		winner(1980, "A", "B"),
		model.Movie{Year: 1985, Title: "Flop", Studios: "S", Producers: []string{"B"}},
	)

	rec := do(t, s, http.MethodGet, "/producers", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []model.ProducerSummary{
		{Name: "A", Movies: 1, Wins: 1},
		{Name: "B", Movies: 2, Wins: 1},
	}, decode[[]model.ProducerSummary](t, rec))
}

func TestOperationalEndpoints(t *testing.T) {
	t.Parallel()

	s, db := newTestServer(t, winner(2000, "A"))

	rec := do(t, s, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	do(t, s, http.MethodGet, "/movies/winners/intervals", "")
	rec = do(t, s, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "movies_catalog_size 1")
	assert.Contains(t, rec.Body.String(), `movies_interval_reports_total{outcome="ok"} 1`)
	assert.Contains(t, rec.Body.String(), `route="GET /movies/winners/intervals"`)

	require.NoError(t, db.Close())
	rec = do(t, s, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRequestIDHeader(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", http.NoBody)
	req.Header.Set(observability.RequestIDHeader, "req-1")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	assert.Equal(t, "req-1", rec.Header().Get(observability.RequestIDHeader))
}

func TestBodyTooLarge(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t)

	body := bytes.Repeat([]byte(" "), maxBodySize+1)
	req := httptest.NewRequest(http.MethodPost, "/movies", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

type failingCatalog struct {
	Catalog
}

func (failingCatalog) WinFacts(context.Context) ([]model.WinFact, error) {
	return nil, errors.New("disk on fire")
}

func TestIntervals_ProviderError(t *testing.T) {
	t.Parallel()

	s := New(failingCatalog{})
	rec := do(t, s, http.MethodGet, "/movies/winners/intervals", "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, decode[map[string]string](t, rec)["error"], "disk on fire")
}

func TestCreateMovie_SurvivesReopen(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	db, err := table.Open(dir)
	require.NoError(t, err)

	producers := make([]string, 70000)
	for i := range producers {
		producers[i] = "a"
	}
	body, err := json.Marshal(map[string]any{
		"title":     "Far Future",
		"year":      4294969296,
		"studios":   "S",
		"producers": producers,
		"winner":    true,
	})
	require.NoError(t, err)

	rec := do(t, New(db), http.MethodPost, "/movies", string(body))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[model.Movie](t, rec)
	require.NoError(t, db.Close())

	db, err = table.Open(dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	rec = do(t, New(db), http.MethodGet, "/movies/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[model.Movie](t, rec)
	assert.Equal(t, 4294969296, got.Year)
	assert.Len(t, got.Producers, len(producers))
	assert.Equal(t, created, got)
}
