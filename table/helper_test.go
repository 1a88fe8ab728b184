package table

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/liznear/golden-raspberry/model"
)

func newTestMovie(i int) model.Movie {
	return model.Movie{
		Year:      1980 + i%40,
		Title:     fmt.Sprintf("Movie%d", i),
		Studios:   fmt.Sprintf("Studio%d", i%3),
		Producers: []string{fmt.Sprintf("Producer%d", i%5)},
		Winner:    i%4 == 0,
	}
}

func recordEqual(r1, r2 *record) bool {
	if r1.id != r2.id || r1.deleted != r2.deleted {
		return false
	}
	if r1.deleted {
		return true
	}
	return reflect.DeepEqual(r1.movie, r2.movie)
}

func openTestDB(t *testing.T, dir string, opts ...Option) *DB {
	t.Helper()
	db, err := Open(dir, opts...)
	if err != nil {
		t.Fatalf("Fail to open db: %v", err)
	}
	return db
}
