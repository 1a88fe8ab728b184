package table

import (
	"bytes"
	"testing"

	"github.com/liznear/golden-raspberry/model"
)

func TestRecord(t *testing.T) {
	tcs := []struct {
		name string
		r    *record
	}{
		{
			name: "Movie",
			r: newRecord(model.Movie{
				ID:        3,
				Year:      1981,
				Title:     "Mommie Dearest",
				Studios:   "Paramount Pictures",
				Producers: []string{"Frank Yablans"},
				Winner:    true,
			}),
		},
		{
			name: "NoProducers",
			r:    newRecord(model.Movie{ID: 4, Year: 1982, Title: "Inchon", Producers: []string{}}),
		},
		{
			name: "Deleted",
			r:    newDeletedRecord(5),
		},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			buf := bytes.Buffer{}
			n, err := tc.r.write(&buf)
			if err != nil {
				t.Fatal(err)
			}
			if n != buf.Len() {
				t.Errorf("Got written size %d, buffer has %d bytes", n, buf.Len())
			}

			got := &record{}
			if err := got.read(&buf); err != nil {
				t.Fatalf("Fail to parse bytes: %v", err)
			}
			if buf.Len() > 0 {
				t.Errorf("Got %d remaining bytes", buf.Len())
			}
			if !recordEqual(got, tc.r) {
				t.Errorf("Got %s, want %s", got, tc.r)
			}
			if got.sizeOnDisk() != n {
				t.Errorf("Got size %d, want %d", got.sizeOnDisk(), n)
			}
		})
	}
}

func TestRecord_ReadRecords(t *testing.T) {
	rs := []*record{
		newRecord(newTestMovie(1)),
		newDeletedRecord(1),
		newRecord(newTestMovie(2)),
	}
	rs[0].id, rs[0].movie.ID = 1, 1
	rs[2].id, rs[2].movie.ID = 2, 2

	buf := bytes.Buffer{}
	for _, r := range rs {
		if _, err := r.write(&buf); err != nil {
			t.Fatal(err)
		}
	}
	got, err := readRecords(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(rs) {
		t.Fatalf("Got %d records, want %d", len(got), len(rs))
	}
	for i := range got {
		if !recordEqual(got[i], rs[i]) {
			t.Errorf("%d: got %s, want %s", i, got[i], rs[i])
		}
	}
}
