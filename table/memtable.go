package table

import (
	"sync"

	"github.com/emirpasic/gods/v2/maps/treemap"
	"github.com/emirpasic/gods/v2/sets/treeset"

	"github.com/liznear/golden-raspberry/model"
)

// memTable holds every live movie in memory, ordered by id, together with a producer index.
type memTable struct {
	m sync.RWMutex

	movies *treemap.Map[int64, model.Movie]
	// producers maps a producer name to the ids of the movies crediting it.
	producers *treemap.Map[string, *treeset.Set[int64]]
}

func newMemTable() *memTable {
	return &memTable{
		movies:    treemap.New[int64, model.Movie](),
		producers: treemap.New[string, *treeset.Set[int64]](),
	}
}

// apply applies one record. Records must be applied in the order they were logged.
func (t *memTable) apply(r *record) {
	t.m.Lock()
	defer t.m.Unlock()

	if old, ok := t.movies.Get(r.id); ok {
		t.unindex(old)
	}
	if r.deleted {
		t.movies.Remove(r.id)
		return
	}
	m := r.movie.Clone()
	m.ID = r.id
	t.movies.Put(r.id, m)
	t.index(m)
}

func (t *memTable) index(m model.Movie) {
	for _, p := range m.Producers {
		ids, ok := t.producers.Get(p)
		if !ok {
			ids = treeset.New[int64]()
			t.producers.Put(p, ids)
		}
		ids.Add(m.ID)
	}
}

func (t *memTable) unindex(m model.Movie) {
	for _, p := range m.Producers {
		ids, ok := t.producers.Get(p)
		if !ok {
			continue
		}
		ids.Remove(m.ID)
		if ids.Empty() {
			t.producers.Remove(p)
		}
	}
}

func (t *memTable) get(id int64) (model.Movie, bool) {
	t.m.RLock()
	defer t.m.RUnlock()

	m, ok := t.movies.Get(id)
	if !ok {
		return model.Movie{}, false
	}
	return m.Clone(), true
}

func (t *memTable) list(f Filter) []model.Movie {
	t.m.RLock()
	defer t.m.RUnlock()

	ret := []model.Movie{}
	iter := t.movies.Iterator()
	for iter.Next() {
		m := iter.Value()
		if f.match(m) {
			ret = append(ret, m.Clone())
		}
	}
	return ret
}

// winFacts returns one fact per (winning movie, credited producer) pair. Duplicated credits
// on the same movie are kept.
func (t *memTable) winFacts() []model.WinFact {
	t.m.RLock()
	defer t.m.RUnlock()

	ret := []model.WinFact{}
	iter := t.movies.Iterator()
	for iter.Next() {
		m := iter.Value()
		if !m.Winner {
			continue
		}
		for _, p := range m.Producers {
			ret = append(ret, model.WinFact{ProducerName: p, Year: m.Year})
		}
	}
	return ret
}

func (t *memTable) producerSummaries() []model.ProducerSummary {
	t.m.RLock()
	defer t.m.RUnlock()

	ret := []model.ProducerSummary{}
	iter := t.producers.Iterator()
	for iter.Next() {
		s := model.ProducerSummary{Name: iter.Key(), Movies: iter.Value().Size()}
		for _, id := range iter.Value().Values() {
			if m, ok := t.movies.Get(id); ok && m.Winner {
				s.Wins++
			}
		}
		ret = append(ret, s)
	}
	return ret
}

// records returns every live movie as a record, ordered by id.
func (t *memTable) records() []*record {
	t.m.RLock()
	defer t.m.RUnlock()

	ret := make([]*record, 0, t.movies.Size())
	iter := t.movies.Iterator()
	for iter.Next() {
		ret = append(ret, newRecord(iter.Value().Clone()))
	}
	return ret
}

func (t *memTable) len() int {
	t.m.RLock()
	defer t.m.RUnlock()

	return t.movies.Size()
}

// span returns the years covered by the stored movies, or nil if there are none.
func (t *memTable) span() *model.YearSpan {
	t.m.RLock()
	defer t.m.RUnlock()

	var s *model.YearSpan
	for _, m := range t.movies.Values() {
		s = s.Extend(m.Year)
	}
	return s
}

// Filter selects movies in List.
type Filter struct {
	// Span keeps movies released inside it. Nil keeps all years.
	Span *model.YearSpan
	// WinnersOnly keeps award winners only.
	WinnersOnly bool
}

func (f Filter) match(m model.Movie) bool {
	if f.WinnersOnly && !m.Winner {
		return false
	}
	return f.Span.Contains(m.Year)
}
