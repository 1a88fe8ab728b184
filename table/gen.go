package table

import (
	"fmt"
	"os"
	"sync/atomic"

	"github.com/emirpasic/gods/v2/sets/treeset"
)

// Gen is the generation of a snapshot. It is unique and monotonically increasing, and it is
// used as the file name of both the snapshot and the WAL written after it.
//
// Gen 0 has no snapshot file: it is the WAL of a catalog that was never checkpointed.
type Gen int64

// GenIter generates Gen
type GenIter struct {
	gen atomic.Int64
}

func NewGenIter(start Gen) *GenIter {
	iter := &GenIter{}
	iter.gen.Store(int64(start))
	return iter
}

func (i *GenIter) NextGen() Gen {
	return Gen(i.gen.Add(1))
}

// listGens returns the generations of all files in dir with the given extension.
func listGens(dir, ext string) (*treeset.Set[Gen], error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("gen: fail to read dir %q: %w", dir, err)
	}
	gens := treeset.New[Gen]()
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if g, ok := parseGen(e.Name(), ext); ok {
			gens.Add(g)
		}
	}
	return gens, nil
}

// latestGen returns the highest snapshot generation in dir, or 0 if there is none.
func latestGen(dir string) (Gen, error) {
	gens, err := listGens(dir, snapshotExtension)
	if err != nil {
		return 0, err
	}
	if gens.Empty() {
		return 0, nil
	}
	values := gens.Values()
	return values[len(values)-1], nil
}
