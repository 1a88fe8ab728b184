// Package interval finds the producers with the shortest and the longest gap
// between two consecutive award wins.
package interval

import (
	"context"
	"fmt"
	"slices"

	"github.com/emirpasic/gods/v2/maps/treemap"

	"github.com/liznear/golden-raspberry/model"
)

// Provider supplies the win facts of one consistent catalog snapshot.
type Provider interface {
	WinFacts(ctx context.Context) ([]model.WinFact, error)
}

// Analyze builds the interval report for facts.
//
// Facts may be unordered and may repeat. A repeated (producer, year) pair is a separate win
// and yields a zero gap. Results are ordered by producer, then by previous win.
func Analyze(facts []model.WinFact) model.IntervalReport {
	report := model.IntervalReport{
		Min: []model.ProducerInterval{},
		Max: []model.ProducerInterval{},
	}

	gaps := consecutiveGaps(groupYears(facts))
	if len(gaps) == 0 {
		return report
	}

	lo, hi := gaps[0].Interval, gaps[0].Interval
	for _, g := range gaps[1:] {
		lo = min(lo, g.Interval)
		hi = max(hi, g.Interval)
	}
	for _, g := range gaps {
		if g.Interval == lo {
			report.Min = append(report.Min, g)
		}
		if g.Interval == hi {
			report.Max = append(report.Max, g)
		}
	}
	return report
}

// Report fetches facts from p and analyzes them. Provider failures are returned before
// any analysis happens.
func Report(ctx context.Context, p Provider) (model.IntervalReport, error) {
	facts, err := p.WinFacts(ctx)
	if err != nil {
		return model.IntervalReport{}, fmt.Errorf("interval: fail to get win facts: %w", err)
	}
	return Analyze(facts), nil
}

// groupYears partitions facts by producer. Each producer's years are sorted ascending.
func groupYears(facts []model.WinFact) *treemap.Map[string, []int] {
	groups := treemap.New[string, []int]()
	for _, f := range facts {
		years, _ := groups.Get(f.ProducerName)
		groups.Put(f.ProducerName, append(years, f.Year))
	}
	iter := groups.Iterator()
	for iter.Next() {
		slices.Sort(iter.Value())
	}
	return groups
}

// consecutiveGaps emits one interval per adjacent pair of years. Producers with a single
// win contribute nothing.
func consecutiveGaps(groups *treemap.Map[string, []int]) []model.ProducerInterval {
	var ret []model.ProducerInterval
	iter := groups.Iterator()
	for iter.Next() {
		years := iter.Value()
		for i := 0; i+1 < len(years); i++ {
			ret = append(ret, model.ProducerInterval{
				Producer:     iter.Key(),
				Interval:     years[i+1] - years[i],
				PreviousWin:  years[i],
				FollowingWin: years[i+1],
			})
		}
	}
	return ret
}
