package model

import "fmt"

// YearSpan is an inclusive range of years.
type YearSpan struct {
	Min int
	Max int
}

func NewYearSpan(min, max int) *YearSpan {
	return &YearSpan{min, max}
}

// Fusion returns the smallest span covering all spans, or nil if there are none.
func Fusion(spans []*YearSpan) *YearSpan {
	if len(spans) == 0 {
		return nil
	}
	ret := &YearSpan{
		Min: spans[0].Min,
		Max: spans[0].Max,
	}
	for i := 1; i < len(spans); i++ {
		ret.Min = min(spans[i].Min, ret.Min)
		ret.Max = max(spans[i].Max, ret.Max)
	}
	return ret
}

// Contains reports whether year is in s. A nil span contains every year.
func (s *YearSpan) Contains(year int) bool {
	if s == nil {
		return true
	}
	return s.Min <= year && year <= s.Max
}

// Extend grows s to cover year and returns the result. A nil span becomes [year, year].
func (s *YearSpan) Extend(year int) *YearSpan {
	if s == nil {
		return NewYearSpan(year, year)
	}
	return Fusion([]*YearSpan{s, {year, year}})
}

func (s *YearSpan) String() string {
	return fmt.Sprintf("[%d, %d]", s.Min, s.Max)
}
