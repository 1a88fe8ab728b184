package model

import "testing"

func TestYearSpan_Fusion(t *testing.T) {
	tcs := []struct {
		name     string
		spans    []*YearSpan
		expected *YearSpan
	}{
		{
			name:     "Empty",
			spans:    nil,
			expected: nil,
		},
		{
			name:     "OneSpan",
			spans:    []*YearSpan{NewYearSpan(1980, 1981)},
			expected: NewYearSpan(1980, 1981),
		},
		{
			name:     "HaveOverlap",
			spans:    []*YearSpan{NewYearSpan(1980, 1990), NewYearSpan(1985, 1995)},
			expected: NewYearSpan(1980, 1995),
		},
		{
			name:     "NoOverlap",
			spans:    []*YearSpan{NewYearSpan(2000, 2001), NewYearSpan(1980, 1982)},
			expected: NewYearSpan(1980, 2001),
		},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			got := Fusion(tc.spans)
			if got == nil {
				if tc.expected != nil {
					t.Errorf("Got nil, but want %v", tc.expected)
				}
				return
			}
			if *got != *tc.expected {
				t.Errorf("Got %v, want %v", got, tc.expected)
			}
		})
	}
}

func TestYearSpan_ContainsExtend(t *testing.T) {
	var s *YearSpan
	if !s.Contains(1234) {
		t.Errorf("Nil span should contain every year")
	}
	s = s.Extend(1990)
	s = s.Extend(1985)
	if *s != (YearSpan{1985, 1990}) {
		t.Errorf("Got %v, want [1985, 1990]", s)
	}
	if s.Contains(1991) || !s.Contains(1985) {
		t.Errorf("Contains is wrong for %v", s)
	}
}
