package model

// WinFact is one producer credited on one winning movie released in Year.
type WinFact struct {
	ProducerName string
	Year         int
}

// ProducerInterval is the gap between two consecutive wins of the same producer.
type ProducerInterval struct {
	Producer     string `json:"producer" yaml:"producer"`
	Interval     int    `json:"interval" yaml:"interval"`
	PreviousWin  int    `json:"previousWin" yaml:"previousWin"`
	FollowingWin int    `json:"followingWin" yaml:"followingWin"`
}

// IntervalReport lists the producer intervals with the smallest and the largest gap.
type IntervalReport struct {
	Min []ProducerInterval `json:"min" yaml:"min"`
	Max []ProducerInterval `json:"max" yaml:"max"`
}

// ProducerSummary describes one producer of the catalog.
type ProducerSummary struct {
	Name   string `json:"name"`
	Movies int    `json:"movies"`
	Wins   int    `json:"wins"`
}
