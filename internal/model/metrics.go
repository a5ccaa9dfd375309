package model

// DerivedMetrics holds the scalar statistics computed from one series.
type DerivedMetrics struct {
	LatestClose float64
	FirstClose  float64
	Change      float64
	ChangePct   float64
	High        float64
	Low         float64
	AvgVolume   float64
}

// IsPositive reports whether the window change counts as a gain. A flat window counts as positive.
func (m DerivedMetrics) IsPositive() bool {
	return m.Change >= 0
}
