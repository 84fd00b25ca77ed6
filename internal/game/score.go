package game

// ScoreRule converts one tick of world advance into score. dt is the
// clamped step in seconds.
type ScoreRule interface {
	ScoreDelta(rate, multiplier, dt float64) float64
}

// LinearScore awards rate*multiplier per second of travel.
type LinearScore struct{}

func (LinearScore) ScoreDelta(rate, multiplier, dt float64) float64 {
	if rate <= 0 || dt <= 0 {
		return 0
	}
	return rate * multiplier * dt
}
