package jobs

// CalculateProgress returns the percent of work completed, clamped to
// [0, 100]. A zero or negative total yields 0 rather than dividing by zero;
// processed counts past the total report 100.
func CalculateProgress(total, processed int) float64 {
	if total <= 0 {
		return 0
	}
	pct := float64(processed) / float64(total) * 100
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}
