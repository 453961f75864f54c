package model

const DefaultSwipeThreshold = 100

// ClassifySwipe maps a drag offset to an energy tag. Horizontal swipes win
// over vertical ones; only an upward swipe counts vertically.
func ClassifySwipe(dx, dy, threshold float64) (Energy, bool) {
	if threshold <= 0 {
		threshold = DefaultSwipeThreshold
	}
	switch {
	case dx > threshold:
		return EnergyGreen, true
	case dx < -threshold:
		return EnergyRed, true
	case dy < -threshold:
		return EnergyYellow, true
	default:
		return EnergyNone, false
	}
}
