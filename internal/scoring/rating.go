package scoring

// RateScore maps a final score to its ordinal label. The ladder is
// left-closed: exactly 0.9 is already "Outstanding Contributor".
func RateScore(score float64) string {
	switch {
	case score >= 0.9:
		return "Outstanding Contributor"
	case score >= 0.8:
		return "Exceptional Developer"
	case score >= 0.7:
		return "Excellent Developer"
	case score >= 0.6:
		return "Very Good Developer"
	case score >= 0.5:
		return "Strong Developer"
	case score >= 0.4:
		return "Good Developer"
	case score >= 0.3:
		return "Promising Developer"
	case score >= 0.2:
		return "Developing Contributor"
	default:
		return "Beginner"
	}
}
