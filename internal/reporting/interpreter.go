package reporting

// InterpretScore returns a plain-language label for an overall score (0–5).
func InterpretScore(score float64) string {
	switch {
	case score >= 4.5:
		return "Excellent"
	case score >= 3.5:
		return "Good"
	case score >= 2.5:
		return "Needs Work"
	default:
		return "Poor"
	}
}
