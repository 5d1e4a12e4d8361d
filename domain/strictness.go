package domain

import "math"

const (
	DefaultStrictness = 50
	MinStrictness     = 0
	MaxStrictness     = 100
)

func ClampStrictness(s int) int {
	if s < MinStrictness {
		return MinStrictness
	}
	if s > MaxStrictness {
		return MaxStrictness
	}
	return s
}

// StrictnessLabel maps the 0-100 slider onto the grading mode named in the prompt.
func StrictnessLabel(s int) string {
	switch s = ClampStrictness(s); {
	case s <= 25:
		return "lenient"
	case s <= 50:
		return "balanced"
	case s <= 75:
		return "strict"
	default:
		return "ruthless"
	}
}

// Temperature is max(0, 0.5 - strictness/200): 0.5 at strictness 0, 0 from 100 up.
// Negative strictness is treated as 0.
func Temperature(s int) float64 {
	if s < MinStrictness {
		s = MinStrictness
	}
	return math.Max(0, 0.5-float64(s)/200)
}
