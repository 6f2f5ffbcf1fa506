package formula

import (
	"math"
	"strconv"
)

// mathNamespace is the "math" name injected into formulas. It mirrors
// the standard math surface formula authors expect (abs, min, max,
// round, trigonometric functions). Arguments are coerced leniently:
// numbers pass through, numeric strings parse, booleans count as 0/1,
// anything else becomes NaN and surfaces as a non-finite-result error
// after evaluation. There is deliberately no random() here: formula
// evaluation must stay deterministic.
var mathNamespace = map[string]any{
	"abs":   func(v any) float64 { return math.Abs(toFloat(v)) },
	"min":   minOf,
	"max":   maxOf,
	"round": func(v any) float64 { return math.Round(toFloat(v)) },
	"floor": func(v any) float64 { return math.Floor(toFloat(v)) },
	"ceil":  func(v any) float64 { return math.Ceil(toFloat(v)) },
	"trunc": func(v any) float64 { return math.Trunc(toFloat(v)) },
	"sqrt":  func(v any) float64 { return math.Sqrt(toFloat(v)) },
	"pow":   func(base, exp any) float64 { return math.Pow(toFloat(base), toFloat(exp)) },
	"log":   func(v any) float64 { return math.Log(toFloat(v)) },
	"log10": func(v any) float64 { return math.Log10(toFloat(v)) },
	"log2":  func(v any) float64 { return math.Log2(toFloat(v)) },
	"exp":   func(v any) float64 { return math.Exp(toFloat(v)) },
	"sin":   func(v any) float64 { return math.Sin(toFloat(v)) },
	"cos":   func(v any) float64 { return math.Cos(toFloat(v)) },
	"tan":   func(v any) float64 { return math.Tan(toFloat(v)) },
	"asin":  func(v any) float64 { return math.Asin(toFloat(v)) },
	"acos":  func(v any) float64 { return math.Acos(toFloat(v)) },
	"atan":  func(v any) float64 { return math.Atan(toFloat(v)) },
	"sign":  func(v any) float64 { return sign(toFloat(v)) },
	"PI":    math.Pi,
	"E":     math.E,
}

func toFloat(v any) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case float32:
		return float64(x)
	case int:
		return float64(x)
	case int32:
		return float64(x)
	case int64:
		return float64(x)
	case uint:
		return float64(x)
	case uint64:
		return float64(x)
	case bool:
		if x {
			return 1
		}
		return 0
	case string:
		if f, err := strconv.ParseFloat(x, 64); err == nil {
			return f
		}
		return math.NaN()
	default:
		return math.NaN()
	}
}

func minOf(vs ...any) float64 {
	if len(vs) == 0 {
		return math.NaN()
	}
	min := toFloat(vs[0])
	for _, v := range vs[1:] {
		min = math.Min(min, toFloat(v))
	}
	return min
}

func maxOf(vs ...any) float64 {
	if len(vs) == 0 {
		return math.NaN()
	}
	max := toFloat(vs[0])
	for _, v := range vs[1:] {
		max = math.Max(max, toFloat(v))
	}
	return max
}

func sign(f float64) float64 {
	switch {
	case f > 0:
		return 1
	case f < 0:
		return -1
	default:
		return f // preserves 0 and NaN
	}
}
