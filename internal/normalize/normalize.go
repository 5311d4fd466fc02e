// Package normalize converts the display strings scraped from match reports
// into typed values.
package normalize

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ErrMalformed is returned for any field that cannot be parsed. A malformed
// field fails the whole record; nothing is zero-filled.
var ErrMalformed = errors.New("malformed field")

// StartTimeLayout matches "3/14/21 @ 9:05 PM".
const StartTimeLayout = "1/2/06 @ 3:04 PM"

// Number is a parsed stat. Integral values keep IsFloat false.
type Number struct {
	Int     int64
	Float   float64
	IsFloat bool
}

// Float64 returns the value as a float regardless of its kind.
func (n Number) Float64() float64 {
	if n.IsFloat {
		return n.Float
	}
	return float64(n.Int)
}

// Parse handles the three stat formats the site uses: thousands separated
// integers ("1,234"), decimals ("1,234.5") and percents ("12%" -> 0.12).
func Parse(raw string) (Number, error) {
	clean := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if clean == "" {
		return Number{}, fmt.Errorf("%w: empty number", ErrMalformed)
	}

	if pct, ok := strings.CutSuffix(clean, "%"); ok {
		f, err := decimal(pct)
		if err != nil {
			return Number{}, fmt.Errorf("%w: percent %q", ErrMalformed, raw)
		}
		return Number{Float: f / 100, IsFloat: true}, nil
	}

	if strings.Contains(clean, ".") {
		f, err := decimal(clean)
		if err != nil {
			return Number{}, fmt.Errorf("%w: decimal %q", ErrMalformed, raw)
		}
		return Number{Float: f, IsFloat: true}, nil
	}

	i, err := strconv.ParseInt(clean, 10, 64)
	if err != nil {
		return Number{}, fmt.Errorf("%w: integer %q", ErrMalformed, raw)
	}
	return Number{Int: i}, nil
}

// Int parses a count field. Counts must be integral.
func Int(raw string) (int, error) {
	n, err := Parse(raw)
	if err != nil {
		return 0, err
	}
	if n.IsFloat {
		return 0, fmt.Errorf("%w: expected integer, got %q", ErrMalformed, raw)
	}
	return int(n.Int), nil
}

// Float parses a rate field; integral values are widened.
func Float(raw string) (float64, error) {
	n, err := Parse(raw)
	if err != nil {
		return 0, err
	}
	return n.Float64(), nil
}

// Duration converts "9m 32s" or "1h 15m" to minutes.
func Duration(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	if strings.Contains(s, "h") {
		h, rest, ok := strings.Cut(s, "h")
		if !ok {
			return 0, fmt.Errorf("%w: duration %q", ErrMalformed, raw)
		}
		hours, err := strconv.Atoi(strings.TrimSpace(h))
		if err != nil {
			return 0, fmt.Errorf("%w: duration hours %q", ErrMalformed, raw)
		}
		mins, err := strconv.Atoi(strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(rest), "m")))
		if err != nil {
			return 0, fmt.Errorf("%w: duration minutes %q", ErrMalformed, raw)
		}
		return float64(hours*60 + mins), nil
	}

	m, rest, ok := strings.Cut(s, "m")
	if !ok {
		return 0, fmt.Errorf("%w: duration %q", ErrMalformed, raw)
	}
	mins, err := strconv.Atoi(strings.TrimSpace(m))
	if err != nil {
		return 0, fmt.Errorf("%w: duration minutes %q", ErrMalformed, raw)
	}
	secs, err := strconv.Atoi(strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(rest), "s")))
	if err != nil {
		return 0, fmt.Errorf("%w: duration seconds %q", ErrMalformed, raw)
	}
	return float64(mins) + float64(secs)/60, nil
}

// LongestHeadshot returns the distance in meters. The site prints meters as
// "412m" and kilometers as "1.2k".
func LongestHeadshot(raw string) (int, error) {
	s := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if km, ok := strings.CutSuffix(s, "k"); ok {
		f, err := decimal(km)
		if err != nil {
			return 0, fmt.Errorf("%w: headshot distance %q", ErrMalformed, raw)
		}
		return int(math.Round(f * 1000)), nil
	}
	m, _ := strings.CutSuffix(s, "m")
	f, err := decimal(m)
	if err != nil {
		return 0, fmt.Errorf("%w: headshot distance %q", ErrMalformed, raw)
	}
	return int(math.Round(f)), nil
}

// decimal parses plain base-10 notation only: an optional sign, digits and at
// most one point. strconv alone would also take "NaN", "Inf", exponents and hex.
func decimal(s string) (float64, error) {
	digits := strings.TrimPrefix(s, "-")
	if digits == "" || strings.Count(digits, ".") > 1 || strings.Trim(digits, ".") == "" {
		return 0, fmt.Errorf("not a decimal: %q", s)
	}
	for _, r := range digits {
		if (r < '0' || r > '9') && r != '.' {
			return 0, fmt.Errorf("not a decimal: %q", s)
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("not a decimal: %q", s)
	}
	return f, nil
}

// StartTime parses the report timestamp, which carries no zone; it is read as UTC.
func StartTime(raw string) (time.Time, error) {
	t, err := time.Parse(StartTimeLayout, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: start time %q", ErrMalformed, raw)
	}
	return t, nil
}
