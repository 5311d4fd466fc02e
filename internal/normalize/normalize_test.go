package normalize

import (
	"errors"
	"math"
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	cases := []struct {
		in      string
		isFloat bool
		want    float64
	}{
		{"12%", true, 0.12},
		{"1,234", false, 1234},
		{"1,234.5", true, 1234.5},
		{"0", false, 0},
		{"2.50", true, 2.5},
		{"100%", true, 1},
	}
	for _, c := range cases {
		got, err := Parse(c.in)
		if err != nil {
			t.Fatalf("Parse(%q): %v", c.in, err)
		}
		if got.IsFloat != c.isFloat {
			t.Errorf("Parse(%q): IsFloat=%v, want %v", c.in, got.IsFloat, c.isFloat)
		}
		if math.Abs(got.Float64()-c.want) > 1e-9 {
			t.Errorf("Parse(%q) = %v, want %v", c.in, got.Float64(), c.want)
		}
	}
}

func TestParseIntKeepsInteger(t *testing.T) {
	got, err := Parse("1,234")
	if err != nil {
		t.Fatal(err)
	}
	if got.IsFloat || got.Int != 1234 {
		t.Errorf("expected int 1234, got %+v", got)
	}
}

func TestParseMalformed(t *testing.T) {
	for _, in := range []string{
		"", "abc", "12x", "%", "1.2.3", "--", ".",
		"NaN", "nan%", "inf%", "Infinity", "+Inf.0", "NaN.0", "0x1.8p1", "0x10", "1e3", "1.5e2%",
	} {
		if _, err := Parse(in); !errors.Is(err, ErrMalformed) {
			t.Errorf("Parse(%q): expected ErrMalformed, got %v", in, err)
		}
	}
}

func TestIntRejectsDecimal(t *testing.T) {
	if _, err := Int("3.5"); !errors.Is(err, ErrMalformed) {
		t.Errorf("expected ErrMalformed for decimal count, got %v", err)
	}
	n, err := Int("2,001")
	if err != nil || n != 2001 {
		t.Errorf("Int(2,001) = %d, %v", n, err)
	}
}

func TestDuration(t *testing.T) {
	got, err := Duration("9m 32s")
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(got-(9+32.0/60)) > 1e-9 {
		t.Errorf("9m 32s: got %v", got)
	}

	got, err = Duration("1h 15m")
	if err != nil {
		t.Fatal(err)
	}
	if got != 75 {
		t.Errorf("1h 15m: got %v, want 75", got)
	}

	for _, bad := range []string{"", "15", "xm ys", "1h", "9m"} {
		if _, err := Duration(bad); !errors.Is(err, ErrMalformed) {
			t.Errorf("Duration(%q): expected ErrMalformed, got %v", bad, err)
		}
	}
}

func TestLongestHeadshot(t *testing.T) {
	cases := map[string]int{"900m": 900, "1.2k": 1200, "1k": 1000, "0m": 0}
	for in, want := range cases {
		got, err := LongestHeadshot(in)
		if err != nil {
			t.Fatalf("LongestHeadshot(%q): %v", in, err)
		}
		if got != want {
			t.Errorf("LongestHeadshot(%q) = %d, want %d", in, got, want)
		}
	}
	for _, bad := range []string{"farm", "NaN", "nanm", "infk", "Infm", "0x1p3k", "1e3m", "m", "k"} {
		if _, err := LongestHeadshot(bad); !errors.Is(err, ErrMalformed) {
			t.Errorf("LongestHeadshot(%q): expected ErrMalformed, got %v", bad, err)
		}
	}
}

func TestStartTime(t *testing.T) {
	got, err := StartTime("3/14/21 @ 9:05 PM")
	if err != nil {
		t.Fatal(err)
	}
	want := time.Date(2021, 3, 14, 21, 5, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}

	got, err = StartTime("11/02/20 @ 12:30 AM")
	if err != nil {
		t.Fatal(err)
	}
	if got.Hour() != 0 || got.Month() != time.November || got.Day() != 2 {
		t.Errorf("unexpected parse %v", got)
	}

	if _, err := StartTime("yesterday"); !errors.Is(err, ErrMalformed) {
		t.Errorf("expected ErrMalformed, got %v", err)
	}
}
