package spread

import (
	"math"
	"testing"
)

func f(v float64) *float64 { return &v }

func TestCalculatePrefersZestimate(t *testing.T) {
	got := Calculate(Inputs{
		ApproxUpset: f(245000),
		Zestimate:   f(420000),
	})
	if got == nil {
		t.Fatal("expected a spread")
	}
	want := ((420000.0 - 245000.0) / 245000.0) * 100
	if math.Abs(*got-want) > 1e-9 {
		t.Fatalf("spread = %v, want %v", *got, want)
	}
}

func TestCalculateFallsBackToEstimatedARV(t *testing.T) {
	got := Calculate(Inputs{
		JudgmentAmount: f(176300),
		EstimatedARV:   f(365000),
	})
	if got == nil {
		t.Fatal("expected a spread")
	}
	want := ((365000.0 - 176300.0) / 176300.0) * 100
	if math.Abs(*got-want) > 1e-9 {
		t.Fatalf("spread = %v, want %v", *got, want)
	}
}

func TestCalculateCostBasisIsLargestDebt(t *testing.T) {
	got := Calculate(Inputs{
		ApproxUpset:    f(200000),
		JudgmentAmount: f(310000),
		OpeningBid:     f(150000),
		Zestimate:      f(310000),
	})
	if got == nil {
		t.Fatal("expected a spread")
	}
	if *got != 0 {
		t.Fatalf("spread = %v, want 0 (valuation equals largest debt)", *got)
	}
}

func TestCalculateNegativeSpread(t *testing.T) {
	got := Calculate(Inputs{
		ApproxUpset: f(400000),
		Zestimate:   f(300000),
	})
	if got == nil {
		t.Fatal("expected a spread")
	}
	if *got >= 0 {
		t.Fatalf("spread = %v, want negative", *got)
	}
	want := ((300000.0 - 400000.0) / 400000.0) * 100
	if math.Abs(*got-want) > 1e-9 {
		t.Fatalf("spread = %v, want %v", *got, want)
	}
}

func TestCalculateUndefined(t *testing.T) {
	cases := map[string]Inputs{
		"no inputs":          {},
		"no valuation":       {ApproxUpset: f(245000)},
		"no cost basis":      {Zestimate: f(420000)},
		"zero valuation":     {ApproxUpset: f(245000), Zestimate: f(0)},
		"zero cost basis":    {ApproxUpset: f(0), Zestimate: f(420000)},
		"nil amounts remain": {ApproxUpset: nil, Zestimate: nil},
	}
	for name, in := range cases {
		if got := Calculate(in); got != nil {
			t.Fatalf("%s: spread = %v, want nil", name, *got)
		}
	}
}
