// Package spread computes the equity-spread percentage shown across the
// dashboard. The computation is pure: callers merge sourced values with any
// active overrides and pass the result in.
package spread

// Inputs are the merged values the spread is computed from. Amounts are in
// dollars; nil means the value is unknown, which is different from zero.
type Inputs struct {
	ApproxUpset    *float64
	JudgmentAmount *float64
	OpeningBid     *float64
	Zestimate      *float64
	EstimatedARV   *float64
}

// Calculate returns the spread percent, or nil when the spread is undefined.
// Undefined means "no data" and must never be rendered as 0%.
//
// Cost basis is the largest of upset price, judgment amount and opening bid.
// Starting bid and bid cap are tracked for bidding purposes only and never
// participate here. Valuation prefers the zestimate, falling back to the
// estimated ARV.
func Calculate(in Inputs) *float64 {
	costBasis := max3(value(in.ApproxUpset), value(in.JudgmentAmount), value(in.OpeningBid))

	valuation := 0.0
	switch {
	case in.Zestimate != nil && *in.Zestimate > 0:
		valuation = *in.Zestimate
	case in.EstimatedARV != nil && *in.EstimatedARV > 0:
		valuation = *in.EstimatedARV
	}

	if valuation == 0 || costBasis == 0 {
		return nil
	}

	percent := ((valuation - costBasis) / costBasis) * 100
	return &percent
}

func value(v *float64) float64 {
	if v == nil || *v < 0 {
		return 0
	}
	return *v
}

func max3(a, b, c float64) float64 {
	m := a
	if b > m {
		m = b
	}
	if c > m {
		m = c
	}
	return m
}
