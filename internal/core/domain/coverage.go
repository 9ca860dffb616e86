package domain

import (
	"encoding/json"
	"math"
)

// Percentage is a covered percentage. Values are never clamped: a zero-area
// subject yields NaN or ±Inf and overlap artifacts may exceed 100.
type Percentage float64

// IsFinite reports whether p is neither NaN nor infinite.
func (p Percentage) IsFinite() bool {
	f := float64(p)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// MarshalJSON encodes non-finite values as null, since JSON has no
// representation for NaN or infinity.
func (p Percentage) MarshalJSON() ([]byte, error) {
	if !p.IsFinite() {
		return []byte("null"), nil
	}
	return json.Marshal(float64(p))
}

// UnmarshalJSON maps null back to NaN.
func (p *Percentage) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*p = Percentage(math.NaN())
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*p = Percentage(f)
	return nil
}

// CoverageResult is the outcome of one coverage computation.
type CoverageResult struct {
	CoveredPercentage Percentage
	Leftover          *MultiPolygon
	Covered           *MultiPolygon
}

// AggregateCoverageResult holds the coverage of all candidates combined
// plus one independent result per candidate, in input order.
type AggregateCoverageResult struct {
	CoverageResult
	Partials []CoverageResult
}
