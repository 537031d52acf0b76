package tcp

import (
	"math"
	"sort"
)

// RTTCap bounds the number of samples retained for percentile computation.
// Samples beyond the cap still increment Count, but are discarded.
const RTTCap = 4096

// RTTStats accumulates round-trip-time samples, in microseconds, for one
// direction of a conversation.
type RTTStats struct {
	samples []uint64
	count   uint64
	minUS   uint64
	maxUS   uint64
}

// AddSample records one RTT observation.
func (r *RTTStats) AddSample(us uint64) {
	if r.count == 0 {
		r.minUS = us
		r.maxUS = us
	} else {
		if us < r.minUS {
			r.minUS = us
		}
		if us > r.maxUS {
			r.maxUS = us
		}
	}
	r.count++
	if len(r.samples) < RTTCap {
		r.samples = append(r.samples, us)
	}
}

// Count returns the total number of samples observed, including any that
// were discarded after the cap was reached.
func (r *RTTStats) Count() uint64 {
	return r.count
}

// MinUS returns the smallest sample, or 0 when there are none.
func (r *RTTStats) MinUS() uint64 {
	return r.minUS
}

// MaxUS returns the largest sample, or 0 when there are none.
func (r *RTTStats) MaxUS() uint64 {
	return r.maxUS
}

// PercentilesMS returns the p50 and p95 of the retained samples, converted
// to milliseconds.  Both are 0 when no samples were retained.
func (r *RTTStats) PercentilesMS() (p50, p95 float64) {
	if len(r.samples) == 0 {
		return 0, 0
	}
	v := make([]uint64, len(r.samples))
	copy(v, r.samples)
	sort.Slice(v, func(i, j int) bool { return v[i] < v[j] })
	p50 = float64(quantileUS(v, 0.50)) / 1000.0
	p95 = float64(quantileUS(v, 0.95)) / 1000.0
	return p50, p95
}

func quantileUS(sorted []uint64, q float64) uint64 {
	if len(sorted) == 0 {
		return 0
	}
	pos := int(math.Round(float64(len(sorted)-1) * q))
	return sorted[pos]
}
