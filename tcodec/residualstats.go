package tcodec

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// ResidualStats summarizes a signed residual grid (and, optionally, its
// quantized counterpart) for the DecisionEngine and for observability.
type ResidualStats struct {
	ZeroMass float64 // fraction of |R[k]| <= T
	MeanAbs  float64 // mean of |R[k]|
	P95      float64 // 95th percentile of |R[k]|
	P99      float64 // 99th percentile of |R[k]|
	Entropy  float64 // bits/sample, from quantized symbols if available
	BpsRes   float64 // entropy estimate fed to the DecisionEngine
}

// ComputeResidualStats builds the six summaries in §4.4 over r (and,
// optionally, q — pass nil to use the magnitude-histogram approximation).
// hist is a scratch buffer of at least histogramBins entries; it is reused
// (zeroed in place) rather than reallocated when already large enough, and
// returned so the caller can carry it to the next frame.
func ComputeResidualStats(r []int32, q []int32, deadZoneT uint32, hist []uint32) (ResidualStats, []uint32) {
	if len(r) == 0 {
		return ResidualStats{}, hist
	}

	if cap(hist) < histogramBins {
		hist = make([]uint32, histogramBins)
	}
	hist = hist[:histogramBins]
	for i := range hist {
		hist[i] = 0
	}

	n := len(r)
	var zeroCount, sumAbs int64
	for _, v := range r {
		a := absInt32(v)
		if uint32(a) <= deadZoneT {
			zeroCount++
		}
		sumAbs += int64(a)
		bin := a
		if bin >= histogramBins {
			bin = histogramBins - 1
		}
		hist[bin]++
	}

	stats := ResidualStats{
		ZeroMass: float64(zeroCount) / float64(n),
		MeanAbs:  float64(sumAbs) / float64(n),
	}

	p95Rank := uint64(0.95 * float64(n))
	p99Rank := uint64(0.99 * float64(n))
	stats.P95, stats.P99 = percentilesFromHistogram(hist, p95Rank, p99Rank)

	if q != nil {
		stats.Entropy = quantizedSymbolEntropy(q)
	} else {
		stats.Entropy = magnitudeHistogramEntropy(hist, n) + 1.0
	}
	stats.BpsRes = stats.Entropy

	return stats, hist
}

// percentilesFromHistogram performs a single cumulative walk over hist to
// find the bin containing the p95Rank-th and p99Rank-th smallest |R[k]|.
func percentilesFromHistogram(hist []uint32, p95Rank, p99Rank uint64) (p95, p99 float64) {
	var cum uint64
	haveP95, haveP99 := false, false
	for bin, count := range hist {
		cum += uint64(count)
		if !haveP95 && cum >= p95Rank {
			p95 = float64(bin)
			haveP95 = true
		}
		if !haveP99 && cum >= p99Rank {
			p99 = float64(bin)
			haveP99 = true
			break
		}
	}
	if !haveP95 {
		p95 = float64(len(hist) - 1)
	}
	if !haveP99 {
		p99 = float64(len(hist) - 1)
	}
	return p95, p99
}

// quantizedSymbolEntropy computes the Shannon entropy, in bits/sample, of
// the quantized-symbol distribution using gonum's stat.Entropy.
func quantizedSymbolEntropy(q []int32) float64 {
	counts := make(map[int32]int, 64)
	for _, v := range q {
		counts[v]++
	}
	p := make([]float64, 0, len(counts))
	n := float64(len(q))
	for _, c := range counts {
		p = append(p, float64(c)/n)
	}
	return stat.Entropy(p) / math.Ln2 // gonum's Entropy is in nats
}

// magnitudeHistogramEntropy approximates the entropy of |R[k]| from its
// 1024-bin histogram, without a quantized grid available.
func magnitudeHistogramEntropy(hist []uint32, n int) float64 {
	p := make([]float64, 0, histogramBins)
	nf := float64(n)
	for _, c := range hist {
		if c == 0 {
			continue
		}
		p = append(p, float64(c)/nf)
	}
	return stat.Entropy(p) / math.Ln2
}
