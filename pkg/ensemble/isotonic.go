package ensemble

import (
	"sort"

	"github.com/lotecalab/loteca-engine/core"
)

// Sample is one historical (predicted triple, realized outcome) pair used
// to fit the calibrator.
type Sample struct {
	Prob   core.Prob3
	Result core.Outcome
}

// CalibrationOptions gates whether a real isotonic fit is attempted.
// Below either threshold the calibrator degrades to the identity;
// a sparse calibration history must never bend probabilities.
type CalibrationOptions struct {
	MinSamples  int // minimum sample count per fit
	MinDistinct int // minimum distinct predicted values per class
}

// DefaultCalibrationOptions returns the standard gating thresholds.
func DefaultCalibrationOptions() CalibrationOptions {
	return CalibrationOptions{MinSamples: 50, MinDistinct: 5}
}

// Calibrator maps raw ensemble triples to calibrated ones. One isotonic
// regression per outcome class in a one-vs-rest scheme; the non-parametric
// (monotone step) form absorbs any systematic over/under-confidence
// without assuming a link function.
type Calibrator struct {
	classes [3]*isotonic
	// Tag is core.CalibrationIsotonic or core.CalibrationIdentity,
	// surfaced as provenance.
	Tag string
}

// IdentityCalibrator returns the no-op calibrator.
func IdentityCalibrator() *Calibrator {
	return &Calibrator{Tag: core.CalibrationIdentity}
}

// FitCalibrator fits the per-class isotonic curves, or returns the
// identity calibrator when the history is too small or too degenerate for
// any class.
func FitCalibrator(samples []Sample, opts CalibrationOptions) *Calibrator {
	if len(samples) < opts.MinSamples {
		return IdentityCalibrator()
	}

	cal := &Calibrator{Tag: core.CalibrationIsotonic}
	for _, o := range core.Outcomes {
		xs := make([]float64, len(samples))
		ys := make([]float64, len(samples))
		distinct := make(map[float64]bool)
		for i, s := range samples {
			xs[i] = s.Prob[o]
			distinct[s.Prob[o]] = true
			if s.Result == o {
				ys[i] = 1
			}
		}
		if len(distinct) < opts.MinDistinct {
			return IdentityCalibrator()
		}
		cal.classes[o] = fitIsotonic(xs, ys)
	}
	return cal
}

// Apply calibrates a triple and renormalizes it. The identity calibrator
// only renormalizes.
func (c *Calibrator) Apply(p core.Prob3) core.Prob3 {
	if c.classes[0] == nil {
		return p.Normalize()
	}
	var out core.Prob3
	for _, o := range core.Outcomes {
		out[o] = c.classes[o].predict(p[o])
	}
	return out.Normalize()
}

// isotonic is a fitted monotone non-decreasing step function represented
// by block right-edges and block means.
type isotonic struct {
	xs []float64 // block upper x (sorted ascending)
	ys []float64 // block fitted value
}

// fitIsotonic runs pool-adjacent-violators on (x, y) pairs sorted by x.
// Ties in x are merged into one weighted point first, which makes the fit
// independent of input order.
func fitIsotonic(xs, ys []float64) *isotonic {
	type point struct {
		x, y, w float64
	}
	pts := make([]point, len(xs))
	for i := range xs {
		pts[i] = point{x: xs[i], y: ys[i], w: 1}
	}
	sort.Slice(pts, func(i, j int) bool { return pts[i].x < pts[j].x })

	// Merge duplicate x.
	merged := pts[:0]
	for _, p := range pts {
		if len(merged) > 0 && merged[len(merged)-1].x == p.x {
			last := &merged[len(merged)-1]
			last.y = (last.y*last.w + p.y*p.w) / (last.w + p.w)
			last.w += p.w
		} else {
			merged = append(merged, p)
		}
	}

	// Pool adjacent violators.
	type block struct {
		xHi, mean, w float64
	}
	blocks := make([]block, 0, len(merged))
	for _, p := range merged {
		blocks = append(blocks, block{xHi: p.x, mean: p.y, w: p.w})
		for len(blocks) >= 2 && blocks[len(blocks)-2].mean >= blocks[len(blocks)-1].mean {
			b2 := blocks[len(blocks)-1]
			b1 := blocks[len(blocks)-2]
			pooled := block{
				xHi:  b2.xHi,
				mean: (b1.mean*b1.w + b2.mean*b2.w) / (b1.w + b2.w),
				w:    b1.w + b2.w,
			}
			blocks = blocks[:len(blocks)-2]
			blocks = append(blocks, pooled)
		}
	}

	iso := &isotonic{
		xs: make([]float64, len(blocks)),
		ys: make([]float64, len(blocks)),
	}
	for i, b := range blocks {
		iso.xs[i] = b.xHi
		iso.ys[i] = b.mean
	}
	return iso
}

// predict evaluates the step function at x, clamping outside the fitted
// range and flooring at ProbFloor so a calibrated class never collapses to
// exactly zero.
func (f *isotonic) predict(x float64) float64 {
	if len(f.xs) == 0 {
		return x
	}
	idx := sort.SearchFloat64s(f.xs, x)
	if idx >= len(f.xs) {
		idx = len(f.xs) - 1
	}
	v := f.ys[idx]
	if v < core.ProbFloor {
		return core.ProbFloor
	}
	return v
}
