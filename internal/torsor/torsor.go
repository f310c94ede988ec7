package torsor

import (
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/danielpatrickdp/tolstack/internal/feature"
	"github.com/danielpatrickdp/tolstack/internal/stats"
)

// #region jacobian
// Jacobian returns the 6×6 transform that carries a torsor expressed at pos
// to its effect at the assembly origin:
//
//	J = | I  [r]× |
//	    | 0   I   |
func Jacobian(pos [3]float64) *mat.Dense {
	x, y, z := pos[0], pos[1], pos[2]
	j := mat.NewDense(feature.NumDOF, feature.NumDOF, nil)
	for i := 0; i < feature.NumDOF; i++ {
		j.Set(i, i, 1)
	}
	j.Set(0, 4, z)
	j.Set(0, 5, -y)
	j.Set(1, 3, -z)
	j.Set(1, 5, x)
	j.Set(2, 3, y)
	j.Set(2, 4, -x)
	return j
}

// Projection returns the 1×6 row that reduces a result torsor to a scalar
// along dir. Rotational weights are zero.
func Projection(dir [3]float64) Torsor {
	dx, dy, dz := dir[0], dir[1], dir[2]
	n := math.Sqrt(dx*dx + dy*dy + dz*dz)
	if !(n > ProjectionEpsilon) {
		return Torsor{1, 0, 0, 0, 0, 0}
	}
	return Torsor{dx / n, dy / n, dz / n, 0, 0, 0}
}

// #endregion jacobian

// #region worst-case
// WorstCase sums, per output DOF, the extreme images of every contributor's
// bounds under its Jacobian. Absent input bounds count as [0, 0]. Every
// DOF of the result is present.
func WorstCase(contributors []Contributor) feature.TorsorBounds {
	var lo, hi Torsor
	for _, c := range contributors {
		j := Jacobian(c.Position)
		for out := 0; out < feature.NumDOF; out++ {
			for in := 0; in < feature.NumDOF; in++ {
				jv := j.At(out, in)
				bmin, bmax := c.Bounds[in].OrZero()
				a, b := jv*bmin, jv*bmax
				lo[out] += math.Min(a, b)
				hi[out] += math.Max(a, b)
			}
		}
	}

	var res feature.TorsorBounds
	for _, d := range feature.AllDOF {
		res.Set(d, feature.Between(lo[d], hi[d]))
	}
	return res
}

// #endregion worst-case

// #region rss
// RSS propagates bound centres and variances, σ = width / sigma level, and
// returns the per-contributor share of each DOF's variance in percent. A
// DOF with zero total variance reports 0% for every contributor.
func RSS(contributors []Contributor) (Result, [][feature.NumDOF]float64) {
	var mean, variance Torsor
	individual := make([][feature.NumDOF]float64, len(contributors))

	for k, c := range contributors {
		j := Jacobian(c.Position)
		s := sigmaLevel(c)
		for out := 0; out < feature.NumDOF; out++ {
			for in := 0; in < feature.NumDOF; in++ {
				jv := j.At(out, in)
				b := c.Bounds[in]
				sigma := b.Width() / s
				v := jv * jv * sigma * sigma

				mean[out] += jv * b.Center()
				variance[out] += v
				individual[k][out] += v
			}
		}
	}

	var res Result
	for d := range res {
		res[d].RssMean = mean[d]
		res[d].Rss3Sigma = 3 * math.Sqrt(variance[d])
	}

	sensitivity := make([][feature.NumDOF]float64, len(contributors))
	for k := range individual {
		for d := range variance {
			if variance[d] > 0 {
				sensitivity[k][d] = individual[k][d] / variance[d] * 100
			}
		}
	}
	return res, sensitivity
}

// #endregion rss

// #region monte-carlo
// MonteCarlo draws iterations full chain samples from a single source.
func MonteCarlo(contributors []Contributor, iterations int, src stats.Source) MonteCarloResult {
	acc := simulate(jacobians(contributors), contributors, iterations, src)
	return finish(acc, iterations)
}

// MonteCarloParallel splits the iterations into contiguous blocks, one per
// worker. Worker w draws from streams.Stream(w) and the per-worker moments
// are merged in worker order.
func MonteCarloParallel(contributors []Contributor, iterations int, streams stats.Streams, workers int) (MonteCarloResult, error) {
	workers = max(1, workers)
	if iterations > 0 && workers > iterations {
		workers = iterations
	}

	js := jacobians(contributors)
	partial := make([][feature.NumDOF]stats.Moments, workers)

	var g errgroup.Group
	for w := 0; w < workers; w++ {
		n := (w+1)*iterations/workers - w*iterations/workers
		src := streams.Stream(w)
		g.Go(func() error {
			partial[w] = simulate(js, contributors, n, src)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return MonteCarloResult{}, fmt.Errorf("torsor monte carlo: %w", err)
	}

	var acc [feature.NumDOF]stats.Moments
	for _, p := range partial {
		for d := range acc {
			acc[d].Merge(p[d])
		}
	}
	return finish(acc, iterations), nil
}

func simulate(js []*mat.Dense, contributors []Contributor, iterations int, src stats.Source) [feature.NumDOF]stats.Moments {
	var acc [feature.NumDOF]stats.Moments
	sample := mat.NewVecDense(feature.NumDOF, nil)
	moved := mat.NewVecDense(feature.NumDOF, nil)

	for i := 0; i < iterations; i++ {
		var total Torsor
		for k, c := range contributors {
			s := sigmaLevel(c)
			for d := 0; d < feature.NumDOF; d++ {
				b := c.Bounds[d]
				sample.SetVec(d, stats.Sample(src, c.Distribution, b.Width(), s, b.Center()))
			}
			moved.MulVec(js[k], sample)
			for d := range total {
				total[d] += moved.AtVec(d)
			}
		}
		for d := range acc {
			acc[d].Add(total[d])
		}
	}
	return acc
}

func finish(acc [feature.NumDOF]stats.Moments, iterations int) MonteCarloResult {
	res := MonteCarloResult{Iterations: iterations}
	for d := range acc {
		res.Mean[d] = acc[d].Mean()
		res.StdDev[d] = acc[d].StdDev()
	}
	return res
}

// #endregion monte-carlo

// #region merge
// MergeWorstCase copies present worst-case bounds into the result.
func (r *Result) MergeWorstCase(wc feature.TorsorBounds) {
	for d := range r {
		if lo, hi, ok := wc[d].Get(); ok {
			r[d].WcMin = lo
			r[d].WcMax = hi
		}
	}
}

// MergeMonteCarlo copies the Monte Carlo mean and std dev into the result.
func (r *Result) MergeMonteCarlo(mc MonteCarloResult) {
	for d := range r {
		mean, sd := mc.Mean[d], mc.StdDev[d]
		r[d].McMean = &mean
		r[d].McStdDev = &sd
	}
}

// #endregion merge

// #region invariance
// ConstrainedDOF lists the DOFs along which a feature of the given class
// can deviate. Motion along the remaining DOFs leaves the surface invariant.
func ConstrainedDOF(class feature.GeometryClass) []feature.DOF {
	switch class {
	case feature.ClassPlane:
		return []feature.DOF{feature.DOFW, feature.DOFAlpha, feature.DOFBeta}
	case feature.ClassCylinder:
		return []feature.DOF{feature.DOFU, feature.DOFV, feature.DOFAlpha, feature.DOFBeta}
	case feature.ClassSphere, feature.ClassPoint:
		return []feature.DOF{feature.DOFU, feature.DOFV, feature.DOFW}
	case feature.ClassCone:
		return []feature.DOF{feature.DOFU, feature.DOFV, feature.DOFW, feature.DOFAlpha, feature.DOFBeta}
	case feature.ClassLine:
		return []feature.DOF{feature.DOFU, feature.DOFV}
	default:
		return nil
	}
}

// FreeDOF is the complement of ConstrainedDOF.
func FreeDOF(class feature.GeometryClass) []feature.DOF {
	var constrained [feature.NumDOF]bool
	for _, d := range ConstrainedDOF(class) {
		constrained[d] = true
	}
	var free []feature.DOF
	for _, d := range feature.AllDOF {
		if !constrained[d] {
			free = append(free, d)
		}
	}
	return free
}

// #endregion invariance

func jacobians(contributors []Contributor) []*mat.Dense {
	js := make([]*mat.Dense, len(contributors))
	for i, c := range contributors {
		js[i] = Jacobian(c.Position)
	}
	return js
}

func sigmaLevel(c Contributor) float64 {
	if c.SigmaLevel > 0 {
		return c.SigmaLevel
	}
	return stats.DefaultSigmaLevel
}
