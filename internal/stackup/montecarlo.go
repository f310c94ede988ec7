package stackup

import (
	"fmt"
	"math"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/danielpatrickdp/tolstack/internal/stats"
)

// #region monte-carlo
// MonteCarlo samples every contributor Iterations times from a single
// source and summarizes the stacked totals.
func (a *Analyzer) MonteCarlo(contributors []Contributor, target Target, src stats.Source) MonteCarloResult {
	samples := make([]float64, a.config.Iterations)
	a.fill(samples, contributors, src)
	return summarizeRun(samples, target)
}

// MonteCarloParallel splits the iterations into Workers contiguous blocks.
// Worker w fills block w from streams.Stream(w), so a fixed seed and worker
// count always reproduce the same result.
func (a *Analyzer) MonteCarloParallel(contributors []Contributor, target Target, streams stats.Streams) (MonteCarloResult, error) {
	n := a.config.Iterations
	workers := max(1, a.config.Workers)
	if n > 0 && workers > n {
		workers = n
	}

	samples := make([]float64, n)
	var g errgroup.Group
	for w := 0; w < workers; w++ {
		block := samples[w*n/workers : (w+1)*n/workers]
		src := streams.Stream(w)
		g.Go(func() error {
			a.fill(block, contributors, src)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return MonteCarloResult{}, fmt.Errorf("monte carlo: %w", err)
	}
	return summarizeRun(samples, target), nil
}

// fill writes one stacked total per slot.
func (a *Analyzer) fill(out []float64, contributors []Contributor, src stats.Source) {
	for i := range out {
		var total float64
		for _, c := range contributors {
			v := stats.Sample(src, distribution(c), a.band(c), a.config.SigmaLevel, c.Dimension.ProcessMean())
			total += c.Direction.Sign() * v
		}
		out[i] = total
	}
}

// #endregion monte-carlo

// #region summarize
func summarizeRun(samples []float64, target Target) MonteCarloResult {
	if len(samples) == 0 {
		return MonteCarloResult{}
	}

	sorted := slices.Clone(samples)
	slices.Sort(sorted)
	sum := stats.Summarize(sorted)

	inSpec := 0
	for _, x := range sorted {
		if x >= target.LowerLimit && x <= target.UpperLimit {
			inSpec++
		}
	}

	res := MonteCarloResult{
		Iterations:    len(samples),
		Mean:          sum.Mean,
		StdDev:        sum.StdDev,
		Min:           sum.Min,
		Max:           sum.Max,
		YieldPercent:  float64(inSpec) / float64(len(samples)) * 100,
		Percentile2_5: stats.Percentile(sorted, 0.025),
		Percentile975: stats.Percentile(sorted, 0.975),
	}

	if sum.StdDev > 0 {
		pp := target.Range() / (6 * sum.StdDev)
		ppk := math.Min(target.UpperLimit-sum.Mean, sum.Mean-target.LowerLimit) / (3 * sum.StdDev)
		res.Pp, res.Ppk = &pp, &ppk
	}
	return res
}

// #endregion summarize
