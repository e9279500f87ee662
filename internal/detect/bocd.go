package detect

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// DefaultHazard is the expected run length between changepoints.
const DefaultHazard = 250

// truncation drops run lengths whose posterior mass fell below it,
// keeping the state bounded.
const truncation = 1e-9

// Detector runs Bayesian online changepoint detection with a
// constant hazard and a Normal-Gamma conjugate prior, so the
// predictive for each run length is a Student-t.
//
// After every observation the run-length posterior is renormalized;
// the changepoint probability is the mass at run length zero.
type Detector struct {
	hazard float64

	mu0, kappa0, alpha0, beta0 float64

	probs []float64
	mu    []float64
	kappa []float64
	alpha []float64
	beta  []float64
}

func NewDetector(hazard float64) *Detector {
	if hazard <= 0 {
		hazard = DefaultHazard
	}

	d := &Detector{
		hazard: hazard,
		mu0:    0,
		kappa0: 1,
		alpha0: 1,
		beta0:  1,
	}
	d.Reset()

	return d
}

// Reset drops all observed history: one run of length zero with the
// prior parameters.
func (d *Detector) Reset() {
	d.probs = []float64{1}
	d.mu = []float64{d.mu0}
	d.kappa = []float64{d.kappa0}
	d.alpha = []float64{d.alpha0}
	d.beta = []float64{d.beta0}
}

// Update consumes one observation and returns the posterior
// probability that a changepoint just occurred.
//
// The changepoint branch scores x under the reset prior rather than
// the per-run predictive, so the mass at run length zero is
// informative instead of pinned at the hazard rate.
func (d *Detector) Update(x float64) float64 {
	n := len(d.probs)
	h := 1 / d.hazard

	grown := make([]float64, n+1)
	for r := 0; r < n; r++ {
		grown[r+1] = d.probs[r] * d.predictive(r, x) * (1 - h)
	}
	grown[0] = h * d.priorPredictive(x)

	normalize(grown)
	d.probs = grown
	d.growParams(x)
	d.truncate()

	return d.probs[0]
}

// Posterior returns a copy of the current run-length distribution.
func (d *Detector) Posterior() []float64 {
	out := make([]float64, len(d.probs))
	copy(out, d.probs)
	return out
}

// predictive is the Student-t pdf of x under run length r.
func (d *Detector) predictive(r int, x float64) float64 {
	return studentT(x, d.mu[r], d.kappa[r], d.alpha[r], d.beta[r])
}

// priorPredictive is the Student-t pdf of x under the reset prior.
func (d *Detector) priorPredictive(x float64) float64 {
	return studentT(x, d.mu0, d.kappa0, d.alpha0, d.beta0)
}

func studentT(x, mu, kappa, alpha, beta float64) float64 {
	t := distuv.StudentsT{
		Mu:    mu,
		Sigma: math.Sqrt(beta * (kappa + 1) / (alpha * kappa)),
		Nu:    2 * alpha,
	}

	p := t.Prob(x)
	if math.IsNaN(p) || p < 0 {
		return 0
	}
	return p
}

// growParams shifts the sufficient statistics one run length up and
// reinstalls the prior at run length zero.
func (d *Detector) growParams(x float64) {
	n := len(d.mu)

	mu := make([]float64, n+1)
	kappa := make([]float64, n+1)
	alpha := make([]float64, n+1)
	beta := make([]float64, n+1)

	mu[0], kappa[0], alpha[0], beta[0] = d.mu0, d.kappa0, d.alpha0, d.beta0

	for r := 0; r < n; r++ {
		mu[r+1] = (d.kappa[r]*d.mu[r] + x) / (d.kappa[r] + 1)
		kappa[r+1] = d.kappa[r] + 1
		alpha[r+1] = d.alpha[r] + 0.5
		beta[r+1] = d.beta[r] + d.kappa[r]*(x-d.mu[r])*(x-d.mu[r])/(2*(d.kappa[r]+1))
	}

	d.mu, d.kappa, d.alpha, d.beta = mu, kappa, alpha, beta
}

// truncate trims negligible tail mass off the run-length state.
func (d *Detector) truncate() {
	end := len(d.probs)
	for end > 1 && d.probs[end-1] < truncation {
		end--
	}
	if end == len(d.probs) {
		return
	}

	d.probs = d.probs[:end]
	d.mu = d.mu[:end]
	d.kappa = d.kappa[:end]
	d.alpha = d.alpha[:end]
	d.beta = d.beta[:end]

	normalize(d.probs)
}

func normalize(probs []float64) {
	var sum float64
	for _, p := range probs {
		sum += p
	}
	if sum <= 0 {
		// degenerate observation, restart mass at a changepoint
		for i := range probs {
			probs[i] = 0
		}
		probs[0] = 1
		return
	}
	for i := range probs {
		probs[i] /= sum
	}
}

// Replay feeds a whole series through a fresh detector and returns
// the changepoint probability after each observation. NaN values are
// skipped.
func Replay(series []float64, hazard float64) []float64 {
	d := NewDetector(hazard)

	probs := make([]float64, 0, len(series))
	for _, x := range series {
		if math.IsNaN(x) {
			continue
		}
		probs = append(probs, d.Update(x))
	}

	return probs
}
