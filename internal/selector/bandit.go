package selector

import (
	"math"
	"math/rand"
	"sort"
	"sync"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	apperrors "github.com/quantlab/adaptive-selector/internal/errors"
	"github.com/quantlab/adaptive-selector/pkg/types"
)

// Config holds the construction parameters of a Thompson selector. NumArms
// and FeatureDim are fixed for the lifetime of the instance.
type Config struct {
	NumArms       int     `json:"num_arms"`
	FeatureDim    int     `json:"feature_dim"`
	Beta          float64 `json:"beta"`           // ridge regularizer, must be > 0
	WarmupSamples int     `json:"warmup_samples"` // updates before the posterior is trusted
	Seed          int64   `json:"seed"`
}

// DefaultConfig returns a selector configuration with documented defaults:
// beta 1.0, warmup 50 updates.
func DefaultConfig(numArms, featureDim int) Config {
	return Config{
		NumArms:       numArms,
		FeatureDim:    featureDim,
		Beta:          1.0,
		WarmupSamples: 50,
		Seed:          1,
	}
}

// armPosterior is the Bayesian linear-regression posterior for one arm.
// Invariants: a stays symmetric positive definite (beta > 0 guarantees it),
// sigma = a^-1 and mu = sigma * b after every update.
type armPosterior struct {
	a     *mat.SymDense
	b     *mat.VecDense
	mu    *mat.VecDense
	sigma *mat.SymDense

	pulls       int
	totalReward float64
	rewards     []float64
}

// ThompsonSelector ranks a fixed roster of strategy arms by Thompson
// sampling over per-arm Bayesian linear-regression posteriors sharing one
// context feature space.
//
// It starts Cold: until WarmupSamples updates have been observed, Pick falls
// back to uniform-random choice. The transition to Warm is one-way and
// automatic. Reads (Pick, the get-style views) may run concurrently; Update
// serializes against everything through the read-write lock.
type ThompsonSelector struct {
	mu  sync.RWMutex
	cfg Config

	arms        []*armPosterior
	updateCount int
	initialized bool

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewThompsonSelector constructs a selector with every posterior set to the
// prior (mu = 0, A = beta*I). Beta must be strictly positive: it is what
// keeps A invertible without singularity checks.
func NewThompsonSelector(cfg Config) (*ThompsonSelector, error) {
	if cfg.NumArms < 1 {
		return nil, apperrors.NewInvalidInput("selector", "New", "num_arms must be >= 1, got %d", cfg.NumArms)
	}
	if cfg.FeatureDim < 1 {
		return nil, apperrors.NewInvalidInput("selector", "New", "feature_dim must be >= 1, got %d", cfg.FeatureDim)
	}
	if cfg.Beta <= 0 {
		return nil, apperrors.NewInvalidInput("selector", "New", "beta must be > 0, got %v", cfg.Beta)
	}
	if cfg.WarmupSamples < 0 {
		return nil, apperrors.NewInvalidInput("selector", "New", "warmup_samples must be >= 0, got %d", cfg.WarmupSamples)
	}

	s := &ThompsonSelector{
		cfg:  cfg,
		arms: make([]*armPosterior, cfg.NumArms),
		rng:  rand.New(rand.NewSource(cfg.Seed)),
	}
	for i := range s.arms {
		s.arms[i] = newArmPosterior(cfg.FeatureDim, cfg.Beta)
	}
	s.initialized = true
	return s, nil
}

func newArmPosterior(dim int, beta float64) *armPosterior {
	arm := &armPosterior{
		a:     mat.NewSymDense(dim, nil),
		b:     mat.NewVecDense(dim, nil),
		mu:    mat.NewVecDense(dim, nil),
		sigma: mat.NewSymDense(dim, nil),
	}
	for i := 0; i < dim; i++ {
		arm.a.SetSym(i, i, beta)
		arm.sigma.SetSym(i, i, 1/beta)
	}
	return arm
}

// Config returns the selector's construction parameters.
func (s *ThompsonSelector) Config() Config {
	return s.cfg
}

// UpdateCount returns the number of Update calls observed so far.
func (s *ThompsonSelector) UpdateCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updateCount
}

// IsWarm reports whether the posterior is trusted for context-aware picks.
func (s *ThompsonSelector) IsWarm() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updateCount >= s.cfg.WarmupSamples
}

// Pick returns k distinct arm indices ranked best first. Cold state draws
// uniformly without replacement; Warm state samples a weight vector from
// each arm's posterior, scores it against the context and takes the top k,
// ties broken toward the lower arm index.
func (s *ThompsonSelector) Pick(context types.FeatureVector, k int) ([]int, error) {
	if err := s.checkContext("Pick", context); err != nil {
		return nil, err
	}
	if k < 1 || k > s.cfg.NumArms {
		return nil, apperrors.NewInvalidInput("selector", "Pick", "k must be in [1, %d], got %d", s.cfg.NumArms, k)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.updateCount < s.cfg.WarmupSamples {
		return s.pickUniform(k), nil
	}

	scores := make([]float64, s.cfg.NumArms)
	x := mat.NewVecDense(len(context), context)
	for i, arm := range s.arms {
		scores[i] = mat.Dot(s.sampleTheta(arm), x)
	}
	return topK(scores, k), nil
}

// Update performs the conjugate Bayesian update for one arm:
// A += x*x^T, b += reward*x, Sigma = A^-1, mu = Sigma*b. Rewards may be any
// finite value; negative rewards are valid and expected. This is the single
// mutating operation on selector state.
func (s *ThompsonSelector) Update(context types.FeatureVector, arm int, reward float64) error {
	if err := s.checkContext("Update", context); err != nil {
		return err
	}
	if arm < 0 || arm >= s.cfg.NumArms {
		return apperrors.NewInvalidInput("selector", "Update", "arm must be in [0, %d), got %d", s.cfg.NumArms, arm)
	}
	if !isFinite(reward) {
		return apperrors.NewInvalidInput("selector", "Update", "reward must be finite, got %v", reward)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.arms[arm]
	x := mat.NewVecDense(len(context), context)

	p.a.SymRankOne(p.a, 1, x)
	p.b.AddScaledVec(p.b, reward, x)
	if err := refreshPosterior(p); err != nil {
		return err
	}

	p.pulls++
	p.totalReward += reward
	p.rewards = append(p.rewards, reward)
	s.updateCount++
	return nil
}

// refreshPosterior recomputes Sigma = A^-1 and mu = Sigma*b via Cholesky
// factorization. A is symmetric positive definite whenever beta > 0, so the
// factorization cannot fail on the update path.
func refreshPosterior(p *armPosterior) error {
	var chol mat.Cholesky
	if ok := chol.Factorize(p.a); !ok {
		return apperrors.NewStateCorruption("selector", "Update", "precision matrix lost positive definiteness")
	}
	if err := chol.InverseTo(p.sigma); err != nil {
		return apperrors.WrapError(err, apperrors.ErrorCategoryStateCorruption, "selector", "Update")
	}
	p.mu.MulVec(p.sigma, p.b)
	return nil
}

// sampleTheta draws a weight vector from N(mu, Sigma) for one arm as
// mu + L*z, where L is the Cholesky factor of Sigma and z is standard
// normal. If the covariance has drifted off positive definite numerically,
// the posterior mean is used unperturbed.
func (s *ThompsonSelector) sampleTheta(arm *armPosterior) *mat.VecDense {
	var chol mat.Cholesky
	if ok := chol.Factorize(arm.sigma); !ok {
		return arm.mu
	}
	var lower mat.TriDense
	chol.LTo(&lower)

	dim := s.cfg.FeatureDim
	z := mat.NewVecDense(dim, nil)
	s.rngMu.Lock()
	for i := 0; i < dim; i++ {
		z.SetVec(i, s.rng.NormFloat64())
	}
	s.rngMu.Unlock()

	theta := mat.NewVecDense(dim, nil)
	theta.MulVec(&lower, z)
	theta.AddVec(theta, arm.mu)
	return theta
}

func (s *ThompsonSelector) pickUniform(k int) []int {
	s.rngMu.Lock()
	perm := s.rng.Perm(s.cfg.NumArms)
	s.rngMu.Unlock()
	return perm[:k]
}

// Reset reinitializes every posterior to the prior and clears all counters.
func (s *ThompsonSelector) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.arms {
		s.arms[i] = newArmPosterior(s.cfg.FeatureDim, s.cfg.Beta)
	}
	s.updateCount = 0
}

func (s *ThompsonSelector) checkContext(op string, context types.FeatureVector) error {
	if len(context) != s.cfg.FeatureDim {
		return apperrors.NewDimensionMismatch("selector", op, s.cfg.FeatureDim, len(context))
	}
	if !context.IsFinite() {
		return apperrors.NewInvalidInput("selector", op, "context contains non-finite values")
	}
	return nil
}

// topK returns the indices of the k highest scores, best first, ties broken
// toward the lower index for determinism.
func topK(scores []float64, k int) []int {
	idx := make([]int, len(scores))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool {
		return scores[idx[i]] > scores[idx[j]]
	})
	return idx[:k]
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// zScore returns the two-sided standard-normal critical value for the given
// confidence level.
func zScore(confidence float64) float64 {
	normal := distuv.Normal{Mu: 0, Sigma: 1}
	return normal.Quantile(0.5 + confidence/2)
}
