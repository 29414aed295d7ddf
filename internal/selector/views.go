package selector

import (
	"math"

	"gonum.org/v1/gonum/mat"

	apperrors "github.com/quantlab/adaptive-selector/internal/errors"
	"github.com/quantlab/adaptive-selector/pkg/types"
)

// ArmStats summarizes the observed history of one arm.
type ArmStats struct {
	Arm          int     `json:"arm"`
	Pulls        int     `json:"pulls"`
	TotalReward  float64 `json:"total_reward"`
	AverageReward float64 `json:"average_reward"`
}

// ConfidenceBound is a symmetric credible interval on one arm's expected
// reward under the given context.
type ConfidenceBound struct {
	Arm      int     `json:"arm"`
	Expected float64 `json:"expected"`
	Lower    float64 `json:"lower"`
	Upper    float64 `json:"upper"`
}

// GetArmStats returns per-arm pull counts and reward accumulators. It does
// not mutate selector state.
func (s *ThompsonSelector) GetArmStats() []ArmStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := make([]ArmStats, len(s.arms))
	for i, arm := range s.arms {
		avg := 0.0
		if arm.pulls > 0 {
			avg = arm.totalReward / float64(arm.pulls)
		}
		stats[i] = ArmStats{
			Arm:           i,
			Pulls:         arm.pulls,
			TotalReward:   arm.totalReward,
			AverageReward: avg,
		}
	}
	return stats
}

// GetExpectedRewards returns each arm's posterior-mean reward prediction
// mu_a . x for the given context.
func (s *ThompsonSelector) GetExpectedRewards(context types.FeatureVector) ([]float64, error) {
	if err := s.checkContext("GetExpectedRewards", context); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	x := mat.NewVecDense(len(context), context)
	rewards := make([]float64, len(s.arms))
	for i, arm := range s.arms {
		rewards[i] = mat.Dot(arm.mu, x)
	}
	return rewards, nil
}

// GetConfidenceBounds returns, per arm, the expected reward under the
// context with a two-sided Gaussian credible interval at the given
// confidence level, derived from the posterior variance x^T Sigma x.
func (s *ThompsonSelector) GetConfidenceBounds(context types.FeatureVector, confidence float64) ([]ConfidenceBound, error) {
	if err := s.checkContext("GetConfidenceBounds", context); err != nil {
		return nil, err
	}
	if confidence <= 0 || confidence >= 1 {
		return nil, apperrors.NewInvalidInput("selector", "GetConfidenceBounds", "confidence must be in (0, 1), got %v", confidence)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	z := zScore(confidence)
	x := mat.NewVecDense(len(context), context)
	bounds := make([]ConfidenceBound, len(s.arms))
	for i, arm := range s.arms {
		expected := mat.Dot(arm.mu, x)

		var sx mat.VecDense
		sx.MulVec(arm.sigma, x)
		variance := mat.Dot(x, &sx)
		if variance < 0 {
			variance = 0
		}
		width := z * math.Sqrt(variance)

		bounds[i] = ConfidenceBound{
			Arm:      i,
			Expected: expected,
			Lower:    expected - width,
			Upper:    expected + width,
		}
	}
	return bounds, nil
}

// GetArmRankings returns all arms ordered by posterior-mean expected reward
// under the context, best first, ties toward the lower index.
func (s *ThompsonSelector) GetArmRankings(context types.FeatureVector) ([]int, error) {
	rewards, err := s.GetExpectedRewards(context)
	if err != nil {
		return nil, err
	}
	return topK(rewards, len(rewards)), nil
}
