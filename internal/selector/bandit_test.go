package selector

import (
	"bytes"
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/quantlab/adaptive-selector/internal/errors"
	"github.com/quantlab/adaptive-selector/pkg/types"
)

func newTestSelector(t *testing.T, numArms, featureDim, warmup int) *ThompsonSelector {
	t.Helper()
	cfg := DefaultConfig(numArms, featureDim)
	cfg.WarmupSamples = warmup
	cfg.Seed = 42
	s, err := NewThompsonSelector(cfg)
	require.NoError(t, err)
	return s
}

// TestNewThompsonSelector_RejectsInvalidConfig tests construction guards
func TestNewThompsonSelector_RejectsInvalidConfig(t *testing.T) {
	_, err := NewThompsonSelector(Config{NumArms: 0, FeatureDim: 3, Beta: 1})
	assert.Error(t, err)

	_, err = NewThompsonSelector(Config{NumArms: 3, FeatureDim: 0, Beta: 1})
	assert.Error(t, err)

	// beta must be strictly positive: it keeps the precision matrix invertible
	_, err = NewThompsonSelector(Config{NumArms: 3, FeatureDim: 3, Beta: 0})
	assert.Error(t, err)
}

// TestPick_ColdStateUniform tests that a cold selector still returns k
// distinct in-range arms
func TestPick_ColdStateUniform(t *testing.T) {
	s := newTestSelector(t, 5, 3, 10)
	context := types.FeatureVector{0.1, 0.2, 0.3}

	assert.False(t, s.IsWarm())
	for trial := 0; trial < 50; trial++ {
		picks, err := s.Pick(context, 3)
		require.NoError(t, err)
		require.Len(t, picks, 3)
		assertDistinctInRange(t, picks, 5)
	}
}

// TestPick_WarmStateInvariants tests that after warmup, Pick never returns
// an out-of-range or duplicated arm for any k
func TestPick_WarmStateInvariants(t *testing.T) {
	s := newTestSelector(t, 4, 2, 5)
	context := types.FeatureVector{1.0, -0.5}

	for i := 0; i < 20; i++ {
		require.NoError(t, s.Update(context, i%4, float64(i%3)-1))
	}
	require.True(t, s.IsWarm())

	for k := 1; k <= 4; k++ {
		for trial := 0; trial < 25; trial++ {
			picks, err := s.Pick(context, k)
			require.NoError(t, err)
			require.Len(t, picks, k)
			assertDistinctInRange(t, picks, 4)
		}
	}
}

// TestPick_Validation tests dimension and k-range preconditions
func TestPick_Validation(t *testing.T) {
	s := newTestSelector(t, 3, 2, 0)

	_, err := s.Pick(types.FeatureVector{1.0}, 1)
	assert.True(t, apperrors.IsCategory(err, apperrors.ErrorCategoryDimensionMismatch))

	_, err = s.Pick(types.FeatureVector{1.0, 2.0}, 0)
	assert.Error(t, err)

	_, err = s.Pick(types.FeatureVector{1.0, 2.0}, 4)
	assert.Error(t, err)
}

// TestUpdate_Validation tests arm-range, dimension and reward finiteness
// preconditions
func TestUpdate_Validation(t *testing.T) {
	s := newTestSelector(t, 3, 2, 0)
	context := types.FeatureVector{1.0, 0.5}

	assert.Error(t, s.Update(context, -1, 0.1))
	assert.Error(t, s.Update(context, 3, 0.1))
	assert.Error(t, s.Update(types.FeatureVector{1.0}, 0, 0.1))
	assert.Error(t, s.Update(context, 0, math.NaN()))

	// Negative rewards are valid and expected
	assert.NoError(t, s.Update(context, 0, -0.75))
}

// TestUpdate_RegressionToTruth tests that repeatedly updating one arm with a
// constant reward under a constant context drives mu.x toward the reward
func TestUpdate_RegressionToTruth(t *testing.T) {
	s := newTestSelector(t, 2, 3, 0)
	context := types.FeatureVector{1.0, 0.5, -0.25}
	const reward = 0.8

	for i := 0; i < 500; i++ {
		require.NoError(t, s.Update(context, 1, reward))
	}

	expected, err := s.GetExpectedRewards(context)
	require.NoError(t, err)
	assert.InDelta(t, reward, expected[1], 0.01)
	// The untouched arm stays at the prior
	assert.Equal(t, 0.0, expected[0])
}

// TestGetArmStats_TracksPullsAndRewards tests the per-arm accumulators
func TestGetArmStats_TracksPullsAndRewards(t *testing.T) {
	s := newTestSelector(t, 3, 2, 0)
	context := types.FeatureVector{1.0, 1.0}

	require.NoError(t, s.Update(context, 0, 0.5))
	require.NoError(t, s.Update(context, 0, 0.3))
	require.NoError(t, s.Update(context, 2, -0.2))

	stats := s.GetArmStats()
	require.Len(t, stats, 3)
	assert.Equal(t, 2, stats[0].Pulls)
	assert.InDelta(t, 0.8, stats[0].TotalReward, 1e-12)
	assert.InDelta(t, 0.4, stats[0].AverageReward, 1e-12)
	assert.Equal(t, 0, stats[1].Pulls)
	assert.Equal(t, 1, stats[2].Pulls)
	assert.Equal(t, 3, s.UpdateCount())
}

// TestGetConfidenceBounds_ShrinkWithEvidence tests that bounds tighten as an
// arm accumulates observations and always bracket the expected value
func TestGetConfidenceBounds_ShrinkWithEvidence(t *testing.T) {
	s := newTestSelector(t, 2, 2, 0)
	context := types.FeatureVector{1.0, 0.0}

	before, err := s.GetConfidenceBounds(context, 0.95)
	require.NoError(t, err)

	for i := 0; i < 100; i++ {
		require.NoError(t, s.Update(context, 0, 0.5))
	}

	after, err := s.GetConfidenceBounds(context, 0.95)
	require.NoError(t, err)

	for _, b := range after {
		assert.LessOrEqual(t, b.Lower, b.Expected)
		assert.GreaterOrEqual(t, b.Upper, b.Expected)
	}
	widthBefore := before[0].Upper - before[0].Lower
	widthAfter := after[0].Upper - after[0].Lower
	assert.Less(t, widthAfter, widthBefore)
	// Arm 1 saw no updates, so its width is unchanged
	assert.InDelta(t, before[1].Upper-before[1].Lower, after[1].Upper-after[1].Lower, 1e-12)
}

// TestGetArmRankings_OrderedByExpectedReward tests ranking order and the
// lower-index tie break
func TestGetArmRankings_OrderedByExpectedReward(t *testing.T) {
	s := newTestSelector(t, 3, 1, 0)
	context := types.FeatureVector{1.0}

	for i := 0; i < 50; i++ {
		require.NoError(t, s.Update(context, 0, 0.2))
		require.NoError(t, s.Update(context, 2, 0.9))
	}

	rankings, err := s.GetArmRankings(context)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 0, 1}, rankings)
}

// TestSaveLoadState_RoundTrip tests that every observable field survives a
// serialize/deserialize cycle within floating tolerance
func TestSaveLoadState_RoundTrip(t *testing.T) {
	s := newTestSelector(t, 3, 2, 5)
	contexts := []types.FeatureVector{{1.0, 0.5}, {-0.3, 0.8}, {0.2, -0.6}}
	for i := 0; i < 30; i++ {
		ctx := contexts[i%len(contexts)]
		require.NoError(t, s.Update(ctx, i%3, float64(i)*0.01-0.1))
	}

	var buf bytes.Buffer
	require.NoError(t, s.SaveState(&buf))

	restored := newTestSelector(t, 3, 2, 5)
	require.NoError(t, restored.LoadState(&buf))

	require.Equal(t, s.UpdateCount(), restored.UpdateCount())
	for i := range s.arms {
		orig, got := s.arms[i], restored.arms[i]
		assert.Equal(t, orig.pulls, got.pulls)
		assert.InDelta(t, orig.totalReward, got.totalReward, 1e-9)
		require.Equal(t, len(orig.rewards), len(got.rewards))

		for d := 0; d < 2; d++ {
			assert.InDelta(t, orig.mu.AtVec(d), got.mu.AtVec(d), 1e-9)
			assert.InDelta(t, orig.b.AtVec(d), got.b.AtVec(d), 1e-9)
			for e := 0; e < 2; e++ {
				assert.InDelta(t, orig.a.At(d, e), got.a.At(d, e), 1e-9)
				assert.InDelta(t, orig.sigma.At(d, e), got.sigma.At(d, e), 1e-9)
			}
		}
	}
}

// TestLoadState_RejectsShapeMismatch tests that a snapshot from a selector
// with different dimensions is rejected as corruption
func TestLoadState_RejectsShapeMismatch(t *testing.T) {
	small := newTestSelector(t, 2, 2, 0)
	var buf bytes.Buffer
	require.NoError(t, small.SaveState(&buf))

	big := newTestSelector(t, 3, 4, 0)
	err := big.LoadState(&buf)
	assert.True(t, apperrors.IsCategory(err, apperrors.ErrorCategoryStateCorruption))
}

// TestLoadState_RejectsNonPositiveDefinite tests that a snapshot whose
// precision matrix lost positive definiteness is rejected, not repaired
func TestLoadState_RejectsNonPositiveDefinite(t *testing.T) {
	s := newTestSelector(t, 1, 2, 0)
	state := selectorState{
		Version: stateVersion,
		Config:  s.Config(),
		Arms: []armState{{
			Mu:    []float64{0, 0},
			A:     [][]float64{{-1, 0}, {0, -1}},
			Sigma: [][]float64{{1, 0}, {0, 1}},
			B:     []float64{0, 0},
		}},
		Initialized: true,
	}

	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(&state))

	err := s.LoadState(&buf)
	assert.True(t, apperrors.IsCategory(err, apperrors.ErrorCategoryStateCorruption))
}

// TestReset_RestoresPrior tests that Reset returns every posterior to the
// prior and clears the counters
func TestReset_RestoresPrior(t *testing.T) {
	s := newTestSelector(t, 2, 2, 0)
	context := types.FeatureVector{1.0, 1.0}
	for i := 0; i < 20; i++ {
		require.NoError(t, s.Update(context, 0, 0.5))
	}

	s.Reset()

	assert.Equal(t, 0, s.UpdateCount())
	expected, err := s.GetExpectedRewards(context)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0}, expected)

	stats := s.GetArmStats()
	assert.Equal(t, 0, stats[0].Pulls)
	assert.Equal(t, 0.0, stats[0].TotalReward)
}

// TestPick_Deterministic tests that two selectors with the same seed and
// history produce identical pick sequences
func TestPick_Deterministic(t *testing.T) {
	build := func() *ThompsonSelector {
		s := newTestSelector(t, 4, 2, 3)
		context := types.FeatureVector{0.5, -0.5}
		for i := 0; i < 10; i++ {
			require.NoError(t, s.Update(context, i%4, float64(i%2)))
		}
		return s
	}

	a, b := build(), build()
	context := types.FeatureVector{0.25, 0.75}
	for trial := 0; trial < 10; trial++ {
		pa, err := a.Pick(context, 2)
		require.NoError(t, err)
		pb, err := b.Pick(context, 2)
		require.NoError(t, err)
		assert.Equal(t, pa, pb)
	}
}

func assertDistinctInRange(t *testing.T, picks []int, numArms int) {
	t.Helper()
	seen := make(map[int]bool, len(picks))
	for _, p := range picks {
		assert.GreaterOrEqual(t, p, 0)
		assert.Less(t, p, numArms)
		assert.False(t, seen[p], "duplicate arm %d in one pick", p)
		seen[p] = true
	}
}
