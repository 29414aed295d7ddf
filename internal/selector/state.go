package selector

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/mat"

	apperrors "github.com/quantlab/adaptive-selector/internal/errors"
)

// stateVersion tags the serialized snapshot format.
const stateVersion = "1"

// armState is the serialized posterior and history of one arm. Matrices are
// stored row-major.
type armState struct {
	Mu          []float64   `json:"mu"`
	A           [][]float64 `json:"a"`
	Sigma       [][]float64 `json:"sigma"`
	B           []float64   `json:"b"`
	Pulls       int         `json:"pulls"`
	TotalReward float64     `json:"total_reward"`
	Rewards     []float64   `json:"rewards"`
}

// selectorState is the full serialized snapshot: configuration, every arm
// posterior, and the global counters. Load(Save(s)) round-trips every
// observable field.
type selectorState struct {
	Version     string     `json:"version"`
	Config      Config     `json:"config"`
	Arms        []armState `json:"arms"`
	UpdateCount int        `json:"update_count"`
	Initialized bool       `json:"is_initialized"`
}

// SaveState serializes the full selector state as a single JSON blob.
func (s *ThompsonSelector) SaveState(w io.Writer) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state := selectorState{
		Version:     stateVersion,
		Config:      s.cfg,
		Arms:        make([]armState, len(s.arms)),
		UpdateCount: s.updateCount,
		Initialized: s.initialized,
	}
	for i, arm := range s.arms {
		state.Arms[i] = armState{
			Mu:          vecToSlice(arm.mu),
			A:           symToRows(arm.a),
			Sigma:       symToRows(arm.sigma),
			B:           vecToSlice(arm.b),
			Pulls:       arm.pulls,
			TotalReward: arm.totalReward,
			Rewards:     append([]float64(nil), arm.rewards...),
		}
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(state)
}

// LoadState replaces the selector state with a previously serialized
// snapshot. Snapshots that fail the shape or positive-definiteness
// invariants are rejected as StateCorruption rather than silently repaired.
func (s *ThompsonSelector) LoadState(r io.Reader) error {
	var state selectorState
	if err := json.NewDecoder(r).Decode(&state); err != nil {
		return apperrors.WrapError(err, apperrors.ErrorCategoryStateCorruption, "selector", "LoadState")
	}
	if err := validateState(&state, s.cfg); err != nil {
		return err
	}

	arms := make([]*armPosterior, len(state.Arms))
	for i, as := range state.Arms {
		arm := &armPosterior{
			a:           rowsToSym(as.A),
			b:           mat.NewVecDense(len(as.B), append([]float64(nil), as.B...)),
			mu:          mat.NewVecDense(len(as.Mu), append([]float64(nil), as.Mu...)),
			sigma:       rowsToSym(as.Sigma),
			pulls:       as.Pulls,
			totalReward: as.TotalReward,
			rewards:     append([]float64(nil), as.Rewards...),
		}

		// A must still be positive definite after deserialization.
		var chol mat.Cholesky
		if ok := chol.Factorize(arm.a); !ok {
			return apperrors.NewStateCorruption("selector", "LoadState", "arm %d precision matrix is not positive definite", i)
		}
		arms[i] = arm
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.arms = arms
	s.updateCount = state.UpdateCount
	s.initialized = state.Initialized
	return nil
}

// SaveStateFile writes the snapshot to path, creating parent directories and
// replacing the file atomically via a rename.
func (s *ThompsonSelector) SaveStateFile(path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create state directory: %w", err)
		}
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create state file: %w", err)
	}
	if err := s.SaveState(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

// LoadStateFile restores the snapshot from path.
func (s *ThompsonSelector) LoadStateFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open state file: %w", err)
	}
	defer f.Close()
	return s.LoadState(f)
}

// validateState checks the snapshot against the live configuration before
// any state is replaced.
func validateState(state *selectorState, cfg Config) error {
	if state.Version != stateVersion {
		return apperrors.NewStateCorruption("selector", "LoadState", "unsupported state version %q", state.Version)
	}
	if state.Config.NumArms != cfg.NumArms || state.Config.FeatureDim != cfg.FeatureDim {
		return apperrors.NewStateCorruption("selector", "LoadState",
			"state shape (%d arms, dim %d) does not match selector (%d arms, dim %d)",
			state.Config.NumArms, state.Config.FeatureDim, cfg.NumArms, cfg.FeatureDim)
	}
	if state.Config.Beta <= 0 {
		return apperrors.NewStateCorruption("selector", "LoadState", "state beta must be > 0, got %v", state.Config.Beta)
	}
	if len(state.Arms) != cfg.NumArms {
		return apperrors.NewStateCorruption("selector", "LoadState", "expected %d arms, got %d", cfg.NumArms, len(state.Arms))
	}
	if state.UpdateCount < 0 {
		return apperrors.NewStateCorruption("selector", "LoadState", "negative update count %d", state.UpdateCount)
	}

	dim := cfg.FeatureDim
	for i, arm := range state.Arms {
		if len(arm.Mu) != dim || len(arm.B) != dim {
			return apperrors.NewStateCorruption("selector", "LoadState", "arm %d vector length does not match dimension %d", i, dim)
		}
		if err := checkMatrixShape(arm.A, dim); err != nil {
			return apperrors.NewStateCorruption("selector", "LoadState", "arm %d matrix A: %v", i, err)
		}
		if err := checkMatrixShape(arm.Sigma, dim); err != nil {
			return apperrors.NewStateCorruption("selector", "LoadState", "arm %d matrix Sigma: %v", i, err)
		}
		if arm.Pulls < 0 {
			return apperrors.NewStateCorruption("selector", "LoadState", "arm %d negative pull count", i)
		}
		for _, r := range arm.Rewards {
			if math.IsNaN(r) || math.IsInf(r, 0) {
				return apperrors.NewStateCorruption("selector", "LoadState", "arm %d reward history contains non-finite value", i)
			}
		}
	}
	return nil
}

func checkMatrixShape(rows [][]float64, dim int) error {
	if len(rows) != dim {
		return fmt.Errorf("expected %d rows, got %d", dim, len(rows))
	}
	for r, row := range rows {
		if len(row) != dim {
			return fmt.Errorf("row %d: expected %d columns, got %d", r, dim, len(row))
		}
		for c, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("non-finite entry at (%d, %d)", r, c)
			}
		}
	}
	return nil
}

func vecToSlice(v *mat.VecDense) []float64 {
	out := make([]float64, v.Len())
	for i := range out {
		out[i] = v.AtVec(i)
	}
	return out
}

func symToRows(m *mat.SymDense) [][]float64 {
	n, _ := m.Dims()
	rows := make([][]float64, n)
	for i := 0; i < n; i++ {
		rows[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			rows[i][j] = m.At(i, j)
		}
	}
	return rows
}

func rowsToSym(rows [][]float64) *mat.SymDense {
	n := len(rows)
	m := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			m.SetSym(i, j, rows[i][j])
		}
	}
	return m
}
