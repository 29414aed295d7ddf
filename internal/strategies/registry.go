package strategies

import (
	"fmt"
	"sort"

	"github.com/quantlab/adaptive-selector/pkg/types"
)

// Strategy maps a bar series to a position series of the same length with
// values in [-1, 1]: the fraction of capital held long (negative for short)
// at each bar. Implementations are stateless between calls.
type Strategy interface {
	Name() string
	Positions(bars []types.OHLCV) []float64
}

// Kind is the closed tag identifying each strategy in the roster. Invalid
// configuration names fail at registry construction, not at call time.
type Kind int

const (
	KindSMACross Kind = iota
	KindMomentum
	KindMeanReversion
	KindDonchianBreakout
	KindRSIReversal
)

var kindNames = map[Kind]string{
	KindSMACross:         "sma_cross",
	KindMomentum:         "momentum",
	KindMeanReversion:    "mean_reversion",
	KindDonchianBreakout: "donchian_breakout",
	KindRSIReversal:      "rsi_reversal",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Registry is the fixed roster of strategies for one evaluation run. Arm
// indices are assigned at construction and stay bijective with strategy
// names for the registry's lifetime.
type Registry struct {
	strategies []Strategy
	byName     map[string]int
}

// NewRegistry builds the roster from strategy names. Unknown names are a
// configuration error. Duplicate names are rejected.
func NewRegistry(names []string) (*Registry, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("strategy roster must not be empty")
	}

	kindByName := make(map[string]Kind, len(kindNames))
	for kind, name := range kindNames {
		kindByName[name] = kind
	}

	r := &Registry{byName: make(map[string]int, len(names))}
	for _, name := range names {
		kind, ok := kindByName[name]
		if !ok {
			return nil, fmt.Errorf("unknown strategy %q (known: %v)", name, KnownNames())
		}
		if _, dup := r.byName[name]; dup {
			return nil, fmt.Errorf("duplicate strategy %q in roster", name)
		}
		r.byName[name] = len(r.strategies)
		r.strategies = append(r.strategies, build(kind))
	}
	return r, nil
}

// DefaultRegistry builds the full roster of known strategies.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(KnownNames())
	if err != nil {
		panic(err) // all names are known by construction
	}
	return r
}

// KnownNames returns every registered strategy name, sorted.
func KnownNames() []string {
	names := make([]string, 0, len(kindNames))
	for _, name := range kindNames {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of strategies — the selector's arm count.
func (r *Registry) Len() int {
	return len(r.strategies)
}

// Strategy returns the strategy at the given arm index.
func (r *Registry) Strategy(arm int) Strategy {
	return r.strategies[arm]
}

// Arm returns the arm index for a strategy name.
func (r *Registry) Arm(name string) (int, bool) {
	arm, ok := r.byName[name]
	return arm, ok
}

// Names returns strategy names in arm order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.strategies))
	for i, s := range r.strategies {
		names[i] = s.Name()
	}
	return names
}

func build(kind Kind) Strategy {
	switch kind {
	case KindSMACross:
		return &SMACross{Fast: 10, Slow: 30}
	case KindMomentum:
		return &Momentum{Period: 20}
	case KindMeanReversion:
		return &MeanReversion{Period: 20, Entry: 1.5}
	case KindDonchianBreakout:
		return &DonchianBreakout{Period: 20}
	case KindRSIReversal:
		return &RSIReversal{Period: 14, Oversold: 30, Overbought: 70}
	default:
		panic(fmt.Sprintf("unhandled strategy kind %d", kind))
	}
}
