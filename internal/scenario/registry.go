package scenario

import (
	"fmt"

	"github.com/danielpatrickdp/rlhf-playground/internal/eval"
)

// #region registry
// Registry holds scenarios in registration order.
type Registry struct {
	order []string
	byID  map[string]Scenario
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byID: make(map[string]Scenario)}
}

// Register adds s. Duplicate or empty ids and scenarios without a derivation are rejected.
func (r *Registry) Register(s Scenario) error {
	if s.ID == "" {
		return fmt.Errorf("register scenario: empty id")
	}
	if s.Derive == nil {
		return fmt.Errorf("register scenario %q: no derivation", s.ID)
	}
	if _, dup := r.byID[s.ID]; dup {
		return fmt.Errorf("register scenario %q: already registered", s.ID)
	}
	if s.Bounds.Bounds == nil {
		s.Bounds = eval.DefaultConfig()
	}
	r.order = append(r.order, s.ID)
	r.byID[s.ID] = s
	return nil
}

// Lookup returns the scenario registered under id.
func (r *Registry) Lookup(id string) (Scenario, error) {
	s, ok := r.byID[id]
	if !ok {
		return Scenario{}, fmt.Errorf("lookup %q: %w", id, ErrUnknown)
	}
	return s, nil
}

// List returns every scenario in registration order.
func (r *Registry) List() []Scenario {
	out := make([]Scenario, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}

// IDs returns the registered ids in order.
func (r *Registry) IDs() []string {
	return append([]string(nil), r.order...)
}

// Len is the number of registered scenarios.
func (r *Registry) Len() int {
	return len(r.order)
}

// Subset returns a registry holding only the named scenarios, in the given order.
func (r *Registry) Subset(ids ...string) (*Registry, error) {
	out := NewRegistry()
	for _, id := range ids {
		s, err := r.Lookup(id)
		if err != nil {
			return nil, err
		}
		if err := out.Register(s); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// #endregion registry

// #region builtins
// PlaygroundIDs are the scenarios shown side by side in the concept playground.
var PlaygroundIDs = []string{"rejection-sampling", "ppo", "dpo"}

// Builtins returns every built-in scenario in guide order.
func Builtins() []Scenario {
	return []Scenario{
		RejectionSampling(),
		PPO(),
		DPO(),
		RewardModel(),
		PreferenceComparison(),
		PreferenceBias(),
		KLPenalty(),
		Regularization(),
		PolicyImprovement(),
		DPOLoss(),
		PPOClip(),
		Overoptimization(),
		RLVR(),
		InferenceScaling(),
		ToolLatency(),
		Constitutional(),
		AIFeedback(),
		SyntheticData(),
		MethodComparison(),
	}
}

// Default returns a registry with every built-in scenario.
func Default() *Registry {
	r := NewRegistry()
	for _, s := range Builtins() {
		if err := r.Register(s); err != nil {
			panic(err)
		}
	}
	return r
}

// Playground returns the concept-playground scenarios in display order.
func Playground() *Registry {
	r, err := Default().Subset(PlaygroundIDs...)
	if err != nil {
		panic(err)
	}
	return r
}

// #endregion builtins
