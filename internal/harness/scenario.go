package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/crates/internal/crate"
	"github.com/roach88/crates/internal/sequencer"
)

// Scenario defines a crate scenario.
type Scenario struct {
	// Name uniquely identifies this scenario. Also the golden file name.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// StageInterval is the ticks between reveal stages. Default 20.
	StageInterval int `yaml:"stage_interval,omitempty"`

	// BusyPolicy is "reject" (default) or "enqueue".
	BusyPolicy string `yaml:"busy_policy,omitempty"`

	// Draws are the scripted random values in [0,1) consumed by reward
	// selection, cycling. Empty means every draw is 0.
	Draws []float64 `yaml:"draws,omitempty"`

	// Items maps item ids to display names. Pool entries whose item is
	// missing here fail resolution.
	Items map[string]string `yaml:"items"`

	// Crates are the crate definitions.
	Crates []CrateSpec `yaml:"crates"`

	// Players are connected before the first step, in order.
	Players []PlayerSpec `yaml:"players"`

	// Entities are crate entities placed in the world.
	Entities []EntitySpec `yaml:"entities,omitempty"`

	// Steps run in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final state and trace.
	Assertions []Assertion `yaml:"assertions"`
}

// CrateSpec defines one crate's reward pool.
type CrateSpec struct {
	Type string            `yaml:"type"`
	Pool []crate.PoolEntry `yaml:"pool"`
}

// PlayerSpec defines a connected player.
type PlayerSpec struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`

	// Slots limits the inventory. Zero means unlimited.
	Slots int `yaml:"slots,omitempty"`

	// Admin grants the spawn permission.
	Admin bool `yaml:"admin,omitempty"`

	// Keys are starting balances by crate type.
	Keys map[string]int `yaml:"keys,omitempty"`
}

// EntitySpec places a crate entity.
type EntitySpec struct {
	ID    string  `yaml:"id"`
	World string  `yaml:"world"`
	X     float64 `yaml:"x"`
	Y     float64 `yaml:"y"`
	Z     float64 `yaml:"z"`
}

// Step is one scenario step. Exactly one action field must be set.
type Step struct {
	Open        *OpenStep  `yaml:"open,omitempty"`
	GiveKey     *GrantStep `yaml:"give_key,omitempty"`
	GiveAllKeys *GrantStep `yaml:"give_all_keys,omitempty"`
	Spawn       *SpawnStep `yaml:"spawn,omitempty"`

	// Quit disconnects the named player.
	Quit string `yaml:"quit,omitempty"`

	// Rejoin reconnects a player who quit. Their key session starts empty.
	Rejoin string `yaml:"rejoin,omitempty"`

	// Destroy removes the named entity.
	Destroy string `yaml:"destroy,omitempty"`

	// Advance moves the clock forward this many ticks.
	Advance int `yaml:"advance,omitempty"`

	// Expect is the expected outcome of open, give and spawn steps:
	// "proceed" or a cancellation reason such as "no-keys".
	Expect string `yaml:"expect,omitempty"`
}

// OpenStep is an open-crate request.
type OpenStep struct {
	Player string `yaml:"player"`
	Crate  string `yaml:"crate"`
	Entity string `yaml:"entity,omitempty"`
}

// GrantStep is a key grant. Player is ignored by give_all_keys.
type GrantStep struct {
	Player string `yaml:"player,omitempty"`
	Crate  string `yaml:"crate"`
	Amount int    `yaml:"amount"`
}

// SpawnStep is an admin spawn request.
type SpawnStep struct {
	Player string `yaml:"player"`
	Crate  string `yaml:"crate"`
}

// Assertion validates final state or the trace.
type Assertion struct {
	// Type specifies the assertion type:
	// - "keys": Player's balance of Crate equals Count; fails for a player
	//   who quit, since their session is gone
	// - "inventory": Player's inventory holds Items (ids, in order)
	// - "trace_contains": an event of Kind (and Target) whose detail contains Detail
	// - "trace_count": exactly Count events of Kind (and Target)
	// - "trace_order": Kinds appear in order, not necessarily adjacent
	// - "history_count": exactly Count journal entries of Kind for Player
	Type string `yaml:"type"`

	Player string   `yaml:"player,omitempty"`
	Crate  string   `yaml:"crate,omitempty"`
	Count  int      `yaml:"count,omitempty"`
	Items  []string `yaml:"items,omitempty"`
	Kind   string   `yaml:"kind,omitempty"`
	Target string   `yaml:"target,omitempty"`
	Detail string   `yaml:"detail,omitempty"`
	Kinds  []string `yaml:"kinds,omitempty"`
}

// Assertion type constants.
const (
	AssertKeys          = "keys"
	AssertInventory     = "inventory"
	AssertTraceContains = "trace_contains"
	AssertTraceCount    = "trace_count"
	AssertTraceOrder    = "trace_order"
	AssertHistoryCount  = "history_count"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is invalid.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}
	if s.StageInterval < 0 {
		return fmt.Errorf("stage_interval must be non-negative")
	}
	if _, err := sequencer.ParsePolicy(s.BusyPolicy); err != nil {
		return err
	}
	for i, d := range s.Draws {
		if d < 0 || d >= 1 {
			return fmt.Errorf("draws[%d]: %v is outside [0,1)", i, d)
		}
	}

	for i, c := range s.Crates {
		if _, err := crate.ParseType(c.Type); err != nil {
			return fmt.Errorf("crates[%d]: %w", i, err)
		}
	}

	players := make(map[string]bool, len(s.Players))
	for i, p := range s.Players {
		if p.ID == "" {
			return fmt.Errorf("players[%d]: id is required", i)
		}
		if players[p.ID] {
			return fmt.Errorf("players[%d]: duplicate id %q", i, p.ID)
		}
		players[p.ID] = true
		for t, n := range p.Keys {
			if _, err := crate.ParseType(t); err != nil {
				return fmt.Errorf("players[%d].keys: %w", i, err)
			}
			if n < 0 {
				return fmt.Errorf("players[%d].keys.%s: must be non-negative", i, t)
			}
		}
	}

	for i, step := range s.Steps {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a); err != nil {
			return err
		}
	}

	return nil
}

// validateStep checks that exactly one action is set.
func validateStep(index int, s *Step) error {
	set := 0
	for _, ok := range []bool{
		s.Open != nil, s.GiveKey != nil, s.GiveAllKeys != nil, s.Spawn != nil,
		s.Quit != "", s.Rejoin != "", s.Destroy != "", s.Advance != 0,
	} {
		if ok {
			set++
		}
	}
	if set != 1 {
		return fmt.Errorf("steps[%d]: exactly one action is required, got %d", index, set)
	}

	switch {
	case s.Open != nil && (s.Open.Player == "" || s.Open.Crate == ""):
		return fmt.Errorf("steps[%d]: open needs player and crate", index)
	case s.GiveKey != nil && s.GiveKey.Player == "":
		return fmt.Errorf("steps[%d]: give_key needs player", index)
	case s.Spawn != nil && s.Spawn.Player == "":
		return fmt.Errorf("steps[%d]: spawn needs player", index)
	case s.Advance < 0:
		return fmt.Errorf("steps[%d]: advance must be positive", index)
	}

	if s.Expect != "" && s.Open == nil && s.GiveKey == nil && s.GiveAllKeys == nil && s.Spawn == nil {
		return fmt.Errorf("steps[%d]: expect only applies to open, give and spawn steps", index)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertKeys:
		if a.Player == "" || a.Crate == "" {
			return fmt.Errorf("assertions[%d]: player and crate are required for keys", index)
		}
	case AssertInventory:
		if a.Player == "" {
			return fmt.Errorf("assertions[%d]: player is required for inventory", index)
		}
	case AssertTraceContains:
		if a.Kind == "" {
			return fmt.Errorf("assertions[%d]: kind is required for trace_contains", index)
		}
	case AssertTraceCount:
		if a.Kind == "" {
			return fmt.Errorf("assertions[%d]: kind is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertTraceOrder:
		if len(a.Kinds) == 0 {
			return fmt.Errorf("assertions[%d]: kinds list is required for trace_order", index)
		}
	case AssertHistoryCount:
		if a.Kind == "" {
			return fmt.Errorf("assertions[%d]: kind is required for history_count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
