// internal/draft/config.go
package draft

// PassDirection is the order booster packs travel around the table.
type PassDirection int

const (
	Clockwise        PassDirection = iota // chair+1 mod N
	CounterClockwise                      // chair-1 mod N
)

func (p PassDirection) String() string {
	if p == CounterClockwise {
		return "counter_clockwise"
	}
	return "clockwise"
}

// RoundKind identifies which archetype a round uses.
type RoundKind int

const (
	RoundNone RoundKind = iota
	RoundBooster
	RoundSealed
	RoundGrid
)

func (k RoundKind) String() string {
	switch k {
	case RoundBooster:
		return "booster"
	case RoundSealed:
		return "sealed"
	case RoundGrid:
		return "grid"
	default:
		return "none"
	}
}

// GridPackSize is the number of cards dealt for a grid round.
const GridPackSize = 9

// Config is the immutable description of a whole draft.
type Config struct {
	ChairCount int           `json:"chairCount"`
	Rounds     []RoundConfig `json:"rounds"`
}

// RoundConfig is a tagged union: exactly one of Booster, Sealed or Grid is set.
type RoundConfig struct {
	// PostRoundTicks delays the start of the next round after this one completes.
	PostRoundTicks int `json:"postRoundTicks,omitempty"`

	Booster *BoosterRound `json:"booster,omitempty"`
	Sealed  *SealedRound  `json:"sealed,omitempty"`
	Grid    *GridRound    `json:"grid,omitempty"`
}

// Kind reports which archetype the round uses.
func (rc RoundConfig) Kind() RoundKind {
	switch {
	case rc.Booster != nil:
		return RoundBooster
	case rc.Sealed != nil:
		return RoundSealed
	case rc.Grid != nil:
		return RoundGrid
	default:
		return RoundNone
	}
}

// TimeoutTicks returns the per-pack selection time of the round, 0 if none.
func (rc RoundConfig) TimeoutTicks() int {
	switch {
	case rc.Booster != nil:
		return rc.Booster.TimeoutTicks
	case rc.Sealed != nil:
		return rc.Sealed.TimeoutTicks
	case rc.Grid != nil:
		return rc.Grid.TimeoutTicks
	}
	return 0
}

type BoosterRound struct {
	PassDirection PassDirection  `json:"passDirection"`
	TimeoutTicks  int            `json:"timeoutTicks"`
	Dispensations []Dispensation `json:"dispensations"`
}

type SealedRound struct {
	TimeoutTicks  int            `json:"timeoutTicks"`
	Dispensations []Dispensation `json:"dispensations"`
}

type GridRound struct {
	DispenserIndex int `json:"dispenserIndex"`
	InitialChair   int `json:"initialChair"`
	TimeoutTicks   int `json:"timeoutTicks"`
}

// Dispensation feeds cards from one dispenser to a set of chairs for a round.
// With DispenseAll the dispenser's whole batch goes to each chair, otherwise
// Quantity cards.
type Dispensation struct {
	DispenserIndex int   `json:"dispenserIndex"`
	Chairs         []int `json:"chairs"`
	Quantity       int   `json:"quantity,omitempty"`
	DispenseAll    bool  `json:"dispenseAll,omitempty"`
}

// dispensations returns the dispensations of a booster or sealed round.
func (rc RoundConfig) dispensations() []Dispensation {
	switch {
	case rc.Booster != nil:
		return rc.Booster.Dispensations
	case rc.Sealed != nil:
		return rc.Sealed.Dispensations
	}
	return nil
}

// dispenserIndices lists every dispenser index the round refers to.
func (rc RoundConfig) dispenserIndices() []int {
	if rc.Grid != nil {
		return []int{rc.Grid.DispenserIndex}
	}
	var out []int
	for _, d := range rc.dispensations() {
		out = append(out, d.DispenserIndex)
	}
	return out
}
