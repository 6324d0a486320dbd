// internal/roomconfig/roomconfig.go
package roomconfig

// Bundle generation methods.
const (
	MethodBooster      = "booster"
	MethodSingleRandom = "single_random"
)

// RoomConfig is an untrusted room-creation request.
type RoomConfig struct {
	Name       string      `json:"name"`
	Password   string      `json:"password,omitempty"`
	ChairCount int         `json:"chairCount"`
	BotCount   int         `json:"botCount"`
	Rounds     []RoundSpec `json:"rounds"`
}

// RoundSpec names exactly one archetype.
type RoundSpec struct {
	PostRoundSeconds int `json:"postRoundSeconds,omitempty"`

	Booster *BoosterSpec `json:"booster,omitempty"`
	Sealed  *SealedSpec  `json:"sealed,omitempty"`
	Grid    *GridSpec    `json:"grid,omitempty"`
}

type BoosterSpec struct {
	TimeSeconds int          `json:"timeSeconds"`
	CardBundles []CardBundle `json:"cardBundles"`
	// Clockwise overrides the default of alternating directions, clockwise
	// on even rounds.
	Clockwise *bool `json:"clockwise,omitempty"`
}

type SealedSpec struct {
	TimeSeconds int          `json:"timeSeconds"`
	CardBundles []CardBundle `json:"cardBundles"`
}

type GridSpec struct {
	TimeSeconds int          `json:"timeSeconds"`
	CardBundles []CardBundle `json:"cardBundles"`
}

// CardBundle describes one source of cards for every chair of a round.
type CardBundle struct {
	SetCode string `json:"setCode,omitempty"`
	Method  string `json:"method"`
	// Quantity is the number of boosters (booster method) or cards
	// (single_random method) per chair. Zero means one booster.
	Quantity int `json:"quantity,omitempty"`
	// Replacement defaults to true: the source never runs out.
	Replacement *bool          `json:"replacement,omitempty"`
	CustomCards []CardQuantity `json:"customCards,omitempty"`
}

type CardQuantity struct {
	Name     string `json:"name"`
	SetCode  string `json:"setCode,omitempty"`
	Quantity int    `json:"quantity"`
}

func (b CardBundle) replace() bool {
	return b.Replacement == nil || *b.Replacement
}

func (rs RoundSpec) archetypes() int {
	n := 0
	if rs.Booster != nil {
		n++
	}
	if rs.Sealed != nil {
		n++
	}
	if rs.Grid != nil {
		n++
	}
	return n
}

func (rs RoundSpec) bundles() []CardBundle {
	switch {
	case rs.Booster != nil:
		return rs.Booster.CardBundles
	case rs.Sealed != nil:
		return rs.Sealed.CardBundles
	case rs.Grid != nil:
		return rs.Grid.CardBundles
	}
	return nil
}

func (rs RoundSpec) timeSeconds() int {
	switch {
	case rs.Booster != nil:
		return rs.Booster.TimeSeconds
	case rs.Sealed != nil:
		return rs.Sealed.TimeSeconds
	case rs.Grid != nil:
		return rs.Grid.TimeSeconds
	}
	return 0
}

// SetCodes lists every catalog set referenced by the configuration, in round order.
func (rc RoomConfig) SetCodes() []string {
	var out []string
	seen := make(map[string]bool)
	add := func(code string) {
		if code != "" && !seen[code] {
			seen[code] = true
			out = append(out, code)
		}
	}
	for _, r := range rc.Rounds {
		for _, b := range r.bundles() {
			add(b.SetCode)
			for _, cq := range b.CustomCards {
				add(cq.SetCode)
			}
		}
	}
	return out
}
