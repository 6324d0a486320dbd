package dispenser

import (
	"math/rand"

	"github.com/mildmongrel/thicket/internal/catalog"
)

// MythicProbability is the chance a rare-or-mythic slot yields a mythic.
const MythicProbability = 0.125

// PoolSelector draws card names from a rarity-keyed pool without
// replacement until Reset puts the drawn cards back.
type PoolSelector struct {
	pool    map[catalog.Rarity][]string
	removed map[catalog.Rarity][]string
	rng     *rand.Rand
	mythic  float64
}

func NewPoolSelector(pool map[catalog.Rarity][]string, rng *rand.Rand) *PoolSelector {
	cp := make(map[catalog.Rarity][]string, len(pool))
	for r, names := range pool {
		cp[r] = append([]string(nil), names...)
	}
	return &PoolSelector{
		pool:    cp,
		removed: make(map[catalog.Rarity][]string),
		rng:     rng,
		mythic:  MythicProbability,
	}
}

// rarityFor maps a booster slot to the rarity it draws from.
func (s *PoolSelector) rarityFor(slot catalog.Slot) (catalog.Rarity, bool) {
	switch slot {
	case catalog.SlotCommon:
		return catalog.RarityCommon, true
	case catalog.SlotUncommon:
		return catalog.RarityUncommon, true
	case catalog.SlotRare:
		return catalog.RarityRare, true
	case catalog.SlotRareOrMythic:
		if s.rng.Float64() < s.mythic && len(s.pool[catalog.RarityMythic]) > 0 {
			return catalog.RarityMythic, true
		}
		return catalog.RarityRare, true
	}
	return "", false
}

// Select removes and returns a random card for slot. It returns false when
// the slot is unknown or its rarity has nothing left.
func (s *PoolSelector) Select(slot catalog.Slot) (string, bool) {
	rarity, ok := s.rarityFor(slot)
	if !ok {
		return "", false
	}
	names := s.pool[rarity]
	if len(names) == 0 {
		return "", false
	}
	i := s.rng.Intn(len(names))
	name := names[i]
	names[i] = names[len(names)-1]
	s.pool[rarity] = names[:len(names)-1]
	s.removed[rarity] = append(s.removed[rarity], name)
	return name, true
}

// Reset returns every drawn card to the pool.
func (s *PoolSelector) Reset() {
	for r, names := range s.removed {
		s.pool[r] = append(s.pool[r], names...)
	}
	s.removed = make(map[catalog.Rarity][]string)
}

// Remaining counts the undrawn cards of a rarity.
func (s *PoolSelector) Remaining(r catalog.Rarity) int {
	return len(s.pool[r])
}
