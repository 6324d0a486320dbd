package roomconfig

import (
	"fmt"

	"github.com/mildmongrel/thicket/internal/catalog"
)

// Status is the outcome of validating a RoomConfig.
type Status int

const (
	StatusOK Status = iota
	StatusBadChairCount
	StatusBadBotCount
	StatusBadRoundCount
	StatusBadDraftType
	StatusBadRoundConfig
	StatusBadSetCode
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusBadChairCount:
		return "BAD_CHAIR_COUNT"
	case StatusBadBotCount:
		return "BAD_BOT_COUNT"
	case StatusBadRoundCount:
		return "BAD_ROUND_COUNT"
	case StatusBadDraftType:
		return "BAD_DRAFT_TYPE"
	case StatusBadRoundConfig:
		return "BAD_ROUND_CONFIG"
	case StatusBadSetCode:
		return "BAD_SET_CODE"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Validate checks cfg against the catalog. Checks run as whole passes in
// priority order, so the reported status is the highest-priority problem
// anywhere in the configuration.
func Validate(cat *catalog.Catalog, cfg RoomConfig) Status {
	if cfg.ChairCount <= 0 {
		return StatusBadChairCount
	}
	// At least one chair is left for a human.
	if cfg.BotCount < 0 || cfg.BotCount >= cfg.ChairCount {
		return StatusBadBotCount
	}
	if len(cfg.Rounds) == 0 {
		return StatusBadRoundCount
	}
	for _, r := range cfg.Rounds {
		if r.archetypes() != 1 {
			return StatusBadDraftType
		}
	}
	for _, r := range cfg.Rounds {
		if !validRound(cfg, r) {
			return StatusBadRoundConfig
		}
	}
	for _, r := range cfg.Rounds {
		for _, b := range r.bundles() {
			if !validSets(cat, b) {
				return StatusBadSetCode
			}
		}
	}
	return StatusOK
}

func validRound(cfg RoomConfig, r RoundSpec) bool {
	if r.PostRoundSeconds < 0 || r.timeSeconds() < 0 {
		return false
	}
	bundles := r.bundles()
	if len(bundles) == 0 {
		return false
	}
	if r.Grid != nil && (cfg.ChairCount != 2 || len(bundles) != 1) {
		return false
	}
	for _, b := range bundles {
		if !validBundle(b) {
			return false
		}
	}
	return true
}

func validBundle(b CardBundle) bool {
	if b.Quantity < 0 {
		return false
	}
	switch b.Method {
	case MethodBooster:
		return len(b.CustomCards) == 0 && b.SetCode != ""
	case MethodSingleRandom:
		if b.Quantity == 0 {
			return false
		}
		if b.SetCode == "" && len(b.CustomCards) == 0 {
			return false
		}
		total := 0
		for _, cq := range b.CustomCards {
			if cq.Name == "" || cq.Quantity <= 0 {
				return false
			}
			total += cq.Quantity
		}
		return len(b.CustomCards) == 0 || total > 0
	}
	return false
}

func validSets(cat *catalog.Catalog, b CardBundle) bool {
	if len(b.CustomCards) > 0 {
		for _, cq := range b.CustomCards {
			if cq.SetCode != "" && !cat.HasSet(cq.SetCode) {
				return false
			}
		}
		return true
	}
	if !cat.HasSet(b.SetCode) {
		return false
	}
	if b.Method == MethodBooster {
		slots, err := cat.BoosterSlots(b.SetCode)
		return err == nil && len(slots) > 0
	}
	return true
}
