// internal/roomconfig/prototype.go
package roomconfig

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/mildmongrel/thicket/internal/auth"
	"github.com/mildmongrel/thicket/internal/catalog"
	"github.com/mildmongrel/thicket/internal/dispenser"
	"github.com/mildmongrel/thicket/internal/draft"
	"github.com/sirupsen/logrus"
)

// ErrInvalidConfig is returned when generating from a configuration that did
// not validate.
var ErrInvalidConfig = errors.New("invalid room configuration")

// Prototype is a validated room configuration. Only a prototype with
// StatusOK generates draft configurations and dispensers.
type Prototype struct {
	cfg          RoomConfig
	cat          *catalog.Catalog
	status       Status
	passwordHash string
	logger       *logrus.Entry
}

// NewPrototype validates cfg. The returned prototype carries the status even
// when it is not OK; the error is only for password hashing failures.
func NewPrototype(cat *catalog.Catalog, cfg RoomConfig, logger *logrus.Entry) (*Prototype, error) {
	p := &Prototype{
		cat:    cat,
		status: Validate(cat, cfg),
		logger: logger,
	}
	if cfg.Password != "" {
		hash, err := auth.HashPassword(cfg.Password, auth.RoomPasswordParams)
		if err != nil {
			return nil, fmt.Errorf("failed to hash room password: %w", err)
		}
		p.passwordHash = hash
	}
	cfg.Password = ""
	p.cfg = cfg

	if p.status != StatusOK {
		logger.Warnf("room configuration rejected: %s", p.status)
	}
	return p, nil
}

func (p *Prototype) Status() Status     { return p.status }
func (p *Prototype) Name() string       { return p.cfg.Name }
func (p *Prototype) ChairCount() int    { return p.cfg.ChairCount }
func (p *Prototype) BotCount() int      { return p.cfg.BotCount }
func (p *Prototype) HasPassword() bool  { return p.passwordHash != "" }
func (p *Prototype) Config() RoomConfig { return p.cfg }

// CheckPassword reports whether password opens the room. Rooms without a
// password accept anything.
func (p *Prototype) CheckPassword(password string) bool {
	if p.passwordHash == "" {
		return true
	}
	ok, err := auth.CheckPassword(password, p.passwordHash)
	if err != nil {
		p.logger.Errorf("room password check failed: %v", err)
		return false
	}
	return ok
}

func chairs(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

// DraftConfig expands the rounds into the engine configuration. Every card
// bundle gets its own dispenser, numbered in round then bundle order; the
// same numbering is used by Dispensers.
func (p *Prototype) DraftConfig() (draft.Config, error) {
	if p.status != StatusOK {
		return draft.Config{}, fmt.Errorf("%w: %s", ErrInvalidConfig, p.status)
	}

	cfg := draft.Config{ChairCount: p.cfg.ChairCount}
	next := 0
	for r, rs := range p.cfg.Rounds {
		rc := draft.RoundConfig{PostRoundTicks: rs.PostRoundSeconds}

		var dispensations []draft.Dispensation
		first := next
		for _, b := range rs.bundles() {
			dispensations = append(dispensations, bundleDispensations(next, b, p.cfg.ChairCount)...)
			next++
		}

		switch {
		case rs.Booster != nil:
			dir := draft.Clockwise
			if r%2 == 1 {
				dir = draft.CounterClockwise
			}
			if rs.Booster.Clockwise != nil {
				dir = draft.CounterClockwise
				if *rs.Booster.Clockwise {
					dir = draft.Clockwise
				}
			}
			rc.Booster = &draft.BoosterRound{
				PassDirection: dir,
				TimeoutTicks:  rs.Booster.TimeSeconds,
				Dispensations: dispensations,
			}
		case rs.Sealed != nil:
			rc.Sealed = &draft.SealedRound{
				TimeoutTicks:  rs.Sealed.TimeSeconds,
				Dispensations: dispensations,
			}
		case rs.Grid != nil:
			rc.Grid = &draft.GridRound{
				DispenserIndex: first,
				InitialChair:   r % p.cfg.ChairCount,
				TimeoutTicks:   rs.Grid.TimeSeconds,
			}
		}
		cfg.Rounds = append(cfg.Rounds, rc)
	}
	return cfg, nil
}

func bundleDispensations(index int, b CardBundle, chairCount int) []draft.Dispensation {
	if b.Method == MethodBooster {
		boosters := b.Quantity
		if boosters == 0 {
			boosters = 1
		}
		out := make([]draft.Dispensation, 0, boosters)
		for i := 0; i < boosters; i++ {
			out = append(out, draft.Dispensation{DispenserIndex: index, Chairs: chairs(chairCount), DispenseAll: true})
		}
		return out
	}
	return []draft.Dispensation{{DispenserIndex: index, Chairs: chairs(chairCount), Quantity: b.Quantity}}
}

// Dispensers builds one dispenser per card bundle. All dispensers share rng.
func (p *Prototype) Dispensers(rng *rand.Rand) ([]draft.Dispenser[catalog.Card], error) {
	if p.status != StatusOK {
		return nil, fmt.Errorf("%w: %s", ErrInvalidConfig, p.status)
	}

	var out []draft.Dispenser[catalog.Card]
	for r, rs := range p.cfg.Rounds {
		for i, b := range rs.bundles() {
			logger := p.logger.WithFields(logrus.Fields{"round": r, "bundle": i})
			d, err := p.newDispenser(b, rng, logger)
			if err != nil {
				return nil, fmt.Errorf("round %d bundle %d: %w", r, i, err)
			}
			out = append(out, d)
		}
	}
	return out, nil
}

func (p *Prototype) newDispenser(b CardBundle, rng *rand.Rand, logger *logrus.Entry) (draft.Dispenser[catalog.Card], error) {
	if b.Method == MethodBooster {
		booster, err := dispenser.NewBooster(p.cat, b.SetCode, b.replace(), rng, logger)
		if err != nil {
			return nil, err
		}
		return booster, nil
	}

	var cards []catalog.Card
	if len(b.CustomCards) > 0 {
		for _, cq := range b.CustomCards {
			setCode := cq.SetCode
			if setCode == "" {
				setCode = b.SetCode
			}
			for i := 0; i < cq.Quantity; i++ {
				cards = append(cards, catalog.Card{Name: cq.Name, SetCode: setCode})
			}
		}
	} else {
		var err error
		if cards, err = p.cat.Cards(b.SetCode); err != nil {
			return nil, err
		}
	}
	list, err := dispenser.NewList(cards, b.replace(), rng, logger)
	if err != nil {
		return nil, err
	}
	return list, nil
}
