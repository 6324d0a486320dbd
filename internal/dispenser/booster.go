// internal/dispenser/booster.go
package dispenser

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/mildmongrel/thicket/internal/catalog"
	"github.com/sirupsen/logrus"
)

var (
	// ErrNoBoosterSlots marks a set that cannot produce boosters.
	ErrNoBoosterSlots = errors.New("set has no booster slots")
	// ErrEmptyPool marks a dispenser with nothing to hand out.
	ErrEmptyPool = errors.New("card pool is empty")
)

// Booster hands out cards from generated boosters of one set. Cards are
// dispensed from the front of the current booster and a new booster is
// generated when it runs out.
//
// With replacement every booster is drawn from the full set. Without it the
// drawn cards never return to the pool, so the dispenser eventually runs
// dry and returns short batches.
type Booster struct {
	setCode  string
	slots    []catalog.Slot
	selector *PoolSelector
	replace  bool
	logger   *logrus.Entry

	cards []catalog.Card
}

func NewBooster(cat *catalog.Catalog, setCode string, replace bool, rng *rand.Rand, logger *logrus.Entry) (*Booster, error) {
	slots, err := cat.BoosterSlots(setCode)
	if err != nil {
		return nil, err
	}
	if len(slots) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoBoosterSlots, setCode)
	}
	pool, err := cat.CardPool(setCode)
	if err != nil {
		return nil, err
	}
	if len(pool) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyPool, setCode)
	}

	b := &Booster{
		setCode:  setCode,
		slots:    slots,
		selector: NewPoolSelector(pool, rng),
		replace:  replace,
		logger:   logger.WithField("set", setCode),
	}
	b.refill()
	return b, nil
}

func (b *Booster) refill() {
	if b.replace {
		b.selector.Reset()
	}
	b.cards = b.cards[:0]
	for _, slot := range b.slots {
		name, ok := b.selector.Select(slot)
		if !ok {
			b.logger.Warnf("could not fill %s slot", slot)
			continue
		}
		b.cards = append(b.cards, catalog.Card{Name: name, SetCode: b.setCode})
	}
}

// Dispense returns up to qty cards.
func (b *Booster) Dispense(qty int) []catalog.Card {
	out := make([]catalog.Card, 0, qty)
	for len(out) < qty {
		if len(b.cards) == 0 {
			b.refill()
			if len(b.cards) == 0 {
				b.logger.Error("booster dispenser exhausted")
				break
			}
		}
		out = append(out, b.cards[0])
		b.cards = b.cards[1:]
	}
	return out
}

// DispenseAll returns the rest of the current booster and starts a new one.
func (b *Booster) DispenseAll() []catalog.Card {
	out := append([]catalog.Card(nil), b.cards...)
	b.cards = nil
	b.refill()
	return out
}
