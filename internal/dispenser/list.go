package dispenser

import (
	"fmt"
	"math/rand"

	"github.com/mildmongrel/thicket/internal/catalog"
	"github.com/sirupsen/logrus"
)

// List hands out random cards from a fixed list, each copy at most once.
// With replacement the dispensed cards go back into the list once it empties.
type List struct {
	remaining []catalog.Card
	dispensed []catalog.Card
	replace   bool
	rng       *rand.Rand
	logger    *logrus.Entry
}

func NewList(cards []catalog.Card, replace bool, rng *rand.Rand, logger *logrus.Entry) (*List, error) {
	if len(cards) == 0 {
		return nil, fmt.Errorf("%w: custom card list", ErrEmptyPool)
	}
	return &List{
		remaining: append([]catalog.Card(nil), cards...),
		replace:   replace,
		rng:       rng,
		logger:    logger,
	}, nil
}

func (l *List) reset() {
	l.remaining = append(l.remaining, l.dispensed...)
	l.dispensed = nil
}

// Dispense returns up to qty randomly chosen cards.
func (l *List) Dispense(qty int) []catalog.Card {
	out := make([]catalog.Card, 0, qty)
	for len(out) < qty {
		if len(l.remaining) == 0 {
			if !l.replace {
				l.logger.Error("card list dispenser exhausted")
				break
			}
			l.reset()
		}
		i := l.rng.Intn(len(l.remaining))
		c := l.remaining[i]
		l.remaining = append(l.remaining[:i], l.remaining[i+1:]...)
		l.dispensed = append(l.dispensed, c)
		out = append(out, c)
	}
	return out
}

// DispenseAll returns every undispensed card.
func (l *List) DispenseAll() []catalog.Card {
	out := append([]catalog.Card(nil), l.remaining...)
	l.dispensed = append(l.dispensed, l.remaining...)
	l.remaining = nil
	if l.replace {
		l.reset()
	}
	return out
}

// Remaining counts the cards not yet handed out.
func (l *List) Remaining() int { return len(l.remaining) }
