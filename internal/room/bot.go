package room

import (
	"math/rand"
	"sort"

	"github.com/mildmongrel/thicket/internal/catalog"
	"github.com/mildmongrel/thicket/internal/draft"
	"github.com/sirupsen/logrus"
)

type cardDraft = draft.Draft[catalog.Card]

// Player is the occupant of a chair.
type Player interface {
	draft.Observer[catalog.Card]
	Chair() int
	Name() string
	IsBot() bool
}

// Bot picks a random card from every pack it receives, and in grid rounds
// claims a random available row or column when it is the active chair.
type Bot struct {
	draft.NopObserver[catalog.Card]

	chair  int
	name   string
	rng    *rand.Rand
	logger *logrus.Entry
}

func NewBot(chair int, name string, rng *rand.Rand, logger *logrus.Entry) *Bot {
	return &Bot{chair: chair, name: name, rng: rng, logger: logger}
}

func (b *Bot) Chair() int   { return b.chair }
func (b *Bot) Name() string { return b.name }
func (b *Bot) IsBot() bool  { return true }

func (b *Bot) NotifyNewPack(d *cardDraft, chair int, packID uint32, unselected []catalog.Card) {
	if chair != b.chair || len(unselected) == 0 {
		return
	}
	if d.CurrentRoundKind() == draft.RoundGrid {
		indices, ok := randomGridSelection(d, b.rng)
		if !ok {
			b.logger.Warnf("bot %q found no grid selection in pack %d", b.name, packID)
			return
		}
		b.logger.Tracef("bot %q claims %v from pack %d", b.name, indices, packID)
		d.MakeIndexedCardSelection(b.chair, packID, indices)
		return
	}
	card := unselected[b.rng.Intn(len(unselected))]
	b.logger.Tracef("bot %q picks %s from pack %d", b.name, card, packID)
	d.MakeNamedCardSelection(b.chair, packID, card)
}

// randomGridSelection chooses one of the open rows or columns of the
// current grid pack.
func randomGridSelection(d *cardDraft, rng *rand.Rand) ([]int, bool) {
	_, cells, _, ok := d.PublicState()
	if !ok {
		return nil, false
	}
	var claimed []int
	for i, c := range cells {
		if c.SelectedChair >= 0 {
			claimed = append(claimed, i)
		}
	}
	available := draft.GridAvailableSelections(claimed)
	if len(available) == 0 {
		return nil, false
	}
	slices := make([]draft.GridSlice, 0, len(available))
	for s := range available {
		slices = append(slices, s)
	}
	sort.Slice(slices, func(i, j int) bool { return slices[i] < slices[j] })
	return available[slices[rng.Intn(len(slices))]], true
}
