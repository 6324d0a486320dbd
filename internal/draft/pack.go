package draft

// card is a descriptor plus its selection bookkeeping. selectedChair is -1
// until the card is taken; a taken card never changes again.
type card[C comparable] struct {
	desc          C
	selectedChair int
	round         int
	order         int
}

func (c *card[C]) selected() bool { return c.selectedChair >= 0 }

// pack is an ordered set of cards sharing an id. Packs live in the Draft's
// arena and chairs refer to them by id.
type pack[C comparable] struct {
	id    uint32
	cards []card[C]
}

func newPack[C comparable](id uint32, descs []C) *pack[C] {
	p := &pack[C]{id: id, cards: make([]card[C], 0, len(descs))}
	p.add(descs)
	return p
}

func (p *pack[C]) add(descs []C) {
	for _, desc := range descs {
		p.cards = append(p.cards, card[C]{desc: desc, selectedChair: -1, round: -1, order: -1})
	}
}

func (p *pack[C]) unselected() []C {
	out := make([]C, 0, len(p.cards))
	for i := range p.cards {
		if !p.cards[i].selected() {
			out = append(out, p.cards[i].desc)
		}
	}
	return out
}

func (p *pack[C]) unselectedCount() int {
	n := 0
	for i := range p.cards {
		if !p.cards[i].selected() {
			n++
		}
	}
	return n
}

// firstUnselected returns the index of the first unselected card equal to
// desc, or -1.
func (p *pack[C]) firstUnselected(desc C) int {
	for i := range p.cards {
		if !p.cards[i].selected() && p.cards[i].desc == desc {
			return i
		}
	}
	return -1
}

func (p *pack[C]) firstUnselectedIndex() int {
	for i := range p.cards {
		if !p.cards[i].selected() {
			return i
		}
	}
	return -1
}

// selectedIndices returns the indices of every card already taken.
func (p *pack[C]) selectedIndices() []int {
	var out []int
	for i := range p.cards {
		if p.cards[i].selected() {
			out = append(out, i)
		}
	}
	return out
}

// cardRef locates a card inside the arena.
type cardRef struct {
	pack  uint32
	index int
}

// chair is one seat's state for the lifetime of the Draft.
type chair struct {
	index          int
	queue          []uint32 // pack ids, front is the top pack
	selected       []cardRef
	roundPicks     int
	ticksRemaining int
}

func (c *chair) top() (uint32, bool) {
	if len(c.queue) == 0 {
		return 0, false
	}
	return c.queue[0], true
}

func (c *chair) pop() {
	if len(c.queue) > 0 {
		c.queue = c.queue[1:]
	}
}
