// internal/room/human.go
package room

import (
	"math/rand"

	"github.com/mildmongrel/thicket/internal/catalog"
	"github.com/mildmongrel/thicket/internal/draft"
	"github.com/mildmongrel/thicket/internal/protocol"
	"github.com/sirupsen/logrus"
)

// Connection is a live client link. Send must not block.
type Connection interface {
	Send(msg protocol.Message)
}

// Human relays draft notifications to a connection and keeps the player's
// inventory. Its connection is nil while the chair is departed; the draft
// keeps running and time-expired picks are still made on its behalf.
type Human struct {
	chair  int
	name   string
	conn   Connection
	inv    *Inventory
	rng    *rand.Rand
	logger *logrus.Entry

	packID      uint32
	pack        []catalog.Card
	preselected *catalog.Card
	timeExpired bool
	pendingZone Zone

	// deckChanged fires after every inventory change.
	deckChanged func(h *Human)
}

func NewHuman(chair int, name string, conn Connection, rng *rand.Rand, logger *logrus.Entry) *Human {
	return &Human{
		chair:       chair,
		name:        name,
		conn:        conn,
		inv:         NewInventory(),
		rng:         rng,
		logger:      logger,
		pendingZone: ZoneMain,
	}
}

func (h *Human) Chair() int            { return h.chair }
func (h *Human) Name() string          { return h.name }
func (h *Human) IsBot() bool           { return false }
func (h *Human) Inventory() *Inventory { return h.inv }
func (h *Human) Connected() bool       { return h.conn != nil }

func (h *Human) send(typ string, payload any) {
	if h.conn == nil {
		return
	}
	h.conn.Send(protocol.New(typ, payload))
}

func (h *Human) sendInventory() {
	h.send(protocol.TypePlayerInventory, h.inv.Snapshot())
}

func (h *Human) addCard(card catalog.Card, zone Zone) {
	h.inv.Add(card, zone)
	if h.deckChanged != nil {
		h.deckChanged(h)
	}
}

func zoneOrMain(s string) Zone {
	if z, ok := ParseZone(s); ok {
		return z
	}
	return ZoneMain
}

// SelectNamed forwards a booster pick. The outcome reaches the client
// through the result notification.
func (h *Human) SelectNamed(d *cardDraft, req protocol.NamedCardSelection) bool {
	h.pendingZone = zoneOrMain(req.Zone)
	return d.MakeNamedCardSelection(h.chair, req.PackID, req.Card)
}

func (h *Human) SelectIndexed(d *cardDraft, req protocol.IndexedCardSelection) bool {
	h.pendingZone = zoneOrMain(req.Zone)
	return d.MakeIndexedCardSelection(h.chair, req.PackID, req.Indices)
}

// Preselect records the card to take if the pick timer runs out. It is
// ignored unless it names a card of the current pack.
func (h *Human) Preselect(req protocol.NamedCardPreselection) bool {
	if req.PackID != h.packID {
		return false
	}
	for _, c := range h.pack {
		if c == req.Card {
			card := req.Card
			h.preselected = &card
			return true
		}
	}
	return false
}

// UpdateInventory applies client-side zone moves and basic land changes.
// When any of them does not match the server's view the full inventory is
// sent back so the client can resynchronize.
func (h *Human) UpdateInventory(upd protocol.InventoryUpdate) bool {
	inSync := true
	for _, m := range upd.Moves {
		from, okFrom := ParseZone(m.From)
		to, okTo := ParseZone(m.To)
		if !okFrom || !okTo || !h.inv.Move(m.Card, from, to) {
			h.logger.Debugf("inventory move %s %s->%s rejected", m.Card, m.From, m.To)
			inSync = false
		}
	}
	for _, adj := range upd.BasicLands {
		land, okLand := ParseBasicLand(adj.Land)
		zone, okZone := ParseZone(adj.Zone)
		if !okLand || !okZone || !h.inv.AdjustBasicLand(land, zone, adj.Delta) {
			h.logger.Debugf("basic land adjustment %s %+d in %s rejected", adj.Land, adj.Delta, adj.Zone)
			inSync = false
		}
	}
	if !inSync {
		h.sendInventory()
	}
	if h.deckChanged != nil {
		h.deckChanged(h)
	}
	return inSync
}

func (h *Human) NotifyPackQueueSizeChanged(*cardDraft, int, int) {}

func (h *Human) NotifyNewPack(d *cardDraft, chair int, packID uint32, unselected []catalog.Card) {
	h.packID = packID
	h.pack = unselected
	h.preselected = nil
	h.timeExpired = false
	h.send(protocol.TypeCurrentPack, protocol.CurrentPack{PackID: packID, Cards: unselected})
}

func (h *Human) NotifyPublicState(d *cardDraft, packID uint32, cells []draft.PublicCardState[catalog.Card], activeChair int) {
	h.send(protocol.TypePublicState, publicStateMessage(packID, cells, activeChair))
}

func (h *Human) NotifyNamedCardSelectionResult(d *cardDraft, chair int, packID uint32, ok bool, card catalog.Card) {
	zone := h.pendingZone
	h.pendingZone = ZoneMain
	switch {
	case !ok:
		if !h.timeExpired {
			h.send(protocol.TypeNamedCardSelectionResult, protocol.NamedCardSelectionResult{PackID: packID, Card: card})
		}
	case h.timeExpired:
		h.timeExpired = false
		h.send(protocol.TypeAutoSelection, protocol.AutoSelection{PackID: packID, Card: card, Type: protocol.AutoSelectionTimedOut})
		h.addCard(card, ZoneAuto)
	default:
		h.send(protocol.TypeNamedCardSelectionResult, protocol.NamedCardSelectionResult{PackID: packID, Success: true, Card: card})
		h.addCard(card, zone)
	}
}

func (h *Human) NotifyIndexedCardSelectionResult(d *cardDraft, chair int, packID uint32, ok bool, indices []int, cards []catalog.Card) {
	zone := h.pendingZone
	h.pendingZone = ZoneMain
	if !ok {
		if !h.timeExpired {
			h.send(protocol.TypeIndexedCardSelectionResult, protocol.IndexedCardSelectionResult{PackID: packID, Indices: indices})
		}
		return
	}
	if h.timeExpired {
		h.timeExpired = false
		for _, c := range cards {
			h.send(protocol.TypeAutoSelection, protocol.AutoSelection{PackID: packID, Card: c, Type: protocol.AutoSelectionTimedOut})
			h.addCard(c, ZoneAuto)
		}
		return
	}
	h.send(protocol.TypeIndexedCardSelectionResult, protocol.IndexedCardSelectionResult{
		PackID: packID, Success: true, Indices: indices, Cards: cards,
	})
	for _, c := range cards {
		h.addCard(c, zone)
	}
}

func (h *Human) NotifyCardAutoselection(d *cardDraft, chair int, packID uint32, card catalog.Card) {
	h.send(protocol.TypeAutoSelection, protocol.AutoSelection{PackID: packID, Card: card, Type: protocol.AutoSelectionLastCard})
	h.addCard(card, ZoneAuto)
}

// NotifyTimeExpired makes the pick for the player: the preselected card if
// it is still in the pack, otherwise a random one. In grid rounds a random
// open row or column is claimed.
func (h *Human) NotifyTimeExpired(d *cardDraft, chair int, packID uint32, unselected []catalog.Card) {
	h.timeExpired = true
	if d.CurrentRoundKind() == draft.RoundGrid {
		indices, ok := randomGridSelection(d, h.rng)
		if !ok {
			h.logger.Warnf("no grid selection available for expired pack %d", packID)
			h.timeExpired = false
			return
		}
		h.logger.Debugf("time expired, claiming %v from pack %d", indices, packID)
		d.MakeIndexedCardSelection(h.chair, packID, indices)
		return
	}
	if len(unselected) == 0 {
		h.timeExpired = false
		return
	}

	card := unselected[h.rng.Intn(len(unselected))]
	if h.preselected != nil {
		for _, c := range unselected {
			if c == *h.preselected {
				card = c
				break
			}
		}
	}
	h.logger.Debugf("time expired, selecting %s from pack %d", card, packID)
	d.MakeNamedCardSelection(h.chair, packID, card)
}

func (h *Human) NotifyPostRoundTimerStarted(*cardDraft, int, int) {}
func (h *Human) NotifyNewRound(*cardDraft, int)                    {}
func (h *Human) NotifyDraftComplete(*cardDraft)                     {}
func (h *Human) NotifyDraftError(*cardDraft)                        {}

func publicStateMessage(packID uint32, cells []draft.PublicCardState[catalog.Card], activeChair int) protocol.PublicState {
	out := protocol.PublicState{PackID: packID, ActiveChair: activeChair, Cells: make([]protocol.PublicCell, len(cells))}
	for i, c := range cells {
		out.Cells[i] = protocol.PublicCell{Card: c.Card, SelectedChair: c.SelectedChair, SelectedOrder: c.SelectedOrder}
	}
	return out
}
