package roomconfig

import (
	"io"
	"math/rand"
	"testing"

	"github.com/mildmongrel/thicket/internal/catalog"
	"github.com/mildmongrel/thicket/internal/draft"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func testCatalog() *catalog.Catalog {
	var cards []catalog.SetCard
	for _, n := range []string{"c1", "c2", "c3", "c4", "c5", "c6", "c7", "c8", "c9", "c10"} {
		cards = append(cards, catalog.SetCard{Name: n, Rarity: catalog.RarityCommon})
	}
	cards = append(cards,
		catalog.SetCard{Name: "u1", Rarity: catalog.RarityUncommon},
		catalog.SetCard{Name: "u2", Rarity: catalog.RarityUncommon},
		catalog.SetCard{Name: "r1", Rarity: catalog.RarityRare},
	)
	return catalog.New(
		catalog.Set{
			Code:         "TST",
			BoosterSlots: []catalog.Slot{catalog.SlotCommon, catalog.SlotCommon, catalog.SlotCommon, catalog.SlotUncommon, catalog.SlotRare},
			Cards:        cards,
		},
		catalog.Set{Code: "NOB", Cards: cards},
	)
}

func boosterRound(setCode string) RoundSpec {
	return RoundSpec{Booster: &BoosterSpec{
		TimeSeconds: 60,
		CardBundles: []CardBundle{{SetCode: setCode, Method: MethodBooster}},
	}}
}

func validConfig() RoomConfig {
	return RoomConfig{
		Name:       "friday night",
		ChairCount: 8,
		BotCount:   2,
		Rounds:     []RoundSpec{boosterRound("TST"), boosterRound("TST"), boosterRound("TST")},
	}
}

func TestValidateStatus(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*RoomConfig)
		want   Status
	}{
		{"valid", func(*RoomConfig) {}, StatusOK},
		{"no chairs", func(c *RoomConfig) { c.ChairCount = 0 }, StatusBadChairCount},
		{"negative bots", func(c *RoomConfig) { c.BotCount = -1 }, StatusBadBotCount},
		{"all bots", func(c *RoomConfig) { c.BotCount = 8 }, StatusBadBotCount},
		{"no rounds", func(c *RoomConfig) { c.Rounds = nil }, StatusBadRoundCount},
		{"untyped round", func(c *RoomConfig) { c.Rounds[1] = RoundSpec{} }, StatusBadDraftType},
		{"two archetypes", func(c *RoomConfig) {
			c.Rounds[0].Sealed = &SealedSpec{CardBundles: c.Rounds[0].Booster.CardBundles}
		}, StatusBadDraftType},
		{"no bundles", func(c *RoomConfig) { c.Rounds[2].Booster.CardBundles = nil }, StatusBadRoundConfig},
		{"unknown method", func(c *RoomConfig) { c.Rounds[0].Booster.CardBundles[0].Method = "mystery" }, StatusBadRoundConfig},
		{"negative time", func(c *RoomConfig) { c.Rounds[0].Booster.TimeSeconds = -1 }, StatusBadRoundConfig},
		{"grid needs two chairs", func(c *RoomConfig) {
			c.Rounds[0] = RoundSpec{Grid: &GridSpec{CardBundles: []CardBundle{{SetCode: "TST", Method: MethodBooster}}}}
		}, StatusBadRoundConfig},
		{"empty custom card", func(c *RoomConfig) {
			c.Rounds[0].Booster.CardBundles[0] = CardBundle{Method: MethodSingleRandom, Quantity: 15,
				CustomCards: []CardQuantity{{Name: "x", Quantity: 0}}}
		}, StatusBadRoundConfig},
		{"unknown set", func(c *RoomConfig) { c.Rounds[2] = boosterRound("ZZZ") }, StatusBadSetCode},
		{"set without boosters", func(c *RoomConfig) { c.Rounds[2] = boosterRound("NOB") }, StatusBadSetCode},
		{"single random from set without boosters", func(c *RoomConfig) {
			c.Rounds[2].Booster.CardBundles[0] = CardBundle{SetCode: "NOB", Method: MethodSingleRandom, Quantity: 15}
		}, StatusOK},
		// Priority: the round config problem in round 2 wins over the set code in round 0.
		{"priority", func(c *RoomConfig) {
			c.Rounds[0] = boosterRound("ZZZ")
			c.Rounds[2].Booster.CardBundles = nil
		}, StatusBadRoundConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			assert.Equal(t, tt.want, Validate(testCatalog(), cfg), "got %s", Validate(testCatalog(), cfg))
		})
	}
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "OK", StatusOK.String())
	assert.Equal(t, "BAD_SET_CODE", StatusBadSetCode.String())
}

func TestInvalidPrototypeDoesNotGenerate(t *testing.T) {
	cfg := validConfig()
	cfg.ChairCount = 0
	p, err := NewPrototype(testCatalog(), cfg, testLogger())
	require.NoError(t, err)
	assert.Equal(t, StatusBadChairCount, p.Status())

	_, err = p.DraftConfig()
	assert.ErrorIs(t, err, ErrInvalidConfig)
	_, err = p.Dispensers(rand.New(rand.NewSource(1)))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestBoosterDraftConfig(t *testing.T) {
	p, err := NewPrototype(testCatalog(), validConfig(), testLogger())
	require.NoError(t, err)
	require.Equal(t, StatusOK, p.Status())

	cfg, err := p.DraftConfig()
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.ChairCount)
	require.Len(t, cfg.Rounds, 3)

	wantDirs := []draft.PassDirection{draft.Clockwise, draft.CounterClockwise, draft.Clockwise}
	for r, rc := range cfg.Rounds {
		require.Equal(t, draft.RoundBooster, rc.Kind())
		assert.Equal(t, wantDirs[r], rc.Booster.PassDirection, "round %d", r)
		assert.Equal(t, 60, rc.Booster.TimeoutTicks)
		require.Len(t, rc.Booster.Dispensations, 1)
		assert.Equal(t, r, rc.Booster.Dispensations[0].DispenserIndex)
		assert.True(t, rc.Booster.Dispensations[0].DispenseAll)
		assert.Len(t, rc.Booster.Dispensations[0].Chairs, 8)
	}

	dispensers, err := p.Dispensers(rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	assert.Len(t, dispensers, 3)
	assert.Len(t, dispensers[0].DispenseAll(), 5)
}

func TestPassDirectionOverride(t *testing.T) {
	cfg := validConfig()
	ccw := false
	cfg.Rounds[0].Booster.Clockwise = &ccw

	p, err := NewPrototype(testCatalog(), cfg, testLogger())
	require.NoError(t, err)
	dc, err := p.DraftConfig()
	require.NoError(t, err)
	assert.Equal(t, draft.CounterClockwise, dc.Rounds[0].Booster.PassDirection)
}

func TestSealedAndGridConfig(t *testing.T) {
	cfg := RoomConfig{
		ChairCount: 2,
		Rounds: []RoundSpec{
			{Sealed: &SealedSpec{CardBundles: []CardBundle{
				{SetCode: "TST", Method: MethodBooster, Quantity: 6},
			}}},
			{PostRoundSeconds: 10, Grid: &GridSpec{TimeSeconds: 30, CardBundles: []CardBundle{
				{SetCode: "TST", Method: MethodBooster},
			}}},
			{Grid: &GridSpec{TimeSeconds: 30, CardBundles: []CardBundle{
				{Method: MethodSingleRandom, Quantity: 9, CustomCards: []CardQuantity{
					{Name: "Island", SetCode: "TST", Quantity: 20},
				}},
			}}},
		},
	}
	p, err := NewPrototype(testCatalog(), cfg, testLogger())
	require.NoError(t, err)
	require.Equal(t, StatusOK, p.Status())

	dc, err := p.DraftConfig()
	require.NoError(t, err)
	require.Len(t, dc.Rounds, 3)

	assert.Len(t, dc.Rounds[0].Sealed.Dispensations, 6)
	assert.Equal(t, 10, dc.Rounds[1].PostRoundTicks)
	assert.Equal(t, draft.GridRound{DispenserIndex: 1, InitialChair: 1, TimeoutTicks: 30}, *dc.Rounds[1].Grid)
	assert.Equal(t, draft.GridRound{DispenserIndex: 2, InitialChair: 0, TimeoutTicks: 30}, *dc.Rounds[2].Grid)

	dispensers, err := p.Dispensers(rand.New(rand.NewSource(7)))
	require.NoError(t, err)
	require.Len(t, dispensers, 3)
	cards := dispensers[2].Dispense(9)
	require.Len(t, cards, 9)
	assert.Equal(t, catalog.Card{Name: "Island", SetCode: "TST"}, cards[0])

	// The whole configuration runs to completion on the engine.
	d := draft.New(dc, dispensers, nil)
	d.Start()
	assert.Equal(t, draft.StateRunning, d.State())
	assert.Equal(t, 1, d.CurrentRound())
	assert.Len(t, d.SelectedCards(0), 30)
}

func TestPrototypePassword(t *testing.T) {
	cfg := validConfig()
	cfg.Password = "hunter2"
	p, err := NewPrototype(testCatalog(), cfg, testLogger())
	require.NoError(t, err)

	assert.True(t, p.HasPassword())
	assert.True(t, p.CheckPassword("hunter2"))
	assert.False(t, p.CheckPassword("hunter3"))
	assert.Empty(t, p.Config().Password)

	open, err := NewPrototype(testCatalog(), validConfig(), testLogger())
	require.NoError(t, err)
	assert.False(t, open.HasPassword())
	assert.True(t, open.CheckPassword("anything"))
}

func TestSetCodes(t *testing.T) {
	cfg := validConfig()
	cfg.Rounds = append(cfg.Rounds, RoundSpec{Sealed: &SealedSpec{CardBundles: []CardBundle{
		{Method: MethodSingleRandom, Quantity: 3, CustomCards: []CardQuantity{{Name: "x", SetCode: "PRO", Quantity: 3}}},
	}}})
	assert.Equal(t, []string{"TST", "PRO"}, cfg.SetCodes())
}
