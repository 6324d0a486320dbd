package draft

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValidGridSelection(t *testing.T) {
	tests := []struct {
		name        string
		unavailable []int
		indices     []int
		want        bool
	}{
		{"full row", nil, []int{0, 1, 2}, true},
		{"full column", nil, []int{0, 3, 6}, true},
		{"unordered column", nil, []int{7, 1, 4}, true},
		{"diagonal", nil, []int{0, 4, 8}, false},
		{"bent", nil, []int{0, 1, 3}, false},
		{"too many", nil, []int{0, 1, 2, 3}, false},
		{"empty", nil, nil, false},
		{"out of range", nil, []int{9}, false},
		{"negative", nil, []int{-1, 0, 1}, false},
		{"duplicate", nil, []int{0, 0, 1}, false},
		{"single cell of full row", nil, []int{5}, false},
		{"other full row after claim", []int{0, 1, 2}, []int{3, 4, 5}, true},
		{"column remainder after claim", []int{0, 1, 2}, []int{3, 6}, true},
		{"column including claimed cell", []int{0, 1, 2}, []int{0, 3, 6}, false},
		{"claimed row again", []int{0, 1, 2}, []int{0, 1, 2}, false},
		{"partial remainder", []int{0, 1, 2}, []int{3}, false},
		{"single remaining cell", []int{0, 1, 2, 3, 4, 5, 6, 7}, []int{8}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidGridSelection(tt.unavailable, tt.indices))
		})
	}
}

func TestGridAvailableSelections(t *testing.T) {
	avail := GridAvailableSelections([]int{0, 1, 2})
	assert.NotContains(t, avail, GridRow0)
	assert.Equal(t, []int{3, 4, 5}, avail[GridRow1])
	assert.Equal(t, []int{3, 6}, avail[GridCol0])
	assert.Equal(t, []int{4, 7}, avail[GridCol1])
	assert.Len(t, avail, 5)

	assert.Len(t, GridAvailableSelections(nil), 6)
}

// pick claims indices for chair using whatever pack the chair holds.
func pick(d *Draft[string], chair int, indices ...int) bool {
	packID, _, ok := d.TopPack(chair)
	if !ok {
		packID, _, _, _ = d.PublicState()
	}
	return d.MakeIndexedCardSelection(chair, packID, indices)
}

func startGrid(t *testing.T, rounds int) (*Draft[string], *recordingObserver) {
	t.Helper()
	d := New(gridConfig(rounds, 2, 30), testDispensers(1), nil)
	rec := newRecordingObserver()
	d.AddObserver(rec)
	d.Start()
	require.Equal(t, StateRunning, d.State())
	require.Equal(t, RoundGrid, d.CurrentRoundKind())
	return d, rec
}

func TestGridSelectionSequences(t *testing.T) {
	type claim struct {
		chair   int
		indices []int
	}
	tests := []struct {
		name   string
		claims []claim
	}{
		{
			name: "full slices",
			claims: []claim{
				{0, []int{0, 1, 2}}, {1, []int{3, 4, 5}},
				{1, []int{0, 3, 6}}, {0, []int{1, 4, 7}},
				{0, []int{6, 7, 8}}, {1, []int{0, 1, 2}},
				{1, []int{2, 5, 8}}, {0, []int{0, 3, 6}},
				{0, []int{1, 4, 7}}, {1, []int{0, 3, 6}},
				{1, []int{3, 4, 5}}, {0, []int{6, 7, 8}},
			},
		},
		{
			name: "full slice then remainder",
			claims: []claim{
				{0, []int{0, 1, 2}}, {1, []int{3, 6}},
				{1, []int{3, 4, 5}}, {0, []int{1, 7}},
				{0, []int{6, 7, 8}}, {1, []int{2, 5}},
				{1, []int{0, 3, 6}}, {0, []int{1, 2}},
				{0, []int{1, 4, 7}}, {1, []int{3, 5}},
				{1, []int{2, 5, 8}}, {0, []int{6, 7}},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, rec := startGrid(t, 18)
			for i, c := range tt.claims {
				require.True(t, pick(d, c.chair, c.indices...), "claim %d", i)
			}
			assert.Equal(t, 7, rec.newRounds)
			assert.Zero(t, rec.selectionErrors)
			assert.Equal(t, 6, d.CurrentRound())
		})
	}
}

func TestGridInvalidFirstSelections(t *testing.T) {
	d, rec := startGrid(t, 18)

	invalid := [][]int{{9}, {0, 9}, {0, 1, 3}, {0, 4, 8}, {0, 1, 2, 3}, {5}, {5, 6}}
	for _, indices := range invalid {
		assert.False(t, pick(d, 0, indices...), "%v", indices)
	}
	assert.Equal(t, len(invalid), rec.selectionErrors)
	assert.Equal(t, 1, rec.newRounds)
	assert.Equal(t, 0, rec.publicActive)
	assert.Equal(t, GridPackSize, rec.unclaimedCells())
}

func TestGridInvalidSecondSelections(t *testing.T) {
	tests := []struct {
		first   []int
		invalid [][]int
	}{
		{[]int{3, 4, 5}, [][]int{{8}, {1, 2}, {3, 4, 5}, {2, 5, 8}}},
		{[]int{1, 4, 7}, [][]int{{8}, {0, 3}, {1, 4, 7}, {6, 7, 8}}},
	}
	for _, tt := range tests {
		d, rec := startGrid(t, 18)
		require.True(t, pick(d, 0, tt.first...))
		require.Equal(t, 1, rec.publicActive)

		for _, indices := range tt.invalid {
			assert.False(t, pick(d, 1, indices...), "after %v: %v", tt.first, indices)
		}
		assert.Equal(t, len(tt.invalid), rec.selectionErrors)
		assert.Equal(t, 0, d.CurrentRound())
	}
}

func TestGridWrongChair(t *testing.T) {
	d, rec := startGrid(t, 18)

	assert.False(t, pick(d, 1, 0, 1, 2))
	assert.Equal(t, 1, rec.selectionErrors)

	require.True(t, pick(d, 0, 0, 1, 2))
	assert.False(t, pick(d, 0, 3, 4, 5))
	assert.Equal(t, 2, rec.selectionErrors)

	// Named selections never apply to a grid round.
	packID, _, _, _ := d.PublicState()
	assert.False(t, d.MakeNamedCardSelection(1, packID, "0:card3"))
	assert.Equal(t, 3, rec.selectionErrors)
}

func TestGridPublicState(t *testing.T) {
	cfg := gridConfig(2, 2, 30)
	cfg.Rounds[0].PostRoundTicks = 5
	d := New(cfg, testDispensers(1), nil)
	rec := newRecordingObserver()
	d.AddObserver(rec)
	d.Start()

	assert.Equal(t, 1, rec.publicUpdates)
	assert.Equal(t, 0, rec.publicActive)
	assert.Equal(t, 9, rec.unclaimedCells())
	assert.Equal(t, 1, d.PackQueueSize(0))
	assert.Equal(t, 0, d.PackQueueSize(1))

	require.True(t, pick(d, 0, 0, 1, 2))
	assert.Equal(t, 2, rec.publicUpdates)
	assert.Equal(t, 1, rec.publicActive)
	assert.Equal(t, 6, rec.unclaimedCells())
	assert.Equal(t, 0, d.PackQueueSize(0))
	assert.Equal(t, 1, d.PackQueueSize(1))

	require.True(t, pick(d, 1, 3, 6))
	assert.Equal(t, 3, rec.publicUpdates)
	assert.Equal(t, -1, rec.publicActive)
	assert.Equal(t, 4, rec.unclaimedCells())
	assert.Equal(t, []int{0}, rec.postRoundTimers)

	cells := rec.publicCells
	assert.Equal(t, 0, cells[0].SelectedChair)
	assert.Equal(t, 0, cells[0].SelectedOrder)
	assert.Equal(t, 1, cells[3].SelectedChair)
	assert.Equal(t, 1, cells[3].SelectedOrder)
	assert.Equal(t, -1, cells[4].SelectedChair)

	packID, _, active, ok := d.PublicState()
	require.True(t, ok)
	assert.Equal(t, rec.publicPackID, packID)
	assert.Equal(t, -1, active)

	// A claim while the post-round timer runs is rejected.
	assert.False(t, d.MakeIndexedCardSelection(0, packID, []int{4, 5}))

	for i := 0; i < 5; i++ {
		d.Tick()
	}
	assert.Equal(t, 1, d.CurrentRound())
	assert.Equal(t, 1, rec.publicActive)
	assert.Equal(t, 9, rec.unclaimedCells())
}

func TestGridDraftCompletes(t *testing.T) {
	d, rec := startGrid(t, 3)

	require.True(t, pick(d, 0, 0, 1, 2))
	require.True(t, pick(d, 1, 3, 4, 5))
	require.True(t, pick(d, 1, 2, 5, 8))
	require.True(t, pick(d, 0, 0, 1))
	require.True(t, pick(d, 0, 6, 7, 8))
	require.True(t, pick(d, 1, 0, 3))

	assert.Equal(t, StateComplete, d.State())
	assert.Equal(t, 1, rec.complete)
	assert.Zero(t, rec.selectionErrors)
	assert.Len(t, d.SelectedCards(0), 3+2+3)
	assert.Len(t, d.SelectedCards(1), 3+3+2)
}

type shortDispenser struct{}

func (shortDispenser) Dispense(qty int) []string { return []string{"a", "b", "c"} }
func (shortDispenser) DispenseAll() []string     { return []string{"a", "b", "c"} }

func TestGridNotEnoughCards(t *testing.T) {
	d := New(gridConfig(1, 2, 30), []Dispenser[string]{shortDispenser{}}, nil)
	rec := newRecordingObserver()
	d.AddObserver(rec)
	d.Start()

	assert.Equal(t, StateError, d.State())
	assert.Error(t, d.Err())
	assert.Equal(t, 1, rec.errors)
	assert.Zero(t, rec.complete)
}

func TestGridRequiresTwoChairs(t *testing.T) {
	d := New(gridConfig(1, 3, 30), testDispensers(1), nil)
	assert.Equal(t, StateError, d.State())
	assert.ErrorIs(t, d.Err(), ErrInvalidConfig)
}
