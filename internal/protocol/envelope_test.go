package protocol

import (
	"testing"

	"github.com/mildmongrel/thicket/internal/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeMessage(t *testing.T) {
	data, err := Encode(New(TypeCurrentPack, CurrentPack{
		PackID: 7,
		Cards:  []catalog.Card{{Name: "Shock", SetCode: "TST"}},
	}))
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"type":"current_pack","payload":{"packId":7,"cards":[{"name":"Shock","setCode":"TST"}]}}`,
		string(data))
}

func TestDecodeEnvelope(t *testing.T) {
	env, err := Decode([]byte(`{"type":"indexed_card_selection","payload":{"packId":3,"indices":[0,1,2]}}`))
	require.NoError(t, err)
	assert.Equal(t, TypeIndexedCardSelection, env.Type)

	var sel IndexedCardSelection
	require.NoError(t, env.Into(&sel))
	assert.Equal(t, IndexedCardSelection{PackID: 3, Indices: []int{0, 1, 2}}, sel)
}

func TestDecodeWithoutPayload(t *testing.T) {
	env, err := Decode([]byte(`{"type":"depart_room"}`))
	require.NoError(t, err)

	ready := ReadyRequest{Ready: true}
	require.NoError(t, env.Into(&ready))
	assert.True(t, ready.Ready)
}

func TestDecodeErrors(t *testing.T) {
	_, err := Decode([]byte(`{"payload":{}}`))
	assert.ErrorIs(t, err, ErrMissingType)

	_, err = Decode([]byte(`{{`))
	assert.Error(t, err)

	env, err := Decode([]byte(`{"type":"ready","payload":{"ready":"yes"}}`))
	require.NoError(t, err)
	var ready ReadyRequest
	assert.Error(t, env.Into(&ready))
}
