package attendance

import (
	"crypto/sha256"
	"testing"

	"ms-attendance/internal/ledger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelector(t *testing.T) {
	sum := sha256.Sum256([]byte("global:register_event"))
	sel := Selector("register_event")
	assert.Equal(t, sum[:8], sel[:])
}

func TestInstructionWireFormat(t *testing.T) {
	event := ledger.AddressFromSeed("event")
	cases := []Instruction{
		InitializeEvent{
			Name:                "gophercon",
			Description:         "desc",
			URI:                 "https://example.com",
			AttendanceCode:      codeK,
			StartTime:           startTime,
			EndTime:             endTime,
			TotalAttendees:      250,
			CollectionAuthority: ledger.AddressFromSeed("collection"),
		},
		EditEvent{Name: "gophercon", AttendanceCode: codeK, StartTime: -1, EndTime: 2, TotalAttendees: 3},
		CloseEvent{Event: event},
		RegisterEvent{Event: event},
		CancelRegistration{Event: event},
		MintNFT{Event: event, AttendanceCode: codeK},
	}
	for _, ix := range cases {
		t.Run(ix.Kind(), func(t *testing.T) {
			data, accounts := EncodeInstruction(ix)
			sel := Selector(ix.Kind())
			assert.Equal(t, sel[:], data[:8])

			decoded, err := DecodeInstruction(data, accounts)
			require.NoError(t, err)
			assert.Equal(t, ix, decoded)
		})
	}
}

func TestInstructionKinds(t *testing.T) {
	// Event-carrying instructions keep their Name field apart from their kind.
	initIx := InitializeEvent{Name: "gophercon"}
	edit := EditEvent{Name: "gophercon"}
	assert.Equal(t, "initialize_event", initIx.Kind())
	assert.Equal(t, "gophercon", initIx.Name)
	assert.Equal(t, "edit_event", edit.Kind())
	assert.Equal(t, "gophercon", edit.Name)

	kinds := map[string]bool{}
	for _, ix := range []Instruction{initIx, edit, CloseEvent{}, RegisterEvent{}, CancelRegistration{}, MintNFT{}} {
		kinds[ix.Kind()] = true
		_, ok := selectors[Selector(ix.Kind())]
		assert.True(t, ok, ix.Kind())
	}
	assert.Len(t, kinds, 6)
}

func TestInitializeEventArgumentLayout(t *testing.T) {
	data, accounts := EncodeInstruction(InitializeEvent{Name: "ab", TotalAttendees: 2})
	assert.Empty(t, accounts)
	// selector, "ab", "", "", code, start, end, total, collection
	assert.Len(t, data, 8+(4+2)+4+4+32+8+8+4+32)
	assert.Equal(t, []byte{2, 0, 0, 0, 'a', 'b'}, data[8:14])
}

func TestDecodeInstructionErrors(t *testing.T) {
	_, err := DecodeInstruction([]byte{1, 2, 3}, nil)
	assert.ErrorIs(t, err, ErrInstructionFallbackNotFound)

	_, err = DecodeInstruction(make([]byte, 16), nil)
	assert.ErrorIs(t, err, ErrInstructionFallbackNotFound)

	data, _ := EncodeInstruction(EditEvent{Name: "gophercon"})
	_, err = DecodeInstruction(data[:len(data)-1], nil)
	assert.ErrorIs(t, err, ErrInstructionDidNotDeserialize)

	// A string length running past the end of the data.
	data, _ = EncodeInstruction(EditEvent{Name: "gophercon"})
	data[8] = 0xff
	_, err = DecodeInstruction(data, nil)
	assert.ErrorIs(t, err, ErrInstructionDidNotDeserialize)

	data, _ = EncodeInstruction(RegisterEvent{})
	_, err = DecodeInstruction(data, nil)
	assert.ErrorIs(t, err, ErrNotEnoughAccountKeys)
}

func TestProgramErrorsMatchByCode(t *testing.T) {
	wrapped := &ProgramError{Code: 6001, Name: "RegistrationCompleted", Msg: "registration completed"}
	assert.ErrorIs(t, wrapped, ErrRegistrationCompleted)
	assert.NotErrorIs(t, wrapped, ErrRegistrationNotOpenYet)
	assert.Equal(t, "RegistrationCompleted (6001): registration completed", ErrRegistrationCompleted.Error())

	seen := map[uint32]bool{}
	for _, e := range Errors() {
		assert.False(t, seen[e.Code], "duplicate code %d", e.Code)
		seen[e.Code] = true
	}
}
