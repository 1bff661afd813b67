package attendance

import (
	"strings"
	"testing"

	"ms-attendance/internal/ledger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordSizes(t *testing.T) {
	assert.Equal(t, 301, EventSize)
	assert.Equal(t, 76, RegistrationSize)

	data, err := (&Event{Name: "x"}).MarshalBinary()
	require.NoError(t, err)
	assert.Len(t, data, EventSize)

	data, err = (&EventRegistration{}).MarshalBinary()
	require.NoError(t, err)
	assert.Len(t, data, RegistrationSize)
}

func TestEventLayout(t *testing.T) {
	e := &Event{
		Creator:             ledger.AddressFromSeed("organizer"),
		Name:                "gophercon",
		Description:         "go conference",
		URI:                 "https://example.com",
		AttendanceCode:      AttendanceCodeFromPhrase("phrase"),
		StartTime:           -5,
		EndTime:             1 << 40,
		TotalAttendees:      7,
		RegisteredAttendees: 3,
		CollectionAuthority: ledger.AddressFromSeed("collection"),
	}
	data, err := e.MarshalBinary()
	require.NoError(t, err)

	tag := recordTag(KindEvent)
	assert.Equal(t, tag[:], data[:8])
	assert.Equal(t, byte(layoutVersion), data[8])
	assert.Equal(t, e.Creator[:], data[9:41])
	// u32 little-endian length, then the name, then padding to 32 bytes.
	assert.Equal(t, []byte{9, 0, 0, 0}, data[41:45])
	assert.Equal(t, "gophercon", string(data[45:54]))

	var decoded Event
	require.NoError(t, decoded.UnmarshalBinary(data))
	assert.Equal(t, *e, decoded)
}

func TestRecordDecodeRejectsForeignData(t *testing.T) {
	regData, err := (&EventRegistration{Registered: true}).MarshalBinary()
	require.NoError(t, err)

	var e Event
	assert.ErrorIs(t, e.UnmarshalBinary(regData), ErrAccountDiscriminatorMismatch)
	assert.ErrorIs(t, e.UnmarshalBinary([]byte{1, 2}), ErrAccountDidNotDeserialize)

	eventData, err := (&Event{Name: "n"}).MarshalBinary()
	require.NoError(t, err)
	assert.ErrorIs(t, e.UnmarshalBinary(eventData[:100]), ErrAccountDidNotDeserialize)

	// A stored name length beyond the bound is corrupt.
	eventData[41] = MaxNameLength + 1
	assert.ErrorIs(t, e.UnmarshalBinary(eventData), ErrAccountDidNotDeserialize)
}

func TestEventBounds(t *testing.T) {
	_, err := (&Event{Name: strings.Repeat("a", MaxNameLength)}).MarshalBinary()
	assert.NoError(t, err)
	_, err = (&Event{Name: strings.Repeat("a", MaxNameLength+1)}).MarshalBinary()
	assert.ErrorIs(t, err, ErrRecordTooLarge)
}
