package ledger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindProgramAddressIsDeterministic(t *testing.T) {
	program := AddressFromSeed("attendance-program")
	creator := AddressFromSeed("creator")

	a, bumpA, err := FindProgramAddress(program, []byte("event"), creator[:], []byte("rustconf"))
	require.NoError(t, err)
	b, bumpB, err := FindProgramAddress(program, []byte("event"), creator[:], []byte("rustconf"))
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, bumpA, bumpB)
	assert.False(t, isOnCurve(a))

	// Re-deriving with the found bump gives the same address.
	again, err := CreateProgramAddress(program, []byte("event"), creator[:], []byte("rustconf"), []byte{bumpA})
	require.NoError(t, err)
	assert.Equal(t, a, again)
}

func TestFindProgramAddressSeparatesInputs(t *testing.T) {
	program := AddressFromSeed("attendance-program")
	other := AddressFromSeed("other-program")

	a, _, err := FindProgramAddress(program, []byte("collection_mint"), []byte("gophercon"))
	require.NoError(t, err)
	b, _, err := FindProgramAddress(program, []byte("collection_mint"), []byte("gophercon-eu"))
	require.NoError(t, err)
	c, _, err := FindProgramAddress(other, []byte("collection_mint"), []byte("gophercon"))
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestProgramAddressSeedLimits(t *testing.T) {
	program := AddressFromSeed("attendance-program")

	_, _, err := FindProgramAddress(program, bytes.Repeat([]byte("x"), MaxSeedLength+1))
	assert.ErrorIs(t, err, ErrMaxSeedLength)

	seeds := make([][]byte, MaxSeeds)
	for i := range seeds {
		seeds[i] = []byte{byte(i)}
	}
	_, _, err = FindProgramAddress(program, seeds...)
	assert.ErrorIs(t, err, ErrTooManySeeds)

	_, err = CreateProgramAddress(program, append(seeds, []byte{0xff})...)
	assert.ErrorIs(t, err, ErrTooManySeeds)
}

func TestCreateProgramAddressRejectsOnCurve(t *testing.T) {
	program := AddressFromSeed("attendance-program")

	// Roughly half of all hashes land on the curve, so some bump is rejected.
	rejected := 0
	for bump := 0; bump < 64; bump++ {
		_, err := CreateProgramAddress(program, []byte("seed"), []byte{byte(bump)})
		if err != nil {
			assert.ErrorIs(t, err, ErrInvalidSeeds)
			rejected++
		}
	}
	assert.Positive(t, rejected)
}

func TestAddressText(t *testing.T) {
	addr := AddressFromSeed("alice")

	parsed, err := ParseAddress(addr.String())
	require.NoError(t, err)
	assert.Equal(t, addr, parsed)

	_, err = ParseAddress("0OIl")
	assert.ErrorIs(t, err, ErrInvalidAddress)

	_, err = ParseAddress("3yZe7d")
	assert.ErrorIs(t, err, ErrInvalidAddress)

	assert.True(t, Address{}.IsZero())
	assert.False(t, addr.IsZero())
}
