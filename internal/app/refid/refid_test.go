package refid

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	for i := 0; i < 50; i++ {
		id := uuid.New()

		ref := Encode(id)
		require.LessOrEqual(t, len(ref), 40, "reference_id у Square ограничен 40 символами")
		require.True(t, strings.HasPrefix(ref, "tcr1"))

		decoded, ok := Decode(ref)
		require.True(t, ok)
		assert.Equal(t, id, decoded)
	}
}

func TestDecodeLegacyUUID(t *testing.T) {
	id := uuid.New()

	decoded, ok := Decode(id.String())
	require.True(t, ok)
	assert.Equal(t, id, decoded)
}

func TestDecodeMalformed(t *testing.T) {
	cases := []string{
		"",
		"   ",
		"not-a-reference",
		"tcr1",
		"tcr1!!!!invalid-base32!!!!",
		"tcr1aaaa", // валидный base32, но не 16 байт
		"tournament_42_17",        // старый формат фронтенда, ID заявки не содержит
		"team_transfer_abc_xyz",   // тоже
		strings.Repeat("a", 4096), // мусор произвольной длины
		"tcr1" + strings.Repeat("a", 260),
		"00000000-0000-0000-0000-000000000000", // нулевой UUID не считается совпадением
	}

	for _, ref := range cases {
		_, ok := Decode(ref)
		assert.False(t, ok, "ожидали no match для %q", ref)
	}
}
